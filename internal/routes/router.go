package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"

	"howfar/backend/internal/api"
	"howfar/backend/internal/common"
	"howfar/backend/internal/db/repositories"
	"howfar/backend/internal/logging"
	"howfar/backend/internal/metrics"
	"howfar/backend/internal/middleware"
)

// RegisterRoutes wires the read API onto a Chi router.
func RegisterRoutes(db *sqlx.DB, cache common.CacheInterface, metricsReg *metrics.MetricsRegistry, upSince time.Time) http.Handler {
	r := chi.NewRouter()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.MetricsMiddleware(metricsReg))
	r.Use(middleware.RateLimitMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	handlers := api.NewHandlers(
		repositories.NewIsochroneRepository(db),
		repositories.NewIntersectionRepository(db),
		repositories.NewTransitStopRepository(db),
		repositories.NewStatsRepository(db),
		repositories.NewBatchRepository(db),
		cache,
		metricsReg,
	)

	r.Route("/api", func(r chi.Router) {
		r.Get("/click", handlers.ClickHandler)
		r.Get("/isochrone/{id}", handlers.IsochroneByIDHandler)
		r.Get("/intersections/viewport", handlers.ViewportHandler)
		r.Get("/transit/stops/viewport", handlers.StopsViewportHandler)
		r.Get("/transit/stops/nearby", handlers.StopsNearbyHandler)
		r.Get("/modes", handlers.ModesHandler)
		r.Get("/stats", handlers.StatsHandler)
		r.Get("/stats/bounds", handlers.BoundsHandler)
		r.Get("/health", api.HealthCheckHandler(db, upSince))
	})

	logging.Info("Router initialized with metrics and logging middleware")
	return r
}
