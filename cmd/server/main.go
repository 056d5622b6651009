package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"howfar/backend/internal/common"
	"howfar/backend/internal/config"
	"howfar/backend/internal/db"
	"howfar/backend/internal/logging"
	"howfar/backend/internal/metrics"
	"howfar/backend/internal/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if err := logging.Init(cfg.AppEnv); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("howfar backend starting up",
		"environment", cfg.AppEnv,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	if err := db.InitPostgres(cfg.DB.DSN()); err != nil {
		logging.Fatal("failed to connect to Postgres", "error", err)
	}
	logging.Info("Connected to Postgres (sqlx)")

	if err := db.EnsureSchema(context.Background(), db.DB); err != nil {
		logging.Fatal("failed to ensure schema", "error", err)
	}

	var cache common.CacheInterface
	if cfg.Redis.Enabled {
		redisCache, err := common.NewRedisCacheService(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password)
		if err != nil {
			logging.Fatal("failed to connect to Redis", "error", err)
		}
		cache = redisCache
		logging.Info("Using Redis read cache", "host", cfg.Redis.Host)
	} else {
		cache = common.NewCacheService(300, 600)
		logging.Info("Using in-memory read cache")
	}
	defer cache.Close()

	metricsReg := metrics.NewMetricsRegistry()
	upSince := time.Now()

	router := routes.RegisterRoutes(db.DB, cache, metricsReg, upSince)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", router)

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	logging.Info("Server starting", "port", cfg.ServerPort, "environment", cfg.AppEnv)
	log.Fatal(http.ListenAndServe(addr, mux))
}
