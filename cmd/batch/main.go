package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"howfar/backend/internal/config"
	"howfar/backend/internal/constants"
	"howfar/backend/internal/db"
	"howfar/backend/internal/db/repositories"
	"howfar/backend/internal/logging"
	"howfar/backend/internal/metrics"
	"howfar/backend/internal/models/entities"
	"howfar/backend/internal/providers"
	"howfar/backend/internal/routing"
	"howfar/backend/internal/workers"
)

const usage = `usage: batch <command> [mode] [time] [day-type] [parallelism]

commands:
  run      compute isochrones for every pending origin
  status   print queue and cache counters for the key
  retry    re-queue failed origins for the key
  help     print this message

defaults: transit 10:00:00 weekday 15
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if err := logging.Init(cfg.AppEnv); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logging.Close()

	command := "help"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	if command == "help" {
		fmt.Print(usage)
		return
	}

	key := entities.CacheKey{
		Mode:          constants.ModeTransit,
		DepartureTime: "10:00:00",
		DayType:       constants.DayTypeWeekday,
	}
	parallelism := cfg.Batch.Parallelism

	if len(os.Args) > 2 {
		key.Mode = os.Args[2]
	}
	if len(os.Args) > 3 {
		key.DepartureTime = os.Args[3]
	}
	if len(os.Args) > 4 {
		key.DayType = os.Args[4]
	}
	if len(os.Args) > 5 {
		n, err := strconv.Atoi(os.Args[5])
		if err != nil || n < 1 {
			fmt.Fprintf(os.Stderr, "invalid parallelism %q\n", os.Args[5])
			os.Exit(1)
		}
		parallelism = n
	}

	if !constants.IsValidMode(key.Mode) {
		fmt.Fprintf(os.Stderr, "%s: %s\n", constants.ErrMsgInvalidMode, key.Mode)
		os.Exit(1)
	}
	if !constants.IsValidDayType(key.DayType) {
		fmt.Fprintf(os.Stderr, "%s: %s\n", constants.ErrMsgInvalidDay, key.DayType)
		os.Exit(1)
	}

	if err := db.InitPostgres(cfg.DB.DSN()); err != nil {
		logging.Fatal("failed to connect to Postgres", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.EnsureSchema(ctx, db.DB); err != nil {
		logging.Fatal("failed to ensure schema", "error", err)
	}

	batchRepo := repositories.NewBatchRepository(db.DB)
	isoRepo := repositories.NewIsochroneRepository(db.DB)
	intersectionRepo := repositories.NewIntersectionRepository(db.DB)

	switch command {
	case "run":
		runBatch(ctx, cfg, key, parallelism, batchRepo, isoRepo, intersectionRepo)
	case "status":
		printStatus(ctx, key, batchRepo, intersectionRepo)
	case "retry":
		reset, err := batchRepo.ResetFailed(ctx, key)
		if err != nil {
			logging.Fatal("failed to reset failed origins", "key", key.String(), "error", err)
		}
		fmt.Printf("re-queued %d failed origins for %s\n", reset, key)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		os.Exit(1)
	}
}

func runBatch(
	ctx context.Context,
	cfg *config.Config,
	key entities.CacheKey,
	parallelism int,
	batchRepo *repositories.BatchRepository,
	isoRepo *repositories.IsochroneRepository,
	intersectionRepo *repositories.IntersectionRepository,
) {
	fleet := routing.NewFleet(cfg.Routing.WorkerURLs, cfg.Routing.HealthTimeout)
	if err := fleet.WaitReady(ctx, cfg.Routing.MaxHealthAttempts, cfg.Routing.HealthInterval); err != nil {
		logging.Error("routing fleet never became healthy", "error", err)
		os.Exit(1)
	}

	client := providers.NewRoutingProvider(cfg.Routing.Timeout, cfg.DayTypeDates, cfg.TimezoneOffset)
	registry := metrics.NewMetricsRegistry()
	worker := workers.NewBatchWorker(batchRepo, isoRepo, client, fleet, cfg.CutoffMinutes, registry)

	total, err := intersectionRepo.Total(ctx)
	if err != nil {
		logging.Fatal("failed to count intersections", "error", err)
	}

	batchCfg := workers.BatchConfig{
		Parallelism:     parallelism,
		BatchSize:       cfg.Batch.BatchSize,
		MaxBatches:      cfg.Batch.MaxBatches,
		StaleHorizon:    cfg.Batch.StaleHorizon,
		PriorityRegions: cfg.Batch.PriorityRegions,
	}

	logging.Info("starting batch run",
		"key", key.String(),
		"parallelism", parallelism,
		"batch_size", batchCfg.BatchSize,
		"workers", fleet.Size(),
	)

	err = worker.RunLoop(ctx, key, batchCfg, total, func(p workers.Progress) {
		fmt.Printf("batch %d: %d/%d cached (+%d) %.1f/s, %d remaining\n",
			p.Batch, p.Cached, p.Total, p.Delta, p.PerSecond, p.Remaining)
	})
	if err != nil {
		logging.Fatal("batch run failed", "key", key.String(), "error", err)
	}
}

func printStatus(
	ctx context.Context,
	key entities.CacheKey,
	batchRepo *repositories.BatchRepository,
	intersectionRepo *repositories.IntersectionRepository,
) {
	total, err := intersectionRepo.Total(ctx)
	if err != nil {
		logging.Fatal("failed to count intersections", "error", err)
	}
	cached, err := batchRepo.CachedOriginCount(ctx, key)
	if err != nil {
		logging.Fatal("failed to count cached origins", "error", err)
	}
	counts, err := batchRepo.StatusCounts(ctx, key)
	if err != nil {
		logging.Fatal("failed to read status counts", "error", err)
	}

	fmt.Printf("key: %s\n", key)
	fmt.Printf("cached origins: %d / %d\n", cached, total)
	for _, c := range counts {
		fmt.Printf("  %-11s %d\n", c.Status+":", c.Count)
	}
}
