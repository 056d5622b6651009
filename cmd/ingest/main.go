package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"howfar/backend/internal/config"
	"howfar/backend/internal/db"
	"howfar/backend/internal/ingest"
	"howfar/backend/internal/logging"
)

const usage = `usage: ingest <command> [args]

commands:
  intersections <nodes.csv> [--tristate]   import intersection origins
  stops <gtfs-directory>                   import GTFS transit stops
  land <boundary.geojson>                  load the land-clipping boundary
  help                                     print this message
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

	if len(os.Args) < 2 || os.Args[1] == "help" {
		fmt.Print(usage)
		return
	}
	command := os.Args[1]

	if err := db.InitPostgres(cfg.DB.DSN()); err != nil {
		logging.Fatal("failed to connect to Postgres", "error", err)
	}
	if err := db.EnsureSchema(context.Background(), db.DB); err != nil {
		logging.Fatal("failed to ensure schema", "error", err)
	}
	gormDB, err := db.InitPostgresORM(cfg.DB.DSN())
	if err != nil {
		logging.Fatal("failed to connect to Postgres via GORM", "error", err)
	}

	switch command {
	case "intersections":
		if len(os.Args) < 3 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(1)
		}
		bounds := ingest.NYCBounds
		for _, arg := range os.Args[3:] {
			if arg == "--tristate" {
				bounds = ingest.TristateBounds
			}
		}

		records, err := ingest.ReadIntersectionsCSV(os.Args[2])
		if err != nil {
			logging.Fatal("failed to read intersections", "path", os.Args[2], "error", err)
		}
		count, err := ingest.ImportIntersections(gormDB, records, bounds)
		if err != nil {
			logging.Fatal("failed to import intersections", "error", err)
		}
		fmt.Printf("imported %d intersections\n", count)

	case "stops":
		if len(os.Args) < 3 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(1)
		}
		count, err := ingest.ImportStops(gormDB, os.Args[2])
		if err != nil {
			logging.Fatal("failed to import transit stops", "error", err)
		}
		fmt.Printf("imported %d transit stops\n", count)

	case "land":
		if len(os.Args) < 3 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(1)
		}
		if err := ingest.ImportLandBoundary(gormDB, os.Args[2]); err != nil {
			logging.Fatal("failed to load land boundary", "error", err)
		}
		fmt.Println("land boundary loaded")

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		os.Exit(1)
	}
}
