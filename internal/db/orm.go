package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"howfar/backend/internal/logging"
)

var PgDB *gorm.DB

// InitPostgresORM opens the GORM handle used by the ingest commands. The
// serving and batch paths stay on sqlx.
func InitPostgresORM(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	PgDB = db
	logging.Info("Connected to Postgres via GORM")
	return db, nil
}
