package cmd

import (
	"fmt"

	"github.com/mojo-fit/mojo-indexer/internal/config"
	"github.com/mojo-fit/mojo-indexer/pkg/migrations"
	"github.com/mojo-fit/mojo-indexer/pkg/postgres"
	"github.com/mojo-fit/mojo-indexer/pkg/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// connectDatabase opens the configured database and applies any pending migrations.
func connectDatabase(cfg *config.Config, l *zap.Logger) (*gorm.DB, error) {
	var grm *gorm.DB

	switch cfg.DatabaseConfig.Driver {
	case config.DatabaseDriver_Sqlite:
		db, err := sqlite.NewGormSqliteFromSqlite(sqlite.NewSqlite(cfg.DatabaseConfig.SqlitePath))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		grm = db
	case config.DatabaseDriver_Postgres:
		pgConfig := postgres.PostgresConfigFromDbConfig(&cfg.DatabaseConfig)
		pgConfig.CreateDbIfNotExists = true

		pg, err := postgres.NewPostgres(pgConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to setup postgres connection: %w", err)
		}
		db, err := postgres.NewGormFromPostgresConnection(pg.Db)
		if err != nil {
			return nil, fmt.Errorf("failed to create gorm instance: %w", err)
		}
		grm = db
	default:
		return nil, fmt.Errorf("unsupported database driver '%s'", cfg.DatabaseConfig.Driver)
	}

	migrator, err := migrations.NewMigrator(grm, l)
	if err != nil {
		return nil, err
	}
	if err := migrator.MigrateAll(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return grm, nil
}
