package tests

import (
	"github.com/mojo-fit/mojo-indexer/internal/config"
	"github.com/mojo-fit/mojo-indexer/internal/tests/ledgertest"
	"github.com/mojo-fit/mojo-indexer/pkg/migrations"
	"github.com/mojo-fit/mojo-indexer/pkg/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GetConfig returns a config wired to the fake ledger contracts and an in-memory database.
func GetConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.ContractsConfig.SessionAddress = ledgertest.SessionAddress
	cfg.ContractsConfig.FighterAddress = ledgertest.FighterAddress
	cfg.IndexerConfig.ChunkSize = config.DefaultChunkSize
	cfg.DatabaseConfig.Driver = config.DatabaseDriver_Sqlite
	return cfg
}

// GetSqliteDatabaseConnection opens a fresh, fully migrated in-memory database.
func GetSqliteDatabaseConnection(l *zap.Logger) (*gorm.DB, error) {
	grm, err := sqlite.NewGormSqliteFromSqlite(sqlite.NewSqlite(sqlite.InMemoryPath()))
	if err != nil {
		return nil, err
	}
	migrator, err := migrations.NewMigrator(grm, l)
	if err != nil {
		return nil, err
	}
	if err := migrator.MigrateAll(); err != nil {
		return nil, err
	}
	return grm, nil
}
