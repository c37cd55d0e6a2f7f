package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

const (
	sessionAddress = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	fighterAddress = "0xe7f1725e7734ce288f8367e1bb143e90bb3f0512"
)

func Test_Config(t *testing.T) {
	t.Run("Should read typed settings from viper", func(t *testing.T) {
		viper.Reset()
		defer viper.Reset()
		viper.Set(IndexerChunkSize, 500)
		viper.Set(IndexerStartBlock, 42)
		viper.Set(IndexerIdempotentBattleCredits, true)
		viper.Set(IndexerPollInterval, "30s")
		viper.Set(ContractsSessionAddress, sessionAddress)
		viper.Set(DatabaseDriverName, "sqlite")

		cfg := NewConfig()
		assert.Equal(t, uint64(500), cfg.IndexerConfig.ChunkSize)
		assert.Equal(t, uint64(42), cfg.IndexerConfig.StartBlock)
		assert.True(t, cfg.IndexerConfig.IdempotentBattleCredits)
		assert.Equal(t, "30s", cfg.IndexerConfig.PollInterval.String())
		assert.Equal(t, "0x5fbdb2315678afecb367f032d93f642f64180aa3", cfg.ContractsConfig.SessionAddress)
		assert.Equal(t, DatabaseDriver_Sqlite, cfg.DatabaseConfig.Driver)
	})

	t.Run("Should default to postgres", func(t *testing.T) {
		viper.Reset()
		assert.Equal(t, DatabaseDriver_Postgres, NewConfig().DatabaseConfig.Driver)
	})

	t.Run("Should start one block before the configured start block", func(t *testing.T) {
		cfg := &Config{}
		assert.Equal(t, uint64(0), cfg.GetStartingCheckpoint())
		cfg.IndexerConfig.StartBlock = 100
		assert.Equal(t, uint64(99), cfg.GetStartingCheckpoint())
	})

	t.Run("Should validate required settings", func(t *testing.T) {
		valid := func() *Config {
			return &Config{
				IndexerConfig:   IndexerConfig{ChunkSize: 10},
				ContractsConfig: ContractsConfig{SessionAddress: sessionAddress, FighterAddress: fighterAddress},
				DatabaseConfig:  DatabaseConfig{Driver: DatabaseDriver_Postgres},
			}
		}
		assert.Nil(t, valid().Validate())

		cfg := valid()
		cfg.IndexerConfig.ChunkSize = 0
		assert.NotNil(t, cfg.Validate())

		cfg = valid()
		cfg.ContractsConfig.FighterAddress = "0x1234"
		assert.NotNil(t, cfg.Validate())

		cfg = valid()
		cfg.DatabaseConfig.Driver = "mysql"
		assert.NotNil(t, cfg.Validate())
	})

	t.Run("Should convert kebab flag names to snake keys", func(t *testing.T) {
		assert.Equal(t, "indexer.chunk_size", KebabToSnakeCase("indexer.chunk-size"))
	})
}
