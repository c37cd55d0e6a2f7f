package migrations

import (
	"testing"

	"github.com/mojo-fit/mojo-indexer/internal/logger"
	"github.com/mojo-fit/mojo-indexer/pkg/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Migrator(t *testing.T) {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	grm, err := sqlite.NewGormSqliteFromSqlite(sqlite.NewSqlite(sqlite.InMemoryPath()))
	require.Nil(t, err)

	migrator, err := NewMigrator(grm, l)
	require.Nil(t, err)

	t.Run("Should run every migration once", func(t *testing.T) {
		assert.Nil(t, migrator.MigrateAll())

		var count int64
		grm.Model(&Migrations{}).Count(&count)
		assert.Equal(t, int64(len(allMigrations())), count)

		for _, table := range []string{"checkpoints", "sessions", "stakes", "fighters", "challenges", "battle_credits", "window_state_roots"} {
			assert.True(t, grm.Migrator().HasTable(table), table)
		}
	})
	t.Run("Should skip migrations that already ran", func(t *testing.T) {
		assert.Nil(t, migrator.MigrateAll())

		var count int64
		grm.Model(&Migrations{}).Count(&count)
		assert.Equal(t, int64(len(allMigrations())), count)
	})
}
