package postgres

import (
	"errors"
	"testing"

	"github.com/mojo-fit/mojo-indexer/internal/config"
	"github.com/stretchr/testify/assert"
)

func Test_PostgresConnectionString(t *testing.T) {
	t.Run("Should build a connection string from the database config", func(t *testing.T) {
		cfg := PostgresConfigFromDbConfig(&config.DatabaseConfig{
			Host:       "localhost",
			Port:       5432,
			User:       "mojo",
			Password:   "secret",
			DbName:     "mojo_indexer",
			SchemaName: "indexer",
		})

		connStr, err := GetPostgresConnectionString(cfg)
		assert.Nil(t, err)
		assert.Equal(t, "host=localhost  user=mojo password=secret dbname=mojo_indexer port=5432 sslmode=disable TimeZone=UTC search_path=indexer", connStr)
	})
	t.Run("Should reject an unknown ssl mode", func(t *testing.T) {
		_, err := GetPostgresConnectionString(&PostgresConfig{Host: "localhost", SSLMode: "sometimes"})
		assert.NotNil(t, err)
	})
	t.Run("Should refuse to create a database with an unsafe name", func(t *testing.T) {
		err := CreateDatabaseIfNotExists(&PostgresConfig{Host: "localhost", DbName: "x; drop table y"})
		assert.NotNil(t, err)
	})
	t.Run("Should detect duplicate key errors", func(t *testing.T) {
		assert.True(t, IsDuplicateKeyError(errors.New(`pq: duplicate key value violates unique constraint "sessions_pkey"`)))
		assert.False(t, IsDuplicateKeyError(errors.New("connection refused")))
	})
}
