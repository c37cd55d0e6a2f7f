package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Sqlite(t *testing.T) {
	t.Run("Should open an in-memory database", func(t *testing.T) {
		grm, err := NewGormSqliteFromSqlite(NewSqlite(InMemoryPath()))
		assert.Nil(t, err)
		assert.NotNil(t, grm)

		var one int
		res := grm.Raw(`select 1`).Scan(&one)
		assert.Nil(t, res.Error)
		assert.Equal(t, 1, one)
	})
	t.Run("Should give every in-memory database its own name", func(t *testing.T) {
		assert.NotEqual(t, InMemoryPath(), InMemoryPath())
	})
}
