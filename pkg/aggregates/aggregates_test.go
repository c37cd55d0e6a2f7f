package aggregates

import (
	"testing"
	"time"

	"github.com/mojo-fit/mojo-indexer/internal/logger"
	"github.com/mojo-fit/mojo-indexer/internal/tests"
	"github.com/mojo-fit/mojo-indexer/pkg/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*Recalculator, *gorm.DB) {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	grm, err := tests.GetSqliteDatabaseConnection(l)
	require.Nil(t, err)
	return NewRecalculator(l), grm
}

func Test_Recalculator(t *testing.T) {
	big, err := decimal.NewFromString("115792089237316195423570985008687907853269984665640564039457584007913129639935")
	require.Nil(t, err)

	t.Run("Should sum up and down stakes beyond 64 bits", func(t *testing.T) {
		r, grm := setup(t)
		require.Nil(t, grm.Create(&storage.Session{Id: 1, StartedAt: time.Unix(0, 0).UTC(), TotalUpStake: decimal.Zero, TotalDownStake: decimal.Zero}).Error)
		require.Nil(t, grm.Create(&storage.Stake{SessionId: 1, Staker: "0xa", IsUp: true, Amount: big, Payout: decimal.Zero}).Error)
		require.Nil(t, grm.Create(&storage.Stake{SessionId: 1, Staker: "0xb", IsUp: true, Amount: decimal.NewFromInt(1), Payout: decimal.Zero}).Error)
		require.Nil(t, grm.Create(&storage.Stake{SessionId: 1, Staker: "0xc", IsUp: false, Amount: decimal.NewFromInt(7), Payout: decimal.Zero}).Error)

		totals, err := r.RecalculateSessionTotals(grm, 1)
		require.Nil(t, err)
		require.NotNil(t, totals)
		assert.Equal(t, big.Add(decimal.NewFromInt(1)).String(), totals.TotalUpStake.String())
		assert.Equal(t, "7", totals.TotalDownStake.String())

		session := &storage.Session{}
		require.Nil(t, grm.First(session, 1).Error)
		assert.Equal(t, totals.TotalUpStake.String(), session.TotalUpStake.String())
		assert.Equal(t, "7", session.TotalDownStake.String())
	})

	t.Run("Should skip sessions that do not exist yet", func(t *testing.T) {
		r, grm := setup(t)
		require.Nil(t, grm.Create(&storage.Stake{SessionId: 9, Staker: "0xa", IsUp: true, Amount: decimal.NewFromInt(3), Payout: decimal.Zero}).Error)

		totals, err := r.RecalculateSessionTotals(grm, 9)
		assert.Nil(t, err)
		assert.Nil(t, totals)
	})

	t.Run("Should return zero totals for a session without stakes", func(t *testing.T) {
		r, grm := setup(t)
		totals, err := r.SumStakes(grm, 4)
		require.Nil(t, err)
		assert.True(t, totals.TotalUpStake.IsZero())
		assert.True(t, totals.TotalDownStake.IsZero())
	})
}
