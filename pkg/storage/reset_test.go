package storage_test

import (
	"testing"
	"time"

	"github.com/mojo-fit/mojo-indexer/internal/logger"
	"github.com/mojo-fit/mojo-indexer/internal/tests"
	"github.com/mojo-fit/mojo-indexer/pkg/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ResetDerivedState(t *testing.T) {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	grm, err := tests.GetSqliteDatabaseConnection(l)
	require.Nil(t, err)

	require.Nil(t, grm.Create(&storage.Session{Id: 1, StartedAt: time.Unix(0, 0).UTC(), TotalUpStake: decimal.Zero, TotalDownStake: decimal.Zero}).Error)
	require.Nil(t, grm.Create(&storage.Stake{SessionId: 1, Staker: "0xa", Amount: decimal.NewFromInt(1), Payout: decimal.Zero}).Error)
	require.Nil(t, grm.Create(&storage.Fighter{Address: "0xa", Wins: 2}).Error)
	require.Nil(t, grm.Create(&storage.Challenge{Id: 1, Challenger: "0xa", Opponent: "0xb", Wager: decimal.Zero, Payout: decimal.Zero}).Error)
	require.Nil(t, grm.Create(&storage.BattleCredit{ChallengeId: 1, Winner: "0xa", Loser: "0xb"}).Error)
	require.Nil(t, grm.Create(&storage.WindowStateRoot{ToPosition: 10, FromPosition: 1, StateRoot: "0x01"}).Error)
	require.Nil(t, grm.Create(&storage.Checkpoint{Id: 1, LastPosition: 10}).Error)

	require.Nil(t, storage.ResetDerivedState(grm))

	for _, model := range []interface{}{
		&storage.Session{}, &storage.Stake{}, &storage.Fighter{}, &storage.Challenge{},
		&storage.BattleCredit{}, &storage.WindowStateRoot{}, &storage.Checkpoint{},
	} {
		var count int64
		require.Nil(t, grm.Model(model).Count(&count).Error)
		assert.Equal(t, int64(0), count)
	}
}

func Test_LevelForTotalReps(t *testing.T) {
	assert.Equal(t, uint64(0), storage.LevelForTotalReps(9))
	assert.Equal(t, uint64(1), storage.LevelForTotalReps(10))
	assert.Equal(t, uint64(6), storage.LevelForTotalReps(60))
}
