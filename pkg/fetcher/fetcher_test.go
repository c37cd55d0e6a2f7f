package fetcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mojo-fit/mojo-indexer/internal/logger"
	"github.com/mojo-fit/mojo-indexer/internal/tests/ledgertest"
	"github.com/mojo-fit/mojo-indexer/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const alice = "0x00000000000000000000000000000000000000aa"

func setup(t *testing.T) (*zap.Logger, []*events.Subscription) {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	d, err := events.NewDecoder(ledgertest.SessionAddress, ledgertest.FighterAddress, l)
	require.Nil(t, err)
	return l, d.Subscriptions()
}

func Test_Fetcher(t *testing.T) {
	l, subs := setup(t)

	t.Run("Should query every kind over the full window even when empty", func(t *testing.T) {
		ledger := ledgertest.NewFakeLedger(50)
		f := NewFetcher(ledger, l)

		logs, err := f.FetchAll(context.Background(), subs, 1, 50)
		assert.Nil(t, err)
		assert.Len(t, logs, 0)
		assert.Len(t, ledger.LogsCalls, len(subs))
		for _, call := range ledger.LogsCalls {
			assert.Equal(t, uint64(1), call.From)
			assert.Equal(t, uint64(50), call.To)
		}
	})
	t.Run("Should merge logs from all kinds in block and log index order", func(t *testing.T) {
		ledger := ledgertest.NewFakeLedger(100)
		ledger.AddLogs(
			ledgertest.StatsUpdated(20, 1, alice, 1, 2, 3),
			ledgertest.SessionCreated(30, 0, 1, alice, 0, 10),
			ledgertest.FighterCreated(20, 0, alice),
			ledgertest.BetPlaced(10, 4, 1, alice, true, "5"),
			ledgertest.SessionCreated(200, 0, 2, alice, 0, 10),
		)
		f := NewFetcher(ledger, l)

		logs, err := f.FetchAll(context.Background(), subs, 1, 100)
		assert.Nil(t, err)
		require.Len(t, logs, 4)
		assert.Equal(t, uint64(10), logs[0].BlockNumber.Value())
		assert.Equal(t, uint64(20), logs[1].BlockNumber.Value())
		assert.Equal(t, uint64(0), logs[1].LogIndex.Value())
		assert.Equal(t, uint64(20), logs[2].BlockNumber.Value())
		assert.Equal(t, uint64(1), logs[2].LogIndex.Value())
		assert.Equal(t, uint64(30), logs[3].BlockNumber.Value())
	})
	t.Run("Should skip removed logs", func(t *testing.T) {
		ledger := ledgertest.NewFakeLedger(100)
		removed := ledgertest.FighterCreated(20, 0, alice)
		removed.Removed = true
		ledger.AddLogs(removed)
		f := NewFetcher(ledger, l)

		logs, err := f.FetchAll(context.Background(), subs, 1, 100)
		assert.Nil(t, err)
		assert.Len(t, logs, 0)
	})
	t.Run("Should fail the whole window when any kind fails", func(t *testing.T) {
		ledger := ledgertest.NewFakeLedger(100)
		ledger.AddLogs(ledgertest.FighterCreated(20, 0, alice))
		ledger.FailTopic(events.EventKind_StakeClaimed, ledgertest.ErrLedgerUnavailable)
		f := NewFetcher(ledger, l)

		logs, err := f.FetchAll(context.Background(), subs, 1, 100)
		assert.Nil(t, logs)
		var fetchErr *TransientFetchError
		require.True(t, errors.As(err, &fetchErr))
		assert.True(t, errors.Is(err, ledgertest.ErrLedgerUnavailable))
	})
	t.Run("Should wrap a failed tip lookup", func(t *testing.T) {
		ledger := ledgertest.NewFakeLedger(100)
		ledger.FailBlockNumber = ledgertest.ErrLedgerUnavailable
		f := NewFetcher(ledger, l)

		_, err := f.GetLedgerTip(context.Background())
		var fetchErr *TransientFetchError
		assert.True(t, errors.As(err, &fetchErr))
	})
	t.Run("Should resolve each distinct block timestamp once", func(t *testing.T) {
		ledger := ledgertest.NewFakeLedger(100)
		f := NewFetcher(ledger, l)

		ts, err := f.GetBlockTimestamps(context.Background(), []uint64{30, 10, 30, 10, 30})
		assert.Nil(t, err)
		assert.Len(t, ts, 2)
		assert.Len(t, ledger.BlockLookupCalls, 2)
		assert.Equal(t, time.Unix(int64(ledgertest.BlockTimestamp(30)), 0).UTC(), ts[30])
	})
}
