package events_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/mojo-fit/mojo-indexer/internal/logger"
	"github.com/mojo-fit/mojo-indexer/internal/tests/ledgertest"
	"github.com/mojo-fit/mojo-indexer/pkg/clients/ethereum"
	"github.com/mojo-fit/mojo-indexer/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "0x00000000000000000000000000000000000000aa"
	bob   = "0x00000000000000000000000000000000000000bb"
)

func setup(t *testing.T) *events.Decoder {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	d, err := events.NewDecoder(ledgertest.SessionAddress, ledgertest.FighterAddress, l)
	require.Nil(t, err)
	return d
}

func Test_Decoder(t *testing.T) {
	d := setup(t)

	t.Run("Should list one subscription per tracked kind", func(t *testing.T) {
		subs := d.Subscriptions()
		assert.Len(t, subs, len(events.TrackedKinds))
		for i, sub := range subs {
			assert.Equal(t, events.TrackedKinds[i], sub.Kind)
			if sub.Contract == events.Contract_Session {
				assert.Equal(t, ledgertest.SessionAddress, sub.Address)
			} else {
				assert.Equal(t, ledgertest.FighterAddress, sub.Address)
			}
		}
	})
	t.Run("Should decode SessionCreated", func(t *testing.T) {
		fact, err := d.Decode(ledgertest.SessionCreated(100, 3, 0, alice, 0, 20))
		assert.Nil(t, err)

		opened, ok := fact.(*events.SessionOpened)
		require.True(t, ok)
		assert.Equal(t, uint64(0), opened.SessionId)
		assert.Equal(t, alice, opened.Exerciser)
		assert.Equal(t, events.ExerciseType_Pushups, opened.ExerciseType)
		assert.Equal(t, uint64(20), opened.TargetReps)
		assert.Equal(t, uint64(100), opened.BlockNumber)
		assert.Equal(t, uint64(3), opened.LogIndex)
		assert.Equal(t, events.EventKind_SessionOpened, opened.Kind)
	})
	t.Run("Should decode BetPlaced with a uint256 amount", func(t *testing.T) {
		fact, err := d.Decode(ledgertest.BetPlaced(101, 0, 7, bob, true, "1000000000000000000000000000000"))
		assert.Nil(t, err)

		placed := fact.(*events.StakePlaced)
		assert.Equal(t, uint64(7), placed.SessionId)
		assert.Equal(t, bob, placed.Staker)
		assert.True(t, placed.IsUp)
		assert.Equal(t, "1000000000000000000000000000000", placed.Amount.String())
	})
	t.Run("Should decode every fighter contract kind", func(t *testing.T) {
		fact, err := d.Decode(ledgertest.FighterCreated(5, 0, alice))
		assert.Nil(t, err)
		assert.Equal(t, alice, fact.(*events.FighterCreated).Address)

		fact, err = d.Decode(ledgertest.StatsUpdated(6, 0, alice, 10, 20, 35))
		assert.Nil(t, err)
		stats := fact.(*events.StatsUpdated)
		assert.Equal(t, uint64(10), stats.Strength)
		assert.Equal(t, uint64(20), stats.Agility)
		assert.Equal(t, uint64(35), stats.Endurance)

		fact, err = d.Decode(ledgertest.ChallengeCreated(7, 0, 1, alice, bob, "500"))
		assert.Nil(t, err)
		created := fact.(*events.ChallengeCreated)
		assert.Equal(t, alice, created.Challenger)
		assert.Equal(t, bob, created.Opponent)
		assert.Equal(t, "500", created.Wager.String())

		fact, err = d.Decode(ledgertest.ChallengeAccepted(8, 0, 1))
		assert.Nil(t, err)
		assert.Equal(t, uint64(1), fact.(*events.ChallengeAccepted).ChallengeId)

		fact, err = d.Decode(ledgertest.BattleResolved(9, 0, 1, bob, "1000"))
		assert.Nil(t, err)
		resolved := fact.(*events.ChallengeResolved)
		assert.Equal(t, bob, resolved.Winner)
		assert.Equal(t, "1000", resolved.Payout.String())
	})
	t.Run("Should ignore logs with an unrecognized topic", func(t *testing.T) {
		lg := ledgertest.SessionCreated(100, 0, 1, alice, 0, 20)
		lg.Topics[0] = ethereum.EthereumHexString("0x" + strings.Repeat("11", 32))

		fact, err := d.Decode(lg)
		assert.Nil(t, err)
		assert.Nil(t, fact)
	})
	t.Run("Should ignore logs without topics", func(t *testing.T) {
		fact, err := d.Decode(&ethereum.EthereumEventLog{Address: ledgertest.SessionAddress})
		assert.Nil(t, err)
		assert.Nil(t, fact)
	})
	t.Run("Should ignore a tracked event emitted by another contract", func(t *testing.T) {
		lg := ledgertest.SessionCreated(100, 0, 1, alice, 0, 20)
		lg.Address = ledgertest.FighterAddress

		fact, err := d.Decode(lg)
		assert.Nil(t, err)
		assert.Nil(t, fact)
	})
	t.Run("Should fail with a DecodeError when an indexed topic is missing", func(t *testing.T) {
		lg := ledgertest.BetPlaced(101, 0, 0, bob, true, "1")
		lg.Topics = lg.Topics[:2]

		fact, err := d.Decode(lg)
		assert.Nil(t, fact)
		var decodeErr *events.DecodeError
		require.True(t, errors.As(err, &decodeErr))
		assert.Equal(t, events.EventKind_StakePlaced, decodeErr.Kind)
		assert.Equal(t, uint64(101), decodeErr.BlockNumber)
	})
	t.Run("Should fail with a DecodeError when the data is truncated", func(t *testing.T) {
		lg := ledgertest.StatsUpdated(6, 0, alice, 1, 2, 3)
		lg.Data = lg.Data[:len(lg.Data)-64]

		_, err := d.Decode(lg)
		var decodeErr *events.DecodeError
		assert.True(t, errors.As(err, &decodeErr))
	})
	t.Run("Should fail with a DecodeError when an id does not fit in 64 bits", func(t *testing.T) {
		lg := ledgertest.BuildLog(events.EventKind_ChallengeAccepted, 8, 0, ledgertest.Wei("18446744073709551616"))

		_, err := d.Decode(lg)
		var decodeErr *events.DecodeError
		require.True(t, errors.As(err, &decodeErr))
		assert.Contains(t, decodeErr.Message, "challengeId")
	})
	t.Run("Should accept the largest value a bigint column can hold", func(t *testing.T) {
		fact, err := d.Decode(ledgertest.SessionCreated(5, 0, 1<<63-1, alice, 0, 1<<63-1))
		require.Nil(t, err)
		opened, ok := fact.(*events.SessionOpened)
		require.True(t, ok)
		assert.Equal(t, uint64(1<<63-1), opened.SessionId)
	})
	t.Run("Should fail with a DecodeError when an id needs the top bit of 64", func(t *testing.T) {
		_, err := d.Decode(ledgertest.SessionCreated(5, 0, 1<<63, alice, 0, 10))
		var decodeErr *events.DecodeError
		require.True(t, errors.As(err, &decodeErr))
		assert.Contains(t, decodeErr.Message, "sessionId")
	})
	t.Run("Should fail with a DecodeError when a rep count needs the top bit of 64", func(t *testing.T) {
		_, err := d.Decode(ledgertest.SessionResolved(6, 0, 1, 1<<63, true))
		var decodeErr *events.DecodeError
		require.True(t, errors.As(err, &decodeErr))
		assert.Contains(t, decodeErr.Message, "actualReps")
	})
	t.Run("Should fail with a DecodeError when the stat total does not fit a bigint", func(t *testing.T) {
		_, err := d.Decode(ledgertest.StatsUpdated(7, 0, bob, 1<<62, 1<<62, 1<<62))
		var decodeErr *events.DecodeError
		require.True(t, errors.As(err, &decodeErr))
		assert.Contains(t, decodeErr.Message, "strength+agility+endurance")

		_, err = d.Decode(ledgertest.StatsUpdated(7, 1, bob, 1<<62, 1<<62-1, 0))
		assert.Nil(t, err)
	})
}

func Test_EncodeFact(t *testing.T) {
	d := setup(t)

	t.Run("Should encode the same fact identically", func(t *testing.T) {
		a, _ := d.Decode(ledgertest.BetPlaced(101, 0, 0, bob, true, "42"))
		b, _ := d.Decode(ledgertest.BetPlaced(101, 0, 0, bob, true, "42"))

		encA, err := events.EncodeFact(a)
		assert.Nil(t, err)
		encB, err := events.EncodeFact(b)
		assert.Nil(t, err)
		assert.Equal(t, encA, encB)
		assert.Equal(t, "101_0", a.GetHeader().Slot())
	})
}
