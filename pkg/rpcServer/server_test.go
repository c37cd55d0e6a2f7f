package rpcServer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mojo-fit/mojo-indexer/internal/config"
	"github.com/mojo-fit/mojo-indexer/internal/logger"
	"github.com/mojo-fit/mojo-indexer/internal/metrics"
	"github.com/mojo-fit/mojo-indexer/internal/tests"
	"github.com/mojo-fit/mojo-indexer/internal/tests/ledgertest"
	"github.com/mojo-fit/mojo-indexer/pkg/checkpoint"
	"github.com/mojo-fit/mojo-indexer/pkg/eventBus"
	"github.com/mojo-fit/mojo-indexer/pkg/eventBus/eventBusTypes"
	"github.com/mojo-fit/mojo-indexer/pkg/events"
	"github.com/mojo-fit/mojo-indexer/pkg/fetcher"
	"github.com/mojo-fit/mojo-indexer/pkg/materializer"
	"github.com/mojo-fit/mojo-indexer/pkg/pipeline"
	"github.com/mojo-fit/mojo-indexer/pkg/service/indexDataService"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	exerciser = "0x00000000000000000000000000000000000000aa"
	staker    = "0x00000000000000000000000000000000000000bb"
	rival     = "0x00000000000000000000000000000000000000cc"
)

type fakeRunner struct {
	result *pipeline.RunResult
	err    error
	calls  int
}

func (f *fakeRunner) Run(ctx context.Context) (*pipeline.RunResult, error) {
	f.calls++
	return f.result, f.err
}

func (f *fakeRunner) State() pipeline.RunState {
	return pipeline.RunState_Idle
}

type serverHarness struct {
	server  *RpcServer
	handler http.Handler
	grm     *gorm.DB
	ledger  *ledgertest.FakeLedger
	bus     *eventBus.EventBus
	store   checkpoint.Store
}

// setup wires the server to a real pipeline unless a runner is given.
func setup(t *testing.T, secret string, runner IndexRunner) *serverHarness {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	cfg := tests.GetConfig()
	grm, err := tests.GetSqliteDatabaseConnection(l)
	require.Nil(t, err)

	h := &serverHarness{
		grm:    grm,
		ledger: ledgertest.NewFakeLedger(100),
		bus:    eventBus.NewEventBus(l),
		store:  checkpoint.NewGormStore(grm, cfg.GetStartingCheckpoint(), l),
	}
	if runner == nil {
		runner = newPipeline(t, h, cfg, l)
	}

	h.server = NewRpcServer(
		&RpcServerConfig{HttpPort: 0, IndexSecret: secret},
		indexDataService.NewIndexDataService(grm, l, cfg),
		runner,
		h.store,
		h.bus,
		metrics.NewNoopMetricsSink(),
		l,
		cfg,
	)
	h.handler, err = h.server.Handler()
	require.Nil(t, err)
	return h
}

func newPipeline(t *testing.T, h *serverHarness, cfg *config.Config, l *zap.Logger) *pipeline.Pipeline {
	d, err := events.NewDecoder(cfg.ContractsConfig.SessionAddress, cfg.ContractsConfig.FighterAddress, l)
	require.Nil(t, err)
	sm, err := materializer.NewLoadedStateManager(l, cfg)
	require.Nil(t, err)
	return pipeline.NewPipeline(fetcher.NewFetcher(h.ledger, l), d, h.store, sm, h.grm, h.bus, metrics.NewNoopMetricsSink(), cfg, l)
}

func (h *serverHarness) do(t *testing.T, method string, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var v T
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (h *serverHarness) index(t *testing.T) {
	rec := h.do(t, http.MethodPost, "/v1/index", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func Test_RpcServer(t *testing.T) {
	t.Run("Should report health", func(t *testing.T) {
		h := setup(t, "", nil)
		rec := h.do(t, http.MethodGet, "/v1/health", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
	})

	t.Run("Should index to the tip and serve the derived state", func(t *testing.T) {
		h := setup(t, "", nil)
		h.ledger.AddLogs(
			ledgertest.SessionCreated(10, 0, 1, exerciser, uint8(events.ExerciseType_Squats), 25),
			ledgertest.BetPlaced(11, 0, 1, staker, true, "1000000000000000000"),
			ledgertest.BetPlaced(11, 1, 1, rival, false, "500000000000000000"),
			ledgertest.SessionResolved(12, 0, 1, 30, true),
			ledgertest.StatsUpdated(13, 0, exerciser, 10, 20, 30),
			ledgertest.ChallengeCreated(14, 0, 7, exerciser, rival, "1000"),
		)

		rec := h.do(t, http.MethodPost, "/v1/index", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		res := decode[indexResponse](t, rec)
		assert.True(t, res.Ok)
		assert.Equal(t, uint64(100), res.EndPosition)
		assert.Equal(t, 6, res.FactsApplied)
		assert.Equal(t, 2, res.FactsByKind[string(events.EventKind_StakePlaced)])

		rec = h.do(t, http.MethodGet, "/v1/sessions/1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		detail := decode[sessionDetailResponse](t, rec)
		assert.Equal(t, uint64(30), detail.ActualReps)
		assert.True(t, detail.TargetMet)
		assert.Equal(t, "Resolved", detail.StatusName)
		assert.Equal(t, "Squats", detail.ExerciseTypeName)
		assert.Equal(t, "1000000000000000000", detail.TotalUpStake)
		assert.Equal(t, "500000000000000000", detail.TotalDownStake)
		assert.Len(t, detail.Stakes, 2)

		rec = h.do(t, http.MethodGet, "/v1/fighters/"+exerciser, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		fighter := decode[fighterResponse](t, rec)
		assert.Equal(t, uint64(60), fighter.TotalReps)
		assert.Equal(t, uint64(6), fighter.Level)

		rec = h.do(t, http.MethodGet, "/v1/challenges?opponent="+rival, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		challenges := decode[[]challengeResponse](t, rec)
		require.Len(t, challenges, 1)
		assert.Equal(t, uint64(7), challenges[0].Id)
		assert.Equal(t, "Pending", challenges[0].StatusName)
		assert.Nil(t, challenges[0].Winner)

		rec = h.do(t, http.MethodGet, "/v1/status", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		status := decode[statusResponse](t, rec)
		assert.Equal(t, uint64(100), status.Checkpoint)
		assert.Equal(t, "Done", status.State)
		require.NotNil(t, status.LastWindow)
		assert.Equal(t, uint64(100), status.LastWindow.ToPosition)
		assert.NotEmpty(t, status.LastWindow.StateRoot)
	})

	t.Run("Should filter sessions by status and honor the limit", func(t *testing.T) {
		h := setup(t, "", nil)
		h.ledger.AddLogs(
			ledgertest.SessionCreated(10, 0, 1, exerciser, 0, 5),
			ledgertest.SessionCreated(10, 1, 2, exerciser, 0, 5),
			ledgertest.SessionCreated(10, 2, 3, exerciser, 0, 5),
			ledgertest.SessionResolved(11, 0, 2, 1, false),
		)
		h.index(t)

		rec := h.do(t, http.MethodGet, "/v1/sessions?limit=2", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		sessions := decode[[]sessionResponse](t, rec)
		require.Len(t, sessions, 2)
		assert.Equal(t, uint64(3), sessions[0].Id)
		assert.Equal(t, uint64(2), sessions[1].Id)

		rec = h.do(t, http.MethodGet, "/v1/sessions?status=1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		sessions = decode[[]sessionResponse](t, rec)
		require.Len(t, sessions, 1)
		assert.Equal(t, uint64(2), sessions[0].Id)
	})

	t.Run("Should rank the leaderboard by the requested stat", func(t *testing.T) {
		h := setup(t, "", nil)
		h.ledger.AddLogs(
			ledgertest.StatsUpdated(10, 0, exerciser, 1, 1, 1),
			ledgertest.StatsUpdated(10, 1, rival, 9, 0, 0),
		)
		h.index(t)

		rec := h.do(t, http.MethodGet, "/v1/leaderboard?sort=strength", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		entries := decode[[]leaderboardEntryResponse](t, rec)
		require.Len(t, entries, 2)
		assert.Equal(t, 1, entries[0].Rank)
		assert.Equal(t, rival, entries[0].Address)
		assert.Equal(t, "9", entries[0].Value)
	})

	t.Run("Should reject malformed requests", func(t *testing.T) {
		h := setup(t, "", nil)
		assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodGet, "/v1/sessions/abc", nil).Code)
		assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodGet, "/v1/sessions?limit=-1", nil).Code)
		assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodGet, "/v1/sessions?status=9", nil).Code)
		assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodGet, "/v1/challenges?status=x", nil).Code)
		assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodGet, "/v1/fighters/not-an-address", nil).Code)
	})

	t.Run("Should return not found for unknown entities", func(t *testing.T) {
		h := setup(t, "", nil)
		rec := h.do(t, http.MethodGet, "/v1/sessions/42", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "session not found", decode[errorResponse](t, rec).Error)
		assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/v1/fighters/"+rival, nil).Code)
	})

	t.Run("Should require the index secret when configured", func(t *testing.T) {
		runner := &fakeRunner{result: &pipeline.RunResult{}}
		h := setup(t, "s3cret", runner)

		assert.Equal(t, http.StatusUnauthorized, h.do(t, http.MethodPost, "/v1/index", nil).Code)
		assert.Equal(t, http.StatusUnauthorized, h.do(t, http.MethodGet, "/v1/index", map[string]string{"Authorization": "Bearer wrong"}).Code)
		assert.Equal(t, 0, runner.calls)

		rec := h.do(t, http.MethodGet, "/v1/index", map[string]string{"Authorization": "Bearer s3cret"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, runner.calls)
	})

	t.Run("Should report a run already in progress as a conflict", func(t *testing.T) {
		h := setup(t, "", &fakeRunner{err: pipeline.ErrRunInProgress})
		assert.Equal(t, http.StatusConflict, h.do(t, http.MethodPost, "/v1/index", nil).Code)
	})

	t.Run("Should report a failed run as a server error", func(t *testing.T) {
		h := setup(t, "", &fakeRunner{err: errors.New("ledger unavailable")})
		rec := h.do(t, http.MethodPost, "/v1/index", nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "ledger unavailable", decode[errorResponse](t, rec).Error)
	})

	t.Run("Should answer CORS preflight requests", func(t *testing.T) {
		h := setup(t, "", nil)
		rec := h.do(t, http.MethodOptions, "/v1/sessions", map[string]string{
			"Origin":                        "https://mojo.fit",
			"Access-Control-Request-Method": http.MethodGet,
		})
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Should expose the last completed run on status", func(t *testing.T) {
		h := setup(t, "", &fakeRunner{})
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		h.server.ListenForRunEvents(ctx)

		h.bus.Publish(&eventBusTypes.Event{
			Name: eventBusTypes.Event_RunCompleted,
			Data: &eventBusTypes.RunCompletedData{EndPosition: 99, LedgerTip: 120, FactsApplied: 3},
		})
		assert.Eventually(t, func() bool {
			run, _ := h.server.getLastRun()
			return run != nil
		}, time.Second, 10*time.Millisecond)

		rec := h.do(t, http.MethodGet, "/v1/status", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		status := decode[statusResponse](t, rec)
		require.NotNil(t, status.LastRun)
		assert.Equal(t, uint64(99), status.LastRun.EndPosition)
		assert.Equal(t, 3, status.LastRun.FactsApplied)
		assert.Equal(t, "Idle", status.State)
		assert.Nil(t, status.LastWindow)
	})
}
