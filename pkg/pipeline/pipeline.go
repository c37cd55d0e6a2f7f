package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/mojo-fit/mojo-indexer/internal/config"
	"github.com/mojo-fit/mojo-indexer/internal/metrics"
	"github.com/mojo-fit/mojo-indexer/internal/metrics/metricsTypes"
	"github.com/mojo-fit/mojo-indexer/pkg/checkpoint"
	"github.com/mojo-fit/mojo-indexer/pkg/eventBus/eventBusTypes"
	"github.com/mojo-fit/mojo-indexer/pkg/events"
	"github.com/mojo-fit/mojo-indexer/pkg/fetcher"
	"github.com/mojo-fit/mojo-indexer/pkg/materializer/stateManager"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RunState int

const (
	RunState_Idle RunState = iota
	RunState_FetchingWindow
	RunState_ApplyingWindow
	RunState_AdvancingCheckpoint
	RunState_Done
	RunState_Failed
)

func (s RunState) String() string {
	switch s {
	case RunState_Idle:
		return "Idle"
	case RunState_FetchingWindow:
		return "FetchingWindow"
	case RunState_ApplyingWindow:
		return "ApplyingWindow"
	case RunState_AdvancingCheckpoint:
		return "AdvancingCheckpoint"
	case RunState_Done:
		return "Done"
	case RunState_Failed:
		return "Failed"
	}
	return "Unknown"
}

type WindowResult struct {
	FromPosition uint64
	ToPosition   uint64
	FactCount    int
	FactsByKind  map[events.EventKind]int
	StateRoot    string
	Duration     time.Duration
}

type RunResult struct {
	StartPosition    uint64
	EndPosition      uint64
	LedgerTip        uint64
	WindowsProcessed int
	FactsApplied     int
	FactsByKind      map[events.EventKind]int
}

type Pipeline struct {
	fetcher      *fetcher.Fetcher
	decoder      *events.Decoder
	checkpoints  checkpoint.Store
	stateManager *stateManager.StateManager
	db           *gorm.DB
	eventBus     eventBusTypes.IEventBus
	metricsSink  *metrics.MetricsSink
	globalConfig *config.Config
	logger       *zap.Logger

	running sync.Mutex

	stateLock sync.RWMutex
	state     RunState
}

func NewPipeline(
	f *fetcher.Fetcher,
	d *events.Decoder,
	cs checkpoint.Store,
	sm *stateManager.StateManager,
	grm *gorm.DB,
	eb eventBusTypes.IEventBus,
	ms *metrics.MetricsSink,
	cfg *config.Config,
	l *zap.Logger,
) *Pipeline {
	return &Pipeline{
		fetcher:      f,
		decoder:      d,
		checkpoints:  cs,
		stateManager: sm,
		db:           grm,
		eventBus:     eb,
		metricsSink:  ms,
		globalConfig: cfg,
		logger:       l,
		state:        RunState_Idle,
	}
}

func (p *Pipeline) State() RunState {
	p.stateLock.RLock()
	defer p.stateLock.RUnlock()
	return p.state
}

func (p *Pipeline) setState(s RunState) {
	p.stateLock.Lock()
	defer p.stateLock.Unlock()
	p.state = s
}

// Run advances the checkpoint window by window until it reaches the ledger tip
// observed at the start of the run.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	if !p.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer p.running.Unlock()

	result, err := p.run(ctx)
	if err != nil {
		p.setState(RunState_Failed)
		_ = p.metricsSink.Incr(metricsTypes.Metric_Incr_RunFailed, []metricsTypes.MetricsLabel{
			{Name: "reason", Value: failureReason(err)},
		}, 1)
		p.logger.Sugar().Errorw("Indexing run failed", zap.Error(err))
	} else {
		p.setState(RunState_Done)
		p.logger.Sugar().Infow("Indexing run completed",
			zap.Uint64("startPosition", result.StartPosition),
			zap.Uint64("endPosition", result.EndPosition),
			zap.Uint64("ledgerTip", result.LedgerTip),
			zap.Int("windowsProcessed", result.WindowsProcessed),
			zap.Int("factsApplied", result.FactsApplied),
		)
	}
	p.HandleRunCompletedHook(result, err)
	return result, err
}

func (p *Pipeline) run(ctx context.Context) (*RunResult, error) {
	start, err := p.checkpoints.Read(ctx)
	if err != nil {
		return nil, &PersistenceError{Err: errors.Wrap(err, "failed to read checkpoint")}
	}
	tip, err := p.fetcher.GetLedgerTip(ctx)
	if err != nil {
		return nil, err
	}
	_ = p.metricsSink.Gauge(metricsTypes.Metric_Gauge_LedgerTip, float64(tip), nil)
	_ = p.metricsSink.Gauge(metricsTypes.Metric_Gauge_Checkpoint, float64(start), nil)

	result := &RunResult{
		StartPosition: start,
		EndPosition:   start,
		LedgerTip:     tip,
		FactsByKind:   make(map[events.EventKind]int),
	}
	if start >= tip {
		p.logger.Sugar().Debugw("Checkpoint is at the ledger tip", zap.Uint64("checkpoint", start), zap.Uint64("tip", tip))
		return result, nil
	}

	chunkSize := p.globalConfig.IndexerConfig.ChunkSize
	if chunkSize == 0 {
		chunkSize = config.DefaultChunkSize
	}
	subs := p.decoder.Subscriptions()

	current := start
	for current < tip {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		from := current + 1
		to := tip
		if tip-current > chunkSize {
			to = current + chunkSize
		}

		window, err := p.processWindow(ctx, subs, from, to)
		if err != nil {
			return result, err
		}

		current = to
		result.EndPosition = to
		result.WindowsProcessed++
		result.FactsApplied += window.FactCount
		for k, v := range window.FactsByKind {
			result.FactsByKind[k] += v
		}

		_ = p.metricsSink.Incr(metricsTypes.Metric_Incr_WindowProcessed, nil, 1)
		_ = p.metricsSink.Gauge(metricsTypes.Metric_Gauge_Checkpoint, float64(to), nil)
		_ = p.metricsSink.Timing(metricsTypes.Metric_Timing_WindowDuration, window.Duration, nil)
		for k, v := range window.FactsByKind {
			_ = p.metricsSink.Incr(metricsTypes.Metric_Incr_FactApplied, []metricsTypes.MetricsLabel{
				{Name: "kind", Value: string(k)},
			}, float64(v))
		}
		p.HandleWindowProcessedHook(window, tip)
	}
	return result, nil
}

func (p *Pipeline) processWindow(ctx context.Context, subs []*events.Subscription, from uint64, to uint64) (*WindowResult, error) {
	windowStart := time.Now()
	p.setState(RunState_FetchingWindow)
	p.logger.Sugar().Debugw("Fetching window", zap.Uint64("from", from), zap.Uint64("to", to))

	logs, err := p.fetcher.FetchAll(ctx, subs, from, to)
	if err != nil {
		return nil, err
	}

	facts := make([]events.Fact, 0, len(logs))
	for _, lg := range logs {
		fact, err := p.decoder.Decode(lg)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode window [%d, %d]", from, to)
		}
		if fact == nil {
			continue
		}
		facts = append(facts, fact)
	}

	if err := p.resolveTimestamps(ctx, facts); err != nil {
		return nil, err
	}

	root, err := p.stateManager.GenerateWindowStateRoot(from, to, facts)
	if err != nil {
		return nil, &PersistenceError{FromPosition: from, ToPosition: to, Err: errors.Wrap(err, "failed to generate state root")}
	}

	p.setState(RunState_ApplyingWindow)
	// A window that started applying is committed even if ctx is cancelled meanwhile.
	applyCtx := context.WithoutCancel(ctx)
	err = p.db.WithContext(applyCtx).Transaction(func(tx *gorm.DB) error {
		if err := p.stateManager.HandleFacts(tx, facts); err != nil {
			return err
		}
		if _, err := p.stateManager.WriteWindowStateRoot(tx, from, to, len(facts), root); err != nil {
			return err
		}
		p.setState(RunState_AdvancingCheckpoint)
		return p.checkpoints.Advance(applyCtx, tx, to)
	})
	if err != nil {
		return nil, &PersistenceError{FromPosition: from, ToPosition: to, Err: err}
	}

	window := &WindowResult{
		FromPosition: from,
		ToPosition:   to,
		FactCount:    len(facts),
		FactsByKind:  make(map[events.EventKind]int),
		StateRoot:    string(root),
		Duration:     time.Since(windowStart),
	}
	for _, fact := range facts {
		window.FactsByKind[fact.GetHeader().Kind]++
	}
	p.logger.Sugar().Infow("Processed window",
		zap.Uint64("from", from),
		zap.Uint64("to", to),
		zap.Int("facts", window.FactCount),
		zap.String("stateRoot", window.StateRoot),
		zap.Duration("duration", window.Duration),
	)
	return window, nil
}

// resolveTimestamps fills the start time of every opened session from its block.
func (p *Pipeline) resolveTimestamps(ctx context.Context, facts []events.Fact) error {
	blockNumbers := make([]uint64, 0)
	for _, fact := range facts {
		if opened, ok := fact.(*events.SessionOpened); ok {
			blockNumbers = append(blockNumbers, opened.BlockNumber)
		}
	}
	if len(blockNumbers) == 0 {
		return nil
	}

	timestamps, err := p.fetcher.GetBlockTimestamps(ctx, blockNumbers)
	if err != nil {
		return err
	}
	for _, fact := range facts {
		if opened, ok := fact.(*events.SessionOpened); ok {
			opened.StartedAt = timestamps[opened.BlockNumber]
		}
	}
	return nil
}

func failureReason(err error) string {
	var fetchErr *fetcher.TransientFetchError
	var decodeErr *events.DecodeError
	var persistenceErr *PersistenceError
	switch {
	case errors.As(err, &fetchErr):
		return "fetch"
	case errors.As(err, &decodeErr):
		return "decode"
	case errors.As(err, &persistenceErr):
		return "persistence"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	return "unknown"
}
