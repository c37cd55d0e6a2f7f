package fetcher

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/mojo-fit/mojo-indexer/pkg/clients/ethereum"
	"github.com/mojo-fit/mojo-indexer/pkg/events"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LedgerClient is the subset of the JSON-RPC client the fetcher depends on.
type LedgerClient interface {
	GetBlockNumberUint64(ctx context.Context) (uint64, error)
	GetLogs(ctx context.Context, address string, topic0 string, fromBlock uint64, toBlock uint64) ([]*ethereum.EthereumEventLog, error)
	GetBlockByNumber(ctx context.Context, blockNumber uint64) (*ethereum.EthereumBlock, error)
}

// maxConcurrentBlockLookups bounds parallel eth_getBlockByNumber calls.
const maxConcurrentBlockLookups = 8

type Fetcher struct {
	client LedgerClient
	logger *zap.Logger
}

func NewFetcher(client LedgerClient, l *zap.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		logger: l,
	}
}

// TransientFetchError wraps any failure talking to the ledger. The run is aborted
// and the same window is retried by the next run.
type TransientFetchError struct {
	Operation string
	From      uint64
	To        uint64
	Err       error
}

func (e *TransientFetchError) Error() string {
	return fmt.Sprintf("TransientFetchError: %s [%d, %d]: %v", e.Operation, e.From, e.To, e.Err)
}

func (e *TransientFetchError) Unwrap() error {
	return e.Err
}

func (f *Fetcher) GetLedgerTip(ctx context.Context) (uint64, error) {
	tip, err := f.client.GetBlockNumberUint64(ctx)
	if err != nil {
		return 0, &TransientFetchError{Operation: "eth_blockNumber", Err: err}
	}
	return tip, nil
}

// FetchWindow queries the full [from, to] range for one subscription. An empty result is valid.
func (f *Fetcher) FetchWindow(ctx context.Context, sub *events.Subscription, from uint64, to uint64) ([]*ethereum.EthereumEventLog, error) {
	logs, err := f.client.GetLogs(ctx, sub.Address, sub.Topic0, from, to)
	if err != nil {
		f.logger.Sugar().Errorw("Failed to fetch logs",
			zap.String("kind", string(sub.Kind)),
			zap.Uint64("from", from),
			zap.Uint64("to", to),
			zap.Error(err),
		)
		return nil, &TransientFetchError{Operation: fmt.Sprintf("eth_getLogs %s", sub.Kind), From: from, To: to, Err: err}
	}

	kept := make([]*ethereum.EthereumEventLog, 0, len(logs))
	for _, lg := range logs {
		if lg.Removed {
			f.logger.Sugar().Debugw("Skipping removed log",
				zap.String("transactionHash", lg.TransactionHash.Value()),
				zap.Uint64("logIndex", lg.LogIndex.Value()),
			)
			continue
		}
		kept = append(kept, lg)
	}
	SortLogs(kept)

	f.logger.Sugar().Debugw("Fetched logs",
		zap.String("kind", string(sub.Kind)),
		zap.Uint64("from", from),
		zap.Uint64("to", to),
		zap.Int("count", len(kept)),
	)
	return kept, nil
}

// FetchAll fans out one query per subscription and merges the results in ledger order.
// Any single failure fails the whole window.
func (f *Fetcher) FetchAll(ctx context.Context, subs []*events.Subscription, from uint64, to uint64) ([]*ethereum.EthereumEventLog, error) {
	results := make([][]*ethereum.EthereumEventLog, len(subs))

	g, gctx := errgroup.WithContext(ctx)
	for i, sub := range subs {
		i, sub := i, sub
		g.Go(func() error {
			logs, err := f.FetchWindow(gctx, sub, from, to)
			if err != nil {
				return err
			}
			results[i] = logs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]*ethereum.EthereumEventLog, 0)
	for _, logs := range results {
		merged = append(merged, logs...)
	}
	SortLogs(merged)
	return dedupeLogs(merged), nil
}

// GetBlockTimestamps resolves each distinct block number to its timestamp.
func (f *Fetcher) GetBlockTimestamps(ctx context.Context, blockNumbers []uint64) (map[uint64]time.Time, error) {
	unique := slices.Clone(blockNumbers)
	slices.Sort(unique)
	unique = slices.Compact(unique)

	timestamps := make(map[uint64]time.Time, len(unique))
	if len(unique) == 0 {
		return timestamps, nil
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentBlockLookups)
	for _, n := range unique {
		n := n
		g.Go(func() error {
			block, err := f.client.GetBlockByNumber(gctx, n)
			if err != nil {
				return &TransientFetchError{Operation: "eth_getBlockByNumber", From: n, To: n, Err: err}
			}
			mu.Lock()
			timestamps[n] = time.Unix(int64(block.Timestamp.Value()), 0).UTC()
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return timestamps, nil
}

// SortLogs orders logs by block number and then by log index, the order they were emitted in.
func SortLogs(logs []*ethereum.EthereumEventLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].LogIndex < logs[j].LogIndex
	})
}

// dedupeLogs drops a log returned by more than one query. Input must be sorted.
func dedupeLogs(logs []*ethereum.EthereumEventLog) []*ethereum.EthereumEventLog {
	out := make([]*ethereum.EthereumEventLog, 0, len(logs))
	for i, lg := range logs {
		if i > 0 {
			prev := logs[i-1]
			if prev.BlockNumber == lg.BlockNumber && prev.LogIndex == lg.LogIndex && prev.TransactionHash == lg.TransactionHash {
				continue
			}
		}
		out = append(out, lg)
	}
	return out
}
