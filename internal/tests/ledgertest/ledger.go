// Package ledgertest provides an in-memory ledger and ABI-encoded log builders for tests.
package ledgertest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mojo-fit/mojo-indexer/pkg/clients/ethereum"
	"github.com/mojo-fit/mojo-indexer/pkg/events"
)

const (
	SessionAddress = "0x5fbdb2315678afecb367f032d93f642f64180aa3"
	FighterAddress = "0xe7f1725e7734ce288f8367e1bb143e90bb3f0512"

	// GenesisTimestamp is the timestamp of block 0; each block adds BlockTime seconds.
	GenesisTimestamp = 1_700_000_000
	BlockTime        = 12
)

var ErrLedgerUnavailable = errors.New("ledger unavailable")

type LogsCall struct {
	Address string
	Topic0  string
	From    uint64
	To      uint64
}

// FakeLedger implements fetcher.LedgerClient over an in-memory list of logs.
type FakeLedger struct {
	mu sync.Mutex

	tip  uint64
	logs []*ethereum.EthereumEventLog

	// FailLogsForTopic makes eth_getLogs fail for a topic0.
	FailLogsForTopic map[string]error
	FailBlockNumber  error
	FailBlockLookup  error

	LogsCalls        []LogsCall
	BlockLookupCalls []uint64
}

func NewFakeLedger(tip uint64) *FakeLedger {
	return &FakeLedger{
		tip:              tip,
		logs:             make([]*ethereum.EthereumEventLog, 0),
		FailLogsForTopic: make(map[string]error),
	}
}

func (f *FakeLedger) SetTip(tip uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tip = tip
}

func (f *FakeLedger) AddLogs(logs ...*ethereum.EthereumEventLog) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, logs...)
}

func (f *FakeLedger) FailTopic(kind events.EventKind, err error) {
	ev, _ := events.EventForKind(kind)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FailLogsForTopic[strings.ToLower(ev.ID.Hex())] = err
}

func (f *FakeLedger) ClearFailures() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FailLogsForTopic = make(map[string]error)
	f.FailBlockNumber = nil
	f.FailBlockLookup = nil
}

func (f *FakeLedger) GetBlockNumberUint64(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailBlockNumber != nil {
		return 0, f.FailBlockNumber
	}
	return f.tip, nil
}

func (f *FakeLedger) GetLogs(ctx context.Context, address string, topic0 string, fromBlock uint64, toBlock uint64) ([]*ethereum.EthereumEventLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.LogsCalls = append(f.LogsCalls, LogsCall{Address: address, Topic0: topic0, From: fromBlock, To: toBlock})
	if err, ok := f.FailLogsForTopic[strings.ToLower(topic0)]; ok {
		return nil, err
	}

	out := make([]*ethereum.EthereumEventLog, 0)
	for _, lg := range f.logs {
		n := lg.BlockNumber.Value()
		if n < fromBlock || n > toBlock || n > f.tip {
			continue
		}
		if !strings.EqualFold(lg.Address.Value(), address) {
			continue
		}
		if topic0 != "" && (len(lg.Topics) == 0 || !strings.EqualFold(lg.Topics[0].Value(), topic0)) {
			continue
		}
		out = append(out, lg)
	}
	return out, nil
}

func (f *FakeLedger) GetBlockByNumber(ctx context.Context, blockNumber uint64) (*ethereum.EthereumBlock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.BlockLookupCalls = append(f.BlockLookupCalls, blockNumber)
	if f.FailBlockLookup != nil {
		return nil, f.FailBlockLookup
	}
	if blockNumber > f.tip {
		return nil, fmt.Errorf("block %d not found", blockNumber)
	}
	return &ethereum.EthereumBlock{
		Hash:      ethereum.EthereumHexString(common.BigToHash(new(big.Int).SetUint64(blockNumber)).Hex()),
		Number:    ethereum.EthereumQuantity(blockNumber),
		Timestamp: ethereum.EthereumQuantity(BlockTimestamp(blockNumber)),
	}, nil
}

func BlockTimestamp(blockNumber uint64) uint64 {
	return GenesisTimestamp + blockNumber*BlockTime
}

// BuildLog ABI-encodes a log for a tracked kind. args are given in the event's input order.
func BuildLog(kind events.EventKind, blockNumber uint64, logIndex uint64, args ...interface{}) *ethereum.EthereumEventLog {
	ev, ok := events.EventForKind(kind)
	if !ok {
		panic(fmt.Sprintf("unknown kind %s", kind))
	}
	if len(args) != len(ev.Inputs) {
		panic(fmt.Sprintf("%s expects %d args, got %d", kind, len(ev.Inputs), len(args)))
	}

	topics := []ethereum.EthereumHexString{ethereum.EthereumHexString(strings.ToLower(ev.ID.Hex()))}
	data := make([]interface{}, 0)
	for i, input := range ev.Inputs {
		if input.Indexed {
			topics = append(topics, ethereum.EthereumHexString(strings.ToLower(encodeTopic(args[i]).Hex())))
			continue
		}
		data = append(data, args[i])
	}
	packed, err := ev.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		panic(err)
	}

	address := FighterAddress
	if events.ContractForKind(kind) == events.Contract_Session {
		address = SessionAddress
	}
	return &ethereum.EthereumEventLog{
		LogIndex:        ethereum.EthereumQuantity(logIndex),
		TransactionHash: ethereum.EthereumHexString(fmt.Sprintf("0x%064x", blockNumber*1000+logIndex)),
		BlockHash:       ethereum.EthereumHexString(common.BigToHash(new(big.Int).SetUint64(blockNumber)).Hex()),
		BlockNumber:     ethereum.EthereumQuantity(blockNumber),
		Address:         ethereum.EthereumHexString(address),
		Data:            ethereum.EthereumHexString(hexutil.Encode(packed)),
		Topics:          topics,
	}
}

func encodeTopic(v interface{}) common.Hash {
	switch t := v.(type) {
	case common.Address:
		return common.BytesToHash(t.Bytes())
	case *big.Int:
		return common.BigToHash(t)
	default:
		panic(fmt.Sprintf("unsupported topic type %T", v))
	}
}

func Addr(a string) common.Address {
	return common.HexToAddress(a)
}

func Uint(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}

// Wei parses a base-10 integer amount, e.g. "1000000000000000000".
func Wei(v string) *big.Int {
	b, ok := new(big.Int).SetString(v, 10)
	if !ok {
		panic(fmt.Sprintf("invalid amount %s", v))
	}
	return b
}

func SessionCreated(block, logIndex, sessionId uint64, exerciser string, exerciseType uint8, targetReps uint64) *ethereum.EthereumEventLog {
	return BuildLog(events.EventKind_SessionOpened, block, logIndex, Uint(sessionId), Addr(exerciser), exerciseType, Uint(targetReps))
}

func SessionResolved(block, logIndex, sessionId, actualReps uint64, targetMet bool) *ethereum.EthereumEventLog {
	return BuildLog(events.EventKind_SessionClosed, block, logIndex, Uint(sessionId), Uint(actualReps), targetMet)
}

func BetPlaced(block, logIndex, sessionId uint64, bettor string, isUp bool, amount string) *ethereum.EthereumEventLog {
	return BuildLog(events.EventKind_StakePlaced, block, logIndex, Uint(sessionId), Addr(bettor), isUp, Wei(amount))
}

func BetClaimed(block, logIndex, sessionId uint64, bettor string, payout string) *ethereum.EthereumEventLog {
	return BuildLog(events.EventKind_StakeClaimed, block, logIndex, Uint(sessionId), Addr(bettor), Wei(payout))
}

func FighterCreated(block, logIndex uint64, owner string) *ethereum.EthereumEventLog {
	return BuildLog(events.EventKind_FighterCreated, block, logIndex, Addr(owner))
}

func StatsUpdated(block, logIndex uint64, owner string, strength, agility, endurance uint64) *ethereum.EthereumEventLog {
	return BuildLog(events.EventKind_StatsUpdated, block, logIndex, Addr(owner), Uint(strength), Uint(agility), Uint(endurance))
}

func ChallengeCreated(block, logIndex, challengeId uint64, challenger, opponent string, wager string) *ethereum.EthereumEventLog {
	return BuildLog(events.EventKind_ChallengeCreated, block, logIndex, Uint(challengeId), Addr(challenger), Addr(opponent), Wei(wager))
}

func ChallengeAccepted(block, logIndex, challengeId uint64) *ethereum.EthereumEventLog {
	return BuildLog(events.EventKind_ChallengeAccepted, block, logIndex, Uint(challengeId))
}

func BattleResolved(block, logIndex, challengeId uint64, winner string, payout string) *ethereum.EthereumEventLog {
	return BuildLog(events.EventKind_ChallengeResolved, block, logIndex, Uint(challengeId), Addr(winner), Wei(payout))
}
