package events

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mojo-fit/mojo-indexer/pkg/clients/ethereum"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Subscription is one (contract, topic0) pair the fetcher queries per window.
type Subscription struct {
	Kind     EventKind
	Contract Contract
	Address  string
	Topic0   string
}

type eventDefinition struct {
	kind    EventKind
	address string
	event   abi.Event
}

type Decoder struct {
	logger      *zap.Logger
	definitions map[common.Hash]*eventDefinition
}

func NewDecoder(sessionAddress string, fighterAddress string, l *zap.Logger) (*Decoder, error) {
	addresses := map[Contract]string{
		Contract_Session: strings.ToLower(sessionAddress),
		Contract_Fighter: strings.ToLower(fighterAddress),
	}
	d := &Decoder{
		logger:      l,
		definitions: make(map[common.Hash]*eventDefinition),
	}
	for _, kind := range TrackedKinds {
		ev, ok := EventForKind(kind)
		if !ok {
			return nil, fmt.Errorf("no abi event for kind '%s'", kind)
		}
		d.definitions[ev.ID] = &eventDefinition{
			kind:    kind,
			address: addresses[ContractForKind(kind)],
			event:   ev,
		}
	}
	return d, nil
}

// Subscriptions lists one query per tracked kind, in TrackedKinds order.
func (d *Decoder) Subscriptions() []*Subscription {
	subs := make([]*Subscription, 0, len(d.definitions))
	for _, def := range d.definitions {
		subs = append(subs, &Subscription{
			Kind:     def.kind,
			Contract: ContractForKind(def.kind),
			Address:  def.address,
			Topic0:   def.event.ID.Hex(),
		})
	}
	order := make(map[EventKind]int, len(TrackedKinds))
	for i, k := range TrackedKinds {
		order[k] = i
	}
	sort.Slice(subs, func(i, j int) bool {
		return order[subs[i].Kind] < order[subs[j].Kind]
	})
	return subs
}

// Decode turns a raw log into a typed fact. Logs of kinds that are not tracked,
// or emitted by an unexpected contract, return (nil, nil).
func (d *Decoder) Decode(lg *ethereum.EthereumEventLog) (Fact, error) {
	if len(lg.Topics) == 0 {
		return nil, nil
	}
	def, ok := d.definitions[common.HexToHash(lg.Topics[0].Value())]
	if !ok {
		d.logger.Sugar().Debugw("Ignoring log with unrecognized topic",
			zap.String("topic0", lg.Topics[0].Value()),
			zap.Uint64("blockNumber", lg.BlockNumber.Value()),
		)
		return nil, nil
	}
	if !strings.EqualFold(lg.Address.Value(), def.address) {
		d.logger.Sugar().Debugw("Ignoring log from untracked address",
			zap.String("kind", string(def.kind)),
			zap.String("address", lg.Address.Value()),
		)
		return nil, nil
	}

	header := FactHeader{
		Kind:            def.kind,
		BlockNumber:     lg.BlockNumber.Value(),
		TransactionHash: lg.TransactionHash.Value(),
		LogIndex:        lg.LogIndex.Value(),
	}

	values, err := unpackLog(def.event, lg)
	if err != nil {
		return nil, NewDecodeError(def.kind, err).WithHeader(&header).WithMessage("failed to unpack log")
	}

	f := &fieldReader{values: values, kind: def.kind, header: &header}
	var fact Fact
	switch def.kind {
	case EventKind_SessionOpened:
		fact = &SessionOpened{
			FactHeader:   header,
			SessionId:    f.readUint64("sessionId"),
			Exerciser:    f.readAddress("exerciser"),
			ExerciseType: ExerciseType(f.readUint8("exerciseType")),
			TargetReps:   f.readUint64("targetReps"),
		}
	case EventKind_SessionClosed:
		fact = &SessionClosed{
			FactHeader: header,
			SessionId:  f.readUint64("sessionId"),
			ActualReps: f.readUint64("actualReps"),
			TargetMet:  f.readBool("targetMet"),
		}
	case EventKind_StakePlaced:
		fact = &StakePlaced{
			FactHeader: header,
			SessionId:  f.readUint64("sessionId"),
			Staker:     f.readAddress("bettor"),
			IsUp:       f.readBool("isUp"),
			Amount:     f.readAmount("amount"),
		}
	case EventKind_StakeClaimed:
		fact = &StakeClaimed{
			FactHeader: header,
			SessionId:  f.readUint64("sessionId"),
			Staker:     f.readAddress("bettor"),
			Payout:     f.readAmount("payout"),
		}
	case EventKind_FighterCreated:
		fact = &FighterCreated{
			FactHeader: header,
			Address:    f.readAddress("owner"),
		}
	case EventKind_StatsUpdated:
		stats := &StatsUpdated{
			FactHeader: header,
			Address:    f.readAddress("owner"),
			Strength:   f.readUint64("strength"),
			Agility:    f.readUint64("agility"),
			Endurance:  f.readUint64("endurance"),
		}
		f.checkSum("strength+agility+endurance", stats.Strength, stats.Agility, stats.Endurance)
		fact = stats
	case EventKind_ChallengeCreated:
		fact = &ChallengeCreated{
			FactHeader:  header,
			ChallengeId: f.readUint64("challengeId"),
			Challenger:  f.readAddress("challenger"),
			Opponent:    f.readAddress("opponent"),
			Wager:       f.readAmount("wager"),
		}
	case EventKind_ChallengeAccepted:
		fact = &ChallengeAccepted{
			FactHeader:  header,
			ChallengeId: f.readUint64("challengeId"),
		}
	case EventKind_ChallengeResolved:
		fact = &ChallengeResolved{
			FactHeader:  header,
			ChallengeId: f.readUint64("challengeId"),
			Winner:      f.readAddress("winner"),
			Payout:      f.readAmount("payout"),
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return fact, nil
}

func unpackLog(event abi.Event, lg *ethereum.EthereumEventLog) (map[string]interface{}, error) {
	var indexed abi.Arguments
	for _, input := range event.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}
	if len(lg.Topics)-1 != len(indexed) {
		return nil, fmt.Errorf("expected %d indexed topics, got %d", len(indexed), len(lg.Topics)-1)
	}

	topics := make([]common.Hash, 0, len(indexed))
	for _, t := range lg.Topics[1:] {
		b, err := hexutil.Decode(t.Value())
		if err != nil {
			return nil, fmt.Errorf("invalid topic '%s': %w", t.Value(), err)
		}
		if len(b) != common.HashLength {
			return nil, fmt.Errorf("invalid topic length %d", len(b))
		}
		topics = append(topics, common.BytesToHash(b))
	}

	var data []byte
	if lg.Data.Value() != "" {
		b, err := hexutil.Decode(lg.Data.Value())
		if err != nil {
			return nil, fmt.Errorf("invalid data: %w", err)
		}
		data = b
	}

	values := make(map[string]interface{})
	if err := event.Inputs.NonIndexed().UnpackIntoMap(values, data); err != nil {
		return nil, err
	}
	if err := abi.ParseTopicsIntoMap(values, indexed, topics); err != nil {
		return nil, err
	}
	return values, nil
}

// fieldReader reads typed values out of an unpacked log, keeping the first error.
type fieldReader struct {
	values map[string]interface{}
	kind   EventKind
	header *FactHeader
	err    error
}

func (r *fieldReader) fail(field string, msg string) {
	if r.err != nil {
		return
	}
	r.err = NewDecodeError(r.kind, nil).WithHeader(r.header).WithMessage(fmt.Sprintf("field '%s': %s", field, msg))
}

func (r *fieldReader) readBigInt(field string) *big.Int {
	v, ok := r.values[field].(*big.Int)
	if !ok || v == nil {
		r.fail(field, fmt.Sprintf("expected uint256, got %T", r.values[field]))
		return new(big.Int)
	}
	return v
}

var maxStoredUint = big.NewInt(math.MaxInt64)

// readUint64 only accepts values that fit a signed bigint column.
func (r *fieldReader) readUint64(field string) uint64 {
	v := r.readBigInt(field)
	if v.Sign() < 0 || v.Cmp(maxStoredUint) > 0 {
		r.fail(field, fmt.Sprintf("value %s out of range", v.String()))
		return 0
	}
	return v.Uint64()
}

// checkSum fails when a derived total of the given values would not fit a bigint column.
func (r *fieldReader) checkSum(field string, values ...uint64) {
	total := new(big.Int)
	for _, v := range values {
		total.Add(total, new(big.Int).SetUint64(v))
	}
	if total.Cmp(maxStoredUint) > 0 {
		r.fail(field, fmt.Sprintf("total %s out of range", total.String()))
	}
}

func (r *fieldReader) readAmount(field string) decimal.Decimal {
	return decimal.NewFromBigInt(r.readBigInt(field), 0)
}

func (r *fieldReader) readUint8(field string) uint8 {
	v, ok := r.values[field].(uint8)
	if !ok {
		r.fail(field, fmt.Sprintf("expected uint8, got %T", r.values[field]))
	}
	return v
}

func (r *fieldReader) readBool(field string) bool {
	v, ok := r.values[field].(bool)
	if !ok {
		r.fail(field, fmt.Sprintf("expected bool, got %T", r.values[field]))
	}
	return v
}

func (r *fieldReader) readAddress(field string) string {
	v, ok := r.values[field].(common.Address)
	if !ok {
		r.fail(field, fmt.Sprintf("expected address, got %T", r.values[field]))
		return ""
	}
	return strings.ToLower(v.Hex())
}
