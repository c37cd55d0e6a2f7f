package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// FactHeader locates a fact on the ledger.
type FactHeader struct {
	Kind            EventKind `json:"kind"`
	BlockNumber     uint64    `json:"blockNumber"`
	TransactionHash string    `json:"transactionHash"`
	LogIndex        uint64    `json:"logIndex"`
}

func (h *FactHeader) GetHeader() *FactHeader {
	return h
}

// Slot is the position key of the fact within a window.
func (h *FactHeader) Slot() string {
	return fmt.Sprintf("%d_%d", h.BlockNumber, h.LogIndex)
}

// Fact is a decoded ledger event ready to be applied to the derived store.
type Fact interface {
	GetHeader() *FactHeader
}

type SessionOpened struct {
	FactHeader
	SessionId    uint64       `json:"sessionId"`
	Exerciser    string       `json:"exerciser"`
	ExerciseType ExerciseType `json:"exerciseType"`
	TargetReps   uint64       `json:"targetReps"`
	// StartedAt is the timestamp of the block the session was opened in.
	StartedAt time.Time `json:"startedAt"`
}

type SessionClosed struct {
	FactHeader
	SessionId  uint64 `json:"sessionId"`
	ActualReps uint64 `json:"actualReps"`
	TargetMet  bool   `json:"targetMet"`
}

type StakePlaced struct {
	FactHeader
	SessionId uint64          `json:"sessionId"`
	Staker    string          `json:"staker"`
	IsUp      bool            `json:"isUp"`
	Amount    decimal.Decimal `json:"amount"`
}

type StakeClaimed struct {
	FactHeader
	SessionId uint64          `json:"sessionId"`
	Staker    string          `json:"staker"`
	Payout    decimal.Decimal `json:"payout"`
}

type FighterCreated struct {
	FactHeader
	Address string `json:"address"`
}

type StatsUpdated struct {
	FactHeader
	Address   string `json:"address"`
	Strength  uint64 `json:"strength"`
	Agility   uint64 `json:"agility"`
	Endurance uint64 `json:"endurance"`
}

type ChallengeCreated struct {
	FactHeader
	ChallengeId uint64          `json:"challengeId"`
	Challenger  string          `json:"challenger"`
	Opponent    string          `json:"opponent"`
	Wager       decimal.Decimal `json:"wager"`
}

type ChallengeAccepted struct {
	FactHeader
	ChallengeId uint64 `json:"challengeId"`
}

type ChallengeResolved struct {
	FactHeader
	ChallengeId uint64          `json:"challengeId"`
	Winner      string          `json:"winner"`
	Payout      decimal.Decimal `json:"payout"`
}

// EncodeFact returns the canonical byte encoding of a fact, used as a state root leaf.
func EncodeFact(f Fact) ([]byte, error) {
	return json.Marshal(f)
}
