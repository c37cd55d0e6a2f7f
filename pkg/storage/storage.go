package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

type SessionStatus int

const (
	SessionStatus_Active   SessionStatus = 0
	SessionStatus_Resolved SessionStatus = 1
	SessionStatus_Expired  SessionStatus = 2
)

func (s SessionStatus) String() string {
	switch s {
	case SessionStatus_Active:
		return "Active"
	case SessionStatus_Resolved:
		return "Resolved"
	case SessionStatus_Expired:
		return "Expired"
	}
	return "Unknown"
}

type ChallengeStatus int

const (
	ChallengeStatus_Pending   ChallengeStatus = 0
	ChallengeStatus_Accepted  ChallengeStatus = 1
	ChallengeStatus_Resolved  ChallengeStatus = 2
	ChallengeStatus_Cancelled ChallengeStatus = 3
)

func (s ChallengeStatus) String() string {
	switch s {
	case ChallengeStatus_Pending:
		return "Pending"
	case ChallengeStatus_Accepted:
		return "Accepted"
	case ChallengeStatus_Resolved:
		return "Resolved"
	case ChallengeStatus_Cancelled:
		return "Cancelled"
	}
	return "Unknown"
}

// Tables.
type Session struct {
	Id              uint64 `gorm:"primaryKey;autoIncrement:false"`
	Exerciser       string
	ExerciseType    uint8
	TargetReps      uint64
	ActualReps      uint64
	TargetMet       bool
	StartedAt       time.Time
	Status          SessionStatus
	TotalUpStake    decimal.Decimal `gorm:"type:varchar"`
	TotalDownStake  decimal.Decimal `gorm:"type:varchar"`
	BlockNumber     uint64
	TransactionHash string
	LogIndex        uint64
	CreatedAt       time.Time `gorm:"->"`
}

func (Session) TableName() string { return "sessions" }

type Stake struct {
	SessionId   uint64 `gorm:"primaryKey;autoIncrement:false"`
	Staker      string `gorm:"primaryKey"`
	IsUp        bool
	Amount      decimal.Decimal `gorm:"type:varchar"`
	Claimed     bool
	Payout      decimal.Decimal `gorm:"type:varchar"`
	BlockNumber uint64
}

func (Stake) TableName() string { return "stakes" }

type Fighter struct {
	Address     string `gorm:"primaryKey"`
	Strength    uint64
	Agility     uint64
	Endurance   uint64
	TotalReps   uint64
	Level       uint64
	Wins        uint64
	Losses      uint64
	BlockNumber uint64
}

func (Fighter) TableName() string { return "fighters" }

type Challenge struct {
	Id          uint64 `gorm:"primaryKey;autoIncrement:false"`
	Challenger  string
	Opponent    string
	Wager       decimal.Decimal `gorm:"type:varchar"`
	Status      ChallengeStatus
	Winner      *string
	Payout      decimal.Decimal `gorm:"type:varchar"`
	BlockNumber uint64
	CreatedAt   time.Time `gorm:"->"`
}

func (Challenge) TableName() string { return "challenges" }

type Checkpoint struct {
	Id           int `gorm:"primaryKey;autoIncrement:false"`
	LastPosition uint64
	UpdatedAt    time.Time
}

func (Checkpoint) TableName() string { return "checkpoints" }

// BattleCredit records that a resolved challenge has already been counted in wins/losses.
type BattleCredit struct {
	ChallengeId uint64 `gorm:"primaryKey;autoIncrement:false"`
	Winner      string
	Loser       string
	BlockNumber uint64
}

func (BattleCredit) TableName() string { return "battle_credits" }

type WindowStateRoot struct {
	ToPosition   uint64 `gorm:"primaryKey;autoIncrement:false"`
	FromPosition uint64
	FactCount    int
	StateRoot    string
	CreatedAt    time.Time `gorm:"->"`
}

func (WindowStateRoot) TableName() string { return "window_state_roots" }

// DerivedTables are every table rebuilt from ledger events, in delete order.
var DerivedTables = []string{
	"battle_credits",
	"window_state_roots",
	"stakes",
	"sessions",
	"challenges",
	"fighters",
	"checkpoints",
}

// LevelForTotalReps is the fighter level for a given total of stats.
func LevelForTotalReps(totalReps uint64) uint64 {
	return totalReps / 10
}
