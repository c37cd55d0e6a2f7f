package rpcServer

import (
	"time"

	"github.com/mojo-fit/mojo-indexer/pkg/events"
	"github.com/mojo-fit/mojo-indexer/pkg/service/indexDataService"
	"github.com/mojo-fit/mojo-indexer/pkg/storage"
)

type sessionResponse struct {
	Id               uint64    `json:"id"`
	Exerciser        string    `json:"exerciser"`
	ExerciseType     uint8     `json:"exerciseType"`
	ExerciseTypeName string    `json:"exerciseTypeName"`
	TargetReps       uint64    `json:"targetReps"`
	ActualReps       uint64    `json:"actualReps"`
	TargetMet        bool      `json:"targetMet"`
	StartedAt        time.Time `json:"startedAt"`
	Status           int       `json:"status"`
	StatusName       string    `json:"statusName"`
	TotalUpStake     string    `json:"totalUpStake"`
	TotalDownStake   string    `json:"totalDownStake"`
	BlockNumber      uint64    `json:"blockNumber"`
	TransactionHash  string    `json:"transactionHash"`
}

type stakeResponse struct {
	SessionId   uint64 `json:"sessionId"`
	Staker      string `json:"staker"`
	IsUp        bool   `json:"isUp"`
	Amount      string `json:"amount"`
	Claimed     bool   `json:"claimed"`
	Payout      string `json:"payout"`
	BlockNumber uint64 `json:"blockNumber"`
}

type sessionDetailResponse struct {
	sessionResponse
	Stakes []*stakeResponse `json:"stakes"`
}

type fighterResponse struct {
	Address   string `json:"address"`
	Strength  uint64 `json:"strength"`
	Agility   uint64 `json:"agility"`
	Endurance uint64 `json:"endurance"`
	TotalReps uint64 `json:"totalReps"`
	Level     uint64 `json:"level"`
	Wins      uint64 `json:"wins"`
	Losses    uint64 `json:"losses"`
}

type challengeResponse struct {
	Id          uint64  `json:"id"`
	Challenger  string  `json:"challenger"`
	Opponent    string  `json:"opponent"`
	Wager       string  `json:"wager"`
	Status      int     `json:"status"`
	StatusName  string  `json:"statusName"`
	Winner      *string `json:"winner"`
	Payout      string  `json:"payout"`
	BlockNumber uint64  `json:"blockNumber"`
}

type leaderboardEntryResponse struct {
	Rank int `json:"rank"`
	fighterResponse
	Value string `json:"value"`
	Label string `json:"label"`
}

type windowResponse struct {
	FromPosition uint64 `json:"fromPosition"`
	ToPosition   uint64 `json:"toPosition"`
	FactCount    int    `json:"factCount"`
	StateRoot    string `json:"stateRoot"`
}

type lastRunResponse struct {
	CompletedAt      time.Time `json:"completedAt"`
	StartPosition    uint64    `json:"startPosition"`
	EndPosition      uint64    `json:"endPosition"`
	LedgerTip        uint64    `json:"ledgerTip"`
	WindowsProcessed int       `json:"windowsProcessed"`
	FactsApplied     int       `json:"factsApplied"`
	Error            string    `json:"error,omitempty"`
}

type statusResponse struct {
	Checkpoint uint64           `json:"checkpoint"`
	State      string           `json:"state"`
	LastWindow *windowResponse  `json:"lastWindow"`
	LastRun    *lastRunResponse `json:"lastRun"`
}

type indexResponse struct {
	Ok               bool           `json:"ok"`
	StartPosition    uint64         `json:"startPosition"`
	EndPosition      uint64         `json:"endPosition"`
	LedgerTip        uint64         `json:"ledgerTip"`
	WindowsProcessed int            `json:"windowsProcessed"`
	FactsApplied     int            `json:"factsApplied"`
	FactsByKind      map[string]int `json:"factsByKind"`
}

func convertSession(s *storage.Session) sessionResponse {
	return sessionResponse{
		Id:               s.Id,
		Exerciser:        s.Exerciser,
		ExerciseType:     s.ExerciseType,
		ExerciseTypeName: events.ExerciseType(s.ExerciseType).String(),
		TargetReps:       s.TargetReps,
		ActualReps:       s.ActualReps,
		TargetMet:        s.TargetMet,
		StartedAt:        s.StartedAt.UTC(),
		Status:           int(s.Status),
		StatusName:       s.Status.String(),
		TotalUpStake:     s.TotalUpStake.String(),
		TotalDownStake:   s.TotalDownStake.String(),
		BlockNumber:      s.BlockNumber,
		TransactionHash:  s.TransactionHash,
	}
}

func convertSessionDetail(d *indexDataService.SessionWithStakes) *sessionDetailResponse {
	stakes := make([]*stakeResponse, 0, len(d.Stakes))
	for _, st := range d.Stakes {
		stakes = append(stakes, &stakeResponse{
			SessionId:   st.SessionId,
			Staker:      st.Staker,
			IsUp:        st.IsUp,
			Amount:      st.Amount.String(),
			Claimed:     st.Claimed,
			Payout:      st.Payout.String(),
			BlockNumber: st.BlockNumber,
		})
	}
	return &sessionDetailResponse{
		sessionResponse: convertSession(d.Session),
		Stakes:          stakes,
	}
}

func convertFighter(f *storage.Fighter) fighterResponse {
	return fighterResponse{
		Address:   f.Address,
		Strength:  f.Strength,
		Agility:   f.Agility,
		Endurance: f.Endurance,
		TotalReps: f.TotalReps,
		Level:     f.Level,
		Wins:      f.Wins,
		Losses:    f.Losses,
	}
}

func convertChallenge(c *storage.Challenge) *challengeResponse {
	return &challengeResponse{
		Id:          c.Id,
		Challenger:  c.Challenger,
		Opponent:    c.Opponent,
		Wager:       c.Wager.String(),
		Status:      int(c.Status),
		StatusName:  c.Status.String(),
		Winner:      c.Winner,
		Payout:      c.Payout.String(),
		BlockNumber: c.BlockNumber,
	}
}
