package events

type EventKind string

const (
	EventKind_SessionOpened     EventKind = "SessionCreated"
	EventKind_SessionClosed     EventKind = "SessionResolved"
	EventKind_StakePlaced       EventKind = "BetPlaced"
	EventKind_StakeClaimed      EventKind = "BetClaimed"
	EventKind_FighterCreated    EventKind = "FighterCreated"
	EventKind_StatsUpdated      EventKind = "StatsUpdated"
	EventKind_ChallengeCreated  EventKind = "ChallengeCreated"
	EventKind_ChallengeAccepted EventKind = "ChallengeAccepted"
	EventKind_ChallengeResolved EventKind = "BattleResolved"
)

// Contract identifies which configured ledger contract emits a kind.
type Contract string

const (
	Contract_Session Contract = "session"
	Contract_Fighter Contract = "fighter"
)

// TrackedKinds lists every kind the indexer subscribes to, in a fixed order.
var TrackedKinds = []EventKind{
	EventKind_SessionOpened,
	EventKind_SessionClosed,
	EventKind_StakePlaced,
	EventKind_StakeClaimed,
	EventKind_FighterCreated,
	EventKind_StatsUpdated,
	EventKind_ChallengeCreated,
	EventKind_ChallengeAccepted,
	EventKind_ChallengeResolved,
}

func ContractForKind(kind EventKind) Contract {
	switch kind {
	case EventKind_SessionOpened, EventKind_SessionClosed, EventKind_StakePlaced, EventKind_StakeClaimed:
		return Contract_Session
	default:
		return Contract_Fighter
	}
}

type ExerciseType uint8

const (
	ExerciseType_Pushups      ExerciseType = 0
	ExerciseType_Squats       ExerciseType = 1
	ExerciseType_JumpingJacks ExerciseType = 2
)

func (e ExerciseType) String() string {
	switch e {
	case ExerciseType_Pushups:
		return "Pushups"
	case ExerciseType_Squats:
		return "Squats"
	case ExerciseType_JumpingJacks:
		return "JumpingJacks"
	}
	return "Unknown"
}
