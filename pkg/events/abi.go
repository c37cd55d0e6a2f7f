package events

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const SessionContractAbi = `[
	{"type":"event","name":"SessionCreated","anonymous":false,"inputs":[
		{"name":"sessionId","type":"uint256","indexed":true},
		{"name":"exerciser","type":"address","indexed":true},
		{"name":"exerciseType","type":"uint8","indexed":false},
		{"name":"targetReps","type":"uint256","indexed":false}
	]},
	{"type":"event","name":"SessionResolved","anonymous":false,"inputs":[
		{"name":"sessionId","type":"uint256","indexed":true},
		{"name":"actualReps","type":"uint256","indexed":false},
		{"name":"targetMet","type":"bool","indexed":false}
	]},
	{"type":"event","name":"BetPlaced","anonymous":false,"inputs":[
		{"name":"sessionId","type":"uint256","indexed":true},
		{"name":"bettor","type":"address","indexed":true},
		{"name":"isUp","type":"bool","indexed":false},
		{"name":"amount","type":"uint256","indexed":false}
	]},
	{"type":"event","name":"BetClaimed","anonymous":false,"inputs":[
		{"name":"sessionId","type":"uint256","indexed":true},
		{"name":"bettor","type":"address","indexed":true},
		{"name":"payout","type":"uint256","indexed":false}
	]}
]`

const FighterContractAbi = `[
	{"type":"event","name":"FighterCreated","anonymous":false,"inputs":[
		{"name":"owner","type":"address","indexed":true}
	]},
	{"type":"event","name":"StatsUpdated","anonymous":false,"inputs":[
		{"name":"owner","type":"address","indexed":true},
		{"name":"strength","type":"uint256","indexed":false},
		{"name":"agility","type":"uint256","indexed":false},
		{"name":"endurance","type":"uint256","indexed":false}
	]},
	{"type":"event","name":"ChallengeCreated","anonymous":false,"inputs":[
		{"name":"challengeId","type":"uint256","indexed":true},
		{"name":"challenger","type":"address","indexed":true},
		{"name":"opponent","type":"address","indexed":true},
		{"name":"wager","type":"uint256","indexed":false}
	]},
	{"type":"event","name":"ChallengeAccepted","anonymous":false,"inputs":[
		{"name":"challengeId","type":"uint256","indexed":true}
	]},
	{"type":"event","name":"BattleResolved","anonymous":false,"inputs":[
		{"name":"challengeId","type":"uint256","indexed":true},
		{"name":"winner","type":"address","indexed":true},
		{"name":"payout","type":"uint256","indexed":false}
	]}
]`

var (
	sessionAbi = mustParseAbi(SessionContractAbi)
	fighterAbi = mustParseAbi(FighterContractAbi)
)

func mustParseAbi(json string) abi.ABI {
	a, err := abi.JSON(strings.NewReader(json))
	if err != nil {
		panic(err)
	}
	return a
}

// EventForKind returns the ABI event definition of a tracked kind.
func EventForKind(kind EventKind) (abi.Event, bool) {
	a := fighterAbi
	if ContractForKind(kind) == Contract_Session {
		a = sessionAbi
	}
	ev, ok := a.Events[string(kind)]
	return ev, ok
}
