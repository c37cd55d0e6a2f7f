package types

import (
	"fmt"

	"github.com/mojo-fit/mojo-indexer/pkg/events"
	"gorm.io/gorm"
)

type StateRoot string

type IStateModel interface {
	// GetModelName
	// Get the name of the model
	GetModelName() string

	// IsInterestingFact
	// Determine if the fact changes state owned by the model
	IsInterestingFact(fact events.Fact) bool

	// HandleFact
	// Apply the fact inside tx. Returns the written record.
	HandleFact(tx *gorm.DB, fact events.Fact) (interface{}, error)
}

type SlotID string

type MerkleLeafPrefix []byte

var (
	MerkleLeafPrefix_Window     MerkleLeafPrefix = []byte("0x00")
	MerkleLeafPrefix_FactChange MerkleLeafPrefix = []byte("0x01")
)

// MissingEntityError is returned when a fact updates a row that was never created.
type MissingEntityError struct {
	Entity string
	Id     string
	Kind   events.EventKind
}

func (e *MissingEntityError) Error() string {
	return fmt.Sprintf("%s '%s' not found while applying %s", e.Entity, e.Id, e.Kind)
}
