package pipeline

import (
	"errors"
	"fmt"
)

// ErrRunInProgress is returned when Run is called while another run on the same pipeline is active.
var ErrRunInProgress = errors.New("an indexing run is already in progress")

// PersistenceError wraps a failure while applying a window to the derived store.
// Nothing from the window is committed.
type PersistenceError struct {
	FromPosition uint64
	ToPosition   uint64
	Err          error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("PersistenceError: window [%d, %d]: %v", e.FromPosition, e.ToPosition, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
