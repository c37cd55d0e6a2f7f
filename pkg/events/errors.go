package events

import (
	"fmt"
)

// DecodeError is returned when a log matches a tracked kind but its fields cannot be decoded.
// It is fatal for the run.
type DecodeError struct {
	Kind            EventKind
	BlockNumber     uint64
	TransactionHash string
	LogIndex        uint64
	Message         string
	Err             error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("DecodeError: %s at block %d tx %s log %d: %s",
		e.Kind, e.BlockNumber, e.TransactionHash, e.LogIndex, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func NewDecodeError(kind EventKind, err error) *DecodeError {
	return &DecodeError{
		Kind: kind,
		Err:  err,
	}
}

func (e *DecodeError) WithHeader(h *FactHeader) *DecodeError {
	e.BlockNumber = h.BlockNumber
	e.TransactionHash = h.TransactionHash
	e.LogIndex = h.LogIndex
	return e
}

func (e *DecodeError) WithMessage(message string) *DecodeError {
	e.Message = message
	return e
}
