package event

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("event not found")
	ErrPastDate          = errors.New("event date is in the past")
	ErrAlreadyJoined     = errors.New("participant already joined")
	ErrNotParticipant    = errors.New("participant is not on the roster")
	ErrNotJoinable       = errors.New("event is not open for joining")
	ErrConflict          = errors.New("event was modified concurrently")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrForbidden         = errors.New("not allowed to modify this event")
	ErrInvalidInput      = errors.New("invalid event input")
)

// TransitionError describes a rejected status change.
type TransitionError struct {
	EventID string
	From    Status
	To      Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %s: cannot transition from %s to %s", e.EventID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrIllegalTransition }
