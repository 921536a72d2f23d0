package model

import (
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle state of an interview.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusExpired    Status = "expired"
	StatusAbandoned  Status = "abandoned"
)

var (
	// ErrUnknownStatus is returned for a status string outside the lifecycle.
	ErrUnknownStatus = errors.New("unknown status")
	// ErrInvalidTransition is returned when an edge is not allowed, in
	// particular any edge leaving a terminal state.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// edges lists the allowed non-trivial transitions.
var edges = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusCompleted, StatusExpired, StatusAbandoned},
	StatusInProgress: {StatusCompleted, StatusExpired, StatusAbandoned},
}

// ParseStatus validates s.  An empty string is the legacy spelling of
// pending.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case "":
		return StatusPending, nil
	case StatusPending, StatusInProgress, StatusCompleted, StatusExpired, StatusAbandoned:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// Terminal reports whether no further transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusExpired || s == StatusAbandoned
}

// CanTransition reports whether from -> to is permitted.  Re-asserting a
// non-terminal state is allowed and changes nothing.
func CanTransition(from, to Status) bool {
	if from == "" {
		from = StatusPending
	}
	if from.Terminal() {
		return false
	}
	if from == to {
		return true
	}
	for _, next := range edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition returns the patch that moves an interview from -> to at now.
// Entering in-progress stamps startedAt, entering completed stamps
// completedAt.  Re-asserting the current state never writes status, so a
// stale request cannot overwrite a newer one.
func Transition(from, to Status, now time.Time) (*Patch, error) {
	if !CanTransition(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	p := NewPatch().Set("updatedAt", now)
	if from == to {
		return p, nil
	}
	p.Set("status", to)
	switch to {
	case StatusInProgress:
		p.Set("startedAt", now)
	case StatusCompleted:
		p.Set("completedAt", now)
	}
	return p, nil
}
