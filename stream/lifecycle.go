package stream

import "fmt"

// Status is the lifecycle state of a stream.
type Status string

const (
	StatusActive   Status = "Active"
	StatusPaused   Status = "Paused"
	StatusCanceled Status = "Canceled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusCanceled:
		return true
	}
	return false
}

// IsTerminal reports whether no further mutation is allowed.
func (s Status) IsTerminal() bool { return s == StatusCanceled }

func (s Status) String() string { return string(s) }

// Operation names a mutating stream operation.
type Operation string

const (
	OpDeposit  Operation = "deposit"
	OpWithdraw Operation = "withdraw"
	OpDelegate Operation = "delegate"
	OpPause    Operation = "pause"
	OpResume   Operation = "resume"
	OpCancel   Operation = "cancel"
)

var transitions = map[Status]map[Operation]Status{
	StatusActive: {
		OpDeposit:  StatusActive,
		OpWithdraw: StatusActive,
		OpDelegate: StatusActive,
		OpPause:    StatusPaused,
		OpCancel:   StatusCanceled,
	},
	StatusPaused: {
		OpDeposit:  StatusPaused,
		OpWithdraw: StatusPaused,
		OpDelegate: StatusPaused,
		OpResume:   StatusActive,
		OpCancel:   StatusCanceled,
	},
	StatusCanceled: {},
}

// Transition is the single lifecycle gate. It returns the status a stream in
// state from ends up in after op, or ErrInvalidState if op is not allowed.
func Transition(from Status, op Operation) (Status, error) {
	to, ok := transitions[from][op]
	if !ok {
		return from, fmt.Errorf("%w: cannot %s a %s stream", ErrInvalidState, op, from)
	}
	return to, nil
}

// Allows reports whether op may run against a stream in state from.
func Allows(from Status, op Operation) bool {
	_, err := Transition(from, op)
	return err == nil
}

// CanMutate reports whether a stream in state s accepts any mutation.
func CanMutate(s Status) bool { return len(transitions[s]) > 0 }
