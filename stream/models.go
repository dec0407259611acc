package stream

import (
	"errors"
	"fmt"

	"github.com/xraph/paystream/types"
)

// Validation and state errors raised by stream accounting. The root package
// re-exports them as part of the public error taxonomy.
var (
	ErrInvalidState     = errors.New("paystream: operation not allowed in current stream state")
	ErrInvalidAmount    = errors.New("paystream: invalid amount")
	ErrExceedsTotal     = errors.New("paystream: amount exceeds stream total")
	ErrInvalidTimeRange = errors.New("paystream: end time before start time")
	ErrInvalidAddress   = errors.New("paystream: invalid address")
)

// Stream is a linearly vesting payment from Sender to Recipient.
type Stream struct {
	types.Entity
	ID        uint64        `json:"id"`
	Sender    types.Address `json:"sender"`
	Recipient types.Address `json:"recipient"`
	Token     types.Address `json:"token"`

	TotalAmount     int64 `json:"total_amount"`
	Balance         int64 `json:"balance"` // cumulative deposits, never reduced by payouts
	WithdrawnAmount int64 `json:"withdrawn_amount"`

	StartTime int64  `json:"start_time"`
	EndTime   int64  `json:"end_time"`
	Status    Status `json:"status"`

	// ActiveElapsed is the frozen accumulator of seconds spent Active up to
	// LastResumeTime. The running segment is added lazily at read time.
	ActiveElapsed  int64 `json:"active_elapsed"`
	LastResumeTime int64 `json:"last_resume_time"`

	Delegate *types.Address `json:"delegate,omitempty"`
}

// CreateParams describes a new stream.
type CreateParams struct {
	Sender        types.Address `json:"sender"`
	Recipient     types.Address `json:"recipient"`
	Token         types.Address `json:"token"`
	TotalAmount   int64         `json:"total_amount"`
	InitialAmount int64         `json:"initial_amount"`
	StartTime     int64         `json:"start_time"`
	EndTime       int64         `json:"end_time"`
}

// Validate checks the creation parameters.
func (p CreateParams) Validate() error {
	switch {
	case p.Sender.IsZero():
		return fmt.Errorf("%w: sender", ErrInvalidAddress)
	case p.Recipient.IsZero():
		return fmt.Errorf("%w: recipient", ErrInvalidAddress)
	case p.Token.IsZero():
		return fmt.Errorf("%w: token", ErrInvalidAddress)
	case p.TotalAmount <= 0:
		return fmt.Errorf("%w: total amount must be positive, got %d", ErrInvalidAmount, p.TotalAmount)
	case p.InitialAmount < 0:
		return fmt.Errorf("%w: initial amount must not be negative, got %d", ErrInvalidAmount, p.InitialAmount)
	case p.InitialAmount > p.TotalAmount:
		return fmt.Errorf("%w: initial %d > total %d", ErrExceedsTotal, p.InitialAmount, p.TotalAmount)
	case p.StartTime < 0:
		return fmt.Errorf("%w: start %d is before the epoch", ErrInvalidTimeRange, p.StartTime)
	case p.EndTime < p.StartTime:
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidTimeRange, p.StartTime, p.EndTime)
	}
	return nil
}

// New builds the initial record for a validated CreateParams.
func New(streamID uint64, p CreateParams) *Stream {
	return &Stream{
		Entity:          types.NewEntity(),
		ID:              streamID,
		Sender:          p.Sender,
		Recipient:       p.Recipient,
		Token:           p.Token,
		TotalAmount:     p.TotalAmount,
		Balance:         p.InitialAmount,
		WithdrawnAmount: 0,
		StartTime:       p.StartTime,
		EndTime:         p.EndTime,
		Status:          StatusActive,
		ActiveElapsed:   0,
		LastResumeTime:  p.StartTime,
	}
}

// Clone returns a deep copy, including the delegate slot.
func (s *Stream) Clone() *Stream {
	c := *s
	if s.Delegate != nil {
		d := *s.Delegate
		c.Delegate = &d
	}
	return &c
}

// Duration is the length of the vesting window in seconds. Validated
// windows start at or after the epoch, so it cannot overflow.
func (s *Stream) Duration() int64 { return s.EndTime - s.StartTime }

// Escrowed is the deposited amount not yet paid out.
func (s *Stream) Escrowed() int64 { return s.Balance - s.WithdrawnAmount }

// HasDelegate reports whether a delegate is currently set.
func (s *Stream) HasDelegate() bool { return s.Delegate != nil }

// Completed reports whether everything the stream will ever pay has vested
// and been withdrawn.
func (s *Stream) Completed(now int64) bool {
	return s.Balance == s.TotalAmount &&
		VestedAmount(s, now) == s.TotalAmount &&
		s.WithdrawnAmount == s.TotalAmount
}

// CheckInvariants verifies the accounting invariants that must hold after
// every operation.
func (s *Stream) CheckInvariants() error {
	switch {
	case s.WithdrawnAmount < 0:
		return fmt.Errorf("stream %d: withdrawn %d is negative", s.ID, s.WithdrawnAmount)
	case s.WithdrawnAmount > s.Balance:
		return fmt.Errorf("stream %d: withdrawn %d exceeds balance %d", s.ID, s.WithdrawnAmount, s.Balance)
	case s.Balance > s.TotalAmount:
		return fmt.Errorf("stream %d: balance %d exceeds total %d", s.ID, s.Balance, s.TotalAmount)
	case s.StartTime < 0 || s.EndTime < s.StartTime:
		return fmt.Errorf("stream %d: invalid window [%d, %d]", s.ID, s.StartTime, s.EndTime)
	case s.ActiveElapsed < 0:
		return fmt.Errorf("stream %d: active elapsed %d is negative", s.ID, s.ActiveElapsed)
	case s.Delegate != nil && s.Delegate.IsZero():
		return fmt.Errorf("stream %d: zero delegate", s.ID)
	case !s.Status.Valid():
		return fmt.Errorf("stream %d: unknown status %q", s.ID, s.Status)
	}
	return nil
}
