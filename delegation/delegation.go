// Package delegation manages the optional withdrawal delegate of a stream.
//
// A recipient may name one delegate who can withdraw on their behalf. The
// slot is overwritten on each grant and cleared on revoke. Funds withdrawn by
// a delegate still go to the recipient.
package delegation

import (
	"errors"
	"fmt"

	"github.com/xraph/paystream/stream"
	"github.com/xraph/paystream/types"
)

// ErrInvalidDelegate is returned when the zero address is named delegate.
var ErrInvalidDelegate = errors.New("paystream: invalid delegate")

// Role identifies which stream party authorized a withdrawal.
type Role string

const (
	RoleNone      Role = ""
	RoleRecipient Role = "recipient"
	RoleDelegate  Role = "delegate"
)

// Granted is published when a delegate is set.
type Granted struct {
	StreamID  uint64        `json:"stream_id"`
	Recipient types.Address `json:"recipient"`
	Delegate  types.Address `json:"delegate"`
}

// Revoked is published when the delegate slot is cleared.
type Revoked struct {
	StreamID  uint64        `json:"stream_id"`
	Recipient types.Address `json:"recipient"`
}

// Grant validates delegate and stores it on a copy of s.
func Grant(s *stream.Stream, delegate types.Address) (*stream.Stream, *Granted, error) {
	if delegate.IsZero() {
		return nil, nil, fmt.Errorf("%w: zero address", ErrInvalidDelegate)
	}
	if _, err := stream.Transition(s.Status, stream.OpDelegate); err != nil {
		return nil, nil, err
	}

	next := s.Clone()
	next.Delegate = types.AddressPtr(delegate)
	next.Touch()
	return next, &Granted{StreamID: s.ID, Recipient: s.Recipient, Delegate: delegate}, nil
}

// Revoke clears the delegate slot on a copy of s. Revoking an empty slot
// succeeds.
func Revoke(s *stream.Stream) (*stream.Stream, *Revoked, error) {
	if _, err := stream.Transition(s.Status, stream.OpDelegate); err != nil {
		return nil, nil, err
	}

	next := s.Clone()
	next.Delegate = nil
	next.Touch()
	return next, &Revoked{StreamID: s.ID, Recipient: s.Recipient}, nil
}

// WithdrawRoles lists the identities allowed to withdraw from s, recipient
// first.
func WithdrawRoles(s *stream.Stream) []types.Address {
	roles := []types.Address{s.Recipient}
	if s.HasDelegate() {
		roles = append(roles, *s.Delegate)
	}
	return roles
}

// RoleOf reports which withdraw role identity holds on s.
func RoleOf(s *stream.Stream, identity types.Address) Role {
	switch {
	case identity == s.Recipient:
		return RoleRecipient
	case s.HasDelegate() && identity == *s.Delegate:
		return RoleDelegate
	}
	return RoleNone
}
