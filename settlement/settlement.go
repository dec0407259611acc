// Package settlement computes the accounting effect of stream operations.
//
// Every function is pure: it takes the current record and returns a new one
// together with the token movements that must be executed for the operation
// to take effect. Nothing here touches storage or tokens.
package settlement

import (
	"fmt"

	"github.com/xraph/paystream/fee"
	"github.com/xraph/paystream/stream"
	"github.com/xraph/paystream/types"
)

// Kind labels a token movement.
type Kind string

const (
	KindFunding Kind = "funding"
	KindPayout  Kind = "payout"
	KindFee     Kind = "fee"
	KindRefund  Kind = "refund"
)

// Transfer is a single token movement to execute.
type Transfer struct {
	Kind   Kind          `json:"kind"`
	Token  types.Address `json:"token"`
	From   types.Address `json:"from"`
	To     types.Address `json:"to"`
	Amount int64         `json:"amount"`
}

// Reverse returns the transfer that undoes t.
func (t Transfer) Reverse() Transfer {
	t.From, t.To = t.To, t.From
	return t
}

// Terms are the protocol-level parameters settlement needs.
type Terms struct {
	Escrow       types.Address
	FeeCollector types.Address
	FeeRateBps   uint32
}

// Result is the outcome of a settlement step.
type Result struct {
	Stream    *stream.Stream
	Transfers []Transfer

	// Gross is the amount the operation moved out of or into escrow on the
	// stream's behalf. Net and Fee are set for withdrawals.
	Gross int64
	Net   int64
	Fee   int64
}

// Open builds the initial record of a new stream and the funding transfer
// for its initial amount.
func Open(streamID uint64, p stream.CreateParams, t Terms) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	s := stream.New(streamID, p)
	res := Result{Stream: s, Gross: p.InitialAmount}
	if p.InitialAmount > 0 {
		res.Transfers = append(res.Transfers, Transfer{
			Kind: KindFunding, Token: s.Token, From: s.Sender, To: t.Escrow, Amount: p.InitialAmount,
		})
	}
	return res, nil
}

// Deposit tops up the stream by amount.
func Deposit(s *stream.Stream, amount int64, t Terms) (Result, error) {
	if _, err := stream.Transition(s.Status, stream.OpDeposit); err != nil {
		return Result{}, err
	}
	if amount <= 0 {
		return Result{}, fmt.Errorf("%w: deposit must be positive, got %d", stream.ErrInvalidAmount, amount)
	}
	balance, ok := types.AddChecked(s.Balance, amount)
	if !ok || balance > s.TotalAmount {
		return Result{}, fmt.Errorf("%w: balance %d + deposit %d > total %d",
			stream.ErrExceedsTotal, s.Balance, amount, s.TotalAmount)
	}

	next := s.Clone()
	next.Balance = balance
	next.Touch()
	return Result{
		Stream: next,
		Gross:  amount,
		Transfers: []Transfer{{
			Kind: KindFunding, Token: s.Token, From: s.Sender, To: t.Escrow, Amount: amount,
		}},
	}, nil
}

// Withdraw pays amount of the withdrawable balance to the recipient, less
// the protocol fee. WithdrawnAmount grows by the gross amount.
func Withdraw(s *stream.Stream, amount, now int64, t Terms) (Result, error) {
	if _, err := stream.Transition(s.Status, stream.OpWithdraw); err != nil {
		return Result{}, err
	}
	available := stream.WithdrawableAmount(s, now)
	if amount <= 0 || amount > available {
		return Result{}, fmt.Errorf("%w: requested %d, withdrawable %d", stream.ErrInvalidAmount, amount, available)
	}
	net, cut, err := fee.Split(amount, t.FeeRateBps)
	if err != nil {
		return Result{}, err
	}

	next := s.Clone()
	next.WithdrawnAmount += amount
	next.Touch()

	res := Result{Stream: next, Gross: amount, Net: net, Fee: cut}
	if net > 0 {
		res.Transfers = append(res.Transfers, Transfer{
			Kind: KindPayout, Token: s.Token, From: t.Escrow, To: s.Recipient, Amount: net,
		})
	}
	if cut > 0 {
		res.Transfers = append(res.Transfers, Transfer{
			Kind: KindFee, Token: s.Token, From: t.Escrow, To: t.FeeCollector, Amount: cut,
		})
	}
	return res, nil
}

// WithdrawMax withdraws everything currently withdrawable.
func WithdrawMax(s *stream.Stream, now int64, t Terms) (Result, error) {
	return Withdraw(s, stream.WithdrawableAmount(s, now), now, t)
}

// Cancel terminates the stream and refunds the unwithdrawn escrow to the
// sender. Vested funds not yet withdrawn are part of the refund.
func Cancel(s *stream.Stream, now int64, t Terms) (Result, error) {
	status, err := stream.Transition(s.Status, stream.OpCancel)
	if err != nil {
		return Result{}, err
	}

	next := s.Clone()
	next.Freeze(now)
	next.Status = status
	next.Touch()

	refund := s.Escrowed()
	res := Result{Stream: next, Gross: refund}
	if refund > 0 {
		res.Transfers = append(res.Transfers, Transfer{
			Kind: KindRefund, Token: s.Token, From: t.Escrow, To: s.Sender, Amount: refund,
		})
	}
	return res, nil
}

// Pause stops the vesting clock.
func Pause(s *stream.Stream, now int64) (Result, error) {
	status, err := stream.Transition(s.Status, stream.OpPause)
	if err != nil {
		return Result{}, err
	}
	next := s.Clone()
	next.Freeze(now)
	next.Status = status
	next.Touch()
	return Result{Stream: next}, nil
}

// Resume restarts the vesting clock.
func Resume(s *stream.Stream, now int64) (Result, error) {
	status, err := stream.Transition(s.Status, stream.OpResume)
	if err != nil {
		return Result{}, err
	}
	next := s.Clone()
	next.Status = status
	next.Restart(now)
	next.Touch()
	return Result{Stream: next}, nil
}
