// Package token executes token movements on behalf of the engine.
package token

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xraph/paystream/types"
)

// ErrInsufficientBalance is returned when the source cannot cover a transfer.
var ErrInsufficientBalance = errors.New("token: insufficient balance")

// ErrInvalidTransfer is returned for non-positive or self transfers.
var ErrInvalidTransfer = errors.New("token: invalid transfer")

// Transferer moves amount of token from one account to another. It either
// moves the full amount or returns an error and moves nothing.
type Transferer interface {
	Transfer(ctx context.Context, token, from, to types.Address, amount int64) error
}

type account struct {
	token, owner types.Address
}

// Ledger is an in-memory balance book for any number of tokens.
type Ledger struct {
	mu       sync.RWMutex
	balances map[account]int64
}

// NewLedger creates an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{balances: make(map[account]int64)}
}

// Mint credits amount of token to owner.
func (l *Ledger) Mint(token, owner types.Address, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: mint %d", ErrInvalidTransfer, amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	k := account{token, owner}
	next, ok := types.AddChecked(l.balances[k], amount)
	if !ok {
		return fmt.Errorf("token: mint overflows balance of %s", owner.Short())
	}
	l.balances[k] = next
	return nil
}

// Balance returns the holding of owner in token.
func (l *Ledger) Balance(token, owner types.Address) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[account{token, owner}]
}

// Transfer implements Transferer.
func (l *Ledger) Transfer(ctx context.Context, token, from, to types.Address, amount int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount <= 0 || from == to {
		return fmt.Errorf("%w: %d from %s to %s", ErrInvalidTransfer, amount, from.Short(), to.Short())
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	src, dst := account{token, from}, account{token, to}
	if l.balances[src] < amount {
		return fmt.Errorf("%w: %s holds %d, needs %d", ErrInsufficientBalance, from.Short(), l.balances[src], amount)
	}
	next, ok := types.AddChecked(l.balances[dst], amount)
	if !ok {
		return fmt.Errorf("token: transfer overflows balance of %s", to.Short())
	}
	l.balances[src] -= amount
	l.balances[dst] = next
	return nil
}

// Supply returns the total minted amount of token.
func (l *Ledger) Supply(token types.Address) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var total int64
	for k, v := range l.balances {
		if k.token == token {
			total += v
		}
	}
	return total
}
