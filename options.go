package paystream

import (
	"log/slog"
	"time"

	"github.com/xraph/paystream/auth"
	"github.com/xraph/paystream/clock"
	"github.com/xraph/paystream/event"
	"github.com/xraph/paystream/plugin"
	"github.com/xraph/paystream/token"
	"github.com/xraph/paystream/types"
)

// DefaultEscrow is the account that holds funded, unwithdrawn stream
// balances when no escrow is configured.
const DefaultEscrow types.Address = "paystream-escrow"

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPluginTimeout bounds every plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.plugins.WithTimeout(d)
	}
}

// WithAuth sets the authorization provider. The default reads the caller
// from the context (see auth.WithCaller).
func WithAuth(p auth.Provider) Option {
	return func(e *Engine) {
		e.auth = p
	}
}

// WithToken sets the token transfer executor.
func WithToken(t token.Transferer) Option {
	return func(e *Engine) {
		e.token = t
	}
}

// WithClock sets the ledger time source.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithEmitter sets the event publisher.
func WithEmitter(em event.Emitter) Option {
	return func(e *Engine) {
		e.events = em
	}
}

// WithEscrow sets the escrow account.
func WithEscrow(addr types.Address) Option {
	return func(e *Engine) {
		if !addr.IsZero() {
			e.escrow = addr
		}
	}
}
