// Package plugin provides an extensible plugin system for paystream.
// Plugins can hook into stream lifecycle events to extend functionality.
// Hooks run after an operation has committed and cannot undo it.
package plugin

import (
	"context"

	"github.com/xraph/paystream/delegation"
	"github.com/xraph/paystream/protocol"
	"github.com/xraph/paystream/stream"
	"github.com/xraph/paystream/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine any) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// OnProtocolInitialized is called once the protocol config is written.
type OnProtocolInitialized interface {
	Plugin
	OnProtocolInitialized(ctx context.Context, cfg *protocol.Config) error
}

// ──────────────────────────────────────────────────
// Stream hooks
// ──────────────────────────────────────────────────

// OnStreamCreated is called when a new stream is created.
type OnStreamCreated interface {
	Plugin
	OnStreamCreated(ctx context.Context, s *stream.Stream) error
}

// OnStreamDeposited is called after a sender tops up a stream.
type OnStreamDeposited interface {
	Plugin
	OnStreamDeposited(ctx context.Context, s *stream.Stream, amount int64) error
}

// Withdrawal describes a completed payout.
type Withdrawal struct {
	By    types.Address // recipient or delegate who signed
	Gross int64
	Net   int64
	Fee   int64
}

// OnStreamWithdrawn is called after vested funds are paid out.
type OnStreamWithdrawn interface {
	Plugin
	OnStreamWithdrawn(ctx context.Context, s *stream.Stream, w Withdrawal) error
}

// OnStreamPaused is called when a stream is paused.
type OnStreamPaused interface {
	Plugin
	OnStreamPaused(ctx context.Context, s *stream.Stream) error
}

// OnStreamResumed is called when a stream is resumed.
type OnStreamResumed interface {
	Plugin
	OnStreamResumed(ctx context.Context, s *stream.Stream) error
}

// OnStreamCanceled is called when a stream is canceled. refund is the
// amount returned to the sender.
type OnStreamCanceled interface {
	Plugin
	OnStreamCanceled(ctx context.Context, s *stream.Stream, refund int64) error
}

// ──────────────────────────────────────────────────
// Delegation hooks
// ──────────────────────────────────────────────────

// OnDelegationGranted is called when a recipient names a delegate.
type OnDelegationGranted interface {
	Plugin
	OnDelegationGranted(ctx context.Context, ev *delegation.Granted) error
}

// OnDelegationRevoked is called when a recipient clears the delegate.
type OnDelegationRevoked interface {
	Plugin
	OnDelegationRevoked(ctx context.Context, ev *delegation.Revoked) error
}
