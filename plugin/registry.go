package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/paystream/delegation"
	"github.com/xraph/paystream/protocol"
	"github.com/xraph/paystream/stream"
)

// DefaultTimeout bounds a single hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery so dispatch never type-asserts.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit                []OnInit
	onShutdown            []OnShutdown
	onProtocolInitialized []OnProtocolInitialized
	onStreamCreated       []OnStreamCreated
	onStreamDeposited     []OnStreamDeposited
	onStreamWithdrawn     []OnStreamWithdrawn
	onStreamPaused        []OnStreamPaused
	onStreamResumed       []OnStreamResumed
	onStreamCanceled      []OnStreamCanceled
	onDelegationGranted   []OnDelegationGranted
	onDelegationRevoked   []OnDelegationRevoked
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnProtocolInitialized); ok {
		r.onProtocolInitialized = append(r.onProtocolInitialized, v)
	}
	if v, ok := p.(OnStreamCreated); ok {
		r.onStreamCreated = append(r.onStreamCreated, v)
	}
	if v, ok := p.(OnStreamDeposited); ok {
		r.onStreamDeposited = append(r.onStreamDeposited, v)
	}
	if v, ok := p.(OnStreamWithdrawn); ok {
		r.onStreamWithdrawn = append(r.onStreamWithdrawn, v)
	}
	if v, ok := p.(OnStreamPaused); ok {
		r.onStreamPaused = append(r.onStreamPaused, v)
	}
	if v, ok := p.(OnStreamResumed); ok {
		r.onStreamResumed = append(r.onStreamResumed, v)
	}
	if v, ok := p.(OnStreamCanceled); ok {
		r.onStreamCanceled = append(r.onStreamCanceled, v)
	}
	if v, ok := p.(OnDelegationGranted); ok {
		r.onDelegationGranted = append(r.onDelegationGranted, v)
	}
	if v, ok := p.(OnDelegationRevoked); ok {
		r.onDelegationRevoked = append(r.onDelegationRevoked, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name string
	typ  reflect.Type
}{
	{"OnInit", reflect.TypeOf((*OnInit)(nil)).Elem()},
	{"OnShutdown", reflect.TypeOf((*OnShutdown)(nil)).Elem()},
	{"OnProtocolInitialized", reflect.TypeOf((*OnProtocolInitialized)(nil)).Elem()},
	{"OnStreamCreated", reflect.TypeOf((*OnStreamCreated)(nil)).Elem()},
	{"OnStreamDeposited", reflect.TypeOf((*OnStreamDeposited)(nil)).Elem()},
	{"OnStreamWithdrawn", reflect.TypeOf((*OnStreamWithdrawn)(nil)).Elem()},
	{"OnStreamPaused", reflect.TypeOf((*OnStreamPaused)(nil)).Elem()},
	{"OnStreamResumed", reflect.TypeOf((*OnStreamResumed)(nil)).Elem()},
	{"OnStreamCanceled", reflect.TypeOf((*OnStreamCanceled)(nil)).Elem()},
	{"OnDelegationGranted", reflect.TypeOf((*OnDelegationGranted)(nil)).Elem()},
	{"OnDelegationRevoked", reflect.TypeOf((*OnDelegationRevoked)(nil)).Elem()},
}

// implementedInterfaces returns the hook names implemented by the plugin.
func implementedInterfaces(p Plugin) []string {
	var names []string
	t := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if t.Implements(h.typ) {
			names = append(names, h.name)
		}
	}
	return names
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// dispatch runs fn for every plugin in hooks and logs failures.
func dispatch[T Plugin](ctx context.Context, r *Registry, hook string, hooks []T, fn func(T) error) {
	for _, p := range hooks {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return fn(p)
		}); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

func snapshot[T any](r *Registry, list *[]T) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return *list
}

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine any) {
	dispatch(ctx, r, "OnInit", snapshot(r, &r.onInit), func(p OnInit) error {
		return p.OnInit(ctx, engine)
	})
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	dispatch(ctx, r, "OnShutdown", snapshot(r, &r.onShutdown), func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

// EmitProtocolInitialized notifies plugins of the new protocol config.
func (r *Registry) EmitProtocolInitialized(ctx context.Context, cfg *protocol.Config) {
	dispatch(ctx, r, "OnProtocolInitialized", snapshot(r, &r.onProtocolInitialized), func(p OnProtocolInitialized) error {
		return p.OnProtocolInitialized(ctx, cfg)
	})
}

// EmitStreamCreated notifies plugins of a new stream.
func (r *Registry) EmitStreamCreated(ctx context.Context, s *stream.Stream) {
	dispatch(ctx, r, "OnStreamCreated", snapshot(r, &r.onStreamCreated), func(p OnStreamCreated) error {
		return p.OnStreamCreated(ctx, s)
	})
}

// EmitStreamDeposited notifies plugins of a deposit.
func (r *Registry) EmitStreamDeposited(ctx context.Context, s *stream.Stream, amount int64) {
	dispatch(ctx, r, "OnStreamDeposited", snapshot(r, &r.onStreamDeposited), func(p OnStreamDeposited) error {
		return p.OnStreamDeposited(ctx, s, amount)
	})
}

// EmitStreamWithdrawn notifies plugins of a payout.
func (r *Registry) EmitStreamWithdrawn(ctx context.Context, s *stream.Stream, w Withdrawal) {
	dispatch(ctx, r, "OnStreamWithdrawn", snapshot(r, &r.onStreamWithdrawn), func(p OnStreamWithdrawn) error {
		return p.OnStreamWithdrawn(ctx, s, w)
	})
}

// EmitStreamPaused notifies plugins of a pause.
func (r *Registry) EmitStreamPaused(ctx context.Context, s *stream.Stream) {
	dispatch(ctx, r, "OnStreamPaused", snapshot(r, &r.onStreamPaused), func(p OnStreamPaused) error {
		return p.OnStreamPaused(ctx, s)
	})
}

// EmitStreamResumed notifies plugins of a resume.
func (r *Registry) EmitStreamResumed(ctx context.Context, s *stream.Stream) {
	dispatch(ctx, r, "OnStreamResumed", snapshot(r, &r.onStreamResumed), func(p OnStreamResumed) error {
		return p.OnStreamResumed(ctx, s)
	})
}

// EmitStreamCanceled notifies plugins of a cancellation.
func (r *Registry) EmitStreamCanceled(ctx context.Context, s *stream.Stream, refund int64) {
	dispatch(ctx, r, "OnStreamCanceled", snapshot(r, &r.onStreamCanceled), func(p OnStreamCanceled) error {
		return p.OnStreamCanceled(ctx, s, refund)
	})
}

// EmitDelegationGranted notifies plugins of a new delegate.
func (r *Registry) EmitDelegationGranted(ctx context.Context, ev *delegation.Granted) {
	dispatch(ctx, r, "OnDelegationGranted", snapshot(r, &r.onDelegationGranted), func(p OnDelegationGranted) error {
		return p.OnDelegationGranted(ctx, ev)
	})
}

// EmitDelegationRevoked notifies plugins of a cleared delegate.
func (r *Registry) EmitDelegationRevoked(ctx context.Context, ev *delegation.Revoked) {
	dispatch(ctx, r, "OnDelegationRevoked", snapshot(r, &r.onDelegationRevoked), func(p OnDelegationRevoked) error {
		return p.OnDelegationRevoked(ctx, ev)
	})
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the settlement pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.timeout):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
