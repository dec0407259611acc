package paystream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/xraph/paystream/auth"
	"github.com/xraph/paystream/clock"
	"github.com/xraph/paystream/delegation"
	"github.com/xraph/paystream/event"
	"github.com/xraph/paystream/plugin"
	"github.com/xraph/paystream/protocol"
	"github.com/xraph/paystream/settlement"
	"github.com/xraph/paystream/store"
	"github.com/xraph/paystream/stream"
	"github.com/xraph/paystream/token"
	"github.com/xraph/paystream/types"
)

// Engine is the payment stream accounting engine.
//
// Invocations are serialized: at most one operation runs at a time, and each
// one either applies all of its effects (transfers, records, events) or none.
type Engine struct {
	mu sync.Mutex

	store   store.Store
	auth    auth.Provider
	token   token.Transferer
	clock   clock.Clock
	events  event.Emitter
	escrow  types.Address
	plugins *plugin.Registry
	logger  *slog.Logger
}

// New creates a new Engine instance.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:   s,
		auth:    auth.NewCaller(),
		token:   token.NewLedger(),
		clock:   clock.System{},
		events:  event.Nop{},
		escrow:  DefaultEscrow,
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Escrow returns the account holding funded stream balances.
func (e *Engine) Escrow() types.Address { return e.escrow }

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Store returns the underlying store.
func (e *Engine) Store() store.Store { return e.store }

// Start migrates the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("paystream started",
		"escrow", e.escrow,
		"plugins", e.plugins.Count(),
	)
	return nil
}

// Stop shuts down plugins and closes the store.
func (e *Engine) Stop() error {
	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// ──────────────────────────────────────────────────
// Protocol
// ──────────────────────────────────────────────────

// Initialize writes the protocol config. It can succeed only once and must
// be authorized by admin.
func (e *Engine) Initialize(ctx context.Context, admin, feeCollector types.Address, feeRateBps uint32) (*protocol.Config, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.store.GetConfig(ctx); err == nil {
		return nil, ErrAlreadyInitialized
	} else if !errors.Is(err, ErrNotInitialized) {
		return nil, err
	}
	if err := e.require(ctx, admin); err != nil {
		return nil, err
	}

	cfg, err := protocol.New(admin, feeCollector, feeRateBps)
	if err != nil {
		return nil, err
	}
	if feeCollector == e.escrow {
		return nil, fmt.Errorf("%w: fee collector %s is the escrow account", ErrInvalidAddress, feeCollector)
	}
	if err := e.store.CreateConfig(ctx, cfg); err != nil {
		return nil, err
	}

	e.logger.Info("protocol initialized",
		"admin", admin,
		"fee_collector", feeCollector,
		"fee_rate_bps", feeRateBps,
	)
	e.plugins.EmitProtocolInitialized(ctx, cfg)
	return cfg, nil
}

// GetConfig returns the protocol config.
func (e *Engine) GetConfig(ctx context.Context) (*protocol.Config, error) {
	return e.store.GetConfig(ctx)
}

// ──────────────────────────────────────────────────
// Stream registry
// ──────────────────────────────────────────────────

// CreateStream opens a new stream funded with p.InitialAmount and returns
// its id. The sender must authorize the call.
func (e *Engine) CreateStream(ctx context.Context, p stream.CreateParams) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cfg, err := e.store.GetConfig(ctx)
	if err != nil {
		return 0, err
	}
	if err := e.require(ctx, p.Sender); err != nil {
		return 0, err
	}

	if p.Sender == e.escrow || p.Recipient == e.escrow {
		return 0, fmt.Errorf("%w: escrow account %s cannot be a stream party", ErrInvalidAddress, e.escrow)
	}

	next := *cfg
	streamID := next.AllocateStreamID()
	res, err := settlement.Open(streamID, p, e.terms(cfg))
	if err != nil {
		return 0, err
	}

	j := e.newJournal("create_stream")
	if err := j.transferAll(ctx, res.Transfers); err != nil {
		return 0, j.abort(ctx, err)
	}
	if err := j.createStream(ctx, res.Stream); err != nil {
		return 0, j.abort(ctx, err)
	}
	if err := j.updateConfig(ctx, cfg, &next); err != nil {
		return 0, j.abort(ctx, err)
	}

	e.logger.Info("stream created",
		"stream_id", streamID,
		"sender", p.Sender,
		"recipient", p.Recipient,
		"total", p.TotalAmount,
		"initial", p.InitialAmount,
	)
	e.plugins.EmitStreamCreated(ctx, res.Stream)
	return streamID, nil
}

// GetStream returns a stream by id.
func (e *Engine) GetStream(ctx context.Context, streamID uint64) (*stream.Stream, error) {
	return e.store.GetStream(ctx, streamID)
}

// ListStreams lists streams matching opts.
func (e *Engine) ListStreams(ctx context.Context, opts stream.ListOpts) ([]*stream.Stream, error) {
	return e.store.ListStreams(ctx, opts)
}

// WithdrawableAmount returns what could be withdrawn from the stream now.
// A canceled stream has been settled and reports zero.
func (e *Engine) WithdrawableAmount(ctx context.Context, streamID uint64) (int64, error) {
	s, err := e.store.GetStream(ctx, streamID)
	if err != nil {
		return 0, err
	}
	if !stream.CanMutate(s.Status) {
		return 0, nil
	}
	return stream.WithdrawableAmount(s, e.clock.Now()), nil
}

// VestedAmount returns how much of the stream total has vested now.
func (e *Engine) VestedAmount(ctx context.Context, streamID uint64) (int64, error) {
	s, err := e.store.GetStream(ctx, streamID)
	if err != nil {
		return 0, err
	}
	return stream.VestedAmount(s, e.clock.Now()), nil
}

// ──────────────────────────────────────────────────
// Settlement
// ──────────────────────────────────────────────────

// Deposit tops up a stream. Only the sender may deposit.
func (e *Engine) Deposit(ctx context.Context, streamID uint64, amount int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.store.GetStream(ctx, streamID)
	if err != nil {
		return err
	}
	if err := e.require(ctx, s.Sender); err != nil {
		return err
	}

	res, err := settlement.Deposit(s, amount, settlement.Terms{Escrow: e.escrow})
	if err != nil {
		return err
	}
	if err := e.apply(ctx, "deposit", s, res); err != nil {
		return err
	}

	e.logger.Debug("stream deposited",
		"stream_id", streamID,
		"amount", amount,
		"balance", res.Stream.Balance,
	)
	e.plugins.EmitStreamDeposited(ctx, res.Stream, amount)
	return nil
}

// Withdraw pays amount of vested, funded tokens to the recipient. The
// recipient or the current delegate may withdraw.
func (e *Engine) Withdraw(ctx context.Context, streamID uint64, amount int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, err := e.withdraw(ctx, streamID, func(s *stream.Stream, now int64, t settlement.Terms) (settlement.Result, error) {
		return settlement.Withdraw(s, amount, now, t)
	})
	return err
}

// WithdrawMax withdraws everything currently withdrawable and returns the
// gross amount.
func (e *Engine) WithdrawMax(ctx context.Context, streamID uint64) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.withdraw(ctx, streamID, settlement.WithdrawMax)
}

func (e *Engine) withdraw(
	ctx context.Context,
	streamID uint64,
	settle func(s *stream.Stream, now int64, t settlement.Terms) (settlement.Result, error),
) (int64, error) {
	s, err := e.store.GetStream(ctx, streamID)
	if err != nil {
		return 0, err
	}
	by, err := auth.RequireAny(ctx, e.auth, delegation.WithdrawRoles(s)...)
	if err != nil {
		return 0, e.unauthorized(err)
	}
	cfg, err := e.store.GetConfig(ctx)
	if err != nil {
		return 0, err
	}

	res, err := settle(s, e.clock.Now(), e.terms(cfg))
	if err != nil {
		return 0, err
	}
	if err := e.apply(ctx, "withdraw", s, res); err != nil {
		return 0, err
	}

	e.logger.Debug("stream withdrawn",
		"stream_id", streamID,
		"by", by,
		"role", delegation.RoleOf(s, by),
		"gross", res.Gross,
		"fee", res.Fee,
	)
	e.plugins.EmitStreamWithdrawn(ctx, res.Stream, plugin.Withdrawal{
		By:    by,
		Gross: res.Gross,
		Net:   res.Net,
		Fee:   res.Fee,
	})
	return res.Gross, nil
}

// CancelStream terminates a stream and refunds the unwithdrawn balance to
// the sender. Only the sender may cancel.
func (e *Engine) CancelStream(ctx context.Context, streamID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.store.GetStream(ctx, streamID)
	if err != nil {
		return err
	}
	if err := e.require(ctx, s.Sender); err != nil {
		return err
	}

	res, err := settlement.Cancel(s, e.clock.Now(), settlement.Terms{Escrow: e.escrow})
	if err != nil {
		return err
	}
	if err := e.apply(ctx, "cancel", s, res); err != nil {
		return err
	}

	e.logger.Info("stream canceled",
		"stream_id", streamID,
		"refund", res.Gross,
		"withdrawn", s.WithdrawnAmount,
	)
	e.plugins.EmitStreamCanceled(ctx, res.Stream, res.Gross)
	return nil
}

// PauseStream freezes vesting. Only the sender may pause.
func (e *Engine) PauseStream(ctx context.Context, streamID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	res, err := e.transition(ctx, "pause", streamID, settlement.Pause)
	if err != nil {
		return err
	}
	e.plugins.EmitStreamPaused(ctx, res.Stream)
	return nil
}

// ResumeStream restarts vesting. Only the sender may resume.
func (e *Engine) ResumeStream(ctx context.Context, streamID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	res, err := e.transition(ctx, "resume", streamID, settlement.Resume)
	if err != nil {
		return err
	}
	e.plugins.EmitStreamResumed(ctx, res.Stream)
	return nil
}

func (e *Engine) transition(
	ctx context.Context,
	op string,
	streamID uint64,
	settle func(s *stream.Stream, now int64) (settlement.Result, error),
) (settlement.Result, error) {
	s, err := e.store.GetStream(ctx, streamID)
	if err != nil {
		return settlement.Result{}, err
	}
	if err := e.require(ctx, s.Sender); err != nil {
		return settlement.Result{}, err
	}

	now := e.clock.Now()
	res, err := settle(s, now)
	if err != nil {
		return settlement.Result{}, err
	}
	if err := e.apply(ctx, op, s, res); err != nil {
		return settlement.Result{}, err
	}

	e.logger.Debug("stream state changed",
		"stream_id", streamID,
		"op", op,
		"status", res.Stream.Status,
		"at", now,
		"active_elapsed", res.Stream.ActiveElapsed,
	)
	return res, nil
}

// ──────────────────────────────────────────────────
// Delegation
// ──────────────────────────────────────────────────

// SetDelegate names delegate as the withdrawal delegate, replacing any
// previous one. Only the recipient may set it.
func (e *Engine) SetDelegate(ctx context.Context, streamID uint64, delegate types.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.store.GetStream(ctx, streamID)
	if err != nil {
		return err
	}
	if err := e.require(ctx, s.Recipient); err != nil {
		return err
	}

	next, ev, err := delegation.Grant(s, delegate)
	if err != nil {
		return err
	}

	j := e.newJournal("set_delegate")
	if err := j.updateStream(ctx, s, next); err != nil {
		return j.abort(ctx, err)
	}
	if err := e.publish(ctx, event.TopicDelegationGranted, streamID, ev); err != nil {
		return j.abort(ctx, err)
	}

	e.logger.Info("delegation granted",
		"stream_id", streamID,
		"delegate", delegate,
	)
	e.plugins.EmitDelegationGranted(ctx, ev)
	return nil
}

// RevokeDelegate clears the delegate. Revoking when none is set succeeds.
// Only the recipient may revoke.
func (e *Engine) RevokeDelegate(ctx context.Context, streamID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.store.GetStream(ctx, streamID)
	if err != nil {
		return err
	}
	if err := e.require(ctx, s.Recipient); err != nil {
		return err
	}

	next, ev, err := delegation.Revoke(s)
	if err != nil {
		return err
	}

	j := e.newJournal("revoke_delegate")
	if err := j.updateStream(ctx, s, next); err != nil {
		return j.abort(ctx, err)
	}
	if err := e.publish(ctx, event.TopicDelegationRevoked, streamID, ev); err != nil {
		return j.abort(ctx, err)
	}

	e.logger.Info("delegation revoked", "stream_id", streamID)
	e.plugins.EmitDelegationRevoked(ctx, ev)
	return nil
}

// GetDelegate returns the current delegate, or nil when none is set.
func (e *Engine) GetDelegate(ctx context.Context, streamID uint64) (*types.Address, error) {
	s, err := e.store.GetStream(ctx, streamID)
	if err != nil {
		return nil, err
	}
	return s.Delegate, nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// apply executes the transfers of res and persists the new record.
func (e *Engine) apply(ctx context.Context, op string, prev *stream.Stream, res settlement.Result) error {
	j := e.newJournal(op)
	if err := j.transferAll(ctx, res.Transfers); err != nil {
		return j.abort(ctx, err)
	}
	if err := j.updateStream(ctx, prev, res.Stream); err != nil {
		return j.abort(ctx, err)
	}
	return nil
}

func (e *Engine) publish(ctx context.Context, topic event.Topic, streamID uint64, payload any) error {
	if err := e.events.Publish(ctx, topic, streamID, payload); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, err)
	}
	return nil
}

func (e *Engine) require(ctx context.Context, identity types.Address) error {
	if err := e.auth.Require(ctx, identity); err != nil {
		return e.unauthorized(err)
	}
	return nil
}

func (e *Engine) unauthorized(err error) error {
	if errors.Is(err, ErrUnauthorized) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnauthorized, err)
}

func (e *Engine) terms(cfg *protocol.Config) settlement.Terms {
	return settlement.Terms{
		Escrow:       e.escrow,
		FeeCollector: cfg.FeeCollector,
		FeeRateBps:   cfg.FeeRateBps,
	}
}
