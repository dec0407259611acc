// Package audithook bridges paystream lifecycle events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit store. Callers inject a RecorderFunc adapter at
// wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xraph/paystream/delegation"
	"github.com/xraph/paystream/id"
	"github.com/xraph/paystream/plugin"
	"github.com/xraph/paystream/protocol"
	"github.com/xraph/paystream/stream"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Extension)(nil)
	_ plugin.OnProtocolInitialized = (*Extension)(nil)
	_ plugin.OnStreamCreated       = (*Extension)(nil)
	_ plugin.OnStreamDeposited     = (*Extension)(nil)
	_ plugin.OnStreamWithdrawn     = (*Extension)(nil)
	_ plugin.OnStreamPaused        = (*Extension)(nil)
	_ plugin.OnStreamResumed       = (*Extension)(nil)
	_ plugin.OnStreamCanceled      = (*Extension)(nil)
	_ plugin.OnDelegationGranted   = (*Extension)(nil)
	_ plugin.OnDelegationRevoked   = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	ID         id.ID          `json:"id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges paystream lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// OnProtocolInitialized implements plugin.OnProtocolInitialized.
func (e *Extension) OnProtocolInitialized(ctx context.Context, cfg *protocol.Config) error {
	return e.record(ctx, ActionProtocolInitialized, SeverityWarning, OutcomeSuccess,
		ResourceProtocol, "", CategoryAdmin, nil,
		"admin", cfg.Admin,
		"fee_collector", cfg.FeeCollector,
		"fee_rate_bps", cfg.FeeRateBps,
	)
}

// ──────────────────────────────────────────────────
// Stream lifecycle hooks
// ──────────────────────────────────────────────────

// OnStreamCreated implements plugin.OnStreamCreated.
func (e *Extension) OnStreamCreated(ctx context.Context, s *stream.Stream) error {
	return e.record(ctx, ActionStreamCreated, SeverityInfo, OutcomeSuccess,
		ResourceStream, streamID(s), CategoryLifecycle, nil,
		"sender", s.Sender,
		"recipient", s.Recipient,
		"token", s.Token,
		"total_amount", s.TotalAmount,
		"balance", s.Balance,
		"start_time", s.StartTime,
		"end_time", s.EndTime,
	)
}

// OnStreamDeposited implements plugin.OnStreamDeposited.
func (e *Extension) OnStreamDeposited(ctx context.Context, s *stream.Stream, amount int64) error {
	return e.record(ctx, ActionStreamDeposited, SeverityInfo, OutcomeSuccess,
		ResourceStream, streamID(s), CategoryPayment, nil,
		"amount", amount,
		"balance", s.Balance,
	)
}

// OnStreamWithdrawn implements plugin.OnStreamWithdrawn.
func (e *Extension) OnStreamWithdrawn(ctx context.Context, s *stream.Stream, w plugin.Withdrawal) error {
	return e.record(ctx, ActionStreamWithdrawn, SeverityInfo, OutcomeSuccess,
		ResourceStream, streamID(s), CategoryPayment, nil,
		"by", w.By,
		"role", string(delegation.RoleOf(s, w.By)),
		"gross", w.Gross,
		"net", w.Net,
		"fee", w.Fee,
		"withdrawn_amount", s.WithdrawnAmount,
	)
}

// OnStreamPaused implements plugin.OnStreamPaused.
func (e *Extension) OnStreamPaused(ctx context.Context, s *stream.Stream) error {
	return e.record(ctx, ActionStreamPaused, SeverityInfo, OutcomeSuccess,
		ResourceStream, streamID(s), CategoryLifecycle, nil,
		"active_elapsed", s.ActiveElapsed,
	)
}

// OnStreamResumed implements plugin.OnStreamResumed.
func (e *Extension) OnStreamResumed(ctx context.Context, s *stream.Stream) error {
	return e.record(ctx, ActionStreamResumed, SeverityInfo, OutcomeSuccess,
		ResourceStream, streamID(s), CategoryLifecycle, nil,
		"last_resume_time", s.LastResumeTime,
	)
}

// OnStreamCanceled implements plugin.OnStreamCanceled.
func (e *Extension) OnStreamCanceled(ctx context.Context, s *stream.Stream, refund int64) error {
	return e.record(ctx, ActionStreamCanceled, SeverityWarning, OutcomeSuccess,
		ResourceStream, streamID(s), CategoryLifecycle, nil,
		"refund", refund,
		"withdrawn_amount", s.WithdrawnAmount,
	)
}

// ──────────────────────────────────────────────────
// Delegation hooks
// ──────────────────────────────────────────────────

// OnDelegationGranted implements plugin.OnDelegationGranted.
func (e *Extension) OnDelegationGranted(ctx context.Context, ev *delegation.Granted) error {
	return e.record(ctx, ActionDelegationGranted, SeverityInfo, OutcomeSuccess,
		ResourceDelegation, strconv.FormatUint(ev.StreamID, 10), CategoryAccess, nil,
		"recipient", ev.Recipient,
		"delegate", ev.Delegate,
	)
}

// OnDelegationRevoked implements plugin.OnDelegationRevoked.
func (e *Extension) OnDelegationRevoked(ctx context.Context, ev *delegation.Revoked) error {
	return e.record(ctx, ActionDelegationRevoked, SeverityInfo, OutcomeSuccess,
		ResourceDelegation, strconv.FormatUint(ev.StreamID, 10), CategoryAccess, nil,
		"recipient", ev.Recipient,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func streamID(s *stream.Stream) string {
	return strconv.FormatUint(s.ID, 10)
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		ID:         id.NewAuditID(),
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
