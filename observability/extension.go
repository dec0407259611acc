// Package observability provides a metrics extension for paystream that
// records lifecycle event counts via a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/paystream/delegation"
	"github.com/xraph/paystream/plugin"
	"github.com/xraph/paystream/stream"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin              = (*MetricsExtension)(nil)
	_ plugin.OnInit              = (*MetricsExtension)(nil)
	_ plugin.OnStreamCreated     = (*MetricsExtension)(nil)
	_ plugin.OnStreamDeposited   = (*MetricsExtension)(nil)
	_ plugin.OnStreamWithdrawn   = (*MetricsExtension)(nil)
	_ plugin.OnStreamPaused      = (*MetricsExtension)(nil)
	_ plugin.OnStreamResumed     = (*MetricsExtension)(nil)
	_ plugin.OnStreamCanceled    = (*MetricsExtension)(nil)
	_ plugin.OnDelegationGranted = (*MetricsExtension)(nil)
	_ plugin.OnDelegationRevoked = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide stream metrics.
// Register it as a paystream plugin to track activity automatically.
type MetricsExtension struct {
	factory MetricFactory

	// Stream lifecycle
	StreamsCreated  Counter
	StreamsPaused   Counter
	StreamsResumed  Counter
	StreamsCanceled Counter
	StreamTotal     Histogram

	// Money movement, in token base units
	Deposits         Counter
	DepositedAmount  Counter
	Withdrawals      Counter
	WithdrawnAmount  Counter
	DelegateWithdraw Counter
	FeesCollected    Counter
	WithdrawalSize   Histogram
	RefundedAmount   Counter

	// Delegation
	DelegationsGranted Counter
	DelegationsRevoked Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		StreamsCreated:  factory.Counter("paystream.stream.created"),
		StreamsPaused:   factory.Counter("paystream.stream.paused"),
		StreamsResumed:  factory.Counter("paystream.stream.resumed"),
		StreamsCanceled: factory.Counter("paystream.stream.canceled"),
		StreamTotal:     factory.Histogram("paystream.stream.total_amount"),

		Deposits:         factory.Counter("paystream.deposit.count"),
		DepositedAmount:  factory.Counter("paystream.deposit.amount"),
		Withdrawals:      factory.Counter("paystream.withdrawal.count"),
		WithdrawnAmount:  factory.Counter("paystream.withdrawal.amount"),
		DelegateWithdraw: factory.Counter("paystream.withdrawal.by_delegate"),
		FeesCollected:    factory.Counter("paystream.fee.amount"),
		WithdrawalSize:   factory.Histogram("paystream.withdrawal.size"),
		RefundedAmount:   factory.Counter("paystream.refund.amount"),

		DelegationsGranted: factory.Counter("paystream.delegation.granted"),
		DelegationsRevoked: factory.Counter("paystream.delegation.revoked"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// ──────────────────────────────────────────────────
// Stream lifecycle hooks
// ──────────────────────────────────────────────────

// OnStreamCreated implements plugin.OnStreamCreated.
func (m *MetricsExtension) OnStreamCreated(_ context.Context, s *stream.Stream) error {
	m.StreamsCreated.Inc()
	m.StreamTotal.Observe(float64(s.TotalAmount))
	if s.Balance > 0 {
		m.DepositedAmount.Add(float64(s.Balance))
	}
	return nil
}

// OnStreamDeposited implements plugin.OnStreamDeposited.
func (m *MetricsExtension) OnStreamDeposited(_ context.Context, _ *stream.Stream, amount int64) error {
	m.Deposits.Inc()
	m.DepositedAmount.Add(float64(amount))
	return nil
}

// OnStreamWithdrawn implements plugin.OnStreamWithdrawn.
func (m *MetricsExtension) OnStreamWithdrawn(_ context.Context, s *stream.Stream, w plugin.Withdrawal) error {
	m.Withdrawals.Inc()
	m.WithdrawnAmount.Add(float64(w.Gross))
	m.WithdrawalSize.Observe(float64(w.Gross))
	if w.Fee > 0 {
		m.FeesCollected.Add(float64(w.Fee))
	}
	if delegation.RoleOf(s, w.By) == delegation.RoleDelegate {
		m.DelegateWithdraw.Inc()
	}
	return nil
}

// OnStreamPaused implements plugin.OnStreamPaused.
func (m *MetricsExtension) OnStreamPaused(_ context.Context, _ *stream.Stream) error {
	m.StreamsPaused.Inc()
	return nil
}

// OnStreamResumed implements plugin.OnStreamResumed.
func (m *MetricsExtension) OnStreamResumed(_ context.Context, _ *stream.Stream) error {
	m.StreamsResumed.Inc()
	return nil
}

// OnStreamCanceled implements plugin.OnStreamCanceled.
func (m *MetricsExtension) OnStreamCanceled(_ context.Context, _ *stream.Stream, refund int64) error {
	m.StreamsCanceled.Inc()
	if refund > 0 {
		m.RefundedAmount.Add(float64(refund))
	}
	return nil
}

// ──────────────────────────────────────────────────
// Delegation hooks
// ──────────────────────────────────────────────────

// OnDelegationGranted implements plugin.OnDelegationGranted.
func (m *MetricsExtension) OnDelegationGranted(_ context.Context, _ *delegation.Granted) error {
	m.DelegationsGranted.Inc()
	return nil
}

// OnDelegationRevoked implements plugin.OnDelegationRevoked.
func (m *MetricsExtension) OnDelegationRevoked(_ context.Context, _ *delegation.Revoked) error {
	m.DelegationsRevoked.Inc()
	return nil
}
