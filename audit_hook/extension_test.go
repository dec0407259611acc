package audithook_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/paystream"
	audithook "github.com/xraph/paystream/audit_hook"
	"github.com/xraph/paystream/auth"
	"github.com/xraph/paystream/clock"
	"github.com/xraph/paystream/store/memory"
	"github.com/xraph/paystream/stream"
	"github.com/xraph/paystream/token"
)

type memRecorder struct {
	mu     sync.Mutex
	events []*audithook.AuditEvent
}

func (r *memRecorder) Record(_ context.Context, ev *audithook.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *memRecorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Action
	}
	return out
}

func run(t *testing.T, ext *audithook.Extension) {
	t.Helper()
	ctx := context.Background()
	tokens := token.NewLedger()
	require.NoError(t, tokens.Mint("USDC", "alice", 1000))
	clk := clock.NewManual(0)

	e := paystream.New(memory.New(),
		paystream.WithToken(tokens),
		paystream.WithClock(clk),
		paystream.WithPlugin(ext),
	)
	_, err := e.Initialize(auth.WithCaller(ctx, "admin"), "admin", "treasury", 0)
	require.NoError(t, err)

	alice, bob := auth.WithCaller(ctx, "alice"), auth.WithCaller(ctx, "bob")
	sid, err := e.CreateStream(alice, stream.CreateParams{
		Sender: "alice", Recipient: "bob", Token: "USDC",
		TotalAmount: 100, InitialAmount: 50, StartTime: 0, EndTime: 10,
	})
	require.NoError(t, err)
	require.NoError(t, e.Deposit(alice, sid, 50))
	require.NoError(t, e.SetDelegate(bob, sid, "carol"))
	require.NoError(t, e.RevokeDelegate(bob, sid))
	clk.Set(5)
	require.NoError(t, e.Withdraw(bob, sid, 20))
	require.NoError(t, e.PauseStream(alice, sid))
	require.NoError(t, e.ResumeStream(alice, sid))
	require.NoError(t, e.CancelStream(alice, sid))
}

func TestExtensionRecordsEveryAction(t *testing.T) {
	rec := &memRecorder{}
	run(t, audithook.New(rec))

	assert.Equal(t, []string{
		audithook.ActionProtocolInitialized,
		audithook.ActionStreamCreated,
		audithook.ActionStreamDeposited,
		audithook.ActionDelegationGranted,
		audithook.ActionDelegationRevoked,
		audithook.ActionStreamWithdrawn,
		audithook.ActionStreamPaused,
		audithook.ActionStreamResumed,
		audithook.ActionStreamCanceled,
	}, rec.actions())

	withdrawn := rec.events[5]
	assert.Equal(t, "aud", string(withdrawn.ID.Prefix()))
	assert.Equal(t, audithook.ResourceStream, withdrawn.Resource)
	assert.Equal(t, "1", withdrawn.ResourceID)
	assert.Equal(t, int64(20), withdrawn.Metadata["gross"])
	assert.Equal(t, "recipient", withdrawn.Metadata["role"])

	canceled := rec.events[8]
	assert.Equal(t, audithook.SeverityWarning, canceled.Severity)
	assert.Equal(t, int64(80), canceled.Metadata["refund"])
}

func TestExtensionFilters(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		rec := &memRecorder{}
		run(t, audithook.New(rec, audithook.WithEnabledActions(audithook.ActionStreamCanceled)))
		assert.Equal(t, []string{audithook.ActionStreamCanceled}, rec.actions())
	})

	t.Run("resources", func(t *testing.T) {
		rec := &memRecorder{}
		run(t, audithook.New(rec, audithook.WithResources(audithook.ResourceDelegation)))
		assert.Equal(t, []string{
			audithook.ActionDelegationGranted,
			audithook.ActionDelegationRevoked,
		}, rec.actions())
	})

	t.Run("disabled", func(t *testing.T) {
		rec := &memRecorder{}
		run(t, audithook.New(rec, audithook.WithDisabledActions(
			audithook.ActionProtocolInitialized,
			audithook.ActionStreamPaused,
			audithook.ActionStreamResumed,
		)))
		assert.Len(t, rec.actions(), 6)
		assert.NotContains(t, rec.actions(), audithook.ActionStreamPaused)
	})
}

func TestRecorderFailureDoesNotFailOperations(t *testing.T) {
	failing := audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("audit store down")
	})
	run(t, audithook.New(failing))
}
