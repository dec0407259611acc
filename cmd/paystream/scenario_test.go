package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/paystream/event"
	"github.com/xraph/paystream/stream"
	"github.com/xraph/paystream/types"
)

const payroll = `
admin = "admin"
fee_collector = "treasury"
fee_rate_bps = 100
token = "USDC"

[[mint]]
account = "alice"
amount = 10000

[[step]]
at = 0
op = "create"
caller = "alice"
recipient = "bob"
total = 1000
initial = 1000
start = 0
end = 100

[[step]]
at = 10
op = "withdraw"
caller = "alice"
stream = 1
amount = 10
expect = "unauthorized"

[[step]]
at = 50
op = "set_delegate"
caller = "bob"
stream = 1
delegate = "carol"

[[step]]
at = 50
op = "withdraw"
caller = "carol"
stream = 1
amount = 500

[[step]]
at = 60
op = "cancel"
caller = "alice"
stream = 1

[[step]]
at = 70
op = "deposit"
caller = "alice"
stream = 1
amount = 1
expect = "invalid_state"
`

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(payroll))
	require.NoError(t, err)
	assert.Equal(t, uint32(100), sc.FeeRateBps)
	assert.Len(t, sc.Mints, 1)
	require.Len(t, sc.Steps, 6)
	assert.Equal(t, "carol", sc.Steps[2].Delegate)

	defaults, err := ParseScenario([]byte(`[[step]]
op = "pause"
stream = 1
`))
	require.NoError(t, err)
	assert.Equal(t, "admin", defaults.Admin)
	assert.Equal(t, "admin", defaults.FeeCollector)
}

func TestParseScenarioRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"bad toml", `admin = `, "parse scenario"},
		{"unknown op", "[[step]]\nop = \"teleport\"\n", "unknown op"},
		{"unknown expectation", "[[step]]\nop = \"pause\"\nexpect = \"boom\"\n", "unknown expectation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.doc))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestRun(t *testing.T) {
	sc, err := ParseScenario([]byte(payroll))
	require.NoError(t, err)

	report, err := Run(context.Background(), sc, quiet())
	require.NoError(t, err)
	assert.Zero(t, report.Failed())

	require.Len(t, report.Streams, 1)
	s := report.Streams[0]
	assert.Equal(t, stream.StatusCanceled, s.Status)
	assert.Equal(t, int64(500), s.WithdrawnAmount)

	assert.Equal(t, int64(495), report.Balances["bob"])
	assert.Equal(t, int64(5), report.Balances["treasury"])
	assert.Equal(t, int64(9500), report.Balances["alice"])
	assert.Zero(t, report.Balances[types.Address("paystream-escrow")])

	require.Len(t, report.Events, 1)
	assert.Equal(t, event.TopicDelegationGranted, report.Events[0].Topic)
}

func TestRunReportsMismatches(t *testing.T) {
	sc, err := ParseScenario([]byte(`
[[mint]]
account = "alice"
amount = 100

[[step]]
op = "create"
caller = "alice"
recipient = "bob"
total = 100
initial = 100
end = 10

[[step]]
at = 5
op = "withdraw"
caller = "bob"
stream = 1
amount = 90
`))
	require.NoError(t, err)

	report, err := Run(context.Background(), sc, quiet())
	assert.ErrorIs(t, err, ErrScenarioFailed)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.Failed())
	assert.False(t, report.Steps[1].OK)
	assert.True(t, report.Steps[0].OK)
	assert.Equal(t, "stream#1", report.Steps[0].Detail)
}

func TestRootCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payroll.toml")
	require.NoError(t, os.WriteFile(path, []byte(payroll), 0o600))

	t.Run("run", func(t *testing.T) {
		var out bytes.Buffer
		cmd := newRootCommand()
		cmd.SetOut(&out)
		cmd.SetErr(io.Discard)
		cmd.SetArgs([]string{"run", path, "--escrow", "vault", "--fee-rate-bps", "0"})

		require.NoError(t, cmd.Execute())
		assert.Contains(t, out.String(), "Canceled")
		assert.Contains(t, out.String(), "stream#1")
		assert.Contains(t, out.String(), "vault")
		assert.NotContains(t, out.String(), "treasury  5")
	})

	t.Run("validate", func(t *testing.T) {
		var out bytes.Buffer
		cmd := newRootCommand()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"validate", path})

		require.NoError(t, cmd.Execute())
		assert.Equal(t, "ok: 1 mints, 6 steps\n", out.String())
	})

	t.Run("bad log level", func(t *testing.T) {
		cmd := newRootCommand()
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)
		cmd.SetArgs([]string{"run", path, "--log-level", "chatty"})
		assert.Error(t, cmd.Execute())
	})
}
