package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/xraph/paystream"
	"github.com/xraph/paystream/auth"
	"github.com/xraph/paystream/clock"
	"github.com/xraph/paystream/event"
	"github.com/xraph/paystream/id"
	"github.com/xraph/paystream/store/memory"
	"github.com/xraph/paystream/stream"
	"github.com/xraph/paystream/token"
	"github.com/xraph/paystream/types"
)

// ErrScenarioFailed is returned when a step's outcome differs from its
// expectation.
var ErrScenarioFailed = errors.New("scenario failed")

// Scenario is a TOML script replayed against an in-memory engine.
type Scenario struct {
	Admin        string `toml:"admin"`
	FeeCollector string `toml:"fee_collector"`
	FeeRateBps   uint32 `toml:"fee_rate_bps"`
	Token        string `toml:"token"`
	Escrow       string `toml:"escrow"`

	Mints []Mint `toml:"mint"`
	Steps []Step `toml:"step"`
}

// Mint credits an account before the first step.
type Mint struct {
	Account string `toml:"account"`
	Amount  int64  `toml:"amount"`
}

// Step is one engine invocation at ledger time At.
type Step struct {
	At     int64  `toml:"at"`
	Op     string `toml:"op"`
	Caller string `toml:"caller"`
	Stream uint64 `toml:"stream"`

	// create
	Recipient string `toml:"recipient"`
	Total     int64  `toml:"total"`
	Initial   int64  `toml:"initial"`
	Start     int64  `toml:"start"`
	End       int64  `toml:"end"`

	// deposit, withdraw
	Amount int64 `toml:"amount"`

	// set_delegate
	Delegate string `toml:"delegate"`

	// Expect names the error the step must fail with; empty means success.
	Expect string `toml:"expect"`
}

var ops = map[string]bool{
	"create": true, "deposit": true, "withdraw": true, "withdraw_max": true,
	"pause": true, "resume": true, "cancel": true,
	"set_delegate": true, "revoke_delegate": true,
}

// expectations maps the names usable in Step.Expect to sentinels.
var expectations = map[string]error{
	"unauthorized":       paystream.ErrUnauthorized,
	"invalid_amount":     paystream.ErrInvalidAmount,
	"exceeds_total":      paystream.ErrExceedsTotal,
	"invalid_time_range": paystream.ErrInvalidTimeRange,
	"invalid_address":    paystream.ErrInvalidAddress,
	"invalid_state":      paystream.ErrInvalidState,
	"invalid_delegate":   paystream.ErrInvalidDelegate,
	"not_found":          paystream.ErrNotFound,
	"transfer_failed":    paystream.ErrTransferFailed,
}

// LoadScenario reads and parses a TOML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(b)
}

// ParseScenario decodes a TOML scenario and checks its steps.
func ParseScenario(b []byte) (*Scenario, error) {
	sc := &Scenario{}
	if err := toml.Unmarshal(b, sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if sc.Admin == "" {
		sc.Admin = "admin"
	}
	if sc.FeeCollector == "" {
		sc.FeeCollector = sc.Admin
	}
	if sc.Token == "" {
		sc.Token = "TOKEN"
	}
	for i, st := range sc.Steps {
		if !ops[st.Op] {
			return nil, fmt.Errorf("step %d: unknown op %q", i+1, st.Op)
		}
		if st.Expect != "" {
			if _, ok := expectations[st.Expect]; !ok {
				return nil, fmt.Errorf("step %d: unknown expectation %q", i+1, st.Expect)
			}
		}
	}
	return sc, nil
}

// StepResult is the outcome of one step.
type StepResult struct {
	Index  int
	Step   Step
	Detail string
	Err    error
	OK     bool
}

// Report is the outcome of a scenario run.
type Report struct {
	Steps    []StepResult
	Streams  []*stream.Stream
	Balances map[types.Address]int64
	Events   []*event.Event
	Now      int64
}

// Failed counts steps whose outcome did not match their expectation.
func (r *Report) Failed() int {
	n := 0
	for _, s := range r.Steps {
		if !s.OK {
			n++
		}
	}
	return n
}

// Run replays sc against a fresh in-memory engine. It returns
// ErrScenarioFailed alongside the report when any step misbehaves.
func Run(ctx context.Context, sc *Scenario, logger *slog.Logger) (*Report, error) {
	tokens := token.NewLedger()
	asset := types.Address(sc.Token)
	accounts := map[types.Address]bool{types.Address(sc.FeeCollector): true}
	for _, m := range sc.Mints {
		if err := tokens.Mint(asset, types.Address(m.Account), m.Amount); err != nil {
			return nil, fmt.Errorf("mint %s: %w", m.Account, err)
		}
		accounts[types.Address(m.Account)] = true
	}

	clk := clock.NewManual(0)
	events := event.NewLog()
	opts := []paystream.Option{
		paystream.WithLogger(logger),
		paystream.WithToken(tokens),
		paystream.WithClock(clk),
		paystream.WithEmitter(events),
	}
	if sc.Escrow != "" {
		opts = append(opts, paystream.WithEscrow(types.Address(sc.Escrow)))
	}

	engine := paystream.New(memory.New(), opts...)
	if err := engine.Start(ctx); err != nil {
		return nil, err
	}
	defer engine.Stop()

	admin := types.Address(sc.Admin)
	if _, err := engine.Initialize(auth.WithCaller(ctx, admin), admin, types.Address(sc.FeeCollector), sc.FeeRateBps); err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	accounts[engine.Escrow()] = true

	report := &Report{}
	for i, st := range sc.Steps {
		clk.Set(st.At)
		for _, a := range []string{st.Caller, st.Recipient, st.Delegate} {
			if a != "" {
				accounts[types.Address(a)] = true
			}
		}

		detail, err := apply(auth.WithCaller(ctx, types.Address(st.Caller)), engine, asset, st)
		res := StepResult{Index: i + 1, Step: st, Detail: detail, Err: err}
		if st.Expect == "" {
			res.OK = err == nil
		} else {
			res.OK = errors.Is(err, expectations[st.Expect])
		}
		if !res.OK {
			logger.Warn("step did not match expectation",
				"step", res.Index,
				"op", st.Op,
				"expect", st.Expect,
				"error", err,
			)
		}
		report.Steps = append(report.Steps, res)
	}

	streams, err := engine.ListStreams(ctx, stream.ListOpts{})
	if err != nil {
		return nil, err
	}
	report.Streams = streams
	report.Events = events.All()
	report.Now = clk.Now()
	report.Balances = make(map[types.Address]int64, len(accounts))
	for a := range accounts {
		report.Balances[a] = tokens.Balance(asset, a)
	}

	if n := report.Failed(); n > 0 {
		return report, fmt.Errorf("%w: %d of %d steps", ErrScenarioFailed, n, len(report.Steps))
	}
	return report, nil
}

func apply(ctx context.Context, e *paystream.Engine, asset types.Address, st Step) (string, error) {
	switch st.Op {
	case "create":
		sid, err := e.CreateStream(ctx, stream.CreateParams{
			Sender:        types.Address(st.Caller),
			Recipient:     types.Address(st.Recipient),
			Token:         asset,
			TotalAmount:   st.Total,
			InitialAmount: st.Initial,
			StartTime:     st.Start,
			EndTime:       st.End,
		})
		if err != nil {
			return "", err
		}
		return id.FormatStream(sid), nil
	case "deposit":
		return fmt.Sprintf("+%d", st.Amount), e.Deposit(ctx, st.Stream, st.Amount)
	case "withdraw":
		return fmt.Sprintf("-%d", st.Amount), e.Withdraw(ctx, st.Stream, st.Amount)
	case "withdraw_max":
		got, err := e.WithdrawMax(ctx, st.Stream)
		return fmt.Sprintf("-%d", got), err
	case "pause":
		return "", e.PauseStream(ctx, st.Stream)
	case "resume":
		return "", e.ResumeStream(ctx, st.Stream)
	case "cancel":
		return "", e.CancelStream(ctx, st.Stream)
	case "set_delegate":
		return st.Delegate, e.SetDelegate(ctx, st.Stream, types.Address(st.Delegate))
	case "revoke_delegate":
		return "", e.RevokeDelegate(ctx, st.Stream)
	}
	return "", fmt.Errorf("unknown op %q", strings.TrimSpace(st.Op))
}
