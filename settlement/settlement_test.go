package settlement_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/xraph/paystream/settlement"
	"github.com/xraph/paystream/stream"
)

var terms = settlement.Terms{Escrow: "GESCROW", FeeCollector: "GFEES"}

func open(t *testing.T, total, initial, start, end int64) *stream.Stream {
	t.Helper()
	res, err := settlement.Open(1, stream.CreateParams{
		Sender: "GSENDER", Recipient: "GRECIPIENT", Token: "GTOKEN",
		TotalAmount: total, InitialAmount: initial, StartTime: start, EndTime: end,
	}, terms)
	require.NoError(t, err)
	return res.Stream
}

func TestOpen(t *testing.T) {
	res, err := settlement.Open(4, stream.CreateParams{
		Sender: "GSENDER", Recipient: "GRECIPIENT", Token: "GTOKEN",
		TotalAmount: 1000, InitialAmount: 400, StartTime: 0, EndTime: 100,
	}, terms)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), res.Stream.ID)
	require.Len(t, res.Transfers, 1)
	assert.Equal(t, settlement.Transfer{
		Kind: settlement.KindFunding, Token: "GTOKEN", From: "GSENDER", To: "GESCROW", Amount: 400,
	}, res.Transfers[0])
}

func TestOpenUnfunded(t *testing.T) {
	res, err := settlement.Open(1, stream.CreateParams{
		Sender: "GSENDER", Recipient: "GRECIPIENT", Token: "GTOKEN",
		TotalAmount: 1000, StartTime: 0, EndTime: 100,
	}, terms)
	require.NoError(t, err)
	assert.Empty(t, res.Transfers)
}

func TestOpenRejectsOverflowingWindow(t *testing.T) {
	_, err := settlement.Open(1, stream.CreateParams{
		Sender: "GSENDER", Recipient: "GRECIPIENT", Token: "GTOKEN",
		TotalAmount: 1000, InitialAmount: 1000,
		StartTime: math.MinInt64 + 10, EndTime: math.MaxInt64 - 10,
	}, terms)
	assert.ErrorIs(t, err, stream.ErrInvalidTimeRange)
}

func TestDeposit(t *testing.T) {
	s := open(t, 500, 200, 0, 100)

	res, err := settlement.Deposit(s, 300, terms)
	require.NoError(t, err)
	assert.Equal(t, int64(500), res.Stream.Balance)
	assert.Equal(t, int64(200), s.Balance)
	require.Len(t, res.Transfers, 1)
	assert.Equal(t, int64(300), res.Transfers[0].Amount)

	_, err = settlement.Deposit(s, 400, terms)
	assert.ErrorIs(t, err, stream.ErrExceedsTotal)

	_, err = settlement.Deposit(s, 0, terms)
	assert.ErrorIs(t, err, stream.ErrInvalidAmount)

	_, err = settlement.Deposit(s, -5, terms)
	assert.ErrorIs(t, err, stream.ErrInvalidAmount)
}

func TestWithdraw(t *testing.T) {
	s := open(t, 1000, 1000, 0, 100)

	res, err := settlement.Withdraw(s, 300, 50, terms)
	require.NoError(t, err)
	assert.Equal(t, int64(300), res.Stream.WithdrawnAmount)
	assert.Equal(t, int64(300), res.Net)
	assert.Zero(t, res.Fee)
	require.Len(t, res.Transfers, 1)
	assert.Equal(t, settlement.Transfer{
		Kind: settlement.KindPayout, Token: "GTOKEN", From: "GESCROW", To: "GRECIPIENT", Amount: 300,
	}, res.Transfers[0])

	_, err = settlement.Withdraw(res.Stream, 201, 50, terms)
	assert.ErrorIs(t, err, stream.ErrInvalidAmount)
}

func TestWithdrawWithFee(t *testing.T) {
	s := open(t, 1000, 1000, 0, 100)
	feeTerms := terms
	feeTerms.FeeRateBps = 250

	res, err := settlement.Withdraw(s, 400, 100, feeTerms)
	require.NoError(t, err)
	assert.Equal(t, int64(400), res.Stream.WithdrawnAmount)
	assert.Equal(t, int64(390), res.Net)
	assert.Equal(t, int64(10), res.Fee)
	require.Len(t, res.Transfers, 2)
	assert.Equal(t, "GFEES", string(res.Transfers[1].To))
}

func TestWithdrawBoundedByBalance(t *testing.T) {
	s := open(t, 1000, 100, 0, 100)

	_, err := settlement.Withdraw(s, 101, 100, terms)
	assert.ErrorIs(t, err, stream.ErrInvalidAmount)

	res, err := settlement.WithdrawMax(s, 100, terms)
	require.NoError(t, err)
	assert.Equal(t, int64(100), res.Gross)
}

func TestWithdrawMaxNothingVested(t *testing.T) {
	s := open(t, 1000, 1000, 100, 200)
	_, err := settlement.WithdrawMax(s, 50, terms)
	assert.ErrorIs(t, err, stream.ErrInvalidAmount)
}

func TestCancel(t *testing.T) {
	s := open(t, 1000, 1000, 0, 100)
	w, err := settlement.Withdraw(s, 500, 50, terms)
	require.NoError(t, err)

	res, err := settlement.Cancel(w.Stream, 50, terms)
	require.NoError(t, err)
	assert.Equal(t, stream.StatusCanceled, res.Stream.Status)
	assert.Equal(t, int64(50), res.Stream.ActiveElapsed)
	assert.Equal(t, int64(500), res.Gross)
	require.Len(t, res.Transfers, 1)
	assert.Equal(t, settlement.Transfer{
		Kind: settlement.KindRefund, Token: "GTOKEN", From: "GESCROW", To: "GSENDER", Amount: 500,
	}, res.Transfers[0])

	_, err = settlement.Cancel(res.Stream, 60, terms)
	assert.ErrorIs(t, err, stream.ErrInvalidState)
	_, err = settlement.Withdraw(res.Stream, 1, 60, terms)
	assert.ErrorIs(t, err, stream.ErrInvalidState)
	_, err = settlement.Deposit(res.Stream, 1, terms)
	assert.ErrorIs(t, err, stream.ErrInvalidState)
}

func TestPauseResume(t *testing.T) {
	s := open(t, 1000, 1000, 0, 100)

	p, err := settlement.Pause(s, 20)
	require.NoError(t, err)
	assert.Equal(t, stream.StatusPaused, p.Stream.Status)
	assert.Equal(t, int64(200), stream.VestedAmount(p.Stream, 70))

	_, err = settlement.Pause(p.Stream, 30)
	assert.ErrorIs(t, err, stream.ErrInvalidState)

	r, err := settlement.Resume(p.Stream, 70)
	require.NoError(t, err)
	assert.Equal(t, stream.StatusActive, r.Stream.Status)
	assert.Equal(t, int64(300), stream.VestedAmount(r.Stream, 80))

	_, err = settlement.Resume(r.Stream, 80)
	assert.ErrorIs(t, err, stream.ErrInvalidState)
}

func TestTransferReverse(t *testing.T) {
	tr := settlement.Transfer{Kind: settlement.KindPayout, Token: "T", From: "A", To: "B", Amount: 7}
	assert.Equal(t, settlement.Transfer{Kind: settlement.KindPayout, Token: "T", From: "B", To: "A", Amount: 7}, tr.Reverse())
}

// A random sequence of operations never breaks the accounting invariants,
// and escrow always equals Balance - WithdrawnAmount.
func TestSettlementInvariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		total := rapid.Int64Range(1, 1_000_000).Draw(rt, "total")
		initial := rapid.Int64Range(0, total).Draw(rt, "initial")
		dur := rapid.Int64Range(0, 1000).Draw(rt, "duration")
		bps := rapid.Uint32Range(0, 10_000).Draw(rt, "bps")
		tr := settlement.Terms{Escrow: "GESCROW", FeeCollector: "GFEES", FeeRateBps: bps}

		res, err := settlement.Open(1, stream.CreateParams{
			Sender: "GS", Recipient: "GR", Token: "GT",
			TotalAmount: total, InitialAmount: initial, StartTime: 0, EndTime: dur,
		}, tr)
		if err != nil {
			rt.Fatalf("open: %v", err)
		}
		s := res.Stream
		escrow := initial
		now := int64(0)

		steps := rapid.IntRange(1, 30).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			now += rapid.Int64Range(0, 200).Draw(rt, "dt")
			var r settlement.Result
			switch rapid.IntRange(0, 5).Draw(rt, "op") {
			case 0:
				r, err = settlement.Deposit(s, rapid.Int64Range(-10, total).Draw(rt, "amount"), tr)
			case 1:
				r, err = settlement.Withdraw(s, rapid.Int64Range(-10, total).Draw(rt, "amount"), now, tr)
			case 2:
				r, err = settlement.WithdrawMax(s, now, tr)
			case 3:
				r, err = settlement.Pause(s, now)
			case 4:
				r, err = settlement.Resume(s, now)
			case 5:
				r, err = settlement.Cancel(s, now, tr)
			}
			if err != nil {
				continue
			}
			for _, x := range r.Transfers {
				if x.Amount <= 0 {
					rt.Fatalf("non-positive transfer %+v", x)
				}
				if x.To == "GESCROW" {
					escrow += x.Amount
				}
				if x.From == "GESCROW" {
					escrow -= x.Amount
				}
			}
			s = r.Stream
			if err := s.CheckInvariants(); err != nil {
				rt.Fatalf("invariant: %v", err)
			}
			if s.Status != stream.StatusCanceled && escrow != s.Escrowed() {
				rt.Fatalf("escrow %d != balance-withdrawn %d", escrow, s.Escrowed())
			}
			if s.Status == stream.StatusCanceled && escrow != 0 {
				rt.Fatalf("escrow %d left after cancel", escrow)
			}
			w := stream.WithdrawableAmount(s, now)
			if w < 0 || w > s.Escrowed() {
				rt.Fatalf("withdrawable %d out of [0, %d]", w, s.Escrowed())
			}
		}
	})
}
