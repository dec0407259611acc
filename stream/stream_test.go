package stream_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/xraph/paystream/stream"
	"github.com/xraph/paystream/types"
)

func newStream(total, initial, start, end int64) *stream.Stream {
	return stream.New(1, stream.CreateParams{
		Sender:        "GSENDER",
		Recipient:     "GRECIPIENT",
		Token:         "GTOKEN",
		TotalAmount:   total,
		InitialAmount: initial,
		StartTime:     start,
		EndTime:       end,
	})
}

func TestCreateParamsValidate(t *testing.T) {
	base := stream.CreateParams{
		Sender: "GS", Recipient: "GR", Token: "GT",
		TotalAmount: 1000, InitialAmount: 100, StartTime: 100, EndTime: 200,
	}
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(p *stream.CreateParams)
		want   error
	}{
		{"zero total", func(p *stream.CreateParams) { p.TotalAmount = 0 }, stream.ErrInvalidAmount},
		{"negative initial", func(p *stream.CreateParams) { p.InitialAmount = -1 }, stream.ErrInvalidAmount},
		{"initial over total", func(p *stream.CreateParams) { p.InitialAmount = 1001 }, stream.ErrExceedsTotal},
		{"end before start", func(p *stream.CreateParams) { p.EndTime = 99 }, stream.ErrInvalidTimeRange},
		{"start before epoch", func(p *stream.CreateParams) { p.StartTime = -1 }, stream.ErrInvalidTimeRange},
		{"window wider than int64", func(p *stream.CreateParams) {
			p.StartTime = math.MinInt64 + 10
			p.EndTime = math.MaxInt64 - 10
		}, stream.ErrInvalidTimeRange},
		{"missing recipient", func(p *stream.CreateParams) { p.Recipient = "" }, stream.ErrInvalidAddress},
		{"zero account sender", func(p *stream.CreateParams) { p.Sender = types.ZeroAccount }, stream.ErrInvalidAddress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), tt.want)
		})
	}
}

func TestNewStream(t *testing.T) {
	s := newStream(1000, 250, 100, 200)
	assert.Equal(t, uint64(1), s.ID)
	assert.Equal(t, int64(250), s.Balance)
	assert.Equal(t, int64(0), s.WithdrawnAmount)
	assert.Equal(t, stream.StatusActive, s.Status)
	assert.Equal(t, int64(100), s.LastResumeTime)
	assert.Nil(t, s.Delegate)
	require.NoError(t, s.CheckInvariants())
}

func TestCloneCopiesDelegate(t *testing.T) {
	s := newStream(1000, 0, 0, 10)
	s.Delegate = types.AddressPtr("GDELEGATE")

	c := s.Clone()
	*c.Delegate = "GOTHER"
	assert.Equal(t, types.Address("GDELEGATE"), *s.Delegate)
}

func TestTransitionGate(t *testing.T) {
	tests := []struct {
		from stream.Status
		op   stream.Operation
		to   stream.Status
		ok   bool
	}{
		{stream.StatusActive, stream.OpPause, stream.StatusPaused, true},
		{stream.StatusActive, stream.OpResume, stream.StatusActive, false},
		{stream.StatusActive, stream.OpCancel, stream.StatusCanceled, true},
		{stream.StatusActive, stream.OpWithdraw, stream.StatusActive, true},
		{stream.StatusPaused, stream.OpResume, stream.StatusActive, true},
		{stream.StatusPaused, stream.OpPause, stream.StatusPaused, false},
		{stream.StatusPaused, stream.OpDeposit, stream.StatusPaused, true},
		{stream.StatusPaused, stream.OpCancel, stream.StatusCanceled, true},
		{stream.StatusCanceled, stream.OpDeposit, stream.StatusCanceled, false},
		{stream.StatusCanceled, stream.OpWithdraw, stream.StatusCanceled, false},
		{stream.StatusCanceled, stream.OpDelegate, stream.StatusCanceled, false},
		{stream.StatusCanceled, stream.OpCancel, stream.StatusCanceled, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.op), func(t *testing.T) {
			to, err := stream.Transition(tt.from, tt.op)
			if !tt.ok {
				assert.ErrorIs(t, err, stream.ErrInvalidState)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, to)
		})
	}
}

func TestVestedAmount(t *testing.T) {
	s := newStream(1000, 1000, 100, 200)

	assert.Equal(t, int64(0), stream.VestedAmount(s, 50))
	assert.Equal(t, int64(0), stream.VestedAmount(s, 100))
	assert.Equal(t, int64(500), stream.VestedAmount(s, 150))
	assert.Equal(t, int64(1000), stream.VestedAmount(s, 200))
	assert.Equal(t, int64(1000), stream.VestedAmount(s, 10_000))
}

func TestVestedAmountFloors(t *testing.T) {
	s := newStream(10, 10, 0, 3)
	assert.Equal(t, int64(3), stream.VestedAmount(s, 1))
	assert.Equal(t, int64(6), stream.VestedAmount(s, 2))
}

func TestInstantStream(t *testing.T) {
	s := newStream(500, 500, 100, 100)
	assert.Equal(t, int64(0), stream.VestedAmount(s, 99))
	assert.Equal(t, int64(500), stream.VestedAmount(s, 100))
}

func TestWithdrawableBoundedByBalance(t *testing.T) {
	s := newStream(1000, 200, 0, 100)
	assert.Equal(t, int64(200), stream.WithdrawableAmount(s, 50))

	s.WithdrawnAmount = 150
	assert.Equal(t, int64(50), stream.WithdrawableAmount(s, 50))
}

func TestPauseFreezesVesting(t *testing.T) {
	s := newStream(1000, 1000, 100, 200)

	s.Freeze(130)
	s.Status = stream.StatusPaused
	assert.Equal(t, int64(30), s.ActiveElapsed)
	assert.Equal(t, int64(300), stream.VestedAmount(s, 130))
	assert.Equal(t, int64(300), stream.VestedAmount(s, 180))

	s.Status = stream.StatusActive
	s.Restart(180)
	assert.Equal(t, int64(400), stream.VestedAmount(s, 190))
}

func TestRestartBeforeStart(t *testing.T) {
	s := newStream(1000, 1000, 100, 200)
	s.Freeze(50)
	s.Status = stream.StatusPaused
	assert.Equal(t, int64(0), s.ActiveElapsed)

	s.Status = stream.StatusActive
	s.Restart(60)
	assert.Equal(t, int64(100), s.LastResumeTime)
	assert.Equal(t, int64(0), stream.VestedAmount(s, 99))
	assert.Equal(t, int64(100), stream.VestedAmount(s, 110))
}

func TestEffectiveElapsedClockFarBehind(t *testing.T) {
	s := newStream(1000, 1000, math.MaxInt64-100, math.MaxInt64-1)
	assert.Equal(t, int64(0), stream.EffectiveElapsed(s, math.MinInt64))
	assert.Equal(t, int64(0), stream.VestedAmount(s, math.MinInt64))

	s.Freeze(math.MinInt64)
	assert.Equal(t, int64(0), s.ActiveElapsed)
	assert.Equal(t, int64(1000), stream.VestedAmount(s, math.MaxInt64))
}

func TestCheckInvariantsRejectsBadWindow(t *testing.T) {
	s := newStream(1000, 0, 0, 100)
	s.StartTime = -5
	assert.Error(t, s.CheckInvariants())
}

func TestCompleted(t *testing.T) {
	s := newStream(100, 100, 0, 10)
	assert.False(t, s.Completed(10))

	s.WithdrawnAmount = 100
	assert.True(t, s.Completed(10))
	assert.False(t, s.Completed(5))
}

func TestCheckInvariants(t *testing.T) {
	s := newStream(100, 50, 0, 10)
	s.WithdrawnAmount = 60
	assert.Error(t, s.CheckInvariants())

	s = newStream(100, 50, 0, 10)
	s.Balance = 101
	assert.Error(t, s.CheckInvariants())

	s = newStream(100, 50, 0, 10)
	s.Status = "Closed"
	assert.Error(t, s.CheckInvariants())
}

func TestVestingProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.Int64Range(1, 1<<62).Draw(t, "total")
		start := rapid.Int64Range(0, 1_000_000).Draw(t, "start")
		dur := rapid.Int64Range(0, 1_000_000).Draw(t, "duration")
		t1 := rapid.Int64Range(0, 3_000_000).Draw(t, "t1")
		t2 := rapid.Int64Range(t1, 3_000_000).Draw(t, "t2")

		s := newStream(total, total, start, start+dur)
		v1 := stream.VestedAmount(s, t1)
		v2 := stream.VestedAmount(s, t2)

		if v1 < 0 || v2 > total {
			t.Fatalf("vested out of range: %d, %d (total %d)", v1, v2, total)
		}
		if v1 > v2 {
			t.Fatalf("vesting not monotonic: v(%d)=%d > v(%d)=%d", t1, v1, t2, v2)
		}
		if t2 >= start+dur && v2 != total {
			t.Fatalf("stream not fully vested at end: %d != %d", v2, total)
		}
	})
}

func TestPausedVestingIsFlat(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.Int64Range(1, 1_000_000_000).Draw(t, "total")
		dur := rapid.Int64Range(1, 10_000).Draw(t, "duration")
		pauseAt := rapid.Int64Range(0, 20_000).Draw(t, "pauseAt")
		later := rapid.Int64Range(pauseAt, 40_000).Draw(t, "later")

		s := newStream(total, total, 0, dur)
		s.Freeze(pauseAt)
		s.Status = stream.StatusPaused

		if stream.VestedAmount(s, pauseAt) != stream.VestedAmount(s, later) {
			t.Fatalf("vesting moved while paused")
		}
	})
}

func TestCanMutate(t *testing.T) {
	assert.True(t, stream.CanMutate(stream.StatusActive))
	assert.True(t, stream.CanMutate(stream.StatusPaused))
	assert.False(t, stream.CanMutate(stream.StatusCanceled))
	assert.True(t, stream.Allows(stream.StatusPaused, stream.OpWithdraw))
	assert.False(t, stream.Allows(stream.StatusCanceled, stream.OpWithdraw))
}
