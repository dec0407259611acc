package stream

import "github.com/xraph/paystream/types"

// EffectiveElapsed is the number of seconds the stream has spent Active as
// of now. The running segment since LastResumeTime is counted only while
// Active and never goes negative.
func EffectiveElapsed(s *Stream, now int64) int64 {
	elapsed := s.ActiveElapsed
	if s.Status == StatusActive {
		elapsed += s.running(now)
	}
	return elapsed
}

// running is the length of the open active segment. Readings at or before
// LastResumeTime count as zero.
func (s *Stream) running(now int64) int64 {
	if now <= s.LastResumeTime {
		return 0
	}
	return now - s.LastResumeTime
}

// VestedAmount is the portion of TotalAmount vested as of now. It is
// monotonic in active time and capped at TotalAmount.
func VestedAmount(s *Stream, now int64) int64 {
	if s.TotalAmount <= 0 {
		return 0
	}
	duration := s.Duration()
	if duration <= 0 {
		if now >= s.StartTime {
			return s.TotalAmount
		}
		return 0
	}
	elapsed := min(EffectiveElapsed(s, now), duration)
	if elapsed <= 0 {
		return 0
	}
	vested, err := types.MulDivFloor(s.TotalAmount, elapsed, duration)
	if err != nil {
		// elapsed <= duration keeps the quotient within TotalAmount.
		return s.TotalAmount
	}
	return vested
}

// WithdrawableAmount is what the recipient could take out now: the vested
// amount bounded by deposits, minus what was already withdrawn.
func WithdrawableAmount(s *Stream, now int64) int64 {
	return max(0, min(VestedAmount(s, now), s.Balance)-s.WithdrawnAmount)
}

// Freeze folds the running active segment into ActiveElapsed.
func (s *Stream) Freeze(now int64) {
	if s.Status == StatusActive {
		s.ActiveElapsed += s.running(now)
	}
}

// Restart opens a new active segment. A resume before StartTime anchors the
// segment at StartTime so no time is credited early.
func (s *Stream) Restart(now int64) {
	s.LastResumeTime = max(now, s.StartTime)
}
