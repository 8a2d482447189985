package logging

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Sampler rate-limits hot-path log lines. Calls that are refused are counted
// so the next permitted line can report how many were skipped.
type Sampler struct {
	limiter *rate.Limiter
	skipped atomic.Int64
}

// NewSampler permits one line per interval with the given burst.
func NewSampler(interval time.Duration, burst int) *Sampler {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Sampler{limiter: rate.NewLimiter(limit, burst)}
}

// Allow reports whether a line may be written now, and how many lines were
// suppressed since the last permitted one.
func (s *Sampler) Allow() (bool, int64) {
	return s.AllowAt(time.Now())
}

// AllowAt is Allow evaluated at an explicit instant.
func (s *Sampler) AllowAt(now time.Time) (bool, int64) {
	if s == nil {
		return true, 0
	}
	if !s.limiter.AllowN(now, 1) {
		s.skipped.Add(1)
		return false, 0
	}
	return true, s.skipped.Swap(0)
}
