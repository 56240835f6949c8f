package util

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter allows a number of requests per period. It is shared by every
// request of a client and can be reconfigured while in use.
type Limiter struct {
	mu       sync.Mutex
	requests int
	period   time.Duration
	lim      *rate.Limiter
}

func NewLimiter(requests int, period time.Duration) *Limiter {
	l := &Limiter{
		requests: max(1, requests),
		period:   max(time.Second, period),
	}
	l.lim = rate.NewLimiter(l.limit(), l.requests)

	return l
}

func (l *Limiter) SetRequestLimit(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.requests = max(1, n)
	l.apply()
}

func (l *Limiter) SetRequestPeriod(seconds int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.period = time.Duration(max(1, seconds)) * time.Second
	l.apply()
}

// Config returns the current requests-per-period pair.
func (l *Limiter) Config() (int, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.requests, l.period
}

func (l *Limiter) Wait(ctx context.Context) error {
	return l.lim.Wait(ctx)
}

func (l *Limiter) limit() rate.Limit {
	return rate.Limit(float64(l.requests) / l.period.Seconds())
}

// apply must be called with mu held.
func (l *Limiter) apply() {
	l.lim.SetLimit(l.limit())
	l.lim.SetBurst(l.requests)
}
