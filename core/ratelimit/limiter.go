package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LimitError is returned by Execute when the current window has no remaining
// capacity. RetryAfter carries the time until the window resets so callers
// (the retry executor in particular) can wait exactly as long as needed.
type LimitError struct {
	RetryAfter time.Duration
	Count      int
	Limit      int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d/%d requests in window, retry after %s", e.Count, e.Limit, e.RetryAfter)
}

// RetryAfterHint exposes the server-side wait duration to the retry executor.
func (e *LimitError) RetryAfterHint() time.Duration {
	return e.RetryAfter
}

// Usage is a read-only snapshot of the limiter's window state.
type Usage struct {
	Count        int       `json:"count"`
	Limit        int       `json:"limit"`
	WindowStart  time.Time `json:"window_start"`
	WindowEndsAt time.Time `json:"window_ends_at"`
}

// Limiter throttles all spreadsheet API calls against the provider's
// published quota. One instance is shared process-wide across every sync
// target; it is constructed once at startup and injected, never a package
// global.
//
// Policy: when the window is exhausted, Execute rejects with *LimitError
// rather than queueing. The error carries a retry hint equal to the time
// until the window resets, which the retry executor honors, so callers get
// queue-like behavior without this package holding goroutines hostage.
type Limiter struct {
	mu          sync.Mutex
	count       int
	windowStart time.Time

	limit    int
	window   time.Duration
	smoother *rate.Limiter
	now      func() time.Time
}

// New creates a Limiter from configuration.
func New(cfg Config) *Limiter {
	l := &Limiter{
		limit:  cfg.Limit,
		window: time.Duration(cfg.WindowSeconds) * time.Second,
		now:    time.Now,
	}
	if cfg.SmoothingRPS > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		l.smoother = rate.NewLimiter(rate.Limit(cfg.SmoothingRPS), burst)
	}
	return l
}

// Execute runs op if the current window has capacity, counting the request
// against the quota. It returns *LimitError without invoking op when the
// window is exhausted. The request is counted even if op fails: the provider
// has still seen the call.
func (l *Limiter) Execute(ctx context.Context, op func() error) error {
	if l.smoother != nil {
		if err := l.smoother.Wait(ctx); err != nil {
			return err
		}
	}

	if err := l.acquire(); err != nil {
		return err
	}

	return op()
}

// acquire reserves one slot in the current window, rolling the window over
// if it has expired.
func (l *Limiter) acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.rollWindowLocked(now)

	if l.count >= l.limit {
		return &LimitError{
			RetryAfter: l.windowStart.Add(l.window).Sub(now),
			Count:      l.count,
			Limit:      l.limit,
		}
	}

	l.count++
	return nil
}

// rollWindowLocked resets the counter when the wall-clock window has passed.
// Callers must hold l.mu.
func (l *Limiter) rollWindowLocked(now time.Time) {
	if l.windowStart.IsZero() || now.Sub(l.windowStart) >= l.window {
		l.windowStart = now
		l.count = 0
	}
}

// Usage returns a snapshot of the current window state for dashboards.
func (l *Limiter) Usage() Usage {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rollWindowLocked(l.now())

	return Usage{
		Count:        l.count,
		Limit:        l.limit,
		WindowStart:  l.windowStart,
		WindowEndsAt: l.windowStart.Add(l.window),
	}
}

// IsNearLimit reports whether usage in the current window has reached the
// given fraction of the ceiling. Used by operational tooling to pause
// non-essential work before the quota is actually exhausted.
func (l *Limiter) IsNearLimit(fraction float64) bool {
	u := l.Usage()
	return float64(u.Count) >= fraction*float64(u.Limit)
}

// Reset clears the current window. Administrative override only; the quota
// on the provider side does not reset with it.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.count = 0
	l.windowStart = l.now()
}
