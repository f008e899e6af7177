package worker

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter enforces the shared request budget for the hosted model API.
// One global token bucket is consumed by every call from every stage and
// every concurrent claim task; hosted endpoints meter per account, not per
// stage. Models may additionally carry their own, stricter bucket.
type Limiter struct {
	global    *rate.Limiter
	overrides map[string]*rate.Limiter
	mu        sync.RWMutex
}

// NewLimiter creates a limiter with the given requests-per-minute budget
func NewLimiter(requestsPerMinute float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}

	return &Limiter{
		global:    rate.NewLimiter(rate.Limit(requestsPerMinute/60.0), burst),
		overrides: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until one unit of budget is available for the given model.
// The unit is consumed regardless of whether the subsequent call succeeds.
func (l *Limiter) Wait(ctx context.Context, model string) error {
	if err := l.global.Wait(ctx); err != nil {
		return err
	}

	if override := l.getOverride(model); override != nil {
		return override.Wait(ctx)
	}
	return nil
}

// Allow reports whether a request could proceed right now, consuming the
// budget if so
func (l *Limiter) Allow(model string) bool {
	if override := l.getOverride(model); override != nil {
		if !override.Allow() {
			return false
		}
	}
	return l.global.Allow()
}

func (l *Limiter) getOverride(model string) *rate.Limiter {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.overrides[model]
}

// SetModelRate sets a stricter per-model budget on top of the global one
func (l *Limiter) SetModelRate(model string, requestsPerMinute float64, burst int) {
	if burst <= 0 {
		burst = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.overrides[model] = rate.NewLimiter(rate.Limit(requestsPerMinute/60.0), burst)
}
