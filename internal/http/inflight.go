package http

import (
	"context"
	"sync"
	"time"
)

// inFlightTracker counts requests currently being served so graceful
// shutdown can drain them before the process exits.
type inFlightTracker struct {
	mu    sync.RWMutex
	count int64
}

func (t *inFlightTracker) Increment() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count++
}

func (t *inFlightTracker) Decrement() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count--
}

func (t *inFlightTracker) Count() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

// waitForZero blocks until the in-flight count reaches zero or ctx is
// cancelled, re-checking every checkInterval.
func (t *inFlightTracker) waitForZero(ctx context.Context, checkInterval time.Duration) error {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()
	for {
		if t.Count() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// globalInFlightTracker is the process-wide counter fed by MetricsMiddleware.
var globalInFlightTracker = &inFlightTracker{}

// InFlightCount returns the current number of in-flight requests.
func InFlightCount() int64 {
	return globalInFlightTracker.Count()
}

// WaitForInFlight blocks until in-flight requests reach zero or ctx is done.
func WaitForInFlight(ctx context.Context, checkInterval time.Duration) error {
	return globalInFlightTracker.waitForZero(ctx, checkInterval)
}
