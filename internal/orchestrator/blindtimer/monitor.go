// Package blindtimer hides an expired blind result between poll cycles.
package blindtimer

import (
	"context"
	"time"

	"github.com/GriffinCanCode/nbtrackr/internal/trace"
)

// DefaultMaxTick bounds each sleep so a deadline is noticed promptly even
// if the clock jumps.
const DefaultMaxTick = time.Second

// Expirer clears a blind result whose deadline passed.
type Expirer interface {
	ExpireBlind(now time.Time) (expired bool, next time.Duration)
}

// Hider takes the overlay down.
type Hider interface {
	PostHide()
}

// Invalidator forgets the last delivered render.
type Invalidator interface {
	Invalidate()
}

// Monitor watches the blind deadline.
type Monitor struct {
	store   Expirer
	hider   Hider
	cache   Invalidator
	maxTick time.Duration
	now     func() time.Time
}

// New creates a monitor. A non-positive maxTick uses DefaultMaxTick.
func New(store Expirer, hider Hider, cache Invalidator, maxTick time.Duration) *Monitor {
	if maxTick <= 0 {
		maxTick = DefaultMaxTick
	}
	return &Monitor{store: store, hider: hider, cache: cache, maxTick: maxTick, now: time.Now}
}

// Run checks the deadline until ctx is done, sleeping at most maxTick
// between checks.
func (m *Monitor) Run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		timer.Reset(m.Check(ctx))
	}
}

// Check runs one expiry check and returns how long to sleep before the
// next one.
func (m *Monitor) Check(ctx context.Context) time.Duration {
	expired, next := m.store.ExpireBlind(m.now())
	if expired {
		trace.Logger(ctx).Debug("blind result expired")
		m.cache.Invalidate()
		m.hider.PostHide()
		return m.maxTick
	}
	if next > 0 && next < m.maxTick {
		return next
	}
	return m.maxTick
}
