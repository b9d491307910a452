package ai

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Clock abstracts time so throttle and backoff waits can be observed in tests.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Throttle enforces a minimum interval between outbound calls of one client.
// Reservations are taken under the limiter's lock, so concurrent callers queue
// in reservation order and each waits only for its own slot.
type Throttle struct {
	limiter *rate.Limiter
	clock   Clock
}

func NewThrottle(minInterval time.Duration, clock Clock) *Throttle {
	if clock == nil {
		clock = SystemClock()
	}
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &Throttle{
		limiter: rate.NewLimiter(limit, 1),
		clock:   clock,
	}
}

// Acquire blocks until the caller may send the next request.
func (t *Throttle) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := t.clock.Now()
	r := t.limiter.ReserveN(now, 1)
	if !r.OK() {
		return context.DeadlineExceeded
	}
	delay := r.DelayFrom(now)
	if delay <= 0 {
		return nil
	}
	if err := t.clock.Sleep(ctx, delay); err != nil {
		r.CancelAt(t.clock.Now())
		return err
	}
	return nil
}
