// Package backoff implements decorrelated-jitter retry delays and a
// per-key coordinator used to gate reconcile dispatch after failures.
package backoff

import (
	"context"
	"math/rand"
	"time"

	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"
)

// Backoff computes and sleeps for successive decorrelated-jitter delays,
// bounded by [base, cap]. The zero value is not usable; construct with
// Decorr.
type Backoff interface {
	// Do sleeps for the next delay, or returns ctx.Err() if ctx is done first.
	Do(ctx context.Context) error
	// Step returns the next delay without sleeping.
	Step() time.Duration
}

type decorr struct {
	base time.Duration
	cap  time.Duration
	prev time.Duration
	rand *rand.Rand
	clock clockwork.Clock
}

// Decorr returns a Backoff implementing the "decorrelated jitter" algorithm:
// next = min(cap, random_between(base, prev*3)), seeded at prev=base.
func Decorr(base, cap time.Duration) Backoff {
	return DecorrWithClock(base, cap, clockwork.NewRealClock())
}

// DecorrWithClock is Decorr with an injectable clock, for deterministic tests.
func DecorrWithClock(base, cap time.Duration, clock clockwork.Clock) Backoff {
	return &decorr{
		base:  base,
		cap:   cap,
		prev:  base,
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
		clock: clock,
	}
}

func (d *decorr) Step() time.Duration {
	upper := d.prev * 3
	if upper > d.cap {
		upper = d.cap
	}
	if upper <= d.base {
		d.prev = d.base
		return d.base
	}
	span := upper - d.base
	next := d.base + time.Duration(d.rand.Int63n(int64(span)))
	d.prev = next
	return next
}

func (d *decorr) Do(ctx context.Context) error {
	delay := d.Step()
	timer := d.clock.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.Chan():
		return nil
	case <-ctx.Done():
		return trace.Wrap(ctx.Err())
	}
}
