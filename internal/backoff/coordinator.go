package backoff

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Key identifies one backoff-tracked reconcile target: (kind, namespace, name).
type Key struct {
	Kind      string
	Namespace string
	Name      string
}

type record struct {
	failures  int
	backoff   Backoff
	readyAt   time.Time
}

// Coordinator is the per-key failure-backoff map shared across every
// reconciler dispatcher. It is safe for concurrent use; a single mutex guards
// the whole map, so calls for different keys are serialized.
type Coordinator struct {
	base  time.Duration
	cap   time.Duration
	clock clockwork.Clock

	mu      sync.Mutex
	records map[Key]*record
}

// NewCoordinator builds a Coordinator with the default base=1s, cap=5m
// decorrelated-jitter policy.
func NewCoordinator() *Coordinator {
	return NewCoordinatorWithClock(time.Second, 5*time.Minute, clockwork.NewRealClock())
}

// NewCoordinatorWithClock is NewCoordinator with an injectable clock.
func NewCoordinatorWithClock(base, cap time.Duration, clock clockwork.Clock) *Coordinator {
	return &Coordinator{
		base:    base,
		cap:     cap,
		clock:   clock,
		records: make(map[Key]*record),
	}
}

// OnSuccess clears any backoff record for key.
func (c *Coordinator) OnSuccess(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.records, key)
}

// OnFailure increments the failure count for key and returns the delay
// before the key should next be dispatched.
func (c *Coordinator) OnFailure(key Key) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.records[key]
	if !ok {
		r = &record{backoff: DecorrWithClock(c.base, c.cap, c.clock)}
		c.records[key] = r
	}
	r.failures++
	delay := r.backoff.Step()
	r.readyAt = c.clock.Now().Add(delay)
	return delay
}

// ReadyAt returns the earliest instant key may be dispatched again. Keys
// with no recorded failure are always ready (the zero Time, which callers
// compare against "now" and treat as already-elapsed).
func (c *Coordinator) ReadyAt(key Key) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.records[key]
	if !ok {
		return time.Time{}
	}
	return r.readyAt
}

// Failures reports the consecutive-failure count currently recorded for key.
func (c *Coordinator) Failures(key Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.records[key]
	if !ok {
		return 0
	}
	return r.failures
}
