package util

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RandomizedBackoff produces jittered, exponentially increasing delays
// for the queue actor's empty-coordinator retry loop, so a fleet of
// clients hitting NoContent at the same moment doesn't reconnect in
// lockstep. It never gives up (MaxElapsedTime is unbounded) because an
// empty queue is a steady state, not a failure to recover from.
type RandomizedBackoff struct {
	b *backoff.ExponentialBackOff
}

// NewRandomizedBackoff returns a backoff whose base interval starts at
// one second and grows 1.5x per attempt up to one minute; each delay is
// jittered by up to 50% either side of that base.
func NewRandomizedBackoff() *RandomizedBackoff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = time.Minute
	b.Multiplier = 1.5
	b.RandomizationFactor = 0.5
	b.MaxElapsedTime = 0
	b.Reset()
	return &RandomizedBackoff{b: b}
}

// Next returns the next delay to wait before retrying.
func (r *RandomizedBackoff) Next() time.Duration {
	return r.b.NextBackOff()
}

// Reset restarts the sequence from the initial interval, called once
// the coordinator hands out a batch again.
func (r *RandomizedBackoff) Reset() {
	r.b.Reset()
}
