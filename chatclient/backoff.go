package chatclient

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrCircuitOpen is returned by Stream.Run once MaxAttempts consecutive
// reconnects have failed.
var ErrCircuitOpen = errors.New("chatclient: reconnect attempts exhausted")

// Backoff is the reconnect policy: exponential growth from Initial by
// Multiplier, randomized by Jitter (0..1, fraction of the current interval),
// never above Max. MaxAttempts of zero retries forever.
type Backoff struct {
	Initial     time.Duration
	Max         time.Duration
	Multiplier  float64
	Jitter      float64
	MaxAttempts int
}

// DefaultBackoff retries forever, from 500ms up to 30s.
func DefaultBackoff() Backoff {
	return Backoff{
		Initial:    500 * time.Millisecond,
		Max:        30 * time.Second,
		Multiplier: 2,
		Jitter:     0.5,
	}
}

// policy builds a fresh schedule. Each successful connection starts a new one.
func (b Backoff) policy() backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = b.Initial
	exp.MaxInterval = b.Max
	exp.Multiplier = b.Multiplier
	exp.RandomizationFactor = b.Jitter
	exp.MaxElapsedTime = 0
	exp.Reset()

	if b.MaxAttempts > 0 {
		return backoff.WithMaxRetries(exp, uint64(b.MaxAttempts))
	}
	return exp
}

// delays hands out successive waits from one schedule.
type delays struct {
	policy backoff.BackOff
}

func (b Backoff) start() *delays {
	return &delays{policy: b.policy()}
}

// next returns the wait before the next attempt or ErrCircuitOpen.
func (d *delays) next() (time.Duration, error) {
	wait := d.policy.NextBackOff()
	if wait == backoff.Stop {
		return 0, ErrCircuitOpen
	}
	return wait, nil
}
