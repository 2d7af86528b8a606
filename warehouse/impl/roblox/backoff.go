package roblox

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

var (
	_ backoff.BackOff = &LinearBackOff{}
)

const (
	DefaultBackoffStart = 5 * time.Second
	DefaultBackoffStep  = 5 * time.Second
)

/*
	LinearBackOff waits Start, then Start+Step, then Start+2*Step, and so on,
	forever.  It never returns backoff.Stop: download retries are unbounded,
	and only a context cancellation ends them.

	It is the single mutable backoff counter of a run; the controller resets it
	after every successful download.
*/
type LinearBackOff struct {
	Start   time.Duration
	Step    time.Duration
	current time.Duration
}

func NewLinearBackOff(start, step time.Duration) *LinearBackOff {
	return &LinearBackOff{Start: start, Step: step, current: start}
}

func (b *LinearBackOff) NextBackOff() time.Duration {
	wait := b.current
	b.current += b.Step
	return wait
}

func (b *LinearBackOff) Reset() {
	b.current = b.Start
}

// Current returns the duration the next failure would wait.
func (b *LinearBackOff) Current() time.Duration {
	return b.current
}
