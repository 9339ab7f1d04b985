package poll

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// Step is added to the wait after every attempt.
	Step = 500 * time.Millisecond
	// MaxDelay caps the wait between attempts.
	MaxDelay = 5 * time.Second
)

var _ backoff.BackOff = (*Linear)(nil)

// Linear is an additive backoff schedule. The first NextBackOff returns
// Initial unchanged; every later call returns min(previous+Step, Max). An
// Initial above Max is used once and then cut to Max.
type Linear struct {
	Initial time.Duration
	Step    time.Duration
	Max     time.Duration

	current time.Duration
	started bool
}

// NewLinear returns the schedule Until uses for the given first interval.
func NewLinear(initial time.Duration) *Linear {
	if initial < 0 {
		initial = 0
	}
	return &Linear{Initial: initial, Step: Step, Max: MaxDelay}
}

// NextBackOff returns the next wait. It never returns backoff.Stop.
func (l *Linear) NextBackOff() time.Duration {
	if !l.started {
		l.started = true
		l.current = l.Initial
		return l.current
	}
	l.current = min(l.current+l.Step, l.Max)
	return l.current
}

// Reset restarts the schedule at Initial.
func (l *Linear) Reset() {
	l.started = false
	l.current = 0
}
