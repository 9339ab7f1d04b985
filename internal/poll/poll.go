package poll

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultInterval is the first wait between attempts when none is given.
	DefaultInterval = 2500 * time.Millisecond
	// DefaultMaxWait is the total budget when none is given.
	DefaultMaxWait = 2 * time.Minute
)

// ErrNilFunc is returned when Until is called without a probe or predicate.
var ErrNilFunc = errors.New("poll: probe and predicate are required")

// Outcome reports how a call to Until ended. At most one of TimedOut and
// Aborted is set; when neither is, the predicate accepted Result.
type Outcome[T any] struct {
	Result   T
	TimedOut bool
	Aborted  bool
}

// Done reports whether the predicate accepted Result.
func (o Outcome[T]) Done() bool {
	return !o.TimedOut && !o.Aborted
}

// Option customizes a call to Until.
type Option func(*options)

type options struct {
	interval time.Duration
	maxWait  time.Duration
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration)
}

// WithInterval sets the first wait between attempts. Negative values are
// treated as zero.
func WithInterval(d time.Duration) Option {
	return func(o *options) { o.interval = d }
}

// WithMaxWait sets the wall-clock budget, measured from the first probe call.
// Negative values are treated as zero; the probe still runs once.
func WithMaxWait(d time.Duration) Option {
	return func(o *options) { o.maxWait = d }
}

func newOptions(opts []Option) options {
	o := options{
		interval: DefaultInterval,
		maxWait:  DefaultMaxWait,
		now:      time.Now,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.interval < 0 {
		o.interval = 0
	}
	if o.maxWait < 0 {
		o.maxWait = 0
	}
	return o
}

// Until calls probe until isDone accepts its result, the budget runs out, or
// ctx is cancelled. A probe error ends the poll and is returned as-is.
func Until[T any](ctx context.Context, probe func(context.Context) (T, error), isDone func(T) bool, opts ...Option) (Outcome[T], error) {
	if probe == nil || isDone == nil {
		return Outcome[T]{}, ErrNilFunc
	}
	o := newOptions(opts)
	schedule := NewLinear(o.interval)

	start := o.now()
	for {
		if ctx.Err() != nil {
			return Outcome[T]{Aborted: true}, nil
		}
		v, err := probe(ctx)
		if err != nil {
			return Outcome[T]{}, err
		}
		if isDone(v) {
			return Outcome[T]{Result: v}, nil
		}
		if o.now().Sub(start) > o.maxWait {
			return Outcome[T]{Result: v, TimedOut: true}, nil
		}
		o.sleep(ctx, schedule.NextBackOff())
	}
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
