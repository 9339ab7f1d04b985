package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// counter returns a probe yielding 1, 2, 3, ... and the number of calls made.
func counter() (func(context.Context) (int, error), *atomic.Int32) {
	var calls atomic.Int32
	return func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}, &calls
}

// recordSleeps replaces the real wait with one that records requested delays.
func recordSleeps(delays *[]time.Duration) Option {
	return func(o *options) {
		o.sleep = func(_ context.Context, d time.Duration) {
			*delays = append(*delays, d)
		}
	}
}

// frozenClock makes the budget never expire.
func frozenClock() Option {
	now := time.Unix(1_700_000_000, 0)
	return func(o *options) {
		o.now = func() time.Time { return now }
	}
}

func TestUntil_ImmediateSuccess(t *testing.T) {
	probe, calls := counter()

	out, err := Until(context.Background(), probe, func(int) bool { return true },
		WithInterval(time.Hour), WithMaxWait(0))

	require.NoError(t, err)
	assert.Equal(t, Outcome[int]{Result: 1}, out)
	assert.True(t, out.Done())
	assert.EqualValues(t, 1, calls.Load())
}

func TestUntil_EventualSuccess(t *testing.T) {
	probe, calls := counter()

	start := time.Now()
	out, err := Until(context.Background(), probe, func(v int) bool { return v >= 3 },
		WithInterval(10*time.Millisecond), WithMaxWait(500*time.Millisecond))
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, Outcome[int]{Result: 3}, out)
	assert.False(t, out.TimedOut)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
	// Waits are 10ms then 510ms; the third probe lands past the budget but
	// the predicate is checked first.
	assert.Less(t, elapsed, 2*time.Second)
}

func TestUntil_EventualSuccessSchedule(t *testing.T) {
	probe, calls := counter()
	var delays []time.Duration

	out, err := Until(context.Background(), probe, func(v int) bool { return v >= 3 },
		WithInterval(10*time.Millisecond), WithMaxWait(500*time.Millisecond),
		recordSleeps(&delays), frozenClock())

	require.NoError(t, err)
	assert.Equal(t, 3, out.Result)
	assert.EqualValues(t, 3, calls.Load())
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 510 * time.Millisecond}, delays)
}

func TestUntil_TimeoutReturnsLastValue(t *testing.T) {
	probe, calls := counter()

	start := time.Now()
	out, err := Until(context.Background(), probe, func(int) bool { return false },
		WithInterval(10*time.Millisecond), WithMaxWait(100*time.Millisecond))
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.True(t, out.TimedOut)
	assert.False(t, out.Aborted)
	assert.False(t, out.Done())
	assert.Equal(t, int(calls.Load()), out.Result)
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	// Overshoot is bounded by one wait of the schedule.
	assert.Less(t, elapsed, 100*time.Millisecond+MaxDelay)
}

func TestUntil_AbortMidWait(t *testing.T) {
	probe, _ := counter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	out, err := Until(ctx, probe, func(int) bool { return false },
		WithInterval(20*time.Millisecond), WithMaxWait(10*time.Second))
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, Outcome[int]{Aborted: true}, out)
	assert.Zero(t, out.Result)
	assert.False(t, out.TimedOut)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestUntil_PreAbortedNeverProbes(t *testing.T) {
	probe, calls := counter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := Until(ctx, probe, func(int) bool { return true })

	require.NoError(t, err)
	assert.Equal(t, Outcome[int]{Aborted: true}, out)
	assert.Zero(t, calls.Load())
}

func TestUntil_AbortDuringProbeObservedAfterProbeReturns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int
	probe := func(context.Context) (int, error) {
		calls++
		cancel()
		return calls, nil
	}
	var delays []time.Duration
	out, err := Until(ctx, probe, func(int) bool { return false }, recordSleeps(&delays), frozenClock())

	require.NoError(t, err)
	assert.True(t, out.Aborted)
	assert.Equal(t, 1, calls)
	assert.Len(t, delays, 1)
}

func TestUntil_DoneWinsOverAbortOnSameAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	probe := func(context.Context) (string, error) {
		cancel()
		return "completed", nil
	}
	out, err := Until(ctx, probe, func(s string) bool { return s == "completed" })

	require.NoError(t, err)
	assert.Equal(t, Outcome[string]{Result: "completed"}, out)
}

func TestUntil_BackoffGrowsLinearlyToCap(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
	}{
		{"small interval", 100 * time.Millisecond},
		{"default interval", DefaultInterval},
		{"zero interval", 0},
		{"at cap", MaxDelay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const attempts = 15
			probe, _ := counter()
			var delays []time.Duration

			_, err := Until(context.Background(), probe, func(v int) bool { return v > attempts },
				WithInterval(tt.interval), recordSleeps(&delays), frozenClock())
			require.NoError(t, err)
			require.Len(t, delays, attempts)

			for i, got := range delays {
				n := i + 1
				want := min(tt.interval+Step*time.Duration(n-1), MaxDelay)
				assert.Equal(t, want, got, "wait %d", n)
				if i > 0 {
					assert.GreaterOrEqual(t, got, delays[i-1], "wait %d decreased", n)
				}
			}
		})
	}
}

func TestUntil_IntervalAboveCapFallsToCap(t *testing.T) {
	probe, _ := counter()
	var delays []time.Duration

	_, err := Until(context.Background(), probe, func(v int) bool { return v > 3 },
		WithInterval(7*time.Second), recordSleeps(&delays), frozenClock())

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{7 * time.Second, MaxDelay, MaxDelay}, delays)
}

func TestUntil_NegativeIntervalTreatedAsZero(t *testing.T) {
	probe, _ := counter()
	var delays []time.Duration

	_, err := Until(context.Background(), probe, func(v int) bool { return v > 2 },
		WithInterval(-time.Second), recordSleeps(&delays), frozenClock())

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{0, Step}, delays)
}

func TestUntil_ProbeErrorPropagatesUnwrapped(t *testing.T) {
	boom := errors.New("status endpoint unavailable")
	var calls int
	probe := func(context.Context) (int, error) {
		calls++
		if calls == 2 {
			return 0, boom
		}
		return calls, nil
	}

	out, err := Until(context.Background(), probe, func(int) bool { return false },
		WithInterval(time.Millisecond), WithMaxWait(time.Minute))

	require.Error(t, err)
	assert.True(t, err == boom, "error should be returned unwrapped, got %v", err)
	assert.Equal(t, Outcome[int]{}, out)
	assert.Equal(t, 2, calls)
}

func TestUntil_SlowProbeStillCheckedBeforeBudget(t *testing.T) {
	// The budget bounds the loop, not a single probe: a probe that outlives
	// it is still judged by the predicate first.
	probe := func(ctx context.Context) (string, error) {
		time.Sleep(30 * time.Millisecond)
		return "completed", nil
	}

	out, err := Until(context.Background(), probe, func(s string) bool { return s == "completed" },
		WithMaxWait(10*time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, Outcome[string]{Result: "completed"}, out)
}

func TestUntil_DoneWinsOverTimeoutOnSameAttempt(t *testing.T) {
	// Each clock read advances an hour, so the budget is blown by the time
	// the second probe returns.
	base := time.Unix(1_700_000_000, 0)
	var ticks int
	clock := func(o *options) {
		o.now = func() time.Time {
			ticks++
			return base.Add(time.Duration(ticks) * time.Hour)
		}
	}
	var delays []time.Duration
	probe, calls := counter()

	out, err := Until(context.Background(), probe, func(v int) bool { return v >= 2 },
		WithMaxWait(90*time.Minute), clock, recordSleeps(&delays))

	require.NoError(t, err)
	assert.Equal(t, Outcome[int]{Result: 2}, out)
	assert.EqualValues(t, 2, calls.Load())
}

func TestUntil_ZeroBudgetProbesOnce(t *testing.T) {
	probe, calls := counter()
	var delays []time.Duration
	base := time.Unix(1_700_000_000, 0)
	var ticks int
	clock := func(o *options) {
		o.now = func() time.Time {
			ticks++
			return base.Add(time.Duration(ticks) * time.Millisecond)
		}
	}

	out, err := Until(context.Background(), probe, func(int) bool { return false },
		WithMaxWait(0), clock, recordSleeps(&delays))

	require.NoError(t, err)
	assert.Equal(t, Outcome[int]{Result: 1, TimedOut: true}, out)
	assert.EqualValues(t, 1, calls.Load())
	assert.Empty(t, delays)
}

func TestUntil_NilFuncs(t *testing.T) {
	_, err := Until[int](context.Background(), nil, func(int) bool { return true })
	assert.ErrorIs(t, err, ErrNilFunc)

	probe, calls := counter()
	_, err = Until(context.Background(), probe, nil)
	assert.ErrorIs(t, err, ErrNilFunc)
	assert.Zero(t, calls.Load())
}

func TestUntil_IndependentCallsRunConcurrently(t *testing.T) {
	const jobs = 8
	results := make(chan Outcome[int], jobs)

	for i := 0; i < jobs; i++ {
		target := i + 1
		go func() {
			probe, _ := counter()
			out, err := Until(context.Background(), probe, func(v int) bool { return v >= target },
				WithInterval(time.Millisecond), WithMaxWait(time.Minute))
			if err != nil {
				t.Errorf("Until returned error: %v", err)
			}
			results <- out
		}()
	}

	seen := make(map[int]bool)
	for i := 0; i < jobs; i++ {
		select {
		case out := <-results:
			assert.True(t, out.Done())
			seen[out.Result] = true
		case <-time.After(30 * time.Second):
			t.Fatal("timed out waiting for concurrent polls")
		}
	}
	assert.Len(t, seen, jobs)
}
