// Package poll watches an asynchronous operation until it reaches a terminal
// state, runs out of time, or is cancelled.
//
// # Overview
//
// Until drives a caller-supplied probe function (typically an HTTP status
// fetch) and evaluates a caller-supplied predicate against each result. It
// stops on the first of three conditions and reports which one through an
// Outcome:
//
//   - Outcome{Result: v}: the predicate accepted v
//   - Outcome{Result: v, TimedOut: true}: the wall-clock budget ran out; v is the last value seen
//   - Outcome{Aborted: true}: the context was cancelled; Result is the zero value
//
// Timeouts and aborts are outcomes, not errors. The only error Until returns is
// the one produced by the probe itself, passed through unwrapped. Retrying
// transient probe failures is the caller's job.
//
// # Schedule
//
// The first wait uses the configured interval as-is. Each later wait grows by
// 500ms up to a 5s ceiling. The schedule is exposed as Linear, which also
// satisfies backoff.BackOff from github.com/cenkalti/backoff/v4.
//
//	attempt:  1      2      3      4     ...
//	wait:     i      i+0.5s i+1s   i+1.5s ... capped at 5s
//
// # Ordering
//
// Probe calls are strictly sequential. The predicate is checked before the
// budget on every attempt, so a value that satisfies the predicate is a
// success even when it arrives after the budget expired. Cancellation is
// checked before every probe call and wakes a pending wait early; an in-flight
// probe is not interrupted by Until, but it receives the same context.
//
// # Usage Example
//
//	out, err := poll.Until(ctx, func(ctx context.Context) (*reports.Job, error) {
//		return client.FetchJob(ctx, id)
//	}, func(j *reports.Job) bool {
//		return j.Status.Terminal()
//	}, poll.WithInterval(time.Second), poll.WithMaxWait(5*time.Minute))
//	switch {
//	case err != nil:
//		// probe failed
//	case out.Aborted:
//		// user cancelled
//	case out.TimedOut:
//		// out.Result holds the last status seen
//	}
package poll
