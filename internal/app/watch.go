package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/reportwatch/internal/history"
	"github.com/five82/reportwatch/internal/poll"
	"github.com/five82/reportwatch/internal/reports"
	"github.com/five82/reportwatch/internal/state"
)

const maxConcurrentWatches = 8

// JobGetter is the part of the API client a watch needs.
type JobGetter interface {
	FetchJob(ctx context.Context, id string) (*reports.Job, error)
}

// Recorder persists watch results. *history.Store implements it.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// Result is how the watch over one job ended.
type Result struct {
	ID      string
	Job     *reports.Job // last job state seen; nil when none was fetched
	Outcome state.Outcome
	Err     error
}

// Watcher polls jobs until they reach a terminal status.
type Watcher struct {
	Jobs     JobGetter
	Store    *state.Store // optional
	History  Recorder     // optional
	Logger   *zap.Logger  // optional
	Interval time.Duration
	MaxWait  time.Duration

	// OnUpdate, when set, is called after every probe from the goroutine
	// watching that job. Fetches cut short by cancelling the watch are not
	// reported.
	OnUpdate func(id string, job *reports.Job, err error)
}

// Watch polls every id concurrently and returns one Result per id, in the
// order given. Each job gets its own poll; a failure on one does not stop
// the others. Cancelling ctx aborts every watch.
func (w *Watcher) Watch(ctx context.Context, ids []string) []Result {
	if w.Store != nil {
		w.Store.Track(ids...)
	}

	results := make([]Result, len(ids))
	var g errgroup.Group
	g.SetLimit(maxConcurrentWatches)
	for i, id := range ids {
		g.Go(func() error {
			results[i] = w.watchOne(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	if w.Store != nil {
		w.Store.MarkDone()
	}
	return results
}

func (w *Watcher) watchOne(ctx context.Context, id string) Result {
	logger := w.logger().With(zap.String("job_id", id))
	logger.Info("watch started", zap.Duration("interval", w.Interval), zap.Duration("max_wait", w.MaxWait))

	polls := 0
	probe := func(ctx context.Context) (*reports.Job, error) {
		polls++
		job, err := w.Jobs.FetchJob(ctx, id)
		if isCancellation(ctx, err) {
			// Reported once as the aborted outcome, not as a status update.
			return job, err
		}
		if w.Store != nil {
			w.Store.UpdateJob(id, job, err)
		}
		if w.OnUpdate != nil {
			w.OnUpdate(id, job, err)
		}
		return job, err
	}

	var opts []poll.Option
	if w.Interval > 0 {
		opts = append(opts, poll.WithInterval(w.Interval))
	}
	if w.MaxWait > 0 {
		opts = append(opts, poll.WithMaxWait(w.MaxWait))
	}

	start := time.Now()
	out, err := poll.Until(ctx, probe, (*reports.Job).Done, opts...)
	res := Result{ID: id, Job: out.Result}
	switch {
	case err != nil && isCancellation(ctx, err):
		res.Outcome = state.OutcomeAborted
	case err != nil:
		res.Outcome = state.OutcomeError
		res.Err = err
	case out.Aborted:
		res.Outcome = state.OutcomeAborted
	case out.TimedOut:
		res.Outcome = state.OutcomeTimedOut
	default:
		res.Outcome = state.OutcomeForStatus(out.Result.Status)
	}

	fields := []zap.Field{
		zap.String("outcome", string(res.Outcome)),
		zap.Int("polls", polls),
		zap.Duration("elapsed", time.Since(start)),
	}
	if res.Err != nil {
		logger.Warn("watch failed", append(fields, zap.Error(res.Err))...)
	} else {
		logger.Info("watch finished", fields...)
	}

	if w.Store != nil {
		w.Store.Finish(id, res.Outcome, res.Err)
	}
	w.record(ctx, res)
	return res
}

func (w *Watcher) record(ctx context.Context, res Result) {
	if w.History == nil {
		return
	}
	entry := history.Entry{JobID: res.ID, Outcome: string(res.Outcome)}
	if res.Job != nil {
		entry.TemplateID = res.Job.TemplateID
		entry.Status = string(res.Job.Status.Normalize())
		entry.ReportID = res.Job.ReportID
		entry.Error = res.Job.Error
	}
	if res.Err != nil {
		entry.Error = res.Err.Error()
	}
	// Aborted watches are still worth recording.
	if err := w.History.Record(context.WithoutCancel(ctx), entry); err != nil {
		w.logger().Warn("record history failed", zap.String("job_id", res.ID), zap.Error(err))
	}
}

func (w *Watcher) logger() *zap.Logger {
	if w.Logger == nil {
		return zap.NewNop()
	}
	return w.Logger
}

// isCancellation reports whether err is the caller cancelling ctx rather than
// a real probe failure.
func isCancellation(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ExitCode maps watch results onto a process exit code: 0 when every job
// completed, 130 if any watch was aborted, 1 for probe errors and 2 for jobs
// that failed, were cancelled or timed out.
func ExitCode(results []Result) int {
	code := 0
	for _, r := range results {
		switch r.Outcome {
		case state.OutcomeAborted:
			return 130
		case state.OutcomeError:
			code = 1
		case state.OutcomeCompleted:
		default:
			if code == 0 {
				code = 2
			}
		}
	}
	return code
}
