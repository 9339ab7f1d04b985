package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/five82/reportwatch/internal/history"
	"github.com/five82/reportwatch/internal/reports"
	"github.com/five82/reportwatch/internal/state"
)

// scriptedJobs replays a fixed sequence of states per job id; the last state
// repeats once the script runs out.
type scriptedJobs struct {
	mu      sync.Mutex
	scripts map[string][]reports.Job
	errs    map[string]error
	calls   map[string]int
}

func (s *scriptedJobs) FetchJob(ctx context.Context, id string) (*reports.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	n := s.calls[id]
	s.calls[id]++
	if err := s.errs[id]; err != nil {
		return nil, err
	}
	script := s.scripts[id]
	if len(script) == 0 {
		return nil, reports.ErrNotFound
	}
	if n >= len(script) {
		n = len(script) - 1
	}
	job := script[n]
	return &job, nil
}

func (s *scriptedJobs) callCount(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[id]
}

type memoryRecorder struct {
	mu      sync.Mutex
	entries []history.Entry
}

func (r *memoryRecorder) Record(_ context.Context, e history.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func job(id string, status reports.Status) reports.Job {
	return reports.Job{ID: id, Status: status, TemplateID: "ct-head"}
}

func TestWatcher_CompletesAndRecords(t *testing.T) {
	defer goleak.VerifyNone(t)

	jobs := &scriptedJobs{scripts: map[string][]reports.Job{
		"a": {job("a", reports.StatusQueued), job("a", reports.StatusRunning), {ID: "a", Status: reports.StatusCompleted, ReportID: "rep-1"}},
	}}
	rec := &memoryRecorder{}
	store := &state.Store{}
	var updates int
	w := &Watcher{
		Jobs:     jobs,
		Store:    store,
		History:  rec,
		Interval: time.Millisecond,
		MaxWait:  time.Minute,
		OnUpdate: func(string, *reports.Job, error) { updates++ },
	}

	results := w.Watch(context.Background(), []string{"a"})

	require.Len(t, results, 1)
	assert.Equal(t, state.OutcomeCompleted, results[0].Outcome)
	assert.Equal(t, "rep-1", results[0].Job.ReportID)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, 3, jobs.callCount("a"))
	assert.Equal(t, 3, updates)

	snap := store.Snapshot()
	assert.True(t, snap.Done)
	require.Len(t, snap.Jobs, 1)
	assert.Equal(t, 3, snap.Jobs[0].Polls)
	assert.Equal(t, state.OutcomeCompleted, snap.Jobs[0].Outcome)

	require.Len(t, rec.entries, 1)
	assert.Equal(t, history.Entry{JobID: "a", Status: "completed", Outcome: "completed", ReportID: "rep-1"}, rec.entries[0])
}

func TestWatcher_IndependentOutcomes(t *testing.T) {
	defer goleak.VerifyNone(t)

	boom := errors.New("backend exploded")
	jobs := &scriptedJobs{
		scripts: map[string][]reports.Job{
			"ok":     {job("ok", reports.StatusCompleted)},
			"failed": {job("failed", reports.StatusRunning), {ID: "failed", Status: reports.StatusFailed, Error: "template missing"}},
			"slow":   {job("slow", reports.StatusRunning)},
		},
		errs: map[string]error{"broken": boom},
	}
	w := &Watcher{Jobs: jobs, Interval: time.Millisecond, MaxWait: 20 * time.Millisecond}

	results := w.Watch(context.Background(), []string{"ok", "failed", "slow", "broken"})

	require.Len(t, results, 4)
	assert.Equal(t, "ok", results[0].ID)
	assert.Equal(t, state.OutcomeCompleted, results[0].Outcome)
	assert.Equal(t, state.OutcomeFailed, results[1].Outcome)
	assert.Equal(t, state.OutcomeTimedOut, results[2].Outcome)
	require.NotNil(t, results[2].Job, "timed out watch keeps the last job state")
	assert.Equal(t, reports.StatusRunning, results[2].Job.Status)
	assert.Equal(t, state.OutcomeError, results[3].Outcome)
	assert.ErrorIs(t, results[3].Err, boom)
	assert.Equal(t, 1, jobs.callCount("broken"), "probe errors are not retried by the watcher")

	assert.Equal(t, 1, ExitCode(results))
}

func TestWatcher_PreCancelledNeverFetches(t *testing.T) {
	jobs := &scriptedJobs{scripts: map[string][]reports.Job{"a": {job("a", reports.StatusRunning)}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := (&Watcher{Jobs: jobs}).Watch(ctx, []string{"a"})

	assert.Equal(t, state.OutcomeAborted, results[0].Outcome)
	assert.Nil(t, results[0].Job)
	assert.Zero(t, jobs.callCount("a"))
}

type blockingJobs struct {
	started chan struct{}
}

func (b *blockingJobs) FetchJob(ctx context.Context, id string) (*reports.Job, error) {
	close(b.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestWatcher_CancelDuringFetchIsAbort(t *testing.T) {
	defer goleak.VerifyNone(t)

	jobs := &blockingJobs{started: make(chan struct{})}
	store := &state.Store{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-jobs.started
		cancel()
	}()
	var buf bytes.Buffer
	printer := NewLinePrinter(&buf)
	results := (&Watcher{Jobs: jobs, Store: store, OnUpdate: printer.Update}).Watch(ctx, []string{"a"})
	printer.Summary(results)

	assert.Equal(t, state.OutcomeAborted, results[0].Outcome)
	assert.NoError(t, results[0].Err)
	snap := store.Snapshot()
	assert.Zero(t, snap.ConsecutiveFailures, "cancellation is not a backend failure")
	assert.Equal(t, 130, ExitCode(results))
	assert.Equal(t, "a  aborted\n", buf.String(), "abort must not print an error line")
	assert.NotContains(t, buf.String(), "error:")
}

func TestWatcher_AbortMidWait(t *testing.T) {
	defer goleak.VerifyNone(t)

	jobs := &scriptedJobs{scripts: map[string][]reports.Job{"a": {job("a", reports.StatusRunning)}}}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	results := (&Watcher{Jobs: jobs, Interval: time.Second, MaxWait: time.Minute}).Watch(ctx, []string{"a"})

	assert.Equal(t, state.OutcomeAborted, results[0].Outcome)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
	assert.Equal(t, 1, jobs.callCount("a"))
}

func TestExitCode(t *testing.T) {
	r := func(outcomes ...state.Outcome) []Result {
		var out []Result
		for _, o := range outcomes {
			out = append(out, Result{Outcome: o})
		}
		return out
	}
	tests := []struct {
		name    string
		results []Result
		want    int
	}{
		{"all completed", r(state.OutcomeCompleted, state.OutcomeCompleted), 0},
		{"none", nil, 0},
		{"failed", r(state.OutcomeCompleted, state.OutcomeFailed), 2},
		{"timed out", r(state.OutcomeTimedOut), 2},
		{"cancelled", r(state.OutcomeCancelled), 2},
		{"error beats failed", r(state.OutcomeFailed, state.OutcomeError), 1},
		{"abort beats everything", r(state.OutcomeError, state.OutcomeAborted, state.OutcomeFailed), 130},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.results))
		})
	}
}

func TestLinePrinter_DedupesAndSummarizes(t *testing.T) {
	var buf bytes.Buffer
	p := NewLinePrinter(&buf)
	p.now = func() time.Time { return time.Date(2026, 1, 2, 9, 30, 0, 0, time.Local) }

	running := &reports.Job{ID: "a", Status: "Running", Progress: reports.Progress{Stage: "drafting", Percent: 40}}
	p.Update("a", running, nil)
	p.Update("a", running, nil)
	p.Update("a", nil, errors.New("timeout"))
	p.Update("a", nil, nil)
	p.Summary([]Result{
		{ID: "a", Outcome: state.OutcomeCompleted, Job: &reports.Job{ID: "a", ReportID: "rep-1"}},
		{ID: "b", Outcome: state.OutcomeFailed, Job: &reports.Job{ID: "b", Error: "bad transcript"}},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "09:30:00 a  running  drafting 40%", lines[0])
	assert.Equal(t, "09:30:00 a  error: timeout", lines[1])
	assert.Equal(t, "a  completed  report=rep-1", lines[2])
	assert.Equal(t, "b  failed  (bad transcript)", lines[3])
}
