package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/reportwatch/internal/reports"
)

// Outcome is how a watch over one job ended.
type Outcome string

const (
	OutcomePending   Outcome = ""
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeTimedOut  Outcome = "timed out"
	OutcomeAborted   Outcome = "aborted"
	OutcomeError     Outcome = "error"
)

// Success reports whether the job produced a report.
func (o Outcome) Success() bool {
	return o == OutcomeCompleted
}

// OutcomeForStatus maps a terminal job status onto a watch outcome.
func OutcomeForStatus(status reports.Status) Outcome {
	switch status.Normalize() {
	case reports.StatusCompleted:
		return OutcomeCompleted
	case reports.StatusFailed:
		return OutcomeFailed
	case reports.StatusCancelled:
		return OutcomeCancelled
	default:
		return OutcomePending
	}
}

// JobView is the latest known state of one watched job.
type JobView struct {
	ID        string
	Job       reports.Job
	HasJob    bool
	Polls     int
	Outcome   Outcome
	Err       error
	UpdatedAt time.Time
}

// Finished reports whether the watch over this job has ended.
func (v JobView) Finished() bool {
	return v.Outcome != OutcomePending
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Jobs                []JobView
	Health              reports.Health
	HasHealth           bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive failed requests
	Done                bool
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Pending returns how many jobs are still being watched.
func (s Snapshot) Pending() int {
	n := 0
	for _, j := range s.Jobs {
		if !j.Finished() {
			n++
		}
	}
	return n
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	index    map[string]int
}

// Track registers job ids in display order. Known ids are ignored.
func (s *Store) Track(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == nil {
		s.index = make(map[string]int)
	}
	for _, id := range ids {
		if _, ok := s.index[id]; ok {
			continue
		}
		s.index[id] = len(s.snapshot.Jobs)
		s.snapshot.Jobs = append(s.snapshot.Jobs, JobView{ID: id})
	}
}

// UpdateJob records one probe of a job. When err is non-nil the previous job
// data is kept but the error is recorded for visibility.
func (s *Store) UpdateJob(id string, job *reports.Job, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := s.viewLocked(id)
	now := time.Now()
	view.UpdatedAt = now
	s.snapshot.LastUpdated = now
	if err != nil {
		view.Err = err
		s.recordErrorLocked(err)
		return
	}
	view.Polls++
	view.Err = nil
	if job != nil {
		view.Job = *job
		view.HasJob = true
	}
	s.recordSuccessLocked()
}

// Finish records the final outcome of a watch.
func (s *Store) Finish(id string, outcome Outcome, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := s.viewLocked(id)
	view.Outcome = outcome
	if err != nil {
		view.Err = err
	}
	view.UpdatedAt = time.Now()
}

// UpdateHealth records a backend health probe, mirroring UpdateJob's error
// handling.
func (s *Store) UpdateHealth(health *reports.Health, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.recordErrorLocked(err)
		return
	}
	if health != nil {
		s.snapshot.Health = *health
		s.snapshot.HasHealth = true
	} else {
		s.snapshot.HasHealth = false
	}
	s.recordSuccessLocked()
}

// MarkDone flags that the watcher has returned.
func (s *Store) MarkDone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Done = true
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Jobs = cloneJobs(s.snapshot.Jobs)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func (s *Store) viewLocked(id string) *JobView {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	idx, ok := s.index[id]
	if !ok {
		idx = len(s.snapshot.Jobs)
		s.index[id] = idx
		s.snapshot.Jobs = append(s.snapshot.Jobs, JobView{ID: id})
	}
	return &s.snapshot.Jobs[idx]
}

func (s *Store) recordErrorLocked(err error) {
	s.snapshot.LastError = err
	s.snapshot.ConsecutiveFailures++
}

func (s *Store) recordSuccessLocked() {
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

func cloneJobs(jobs []JobView) []JobView {
	if len(jobs) == 0 {
		return nil
	}
	dup := make([]JobView, len(jobs))
	copy(dup, jobs)
	return dup
}
