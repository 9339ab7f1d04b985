package reports

import (
	"strings"
	"time"
)

const backendTimestampLayout = "2006-01-02 15:04:05"

// Status is the lifecycle state of a generation job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Normalize lowercases and trims the status as sent by the backend.
func (s Status) Normalize() Status {
	return Status(strings.ToLower(strings.TrimSpace(string(s))))
}

// Terminal reports whether a job in this state will never change again.
func (s Status) Terminal() bool {
	switch s.Normalize() {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Progress tracks the generation stage for a job.
type Progress struct {
	Stage   string  `json:"stage" yaml:"stage"`
	Percent float64 `json:"percent" yaml:"percent"`
	Message string  `json:"message" yaml:"message"`
}

// Fraction returns Percent clamped to [0, 1].
func (p Progress) Fraction() float64 {
	f := p.Percent / 100
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

// Job mirrors a report generation job as returned by the queue backend.
type Job struct {
	ID         string   `json:"id" yaml:"id"`
	Status     Status   `json:"status" yaml:"status"`
	TemplateID string   `json:"templateId" yaml:"templateId"`
	PatientRef string   `json:"patientRef" yaml:"patientRef"`
	Progress   Progress `json:"progress" yaml:"progress"`
	ReportID   string   `json:"reportId" yaml:"reportId"`
	Error      string   `json:"error" yaml:"error"`
	CreatedAt  string   `json:"createdAt" yaml:"createdAt"`
	UpdatedAt  string   `json:"updatedAt" yaml:"updatedAt"`
}

// Done reports whether the job reached a terminal status.
func (j *Job) Done() bool {
	return j != nil && j.Status.Terminal()
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (j Job) ParsedCreatedAt() time.Time {
	return parseTime(j.CreatedAt)
}

// ParsedUpdatedAt returns the parsed UpdatedAt timestamp.
func (j Job) ParsedUpdatedAt() time.Time {
	return parseTime(j.UpdatedAt)
}

// JobList mirrors GET /api/reports/jobs.
type JobList struct {
	Items []Job `json:"items" yaml:"items"`
}

// SubmitRequest is the body of POST /api/reports/jobs.
type SubmitRequest struct {
	TemplateID string            `json:"templateId" yaml:"templateId"`
	PatientRef string            `json:"patientRef,omitempty" yaml:"patientRef,omitempty"`
	Transcript string            `json:"transcript" yaml:"transcript"`
	Options    map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
}

// Health mirrors GET /api/health.
type Health struct {
	Status     string `json:"status" yaml:"status"`
	Version    string `json:"version" yaml:"version"`
	QueueDepth int    `json:"queueDepth" yaml:"queueDepth"`
}

// OK reports whether the backend considers itself healthy.
func (h Health) OK() bool {
	return strings.EqualFold(strings.TrimSpace(h.Status), "ok")
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(backendTimestampLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
