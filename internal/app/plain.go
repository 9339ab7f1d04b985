package app

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/five82/reportwatch/internal/reports"
)

// LinePrinter writes one line per observed change in a job's state. It is
// the non-interactive counterpart of the watch TUI and is safe for use from
// several watch goroutines.
type LinePrinter struct {
	mu   sync.Mutex
	out  io.Writer
	now  func() time.Time
	last map[string]string
}

// NewLinePrinter returns a printer writing to out.
func NewLinePrinter(out io.Writer) *LinePrinter {
	return &LinePrinter{out: out, now: time.Now, last: make(map[string]string)}
}

// Update matches Watcher.OnUpdate.
func (p *LinePrinter) Update(id string, job *reports.Job, err error) {
	var line string
	switch {
	case err != nil:
		line = fmt.Sprintf("%s  error: %v", id, err)
	case job == nil:
		return
	default:
		line = describeJob(job)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last[id] == line {
		return
	}
	p.last[id] = line
	fmt.Fprintf(p.out, "%s %s\n", p.now().Format("15:04:05"), line)
}

// Summary writes the final outcome of every watch.
func (p *LinePrinter) Summary(results []Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range results {
		line := fmt.Sprintf("%s  %s", r.ID, r.Outcome)
		if r.Job != nil && r.Job.ReportID != "" {
			line += "  report=" + r.Job.ReportID
		}
		if r.Err != nil {
			line += fmt.Sprintf("  (%v)", r.Err)
		} else if r.Job != nil && r.Job.Error != "" {
			line += fmt.Sprintf("  (%s)", r.Job.Error)
		}
		fmt.Fprintln(p.out, line)
	}
}

func describeJob(job *reports.Job) string {
	line := fmt.Sprintf("%s  %s", job.ID, job.Status.Normalize())
	if stage := job.Progress.Stage; stage != "" {
		line += fmt.Sprintf("  %s %.0f%%", stage, job.Progress.Percent)
	}
	if msg := job.Progress.Message; msg != "" {
		line += "  " + msg
	}
	return line
}
