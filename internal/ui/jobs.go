package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/five82/reportwatch/internal/reports"
	"github.com/five82/reportwatch/internal/state"
)

const idColumnWidth = 14

// renderJobs renders one row per watched job, in the order they were given.
func (m Model) renderJobs() string {
	styles := m.theme.Styles()
	if len(m.snapshot.Jobs) == 0 {
		return styles.MutedText.Render("  waiting for first poll...") + "\n"
	}

	var b strings.Builder
	for _, view := range m.snapshot.Jobs {
		b.WriteString(m.renderJobRow(view, styles))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderJobRow(view state.JobView, styles Styles) string {
	label := jobLabel(view)

	icon := m.spinner.View()
	switch {
	case view.Outcome == state.OutcomeCompleted:
		icon = styles.SuccessText.Render("✓")
	case view.Finished():
		icon = styles.DangerText.Render("✗")
	}

	parts := []string{
		icon,
		styles.Text.Render(padRight(truncate(view.ID, idColumnWidth), idColumnWidth)),
		styles.StatusStyle(label).Render(padRight(titleCase(label), 9)),
		m.bar.ViewAs(jobFraction(view)),
	}
	if detail := jobDetail(view); detail != "" {
		style := styles.MutedText
		if view.Err != nil || view.Job.Error != "" {
			style = styles.DangerText
		}
		parts = append(parts, style.Render(truncate(detail, m.detailWidth())))
	}
	if view.Polls > 0 && m.width >= 100 {
		polls := fmt.Sprintf("%d polls", view.Polls)
		if !view.UpdatedAt.IsZero() {
			polls += " · " + humanizeDuration(time.Since(view.UpdatedAt))
		}
		parts = append(parts, styles.FaintText.Render(polls))
	}
	return " " + strings.Join(parts, " ")
}

// jobLabel is the badge text: the watch outcome once known, otherwise the
// last status reported by the backend.
func jobLabel(view state.JobView) string {
	if view.Finished() {
		return string(view.Outcome)
	}
	if !view.HasJob {
		return string(reports.StatusQueued)
	}
	if status := view.Job.Status.Normalize(); status != "" {
		return string(status)
	}
	return string(reports.StatusQueued)
}

func jobFraction(view state.JobView) float64 {
	if view.Outcome == state.OutcomeCompleted {
		return 1
	}
	return view.Job.Progress.Fraction()
}

func jobDetail(view state.JobView) string {
	if view.Err != nil {
		return view.Err.Error()
	}
	job := view.Job
	if job.Error != "" {
		return job.Error
	}
	if view.Outcome == state.OutcomeCompleted && job.ReportID != "" {
		return "report " + job.ReportID
	}
	var detail []string
	if job.Progress.Stage != "" {
		detail = append(detail, job.Progress.Stage)
	}
	if job.Progress.Message != "" {
		detail = append(detail, job.Progress.Message)
	}
	return strings.Join(detail, ": ")
}

func (m Model) detailWidth() int {
	used := 2 + idColumnWidth + 12 + m.bar.Width + 4
	if w := m.width - used; w > 10 {
		return w
	}
	return 10
}
