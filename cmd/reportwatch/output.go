package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/five82/reportwatch/internal/history"
	"github.com/five82/reportwatch/internal/reports"
)

// emit writes v as JSON or YAML, or calls text for the default format.
func (c *cli) emit(v any, text func(w io.Writer) error) error {
	switch c.output {
	case outputJSON:
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(c.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return text(c.out)
	}
}

func writeJob(w io.Writer, job *reports.Job) error {
	rows := [][2]string{
		{"ID", job.ID},
		{"Status", string(job.Status.Normalize())},
		{"Template", job.TemplateID},
		{"Patient", job.PatientRef},
	}
	if p := job.Progress; p.Stage != "" || p.Percent > 0 {
		progress := fmt.Sprintf("%.0f%%", p.Percent)
		if p.Stage != "" {
			progress = p.Stage + " " + progress
		}
		rows = append(rows, [2]string{"Progress", progress})
		rows = append(rows, [2]string{"Message", p.Message})
	}
	rows = append(rows,
		[2]string{"Report", job.ReportID},
		[2]string{"Error", job.Error},
		[2]string{"Created", formatTime(job.ParsedCreatedAt())},
		[2]string{"Updated", formatTime(job.ParsedUpdatedAt())},
	)
	for _, row := range rows {
		if strings.TrimSpace(row[1]) == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "%-9s %s\n", row[0]+":", row[1]); err != nil {
			return err
		}
	}
	return nil
}

func writeJobTable(w io.Writer, jobs []reports.Job) error {
	if len(jobs) == 0 {
		_, err := fmt.Fprintln(w, "no jobs")
		return err
	}
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		progress := ""
		if job.Progress.Stage != "" || job.Progress.Percent > 0 {
			progress = fmt.Sprintf("%s %.0f%%", job.Progress.Stage, job.Progress.Percent)
		}
		rows = append(rows, []string{
			job.ID,
			string(job.Status.Normalize()),
			job.TemplateID,
			strings.TrimSpace(progress),
			formatTime(job.ParsedUpdatedAt()),
		})
	}
	return writeTable(w, []string{"ID", "STATUS", "TEMPLATE", "PROGRESS", "UPDATED"}, rows)
}

func writeHistoryTable(w io.Writer, entries []history.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "no history")
		return err
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		submitted := ""
		if e.Submitted {
			submitted = "yes"
		}
		rows = append(rows, []string{
			e.JobID,
			e.TemplateID,
			e.Status,
			e.Outcome,
			e.ReportID,
			submitted,
			formatTime(e.UpdatedAt),
		})
	}
	return writeTable(w, []string{"JOB", "TEMPLATE", "STATUS", "OUTCOME", "REPORT", "SUBMITTED", "UPDATED"}, rows)
}

func writeTable(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderHeader(false).
		StyleFunc(func(row, _ int) lipgloss.Style {
			style := lipgloss.NewStyle().PaddingRight(2)
			if row == table.HeaderRow {
				return style.Bold(true)
			}
			return style
		}).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
