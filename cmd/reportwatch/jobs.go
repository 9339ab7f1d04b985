package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/five82/reportwatch/internal/app"
	"github.com/five82/reportwatch/internal/reports"
)

type submitFlags struct {
	template   string
	patient    string
	transcript string
	file       string
	options    map[string]string
	watch      bool
	watchFlags watchFlags
}

func (c *cli) submitCmd() *cobra.Command {
	var f submitFlags
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Queue a report generation job",
		Long: `Queues a report generation job from a dictated transcript.

The transcript comes from --transcript or from a file given with --file
("-" reads standard input). When --template is omitted the template used by
the previous submit is reused.

Example:
  reportwatch submit --template ct-head --file dictation.txt --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runSubmit(cmd, f)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&f.template, "template", "t", "", "report template id")
	flags.StringVar(&f.patient, "patient", "", "patient reference")
	flags.StringVar(&f.transcript, "transcript", "", "transcript text")
	flags.StringVarP(&f.file, "file", "f", "", `read the transcript from a file ("-" for stdin)`)
	flags.StringToStringVar(&f.options, "option", nil, "template option key=value (repeatable)")
	flags.BoolVarP(&f.watch, "watch", "w", false, "watch the job after submitting it")
	f.watchFlags.register(cmd)
	cmd.MarkFlagsMutuallyExclusive("transcript", "file")
	return cmd
}

func (c *cli) runSubmit(cmd *cobra.Command, f submitFlags) error {
	template := strings.TrimSpace(f.template)
	if template == "" {
		template = c.env.Prefs.RecentTemplate
	}
	if template == "" {
		return errors.New("--template is required (no previous template to reuse)")
	}

	transcript, err := c.readTranscript(f)
	if err != nil {
		return err
	}

	job, err := app.Submit(cmd.Context(), c.env.Client, c.env.History, c.env.Logger, reports.SubmitRequest{
		TemplateID: template,
		PatientRef: strings.TrimSpace(f.patient),
		Transcript: transcript,
		Options:    f.options,
	})
	if err != nil {
		return err
	}

	if c.env.Prefs.RecentTemplate != template {
		c.env.Prefs.RecentTemplate = template
		if err := c.env.SavePrefs(); err != nil {
			c.env.Logger.Warn("save prefs failed", zap.Error(err))
		}
	}

	if !f.watch {
		return c.emit(job, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "submitted %s (%s)\n", job.ID, job.Status.Normalize())
			return err
		})
	}
	if c.output == outputText {
		fmt.Fprintf(c.out, "submitted %s\n", job.ID)
	}
	return c.runWatch(cmd, []string{job.ID}, f.watchFlags)
}

func (c *cli) readTranscript(f submitFlags) (string, error) {
	text := f.transcript
	switch f.file {
	case "":
	case "-":
		data, err := io.ReadAll(c.in)
		if err != nil {
			return "", fmt.Errorf("read transcript from stdin: %w", err)
		}
		text = string(data)
	default:
		data, err := os.ReadFile(f.file)
		if err != nil {
			return "", fmt.Errorf("read transcript: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("transcript is empty (use --transcript or --file)")
	}
	return text, nil
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := c.env.Client.FetchJob(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("fetch job %s: %w", args[0], err)
			}
			return c.emit(job, func(w io.Writer) error { return writeJob(w, job) })
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	var (
		status string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs in the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must be >= 0, got %d", limit)
			}
			jobs, err := c.env.Client.ListJobs(cmd.Context(), reports.ListQuery{
				Status: reports.Status(status).Normalize(),
				Limit:  limit,
			})
			if err != nil {
				return fmt.Errorf("list jobs: %w", err)
			}
			return c.emit(reports.JobList{Items: jobs}, func(w io.Writer) error { return writeJobTable(w, jobs) })
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only jobs in this status (queued, running, completed, failed, cancelled)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of jobs")
	return cmd
}

func (c *cli) cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a queued or running job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := c.env.Client.CancelJob(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("cancel job %s: %w", args[0], err)
			}
			c.env.Logger.Info("job cancelled", zap.String("job_id", job.ID), zap.String("status", string(job.Status)))
			return c.emit(job, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "cancelled %s (%s)\n", job.ID, job.Status.Normalize())
				return err
			})
		},
	}
}

func (c *cli) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the backend",
		Long:  "Checks the backend health endpoint. Exits 1 when the backend is reachable but not healthy.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			health, err := c.env.Client.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("check health: %w", err)
			}
			err = c.emit(health, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s  version=%s  queue=%d\n", health.Status, health.Version, health.QueueDepth)
				return err
			})
			if err != nil {
				return err
			}
			if !health.OK() {
				return &exitError{code: 1}
			}
			return nil
		},
	}
}
