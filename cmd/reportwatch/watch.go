package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/reportwatch/internal/app"
	"github.com/five82/reportwatch/internal/reports"
)

type watchFlags struct {
	interval time.Duration
	maxWait  time.Duration
	plain    bool
}

func (f *watchFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.DurationVar(&f.interval, "interval", 0, "first delay between polls (default from config)")
	flags.DurationVar(&f.maxWait, "max-wait", 0, "give up after this long (default from config)")
	flags.BoolVar(&f.plain, "plain", false, "print status lines instead of the full-screen view")
}

// watchResult is the structured form of app.Result.
type watchResult struct {
	ID      string       `json:"id" yaml:"id"`
	Outcome string       `json:"outcome" yaml:"outcome"`
	Job     *reports.Job `json:"job,omitempty" yaml:"job,omitempty"`
	Error   string       `json:"error,omitempty" yaml:"error,omitempty"`
}

func (c *cli) watchCmd() *cobra.Command {
	var f watchFlags
	cmd := &cobra.Command{
		Use:   "watch <job-id>...",
		Short: "Watch jobs until they finish",
		Long: `Polls each job until it completes, fails, is cancelled or --max-wait
elapses. The delay between polls starts at --interval and grows by 500ms per
poll up to 5s. Press q or ctrl+c to abort.

Output that is not a terminal, --plain, or the plain preference print one
line per status change instead of the full-screen view.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd, dedupe(args), f)
		},
	}
	f.register(cmd)
	return cmd
}

func (c *cli) runWatch(cmd *cobra.Command, ids []string, f watchFlags) error {
	if f.interval < 0 || f.maxWait < 0 {
		return fmt.Errorf("--interval and --max-wait must not be negative")
	}

	opts := app.WatchOptions{
		Interval: f.interval,
		MaxWait:  f.maxWait,
		Plain:    f.plain || c.env.Prefs.Plain || c.output != outputText || !isTerminal(c.out),
		Out:      c.out,
	}
	if c.output != outputText {
		// Keep stdout parseable; progress lines go to stderr.
		opts.Out = c.errOut
	}

	results, err := c.env.RunWatch(cmd.Context(), ids, opts)
	if err != nil {
		return err
	}

	if c.output != outputText {
		out := make([]watchResult, 0, len(results))
		for _, r := range results {
			wr := watchResult{ID: r.ID, Outcome: string(r.Outcome), Job: r.Job}
			if r.Err != nil {
				wr.Error = r.Err.Error()
			}
			out = append(out, wr)
		}
		if err := c.emit(out, func(io.Writer) error { return nil }); err != nil {
			return err
		}
	} else if !opts.Plain {
		// The full-screen view is gone once the watch ends; leave a summary.
		app.NewLinePrinter(c.out).Summary(results)
	}

	if code := app.ExitCode(results); code != 0 {
		return &exitError{code: code}
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
