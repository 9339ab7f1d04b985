package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/five82/reportwatch/internal/app"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

type cli struct {
	configPath string
	prefsPath  string
	verbose    bool
	output     string

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	env *app.Env
}

func newCLI(in io.Reader, out, errOut io.Writer) *cli {
	return &cli{in: in, out: out, errOut: errOut}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "reportwatch",
		Short: "Submit and watch report generation jobs",
		Long: `reportwatch talks to the report generation job queue.

It submits jobs, inspects them and watches them until they complete, fail
or run out of time. Watching several jobs at once polls each independently.

Exit codes:
  0    every watched job completed
  1    an error occurred
  2    a watched job failed, was cancelled or timed out
  130  the watch was aborted`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default ~/.config/reportwatch/config.toml)")
	flags.StringVar(&c.prefsPath, "prefs", "", "preferences file (default ~/.config/reportwatch/prefs.toml)")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")
	flags.StringVarP(&c.output, "output", "o", outputText, "output format: text, json or yaml")
	_ = flags.MarkHidden("prefs")

	root.AddCommand(
		c.submitCmd(),
		c.statusCmd(),
		c.listCmd(),
		c.watchCmd(),
		c.cancelCmd(),
		c.healthCmd(),
		c.historyCmd(),
		c.logsCmd(),
	)
	return root
}

// setup validates global flags and opens the environment shared by every
// command.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	c.output = strings.ToLower(strings.TrimSpace(c.output))
	switch c.output {
	case outputText, outputJSON, outputYAML:
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", c.output)
	}

	env, err := app.Open(cmd.Context(), app.Options{
		ConfigPath:  c.configPath,
		PrefsPath:   c.prefsPath,
		Verbose:     c.verbose,
		LogToStderr: c.verbose && !mayStartTUI(cmd),
	})
	if err != nil {
		return err
	}
	c.env = env
	c.env.Logger.Debug("command started", zap.String("command", cmd.CommandPath()))
	return nil
}

func (c *cli) close() error {
	if c.env == nil {
		return nil
	}
	err := c.env.Close()
	c.env = nil
	return err
}

// mayStartTUI reports whether cmd can take over the terminal, in which case
// logs must not go to stderr.
func mayStartTUI(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "watch":
		return true
	case "submit":
		watch, _ := cmd.Flags().GetBool("watch")
		return watch
	default:
		return false
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
