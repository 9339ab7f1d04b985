package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/reportwatch/internal/history"
	"github.com/five82/reportwatch/internal/logtail"
)

func (c *cli) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [job-id]",
		Short: "Show locally recorded jobs",
		Long:  "Lists jobs submitted or watched from this machine, newest first, or shows one of them.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				entry, err := c.env.History.Get(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("history %s: %w", args[0], err)
				}
				return c.emit(entry, func(w io.Writer) error {
					return writeHistoryTable(w, []history.Entry{entry})
				})
			}
			entries, err := c.env.History.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}
			return c.emit(entries, func(w io.Writer) error { return writeHistoryTable(w, entries) })
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries")
	return cmd
}

func (c *cli) logsCmd() *cobra.Command {
	var (
		lines int
		level string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the end of the reportwatch log",
		Long:  "Prints the last lines of the log file. Text output is formatted; json and yaml print the raw JSON lines.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := c.env.Config.LogPath()
			raw, err := logtail.Read(path, lines)
			if err != nil {
				return fmt.Errorf("read log: %w", err)
			}
			if len(raw) == 0 {
				fmt.Fprintf(c.errOut, "no log entries in %s\n", path)
				return nil
			}
			for _, line := range raw {
				if strings.TrimSpace(line) == "" {
					continue
				}
				entry := logtail.Parse(line)
				if !entry.AtLeast(level) {
					continue
				}
				out := entry.Raw
				if c.output == outputText {
					out = logtail.Format(entry)
				}
				if _, err := fmt.Fprintln(c.out, out); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines (0 for all)")
	cmd.Flags().StringVar(&level, "level", "", "minimum level (debug, info, warn, error)")
	return cmd
}
