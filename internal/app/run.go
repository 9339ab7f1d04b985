package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/five82/reportwatch/internal/state"
	"github.com/five82/reportwatch/internal/ui"
)

// WatchOptions configure RunWatch.
type WatchOptions struct {
	Interval time.Duration // zero uses the configured poll interval
	MaxWait  time.Duration // zero uses the configured max wait
	Plain    bool          // print lines instead of starting the TUI
	Out      io.Writer     // plain output; required when Plain is set
}

// RunWatch watches ids until every job finishes, showing progress in the TUI
// or as plain lines. Quitting the TUI aborts the watch.
func (e *Env) RunWatch(ctx context.Context, ids []string, opts WatchOptions) ([]Result, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("no job ids given")
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = e.Config.PollInterval
	}
	maxWait := opts.MaxWait
	if maxWait <= 0 {
		maxWait = e.Config.MaxWait
	}

	w := &Watcher{
		Jobs:     e.Client,
		History:  e.History,
		Logger:   e.Logger.Named("watch"),
		Interval: interval,
		MaxWait:  maxWait,
	}

	if opts.Plain {
		printer := NewLinePrinter(opts.Out)
		w.OnUpdate = printer.Update
		results := w.Watch(ctx, ids)
		printer.Summary(results)
		return results, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := &state.Store{}
	store.Track(ids...)
	w.Store = store

	healthDone := StartHealthPoller(ctx, store, e.Client, 0, e.Logger.Named("health"))

	resultsCh := make(chan []Result, 1)
	go func() {
		resultsCh <- w.Watch(ctx, ids)
	}()

	uiErr := ui.Run(ui.Options{
		Context:   ctx,
		Cancel:    cancel,
		Store:     store,
		PollTick:  250 * time.Millisecond,
		Prefs:     e.Prefs,
		PrefsPath: e.PrefsPath,
	})
	if uiErr != nil {
		cancel()
	}
	results := <-resultsCh
	cancel()
	<-healthDone

	if uiErr != nil {
		return results, fmt.Errorf("run ui: %w", uiErr)
	}
	return results, nil
}
