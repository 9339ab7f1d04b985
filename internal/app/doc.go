// Package app provides the orchestration layer for reportwatch.
//
// # Overview
//
// This package wires together configuration, the report API client, local
// history, logging, the poller and the UI. Open builds an Env once per
// process; commands receive it explicitly.
//
// # Components
//
//   - app.go: Env construction (config, prefs, zap logger, client, history)
//   - watch.go: Watcher, which runs one poll.Until per job through an errgroup
//   - submit.go: job submission plus history bookkeeping
//   - poller.go: background ticker refreshing backend health for the TUI
//   - plain.go: line-oriented progress output for non-interactive use
//   - run.go: RunWatch, choosing between the TUI and plain output
//
// # Data Flow
//
//	┌──────────────┐
//	│  RunWatch()  │
//	└──────┬───────┘
//	       ├─────> state.Store{}         Shared state container
//	       ├─────> StartHealthPoller()   Background health refresh
//	       ├─────> Watcher.Watch()       One goroutine per job (max 8)
//	       │        └─> poll.Until(FetchJob, Job.Done)
//	       │             └─> store.UpdateJob() on every probe
//	       └─────> ui.Run()              TUI reads store.Snapshot()
//
// # Outcomes
//
// Every watched job ends in exactly one state.Outcome:
//
//   - completed, failed, cancelled: the job reached that terminal status
//   - timed out: the max wait elapsed first; the last job state is kept
//   - aborted: the context was cancelled (ctrl+c, or quitting the TUI)
//   - error: fetching the job failed after the client's own retries
//
// ExitCode folds the outcomes into a process exit code.
//
// # Error Handling
//
// Fatal errors (returned from Open):
//   - Configuration file invalid
//   - Log directory or history database cannot be created
//   - Invalid api_url
//
// Per-job errors never stop the other watches; they are reported in Result
// and logged. History write failures are logged and otherwise ignored.
package app
