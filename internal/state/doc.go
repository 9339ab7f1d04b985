// Package state provides thread-safe state shared by the watcher and the UI.
//
// # Overview
//
// Watch goroutines (one per job) and the health poller write into a Store;
// the Bubble Tea UI reads Snapshots on its own tick. The Store is the only
// coordination point between them.
//
//	Producers:                       Consumer (UI):
//	┌──────────────────────┐        ┌──────────────────┐
//	│ poll.Until probe     │        │                  │
//	│   → UpdateJob()      │        │                  │
//	│ outcome → Finish()   │───────→│ store.Snapshot() │
//	│ health  → UpdateHealth()│ (mutex)│   → render      │
//	└──────────────────────┘        └──────────────────┘
//
// # Update Semantics
//
// UpdateJob and UpdateHealth keep the previous data when given an error, so a
// single failed request never blanks the screen. Each failure increments
// ConsecutiveFailures; any success resets it. IsOffline reports two or more
// failures in a row.
//
// Jobs keep the order in which they were tracked. Finish records how the
// watch ended (completed, failed, cancelled, timed out, aborted, error);
// MarkDone flags that the watcher itself has returned.
//
// # Snapshot Isolation
//
// Snapshot copies the job slice and wraps LastError so callers can hold and
// mutate a snapshot without affecting the Store.
package state
