// Package ui provides the full-screen watch view for reportwatch.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program that never talks to the backend itself.
// Watch goroutines write every probe into a state.Store; the model reads a
// snapshot of that store on each tick and renders it. The program exits on
// its own once the store reports that the watcher has returned.
//
// # Package Structure
//
//   - app.go: Model, message handling and the Run entry point
//   - header.go: status bar with backend health and watch counts
//   - jobs.go: one row per watched job with a progress bar and spinner
//   - theme.go: color palettes and Lipgloss styles
//   - keys.go: key bindings and footer help
//
// # Keyboard Shortcuts
//
//   - q, ctrl+c: abort the watch and quit
//   - T: cycle theme (saved to preferences)
//   - ?: toggle the full key list
//
// # Themes
//
// Nightfox (default), Kanagawa and Slate. Each defines a color per job
// status and watch outcome, used for the row badges.
package ui
