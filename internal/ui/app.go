package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/reportwatch/internal/prefs"
	"github.com/five82/reportwatch/internal/state"
)

// Options configures the UI.
type Options struct {
	Context context.Context
	// Cancel aborts the watch. It is called when the user quits.
	Cancel    func()
	Store     *state.Store
	PollTick  time.Duration
	Prefs     prefs.Prefs
	PrefsPath string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	cancel    func()
	store     *state.Store
	prefs     prefs.Prefs
	prefsPath string
	pollTick  time.Duration

	// UI state
	theme   Theme
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	bar     progress.Model
	width   int
	height  int
	ready   bool

	// Data state
	snapshot    state.Snapshot
	lastUpdated time.Time
	aborting    bool
	prefsErr    error
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = defaultPollTick
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	m := Model{
		ctx:       ctx,
		cancel:    opts.Cancel,
		store:     opts.Store,
		prefs:     opts.Prefs,
		prefsPath: prefsPath,
		pollTick:  pollTick,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	m.applyTheme(GetTheme(opts.Prefs.Theme))
	return m
}

const (
	defaultPollTick = 250 * time.Millisecond
	minBarWidth     = 10
	maxBarWidth     = 40
)

// applyTheme rebuilds the theme-dependent components.
func (m *Model) applyTheme(t Theme) {
	m.theme = t
	styles := t.Styles()
	m.spinner.Style = styles.AccentText
	m.help.Styles.ShortKey = styles.AccentText
	m.help.Styles.ShortDesc = styles.MutedText
	m.help.Styles.ShortSeparator = styles.FaintText
	m.help.Styles.FullKey = styles.AccentText
	m.help.Styles.FullDesc = styles.MutedText
	m.help.Styles.FullSeparator = styles.FaintText

	width := m.bar.Width
	m.bar = progress.New(
		progress.WithGradient(t.Accent, t.Success),
		progress.WithoutPercentage(),
	)
	if width > 0 {
		m.bar.Width = width
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.pollTick),
		m.spinner.Tick,
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.bar.Width = barWidth(msg.Width)
		m.ready = true
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = time.Now()
		if m.snapshot.Done {
			return m, tea.Quit
		}
		return m, nil

	case prefsSavedMsg:
		m.prefsErr = msg.err
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderJobs())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.aborting = true
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.CycleTheme):
		m.applyTheme(GetTheme(NextTheme(m.theme.Name)))
		m.prefs.Theme = m.theme.Name
		return m, savePrefsCmd(m.prefsPath, m.prefs)

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	return m, nil
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	line := m.help.View(m.keys)
	if m.prefsErr != nil {
		line += "  " + styles.DangerText.Render("prefs: "+m.prefsErr.Error())
	}
	return lipgloss.NewStyle().Width(m.width).Render(line)
}

func barWidth(termWidth int) int {
	w := termWidth / 4
	switch {
	case w < minBarWidth:
		return minBarWidth
	case w > maxBarWidth:
		return maxBarWidth
	default:
		return w
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type prefsSavedMsg struct{ err error }

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// savePrefsCmd writes a copy of p off the update loop.
func savePrefsCmd(path string, p prefs.Prefs) tea.Cmd {
	return func() tea.Msg {
		return prefsSavedMsg{err: prefs.Save(path, p)}
	}
}

// Run starts the Bubble Tea program and blocks until the watch finishes or
// the user quits.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if err != nil && m.ctx.Err() != nil {
		// Context cancellation already aborts the watch; not a UI failure.
		return nil
	}
	return err
}
