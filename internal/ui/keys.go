package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the keyboard bindings of the watch screen.
type keyMap struct {
	Quit       key.Binding
	CycleTheme key.Binding
	Help       key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "Abort watch"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "More keys"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.CycleTheme, k.Help}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	ctrlC := key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "Abort watch"))
	return [][]key.Binding{
		{k.Quit, ctrlC},
		{k.CycleTheme, k.Help},
	}
}
