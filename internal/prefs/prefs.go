// Package prefs stores the small amount of per-user state reportwatch keeps
// between runs: the TUI theme, whether watch defaults to plain output, and
// the template submitted last. The file lives at
// ~/.config/reportwatch/prefs.toml unless --prefs points elsewhere.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultLocation = "~/.config/reportwatch/prefs.toml"
	defaultTheme    = "Nightfox"
)

// Prefs is the decoded preferences file. The zero value is usable; Load and
// Save fill in the default theme.
type Prefs struct {
	Theme string `toml:"theme"`
	// Plain makes watch print status lines instead of starting the TUI.
	Plain bool `toml:"plain"`
	// RecentTemplate is reused by submit when --template is omitted.
	RecentTemplate string `toml:"recent_template"`
}

// Defaults returns the preferences used when no file exists.
func Defaults() Prefs {
	return Prefs{Theme: defaultTheme}
}

// DefaultPath is the location used when no path is given.
func DefaultPath() string {
	return defaultLocation
}

func (p Prefs) normalized() Prefs {
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = defaultTheme
	}
	p.RecentTemplate = strings.TrimSpace(p.RecentTemplate)
	return p
}

// Load returns the preferences stored at path. A missing file is not an
// error. An unreadable or malformed file yields Defaults together with an
// error describing the problem, so callers can warn and carry on.
func Load(path string) (Prefs, error) {
	file, err := locate(path)
	if err != nil {
		return Defaults(), err
	}

	raw, err := os.ReadFile(file)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return Defaults(), nil
	case err != nil:
		return Defaults(), fmt.Errorf("read %s: %w", file, err)
	}

	var p Prefs
	if err := toml.Unmarshal(raw, &p); err != nil {
		return Defaults(), fmt.Errorf("decode %s: %w", file, err)
	}
	return p.normalized(), nil
}

// Save writes p to path, creating parent directories.
func Save(path string, p Prefs) error {
	file, err := locate(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	raw, err := toml.Marshal(p.normalized())
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	if err := os.WriteFile(file, raw, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

// locate turns a user-supplied path into an absolute one, expanding a
// leading ~ and substituting the default location for a blank path.
func locate(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = defaultLocation
	}
	if rest, ok := strings.CutPrefix(path, "~"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("prefs path %q: %w", path, err)
		}
		path = filepath.Join(home, rest)
	}
	return filepath.Abs(path)
}
