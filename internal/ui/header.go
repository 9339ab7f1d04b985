package ui

import (
	"fmt"
	"strings"
)

// renderHeader renders the status bar: backend health and watch progress.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	parts := []string{bg.Render("reportwatch", styles.Logo)}
	parts = append(parts, m.healthParts(styles, bg)...)

	total := len(m.snapshot.Jobs)
	pending := m.snapshot.Pending()
	parts = append(parts,
		bg.Render("Watching:", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d/%d", pending, total), styles.Text),
	)
	if m.aborting {
		parts = append(parts, bg.Render("Aborting...", styles.WarningText.Bold(true)))
	}
	if !m.lastUpdated.IsZero() {
		parts = append(parts, bg.Render(m.lastUpdated.Format("15:04:05"), styles.FaintText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

func (m Model) healthParts(styles Styles, bg BgStyle) []string {
	snap := m.snapshot
	if snap.IsOffline() {
		parts := []string{bg.Render("● OFFLINE", styles.DangerText)}
		if snap.LastError != nil {
			parts = append(parts, bg.Render(truncate(classifyError(snap.LastError), 40), styles.MutedText))
		}
		return append(parts, bg.Render("Retrying...", styles.WarningText.Bold(true)))
	}
	if !snap.HasHealth {
		return []string{bg.Render("Connecting...", styles.WarningText.Bold(true))}
	}

	health := snap.Health
	indicator := bg.Render("● "+strings.ToUpper(health.Status), styles.SuccessText)
	if !health.OK() {
		indicator = bg.Render("● "+strings.ToUpper(health.Status), styles.WarningText.Bold(true))
	}
	parts := []string{
		indicator,
		bg.Render("Queue:", styles.MutedText) + bg.Space() +
			bg.Render(fmt.Sprintf("%d", health.QueueDepth), styles.Text),
	}
	if health.Version != "" && m.width >= 80 {
		parts = append(parts, bg.Render("v"+strings.TrimPrefix(health.Version, "v"), styles.FaintText))
	}
	return parts
}

// classifyError shortens common transport failures for the header.
func classifyError(err error) string {
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "connection refused"):
		return "connection refused"
	case strings.Contains(lower, "no such host"):
		return "unknown host"
	case strings.Contains(lower, "deadline exceeded"), strings.Contains(lower, "timeout"):
		return "request timed out"
	case strings.Contains(lower, "unauthorized"):
		return "unauthorized"
	default:
		return msg
	}
}

