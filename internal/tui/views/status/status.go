// Package status renders the one-line connection and level bar.
package status

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/storytime/progress/internal/tui/theme"
)

// Model holds the status bar state.
type Model struct {
	Connected   bool
	LevelBadge  string
	LevelTitle  string
	TotalPoints int
	Streak      int
	Warning     string
	Width       int
}

// New creates a status bar model.
func New() Model {
	return Model{}
}

// View renders the status bar.
func (m Model) View() string {
	width := max(m.Width, 40)

	var connStr string
	if m.Connected {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● Connected")
	} else {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ Connecting...")
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := connStr
	if m.LevelTitle != "" {
		content += sep + fmt.Sprintf("%s %s", m.LevelBadge, m.LevelTitle)
	}
	content += sep + fmt.Sprintf("%d pts", m.TotalPoints)

	streak := fmt.Sprintf("🔥 %d day streak", m.Streak)
	content += sep + lipgloss.NewStyle().Foreground(theme.ColorStreaks).Render(streak)

	if m.Warning != "" {
		content += sep + lipgloss.NewStyle().Foreground(theme.ColorWarning).Render("⚠ "+m.Warning)
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
