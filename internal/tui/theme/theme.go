// Package theme provides the Lip Gloss color palette and reusable styles
// for the Storytime dashboard. It is a leaf package with no internal
// imports to avoid import cycles.
package theme

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Achievement category colors.
var (
	ColorGettingStarted = lipgloss.Color("#22c55e")
	ColorExploring      = lipgloss.Color("#06b6d4")
	ColorGames          = lipgloss.Color("#a855f7")
	ColorStreaks        = lipgloss.Color("#f59e0b")
	ColorDefault        = lipgloss.Color("#9ca3af")
)

// Goal bar thresholds.
var (
	ColorGoalLow  = lipgloss.Color("#d97706") // <50%
	ColorGoalMid  = lipgloss.Color("#3b82f6") // 50-100%
	ColorGoalDone = lipgloss.Color("#22c55e") // met
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorAccent  = lipgloss.Color("#f472b6")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// CategoryColor returns the color for an achievement category name.
func CategoryColor(category string) lipgloss.Color {
	switch category {
	case "Getting Started":
		return ColorGettingStarted
	case "Exploring":
		return ColorExploring
	case "Games":
		return ColorGames
	case "Streaks":
		return ColorStreaks
	default:
		return ColorDefault
	}
}

// GoalColor returns the bar color for a goal completion percentage.
func GoalColor(pct float64) lipgloss.Color {
	switch {
	case pct >= 100:
		return ColorGoalDone
	case pct >= 50:
		return ColorGoalMid
	default:
		return ColorGoalLow
	}
}

// Bar draws a width-cell progress bar for pct (0-100, clamped) followed by
// a percentage label.
func Bar(pct float64, width int, color lipgloss.Color) string {
	if width < 3 {
		width = 3
	}
	clamped := min(max(pct, 0), 100)
	filled := int(clamped / 100 * float64(width))
	empty := width - filled

	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))
	bar += lipgloss.NewStyle().Foreground(ColorBorder).Render(strings.Repeat("░", empty))
	return bar + lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf(" %3.0f%%", pct))
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)
)
