// Package feed provides a scrollable overlay of live progress events.
package feed

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/storytime/progress/internal/tui/theme"
)

const maxEntries = 200

// Entry kinds.
const (
	KindPoints      = "pts"
	KindAchievement = "ach"
	KindLevel       = "lvl"
	KindConn        = "conn"
	KindError       = "err"
)

// Entry is a single feed line.
type Entry struct {
	Time    time.Time
	Kind    string
	Message string
}

// Model holds the feed state.
type Model struct {
	Entries []Entry
	Offset  int // scroll offset (from bottom)
}

// New creates an empty feed.
func New() Model {
	return Model{}
}

// Add appends an entry and caps the buffer.
func (m *Model) Add(kind, message string) {
	m.Entries = append(m.Entries, Entry{
		Time:    time.Now(),
		Kind:    kind,
		Message: message,
	})
	if len(m.Entries) > maxEntries {
		m.Entries = m.Entries[len(m.Entries)-maxEntries:]
	}
	// Jump back to the newest entry.
	m.Offset = 0
}

// Addf is Add with fmt.Sprintf formatting.
func (m *Model) Addf(kind, format string, args ...any) {
	m.Add(kind, fmt.Sprintf(format, args...))
}

// ScrollUp moves the viewport toward older entries.
func (m *Model) ScrollUp(n int) {
	m.Offset = min(m.Offset+n, max(len(m.Entries)-1, 0))
}

// ScrollDown moves the viewport toward newer entries.
func (m *Model) ScrollDown(n int) {
	m.Offset = max(m.Offset-n, 0)
}

func panelStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder)
}

// View renders the feed as an overlay panel.
func (m Model) View(width, height int) string {
	innerW := max(width-4, 20)
	visibleLines := max(height-6, 3)

	title := theme.StyleHeader.Render(" ACTIVITY FEED ")
	help := theme.StyleDimmed.Render(fmt.Sprintf("j/k:scroll  esc:close  %d events", len(m.Entries)))

	if len(m.Entries) == 0 {
		body := theme.StyleDimmed.Render("  Nothing has happened yet.")
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", help)
		return panelStyle(innerW).Render(content)
	}

	end := max(len(m.Entries)-m.Offset, 0)
	start := max(end-visibleLines, 0)

	var lines []string
	for i := start; i < end; i++ {
		e := m.Entries[i]
		tsStr := theme.StyleDimmed.Render(e.Time.Format("15:04:05"))
		kindStr := lipgloss.NewStyle().Foreground(kindColor(e.Kind)).Width(5).Render(e.Kind)
		msgStr := e.Message
		if innerW > 20 && len(msgStr) > innerW-16 {
			msgStr = msgStr[:innerW-19] + "..."
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", tsStr, kindStr, msgStr))
	}

	body := strings.Join(lines, "\n")
	scrollIndicator := ""
	if m.Offset > 0 {
		scrollIndicator = theme.StyleDimmed.Render(fmt.Sprintf(" ↓ %d newer", m.Offset))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, body, scrollIndicator, help)
	return panelStyle(innerW).Render(content)
}

func kindColor(kind string) lipgloss.Color {
	switch kind {
	case KindPoints:
		return theme.ColorGoalMid
	case KindAchievement:
		return theme.ColorStreaks
	case KindLevel:
		return theme.ColorAccent
	case KindError:
		return theme.ColorDanger
	default:
		return theme.ColorDimmed
	}
}
