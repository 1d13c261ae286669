// Package achievements provides the achievements modal overlay for the TUI.
package achievements

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/storytime/progress/internal/tui/client"
	"github.com/storytime/progress/internal/tui/theme"
)

// categories defines the tab order for the panel.
var categories = []string{
	"Getting Started",
	"Exploring",
	"Games",
	"Streaks",
}

// LoadedMsg is returned when the /api/achievements fetch completes.
type LoadedMsg struct {
	Items []client.AchievementStatus
	Err   error
}

// FetchCmd returns a Bubble Tea command that fetches achievements via HTTP.
func FetchCmd(h *client.HTTPClient) tea.Cmd {
	return func() tea.Msg {
		items, err := h.GetAchievements()
		return LoadedMsg{Items: items, Err: err}
	}
}

// Model holds the achievements panel state.
type Model struct {
	items     []client.AchievementStatus
	activeTab int
	scroll    int
	loading   bool
	fetchErr  string
}

// New returns a Model in loading state.
func New() Model {
	return Model{loading: true}
}

// ApplyUnlock marks an achievement as unlocked when the WS notification arrives.
func (m *Model) ApplyUnlock(id string, at time.Time) {
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].Unlocked = true
			m.items[i].Progress.Current = m.items[i].Progress.Target
			if m.items[i].UnlockedAt == nil {
				m.items[i].UnlockedAt = &at
			}
			return
		}
	}
}

// Update processes key messages forwarded from the parent when this overlay is active.
func (m Model) Update(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "left", "h":
		if m.activeTab > 0 {
			m.activeTab--
			m.scroll = 0
		}
	case "right", "l":
		if m.activeTab < len(categories)-1 {
			m.activeTab++
			m.scroll = 0
		}
	case "tab":
		m.activeTab = (m.activeTab + 1) % len(categories)
		m.scroll = 0
	case "j", "down":
		m.scroll++
	case "k", "up":
		if m.scroll > 0 {
			m.scroll--
		}
	}
	return m
}

// ApplyLoaded stores fetched achievements.
func (m *Model) ApplyLoaded(msg LoadedMsg) {
	m.loading = false
	if msg.Err != nil {
		m.fetchErr = msg.Err.Error()
	} else {
		m.items = msg.Items
		m.fetchErr = ""
	}
}

// ViewOverlay renders the achievements panel centered in a terminal of size w×h.
func (m Model) ViewOverlay(w, h int) string {
	mw := clamp(w-8, 60, 110)
	mh := max(h-4, 16)

	inner := m.renderInner(mw-4, mh-2)

	box := lipgloss.NewStyle().
		Width(mw).
		Height(mh).
		Padding(1, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder).
		Render(inner)

	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) renderInner(w, h int) string {
	var b strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBright).Render("ACHIEVEMENTS")
	b.WriteString(title + "\n\n")

	if m.loading {
		b.WriteString(theme.StyleDimmed.Render("Loading..."))
		return b.String()
	}
	if m.fetchErr != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("Error: " + m.fetchErr))
		return b.String()
	}

	// Category tab bar.
	var tabs []string
	for i, cat := range categories {
		if i == m.activeTab {
			tabs = append(tabs, lipgloss.NewStyle().
				Bold(true).
				Foreground(theme.CategoryColor(cat)).
				Underline(true).
				Render(cat))
		} else {
			tabs = append(tabs, theme.StyleDimmed.Render(cat))
		}
	}
	b.WriteString(strings.Join(tabs, "  ") + "\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(strings.Repeat("─", w)) + "\n")

	filtered := filterByCategory(m.items, categories[m.activeTab])

	summary := fmt.Sprintf("%d / %d unlocked", countUnlocked(filtered), len(filtered))
	b.WriteString(theme.StyleDimmed.Render(summary) + "\n\n")

	// Each row takes two lines: name + description.
	linesAvail := h - 7
	maxItems := max(linesAvail/2, 1)

	start := clamp(m.scroll, 0, max(len(filtered)-1, 0))

	shown := 0
	for i := start; i < len(filtered) && shown < maxItems; i++ {
		a := filtered[i]

		var lockGlyph, status string
		var nameStyle lipgloss.Style
		if a.Unlocked {
			lockGlyph = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("✓")
			nameStyle = lipgloss.NewStyle().Foreground(theme.ColorBright)
			if a.UnlockedAt != nil {
				status = theme.StyleDimmed.Render(a.UnlockedAt.Local().Format("Jan 2"))
			}
		} else {
			lockGlyph = theme.StyleDimmed.Render("○")
			nameStyle = theme.StyleDimmed
			status = theme.StyleDimmed.Render(fmt.Sprintf("%d/%d", a.Progress.Current, a.Progress.Target))
		}

		nameLine := fmt.Sprintf("%s %s %s %s  %s", lockGlyph, a.Reward.Badge, nameStyle.Render(a.Title), rewardLabel(a.Reward.Points), status)
		descLine := theme.StyleDimmed.Render("    " + truncate(a.Description, w-5))

		b.WriteString(nameLine + "\n")
		b.WriteString(descLine + "\n")
		shown++
	}

	if len(filtered) == 0 {
		b.WriteString(theme.StyleDimmed.Render("No achievements in this category."))
	}

	remaining := len(filtered) - start - shown
	if remaining > 0 {
		b.WriteString("\n" + theme.StyleDimmed.Render(fmt.Sprintf("↓ %d more (j/k to scroll)", remaining)))
	}

	b.WriteString("\n\n" + theme.StyleDimmed.Render("←/→ tab  j/k scroll  esc close"))

	return b.String()
}

func rewardLabel(points int) string {
	if points == 0 {
		return ""
	}
	return lipgloss.NewStyle().Foreground(theme.ColorStreaks).Render(fmt.Sprintf("+%d", points))
}

func filterByCategory(items []client.AchievementStatus, cat string) []client.AchievementStatus {
	var out []client.AchievementStatus
	for _, it := range items {
		if it.Category == cat {
			out = append(out, it)
		}
	}
	return out
}

func countUnlocked(items []client.AchievementStatus) int {
	n := 0
	for _, it := range items {
		if it.Unlocked {
			n++
		}
	}
	return n
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
