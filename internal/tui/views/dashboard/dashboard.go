// Package dashboard renders the level card, goal bars, recent achievements
// and per-game stats.
package dashboard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/storytime/progress/internal/tui/client"
	"github.com/storytime/progress/internal/tui/theme"
)

const recentLimit = 5

// StatsMsg is returned when the today/week fetch completes.
type StatsMsg struct {
	Today *client.TodayStats
	Week  *client.WeeklyStats
	Err   error
}

// FetchStatsCmd refreshes the goal counters, which websocket updates do not
// carry.
func FetchStatsCmd(h *client.HTTPClient) tea.Cmd {
	return func() tea.Msg {
		today, err := h.GetToday()
		if err != nil {
			return StatsMsg{Err: err}
		}
		week, err := h.GetWeek()
		return StatsMsg{Today: today, Week: week, Err: err}
	}
}

// Model holds the dashboard state.
type Model struct {
	Width int

	level  client.LevelInfo
	today  client.TodayStats
	week   *client.WeeklyStats
	recent []client.UnlockedAchievement
	stats  client.GameStats
	loaded bool
}

// New creates a dashboard model.
func New() Model {
	return Model{}
}

// Loaded reports whether a snapshot has arrived.
func (m Model) Loaded() bool { return m.loaded }

// Level returns the last known level position.
func (m Model) Level() client.LevelInfo { return m.level }

// SetSnapshot replaces all state with a server snapshot.
func (m *Model) SetSnapshot(p client.SnapshotPayload) {
	m.level = p.Level
	m.today = p.Today
	m.recent = p.Recent
	m.stats = p.Stats
	m.loaded = true
}

// ApplyProfileUpdate folds a profile_updated message into the card.
func (m *Model) ApplyProfileUpdate(p client.ProfileUpdatedPayload) {
	m.level = p.Level
	m.today.LearningStreak = p.LearningStreak
}

// ApplyStats stores freshly fetched goal counters.
func (m *Model) ApplyStats(msg StatsMsg) {
	if msg.Today != nil {
		m.today = *msg.Today
	}
	if msg.Week != nil {
		m.week = msg.Week
	}
}

// AddUnlock puts a just-unlocked achievement at the top of the recent list.
func (m *Model) AddUnlock(p client.AchievementUnlockedPayload) {
	u := client.UnlockedAchievement{
		Achievement: client.Achievement{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			Category:    p.Category,
			Reward:      client.Reward{Points: p.Points, Badge: p.Badge},
		},
		UnlockedAt: p.UnlockedAt,
	}
	m.recent = append([]client.UnlockedAchievement{u}, m.recent...)
	if len(m.recent) > recentLimit {
		m.recent = m.recent[:recentLimit]
	}
}

// View renders the dashboard.
func (m Model) View() string {
	width := max(m.Width, 40)
	if !m.loaded {
		return theme.StyleDimmed.Render("  Waiting for progress data...")
	}

	sections := []string{
		m.renderLevelCard(width),
		m.renderGoals(width),
		m.renderRecent(),
		m.renderGameStats(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderLevelCard(width int) string {
	cur := m.level.Current
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBright).
		Render(fmt.Sprintf("%s Level %d · %s", cur.Badge, cur.Level, cur.Title))

	var next string
	if m.level.Next != nil {
		next = fmt.Sprintf("%d pts · %d to %s %s",
			m.level.TotalPoints, m.level.PointsToNext, m.level.Next.Badge, m.level.Next.Title)
	} else {
		next = fmt.Sprintf("%d pts · top level reached", m.level.TotalPoints)
	}

	barWidth := max(min(width-12, 50), 10)
	bar := theme.Bar(m.level.ProgressToNext, barWidth, theme.ColorAccent)

	content := lipgloss.JoinVertical(lipgloss.Left, title, theme.StyleDimmed.Render(next), bar)
	return theme.StyleBorder.Width(width-2).Padding(0, 1).Render(content)
}

func (m Model) renderGoals(width int) string {
	barWidth := max(min(width-40, 30), 10)

	lines := []string{
		fmt.Sprintf("  Today      %d/%d  %s",
			m.today.ActivitiesCompletedToday, m.today.DailyGoal,
			theme.Bar(m.today.GoalProgress, barWidth, theme.GoalColor(m.today.GoalProgress))),
	}
	if m.week != nil {
		lines = append(lines, fmt.Sprintf("  This week  %d/%d  %s",
			m.week.ActivitiesCount, m.week.WeeklyGoal,
			theme.Bar(m.week.GoalProgress, barWidth, theme.GoalColor(m.week.GoalProgress))))
	}
	lines = append(lines, lipgloss.NewStyle().Foreground(theme.ColorStreaks).
		Render(fmt.Sprintf("  Streak     🔥 %d days", m.today.LearningStreak)))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderRecent() string {
	header := theme.StyleHeader.Render("  Recent achievements")
	if len(m.recent) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, "", header, theme.StyleDimmed.Render("  None yet. Complete a story to earn the first one!"))
	}

	lines := []string{"", header}
	for _, a := range m.recent {
		name := lipgloss.NewStyle().Foreground(theme.CategoryColor(a.Category)).Render(a.Title)
		reward := ""
		if a.Reward.Points > 0 {
			reward = theme.StyleDimmed.Render(fmt.Sprintf(" +%d", a.Reward.Points))
		}
		when := theme.StyleDimmed.Render(a.UnlockedAt.Local().Format("Jan 2"))
		lines = append(lines, fmt.Sprintf("  %s %s%s  %s", a.Reward.Badge, name, reward, when))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderGameStats() string {
	dim := theme.StyleDimmed
	rows := []struct {
		name string
		s    client.GameTypeStats
	}{
		{"Vocabulary", m.stats.Vocabulary},
		{"Comprehension", m.stats.Comprehension},
		{"Memory", m.stats.Memory},
		{"Pattern", m.stats.Pattern},
	}

	lines := []string{
		"",
		theme.StyleHeader.Render("  Games"),
		dim.Render(fmt.Sprintf("  %-14s %6s %6s %8s", "Type", "Played", "Avg", "Perfect")),
		dim.Render("  " + strings.Repeat("─", 37)),
	}
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("  %-14s %6d %6.1f %8d", r.name, r.s.Played, r.s.AverageScore, r.s.PerfectScores))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
