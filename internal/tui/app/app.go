// Package app is the root Bubble Tea model of the parent dashboard.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/storytime/progress/internal/tui/client"
	"github.com/storytime/progress/internal/tui/theme"
	"github.com/storytime/progress/internal/tui/views/achievements"
	"github.com/storytime/progress/internal/tui/views/dashboard"
	"github.com/storytime/progress/internal/tui/views/feed"
	"github.com/storytime/progress/internal/tui/views/status"
)

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayAchievements
	OverlayFeed
)

// Model is the root Bubble Tea model.
type Model struct {
	ws     *client.WSClient
	http   *client.HTTPClient
	ctx    context.Context
	cancel context.CancelFunc

	keys    KeyMap
	width   int
	height  int
	overlay Overlay

	// Sub-views.
	statusBar    status.Model
	dashboard    dashboard.Model
	achievements achievements.Model
	feed         feed.Model

	connected bool
}

// New creates the root model.
func New(ws *client.WSClient, http *client.HTTPClient) Model {
	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		ws:           ws,
		http:         http,
		ctx:          ctx,
		cancel:       cancel,
		keys:         DefaultKeyMap(),
		statusBar:    status.New(),
		dashboard:    dashboard.New(),
		achievements: achievements.New(),
		feed:         feed.New(),
	}
}

// Init starts the WebSocket connection.
func (m Model) Init() tea.Cmd {
	return m.ws.Listen(m.ctx)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.dashboard.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case client.WSConnectedMsg:
		m.connected = true
		m.statusBar.Connected = true
		m.feed.Add(feed.KindConn, "connected")
		return m, tea.Batch(m.ws.ReadLoop(m.ctx), m.fetchAll())

	case client.WSDisconnectedMsg:
		m.connected = false
		m.statusBar.Connected = false
		if msg.Err != nil {
			m.feed.Add(feed.KindConn, "disconnected: "+msg.Err.Error())
		}
		return m, m.ws.Listen(m.ctx)

	case client.WSSnapshotMsg:
		m.dashboard.SetSnapshot(msg.Payload)
		m.setLevel(msg.Payload.Level)
		m.statusBar.Streak = msg.Payload.Today.LearningStreak
		return m, m.ws.ReadLoop(m.ctx)

	case client.WSProfileMsg:
		p := msg.Payload
		m.dashboard.ApplyProfileUpdate(p)
		m.setLevel(p.Level)
		m.statusBar.Streak = p.LearningStreak
		m.statusBar.Warning = p.Warning
		if p.PointsEarned > 0 {
			m.feed.Addf(feed.KindPoints, "+%d points (total %d)", p.PointsEarned, p.TotalPoints)
		}
		if p.Warning != "" {
			m.feed.Add(feed.KindError, p.Warning)
		}
		return m, tea.Batch(m.ws.ReadLoop(m.ctx), m.fetchStats())

	case client.WSAchievementMsg:
		p := msg.Payload
		m.dashboard.AddUnlock(p)
		m.achievements.ApplyUnlock(p.ID, p.UnlockedAt)
		m.feed.Addf(feed.KindAchievement, "%s %s unlocked", p.Badge, p.Title)
		return m, m.ws.ReadLoop(m.ctx)

	case client.WSLevelUpMsg:
		l := msg.Payload.Level
		m.feed.Addf(feed.KindLevel, "%s reached level %d: %s", l.Badge, l.Level, l.Title)
		return m, m.ws.ReadLoop(m.ctx)

	case achievements.LoadedMsg:
		m.achievements.ApplyLoaded(msg)
		if msg.Err != nil {
			m.feed.Add(feed.KindError, "achievements: "+msg.Err.Error())
		}
		return m, nil

	case dashboard.StatsMsg:
		m.dashboard.ApplyStats(msg)
		if msg.Err != nil {
			m.feed.Add(feed.KindError, "stats: "+msg.Err.Error())
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.cancel()
		return m, tea.Quit
	}

	switch m.overlay {
	case OverlayAchievements:
		if key.Matches(msg, m.keys.Escape) {
			m.overlay = OverlayNone
			return m, nil
		}
		m.achievements = m.achievements.Update(msg)
		return m, nil

	case OverlayFeed:
		switch {
		case key.Matches(msg, m.keys.Escape):
			m.overlay = OverlayNone
		case key.Matches(msg, m.keys.Up):
			m.feed.ScrollUp(1)
		case key.Matches(msg, m.keys.Down):
			m.feed.ScrollDown(1)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Achievements):
		m.overlay = OverlayAchievements
		return m, m.fetchAchievements()

	case key.Matches(msg, m.keys.Feed):
		m.overlay = OverlayFeed
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.fetchAll()
	}

	return m, nil
}

func (m *Model) setLevel(l client.LevelInfo) {
	m.statusBar.LevelBadge = l.Current.Badge
	m.statusBar.LevelTitle = l.Current.Title
	m.statusBar.TotalPoints = l.TotalPoints
}

func (m Model) fetchStats() tea.Cmd {
	if m.http == nil {
		return nil
	}
	return dashboard.FetchStatsCmd(m.http)
}

func (m Model) fetchAchievements() tea.Cmd {
	if m.http == nil {
		return nil
	}
	return achievements.FetchCmd(m.http)
}

func (m Model) fetchAll() tea.Cmd {
	return tea.Batch(m.fetchStats(), m.fetchAchievements())
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	switch m.overlay {
	case OverlayAchievements:
		return m.achievements.ViewOverlay(m.width, m.height)
	case OverlayFeed:
		return m.feed.View(m.width, m.height)
	}

	sections := []string{m.statusBar.View()}
	if !m.connected {
		sections = append(sections, lipgloss.NewStyle().Foreground(theme.ColorDanger).Bold(true).
			Render("  DISCONNECTED · Reconnecting..."))
	}
	sections = append(sections, m.dashboard.View(), "", m.helpLine())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) helpLine() string {
	var parts []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, fmt.Sprintf("%s:%s", h.Key, h.Desc))
	}
	return theme.StyleDimmed.Render("  " + strings.Join(parts, "  "))
}
