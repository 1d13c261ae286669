package dashboard

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/storytime/progress/internal/tui/client"
)

func snapshot() client.SnapshotPayload {
	next := client.Level{Level: 2, Title: "Little Explorer", MinPoints: 100, Badge: "🧭"}
	return client.SnapshotPayload{
		Level: client.LevelInfo{
			Current:        client.Level{Level: 1, Title: "Curious Cub", Badge: "🐣", MaxPoints: 99},
			Next:           &next,
			TotalPoints:    40,
			PointsToNext:   60,
			ProgressToNext: 40,
		},
		Today: client.TodayStats{ActivitiesCompletedToday: 2, DailyGoal: 3, GoalProgress: 66.7, LearningStreak: 4},
	}
}

func TestViewBeforeSnapshot(t *testing.T) {
	m := New()
	if m.Loaded() {
		t.Fatal("new dashboard should not be loaded")
	}
	if !strings.Contains(m.View(), "Waiting") {
		t.Error("unloaded view should say it is waiting")
	}
}

func TestViewLevelCard(t *testing.T) {
	m := New()
	m.Width = 100
	m.SetSnapshot(snapshot())

	v := m.View()
	for _, want := range []string{"Level 1 · Curious Cub", "60 to 🧭 Little Explorer", "2/3", "4 days", "None yet"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestViewTopLevel(t *testing.T) {
	m := New()
	snap := snapshot()
	snap.Level.Next = nil
	snap.Level.TotalPoints = 5000
	m.SetSnapshot(snap)
	if !strings.Contains(m.View(), "top level reached") {
		t.Error("terminal level should say top level reached")
	}
}

func TestApplyProfileUpdate(t *testing.T) {
	m := New()
	m.SetSnapshot(snapshot())

	lvl := snapshot().Level
	lvl.TotalPoints = 55
	m.ApplyProfileUpdate(client.ProfileUpdatedPayload{TotalPoints: 55, LearningStreak: 5, Level: lvl})

	if m.Level().TotalPoints != 55 {
		t.Errorf("TotalPoints = %d, want 55", m.Level().TotalPoints)
	}
	if m.today.LearningStreak != 5 {
		t.Errorf("streak = %d, want 5", m.today.LearningStreak)
	}
}

func TestAddUnlockCapsRecent(t *testing.T) {
	m := New()
	m.SetSnapshot(snapshot())
	for i := 0; i < recentLimit+2; i++ {
		m.AddUnlock(client.AchievementUnlockedPayload{
			ID:         fmt.Sprintf("a%d", i),
			Title:      fmt.Sprintf("Achievement %d", i),
			UnlockedAt: time.Now(),
		})
	}
	if len(m.recent) != recentLimit {
		t.Fatalf("recent has %d entries, want %d", len(m.recent), recentLimit)
	}
	if m.recent[0].ID != fmt.Sprintf("a%d", recentLimit+1) {
		t.Errorf("newest unlock should be first, got %q", m.recent[0].ID)
	}
}

func TestApplyStatsShowsWeek(t *testing.T) {
	m := New()
	m.Width = 100
	m.SetSnapshot(snapshot())
	if strings.Contains(m.View(), "This week") {
		t.Fatal("week row should be hidden until fetched")
	}

	m.ApplyStats(StatsMsg{Week: &client.WeeklyStats{ActivitiesCount: 6, WeeklyGoal: 15, GoalProgress: 40}})
	if !strings.Contains(m.View(), "6/15") {
		t.Error("week row should show 6/15")
	}
}
