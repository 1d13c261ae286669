package api

import (
	"time"

	"github.com/storytime/progress/internal/progress"
)

type MessageType string

const (
	MsgSnapshot            MessageType = "snapshot"
	MsgProfileUpdated      MessageType = "profile_updated"
	MsgAchievementUnlocked MessageType = "achievement_unlocked"
	MsgLevelUp             MessageType = "level_up"
)

type WSMessage struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload"`
}

type SnapshotPayload struct {
	Level  progress.LevelInfo             `json:"level"`
	Today  progress.TodayStats            `json:"today"`
	Recent []progress.UnlockedAchievement `json:"recent"`
	Stats  progress.GameStats             `json:"gameStats"`
}

type ProfileUpdatedPayload struct {
	PointsEarned int                `json:"pointsEarned"`
	TotalPoints  int                `json:"totalPoints"`
	Streak       int                `json:"learningStreak"`
	Level        progress.LevelInfo `json:"level"`
	Warning      string             `json:"warning,omitempty"`
}

type AchievementUnlockedPayload struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Badge       string    `json:"badge"`
	Points      int       `json:"points"`
	UnlockedAt  time.Time `json:"unlockedAt"`
}

type LevelUpPayload struct {
	Level progress.Level `json:"level"`
}

func newAchievementPayload(a progress.Achievement, u progress.AchievementUnlock) AchievementUnlockedPayload {
	return AchievementUnlockedPayload{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Category:    string(a.Category),
		Badge:       a.Reward.Badge,
		Points:      a.Reward.Points,
		UnlockedAt:  u.UnlockedAt,
	}
}

func newProfileUpdatedPayload(r progress.Result) ProfileUpdatedPayload {
	p := ProfileUpdatedPayload{
		PointsEarned: r.PointsEarned,
		TotalPoints:  r.Profile.Metrics.TotalPoints,
		Streak:       r.Profile.Metrics.LearningStreak,
		Level:        progress.LevelInfoFor(r.Profile.Metrics.TotalPoints),
	}
	if r.SaveErr != nil {
		p.Warning = saveWarning
	}
	return p
}
