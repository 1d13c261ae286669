// Package client provides WebSocket and HTTP clients for the Storytime
// progress API. Types mirror the wire protocol without importing server
// packages.
package client

import (
	"encoding/json"
	"time"
)

// MessageType identifies the kind of WebSocket message.
type MessageType string

const (
	MsgSnapshot            MessageType = "snapshot"
	MsgProfileUpdated      MessageType = "profile_updated"
	MsgAchievementUnlocked MessageType = "achievement_unlocked"
	MsgLevelUp             MessageType = "level_up"
)

// WSMessage is the envelope for all WebSocket messages.
type WSMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Level is one named tier.
type Level struct {
	Level     int    `json:"level"`
	Title     string `json:"title"`
	MinPoints int    `json:"minPoints"`
	MaxPoints int    `json:"maxPoints"`
	Badge     string `json:"badge"`
}

// LevelInfo is the child's position within the level table.
type LevelInfo struct {
	Current        Level   `json:"current"`
	Next           *Level  `json:"next,omitempty"`
	TotalPoints    int     `json:"totalPoints"`
	PointsToNext   int     `json:"pointsToNext"`
	ProgressToNext float64 `json:"progressToNext"`
}

type TodayStats struct {
	Date                     string   `json:"date"`
	ActivitiesCompleted      []string `json:"activitiesCompleted"`
	ActivitiesCompletedToday int      `json:"activitiesCompletedToday"`
	DailyGoal                int      `json:"dailyGoal"`
	GoalProgress             float64  `json:"goalProgress"`
	LearningStreak           int      `json:"learningStreak"`
}

type WeeklyStats struct {
	From            string  `json:"from"`
	To              string  `json:"to"`
	ActivitiesCount int     `json:"activitiesCount"`
	GamesPlayed     int     `json:"gamesPlayed"`
	WeeklyGoal      int     `json:"weeklyGoal"`
	GoalProgress    float64 `json:"goalProgress"`
}

type Reward struct {
	Points int    `json:"points"`
	Badge  string `json:"badge"`
}

type Progress struct {
	Current int `json:"current"`
	Target  int `json:"target"`
}

// Achievement mirrors a catalog entry.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Reward      Reward `json:"reward"`
}

// AchievementStatus is one row of GET /api/achievements.
type AchievementStatus struct {
	Achievement
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlockedAt,omitempty"`
	Progress   Progress   `json:"progress"`
}

// UnlockedAchievement is one row of GET /api/achievements/recent.
type UnlockedAchievement struct {
	Achievement
	UnlockedAt time.Time `json:"unlockedAt"`
}

type GameTypeStats struct {
	Played        int     `json:"played"`
	AverageScore  float64 `json:"averageScore"`
	PerfectScores int     `json:"perfectScores"`
	HighScores    int     `json:"highScores"`
}

type GameStats struct {
	Vocabulary    GameTypeStats `json:"vocabularyGames"`
	Comprehension GameTypeStats `json:"comprehensionGames"`
	Memory        GameTypeStats `json:"memoryGames"`
	Pattern       GameTypeStats `json:"patternGames"`
}

// --- Payloads ---

type SnapshotPayload struct {
	Level  LevelInfo             `json:"level"`
	Today  TodayStats            `json:"today"`
	Recent []UnlockedAchievement `json:"recent"`
	Stats  GameStats             `json:"gameStats"`
}

type ProfileUpdatedPayload struct {
	PointsEarned   int       `json:"pointsEarned"`
	TotalPoints    int       `json:"totalPoints"`
	LearningStreak int       `json:"learningStreak"`
	Level          LevelInfo `json:"level"`
	Warning        string    `json:"warning,omitempty"`
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
	Level Level `json:"level"`
}
