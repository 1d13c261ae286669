package progress

import (
	"math"
	"time"
)

// Points awarded for finishing an activity, independent of any game score.
const activityCompletionPoints = 10

// Score thresholds for game rewards and counters.
const (
	perfectScore = 100
	highScore    = 90
	goodScore    = 75
)

// StreakUpdate is the result of applying a learning day to the streak.
type StreakUpdate struct {
	LearningStreak        int
	LongestLearningStreak int
	LastLearningDate      time.Time
}

// UpdateStreak applies a learning event on today to m's streak counters.
// Repeats on the same calendar day leave the streak unchanged, a learning
// day directly after the last one extends it, and any longer gap (or no
// prior day) restarts it at 1. Calendar days are taken in today's location.
func UpdateStreak(m Metrics, today time.Time) StreakUpdate {
	streak := 1
	if m.LastLearningDate != nil {
		switch daysBetween(*m.LastLearningDate, today) {
		case 0:
			streak = m.LearningStreak
		case 1:
			streak = m.LearningStreak + 1
		}
	}
	return StreakUpdate{
		LearningStreak:        streak,
		LongestLearningStreak: max(m.LongestLearningStreak, streak),
		LastLearningDate:      today,
	}
}

// apply writes u into m.
func (u StreakUpdate) apply(m *Metrics) {
	m.LearningStreak = u.LearningStreak
	m.LongestLearningStreak = u.LongestLearningStreak
	d := u.LastLearningDate
	m.LastLearningDate = &d
}

// RecordCategoryAndDifficulty adds category and difficulty to the explored
// sets. Empty values are ignored.
func RecordCategoryAndDifficulty(m *Metrics, category, difficulty string) {
	if m.CategoriesExplored == nil {
		m.CategoriesExplored = StringSet{}
	}
	if m.DifficultyLevelsCompleted == nil {
		m.DifficultyLevelsCompleted = StringSet{}
	}
	if category != "" {
		m.CategoriesExplored.Add(category)
	}
	if difficulty != "" {
		m.DifficultyLevelsCompleted.Add(difficulty)
	}
}

// GamePoints returns the reward for one play of gt scoring score.
func GamePoints(gt GameType, score int) int {
	base := gt.basePoints()
	switch {
	case score >= perfectScore:
		return base * 3
	case score >= highScore:
		return base * 2
	case score >= goodScore:
		return int(math.Round(float64(base) * 1.5))
	default:
		return base
	}
}

// recordScore folds score into s. The mean is derived from the running
// total so repeated updates never accumulate rounding drift.
func recordScore(s *GameTypeStats, gt GameType, score int) {
	s.Played++
	s.TotalScore += score
	s.AverageScore = float64(s.TotalScore) / float64(s.Played)
	if score == perfectScore {
		s.PerfectScores++
	}
	// Only vocabulary games have ever counted high scores; the other families
	// keep the field at zero.
	if gt == GameVocabulary && score >= highScore {
		s.HighScores++
	}
}

// daysBetween counts calendar days from a to b, using b's location for both.
func daysBetween(a, b time.Time) int {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
