package progress

import (
	"fmt"
	"math"
)

// Unbounded marks the open upper end of the final level.
const Unbounded = math.MaxInt

// Level is a named tier derived purely from cumulative points.
type Level struct {
	Level     int    `json:"level"`
	Title     string `json:"title"`
	MinPoints int    `json:"minPoints"`
	MaxPoints int    `json:"maxPoints"`
	Badge     string `json:"badge"`
}

// Terminal reports whether l is the last level.
func (l Level) Terminal() bool {
	return l.MaxPoints == Unbounded
}

// Contains reports whether points falls inside l's range.
func (l Level) Contains(points int) bool {
	return points >= l.MinPoints && points <= l.MaxPoints
}

// levels partitions [0, ∞). Checked at init by mustLevelTable.
var levels = mustLevelTable([]Level{
	{Level: 1, Title: "Curious Cub", MinPoints: 0, MaxPoints: 99, Badge: "🐣"},
	{Level: 2, Title: "Little Explorer", MinPoints: 100, MaxPoints: 249, Badge: "🧭"},
	{Level: 3, Title: "Story Seeker", MinPoints: 250, MaxPoints: 499, Badge: "📖"},
	{Level: 4, Title: "Bright Learner", MinPoints: 500, MaxPoints: 999, Badge: "💡"},
	{Level: 5, Title: "Knowledge Knight", MinPoints: 1000, MaxPoints: 1999, Badge: "🛡️"},
	{Level: 6, Title: "Wisdom Wizard", MinPoints: 2000, MaxPoints: 3999, Badge: "🧙"},
	{Level: 7, Title: "Learning Legend", MinPoints: 4000, MaxPoints: Unbounded, Badge: "🏆"},
})

// Levels returns a copy of the level table in ascending order.
func Levels() []Level {
	out := make([]Level, len(levels))
	copy(out, levels)
	return out
}

// validateLevels checks that table partitions [0, ∞) with no gaps or overlaps.
func validateLevels(table []Level) error {
	if len(table) == 0 {
		return fmt.Errorf("level table is empty")
	}
	if table[0].MinPoints != 0 {
		return fmt.Errorf("level %d starts at %d, want 0", table[0].Level, table[0].MinPoints)
	}
	for i, l := range table {
		if l.MaxPoints < l.MinPoints {
			return fmt.Errorf("level %d has max %d below min %d", l.Level, l.MaxPoints, l.MinPoints)
		}
		if i == 0 {
			continue
		}
		prev := table[i-1]
		if prev.MaxPoints == Unbounded {
			return fmt.Errorf("level %d follows unbounded level %d", l.Level, prev.Level)
		}
		if l.MinPoints != prev.MaxPoints+1 {
			return fmt.Errorf("level %d starts at %d, want %d", l.Level, l.MinPoints, prev.MaxPoints+1)
		}
		if l.Level <= prev.Level {
			return fmt.Errorf("level numbers not ascending at %d", l.Level)
		}
	}
	if last := table[len(table)-1]; last.MaxPoints != Unbounded {
		return fmt.Errorf("final level %d is bounded at %d", last.Level, last.MaxPoints)
	}
	return nil
}

func mustLevelTable(table []Level) []Level {
	if err := validateLevels(table); err != nil {
		panic("progress: " + err.Error())
	}
	return table
}

// CurrentLevel returns the level whose range contains totalPoints.
// Negative points are a programming error and panic.
func CurrentLevel(totalPoints int) Level {
	if totalPoints < 0 {
		panic(fmt.Sprintf("progress: negative points %d", totalPoints))
	}
	for _, l := range levels {
		if l.Contains(totalPoints) {
			return l
		}
	}
	// Unreachable for a validated table.
	return levels[len(levels)-1]
}

// nextLevel returns the level after l, or false when l is terminal.
func nextLevel(l Level) (Level, bool) {
	for i, candidate := range levels {
		if candidate.Level == l.Level && i+1 < len(levels) {
			return levels[i+1], true
		}
	}
	return Level{}, false
}

// ProgressToNextLevel returns how far totalPoints is through current toward
// the next level, as a percentage in [0, 100]. The terminal level is always
// 100.
func ProgressToNextLevel(totalPoints int, current Level) float64 {
	next, ok := nextLevel(current)
	if !ok || current.Terminal() {
		return 100
	}
	pointsNeeded := next.MinPoints - totalPoints
	span := next.MinPoints - current.MinPoints
	if span <= 0 {
		return 100
	}
	pct := float64(span-pointsNeeded) / float64(span) * 100
	return min(max(pct, 0), 100)
}

// LevelInfo is the display-ready level position for a point total.
type LevelInfo struct {
	Current        Level   `json:"current"`
	Next           *Level  `json:"next,omitempty"`
	TotalPoints    int     `json:"totalPoints"`
	PointsToNext   int     `json:"pointsToNext"`
	ProgressToNext float64 `json:"progressToNext"`
}

// LevelInfoFor computes the level position for totalPoints.
func LevelInfoFor(totalPoints int) LevelInfo {
	cur := CurrentLevel(totalPoints)
	info := LevelInfo{
		Current:        cur,
		TotalPoints:    totalPoints,
		ProgressToNext: ProgressToNextLevel(totalPoints, cur),
	}
	if next, ok := nextLevel(cur); ok {
		info.Next = &next
		info.PointsToNext = next.MinPoints - totalPoints
	}
	return info
}
