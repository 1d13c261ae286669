package progress

import "fmt"

// RequirementType names what an achievement measures. The set is closed;
// every variant has exactly one measure in requirementMeasures.
type RequirementType string

const (
	ReqActivitiesCompleted  RequirementType = "activities_completed"
	ReqCategoriesExplored   RequirementType = "categories_explored"
	ReqGamesPlayed          RequirementType = "games_played"
	ReqVocabularyHighScores RequirementType = "vocabulary_high_scores"
	ReqQuizPerfectScores    RequirementType = "quiz_perfect_scores"
	ReqLearningStreak       RequirementType = "learning_streak"
	ReqAllDifficultyLevels  RequirementType = "all_difficulty_levels"
	ReqPerfectWeek          RequirementType = "perfect_week"
)

// RequirementTypes lists every variant.
func RequirementTypes() []RequirementType {
	return []RequirementType{
		ReqActivitiesCompleted,
		ReqCategoriesExplored,
		ReqGamesPlayed,
		ReqVocabularyHighScores,
		ReqQuizPerfectScores,
		ReqLearningStreak,
		ReqAllDifficultyLevels,
		ReqPerfectWeek,
	}
}

// measure reports the profile's current value for a requirement and whether
// the requirement can ever be met.
type measure func(p *Profile) (current int, attainable bool)

var requirementMeasures = map[RequirementType]measure{
	ReqActivitiesCompleted: func(p *Profile) (int, bool) {
		return len(p.Activities), true
	},
	ReqCategoriesExplored: func(p *Profile) (int, bool) {
		return len(p.Metrics.CategoriesExplored), true
	},
	ReqGamesPlayed: func(p *Profile) (int, bool) {
		return p.GameStats.TotalPlayed(), true
	},
	ReqVocabularyHighScores: func(p *Profile) (int, bool) {
		return p.GameStats.Vocabulary.HighScores, true
	},
	ReqQuizPerfectScores: func(p *Profile) (int, bool) {
		return p.GameStats.Comprehension.PerfectScores, true
	},
	ReqLearningStreak: func(p *Profile) (int, bool) {
		return p.Metrics.LearningStreak, true
	},
	ReqAllDifficultyLevels: func(p *Profile) (int, bool) {
		return len(p.Metrics.DifficultyLevelsCompleted), true
	},
	// Daily-goal streaks are not tracked, so a perfect week can never be
	// observed. The achievement stays locked.
	ReqPerfectWeek: func(p *Profile) (int, bool) {
		return 0, false
	},
}

func init() {
	for _, rt := range RequirementTypes() {
		if requirementMeasures[rt] == nil {
			panic(fmt.Sprintf("progress: requirement %q has no measure", rt))
		}
	}
	seen := make(map[string]bool)
	for _, a := range catalog {
		if seen[a.ID] {
			panic("progress: duplicate achievement id " + a.ID)
		}
		seen[a.ID] = true
		if requirementMeasures[a.Requirement.Type] == nil {
			panic(fmt.Sprintf("progress: achievement %s uses unknown requirement %q", a.ID, a.Requirement.Type))
		}
	}
}

// Requirement is the threshold an achievement waits for.
type Requirement struct {
	Type  RequirementType `json:"type"`
	Value int             `json:"value"`
}

// Reward is granted once, when the achievement unlocks.
type Reward struct {
	Points int    `json:"points"`
	Badge  string `json:"badge"`
}

// Category groups related achievements in the UI.
type Category string

const (
	CategoryGettingStarted Category = "Getting Started"
	CategoryExploring      Category = "Exploring"
	CategoryGames          Category = "Games"
	CategoryStreaks        Category = "Streaks"
)

// Achievement describes a single unlockable milestone.
type Achievement struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Category    Category    `json:"category"`
	Requirement Requirement `json:"requirement"`
	Reward      Reward      `json:"reward"`
}

// Qualifies reports whether p meets the requirement right now.
func (a Achievement) Qualifies(p *Profile) bool {
	current, attainable := requirementMeasures[a.Requirement.Type](p)
	return attainable && current >= a.Requirement.Value
}

// Progress reports p's position toward a, capped at the target.
func (a Achievement) Progress(p *Profile) AchievementProgress {
	current, _ := requirementMeasures[a.Requirement.Type](p)
	return AchievementProgress{Current: min(current, a.Requirement.Value), Target: a.Requirement.Value}
}

// Evaluator checks a profile against an ordered achievement catalog.
type Evaluator struct {
	catalog []Achievement
	byID    map[string]Achievement
}

// NewEvaluator creates an evaluator over the built-in catalog.
func NewEvaluator() *Evaluator {
	return newEvaluator(catalog)
}

func newEvaluator(list []Achievement) *Evaluator {
	e := &Evaluator{catalog: list, byID: make(map[string]Achievement, len(list))}
	for _, a := range list {
		e.byID[a.ID] = a
	}
	return e
}

// Catalog returns a copy of all achievements in evaluation order.
func (e *Evaluator) Catalog() []Achievement {
	out := make([]Achievement, len(e.catalog))
	copy(out, e.catalog)
	return out
}

// Lookup returns the achievement with the given id.
func (e *Evaluator) Lookup(id string) (Achievement, bool) {
	a, ok := e.byID[id]
	return a, ok
}

// IsKnown reports whether id names a catalog achievement.
func (e *Evaluator) IsKnown(id string) bool {
	_, ok := e.byID[id]
	return ok
}

// Evaluate returns the achievements p qualifies for that are not yet in
// p.Achievements.Unlocked, in catalog order. It does not modify p; the
// caller records the unlocks.
func (e *Evaluator) Evaluate(p *Profile) []Achievement {
	var out []Achievement
	for _, a := range e.catalog {
		if p.IsUnlocked(a.ID) {
			continue
		}
		if a.Qualifies(p) {
			out = append(out, a)
		}
	}
	return out
}

// Progress returns the progress toward every catalog achievement.
func (e *Evaluator) Progress(p *Profile) map[string]AchievementProgress {
	out := make(map[string]AchievementProgress, len(e.catalog))
	for _, a := range e.catalog {
		out[a.ID] = a.Progress(p)
	}
	return out
}

var catalog = []Achievement{

	// ── Getting Started ────────────────────────────────────────────────

	{
		ID: "first_activity", Title: "First Steps",
		Description: "Complete your very first activity",
		Category:    CategoryGettingStarted,
		Requirement: Requirement{Type: ReqActivitiesCompleted, Value: 1},
		Reward:      Reward{Points: 0, Badge: "🌱"},
	},
	{
		ID: "story_starter", Title: "Story Starter",
		Description: "Complete 5 different activities",
		Category:    CategoryGettingStarted,
		Requirement: Requirement{Type: ReqActivitiesCompleted, Value: 5},
		Reward:      Reward{Points: 25, Badge: "📚"},
	},
	{
		ID: "bookworm", Title: "Bookworm",
		Description: "Complete 10 different activities",
		Category:    CategoryGettingStarted,
		Requirement: Requirement{Type: ReqActivitiesCompleted, Value: 10},
		Reward:      Reward{Points: 50, Badge: "🐛"},
	},
	{
		ID: "super_learner", Title: "Super Learner",
		Description: "Complete 25 different activities",
		Category:    CategoryGettingStarted,
		Requirement: Requirement{Type: ReqActivitiesCompleted, Value: 25},
		Reward:      Reward{Points: 100, Badge: "🌟"},
	},

	// ── Exploring ──────────────────────────────────────────────────────

	{
		ID: "curious_explorer", Title: "Curious Explorer",
		Description: "Try activities from 3 different categories",
		Category:    CategoryExploring,
		Requirement: Requirement{Type: ReqCategoriesExplored, Value: 3},
		Reward:      Reward{Points: 30, Badge: "🔍"},
	},
	{
		ID: "world_explorer", Title: "World Explorer",
		Description: "Try activities from 6 different categories",
		Category:    CategoryExploring,
		Requirement: Requirement{Type: ReqCategoriesExplored, Value: 6},
		Reward:      Reward{Points: 75, Badge: "🌍"},
	},
	{
		ID: "challenge_seeker", Title: "Challenge Seeker",
		Description: "Complete activities at 3 difficulty levels",
		Category:    CategoryExploring,
		Requirement: Requirement{Type: ReqAllDifficultyLevels, Value: 3},
		Reward:      Reward{Points: 50, Badge: "🧗"},
	},

	// ── Games ──────────────────────────────────────────────────────────

	{
		ID: "game_starter", Title: "Game Starter",
		Description: "Play 5 mini-games",
		Category:    CategoryGames,
		Requirement: Requirement{Type: ReqGamesPlayed, Value: 5},
		Reward:      Reward{Points: 20, Badge: "🎮"},
	},
	{
		ID: "game_enthusiast", Title: "Game Enthusiast",
		Description: "Play 25 mini-games",
		Category:    CategoryGames,
		Requirement: Requirement{Type: ReqGamesPlayed, Value: 25},
		Reward:      Reward{Points: 60, Badge: "🕹️"},
	},
	{
		ID: "word_wizard", Title: "Word Wizard",
		Description: "Score 90 or more in 5 vocabulary games",
		Category:    CategoryGames,
		Requirement: Requirement{Type: ReqVocabularyHighScores, Value: 5},
		Reward:      Reward{Points: 40, Badge: "🔤"},
	},
	{
		ID: "quiz_champion", Title: "Quiz Champion",
		Description: "Get a perfect score in 3 story quizzes",
		Category:    CategoryGames,
		Requirement: Requirement{Type: ReqQuizPerfectScores, Value: 3},
		Reward:      Reward{Points: 50, Badge: "🏅"},
	},

	// ── Streaks ────────────────────────────────────────────────────────

	{
		ID: "learning_habit", Title: "Learning Habit",
		Description: "Learn something 3 days in a row",
		Category:    CategoryStreaks,
		Requirement: Requirement{Type: ReqLearningStreak, Value: 3},
		Reward:      Reward{Points: 15, Badge: "✨"},
	},
	{
		ID: "consistent_learner", Title: "Consistent Learner",
		Description: "Learn something 7 days in a row",
		Category:    CategoryStreaks,
		Requirement: Requirement{Type: ReqLearningStreak, Value: 7},
		Reward:      Reward{Points: 70, Badge: "🔥"},
	},
	{
		ID: "dedicated_learner", Title: "Dedicated Learner",
		Description: "Learn something 30 days in a row",
		Category:    CategoryStreaks,
		Requirement: Requirement{Type: ReqLearningStreak, Value: 30},
		Reward:      Reward{Points: 300, Badge: "🗓️"},
	},
	{
		ID: "perfect_week", Title: "Perfect Week",
		Description: "Reach your daily learning goal every day for a week",
		Category:    CategoryStreaks,
		Requirement: Requirement{Type: ReqPerfectWeek, Value: 7},
		Reward:      Reward{Points: 100, Badge: "📅"},
	},
}
