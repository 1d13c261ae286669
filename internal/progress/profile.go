package progress

import (
	"encoding/json"
	"maps"
	"slices"
	"sort"
	"time"
)

// profileVersion is bumped when the schema changes. Load backfills fields
// that older blobs lack, so bumps never invalidate stored data.
const profileVersion = 2

const (
	defaultDailyLearningGoal  = 3
	defaultWeeklyLearningGoal = 15
)

// Profile is the persistent aggregate for the single user of a device.
// The whole profile is serialized and written on every mutation.
type Profile struct {
	Version      int                        `json:"version"`
	Activities   map[string]*ActivityRecord `json:"activities"`
	GameStats    GameStats                  `json:"gameStats"`
	Achievements AchievementState           `json:"achievements"`
	Metrics      Metrics                    `json:"metrics"`
	Preferences  Preferences                `json:"preferences"`
}

// ActivityRecord tracks one learning activity (story, song, craft).
type ActivityRecord struct {
	CompletedAt     time.Time    `json:"completedAt"`
	CompletionCount int          `json:"completionCount"`
	Category        string       `json:"category"`
	Difficulty      string       `json:"difficulty"`
	BestScore       int          `json:"bestScore"`
	GameResults     []GameResult `json:"gameResults"`
}

// GameResult is one play-through of a mini-game attached to an activity.
type GameResult struct {
	ID       string         `json:"id"`
	GameType GameType       `json:"gameType"`
	Score    int            `json:"score"`
	PlayedAt time.Time      `json:"playedAt"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// GameTypeStats aggregates every play of one game type.
type GameTypeStats struct {
	Played        int     `json:"played"`
	AverageScore  float64 `json:"averageScore"`
	TotalScore    int     `json:"totalScore"`
	PerfectScores int     `json:"perfectScores"`
	HighScores    int     `json:"highScores"`
}

// GameStats holds one GameTypeStats per game type. The JSON keys match the
// names the mobile app has always stored.
type GameStats struct {
	Vocabulary    GameTypeStats `json:"vocabularyGames"`
	Comprehension GameTypeStats `json:"comprehensionGames"`
	Memory        GameTypeStats `json:"memoryGames"`
	Pattern       GameTypeStats `json:"patternGames"`
}

// For returns the stats bucket for gt. gt must be a known game type.
func (g *GameStats) For(gt GameType) *GameTypeStats {
	switch gt {
	case GameVocabulary:
		return &g.Vocabulary
	case GameComprehension:
		return &g.Comprehension
	case GameMemory:
		return &g.Memory
	case GamePattern:
		return &g.Pattern
	}
	panic("progress: unknown game type " + string(gt))
}

// TotalPlayed sums plays across every game type.
func (g GameStats) TotalPlayed() int {
	return g.Vocabulary.Played + g.Comprehension.Played + g.Memory.Played + g.Pattern.Played
}

// AchievementState records unlocks and per-achievement progress.
type AchievementState struct {
	Unlocked []AchievementUnlock            `json:"unlocked"`
	Progress map[string]AchievementProgress `json:"progress"`
}

// AchievementUnlock marks a one-time unlock. An ID appears at most once.
type AchievementUnlock struct {
	AchievementID string    `json:"achievementId"`
	UnlockedAt    time.Time `json:"unlockedAt"`
}

// AchievementProgress is how far the profile is toward an achievement.
type AchievementProgress struct {
	Current int `json:"current"`
	Target  int `json:"target"`
}

// Metrics are the derived counters updated alongside every activity.
type Metrics struct {
	TotalPoints               int        `json:"totalPoints"`
	LearningStreak            int        `json:"learningStreak"`
	LongestLearningStreak     int        `json:"longestLearningStreak"`
	LastLearningDate          *time.Time `json:"lastLearningDate"`
	CategoriesExplored        StringSet  `json:"categoriesExplored"`
	DifficultyLevelsCompleted StringSet  `json:"difficultyLevelsCompleted"`
}

// Preferences are user-tunable settings. The engine only changes them on an
// explicit UpdatePreferences call.
type Preferences struct {
	DailyLearningGoal  int    `json:"dailyLearningGoal"`
	WeeklyLearningGoal int    `json:"weeklyLearningGoal"`
	Language           string `json:"language,omitempty"`
}

// DefaultProfile returns the profile a new device starts with.
func DefaultProfile() *Profile {
	return &Profile{
		Version:    profileVersion,
		Activities: make(map[string]*ActivityRecord),
		Achievements: AchievementState{
			Unlocked: []AchievementUnlock{},
			Progress: make(map[string]AchievementProgress),
		},
		Metrics: Metrics{
			CategoriesExplored:        StringSet{},
			DifficultyLevelsCompleted: StringSet{},
		},
		Preferences: DefaultPreferences(),
	}
}

// DefaultPreferences returns the out-of-the-box learning goals.
func DefaultPreferences() Preferences {
	return Preferences{
		DailyLearningGoal:  defaultDailyLearningGoal,
		WeeklyLearningGoal: defaultWeeklyLearningGoal,
	}
}

// IsUnlocked reports whether id is already in the unlocked list.
func (p *Profile) IsUnlocked(id string) bool {
	for _, u := range p.Achievements.Unlocked {
		if u.AchievementID == id {
			return true
		}
	}
	return false
}

// normalize repairs a freshly decoded profile: nil collections become empty,
// out-of-range values are pulled back to their invariants, and totals that
// older schema versions did not store are reconstructed.
func (p *Profile) normalize() {
	p.Version = profileVersion
	if p.Activities == nil {
		p.Activities = make(map[string]*ActivityRecord)
	}
	for id, rec := range p.Activities {
		if rec == nil {
			delete(p.Activities, id)
			continue
		}
		if rec.CompletionCount < 1 {
			rec.CompletionCount = 1
		}
		if rec.GameResults == nil {
			rec.GameResults = []GameResult{}
		}
	}
	if p.Achievements.Unlocked == nil {
		p.Achievements.Unlocked = []AchievementUnlock{}
	}
	p.Achievements.Unlocked = dedupeUnlocks(p.Achievements.Unlocked)
	if p.Achievements.Progress == nil {
		p.Achievements.Progress = make(map[string]AchievementProgress)
	}
	if p.Metrics.CategoriesExplored == nil {
		p.Metrics.CategoriesExplored = StringSet{}
	}
	if p.Metrics.DifficultyLevelsCompleted == nil {
		p.Metrics.DifficultyLevelsCompleted = StringSet{}
	}
	if p.Metrics.TotalPoints < 0 {
		p.Metrics.TotalPoints = 0
	}
	if p.Metrics.LongestLearningStreak < p.Metrics.LearningStreak {
		p.Metrics.LongestLearningStreak = p.Metrics.LearningStreak
	}
	for _, gt := range GameTypes() {
		backfillTotal(p.GameStats.For(gt))
	}
	if p.Preferences.DailyLearningGoal < 1 {
		p.Preferences.DailyLearningGoal = defaultDailyLearningGoal
	}
	if p.Preferences.WeeklyLearningGoal < 1 {
		p.Preferences.WeeklyLearningGoal = defaultWeeklyLearningGoal
	}
}

// backfillTotal reconstructs TotalScore for stats written before it was
// stored, when only the running mean was kept.
func backfillTotal(s *GameTypeStats) {
	if s.Played > 0 && s.TotalScore == 0 && s.AverageScore > 0 {
		s.TotalScore = int(s.AverageScore*float64(s.Played) + 0.5)
	}
}

// dedupeUnlocks keeps the first occurrence of every achievement ID.
func dedupeUnlocks(in []AchievementUnlock) []AchievementUnlock {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, u := range in {
		if seen[u.AchievementID] {
			continue
		}
		seen[u.AchievementID] = true
		out = append(out, u)
	}
	return out
}

// Clone returns a deep copy sharing no maps or slices with p.
func (p *Profile) Clone() *Profile {
	cp := *p
	cp.Activities = make(map[string]*ActivityRecord, len(p.Activities))
	for id, rec := range p.Activities {
		cp.Activities[id] = rec.clone()
	}
	cp.Achievements.Unlocked = slices.Clone(p.Achievements.Unlocked)
	if cp.Achievements.Unlocked == nil {
		cp.Achievements.Unlocked = []AchievementUnlock{}
	}
	cp.Achievements.Progress = maps.Clone(p.Achievements.Progress)
	if cp.Achievements.Progress == nil {
		cp.Achievements.Progress = make(map[string]AchievementProgress)
	}
	if p.Metrics.LastLearningDate != nil {
		d := *p.Metrics.LastLearningDate
		cp.Metrics.LastLearningDate = &d
	}
	cp.Metrics.CategoriesExplored = p.Metrics.CategoriesExplored.Clone()
	cp.Metrics.DifficultyLevelsCompleted = p.Metrics.DifficultyLevelsCompleted.Clone()
	return &cp
}

func (r *ActivityRecord) clone() *ActivityRecord {
	cp := *r
	cp.GameResults = make([]GameResult, len(r.GameResults))
	for i, gr := range r.GameResults {
		gr.Extra = cloneExtra(gr.Extra)
		cp.GameResults[i] = gr
	}
	return &cp
}

// cloneExtra deep-copies a game's free-form data. Nested JSON objects and
// arrays are copied; any other value is kept as is.
func cloneExtra(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneExtra(v)
	case []any:
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = cloneValue(x)
		}
		return out
	default:
		return v
	}
}

// StringSet is an unordered set of strings that serializes as a sorted JSON
// array, so equal sets always produce identical bytes.
type StringSet map[string]struct{}

// Add inserts v and reports whether it was new.
func (s StringSet) Add(v string) bool {
	if _, ok := s[v]; ok {
		return false
	}
	s[v] = struct{}{}
	return true
}

// Has reports whether v is in the set.
func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Sorted returns the members in ascending order.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Clone copies the set. A nil set clones to an empty one.
func (s StringSet) Clone() StringSet {
	cp := make(StringSet, len(s))
	for v := range s {
		cp[v] = struct{}{}
	}
	return cp
}

func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *StringSet) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	set := make(StringSet, len(items))
	for _, v := range items {
		set[v] = struct{}{}
	}
	*s = set
	return nil
}
