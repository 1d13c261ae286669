package progress

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AchievementCallback is invoked once for every newly unlocked achievement.
type AchievementCallback func(a Achievement, unlock AchievementUnlock)

// UpdateCallback is invoked after every successful mutation with the result
// handed back to the caller.
type UpdateCallback func(r Result)

// Result is what a mutating operation returns. Profile is a snapshot the
// caller may keep; it shares nothing with the engine.
type Result struct {
	Profile       *Profile
	PointsEarned  int
	NewlyUnlocked []Achievement
	Level         Level
	LeveledUp     bool

	// SaveErr is set when the profile could not be persisted. The in-memory
	// profile is still updated and the session can continue.
	SaveErr error
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the time zone that calendar days are counted in.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.loc = loc }
}

// WithEvaluator replaces the achievement evaluator.
func WithEvaluator(ev *Evaluator) Option {
	return func(e *Engine) { e.eval = ev }
}

// WithLogger sets the logger used for storage and data-integrity warnings.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// Engine is the only writer of the profile. Operations are serialized: each
// one mutates, persists and evaluates before the next one starts, so store
// writes happen in call order.
type Engine struct {
	mu      sync.Mutex
	store   *ProfileStore
	profile *Profile
	loadErr error

	eval *Evaluator
	now  func() time.Time
	loc  *time.Location
	log  zerolog.Logger

	onAchievement []AchievementCallback
	onUpdate      []UpdateCallback

	// Callbacks run outside mu but in commit order: every mutation takes a
	// ticket under mu and waits for the previous ticket to be delivered.
	ticket    uint64
	turnMu    sync.Mutex
	turn      *sync.Cond
	delivered uint64
}

// NewEngine loads the profile from store and returns an engine owning it.
// A profile that cannot be read is replaced by the default profile; the
// failure is logged and available from LoadErr.
func NewEngine(ctx context.Context, store *ProfileStore, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New("progress: nil profile store")
	}
	e := &Engine{
		store: store,
		eval:  NewEvaluator(),
		now:   time.Now,
		loc:   time.Local,
		log:   zerolog.Nop(),
	}
	e.turn = sync.NewCond(&e.turnMu)
	for _, opt := range opts {
		opt(e)
	}

	p, err := store.Load(ctx)
	if err != nil {
		e.log.Warn().Err(err).Msg("using default profile")
		e.loadErr = err
	}
	e.profile = p
	e.logUnknownUnlocks()
	return e, nil
}

// LoadErr returns the error hit while loading the profile, if any.
func (e *Engine) LoadErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadErr
}

// OnAchievement registers cb for newly unlocked achievements.
func (e *Engine) OnAchievement(cb AchievementCallback) {
	e.mu.Lock()
	e.onAchievement = append(e.onAchievement, cb)
	e.mu.Unlock()
}

// OnUpdate registers cb for every completed mutation. Callbacks see
// mutations in the order they were applied. They may read from the engine
// but must not mutate it.
func (e *Engine) OnUpdate(cb UpdateCallback) {
	e.mu.Lock()
	e.onUpdate = append(e.onUpdate, cb)
	e.mu.Unlock()
}

// RecordActivityCompletion records that activityID was finished. The
// activity is created on first completion.
func (e *Engine) RecordActivityCompletion(ctx context.Context, activityID, category, difficulty string) (Result, error) {
	if activityID == "" {
		return Result{}, ErrEmptyActivityID
	}

	e.mu.Lock()
	now := e.today()
	before := e.profile.Metrics.TotalPoints

	rec := e.activity(activityID, now)
	rec.CompletionCount++
	rec.CompletedAt = now
	rec.Category = category
	rec.Difficulty = difficulty

	m := &e.profile.Metrics
	m.TotalPoints += activityCompletionPoints
	UpdateStreak(*m, now).apply(m)
	RecordCategoryAndDifficulty(m, category, difficulty)

	res, notify := e.commit(ctx, before, now)
	e.mu.Unlock()

	notify()
	return res, nil
}

// RecordGameResult records one play of a mini-game attached to activityID.
// An unknown game type or an out-of-range score is rejected before anything
// changes.
func (e *Engine) RecordGameResult(ctx context.Context, activityID, gameType string, score int, extra map[string]any) (Result, error) {
	if activityID == "" {
		return Result{}, ErrEmptyActivityID
	}
	gt, err := ParseGameType(gameType)
	if err != nil {
		return Result{}, err
	}
	if score < 0 || score > perfectScore {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidScore, score)
	}

	e.mu.Lock()
	now := e.today()
	before := e.profile.Metrics.TotalPoints

	rec := e.activity(activityID, now)
	// A game played before any completion counts as the first completion so
	// the record never holds a zero count.
	if rec.CompletionCount == 0 {
		rec.CompletionCount = 1
	}
	rec.GameResults = append(rec.GameResults, GameResult{
		ID:       uuid.NewString(),
		GameType: gt,
		Score:    score,
		PlayedAt: now,
		Extra:    cloneExtra(extra),
	})
	rec.BestScore = max(rec.BestScore, score)

	recordScore(e.profile.GameStats.For(gt), gt, score)
	e.profile.Metrics.TotalPoints += GamePoints(gt, score)

	res, notify := e.commit(ctx, before, now)
	e.mu.Unlock()

	notify()
	return res, nil
}

// UpdatePreferences replaces the user's goals and language.
func (e *Engine) UpdatePreferences(ctx context.Context, prefs Preferences) (Result, error) {
	if prefs.DailyLearningGoal < 1 || prefs.WeeklyLearningGoal < 1 {
		return Result{}, fmt.Errorf("%w: goals must be at least 1", ErrInvalidPreferences)
	}

	e.mu.Lock()
	e.profile.Preferences = prefs
	res, notify := e.commit(ctx, e.profile.Metrics.TotalPoints, e.today())
	e.mu.Unlock()

	notify()
	return res, nil
}

// Reset replaces the profile with the default profile and persists it.
func (e *Engine) Reset(ctx context.Context) (Result, error) {
	e.mu.Lock()
	e.profile = DefaultProfile()
	e.profile.Achievements.Progress = e.eval.Progress(e.profile)
	res := e.result(0, nil, e.save(ctx))
	notify := e.notifier(res, nil, nil)
	e.mu.Unlock()

	e.log.Info().Msg("profile reset")
	notify()
	return res, nil
}

// activity returns the record for id, creating an empty one if needed.
// Caller holds e.mu.
func (e *Engine) activity(id string, now time.Time) *ActivityRecord {
	rec := e.profile.Activities[id]
	if rec == nil {
		rec = &ActivityRecord{CompletedAt: now, GameResults: []GameResult{}}
		e.profile.Activities[id] = rec
	}
	return rec
}

// commit persists the mutated profile, unlocks whatever now qualifies,
// persists again if anything unlocked, and builds the result. The returned
// func dispatches callbacks and must be called after e.mu is released.
// Caller holds e.mu.
func (e *Engine) commit(ctx context.Context, pointsBefore int, now time.Time) (Result, func()) {
	p := e.profile
	p.Achievements.Progress = e.eval.Progress(p)
	saveErr := e.save(ctx)

	unlocked := e.eval.Evaluate(p)
	var unlocks []AchievementUnlock
	if len(unlocked) > 0 {
		for _, a := range unlocked {
			u := AchievementUnlock{AchievementID: a.ID, UnlockedAt: now}
			p.Achievements.Unlocked = append(p.Achievements.Unlocked, u)
			p.Metrics.TotalPoints += a.Reward.Points
			unlocks = append(unlocks, u)
			e.log.Info().Str("achievement_id", a.ID).Int("reward", a.Reward.Points).Msg("achievement unlocked")
		}
		p.Achievements.Progress = e.eval.Progress(p)
		if err := e.save(ctx); err != nil && saveErr == nil {
			saveErr = err
		}
	}

	res := e.result(pointsBefore, unlocked, saveErr)
	return res, e.notifier(res, unlocked, unlocks)
}

// result snapshots the current profile. Caller holds e.mu.
func (e *Engine) result(pointsBefore int, unlocked []Achievement, saveErr error) Result {
	after := e.profile.Metrics.TotalPoints
	level := CurrentLevel(after)
	return Result{
		Profile:       e.profile.Clone(),
		PointsEarned:  after - pointsBefore,
		NewlyUnlocked: unlocked,
		Level:         level,
		LeveledUp:     level.Level > CurrentLevel(max(pointsBefore, 0)).Level,
		SaveErr:       saveErr,
	}
}

// notifier captures the registered callbacks so they can run without the
// lock. Caller holds e.mu.
func (e *Engine) notifier(res Result, unlocked []Achievement, unlocks []AchievementUnlock) func() {
	onAchievement := slices.Clone(e.onAchievement)
	onUpdate := slices.Clone(e.onUpdate)
	e.ticket++
	ticket := e.ticket
	return func() {
		e.waitTurn(ticket)
		defer e.endTurn(ticket)
		for i, a := range unlocked {
			for _, cb := range onAchievement {
				cb(a, unlocks[i])
			}
		}
		for _, cb := range onUpdate {
			cb(res)
		}
	}
}

func (e *Engine) waitTurn(ticket uint64) {
	e.turnMu.Lock()
	for e.delivered+1 != ticket {
		e.turn.Wait()
	}
	e.turnMu.Unlock()
}

func (e *Engine) endTurn(ticket uint64) {
	e.turnMu.Lock()
	e.delivered = ticket
	e.turn.Broadcast()
	e.turnMu.Unlock()
}

// save writes the current profile. Caller holds e.mu.
func (e *Engine) save(ctx context.Context) error {
	if err := e.store.Save(ctx, e.profile); err != nil {
		e.log.Warn().Err(err).Str("key", e.store.Key()).Msg("progress not saved")
		return err
	}
	return nil
}

func (e *Engine) today() time.Time {
	return e.now().In(e.loc)
}

func (e *Engine) logUnknownUnlocks() {
	for _, u := range e.profile.Achievements.Unlocked {
		if !e.eval.IsKnown(u.AchievementID) {
			e.log.Warn().Str("achievement_id", u.AchievementID).Msg("unlocked achievement has no definition")
		}
	}
}

// Profile returns a snapshot of the current profile.
func (e *Engine) Profile() *Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile.Clone()
}

// ActivityProgress returns a copy of the record for activityID.
func (e *Engine) ActivityProgress(activityID string) (*ActivityRecord, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.profile.Activities[activityID]
	if !ok {
		return nil, false
	}
	return rec.clone(), true
}

// UnlockedAchievement pairs a definition with when it was unlocked.
type UnlockedAchievement struct {
	Achievement
	UnlockedAt time.Time `json:"unlockedAt"`
}

// RecentAchievements returns up to limit unlocked achievements, newest
// first. Unlocks whose id has no definition are skipped. A non-positive
// limit returns all of them.
func (e *Engine) RecentAchievements(limit int) []UnlockedAchievement {
	e.mu.Lock()
	unlocked := slices.Clone(e.profile.Achievements.Unlocked)
	e.mu.Unlock()

	out := make([]UnlockedAchievement, 0, len(unlocked))
	for _, u := range unlocked {
		a, ok := e.eval.Lookup(u.AchievementID)
		if !ok {
			e.log.Warn().Str("achievement_id", u.AchievementID).Msg("skipping unknown achievement")
			continue
		}
		out = append(out, UnlockedAchievement{Achievement: a, UnlockedAt: u.UnlockedAt})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UnlockedAt.After(out[j].UnlockedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TodayStats summarizes activity on the current calendar day.
type TodayStats struct {
	Date                     string   `json:"date"`
	ActivitiesCompleted      []string `json:"activitiesCompleted"`
	ActivitiesCompletedToday int      `json:"activitiesCompletedToday"`
	DailyGoal                int      `json:"dailyGoal"`
	GoalProgress             float64  `json:"goalProgress"`
	LearningStreak           int      `json:"learningStreak"`
}

// TodayStats lists the activities last completed today and the progress
// toward the daily goal. GoalProgress is not capped at 100.
func (e *Engine) TodayStats() TodayStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.today()
	ids := e.completedWithin(now, 1)
	goal := e.profile.Preferences.DailyLearningGoal
	return TodayStats{
		Date:                     now.Format(time.DateOnly),
		ActivitiesCompleted:      ids,
		ActivitiesCompletedToday: len(ids),
		DailyGoal:                goal,
		GoalProgress:             float64(len(ids)) / float64(goal) * 100,
		LearningStreak:           e.profile.Metrics.LearningStreak,
	}
}

// WeeklyStats summarizes the last seven calendar days, today included.
type WeeklyStats struct {
	From                string   `json:"from"`
	To                  string   `json:"to"`
	ActivitiesCompleted []string `json:"activitiesCompleted"`
	ActivitiesCount     int      `json:"activitiesCount"`
	GamesPlayed         int      `json:"gamesPlayed"`
	WeeklyGoal          int      `json:"weeklyGoal"`
	GoalProgress        float64  `json:"goalProgress"`
}

// WeeklyStats reports progress toward the weekly goal.
func (e *Engine) WeeklyStats() WeeklyStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.today()
	ids := e.completedWithin(now, 7)
	games := 0
	for _, rec := range e.profile.Activities {
		for _, gr := range rec.GameResults {
			if d := daysBetween(gr.PlayedAt, now); d >= 0 && d < 7 {
				games++
			}
		}
	}
	goal := e.profile.Preferences.WeeklyLearningGoal
	return WeeklyStats{
		From:                now.AddDate(0, 0, -6).Format(time.DateOnly),
		To:                  now.Format(time.DateOnly),
		ActivitiesCompleted: ids,
		ActivitiesCount:     len(ids),
		GamesPlayed:         games,
		WeeklyGoal:          goal,
		GoalProgress:        float64(len(ids)) / float64(goal) * 100,
	}
}

// completedWithin returns the sorted ids of activities last completed within
// the given number of calendar days ending at now. Caller holds e.mu.
func (e *Engine) completedWithin(now time.Time, days int) []string {
	ids := []string{}
	for id, rec := range e.profile.Activities {
		if d := daysBetween(rec.CompletedAt, now); d >= 0 && d < days {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// LevelInfo returns the level position for the current point total.
func (e *Engine) LevelInfo() LevelInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return LevelInfoFor(e.profile.Metrics.TotalPoints)
}

// AchievementStatus is a catalog entry annotated with the profile's state.
type AchievementStatus struct {
	Achievement
	Unlocked   bool                `json:"unlocked"`
	UnlockedAt *time.Time          `json:"unlockedAt,omitempty"`
	Progress   AchievementProgress `json:"progress"`
}

// AchievementCatalog returns every achievement in catalog order with its
// unlock state and progress.
func (e *Engine) AchievementCatalog() []AchievementStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	when := make(map[string]time.Time, len(e.profile.Achievements.Unlocked))
	for _, u := range e.profile.Achievements.Unlocked {
		when[u.AchievementID] = u.UnlockedAt
	}
	catalog := e.eval.Catalog()
	out := make([]AchievementStatus, len(catalog))
	for i, a := range catalog {
		st := AchievementStatus{Achievement: a, Progress: a.Progress(e.profile)}
		if t, ok := when[a.ID]; ok {
			st.Unlocked = true
			st.UnlockedAt = &t
		}
		out[i] = st
	}
	return out
}
