package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storytime/progress/internal/storage"
)

// faultyKV wraps a MemoryStore and fails the operations it is told to.
type faultyKV struct {
	*storage.MemoryStore
	getErr error
	setErr error
	sets   int
}

func newFaultyKV() *faultyKV {
	return &faultyKV{MemoryStore: storage.NewMemoryStore()}
}

func (f *faultyKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *faultyKV) Set(ctx context.Context, key, value string) error {
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func TestProfileStore_LoadMissing(t *testing.T) {
	s := NewProfileStore(storage.NewMemoryStore(), zerolog.Nop())

	p, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, profileVersion, p.Version)
	assert.NotNil(t, p.Activities)
	assert.NotNil(t, p.Achievements.Unlocked)
	assert.Equal(t, DefaultPreferences(), p.Preferences)
}

func TestProfileStore_LoadUnparsable(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	require.NoError(t, kv.Set(ctx, storage.ProfileKey, "{not json"))

	p, err := NewProfileStore(kv, zerolog.Nop()).Load(ctx)
	require.Error(t, err)
	require.NotNil(t, p, "a default profile is returned alongside the error")
	assert.Empty(t, p.Activities)
	assert.Equal(t, 0, p.Metrics.TotalPoints)
}

func TestProfileStore_LoadStorageError(t *testing.T) {
	kv := newFaultyKV()
	kv.getErr = errors.New("disk on fire")

	p, err := NewProfileStore(kv, zerolog.Nop()).Load(context.Background())
	require.ErrorIs(t, err, kv.getErr)
	require.NotNil(t, p)
	assert.Equal(t, DefaultPreferences(), p.Preferences)
}

func TestProfileStore_LoadBackfillsMissingFields(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	blob := `{
		"activities": {"a1": {"completionCount": 0, "category": "Animals"}, "gone": null},
		"gameStats": {"vocabularyGames": {"played": 2, "averageScore": 85}},
		"achievements": {"unlocked": [
			{"achievementId": "first_activity"},
			{"achievementId": "first_activity"}
		]},
		"metrics": {"totalPoints": 40, "learningStreak": 5, "longestLearningStreak": 2},
		"preferences": {"dailyLearningGoal": 0}
	}`
	require.NoError(t, kv.Set(ctx, storage.ProfileKey, blob))

	p, err := NewProfileStore(kv, zerolog.Nop()).Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, profileVersion, p.Version)
	require.Contains(t, p.Activities, "a1")
	assert.NotContains(t, p.Activities, "gone")
	assert.Equal(t, 1, p.Activities["a1"].CompletionCount)
	assert.Equal(t, "Animals", p.Activities["a1"].Category)
	assert.NotNil(t, p.Activities["a1"].GameResults)
	assert.Equal(t, 170, p.GameStats.Vocabulary.TotalScore)
	assert.Len(t, p.Achievements.Unlocked, 1)
	assert.NotNil(t, p.Achievements.Progress)
	assert.NotNil(t, p.Metrics.CategoriesExplored)
	assert.Equal(t, 5, p.Metrics.LongestLearningStreak)
	assert.Equal(t, defaultDailyLearningGoal, p.Preferences.DailyLearningGoal)
	assert.Equal(t, defaultWeeklyLearningGoal, p.Preferences.WeeklyLearningGoal)
}

func TestProfileStore_NeverTouchesLegacyKey(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	require.NoError(t, kv.Set(ctx, storage.LegacyProfileKey, `{"legacy":true}`))

	s := NewProfileStore(kv, zerolog.Nop())
	require.NoError(t, s.Save(ctx, DefaultProfile()))

	legacy, found, err := kv.Get(ctx, storage.LegacyProfileKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `{"legacy":true}`, legacy)
}

func TestProfileStore_SaveWrapsError(t *testing.T) {
	kv := newFaultyKV()
	kv.setErr = errors.New("quota exceeded")

	err := NewProfileStore(kv, zerolog.Nop()).Save(context.Background(), DefaultProfile())
	require.ErrorIs(t, err, kv.setErr)
	assert.Contains(t, err.Error(), "write profile")
}

func TestStringSet_SerializesSorted(t *testing.T) {
	s := StringSet{}
	for _, v := range []string{"pear", "apple", "fig"} {
		s.Add(v)
	}
	data, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `["apple","fig","pear"]`, string(data))
	assert.Equal(t, `["apple","fig","pear"]`, string(data))

	var back StringSet
	require.NoError(t, back.UnmarshalJSON(data))
	assert.True(t, back.Has("fig"))
	assert.False(t, back.Add("fig"))
}

func TestProfile_CloneIsDeep(t *testing.T) {
	p := DefaultProfile()
	p.Activities["a1"] = &ActivityRecord{
		CompletionCount: 1,
		GameResults: []GameResult{{ID: "g1", Extra: map[string]any{
			"hints": 1,
			"words": []any{"cat", map[string]any{"n": 1}},
			"meta":  map[string]any{"tags": []any{"x"}},
		}}},
	}
	p.Metrics.CategoriesExplored.Add("Animals")

	cp := p.Clone()
	cp.Activities["a1"].CompletionCount = 9
	cp.Activities["a1"].GameResults[0].Extra["hints"] = 5
	words := cp.Activities["a1"].GameResults[0].Extra["words"].([]any)
	words[0] = "dog"
	words[1].(map[string]any)["n"] = 2
	cp.Activities["a1"].GameResults[0].Extra["meta"].(map[string]any)["tags"].([]any)[0] = "y"
	cp.Metrics.CategoriesExplored.Add("Music")
	cp.Achievements.Unlocked = append(cp.Achievements.Unlocked, AchievementUnlock{AchievementID: "x"})

	assert.Equal(t, 1, p.Activities["a1"].CompletionCount)
	assert.Equal(t, 1, p.Activities["a1"].GameResults[0].Extra["hints"])
	assert.Equal(t, []any{"cat", map[string]any{"n": 1}}, p.Activities["a1"].GameResults[0].Extra["words"])
	assert.Equal(t, map[string]any{"tags": []any{"x"}}, p.Activities["a1"].GameResults[0].Extra["meta"])
	assert.False(t, p.Metrics.CategoriesExplored.Has("Music"))
	assert.Empty(t, p.Achievements.Unlocked)
}
