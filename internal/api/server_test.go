package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storytime/progress/internal/progress"
	"github.com/storytime/progress/internal/storage"
)

type testEnv struct {
	srv    *httptest.Server
	engine *progress.Engine
	bc     *Broadcaster
	token  string
}

// brokenSetKV accepts reads but fails every write.
type brokenSetKV struct{ *storage.MemoryStore }

func (brokenSetKV) Set(context.Context, string, string) error { return errors.New("disk full") }

func newTestEnv(t *testing.T, kv storage.KV, token string, maxConns int) *testEnv {
	t.Helper()
	if kv == nil {
		kv = storage.NewMemoryStore()
	}
	engine, err := progress.NewEngine(context.Background(),
		progress.NewProfileStore(kv, zerolog.Nop()), progress.WithLocation(time.UTC))
	require.NoError(t, err)

	var s *Server
	bc := NewBroadcaster(func() SnapshotPayload { return s.Snapshot() }, 0, maxConns, zerolog.Nop())
	s = NewServer(engine, bc, token, nil, zerolog.Nop())
	bc.Watch(engine)

	srv := httptest.NewServer(s.Routes())
	t.Cleanup(func() {
		bc.Stop()
		srv.Close()
	})
	return &testEnv{srv: srv, engine: engine, bc: bc, token: token}
}

func (env *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, env.srv.URL+path, &buf)
	require.NoError(t, err)
	if env.token != "" {
		req.Header.Set(TokenHeader, env.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestCompleteActivity(t *testing.T) {
	env := newTestEnv(t, nil, "", 0)

	resp := env.do(t, http.MethodPost, "/api/activities/a1/complete",
		completeRequest{Category: "Science & Nature", Difficulty: "beginner"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[resultResponse](t, resp)
	assert.Equal(t, 10, body.Profile.Metrics.TotalPoints)
	assert.Equal(t, 10, body.PointsEarned)
	require.Len(t, body.NewlyUnlocked, 1)
	assert.Equal(t, "first_activity", body.NewlyUnlocked[0].ID)
	assert.Empty(t, body.Warning)

	resp = env.do(t, http.MethodGet, "/api/activities/a1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rec := decodeBody[progress.ActivityRecord](t, resp)
	assert.Equal(t, 1, rec.CompletionCount)
	assert.Equal(t, "beginner", rec.Difficulty)
}

func TestGameResult(t *testing.T) {
	env := newTestEnv(t, nil, "", 0)

	env.do(t, http.MethodPost, "/api/activities/a1/complete", completeRequest{})
	resp := env.do(t, http.MethodPost, "/api/activities/a1/games",
		map[string]any{"gameType": "vocabulary-matching", "score": 100, "extra": map[string]any{"words": 8}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[resultResponse](t, resp)
	assert.Equal(t, 25, body.Profile.Metrics.TotalPoints)
	assert.Equal(t, 1, body.Profile.GameStats.Vocabulary.PerfectScores)
	assert.Empty(t, body.NewlyUnlocked)
}

func TestGameResultErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     any
		wantCode string
	}{
		{"unknown game type", map[string]any{"gameType": "chess", "score": 50}, CodeUnknownGameType},
		{"score out of range", map[string]any{"gameType": "memory", "score": 140}, CodeInvalidScore},
		{"missing score", map[string]any{"gameType": "memory"}, CodeBadRequest},
		{"not JSON", "{{{", CodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil, "", 0)
			resp := env.do(t, http.MethodPost, "/api/activities/a1/games", tt.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.wantCode, decodeBody[errorBody](t, resp).Error.Code)

			// Nothing was recorded.
			assert.Empty(t, env.engine.Profile().Activities)
		})
	}
}

func TestActivityNotFound(t *testing.T) {
	env := newTestEnv(t, nil, "", 0)
	resp := env.do(t, http.MethodGet, "/api/activities/missing", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, CodeNotFound, decodeBody[errorBody](t, resp).Error.Code)
}

func TestSaveFailureReturnsWarning(t *testing.T) {
	env := newTestEnv(t, brokenSetKV{storage.NewMemoryStore()}, "", 0)

	resp := env.do(t, http.MethodPost, "/api/activities/a1/complete", completeRequest{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[resultResponse](t, resp)
	assert.Equal(t, saveWarning, body.Warning)
	assert.Equal(t, 10, body.Profile.Metrics.TotalPoints)
}

func TestPreferencesAndReset(t *testing.T) {
	env := newTestEnv(t, nil, "", 0)

	resp := env.do(t, http.MethodPut, "/api/preferences", progress.Preferences{DailyLearningGoal: 0, WeeklyLearningGoal: 1})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, CodeInvalidPreferences, decodeBody[errorBody](t, resp).Error.Code)

	resp = env.do(t, http.MethodPut, "/api/preferences", progress.Preferences{DailyLearningGoal: 2, WeeklyLearningGoal: 10})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env.do(t, http.MethodPost, "/api/activities/a1/complete", completeRequest{})
	resp = env.do(t, http.MethodGet, "/api/stats/today", nil)
	today := decodeBody[progress.TodayStats](t, resp)
	assert.Equal(t, 2, today.DailyGoal)
	assert.InDelta(t, 50, today.GoalProgress, 1e-9)

	resp = env.do(t, http.MethodPost, "/api/profile/reset", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.do(t, http.MethodGet, "/api/profile", nil)
	p := decodeBody[progress.Profile](t, resp)
	assert.Empty(t, p.Activities)
	assert.Equal(t, progress.DefaultPreferences(), p.Preferences)
}

func TestReadEndpoints(t *testing.T) {
	env := newTestEnv(t, nil, "", 0)
	env.do(t, http.MethodPost, "/api/activities/a1/complete", completeRequest{})

	resp := env.do(t, http.MethodGet, "/api/level", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	level := decodeBody[progress.LevelInfo](t, resp)
	assert.Equal(t, 1, level.Current.Level)
	assert.Equal(t, 90, level.PointsToNext)

	resp = env.do(t, http.MethodGet, "/api/achievements", nil)
	catalog := decodeBody[[]progress.AchievementStatus](t, resp)
	require.NotEmpty(t, catalog)
	assert.True(t, catalog[0].Unlocked)

	resp = env.do(t, http.MethodGet, "/api/achievements/recent?limit=1", nil)
	recent := decodeBody[[]progress.UnlockedAchievement](t, resp)
	require.Len(t, recent, 1)
	assert.Equal(t, "first_activity", recent[0].ID)

	resp = env.do(t, http.MethodGet, "/api/achievements/recent?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/stats/week", nil)
	week := decodeBody[progress.WeeklyStats](t, resp)
	assert.Equal(t, 1, week.ActivitiesCount)
}

func TestAuth(t *testing.T) {
	env := newTestEnv(t, nil, "s3cret", 0)

	resp, err := http.Get(env.srv.URL + "/api/profile")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/api/profile", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/profile", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(env.srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func dialWS(t *testing.T, env *testEnv) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/ws"
	if env.token != "" {
		url += "?token=" + env.token
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) (MessageType, json.RawMessage) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg struct {
		Type    MessageType     `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg.Type, msg.Payload
}

func TestWebSocketPushesUpdates(t *testing.T) {
	env := newTestEnv(t, nil, "tok", 0)
	conn := dialWS(t, env)

	typ, payload := readMessage(t, conn)
	require.Equal(t, MsgSnapshot, typ)
	var snap SnapshotPayload
	require.NoError(t, json.Unmarshal(payload, &snap))
	assert.Equal(t, 0, snap.Level.TotalPoints)

	env.do(t, http.MethodPost, "/api/activities/a1/complete", completeRequest{})

	typ, payload = readMessage(t, conn)
	require.Equal(t, MsgAchievementUnlocked, typ)
	var unlocked AchievementUnlockedPayload
	require.NoError(t, json.Unmarshal(payload, &unlocked))
	assert.Equal(t, "first_activity", unlocked.ID)

	typ, payload = readMessage(t, conn)
	require.Equal(t, MsgProfileUpdated, typ)
	var updated ProfileUpdatedPayload
	require.NoError(t, json.Unmarshal(payload, &updated))
	assert.Equal(t, 10, updated.TotalPoints)
	assert.Equal(t, 1, updated.Streak)
}

func TestWebSocketLevelUp(t *testing.T) {
	env := newTestEnv(t, nil, "", 0)
	conn := dialWS(t, env)
	typ, _ := readMessage(t, conn)
	require.Equal(t, MsgSnapshot, typ)

	// The third perfect quiz unlocks quiz_champion and crosses 100 points.
	for i := 0; i < 3; i++ {
		env.do(t, http.MethodPost, "/api/activities/a1/games", map[string]any{"gameType": "story-quiz", "score": 100})
	}

	var sawLevelUp bool
	for i := 0; i < 12 && !sawLevelUp; i++ {
		typ, payload := readMessage(t, conn)
		if typ != MsgLevelUp {
			continue
		}
		var lu LevelUpPayload
		require.NoError(t, json.Unmarshal(payload, &lu))
		assert.Equal(t, 2, lu.Level.Level)
		sawLevelUp = true
	}
	assert.True(t, sawLevelUp)
}

func TestWebSocketRequiresToken(t *testing.T) {
	env := newTestEnv(t, nil, "tok", 0)
	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketConnectionLimit(t *testing.T) {
	env := newTestEnv(t, nil, "", 1)
	first := dialWS(t, env)
	typ, _ := readMessage(t, first)
	require.Equal(t, MsgSnapshot, typ)

	second := dialWS(t, env)
	require.NoError(t, second.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := second.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseTryAgainLater, closeErr.Code)
	assert.Equal(t, 1, env.bc.ClientCount())
}
