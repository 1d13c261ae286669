package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/storytime/progress/internal/progress"
)

const (
	maxBodyBytes       = 64 << 10
	defaultRecentLimit = 5
	saveWarning        = "progress could not be saved and may be lost on restart"
)

type completeRequest struct {
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
}

type gameResultRequest struct {
	GameType string         `json:"gameType"`
	Score    *int           `json:"score"`
	Extra    map[string]any `json:"extra"`
}

// resultResponse is returned by every mutating endpoint.
type resultResponse struct {
	Profile       *progress.Profile      `json:"profile"`
	PointsEarned  int                    `json:"pointsEarned"`
	NewlyUnlocked []progress.Achievement `json:"newlyUnlocked"`
	Level         progress.LevelInfo     `json:"level"`
	LeveledUp     bool                   `json:"leveledUp"`
	Warning       string                 `json:"warning,omitempty"`
}

func newResultResponse(r progress.Result) resultResponse {
	resp := resultResponse{
		Profile:       r.Profile,
		PointsEarned:  r.PointsEarned,
		NewlyUnlocked: r.NewlyUnlocked,
		Level:         progress.LevelInfoFor(r.Profile.Metrics.TotalPoints),
		LeveledUp:     r.LeveledUp,
	}
	if resp.NewlyUnlocked == nil {
		resp.NewlyUnlocked = []progress.Achievement{}
	}
	if r.SaveErr != nil {
		resp.Warning = saveWarning
	}
	return resp
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return newBadRequest("invalid JSON body", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Profile())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Reset(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newResultResponse(res))
}

func (s *Server) handlePreferences(w http.ResponseWriter, r *http.Request) {
	var prefs progress.Preferences
	if err := decodeJSON(w, r, &prefs); err != nil {
		handleError(w, r, err)
		return
	}
	res, err := s.engine.UpdatePreferences(r.Context(), prefs)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newResultResponse(res))
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := s.engine.ActivityProgress(id)
	if !ok {
		handleError(w, r, newNotFound("activity", id))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	res, err := s.engine.RecordActivityCompletion(r.Context(), chi.URLParam(r, "id"), req.Category, req.Difficulty)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newResultResponse(res))
}

func (s *Server) handleGameResult(w http.ResponseWriter, r *http.Request) {
	var req gameResultRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.Score == nil {
		handleError(w, r, newBadRequest("score is required", nil))
		return
	}
	res, err := s.engine.RecordGameResult(r.Context(), chi.URLParam(r, "id"), req.GameType, *req.Score, req.Extra)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newResultResponse(res))
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.AchievementCatalog())
}

func (s *Server) handleRecentAchievements(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			handleError(w, r, newBadRequest(fmt.Sprintf("limit must be a positive integer, got %q", v), err))
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, s.engine.RecentAchievements(limit))
}

func (s *Server) handleLevel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.LevelInfo())
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.TodayStats())
}

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.WeeklyStats())
}
