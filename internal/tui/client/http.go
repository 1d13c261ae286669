package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// HTTPClient makes REST calls to the progress API.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a client targeting the given base URL (e.g. "http://127.0.0.1:8420").
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// GetAchievements fetches /api/achievements.
func (c *HTTPClient) GetAchievements() ([]AchievementStatus, error) {
	var out []AchievementStatus
	if err := c.get("/api/achievements", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRecentAchievements fetches /api/achievements/recent.
func (c *HTTPClient) GetRecentAchievements(limit int) ([]UnlockedAchievement, error) {
	var out []UnlockedAchievement
	if err := c.get("/api/achievements/recent?limit="+strconv.Itoa(limit), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetToday fetches /api/stats/today.
func (c *HTTPClient) GetToday() (*TodayStats, error) {
	var d TodayStats
	if err := c.get("/api/stats/today", &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetWeek fetches /api/stats/week.
func (c *HTTPClient) GetWeek() (*WeeklyStats, error) {
	var w WeeklyStats
	if err := c.get("/api/stats/week", &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (c *HTTPClient) get(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.setAuth(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s: %d %s", path, resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *HTTPClient) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
