// Package api exposes the progress engine over HTTP and pushes live updates
// to websocket clients.
package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/storytime/progress/internal/progress"
)

// TokenHeader carries the shared auth token on API requests.
const TokenHeader = "X-Storytime-Token"

type Server struct {
	engine         *progress.Engine
	broadcaster    *Broadcaster
	log            zerolog.Logger
	authToken      string
	allowedOrigins map[string]bool
	allowedHosts   map[string]bool
}

func NewServer(engine *progress.Engine, broadcaster *Broadcaster, authToken string, allowedOrigins []string, log zerolog.Logger) *Server {
	s := &Server{
		engine:         engine,
		broadcaster:    broadcaster,
		log:            log,
		authToken:      authToken,
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
	}

	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	return s
}

// Snapshot builds the full-state websocket payload from the engine.
func (s *Server) Snapshot() SnapshotPayload {
	return SnapshotPayload{
		Level:  s.engine.LevelInfo(),
		Today:  s.engine.TodayStats(),
		Recent: s.engine.RecentAchievements(5),
		Stats:  s.engine.Profile().GameStats,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoveryMiddleware)
	r.Use(s.loggingMiddleware)

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/ws", s.handleWS)

		r.Route("/api", func(r chi.Router) {
			r.Get("/profile", s.handleProfile)
			r.Post("/profile/reset", s.handleReset)
			r.Put("/preferences", s.handlePreferences)

			r.Get("/activities/{id}", s.handleActivity)
			r.Post("/activities/{id}/complete", s.handleComplete)
			r.Post("/activities/{id}/games", s.handleGameResult)

			r.Get("/achievements", s.handleAchievements)
			r.Get("/achievements/recent", s.handleRecentAchievements)
			r.Get("/level", s.handleLevel)
			r.Get("/stats/today", s.handleToday)
			r.Get("/stats/week", s.handleWeek)
		})
	})
	return r
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())
	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}

	c, err := s.broadcaster.AddClient(conn)
	if errors.Is(err, ErrTooManyClients) {
		msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too many clients")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		conn.Close()
		log.Warn().Msg("ws client rejected: connection limit reached")
		return
	}
	log.Info().Str("remote_addr", r.RemoteAddr).Msg("websocket client connected")

	go func() {
		defer func() {
			s.broadcaster.RemoveClient(c)
			s.log.Info().Str("remote_addr", r.RemoteAddr).Msg("websocket client disconnected")
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) authorize(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}

	if r.URL.Query().Get("token") == s.authToken {
		return true
	}

	if r.Header.Get(TokenHeader) == s.authToken {
		return true
	}

	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.authToken {
		return true
	}

	return false
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	if parsed.Host == r.Host {
		return true
	}
	switch parsed.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// ListenAndServe serves handler on addr until ctx is cancelled, then shuts
// down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func generateRequestID() string {
	return uuid.NewString()
}
