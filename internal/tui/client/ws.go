package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
	writeTimeout       = 10 * time.Second
	pongTimeout        = 60 * time.Second
	pingInterval       = 30 * time.Second
)

// WSClient manages the WebSocket connection to the progress API.
type WSClient struct {
	url   string
	token string
	log   zerolog.Logger

	mu      sync.Mutex
	writeMu sync.Mutex // serialises pings
	conn    *websocket.Conn
	pingCtx context.CancelFunc // cancels the active ping goroutine
}

// NewWSClient creates a client that connects to the given WebSocket URL.
func NewWSClient(url, token string, log zerolog.Logger) *WSClient {
	return &WSClient{url: url, token: token, log: log}
}

// --- Bubble Tea messages ---

// WSConnectedMsg is sent when the WebSocket connects.
type WSConnectedMsg struct{}

// WSDisconnectedMsg is sent when the connection drops.
type WSDisconnectedMsg struct{ Err error }

// WSSnapshotMsg delivers the full dashboard state.
type WSSnapshotMsg struct{ Payload SnapshotPayload }

// WSProfileMsg is sent after every recorded activity or game.
type WSProfileMsg struct{ Payload ProfileUpdatedPayload }

// WSAchievementMsg is sent when an achievement unlocks.
type WSAchievementMsg struct{ Payload AchievementUnlockedPayload }

// WSLevelUpMsg is sent when the child reaches a new level.
type WSLevelUpMsg struct{ Payload LevelUpPayload }

// Listen returns a Bubble Tea command that connects, retrying with
// exponential backoff until it succeeds or ctx is cancelled.
func (c *WSClient) Listen(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		delay := reconnectBaseDelay
		for {
			header := http.Header{}
			if c.token != "" {
				header.Set("Authorization", "Bearer "+c.token)
			}
			conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, header)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				c.log.Debug().Err(err).Dur("retry_in", delay).Msg("ws dial failed")
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(delay):
				}
				delay = min(delay*2, reconnectMaxDelay)
				continue
			}

			// Cancel any previous ping goroutine.
			c.mu.Lock()
			if c.pingCtx != nil {
				c.pingCtx()
			}
			pingCtx, pingCancel := context.WithCancel(ctx)
			c.conn = conn
			c.pingCtx = pingCancel
			c.mu.Unlock()

			go c.pingLoop(pingCtx, conn)

			return WSConnectedMsg{}
		}
	}
}

// ReadLoop returns a Bubble Tea command that reads the next recognised
// message from the connection. Re-issue it after handling each message.
func (c *WSClient) ReadLoop(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return WSDisconnectedMsg{Err: fmt.Errorf("no connection")}
		}

		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongTimeout))
			return nil
		})
		conn.SetReadDeadline(time.Now().Add(pongTimeout))

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				c.mu.Lock()
				if c.conn == conn {
					c.conn = nil
				}
				c.mu.Unlock()
				conn.Close()
				return WSDisconnectedMsg{Err: err}
			}

			var msg WSMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				c.log.Debug().Err(err).Msg("ws message not JSON")
				continue
			}

			if teaMsg := dispatch(msg); teaMsg != nil {
				return teaMsg
			}
		}
	}
}

// Close drops the current connection, if any.
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pingCtx != nil {
		c.pingCtx()
		c.pingCtx = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// pingLoop sends periodic pings on the given connection. It exits when the
// context is cancelled or the connection changes.
func (c *WSClient) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			cc := c.conn
			c.mu.Unlock()
			if cc != conn {
				return
			}
			c.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func dispatch(msg WSMessage) tea.Msg {
	switch msg.Type {
	case MsgSnapshot:
		var p SnapshotPayload
		if json.Unmarshal(msg.Payload, &p) == nil {
			return WSSnapshotMsg{Payload: p}
		}
	case MsgProfileUpdated:
		var p ProfileUpdatedPayload
		if json.Unmarshal(msg.Payload, &p) == nil {
			return WSProfileMsg{Payload: p}
		}
	case MsgAchievementUnlocked:
		var p AchievementUnlockedPayload
		if json.Unmarshal(msg.Payload, &p) == nil {
			return WSAchievementMsg{Payload: p}
		}
	case MsgLevelUp:
		var p LevelUpPayload
		if json.Unmarshal(msg.Payload, &p) == nil {
			return WSLevelUpMsg{Payload: p}
		}
	}
	return nil
}
