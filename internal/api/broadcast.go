package api

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/storytime/progress/internal/progress"
)

// ErrTooManyClients is returned by AddClient when the connection cap is hit.
var ErrTooManyClients = errors.New("too many websocket clients")

type client struct {
	conn *websocket.Conn
	b    *Broadcaster
	send chan []byte
}

func newClient(conn *websocket.Conn, b *Broadcaster) *client {
	c := &client{
		conn: conn,
		b:    b,
		send: make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.b.RemoveClient(c)
			return
		}
	}
}

// SnapshotFunc builds the full-state message sent to new clients and on
// every snapshot tick.
type SnapshotFunc func() SnapshotPayload

// Broadcaster fans engine events out to every connected websocket client.
type Broadcaster struct {
	mu       sync.RWMutex
	clients  map[*client]bool
	snapshot SnapshotFunc
	maxConns int
	log      zerolog.Logger

	snapshotTicker *time.Ticker
	stop           chan struct{}
	stopOnce       sync.Once
}

// NewBroadcaster starts a broadcaster that pushes a snapshot every
// snapshotInterval. A non-positive interval disables periodic snapshots and
// a non-positive maxConns disables the connection cap.
func NewBroadcaster(snapshot SnapshotFunc, snapshotInterval time.Duration, maxConns int, log zerolog.Logger) *Broadcaster {
	b := &Broadcaster{
		clients:  make(map[*client]bool),
		snapshot: snapshot,
		maxConns: maxConns,
		log:      log,
		stop:     make(chan struct{}),
	}
	if snapshotInterval > 0 {
		b.snapshotTicker = time.NewTicker(snapshotInterval)
		go b.snapshotLoop()
	}
	return b
}

// Watch subscribes the broadcaster to e's unlock and update events.
func (b *Broadcaster) Watch(e *progress.Engine) {
	e.OnAchievement(func(a progress.Achievement, u progress.AchievementUnlock) {
		b.broadcast(WSMessage{Type: MsgAchievementUnlocked, Payload: newAchievementPayload(a, u)})
	})
	e.OnUpdate(func(r progress.Result) {
		b.broadcast(WSMessage{Type: MsgProfileUpdated, Payload: newProfileUpdatedPayload(r)})
		if r.LeveledUp {
			b.broadcast(WSMessage{Type: MsgLevelUp, Payload: LevelUpPayload{Level: r.Level}})
		}
	})
}

// AddClient registers conn and queues the current snapshot for it.
func (b *Broadcaster) AddClient(conn *websocket.Conn) (*client, error) {
	data, err := json.Marshal(WSMessage{Type: MsgSnapshot, Payload: b.snapshot()})
	if err != nil {
		b.log.Error().Err(err).Msg("snapshot marshal failed")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.maxConns > 0 && len(b.clients) >= b.maxConns {
		return nil, ErrTooManyClients
	}
	c := newClient(conn, b)
	b.clients[c] = true
	if data != nil {
		c.send <- data
	}
	return c, nil
}

func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.send)
	}
	b.mu.Unlock()
}

func (b *Broadcaster) snapshotLoop() {
	for {
		select {
		case <-b.stop:
			return
		case <-b.snapshotTicker.C:
			if b.ClientCount() == 0 {
				continue
			}
			b.broadcast(WSMessage{Type: MsgSnapshot, Payload: b.snapshot()})
		}
	}
}

func (b *Broadcaster) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.log.Error().Err(err).Str("type", string(msg.Type)).Msg("broadcast marshal failed")
		return
	}

	// Sends happen under the read lock so a concurrent RemoveClient cannot
	// close a channel mid-send.
	var slow []*client
	b.mu.RLock()
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	b.mu.RUnlock()

	for _, c := range slow {
		// Client can't keep up, disconnect it
		b.log.Warn().Msg("ws client too slow, disconnecting")
		b.RemoveClient(c)
	}
}

// Stop ends periodic snapshots and disconnects every client.
func (b *Broadcaster) Stop() {
	b.stopOnce.Do(func() {
		close(b.stop)
		if b.snapshotTicker != nil {
			b.snapshotTicker.Stop()
		}
		b.mu.Lock()
		for c := range b.clients {
			delete(b.clients, c)
			close(c.send)
		}
		b.mu.Unlock()
	})
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
