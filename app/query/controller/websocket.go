package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	redisclient "github.com/liftlab/rankx/pkg/redis"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: In production, restrict to specific origins
		return true
	},
}

// ClientMessage represents messages sent by WebSocket clients.
type ClientMessage struct {
	Action string `json:"action"` // "subscribe" or "unsubscribe"
	Key    string `json:"key"`    // Ranking set key, or "*" for all sets
}

// ServerMessage represents messages sent to WebSocket clients.
type ServerMessage struct {
	Type    string      `json:"type"`    // "leaderboard.changed", "subscribed", "unsubscribed", "ping", "error"
	Payload interface{} `json:"payload"` // Event-specific data
}

// changeNotice mirrors the payload published on the leaderboard.changed channel.
type changeNotice struct {
	Scope      string   `json:"scope"`
	UserID     string   `json:"user_id"`
	ExerciseID string   `json:"exercise_id"`
	Keys       []string `json:"keys"`
}

// keySubscriptions tracks which ranking sets a client is subscribed to.
type keySubscriptions struct {
	mu   sync.RWMutex
	keys map[string]bool
}

func newKeySubscriptions() *keySubscriptions {
	return &keySubscriptions{keys: make(map[string]bool)}
}

func (ks *keySubscriptions) subscribe(key string) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	ks.keys[key] = true
}

func (ks *keySubscriptions) unsubscribe(key string) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	delete(ks.keys, key)
}

// matches reports whether any of the changed keys is subscribed.
// Wildcard (*) matches every set.
func (ks *keySubscriptions) matches(keys []string) bool {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	if ks.keys["*"] {
		return true
	}
	for _, key := range keys {
		if ks.keys[key] {
			return true
		}
	}
	return false
}

// HandleWebSocket upgrades the connection and streams leaderboard change
// notifications from the Redis Pub/Sub channel.
//
// Protocol:
// Client sends: {"action": "subscribe", "key": "overall:volume:leaderboard"}
// Client sends: {"action": "subscribe", "key": "*"}
// Client sends: {"action": "unsubscribe", "key": "overall:volume:leaderboard"}
//
// Server sends:
// - {"type": "leaderboard.changed", "payload": {"scope": ..., "keys": [...]}}
// - {"type": "subscribed"/"unsubscribed", "payload": {"key": ...}}
// - {"type": "ping", "payload": {"timestamp": 1234567890}}
func (c *Controller) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.App.Logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	c.App.Logger.Info("WebSocket client connected", zap.String("remote_addr", r.RemoteAddr))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	subs := newKeySubscriptions()
	send := make(chan ServerMessage, 256)

	var wg sync.WaitGroup

	// Reader: handle subscribe/unsubscribe commands until the client goes away.
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		for {
			var msg ClientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			switch msg.Action {
			case "subscribe":
				subs.subscribe(msg.Key)
				send <- ServerMessage{Type: "subscribed", Payload: map[string]string{"key": msg.Key}}
			case "unsubscribe":
				subs.unsubscribe(msg.Key)
				send <- ServerMessage{Type: "unsubscribed", Payload: map[string]string{"key": msg.Key}}
			default:
				send <- ServerMessage{Type: "error", Payload: map[string]string{"message": "unknown action"}}
			}
		}
	}()

	// Pub/Sub forwarder: relay change notices matching the subscriptions.
	pubsub := c.App.Redis.Subscribe(ctx, redisclient.ChannelLeaderboardChanged)
	defer func() { _ = pubsub.Close() }()

	wg.Add(1)
	go func() {
		defer wg.Done()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				var notice changeNotice
				if err := json.Unmarshal([]byte(m.Payload), &notice); err != nil {
					c.App.Logger.Warn("Malformed change notice", zap.Error(err))
					continue
				}
				if !subs.matches(notice.Keys) {
					continue
				}
				select {
				case send <- ServerMessage{Type: "leaderboard.changed", Payload: notice}:
				default:
					// Slow client; drop rather than block the forwarder.
				}
			}
		}
	}()

	// Writer: single goroutine owns the connection for writes.
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case msg := <-send:
			if err := conn.WriteJSON(msg); err != nil {
				cancel()
				wg.Wait()
				return
			}
		case <-ticker.C:
			ping := ServerMessage{Type: "ping", Payload: map[string]int64{"timestamp": time.Now().Unix()}}
			if err := conn.WriteJSON(ping); err != nil {
				cancel()
				wg.Wait()
				return
			}
		}
	}
}
