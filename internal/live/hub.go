// Package live pushes recognized tag UIDs to monitoring UIs in real
// time. Connected WebSocket clients get every recognized scan's UID as
// it happens, plus the most recent UID on connect so a freshly opened
// dashboard is never blank. Redis carries the fan-out between server
// instances and persists the latest UID; without Redis the hub degrades
// to in-process broadcast only.
package live

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/net/websocket"
)

const (
	latestUIDKey = "attendance:latest_uid"
	uidChannel   = "attendance:uid"
)

// Hub tracks connected monitoring clients and the latest recognized UID.
type Hub struct {
	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	latest string

	rdb    *redis.Client // nil when Redis is unavailable
	logger *zap.Logger
}

func NewHub(rdb *redis.Client, logger *zap.Logger) *Hub {
	return &Hub{conns: make(map[*websocket.Conn]struct{}), rdb: rdb, logger: logger}
}

// Run subscribes to the Redis UID channel and rebroadcasts every
// message to local clients until ctx is cancelled. It also seeds the
// latest UID from Redis so restarts keep the replay value. Without a
// Redis client it returns immediately; Publish then broadcasts locally.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		h.logger.Warn("redis unavailable, uid fan-out is process-local only")
		return
	}

	if uid, err := h.rdb.Get(ctx, latestUIDKey).Result(); err == nil {
		h.mu.Lock()
		h.latest = uid
		h.mu.Unlock()
	} else if !errors.Is(err, redis.Nil) {
		h.logger.Warn("load latest uid failed", zap.Error(err))
	}

	sub := h.rdb.Subscribe(ctx, uidChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(msg.Payload)
		}
	}
}

// Publish records a recognized UID. With Redis present the local
// broadcast happens through the subscription so every instance,
// including this one, delivers exactly once.
func (h *Hub) Publish(ctx context.Context, uid string) {
	if h.rdb == nil {
		h.broadcast(uid)
		return
	}
	if err := h.rdb.Set(ctx, latestUIDKey, uid, 0).Err(); err != nil {
		h.logger.Warn("store latest uid failed", zap.Error(err))
	}
	if err := h.rdb.Publish(ctx, uidChannel, uid).Err(); err != nil {
		h.logger.Warn("publish uid failed", zap.Error(err))
		h.broadcast(uid)
	}
}

// Latest returns the most recently recognized UID, or "" if none yet.
func (h *Hub) Latest() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

func (h *Hub) broadcast(uid string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = uid
	for ws := range h.conns {
		if err := websocket.Message.Send(ws, uid); err != nil {
			delete(h.conns, ws)
			ws.Close()
		}
	}
}

// ServeWS handles one monitoring client for the lifetime of its
// connection. The latest UID is replayed on connect; afterwards the
// client only receives broadcasts. Inbound messages are drained and
// ignored so client closes are noticed.
func (h *Hub) ServeWS(ws *websocket.Conn) {
	h.mu.Lock()
	h.conns[ws] = struct{}{}
	latest := h.latest
	h.mu.Unlock()

	if latest != "" {
		if err := websocket.Message.Send(ws, latest); err != nil {
			h.drop(ws)
			return
		}
	}

	var discard string
	for {
		if err := websocket.Message.Receive(ws, &discard); err != nil {
			h.drop(ws)
			return
		}
	}
}

func (h *Hub) drop(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, ws)
	h.mu.Unlock()
	ws.Close()
}
