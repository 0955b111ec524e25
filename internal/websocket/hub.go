package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"readinghub/pkg/models"
)

// ProgressHub pushes each user's progress events to that user's open
// websocket connections.
type ProgressHub struct {
	log *zap.SugaredLogger

	mu      sync.Mutex
	clients map[*client]string // client -> user id

	events     chan models.ProgressEvent
	register   chan *client
	unregister chan *client
	stopped    chan struct{}
}

func NewHub(log *zap.SugaredLogger) *ProgressHub {
	return &ProgressHub{
		log:        log,
		clients:    make(map[*client]string),
		events:     make(chan models.ProgressEvent, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		stopped:    make(chan struct{}),
	}
}

// Publish queues ev without blocking; a full queue drops it.
func (h *ProgressHub) Publish(ev models.ProgressEvent) {
	select {
	case h.events <- ev:
	default:
		h.log.Warnw("websocket queue full, dropping event", "user", ev.UserID)
	}
}

func (h *ProgressHub) ConnectedUsers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	seen := map[string]struct{}{}
	for _, uid := range h.clients {
		seen[uid] = struct{}{}
	}
	return len(seen)
}

func (h *ProgressHub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				h.drop(c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = c.userID
			h.mu.Unlock()
			h.log.Infow("websocket client connected", "user", c.userID)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				h.log.Infow("websocket client disconnected", "user", c.userID)
			}
			h.mu.Unlock()

		case ev := <-h.events:
			data, err := json.Marshal(ev)
			if err != nil {
				h.log.Errorw("websocket marshal", "err", err)
				continue
			}
			h.mu.Lock()
			for c, uid := range h.clients {
				if uid != ev.UserID {
					continue
				}
				select {
				case c.send <- data:
				default:
					h.log.Warnw("websocket send buffer full, removing client", "user", uid)
					h.drop(c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop must be called with h.mu held.
func (h *ProgressHub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	_ = c.conn.Close()
}
