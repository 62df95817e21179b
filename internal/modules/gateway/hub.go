// Package gateway pushes realtime notifications to connected readers: paper
// extraction status changes and agent activity. It is notify-only; all
// commands arrive over HTTP.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	pkgredis "github.com/marginalia-app/core/internal/pkg/redis"
	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"
)

const (
	namespaceReader = "/reader"
	redisChanReader = "marg:gateway:reader"
	eventConnected  = "GATEWAY_CONNECT"
)

// Message is the envelope used by hub broadcasts and Redis fan-out.
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

type clientMeta struct {
	sid string
}

// Hub manages the reader namespace and relays broadcasts between instances
// through Redis so every connected client sees events regardless of which
// instance produced them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]struct{}

	broadcast  chan Message
	register   chan clientMeta
	unregister chan clientMeta

	rc     *pkgredis.Client
	logger *zap.Logger
	sio    *socketio.Server
}

func NewHub(rc *pkgredis.Client, logger *zap.Logger) *Hub {
	sio := socketio.NewServer(nil, nil)
	h := &Hub{
		clients:    make(map[string]struct{}),
		broadcast:  make(chan Message, 256),
		register:   make(chan clientMeta, 256),
		unregister: make(chan clientMeta, 256),
		rc:         rc,
		logger:     logger,
		sio:        sio,
	}
	h.registerNamespace()
	return h
}

func (h *Hub) registerNamespace() {
	readerNS := h.sio.Of(namespaceReader, nil)
	_ = readerNS.On("connection", func(args ...any) {
		client, ok := args[0].(*socketio.Socket)
		if !ok {
			return
		}
		sid := string(client.Id())
		h.register <- clientMeta{sid: sid}
		_ = client.Emit("message", Message{Event: eventConnected, Payload: "connected"})

		_ = client.On("disconnect", func(_ ...any) {
			h.unregister <- clientMeta{sid: sid}
		})
	})
}

// Run starts the hub loop and Redis subscriber. It returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	go h.subscribeRedis(ctx)

	for {
		select {
		case <-ctx.Done():
			h.sio.Close(nil)
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.sid] = struct{}{}
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			delete(h.clients, c.sid)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.deliver(msg)
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if err := h.rc.Publish(ctx, redisChanReader, string(data)); err != nil && h.logger != nil {
				h.logger.Warn("gateway publish failed", zap.Error(err))
			}
		}
	}
}

// BroadcastReader sends an event to every connected reader, on every instance.
func (h *Hub) BroadcastReader(event string, payload interface{}) {
	select {
	case h.broadcast <- Message{Event: event, Payload: payload}:
	default:
		if h.logger != nil {
			h.logger.Warn("gateway broadcast dropped", zap.String("event", event))
		}
	}
}

// ClientCount returns the number of connected readers on this instance.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) deliver(msg Message) {
	h.sio.Of(namespaceReader, nil).Emit("message", msg)
}

// subscribeRedis replays broadcasts published by other server instances.
func (h *Hub) subscribeRedis(ctx context.Context) {
	pubsub := h.rc.Subscribe(ctx, redisChanReader)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return

		case redisMsg, ok := <-ch:
			if !ok {
				return
			}
			var msg Message
			if err := json.Unmarshal([]byte(redisMsg.Payload), &msg); err != nil {
				continue
			}
			h.deliver(msg)
		}
	}
}

// Handler returns the socket.io HTTP handler mounted at /socket.io.
func (h *Hub) Handler() http.Handler {
	return h.sio.ServeHandler(nil)
}
