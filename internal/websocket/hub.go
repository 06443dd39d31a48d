package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"notebooklm-backend/internal/database"
)

// tokenVerifier resolves a bearer token to the caller's user id.
type tokenVerifier interface {
	Verify(token string) (string, error)
}

// subscriber opens pub/sub subscriptions. *redis.Client satisfies it.
type subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// client is one open socket. A gorilla connection allows a single concurrent
// writer, so every write goes through writeMu.
type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub keeps each user's open sockets and relays their job events from Redis.
type Hub struct {
	mu          sync.RWMutex
	connections map[string][]*client
	cancelFuncs map[string]context.CancelFunc
	redis       subscriber
	auth        tokenVerifier
	upgrader    websocket.Upgrader
}

func NewHub(redisClient subscriber, auth tokenVerifier, allowedOrigin string) *Hub {
	return &Hub{
		connections: make(map[string][]*client),
		cancelFuncs: make(map[string]context.CancelFunc),
		redis:       redisClient,
		auth:        auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigin),
		},
	}
}

// originChecker accepts requests without an Origin header and those from the
// configured frontend. An empty allowedOrigin accepts everything.
func originChecker(allowedOrigin string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return allowedOrigin == "" || origin == "" || origin == allowedOrigin
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Browsers cannot set headers on the upgrade request, so the token rides in the query.
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userID, err := h.auth.Verify(tokenStr)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn}
	h.registerConnection(userID, c)

	go func() {
		defer h.unregisterConnection(userID, c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Connections reports how many sockets userID has open.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[userID])
}

func (h *Hub) registerConnection(userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[userID] = append(h.connections[userID], c)

	// first socket for this user opens the subscription
	if len(h.connections[userID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[userID] = cancel
		go h.subscribe(ctx, userID)
	}

	zap.L().Debug("websocket connected",
		zap.String("user_id", userID),
		zap.Int("connections", len(h.connections[userID])),
	)
}

func (h *Hub) unregisterConnection(userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.conn.Close()

	conns := h.connections[userID]
	for i, other := range conns {
		if other == c {
			h.connections[userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	if len(h.connections[userID]) == 0 {
		delete(h.connections, userID)
		if cancel, ok := h.cancelFuncs[userID]; ok {
			cancel()
			delete(h.cancelFuncs, userID)
		}
	}

	zap.L().Debug("websocket disconnected", zap.String("user_id", userID))
}

func (h *Hub) subscribe(ctx context.Context, userID string) {
	pubsub := h.redis.Subscribe(ctx, database.UserChannel(userID))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(userID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(userID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.connections[userID] {
		if err := c.write(data); err != nil {
			zap.L().Debug("websocket write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
}

// SendToUser writes msg to every open socket of userID without going through Redis.
func (h *Hub) SendToUser(userID string, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		zap.L().Warn("websocket message encode failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	h.broadcast(userID, data)
}

// Close cancels every subscription and closes every socket.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, cancel := range h.cancelFuncs {
		cancel()
		delete(h.cancelFuncs, userID)
	}
	for userID, conns := range h.connections {
		for _, c := range conns {
			c.conn.Close()
		}
		delete(h.connections, userID)
	}
}
