package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/calculon/goals-api/internal/access"
	"github.com/calculon/goals-api/internal/budget"
	"github.com/calculon/goals-api/internal/middleware"
	"github.com/calculon/goals-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// EventConnected is the first message on a new connection.
const EventConnected = "connected"

// WSEvent is the JSON message sent to connected clients
type WSEvent struct {
	Type    string          `json:"type"`
	GoalID  string          `json:"goalId"`
	UserID  string          `json:"userId"`
	Data    interface{}     `json:"data,omitempty"`
	Summary *budget.Summary `json:"summary,omitempty"`
}

// connection is one client subscribed to one goal under one session.
// Events are queued and written by a single goroutine.
type connection struct {
	userID    uuid.UUID
	sessionID uuid.UUID
	goalID    uuid.UUID
	state     *access.State
	events    chan services.Event
	write     func(msg []byte) error
	close     func() error
}

func newConnection(userID, sessionID, goalID uuid.UUID, state *access.State, write func([]byte) error, close func() error) *connection {
	return &connection{
		userID:    userID,
		sessionID: sessionID,
		goalID:    goalID,
		state:     state,
		events:    make(chan services.Event, 16),
		write:     write,
		close:     close,
	}
}

// pump writes queued events until the queue is closed, a write fails or the
// user signs out. Before each goal event the connection's view is refreshed
// so the message carries the recomputed summary.
func (conn *connection) pump(ctx context.Context) {
	for ev := range conn.events {
		if ev.Type == services.EventSignedOut {
			conn.state.Clear()
			conn.close()
			return
		}

		msg := WSEvent{
			Type:   ev.Type,
			GoalID: ev.GoalID.String(),
			UserID: ev.UserID.String(),
			Data:   ev.Data,
		}
		if ev.Type != services.EventGoalDeleted {
			// A failed refresh keeps the previous summary.
			conn.state.Refresh(ctx)
			if sum, ok := conn.state.Summary(conn.goalID); ok {
				msg.Summary = &sum
			}
		}

		if err := conn.send(msg); err != nil {
			slog.Debug("ws write failed", "error", err, "user_id", conn.userID)
			return
		}
	}
}

func (conn *connection) send(msg WSEvent) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.write(b)
}

// Hub manages WebSocket connections per goal
type Hub struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*connection]bool // goalID -> set of connections
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[uuid.UUID]map[*connection]bool)}
}

// Global hub instance
var WS = NewHub()

// Attach relays bus events to the hub's rooms. It returns the unsubscribe
// func.
func (h *Hub) Attach(bus *services.Bus) func() {
	return bus.Subscribe(h.Dispatch)
}

func (h *Hub) register(conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[conn.goalID] == nil {
		h.rooms[conn.goalID] = make(map[*connection]bool)
	}
	h.rooms[conn.goalID][conn] = true
	slog.Debug("ws register", "user_id", conn.userID, "goal_id", conn.goalID, "total", len(h.rooms[conn.goalID]))
}

// unregister removes the connection and closes its queue.
func (h *Hub) unregister(conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.rooms[conn.goalID]
	if !ok || !conns[conn] {
		return
	}
	delete(conns, conn)
	close(conn.events)
	slog.Debug("ws unregister", "user_id", conn.userID, "goal_id", conn.goalID, "remaining", len(conns))
	if len(conns) == 0 {
		delete(h.rooms, conn.goalID)
	}
}

// Dispatch queues a bus event on the connections it concerns. Goal events
// go to the goal's room, excluding the user who caused them. Sign-out goes
// to the connections opened with the revoked session.
func (h *Hub) Dispatch(ev services.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	switch ev.Type {
	case services.EventSignedIn:
		return
	case services.EventSignedOut:
		for _, conns := range h.rooms {
			for conn := range conns {
				if conn.userID == ev.UserID && conn.sessionID == ev.SessionID {
					enqueue(conn, ev)
				}
			}
		}
		return
	}

	conns, ok := h.rooms[ev.GoalID]
	if !ok {
		return
	}
	slog.Debug("ws broadcast", "type", ev.Type, "goal_id", ev.GoalID, "connections", len(conns))
	for conn := range conns {
		if conn.userID == ev.UserID {
			continue
		}
		enqueue(conn, ev)
	}
}

func enqueue(conn *connection, ev services.Event) {
	select {
	case conn.events <- ev:
	default:
		slog.Warn("ws queue full, dropping event", "type", ev.Type, "user_id", conn.userID)
	}
}

// WebSocketUpgrade is the middleware that checks the upgrade request and
// authenticates it from ?token= or the Authorization header
func WebSocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		tokenString := c.Query("token")
		if tokenString == "" {
			authHeader := c.Get("Authorization")
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				tokenString = ""
			}
		}

		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authentication token",
			})
		}
		if !middleware.Authenticate(c, tokenString) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		if _, _, err := goalForUser(c); err != nil {
			return err
		}
		return c.Next()
	}
}

// HandleWebSocket streams change events for one goal
func HandleWebSocket(c *websocket.Conn) {
	goalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		c.Close()
		return
	}

	userID, ok := c.Locals("userId").(uuid.UUID)
	if !ok {
		c.Close()
		return
	}

	sessionID, _ := c.Locals("sessionId").(uuid.UUID)

	ctx := context.Background()
	state := access.NewState(resolver(), userID)
	conn := newConnection(userID, sessionID, goalID, state, func(msg []byte) error {
		return c.WriteMessage(websocket.TextMessage, msg)
	}, c.Close)

	hello := WSEvent{Type: EventConnected, GoalID: goalID.String(), UserID: userID.String()}
	if err := state.Refresh(ctx); err == nil {
		if sum, ok := state.Summary(goalID); ok {
			hello.Summary = &sum
		}
	}
	if err := conn.send(hello); err != nil {
		c.Close()
		return
	}

	WS.register(conn)
	done := make(chan struct{})
	go func() {
		conn.pump(ctx)
		close(done)
	}()

	// Keep connection alive; clients only send pings
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}

	WS.unregister(conn)
	<-done
}
