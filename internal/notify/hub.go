package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"autobid/internal/metrics"
	"autobid/utils"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 64
)

// Client actions
const (
	ActionJoinVehicle  = "join-vehicle"
	ActionLeaveVehicle = "leave-vehicle"
)

// ClientMessage is what a websocket client sends to manage its subscriptions
type ClientMessage struct {
	Action    string `json:"action"`
	VehicleID string `json:"vehicleId"`
}

// Hub keeps websocket clients grouped by vehicle room and fans events out to them
type Hub struct {
	upgrader websocket.Upgrader
	metrics  *metrics.Metrics

	mu      sync.RWMutex
	rooms   map[string]map[*client]struct{}
	clients map[*client]struct{}
}

type client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	rooms map[string]struct{} // guarded by hub.mu
}

// NewHub creates a Hub. An empty allowedOrigins list, or one containing "*", accepts any origin.
func NewHub(allowedOrigins []string, m *metrics.Metrics) *Hub {
	h := &Hub{
		metrics: m,
		rooms:   make(map[string]map[*client]struct{}),
		clients: make(map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

// ServeWS upgrades the request and serves the connection until it closes
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.Warn("websocket upgrade failed", map[string]any{"error": err.Error()})
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), rooms: make(map[string]struct{})}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.SocketOpened()
	utils.Debug("websocket client connected", map[string]any{"remote": r.RemoteAddr})

	go c.writePump()
	go c.readPump()
}

// Publish sends an event to every client in the vehicle's room
func (h *Hub) Publish(_ context.Context, vehicleID string, event EventType, payload any) error {
	msg, err := Encode(vehicleID, event, payload)
	if err != nil {
		return err
	}
	h.Broadcast(vehicleID, msg)
	return nil
}

// Broadcast sends an encoded envelope to the vehicle's room. Clients whose send queue is
// full are disconnected.
func (h *Hub) Broadcast(vehicleID string, msg []byte) {
	var slow []*client

	h.mu.RLock()
	for c := range h.rooms[RoomName(vehicleID)] {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		utils.Warn("dropping slow websocket client", map[string]any{"vehicle_id": vehicleID})
		h.remove(c)
	}
}

// RoomSize returns the number of clients subscribed to the vehicle
func (h *Hub) RoomSize(vehicleID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[RoomName(vehicleID)])
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.RLock()
	all := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()

	for _, c := range all {
		h.remove(c)
	}
}

func (h *Hub) join(c *client, vehicleID string) {
	room := RoomName(vehicleID)

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*client]struct{})
	}
	h.rooms[room][c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) leave(c *client, vehicleID string) {
	room := RoomName(vehicleID)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

func (h *Hub) leaveLocked(c *client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.rooms, room)
}

// remove unregisters c once; its send channel is closed so the write pump exits
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	close(c.send)
	h.mu.Unlock()

	h.metrics.SocketClosed()
}

func (c *client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				utils.Debug("websocket read failed", map[string]any{"error": err.Error()})
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.VehicleID == "" {
			continue
		}
		switch msg.Action {
		case ActionJoinVehicle:
			c.hub.join(c, msg.VehicleID)
		case ActionLeaveVehicle:
			c.hub.leave(c, msg.VehicleID)
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.hub.remove(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.remove(c)
				return
			}
		}
	}
}
