package broadcast

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/BekaPrado/novo-mobile-sub000/domain/conversation"
)

// Conn is the write side of a WebSocket connection.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Client represents a connected WebSocket client.
type Client struct {
	ID      string
	UserID  int64
	Name    string
	Avatar  string
	conn    Conn
	writeMu sync.Mutex
	rooms   map[int64]struct{}
	roomsMu sync.Mutex
}

// NewClient wraps conn for the user. The hub tracks it once registered.
func NewClient(conn Conn, userID int64, name, avatar string) *Client {
	return &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Name:   name,
		Avatar: avatar,
		conn:   conn,
		rooms:  make(map[int64]struct{}),
	}
}

// Send writes one frame. Writes to the same client are serialized.
func (c *Client) Send(frame conversation.Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(frame)
}

// InRoom reports whether the client has joined roomID.
func (c *Client) InRoom(roomID int64) bool {
	c.roomsMu.Lock()
	defer c.roomsMu.Unlock()
	_, ok := c.rooms[roomID]
	return ok
}

func (c *Client) setRoom(roomID int64, in bool) {
	c.roomsMu.Lock()
	defer c.roomsMu.Unlock()
	if in {
		c.rooms[roomID] = struct{}{}
	} else {
		delete(c.rooms, roomID)
	}
}

func (c *Client) roomIDs() []int64 {
	c.roomsMu.Lock()
	defer c.roomsMu.Unlock()
	ids := make([]int64, 0, len(c.rooms))
	for id := range c.rooms {
		ids = append(ids, id)
	}
	return ids
}

// Hub tracks connected clients by room and fans frames out to them.
type Hub struct {
	clients   map[string]*Client
	rooms     map[int64]map[string]*Client
	broadcast chan *roomFrame
	done      chan struct{}
	mu        sync.RWMutex
}

type roomFrame struct {
	roomID int64
	frame  conversation.Frame
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[string]*Client),
		rooms:     make(map[int64]map[string]*Client),
		broadcast: make(chan *roomFrame, 256),
		done:      make(chan struct{}),
	}
}

// Run delivers broadcasts until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Println("[hub] Shutting down...")
			h.closeAllClients()
			close(h.done)
			return
		case msg := <-h.broadcast:
			h.handleBroadcast(msg)
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		_ = client.conn.Close()
	}
	h.clients = make(map[string]*Client)
	h.rooms = make(map[int64]map[string]*Client)
}

func (h *Hub) handleBroadcast(msg *roomFrame) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[msg.roomID]))
	for _, client := range h.rooms[msg.roomID] {
		members = append(members, client)
	}
	h.mu.RUnlock()

	for _, client := range members {
		if err := client.Send(msg.frame); err != nil {
			log.Printf("[hub] Failed to send to client %s: %v", client.ID, err)
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	log.Printf("[hub] Client %s (user %d) registered", client.ID, client.UserID)
}

// Unregister removes a client from the hub and from every room it joined.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	for _, roomID := range client.roomIDs() {
		h.removeFromRoom(client, roomID)
	}
	log.Printf("[hub] Client %s (user %d) unregistered", client.ID, client.UserID)
}

// Join adds a registered client to a room. A client may be in many rooms.
func (h *Hub) Join(client *Client, roomID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return false
	}
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]*Client)
	}
	h.rooms[roomID][client.ID] = client
	client.setRoom(roomID, true)
	log.Printf("[hub] Client %s joined room %d", client.ID, roomID)
	return true
}

// Leave removes a client from one room.
func (h *Hub) Leave(client *Client, roomID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !client.InRoom(roomID) {
		return
	}
	h.removeFromRoom(client, roomID)
	log.Printf("[hub] Client %s left room %d", client.ID, roomID)
}

func (h *Hub) removeFromRoom(client *Client, roomID int64) {
	client.setRoom(roomID, false)
	if members := h.rooms[roomID]; members != nil {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// Broadcast queues a frame for every client in the room. It returns false
// once the hub has stopped.
func (h *Hub) Broadcast(roomID int64, frame conversation.Frame) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.broadcast <- &roomFrame{roomID: roomID, frame: frame}:
		return true
	case <-h.done:
		return false
	}
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomClientCount returns the number of clients in a room.
func (h *Hub) RoomClientCount(roomID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// RoomCount returns the number of rooms with at least one client.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}
