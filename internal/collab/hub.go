// Package collab relays presence between clients viewing the same stage.
// Each stage gets a room; a client's cursor, selection and selection box
// are fanned out to everyone else in it. Stage contents are not synced.
package collab

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
)

type Room struct {
	stageID  string
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
}

func NewRoom(stageID string) *Room {
	return &Room{
		stageID:  stageID,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(),
	}
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // stageID -> room
	register   chan *Client
	unregister chan *Client

	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
	running  atomic.Bool
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// Run processes joins and leaves until Stop.
func (h *Hub) Run() {
	h.running.Store(true)
	defer close(h.stopped)

	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Stop disconnects every client and ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
	if h.running.Load() {
		<-h.stopped
	}
}

// Register adds a client to its stage's room. It reports false once the hub
// has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client. It never blocks after Stop.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of clients in a stage's room.
func (h *Hub) ClientCount(stageID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if room, ok := h.rooms[stageID]; ok {
		return len(room.clients)
	}
	return 0
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.StageID]
	if !ok {
		room = NewRoom(client.StageID)
		h.rooms[client.StageID] = room
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	// Send current presence state to new client
	if stateMsg := room.presence.StateMessage(client.ClientID); stateMsg != nil {
		client.Send(stateMsg)
	}

	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		ClientID:    client.ClientID,
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg := &Message{
		Type:     TypePresenceJoin,
		StageID:  client.StageID,
		ClientID: client.ClientID,
		UserID:   client.UserID,
		Payload:  joinPayload,
	}
	h.broadcastToRoom(client.StageID, joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "client", client.ClientID, "stage", client.StageID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.StageID]
	if !ok || room.clients[client.ClientID] != client {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.close()
	room.presence.Remove(client.ClientID)

	if len(room.clients) == 0 {
		delete(h.rooms, client.StageID)
	}
	h.mu.Unlock()

	leavePayload, _ := json.Marshal(PresenceLeavePayload{
		ClientID: client.ClientID,
		UserID:   client.UserID,
	})
	leaveMsg := &Message{
		Type:     TypePresenceLeave,
		StageID:  client.StageID,
		ClientID: client.ClientID,
		UserID:   client.UserID,
		Payload:  leavePayload,
	}
	h.broadcastToRoom(client.StageID, leaveMsg, "")

	slog.Info("client left", "user", client.UserID, "client", client.ClientID, "stage", client.StageID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for stageID, room := range h.rooms {
		for _, c := range room.clients {
			c.close()
		}
		delete(h.rooms, stageID)
	}
	slog.Info("presence hub stopped")
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "client", sender.ClientID)
		h.sendError(sender, "unknown message type")
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err, "client", sender.ClientID)
		h.sendError(sender, "invalid presence payload")
		return
	}

	presence.DisplayName = sender.DisplayName

	h.mu.RLock()
	room, ok := h.rooms[sender.StageID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	room.presence.Update(sender.ClientID, presence)

	outPayload, _ := json.Marshal(presence)
	outMsg := &Message{
		Type:     TypePresenceUpdate,
		StageID:  sender.StageID,
		ClientID: sender.ClientID,
		UserID:   sender.UserID,
		Payload:  outPayload,
	}
	h.broadcastToRoom(sender.StageID, outMsg, sender.ClientID)
}

func (h *Hub) sendError(client *Client, reason string) {
	msg, err := NewMessage(TypeError, map[string]string{"error": reason})
	if err != nil {
		return
	}
	client.Send(msg)
}

func (h *Hub) broadcastToRoom(stageID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[stageID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}
