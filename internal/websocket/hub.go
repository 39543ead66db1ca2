package websocket

import (
	"sync"

	"github.com/dom/deception-server/internal/config"
	"github.com/dom/deception-server/internal/domain"
	"github.com/dom/deception-server/internal/service"
	"github.com/google/uuid"
)

// Hub tracks connected clients and the match channel of every room that has
// at least one follower.
type Hub struct {
	channels   map[uuid.UUID]*MatchChannel
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopped    bool

	dispatcher *Dispatcher
	countdowns *CountdownManager
	redact     bool

	mu sync.RWMutex
}

func NewHub(services *service.Services, cfg *config.Config) *Hub {
	h := &Hub{
		channels:   make(map[uuid.UUID]*MatchChannel),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		countdowns: NewCountdownManager(),
		redact:     cfg.RedactSnapshots,
	}
	h.dispatcher = NewDispatcher(h, services, cfg.StartCountdown)
	return h
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.countdowns.StopAll()

			h.mu.Lock()
			h.stopped = true
			for client := range h.clients {
				client.Close()
			}
			h.clients = make(map[*Client]bool)
			h.channels = make(map[uuid.UUID]*MatchChannel)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if !h.stopped {
				h.clients[client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				h.detach(client)
				client.Close()
			}
			h.mu.Unlock()
		}
	}
}

// Stop shuts the hub down and blocks until Run has returned.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	close(h.stop)
	<-h.done
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister is safe to call while the hub is stopping.
func (h *Hub) Unregister(client *Client) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()

	if stopped {
		return
	}

	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Follow moves the client to the room's channel.
func (h *Hub) Follow(client *Client, roomID uuid.UUID) *MatchChannel {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.detach(client)
	ch, ok := h.channels[roomID]
	if !ok {
		ch = NewMatchChannel(roomID, h.redact)
		h.channels[roomID] = ch
	}
	ch.AddClient(client)
	client.setRoomID(roomID)
	return ch
}

// Unfollow removes the client from whatever room it follows.
func (h *Hub) Unfollow(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detach(client)
}

// detach must be called with h.mu held.
func (h *Hub) detach(client *Client) {
	roomID := client.RoomID()
	if roomID == uuid.Nil {
		return
	}
	client.setRoomID(uuid.Nil)
	if ch, ok := h.channels[roomID]; ok {
		ch.RemoveClient(client)
		if ch.ClientCount() == 0 {
			delete(h.channels, roomID)
		}
	}
}

// Channel returns the room's channel, or nil if nobody follows the room.
func (h *Hub) Channel(roomID uuid.UUID) *MatchChannel {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.channels[roomID]
}

// PublishMatch sends a committed snapshot to the match's room.
func (h *Hub) PublishMatch(m *domain.Match) {
	if ch := h.Channel(m.RoomID); ch != nil {
		ch.Publish(m)
	}
}

// BroadcastRoom sends a message to everyone following the room.
func (h *Hub) BroadcastRoom(roomID uuid.UUID, msg *Message) {
	if ch := h.Channel(roomID); ch != nil {
		ch.Broadcast(msg)
	}
}

func (h *Hub) RoomUpdated(roomID uuid.UUID, room *domain.Room) {
	msg, err := NewMessage(MessageTypeRoomUpdated, RoomUpdatedPayload{RoomID: roomID, Room: room})
	if err != nil {
		return
	}
	h.BroadcastRoom(roomID, msg)
}

func (h *Hub) MatchCreated(m *domain.Match) {
	msg, err := NewMessage(MessageTypeMatchCreated, MatchCreatedPayload{ID: m.ID})
	if err != nil {
		return
	}
	h.BroadcastRoom(m.RoomID, msg)
	h.PublishMatch(m)
}

// MatchDestroyed cancels any pending start and tells the room the match is
// gone.
func (h *Hub) MatchDestroyed(roomID, matchID uuid.UUID) {
	h.countdowns.Cancel(matchID)
	ch := h.Channel(roomID)
	if ch == nil {
		return
	}
	ch.Destroy(matchID)
	msg, err := NewMessage(MessageTypeMatchDestroyed, MatchDestroyedPayload{ID: matchID})
	if err != nil {
		return
	}
	ch.Broadcast(msg)
}

func (h *Hub) Countdowns() *CountdownManager {
	return h.countdowns
}
