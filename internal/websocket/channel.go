package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/dom/deception-server/internal/domain"
	"github.com/dom/deception-server/internal/game"
	"github.com/google/uuid"
)

// MatchChannel fans match snapshots out to the clients following one room.
// Publishing is serialized, and a snapshot that is not newer than the last
// one published for the same match is dropped, so every client sees
// versions in commit order.
type MatchChannel struct {
	roomID uuid.UUID
	redact bool

	mu          sync.Mutex
	clients     map[*Client]bool
	matchID     uuid.UUID
	lastVersion int64
	destroyed   map[uuid.UUID]bool
}

func NewMatchChannel(roomID uuid.UUID, redact bool) *MatchChannel {
	return &MatchChannel{
		roomID:      roomID,
		redact:      redact,
		clients:     make(map[*Client]bool),
		lastVersion: -1,
		destroyed:   make(map[uuid.UUID]bool),
	}
}

func (ch *MatchChannel) AddClient(client *Client) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.clients[client] = true
}

func (ch *MatchChannel) RemoveClient(client *Client) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	delete(ch.clients, client)
}

func (ch *MatchChannel) ClientCount() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return len(ch.clients)
}

// Broadcast sends the same message to every client.
func (ch *MatchChannel) Broadcast(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("ERROR [websocket.Broadcast] failed to marshal %s: %v", msg.Type, err)
		return
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()
	for client := range ch.clients {
		client.trySend(data)
	}
}

// Publish sends the committed snapshot to every client and reports whether
// it was sent. A snapshot of a different match than the last one restarts
// the version sequence. Snapshots of a destroyed match are never sent.
func (ch *MatchChannel) Publish(m *domain.Match) bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.destroyed[m.ID] {
		return false
	}
	if m.ID == ch.matchID && m.Version <= ch.lastVersion {
		return false
	}
	ch.matchID = m.ID
	ch.lastVersion = m.Version

	if !ch.redact {
		data, err := snapshotMessage(m)
		if err != nil {
			log.Printf("ERROR [websocket.Publish] failed to marshal match %s: %v", m.ID, err)
			return false
		}
		for client := range ch.clients {
			client.trySend(data)
		}
		return true
	}

	for client := range ch.clients {
		data, err := snapshotMessage(game.ViewFor(m, client.userID))
		if err != nil {
			log.Printf("ERROR [websocket.Publish] failed to marshal match %s: %v", m.ID, err)
			continue
		}
		client.trySend(data)
	}
	return true
}

// SendSnapshot delivers a snapshot to a single client out of band, without
// touching the published version.
func (ch *MatchChannel) SendSnapshot(client *Client, m *domain.Match) {
	sendSnapshot(client, m, ch.redact)
}

// Destroy forgets the published match and drops any snapshot of it that
// is still on its way.
func (ch *MatchChannel) Destroy(matchID uuid.UUID) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.destroyed[matchID] = true
	if ch.matchID == matchID {
		ch.matchID = uuid.Nil
		ch.lastVersion = -1
	}
}

func sendSnapshot(client *Client, m *domain.Match, redact bool) {
	if redact {
		m = game.ViewFor(m, client.userID)
	}
	data, err := snapshotMessage(m)
	if err != nil {
		log.Printf("ERROR [websocket.SendSnapshot] failed to marshal match %s: %v", m.ID, err)
		return
	}
	client.trySend(data)
}

func snapshotMessage(m *domain.Match) ([]byte, error) {
	msg, err := NewMessage(MessageTypeMatchStateUpdated, m)
	if err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}
