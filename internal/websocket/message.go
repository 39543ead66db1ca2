package websocket

import (
	"encoding/json"
	"time"

	"github.com/dom/deception-server/internal/domain"
	"github.com/google/uuid"
)

type MessageType string

const (
	// Client to Server
	MessageTypeEnterRoom          MessageType = "enter_room"
	MessageTypeLeaveRoom          MessageType = "leave_room"
	MessageTypeSetRoomReady       MessageType = "set_room_ready"
	MessageTypeStartMatch         MessageType = "start_match"
	MessageTypeReady              MessageType = "ready"
	MessageTypeAccuse             MessageType = "accuse"
	MessageTypeProvideTestimony   MessageType = "provide_testimony"
	MessageTypeSolveCase          MessageType = "solve_case"
	MessageTypeEndTurn            MessageType = "end_turn"
	MessageTypeAssist             MessageType = "assist"
	MessageTypeReplenishTestimony MessageType = "replenish_testimony"
	MessageTypeQuit               MessageType = "quit"
	MessageTypeSyncState          MessageType = "sync_state"

	// Server to Client
	MessageTypeRoomUpdated       MessageType = "room_updated"
	MessageTypeMatchCreated      MessageType = "match_created"
	MessageTypeMatchStateUpdated MessageType = "match_state_updated"
	MessageTypeMatchStarting     MessageType = "match_starting"
	MessageTypeMatchDestroyed    MessageType = "match_destroyed"
	MessageTypeCaseSolved        MessageType = "case_solved"
	MessageTypeError             MessageType = "error"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// Server to Client payloads

// RoomUpdatedPayload carries the room with its members after any membership
// or readiness change. Room is nil once the room has been deleted.
type RoomUpdatedPayload struct {
	RoomID uuid.UUID    `json:"roomId"`
	Room   *domain.Room `json:"room"`
}

type MatchCreatedPayload struct {
	ID uuid.UUID `json:"id"`
}

type MatchStartingPayload struct {
	MatchID uuid.UUID `json:"matchId"`
	Seconds int       `json:"seconds"`
}

type MatchDestroyedPayload struct {
	ID uuid.UUID `json:"id"`
}

type CaseSolvedPayload struct {
	MatchID  uuid.UUID `json:"matchId"`
	PlayerID uuid.UUID `json:"playerId"`
	Solved   bool      `json:"solved"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
