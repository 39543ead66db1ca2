package testutil

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dom/deception-server/internal/domain"
	"github.com/dom/deception-server/internal/game"
	"github.com/dom/deception-server/internal/websocket"
	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
)

// WSClient is a test WebSocket client
type WSClient struct {
	t        *testing.T
	conn     *gorillaWS.Conn
	messages chan *websocket.Message
	errors   chan error
	done     chan struct{}
	mu       sync.Mutex
}

// NewWSClient creates a new WebSocket test client
func NewWSClient(t *testing.T, url string) *WSClient {
	t.Helper()

	dialer := *gorillaWS.DefaultDialer
	dialer.HandshakeTimeout = 5 * time.Second

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to connect to websocket: %v", err)
	}

	client := &WSClient{
		t:        t,
		conn:     conn,
		messages: make(chan *websocket.Message, 100),
		errors:   make(chan error, 10),
		done:     make(chan struct{}),
	}

	go client.readPump()

	t.Cleanup(func() {
		client.Close()
	})

	return client
}

// readPump reads messages from the WebSocket connection
func (c *WSClient) readPump() {
	defer close(c.messages)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			case c.errors <- err:
			default:
			}
			return
		}

		var msg websocket.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			select {
			case c.errors <- err:
			default:
			}
			continue
		}

		select {
		case c.messages <- &msg:
		case <-c.done:
			return
		}
	}
}

// Close closes the WebSocket connection gracefully
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
		close(c.done)
		c.conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""))
		c.conn.Close()
	}
}

// Send writes an action message with the given payload
func (c *WSClient) Send(msgType websocket.MessageType, payload interface{}) {
	c.t.Helper()

	msg, err := websocket.NewMessage(msgType, payload)
	if err != nil {
		c.t.Fatalf("failed to build %s message: %v", msgType, err)
	}
	c.SendMessage(msg)
}

// SendRaw writes raw bytes, for malformed input tests
func (c *WSClient) SendRaw(data []byte) {
	c.t.Helper()

	c.mu.Lock()
	err := c.conn.WriteMessage(gorillaWS.TextMessage, data)
	c.mu.Unlock()

	if err != nil {
		c.t.Fatalf("failed to send raw message: %v", err)
	}
}

// SendMessage writes an already built envelope
func (c *WSClient) SendMessage(msg *websocket.Message) {
	c.t.Helper()

	data, err := json.Marshal(msg)
	if err != nil {
		c.t.Fatalf("failed to marshal message: %v", err)
	}
	c.SendRaw(data)
}

func (c *WSClient) EnterRoom(roomID uuid.UUID) {
	c.Send(websocket.MessageTypeEnterRoom, websocket.EnterRoomAction{RoomID: roomID})
}

func (c *WSClient) LeaveRoom() {
	c.Send(websocket.MessageTypeLeaveRoom, websocket.LeaveRoomAction{})
}

func (c *WSClient) SetRoomReady(ready bool) {
	c.Send(websocket.MessageTypeSetRoomReady, websocket.SetRoomReadyAction{Ready: ready})
}

func (c *WSClient) StartMatch() {
	c.Send(websocket.MessageTypeStartMatch, websocket.StartMatchAction{})
}

func (c *WSClient) Ready(matchID, playerID uuid.UUID) {
	c.Send(websocket.MessageTypeReady, websocket.ReadyAction{MatchRef: ref(matchID, playerID)})
}

func (c *WSClient) Accuse(matchID, playerID uuid.UUID, measure, clue string) {
	c.Send(websocket.MessageTypeAccuse, websocket.AccuseAction{
		MatchRef: ref(matchID, playerID),
		Measure:  measure,
		Clue:     clue,
	})
}

func (c *WSClient) ProvideTestimony(matchID, playerID uuid.UUID, options []domain.Option) {
	c.Send(websocket.MessageTypeProvideTestimony, websocket.ProvideTestimonyAction{
		MatchRef: ref(matchID, playerID),
		Options:  options,
	})
}

func (c *WSClient) SolveCase(matchID, playerID uuid.UUID, measure, clue string, index int) {
	c.Send(websocket.MessageTypeSolveCase, websocket.SolveCaseAction{
		MatchRef: ref(matchID, playerID),
		Measure:  measure,
		Clue:     clue,
		Index:    index,
	})
}

func (c *WSClient) EndTurn(matchID, playerID uuid.UUID, index int) {
	c.Send(websocket.MessageTypeEndTurn, websocket.EndTurnAction{
		MatchRef: ref(matchID, playerID),
		Index:    index,
	})
}

func (c *WSClient) ReplenishTestimony(matchID, playerID uuid.UUID, cards []game.CardEdit, options []domain.Option) {
	c.Send(websocket.MessageTypeReplenishTestimony, websocket.ReplenishTestimonyAction{
		MatchRef: ref(matchID, playerID),
		Cards:    cards,
		Options:  options,
	})
}

func (c *WSClient) Quit(matchID, playerID uuid.UUID) {
	c.Send(websocket.MessageTypeQuit, websocket.QuitAction{MatchRef: ref(matchID, playerID)})
}

func (c *WSClient) SyncState(matchID uuid.UUID) {
	c.Send(websocket.MessageTypeSyncState, websocket.SyncStateAction{MatchID: matchID})
}

func ref(matchID, playerID uuid.UUID) websocket.MatchRef {
	return websocket.MatchRef{MatchID: matchID, PlayerID: playerID}
}

// ExpectMessage waits for a message of the specified type, skipping others
func (c *WSClient) ExpectMessage(msgType websocket.MessageType, timeout time.Duration) *websocket.Message {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case msg := <-c.messages:
			if msg == nil {
				c.t.Fatalf("connection closed while waiting for %s", msgType)
			}
			if msg.Type == msgType {
				return msg
			}
		case err := <-c.errors:
			c.t.Fatalf("error while waiting for %s: %v", msgType, err)
		case <-deadline:
			c.t.Fatalf("timeout waiting for message type %s", msgType)
		}
	}
}

// ExpectMatchState waits for and decodes a match snapshot
func (c *WSClient) ExpectMatchState(timeout time.Duration) *domain.Match {
	c.t.Helper()

	msg := c.ExpectMessage(websocket.MessageTypeMatchStateUpdated, timeout)

	var m domain.Match
	if err := json.Unmarshal(msg.Payload, &m); err != nil {
		c.t.Fatalf("failed to decode match state: %v", err)
	}
	return &m
}

// ExpectMatchPhase skips snapshots until one reaches the given phase
func (c *WSClient) ExpectMatchPhase(phase domain.Phase, timeout time.Duration) *domain.Match {
	c.t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			c.t.Fatalf("timeout waiting for phase %s", phase)
		}
		m := c.ExpectMatchState(remaining)
		if m.Phase == phase {
			return m
		}
	}
}

// ExpectRoomUpdated waits for and decodes a room update
func (c *WSClient) ExpectRoomUpdated(timeout time.Duration) *websocket.RoomUpdatedPayload {
	c.t.Helper()

	msg := c.ExpectMessage(websocket.MessageTypeRoomUpdated, timeout)

	var payload websocket.RoomUpdatedPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.t.Fatalf("failed to decode room update: %v", err)
	}
	return &payload
}

// ExpectMatchCreated waits for a match_created message and returns the match id
func (c *WSClient) ExpectMatchCreated(timeout time.Duration) uuid.UUID {
	c.t.Helper()

	msg := c.ExpectMessage(websocket.MessageTypeMatchCreated, timeout)

	var payload websocket.MatchCreatedPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.t.Fatalf("failed to decode match created payload: %v", err)
	}
	return payload.ID
}

// ExpectError waits for and decodes an error message
func (c *WSClient) ExpectError(timeout time.Duration) *websocket.ErrorPayload {
	c.t.Helper()

	msg := c.ExpectMessage(websocket.MessageTypeError, timeout)

	var payload websocket.ErrorPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.t.Fatalf("failed to decode error payload: %v", err)
	}

	return &payload
}

// ExpectErrorWithCode waits for an error with a specific code
func (c *WSClient) ExpectErrorWithCode(code string, timeout time.Duration) *websocket.ErrorPayload {
	c.t.Helper()

	payload := c.ExpectError(timeout)
	if payload.Code != code {
		c.t.Fatalf("expected error code %s, got %s: %s", code, payload.Code, payload.Message)
	}

	return payload
}

// ExpectNoMessageOfType verifies no message of the type arrives within timeout
func (c *WSClient) ExpectNoMessageOfType(msgType websocket.MessageType, timeout time.Duration) {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case msg := <-c.messages:
			if msg != nil && msg.Type == msgType {
				c.t.Fatalf("unexpected %s message received", msgType)
			}
		case <-deadline:
			return
		}
	}
}

// DrainMessages discards everything buffered once the stream goes quiet
func (c *WSClient) DrainMessages() {
	c.DrainMessagesWithTimeout(100 * time.Millisecond)
}

// DrainMessagesWithTimeout discards messages until none arrive for timeout
func (c *WSClient) DrainMessagesWithTimeout(timeout time.Duration) {
	for {
		select {
		case msg := <-c.messages:
			if msg == nil {
				return
			}
		case <-time.After(timeout):
			return
		}
	}
}
