package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dom/deception-server/internal/domain"
	"github.com/dom/deception-server/internal/websocket"
	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	ErrNoMatch    = errors.New("no match snapshot")
	ErrNotSeated  = errors.New("not seated in this match")
	ErrIncomplete = errors.New("staged action is incomplete")
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 512 * 1024
	eventBuffer    = 64
)

// Conn is one player's connection to the server. Match snapshots feed the
// store; every other server message is delivered on Events.
type Conn struct {
	baseURL string
	token   string
	http    *http.Client
	ws      *gorillaWS.Conn
	userID  uuid.UUID

	// presence as reported when the connection was made
	presence *domain.Presence

	store     *Store[State]
	selectors *Selectors
	events    chan *websocket.Message

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

// Dial resolves the caller's identity over HTTP and opens the websocket.
// baseURL is the server root, e.g. http://localhost:8080.
func Dial(ctx context.Context, baseURL, token string) (*Conn, error) {
	c := &Conn{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		},
		store:  NewStore(NewState(nil), Reduce),
		events: make(chan *websocket.Message, eventBuffer),
		done:   make(chan struct{}),
	}

	var me struct {
		ID       uuid.UUID        `json:"id"`
		Presence *domain.Presence `json:"presence"`
	}
	if err := c.getJSON(ctx, "/auth/me", &me); err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	c.userID = me.ID
	c.presence = me.Presence
	c.selectors = NewSelectors(me.ID)

	wsURL, err := c.websocketURL()
	if err != nil {
		return nil, err
	}
	dialer := *gorillaWS.DefaultDialer
	dialer.HandshakeTimeout = 5 * time.Second
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial websocket: %w", err)
	}
	conn.SetReadLimit(maxMessageSize)
	c.ws = conn

	go c.readLoop()
	return c, nil
}

func (c *Conn) websocketURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/v1/ws"
	u.RawQuery = url.Values{"token": {c.token}}.Encode()
	return u.String(), nil
}

func (c *Conn) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1"+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Conn) readLoop() {
	defer c.Close()
	defer close(c.events)

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if gorillaWS.IsUnexpectedCloseError(err, gorillaWS.CloseGoingAway, gorillaWS.CloseNormalClosure) {
				log.Printf("ERROR [client.readLoop] websocket read failed: %v", err)
			}
			return
		}

		var msg websocket.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("ERROR [client.readLoop] invalid message: %v", err)
			continue
		}

		switch msg.Type {
		case websocket.MessageTypeMatchStateUpdated:
			var m domain.Match
			if err := json.Unmarshal(msg.Payload, &m); err != nil {
				log.Printf("ERROR [client.readLoop] invalid match snapshot: %v", err)
				continue
			}
			c.store.Dispatch(SnapshotReceived{Match: &m})
		case websocket.MessageTypeMatchDestroyed:
			c.store.Dispatch(MatchCleared{})
		}

		select {
		case c.events <- &msg:
		default:
			log.Printf("WARN [client.readLoop] event buffer full, dropping %s", msg.Type)
		}
	}
}

func (c *Conn) UserID() uuid.UUID          { return c.userID }
func (c *Conn) Presence() *domain.Presence { return c.presence }
func (c *Conn) Store() *Store[State]       { return c.store }
func (c *Conn) Selectors() *Selectors      { return c.selectors }
func (c *Conn) Done() <-chan struct{}      { return c.done }
func (c *Conn) State() State               { return c.store.GetState() }
func (c *Conn) Dispatch(a Action) State    { return c.store.Dispatch(a) }

// Events delivers every server message in arrival order, including the
// snapshots already applied to the store. It is closed when the
// connection ends.
func (c *Conn) Events() <-chan *websocket.Message {
	return c.events
}

// FetchMatch loads the caller's view of a match over HTTP.
func (c *Conn) FetchMatch(ctx context.Context, matchID uuid.UUID) (*domain.Match, error) {
	var m domain.Match
	if err := c.getJSON(ctx, "/matches/"+matchID.String(), &m); err != nil {
		return nil, fmt.Errorf("fetch match: %w", err)
	}
	return &m, nil
}

// Follow seeds the store from HTTP and then asks the server for the live
// snapshot, so the store is never empty while waiting for a broadcast.
func (c *Conn) Follow(ctx context.Context, matchID uuid.UUID) error {
	m, err := c.FetchMatch(ctx, matchID)
	if err != nil {
		return err
	}
	c.store.Dispatch(SnapshotReceived{Match: m})
	return c.Send(websocket.SyncStateAction{MatchID: matchID})
}

// Resume puts a reconnected player back where the server last saw them:
// it re-enters their room and, if they still hold a seat, catches the store
// up on the match. A user with no room has nothing to resume.
func (c *Conn) Resume(ctx context.Context) error {
	if c.presence == nil {
		return nil
	}
	if err := c.EnterRoom(c.presence.RoomID); err != nil {
		return err
	}
	if !c.presence.Seated() {
		return nil
	}
	return c.Follow(ctx, *c.presence.MatchID)
}

func (c *Conn) Send(a websocket.Action) error {
	msg, err := websocket.NewMessage(a.Type(), a)
	if err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(gorillaWS.TextMessage, data)
}

// ref names the caller's seat in the current snapshot.
func (c *Conn) ref() (websocket.MatchRef, State, error) {
	s := c.store.GetState()
	if s.Snapshot == nil {
		return websocket.MatchRef{}, s, ErrNoMatch
	}
	self := c.selectors.Self(s.Snapshot)
	if self == nil {
		return websocket.MatchRef{}, s, ErrNotSeated
	}
	return websocket.MatchRef{MatchID: s.Snapshot.ID, PlayerID: self.ID}, s, nil
}

func (c *Conn) EnterRoom(roomID uuid.UUID) error {
	return c.Send(websocket.EnterRoomAction{RoomID: roomID})
}

func (c *Conn) SetRoomReady(ready bool) error {
	return c.Send(websocket.SetRoomReadyAction{Ready: ready})
}

func (c *Conn) StartMatch() error {
	return c.Send(websocket.StartMatchAction{})
}

func (c *Conn) Ready() error {
	ref, _, err := c.ref()
	if err != nil {
		return err
	}
	return c.Send(websocket.ReadyAction{MatchRef: ref})
}

// ConfirmHandSelect sends the staged hand selection as an accusation or a
// solve attempt, then clears it.
func (c *Conn) ConfirmHandSelect() error {
	ref, s, err := c.ref()
	if err != nil {
		return err
	}
	h := s.HandSelect
	if !h.Complete() {
		return ErrIncomplete
	}

	var a websocket.Action
	switch h.Purpose {
	case SelectForAccuse:
		a = websocket.AccuseAction{MatchRef: ref, Measure: h.Measure, Clue: h.Clue}
	default:
		a = websocket.SolveCaseAction{MatchRef: ref, Measure: h.Measure, Clue: h.Clue, Index: s.Snapshot.CurrentPlayerIndex}
	}
	if err := c.Send(a); err != nil {
		return err
	}
	c.store.Dispatch(ResetHandSelect{})
	return nil
}

func (c *Conn) ProvideTestimony() error {
	ref, s, err := c.ref()
	if err != nil {
		return err
	}
	if !s.Testimony.CanConfirm() {
		return ErrIncomplete
	}
	return c.Send(websocket.ProvideTestimonyAction{MatchRef: ref, Options: s.Testimony.Payload()})
}

func (c *Conn) EndTurn() error {
	ref, s, err := c.ref()
	if err != nil {
		return err
	}
	return c.Send(websocket.EndTurnAction{MatchRef: ref, Index: s.Snapshot.CurrentPlayerIndex})
}

// Assist draws cardID for the witness, or a random card when it is empty.
func (c *Conn) Assist(cardID string) error {
	ref, _, err := c.ref()
	if err != nil {
		return err
	}
	return c.Send(websocket.AssistAction{MatchRef: ref, CardID: cardID})
}

func (c *Conn) ReplenishTestimony() error {
	ref, s, err := c.ref()
	if err != nil {
		return err
	}
	if !s.Replenish.CanConfirm() {
		return ErrIncomplete
	}
	cards, options := s.Replenish.Payload(s.Snapshot)
	return c.Send(websocket.ReplenishTestimonyAction{MatchRef: ref, Cards: cards, Options: options})
}

func (c *Conn) Quit() error {
	ref, _, err := c.ref()
	if err != nil {
		return err
	}
	return c.Send(websocket.QuitAction{MatchRef: ref})
}

func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		c.ws.WriteControl(gorillaWS.CloseMessage,
			gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}
