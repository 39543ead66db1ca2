package websocket

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dom/deception-server/internal/domain"
	"github.com/dom/deception-server/internal/game"
	"github.com/google/uuid"
)

var (
	ErrUnknownAction  = errors.New("unknown action")
	ErrInvalidPayload = errors.New("invalid payload")
)

// Action is an inbound request decoded from a client message. The set of
// actions is closed: only types in this package implement it.
type Action interface {
	Type() MessageType
	validate() error
}

// MatchRef names the match and the player seat an action is taken for.
type MatchRef struct {
	MatchID  uuid.UUID `json:"matchId"`
	PlayerID uuid.UUID `json:"playerId"`
}

func (r MatchRef) validate() error {
	if r.MatchID == uuid.Nil {
		return errors.New("matchId is required")
	}
	if r.PlayerID == uuid.Nil {
		return errors.New("playerId is required")
	}
	return nil
}

type EnterRoomAction struct {
	RoomID uuid.UUID `json:"roomId"`
}

type LeaveRoomAction struct{}

type SetRoomReadyAction struct {
	Ready bool `json:"ready"`
}

type StartMatchAction struct{}

type ReadyAction struct {
	MatchRef
}

type AccuseAction struct {
	MatchRef
	Measure string `json:"measure"`
	Clue    string `json:"clue"`
}

type ProvideTestimonyAction struct {
	MatchRef
	Options []domain.Option `json:"options"`
}

type SolveCaseAction struct {
	MatchRef
	Measure string `json:"measure"`
	Clue    string `json:"clue"`
	Index   int    `json:"index"`
}

type EndTurnAction struct {
	MatchRef
	Index int `json:"index"`
}

type AssistAction struct {
	MatchRef
	// CardID is optional; empty draws a random card.
	CardID string `json:"cardId"`
}

type ReplenishTestimonyAction struct {
	MatchRef
	Cards   []game.CardEdit `json:"cards"`
	Options []domain.Option `json:"options"`
}

type QuitAction struct {
	MatchRef
}

type SyncStateAction struct {
	MatchID uuid.UUID `json:"matchId"`
}

func (EnterRoomAction) Type() MessageType          { return MessageTypeEnterRoom }
func (LeaveRoomAction) Type() MessageType          { return MessageTypeLeaveRoom }
func (SetRoomReadyAction) Type() MessageType       { return MessageTypeSetRoomReady }
func (StartMatchAction) Type() MessageType         { return MessageTypeStartMatch }
func (ReadyAction) Type() MessageType              { return MessageTypeReady }
func (AccuseAction) Type() MessageType             { return MessageTypeAccuse }
func (ProvideTestimonyAction) Type() MessageType   { return MessageTypeProvideTestimony }
func (SolveCaseAction) Type() MessageType          { return MessageTypeSolveCase }
func (EndTurnAction) Type() MessageType            { return MessageTypeEndTurn }
func (AssistAction) Type() MessageType             { return MessageTypeAssist }
func (ReplenishTestimonyAction) Type() MessageType { return MessageTypeReplenishTestimony }
func (QuitAction) Type() MessageType               { return MessageTypeQuit }
func (SyncStateAction) Type() MessageType          { return MessageTypeSyncState }

func (a EnterRoomAction) validate() error {
	if a.RoomID == uuid.Nil {
		return errors.New("roomId is required")
	}
	return nil
}

func (LeaveRoomAction) validate() error    { return nil }
func (SetRoomReadyAction) validate() error { return nil }
func (StartMatchAction) validate() error   { return nil }

func (a AccuseAction) validate() error {
	if err := a.MatchRef.validate(); err != nil {
		return err
	}
	if a.Measure == "" || a.Clue == "" {
		return errors.New("measure and clue are required")
	}
	return nil
}

func (a ProvideTestimonyAction) validate() error {
	if err := a.MatchRef.validate(); err != nil {
		return err
	}
	if len(a.Options) == 0 {
		return errors.New("options are required")
	}
	return nil
}

func (a SolveCaseAction) validate() error {
	if err := a.MatchRef.validate(); err != nil {
		return err
	}
	if a.Measure == "" || a.Clue == "" {
		return errors.New("measure and clue are required")
	}
	if a.Index < 0 {
		return errors.New("index must not be negative")
	}
	return nil
}

func (a EndTurnAction) validate() error {
	if err := a.MatchRef.validate(); err != nil {
		return err
	}
	if a.Index < 0 {
		return errors.New("index must not be negative")
	}
	return nil
}

func (a ReplenishTestimonyAction) validate() error {
	if err := a.MatchRef.validate(); err != nil {
		return err
	}
	if len(a.Options) == 0 {
		return errors.New("options are required")
	}
	for _, c := range a.Cards {
		if c.InformationCardID == "" {
			return errors.New("cards need an informationCardId")
		}
	}
	return nil
}

func (a SyncStateAction) validate() error {
	if a.MatchID == uuid.Nil {
		return errors.New("matchId is required")
	}
	return nil
}

var actionFactories = map[MessageType]func() Action{
	MessageTypeEnterRoom:          func() Action { return &EnterRoomAction{} },
	MessageTypeLeaveRoom:          func() Action { return &LeaveRoomAction{} },
	MessageTypeSetRoomReady:       func() Action { return &SetRoomReadyAction{} },
	MessageTypeStartMatch:         func() Action { return &StartMatchAction{} },
	MessageTypeReady:              func() Action { return &ReadyAction{} },
	MessageTypeAccuse:             func() Action { return &AccuseAction{} },
	MessageTypeProvideTestimony:   func() Action { return &ProvideTestimonyAction{} },
	MessageTypeSolveCase:          func() Action { return &SolveCaseAction{} },
	MessageTypeEndTurn:            func() Action { return &EndTurnAction{} },
	MessageTypeAssist:             func() Action { return &AssistAction{} },
	MessageTypeReplenishTestimony: func() Action { return &ReplenishTestimonyAction{} },
	MessageTypeQuit:               func() Action { return &QuitAction{} },
	MessageTypeSyncState:          func() Action { return &SyncStateAction{} },
}

// DecodeAction turns a client message into its typed action. Payloads are
// decoded strictly: unknown fields, trailing data, and missing required
// fields are rejected with ErrInvalidPayload.
func DecodeAction(msg *Message) (Action, error) {
	factory, ok := actionFactories[msg.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, msg.Type)
	}
	action := factory()

	payload := msg.Payload
	if len(bytes.TrimSpace(payload)) == 0 || bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
		payload = []byte("{}")
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(action); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, msg.Type, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: %s: trailing data", ErrInvalidPayload, msg.Type)
	}
	if err := action.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, msg.Type, err)
	}
	return action, nil
}
