package websocket

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/dom/deception-server/internal/domain"
	"github.com/dom/deception-server/internal/game"
	"github.com/dom/deception-server/internal/service"
	"github.com/google/uuid"
)

// Dispatcher runs decoded client actions against the services. Successful
// transitions are broadcast to the room; failures go back to the sender only.
type Dispatcher struct {
	hub       *Hub
	services  *service.Services
	countdown time.Duration
}

func NewDispatcher(hub *Hub, services *service.Services, countdown time.Duration) *Dispatcher {
	return &Dispatcher{
		hub:       hub,
		services:  services,
		countdown: countdown,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, c *Client, msg *Message) {
	action, err := DecodeAction(msg)
	if err == nil {
		err = d.handle(ctx, c, action)
	}
	if err == nil {
		return
	}

	code := ErrorCode(err)
	message := err.Error()
	if code == "INTERNAL" {
		log.Printf("ERROR [websocket.Dispatch] %s from user %s: %v", msg.Type, c.userID, err)
		message = "Internal server error"
	}
	c.sendError(code, message)
}

func (d *Dispatcher) handle(ctx context.Context, c *Client, action Action) error {
	switch a := action.(type) {
	case *EnterRoomAction:
		return d.enterRoom(ctx, c, a.RoomID)
	case *LeaveRoomAction:
		return d.leaveRoom(ctx, c)
	case *SetRoomReadyAction:
		return d.setRoomReady(ctx, c, a.Ready)
	case *StartMatchAction:
		return d.startMatch(ctx, c)
	case *ReadyAction:
		return d.ready(ctx, c, a)
	case *AccuseAction:
		return d.publish(d.services.Match.Accuse(ctx, d.actor(c, a.MatchRef), a.Measure, a.Clue))
	case *ProvideTestimonyAction:
		return d.publish(d.services.Match.ProvideTestimony(ctx, d.actor(c, a.MatchRef), a.Options))
	case *SolveCaseAction:
		return d.solveCase(ctx, c, a)
	case *EndTurnAction:
		return d.publish(d.services.Match.EndTurn(ctx, d.actor(c, a.MatchRef), a.Index))
	case *AssistAction:
		return d.publish(d.services.Match.Assist(ctx, d.actor(c, a.MatchRef), a.CardID))
	case *ReplenishTestimonyAction:
		return d.publish(d.services.Match.ReplenishTestimony(ctx, d.actor(c, a.MatchRef), a.Cards, a.Options))
	case *QuitAction:
		return d.quit(ctx, c, a)
	case *SyncStateAction:
		return d.syncState(ctx, c, a.MatchID)
	}
	return ErrUnknownAction
}

func (d *Dispatcher) actor(c *Client, ref MatchRef) service.Actor {
	return service.Actor{UserID: c.userID, MatchID: ref.MatchID, PlayerID: ref.PlayerID}
}

func (d *Dispatcher) publish(m *domain.Match, err error) error {
	if err != nil {
		return err
	}
	d.hub.PublishMatch(m)
	return nil
}

func (d *Dispatcher) enterRoom(ctx context.Context, c *Client, roomID uuid.UUID) error {
	room, err := d.services.Room.JoinRoom(ctx, roomID, c.userID)
	if err != nil {
		return err
	}
	ch := d.hub.Follow(c, room.ID)
	d.hub.RoomUpdated(room.ID, room)

	if room.MatchID != nil {
		m, err := d.services.Match.Get(ctx, *room.MatchID)
		if err != nil {
			return err
		}
		ch.SendSnapshot(c, m)
	}
	return nil
}

func (d *Dispatcher) leaveRoom(ctx context.Context, c *Client) error {
	roomID := c.RoomID()
	if roomID == uuid.Nil {
		return domain.ErrNotInRoom
	}
	room, err := d.services.Room.LeaveRoom(ctx, roomID, c.userID)
	if err != nil {
		return err
	}
	d.hub.Unfollow(c)
	d.hub.RoomUpdated(roomID, room)
	return nil
}

func (d *Dispatcher) setRoomReady(ctx context.Context, c *Client, ready bool) error {
	roomID := c.RoomID()
	if roomID == uuid.Nil {
		return domain.ErrNotInRoom
	}
	room, err := d.services.Room.SetReady(ctx, roomID, c.userID, ready)
	if err != nil {
		return err
	}
	d.hub.RoomUpdated(roomID, room)
	return nil
}

func (d *Dispatcher) startMatch(ctx context.Context, c *Client) error {
	roomID := c.RoomID()
	if roomID == uuid.Nil {
		return domain.ErrNotInRoom
	}
	m, err := d.services.Match.Create(ctx, c.userID, roomID)
	if err != nil {
		return err
	}
	d.hub.MatchCreated(m)
	return nil
}

// ready starts the countdown once the last player is ready. When it fires
// the match moves to the murder phase.
func (d *Dispatcher) ready(ctx context.Context, c *Client, a *ReadyAction) error {
	m, allReady, err := d.services.Match.Ready(ctx, d.actor(c, a.MatchRef))
	if err != nil {
		return err
	}
	d.hub.PublishMatch(m)
	if allReady {
		d.scheduleStart(m)
	}
	return nil
}

// scheduleStart arms the start countdown unless one is already running.
func (d *Dispatcher) scheduleStart(m *domain.Match) {
	matchID, roomID := m.ID, m.RoomID
	scheduled := d.hub.countdowns.Schedule(matchID, d.countdown, func() {
		started, err := d.services.Match.Start(context.Background(), matchID)
		if err != nil {
			log.Printf("ERROR [websocket.countdown] failed to start match %s: %v", matchID, err)
			return
		}
		d.hub.PublishMatch(started)
	})
	if !scheduled {
		return
	}
	msg, err := NewMessage(MessageTypeMatchStarting, MatchStartingPayload{
		MatchID: matchID,
		Seconds: int(d.countdown / time.Second),
	})
	if err == nil {
		d.hub.BroadcastRoom(roomID, msg)
	}
}

func (d *Dispatcher) solveCase(ctx context.Context, c *Client, a *SolveCaseAction) error {
	m, solved, err := d.services.Match.SolveCase(ctx, d.actor(c, a.MatchRef), a.Measure, a.Clue, a.Index)
	if err != nil {
		return err
	}
	msg, err := NewMessage(MessageTypeCaseSolved, CaseSolvedPayload{
		MatchID:  m.ID,
		PlayerID: a.PlayerID,
		Solved:   solved,
	})
	if err == nil {
		d.hub.BroadcastRoom(m.RoomID, msg)
	}
	d.hub.PublishMatch(m)
	return nil
}

func (d *Dispatcher) quit(ctx context.Context, c *Client, a *QuitAction) error {
	m, destroyed, err := d.services.Match.Quit(ctx, d.actor(c, a.MatchRef))
	if err != nil {
		return err
	}
	if destroyed {
		d.hub.MatchDestroyed(m.RoomID, m.ID)
		return nil
	}
	d.hub.PublishMatch(m)
	// the quitter may have been the last one holding up the start
	if m.Phase == domain.PhaseInit && game.AllReady(m) {
		d.scheduleStart(m)
	}
	return nil
}

func (d *Dispatcher) syncState(ctx context.Context, c *Client, matchID uuid.UUID) error {
	m, err := d.services.Match.Get(ctx, matchID)
	if err != nil {
		return err
	}
	sendSnapshot(c, m, d.hub.redact)
	return nil
}

// ErrorCode classifies an error for the client. Anything unrecognized is
// reported as INTERNAL.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnknownAction):
		return "UNKNOWN_ACTION"
	case errors.Is(err, ErrInvalidPayload):
		return "INVALID_PAYLOAD"
	case errors.Is(err, domain.ErrBadTiming):
		return "BAD_TIMING"
	case errors.Is(err, domain.ErrPermission):
		return "PERMISSION_DENIED"
	case errors.Is(err, domain.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, domain.ErrInvalidTestimony):
		return "INVALID_TESTIMONY"
	case errors.Is(err, domain.ErrInvalidAction):
		return "INVALID_ACTION"
	case errors.Is(err, domain.ErrPartySize):
		return "PARTY_SIZE"
	case errors.Is(err, domain.ErrCardPool):
		return "CARD_POOL"
	default:
		return "INTERNAL"
	}
}
