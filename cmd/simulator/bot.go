package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand/v2"

	"github.com/dom/deception-server/internal/client"
	"github.com/dom/deception-server/internal/domain"
	"github.com/dom/deception-server/internal/websocket"
)

// Bot plays one seat. It reacts to each new snapshot at most once and
// stages every move through the same reducers a UI would use.
type Bot struct {
	name  string
	conn  *client.Conn
	acted int64
}

func NewBot(ctx context.Context, apiURL, name, token string) (*Bot, error) {
	conn, err := client.Dial(ctx, apiURL, token)
	if err != nil {
		return nil, err
	}
	return &Bot{name: name, conn: conn, acted: -1}, nil
}

func (b *Bot) Close() error {
	return b.conn.Close()
}

// Play reacts to server messages until the match ends, is destroyed, or
// ctx is cancelled. It returns the final snapshot when there is one.
func (b *Bot) Play(ctx context.Context) (*domain.Match, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case msg, ok := <-b.conn.Events():
			if !ok {
				return nil, fmt.Errorf("%s: connection closed", b.name)
			}
			switch msg.Type {
			case websocket.MessageTypeError:
				var p websocket.ErrorPayload
				json.Unmarshal(msg.Payload, &p)
				log.Printf("WARN [%s] server rejected action: %s %s", b.name, p.Code, p.Message)
			case websocket.MessageTypeMatchDestroyed:
				return nil, nil
			case websocket.MessageTypeMatchStateUpdated:
				m := b.conn.State().Snapshot
				if m == nil {
					continue
				}
				if m.Phase.IsTerminal() {
					return m, nil
				}
				if m.Version == b.acted {
					continue
				}
				if err := b.act(m); err != nil {
					log.Printf("ERROR [%s] %s: %v", b.name, m.Phase, err)
				}
			}
		}
	}
}

func (b *Bot) act(m *domain.Match) error {
	sel := b.conn.Selectors()
	self := sel.Self(m)
	if self == nil || self.Status == domain.PlayerStatusLeave {
		return nil
	}

	var err error
	acted := true
	switch {
	case m.Phase == domain.PhaseInit && self.Status == domain.PlayerStatusNotReady:
		err = b.conn.Ready()
	case m.Phase == domain.PhaseMurder && self.Role == domain.RoleMurderer:
		err = b.accuse(self)
	case m.Phase == domain.PhaseProvideTestimonials && self.Role == domain.RoleWitness:
		err = b.testify(m)
	case m.Phase == domain.PhaseReasoning && sel.IsMyTurn(m):
		err = b.reason(m, self)
	case m.Phase == domain.PhaseAccomplice && self.Role == domain.RoleAccomplice:
		err = b.conn.Assist("")
	case m.Phase == domain.PhaseAdditionalTestimonials && self.Role == domain.RoleWitness:
		err = b.replenish(m)
	default:
		acted = false
	}
	if acted {
		b.acted = m.Version
	}
	return err
}

func (b *Bot) accuse(self *domain.Player) error {
	b.conn.Dispatch(client.StartHandSelect{Purpose: client.SelectForAccuse})
	b.conn.Dispatch(client.PickHandCard{PlayerID: self.ID, Kind: client.HandMeasure, Name: self.MeasureCards[rand.IntN(len(self.MeasureCards))]})
	b.conn.Dispatch(client.PickHandCard{PlayerID: self.ID, Kind: client.HandClue, Name: self.ClueCards[rand.IntN(len(self.ClueCards))]})
	log.Printf("[%s] accusing %s / %s", b.name, b.conn.State().HandSelect.Measure, b.conn.State().HandSelect.Clue)
	return b.conn.ConfirmHandSelect()
}

// factIndex picks a random fact on the shown card in slot.
func factIndex(m *domain.Match, slot int) int {
	for _, c := range m.ShownCards() {
		if c.Order == slot+1 && c.Card != nil && len(c.Card.Facts) > 0 {
			return rand.IntN(len(c.Card.Facts))
		}
	}
	return 0
}

func (b *Bot) testify(m *domain.Match) error {
	b.conn.Dispatch(client.SyncTestimony{})
	for slot := range domain.ShownCardCount {
		pool := b.conn.State().Testimony.Pool
		b.conn.Dispatch(client.ArmTestimonyToken{PoolIndex: rand.IntN(len(pool))})
		b.conn.Dispatch(client.PlaceTestimonyToken{Slot: slot, IndexOnCard: factIndex(m, slot)})
	}
	log.Printf("[%s] providing testimony", b.name)
	return b.conn.ProvideTestimony()
}

// reason ends the turn, or now and then takes a guess at another
// player's pair first.
func (b *Bot) reason(m *domain.Match, self *domain.Player) error {
	guessing := self.Role == domain.RoleDetective && self.RemainingNumOfSolveCase > 0 && rand.IntN(3) == 0
	if !guessing {
		log.Printf("[%s] ending turn (round %d)", b.name, m.Round)
		return b.conn.EndTurn()
	}

	var suspects []*domain.Player
	for _, p := range b.conn.Selectors().Speakers(m) {
		if p.ID != self.ID {
			suspects = append(suspects, p)
		}
	}
	suspect := suspects[rand.IntN(len(suspects))]
	b.conn.Dispatch(client.StartHandSelect{Purpose: client.SelectForSolveCase})
	b.conn.Dispatch(client.PickHandCard{PlayerID: suspect.ID, Kind: client.HandMeasure, Name: suspect.MeasureCards[rand.IntN(len(suspect.MeasureCards))]})
	b.conn.Dispatch(client.PickHandCard{PlayerID: suspect.ID, Kind: client.HandClue, Name: suspect.ClueCards[rand.IntN(len(suspect.ClueCards))]})
	log.Printf("[%s] guessing %s / %s of %s", b.name, b.conn.State().HandSelect.Measure, b.conn.State().HandSelect.Clue, suspect.DisplayName)
	return b.conn.ConfirmHandSelect()
}

// replenish swaps every pending card into one of the four drawn slots and
// puts the freed tokens back down.
func (b *Bot) replenish(m *domain.Match) error {
	b.conn.Dispatch(client.ResetReplenish{})
	for _, card := range b.conn.State().Replenish.Pending() {
		b.conn.Dispatch(client.SelectPendingCard{CardID: card.InformationCardID})
		b.conn.Dispatch(client.SwapShownCard{Slot: 2 + rand.IntN(domain.ShownCardCount-2)})
	}
	for _, slot := range emptySlots(b.conn.State().Replenish) {
		b.conn.Dispatch(client.ArmReplenishToken{PoolIndex: 0})
		b.conn.Dispatch(client.PlaceReplenishToken{Slot: slot, IndexOnCard: 0})
	}
	log.Printf("[%s] replenishing testimony", b.name)
	return b.conn.ReplenishTestimony()
}

func emptySlots(r client.ReplenishPane) []int {
	var out []int
	for i, o := range r.Slots {
		if o.IsEmpty() {
			out = append(out, i)
		}
	}
	return out
}
