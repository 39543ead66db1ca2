package client

import (
	"slices"

	"github.com/dom/deception-server/internal/domain"
	"github.com/dom/deception-server/internal/game"
)

// ReplenishPane stages the witness's additional testimony: pending cards
// swapped in for shown ones and the tokens moved as a result. CardEdits
// and OptionEdits record every change in the order it was made.
type ReplenishPane struct {
	Cards       []domain.MatchInformationCard
	Slots       []domain.Option
	Pool        []domain.Option
	Armed       int
	Selected    string
	CardEdits   []game.CardEdit
	OptionEdits []domain.Option
}

type replenishAction interface {
	Action
	replenish()
}

// SelectPendingCard marks a pending card to be swapped in, or clears the
// mark when it is already selected.
type SelectPendingCard struct {
	CardID string
}

// SwapShownCard swaps the selected pending card into a shown slot. The
// token that was on the outgoing card returns to the pool.
type SwapShownCard struct {
	Slot int
}

type ArmReplenishToken struct {
	PoolIndex int
}

// PlaceReplenishToken puts the armed token on an empty slot.
type PlaceReplenishToken struct {
	Slot        int
	IndexOnCard int
}

// ResetReplenish throws away every staged change.
type ResetReplenish struct{}

func (SelectPendingCard) action()   {}
func (SwapShownCard) action()       {}
func (ArmReplenishToken) action()   {}
func (PlaceReplenishToken) action() {}
func (ResetReplenish) action()      {}

func (SelectPendingCard) replenish()   {}
func (SwapShownCard) replenish()       {}
func (ArmReplenishToken) replenish()   {}
func (PlaceReplenishToken) replenish() {}
func (ResetReplenish) replenish()      {}

func newReplenishPane(m *domain.Match) ReplenishPane {
	slots, pool := placedOptions(m)
	pane := ReplenishPane{Slots: slots, Pool: pool, Armed: -1}
	if m != nil {
		pane.Cards = make([]domain.MatchInformationCard, len(m.InformationCards))
		for i, c := range m.InformationCards {
			pane.Cards[i] = *c
		}
	}
	return pane
}

func (r ReplenishPane) card(id string) int {
	return slices.IndexFunc(r.Cards, func(c domain.MatchInformationCard) bool {
		return c.InformationCardID == id
	})
}

func (r ReplenishPane) shownAt(slot int) int {
	return slices.IndexFunc(r.Cards, func(c domain.MatchInformationCard) bool {
		return c.Status == domain.CardStatusShow && c.Order == slot+1
	})
}

// Pending returns the cards that can still be swapped in.
func (r ReplenishPane) Pending() []domain.MatchInformationCard {
	var out []domain.MatchInformationCard
	for _, c := range r.Cards {
		if c.Status == domain.CardStatusPending {
			out = append(out, c)
		}
	}
	return out
}

func reduceReplenish(r ReplenishPane, m *domain.Match, a replenishAction) ReplenishPane {
	switch a := a.(type) {
	case ResetReplenish:
		return newReplenishPane(m)
	case SelectPendingCard:
		i := r.card(a.CardID)
		if i < 0 || r.Cards[i].Status != domain.CardStatusPending || r.Selected == a.CardID {
			r.Selected = ""
			return r
		}
		r.Selected = a.CardID
	case SwapShownCard:
		return swapShownCard(r, m, a.Slot)
	case ArmReplenishToken:
		if a.PoolIndex < 0 || a.PoolIndex >= len(r.Pool) || a.PoolIndex == r.Armed {
			r.Armed = -1
			return r
		}
		r.Armed = a.PoolIndex
	case PlaceReplenishToken:
		if a.Slot < 0 || a.Slot >= len(r.Slots) || !r.Slots[a.Slot].IsEmpty() {
			return r
		}
		if r.Armed < 0 || r.Armed >= len(r.Pool) || a.IndexOnCard < 0 {
			return r
		}
		if i := r.shownAt(a.Slot); i < 0 || !hasFact(r.Cards[i], a.IndexOnCard) {
			return r
		}
		placed := domain.Option{Weight: r.Pool[r.Armed].Weight, Order: a.Slot + 1, IndexOnCard: a.IndexOnCard}
		r.Slots = slices.Clone(r.Slots)
		r.Slots[a.Slot] = placed
		r.Pool = slices.Delete(slices.Clone(r.Pool), r.Armed, r.Armed+1)
		r.OptionEdits = append(slices.Clone(r.OptionEdits), placed)
		r.Armed = -1
	}
	return r
}

func hasFact(c domain.MatchInformationCard, index int) bool {
	return c.Card == nil || index < len(c.Card.Facts)
}

// swapShownCard moves the selected pending card into slot. The outgoing
// card is discarded, unless it was itself swapped in during this pane, in
// which case it returns to pending where it started.
func swapShownCard(r ReplenishPane, m *domain.Match, slot int) ReplenishPane {
	in := r.card(r.Selected)
	out := r.shownAt(slot)
	if r.Selected == "" || in < 0 || out < 0 {
		return r
	}

	cards := slices.Clone(r.Cards)
	incoming, outgoing := cards[in], cards[out]

	outgoing.Status = domain.CardStatusDiscard
	outgoing.Order = incoming.Order
	if m != nil {
		if orig := m.InformationCard(outgoing.InformationCardID); orig != nil && orig.Status == domain.CardStatusPending {
			outgoing.Status = domain.CardStatusPending
			outgoing.Order = orig.Order
		}
	}
	incoming.Status = domain.CardStatusShow
	incoming.Order = slot + 1
	cards[in], cards[out] = incoming, outgoing

	slots := slices.Clone(r.Slots)
	pool := slices.Clone(r.Pool)
	if token := slots[slot]; !token.IsEmpty() {
		pool = append(pool, domain.NewOption(token.Weight, -1))
	}
	slots[slot] = domain.EmptyOption()

	r.CardEdits = append(slices.Clone(r.CardEdits),
		game.CardEdit{InformationCardID: outgoing.InformationCardID, Order: outgoing.Order, Status: outgoing.Status},
		game.CardEdit{InformationCardID: incoming.InformationCardID, Order: incoming.Order, Status: incoming.Status},
	)
	r.Cards, r.Slots, r.Pool = cards, slots, pool
	r.Selected, r.Armed = "", -1
	return r
}

// CanConfirm reports whether every slot carries a token again.
func (r ReplenishPane) CanConfirm() bool {
	if len(r.Pool) > 0 || len(r.Slots) != domain.ShownCardCount {
		return false
	}
	for _, o := range r.Slots {
		if o.IsEmpty() {
			return false
		}
	}
	return true
}

// Payload collapses the recorded edits to the last value per card and per
// token weight, dropping any that end where the snapshot m already has
// them.
func (r ReplenishPane) Payload(m *domain.Match) ([]game.CardEdit, []domain.Option) {
	var cards []game.CardEdit
	seen := make(map[string]int)
	for _, e := range r.CardEdits {
		if i, ok := seen[e.InformationCardID]; ok {
			cards[i] = e
			continue
		}
		seen[e.InformationCardID] = len(cards)
		cards = append(cards, e)
	}
	cards = slices.DeleteFunc(cards, func(e game.CardEdit) bool {
		if m == nil {
			return false
		}
		orig := m.InformationCard(e.InformationCardID)
		return orig != nil && orig.Order == e.Order && orig.Status == e.Status
	})

	var options []domain.Option
	byWeight := make(map[int]int)
	for _, o := range r.OptionEdits {
		if i, ok := byWeight[o.Weight]; ok {
			options[i] = o
			continue
		}
		byWeight[o.Weight] = len(options)
		options = append(options, o)
	}
	options = slices.DeleteFunc(options, func(o domain.Option) bool {
		if m == nil {
			return false
		}
		orig := m.Option(o.Weight)
		return orig != nil && orig.Order == o.Order && orig.IndexOnCard == o.IndexOnCard
	})
	return cards, options
}
