package client

import (
	"slices"

	"github.com/dom/deception-server/internal/domain"
)

// TestimonyPane stages the witness's first testimony. Slots[i] is the
// token resting on the shown card in slot i+1; Pool holds the tokens not
// yet placed and Armed indexes the one picked up, or -1.
type TestimonyPane struct {
	Slots []domain.Option
	Pool  []domain.Option
	Armed int
}

type testimonyAction interface {
	Action
	testimony()
}

// ArmTestimonyToken picks up a pool token, or puts it down again when it
// is already armed.
type ArmTestimonyToken struct {
	PoolIndex int
}

// PlaceTestimonyToken puts the armed token on a fact of a shown card. A
// token already on that card goes back to the pool. With nothing armed
// the slot is just cleared.
type PlaceTestimonyToken struct {
	Slot        int
	IndexOnCard int
}

// SyncTestimony discards staged placements and starts over from the
// current snapshot.
type SyncTestimony struct{}

func (ArmTestimonyToken) action()   {}
func (PlaceTestimonyToken) action() {}
func (SyncTestimony) action()       {}

func (ArmTestimonyToken) testimony()   {}
func (PlaceTestimonyToken) testimony() {}
func (SyncTestimony) testimony()       {}

func newTestimonyPane(m *domain.Match) TestimonyPane {
	slots, pool := placedOptions(m)
	return TestimonyPane{Slots: slots, Pool: pool, Armed: -1}
}

// placedOptions splits the weights 1..6 into tokens already sitting on a
// shown slot and tokens still in hand.
func placedOptions(m *domain.Match) (slots, pool []domain.Option) {
	slots = make([]domain.Option, domain.ShownCardCount)
	for i := range slots {
		slots[i] = domain.EmptyOption()
	}
	placed := make(map[int]bool, domain.ShownCardCount)
	if m != nil {
		for _, o := range m.Options {
			if o.IndexOnCard < 0 || o.Order < 1 || o.Order > domain.ShownCardCount {
				continue
			}
			slots[o.Order-1] = domain.Option{Weight: o.Weight, Order: o.Order, IndexOnCard: o.IndexOnCard}
			placed[o.Weight] = true
		}
	}
	for _, o := range domain.NewEmptyOptions(domain.ShownCardCount) {
		if !placed[o.Weight] {
			pool = append(pool, o)
		}
	}
	return slots, pool
}

func reduceTestimony(t TestimonyPane, m *domain.Match, a testimonyAction) TestimonyPane {
	switch a := a.(type) {
	case SyncTestimony:
		return newTestimonyPane(m)
	case ArmTestimonyToken:
		if a.PoolIndex < 0 || a.PoolIndex >= len(t.Pool) || a.PoolIndex == t.Armed {
			t.Armed = -1
			return t
		}
		t.Armed = a.PoolIndex
	case PlaceTestimonyToken:
		if a.Slot < 0 || a.Slot >= len(t.Slots) {
			return t
		}
		armed := t.Armed >= 0 && t.Armed < len(t.Pool)
		if armed && !factExists(m, a.Slot, a.IndexOnCard) {
			return t
		}
		slots := slices.Clone(t.Slots)
		pool := slices.Clone(t.Pool)

		previous := slots[a.Slot]
		slots[a.Slot] = domain.EmptyOption()
		if armed {
			token := pool[t.Armed]
			slots[a.Slot] = domain.Option{Weight: token.Weight, Order: a.Slot + 1, IndexOnCard: a.IndexOnCard}
			pool = slices.Delete(pool, t.Armed, t.Armed+1)
		}
		if !previous.IsEmpty() {
			pool = append(pool, domain.NewOption(previous.Weight, -1))
		}
		t.Slots, t.Pool, t.Armed = slots, pool, -1
	}
	return t
}

// factExists reports whether the shown card in slot has a fact at index.
// Cards without a template attached accept any non-negative index.
func factExists(m *domain.Match, slot, index int) bool {
	if index < 0 {
		return false
	}
	if m == nil {
		return true
	}
	for _, card := range m.ShownCards() {
		if card.Order == slot+1 {
			return card.Card == nil || index < len(card.Card.Facts)
		}
	}
	return false
}

// CanConfirm reports whether every token is placed, one per shown card.
func (t TestimonyPane) CanConfirm() bool {
	if len(t.Pool) > 0 {
		return false
	}
	for _, o := range t.Slots {
		if o.IsEmpty() {
			return false
		}
	}
	return true
}

// Payload returns the placed tokens in weight order, ready to send as a
// provide_testimony action.
func (t TestimonyPane) Payload() []domain.Option {
	out := make([]domain.Option, 0, len(t.Slots))
	for i, o := range t.Slots {
		if o.IsEmpty() {
			continue
		}
		out = append(out, domain.Option{Weight: o.Weight, Order: i + 1, IndexOnCard: o.IndexOnCard})
	}
	slices.SortFunc(out, func(a, b domain.Option) int { return a.Weight - b.Weight })
	return out
}
