package client

import (
	"github.com/dom/deception-server/internal/domain"
)

// State is everything one player's client renders: the last server
// snapshot plus the panes the player is staging before sending an action.
type State struct {
	Snapshot   *domain.Match
	HandSelect HandSelect
	Testimony  TestimonyPane
	Replenish  ReplenishPane
}

// SnapshotReceived carries a match snapshot from the server.
type SnapshotReceived struct {
	Match *domain.Match
}

// MatchCleared drops the snapshot after the match is destroyed.
type MatchCleared struct{}

func (SnapshotReceived) action() {}
func (MatchCleared) action()     {}

// NewState returns the staged panes derived from m, or an empty state when
// m is nil.
func NewState(m *domain.Match) State {
	return State{
		Snapshot:   m,
		HandSelect: HandSelect{},
		Testimony:  newTestimonyPane(m),
		Replenish:  newReplenishPane(m),
	}
}

// IsStale reports whether m is not newer than the current snapshot of the
// same match.
func (s State) IsStale(m *domain.Match) bool {
	if m == nil || s.Snapshot == nil {
		return false
	}
	return m.ID == s.Snapshot.ID && m.Version <= s.Snapshot.Version
}

// Reduce is the root reducer. Snapshots replace every staged pane; all
// other actions are routed to the pane that owns them.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case SnapshotReceived:
		if a.Match == nil || s.IsStale(a.Match) {
			return s
		}
		return NewState(a.Match)
	case MatchCleared:
		return NewState(nil)
	case handSelectAction:
		s.HandSelect = reduceHandSelect(s.HandSelect, s.Snapshot, a)
	case testimonyAction:
		s.Testimony = reduceTestimony(s.Testimony, s.Snapshot, a)
	case replenishAction:
		s.Replenish = reduceReplenish(s.Replenish, s.Snapshot, a)
	}
	return s
}
