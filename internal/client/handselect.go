package client

import (
	"github.com/dom/deception-server/internal/domain"
	"github.com/google/uuid"
)

type SelectPurpose int

const (
	SelectForSolveCase SelectPurpose = iota
	SelectForAccuse
)

type HandKind int

const (
	HandMeasure HandKind = iota
	HandClue
)

// HandSelect stages a measure and clue pair from one player's hand, either
// for the murderer's accusation or for a detective's solve attempt.
type HandSelect struct {
	Active   bool
	Purpose  SelectPurpose
	PlayerID uuid.UUID
	Measure  string
	Clue     string
}

// Complete reports whether both cards of one player are chosen.
func (h HandSelect) Complete() bool {
	return h.Active && h.PlayerID != uuid.Nil && h.Measure != "" && h.Clue != ""
}

type handSelectAction interface {
	Action
	handSelect()
}

type StartHandSelect struct {
	Purpose SelectPurpose
}

// PickHandCard toggles one card of a player's hand. Picking from a
// different player drops the other kind chosen from the previous one.
type PickHandCard struct {
	PlayerID uuid.UUID
	Kind     HandKind
	Name     string
}

type ResetHandSelect struct{}

func (StartHandSelect) action() {}
func (PickHandCard) action()    {}
func (ResetHandSelect) action() {}

func (StartHandSelect) handSelect() {}
func (PickHandCard) handSelect()    {}
func (ResetHandSelect) handSelect() {}

func reduceHandSelect(h HandSelect, m *domain.Match, a handSelectAction) HandSelect {
	switch a := a.(type) {
	case StartHandSelect:
		return HandSelect{Active: true, Purpose: a.Purpose}
	case ResetHandSelect:
		return HandSelect{}
	case PickHandCard:
		if !h.Active || m == nil {
			return h
		}
		p := m.Player(a.PlayerID)
		if p == nil || !holds(p, a.Kind, a.Name) {
			return h
		}
		if h.PlayerID != a.PlayerID {
			h = HandSelect{Active: true, Purpose: h.Purpose, PlayerID: a.PlayerID}
		}
		if a.Kind == HandMeasure {
			h.Measure = toggle(h.Measure, a.Name)
		} else {
			h.Clue = toggle(h.Clue, a.Name)
		}
	}
	return h
}

func holds(p *domain.Player, kind HandKind, name string) bool {
	if kind == HandMeasure {
		return p.HoldsMeasure(name)
	}
	return p.HoldsClue(name)
}

func toggle(current, name string) string {
	if current == name {
		return ""
	}
	return name
}
