package game

import (
	"github.com/dom/deception-server/internal/domain"
	"github.com/google/uuid"
)

// ViewFor returns the snapshot a given user is allowed to see. Hands stay
// open because players guess from each other's cards. Hidden roles are
// blanked, and the accused pair is only visible to the witness and the
// murderer's side. Everything is revealed once the match is over.
func ViewFor(m *domain.Match, userID uuid.UUID) *domain.Match {
	view := m.Clone()
	if m.Phase.IsTerminal() {
		return view
	}

	viewer := view.PlayerByUser(userID)
	var viewerRole domain.Role
	if viewer != nil {
		viewerRole = viewer.Role
	}

	for _, p := range view.Players {
		if !roleVisible(viewerRole, viewer != nil && p.ID == viewer.ID, p.Role) {
			p.Role = ""
		}
	}

	if !viewerRole.KnowsCrime() {
		view.AccusedMeasure = nil
		view.AccusedClue = nil
	}
	return view
}

func roleVisible(viewer domain.Role, self bool, target domain.Role) bool {
	if self || target == domain.RoleWitness {
		return true
	}
	if viewer == domain.RoleWitness || viewer.IsMurdererSide() {
		return target.IsMurdererSide()
	}
	return false
}
