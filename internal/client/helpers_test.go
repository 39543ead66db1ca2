package client

import (
	"fmt"

	"github.com/dom/deception-server/internal/domain"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

var facts = datatypes.JSONSlice[string]{"a", "b", "c", "d", "e", "f"}

// fixtureMatch returns a match in additional testimony: six shown cards in
// slots 1..6, two pending cards after them and a full set of tokens, one
// per shown card.
func fixtureMatch() *domain.Match {
	m := &domain.Match{
		ID:      uuid.New(),
		RoomID:  uuid.New(),
		Phase:   domain.PhaseAdditionalTestimonials,
		Round:   1,
		Version: 4,
	}
	roles := []domain.Role{domain.RoleDetective, domain.RoleWitness, domain.RoleMurderer, domain.RoleDetective, domain.RoleDetective}
	for i, role := range roles {
		m.Players = append(m.Players, &domain.Player{
			ID:           uuid.New(),
			MatchID:      m.ID,
			UserID:       uuid.New(),
			Seat:         i,
			Role:         role,
			MeasureCards: datatypes.JSONSlice[string]{fmt.Sprintf("measure-%d-a", i), fmt.Sprintf("measure-%d-b", i)},
			ClueCards:    datatypes.JSONSlice[string]{fmt.Sprintf("clue-%d-a", i), fmt.Sprintf("clue-%d-b", i)},
		})
	}
	for i := 1; i <= 8; i++ {
		status := domain.CardStatusShow
		if i > domain.ShownCardCount {
			status = domain.CardStatusPending
		}
		id := fmt.Sprintf("card-%d", i)
		m.InformationCards = append(m.InformationCards, &domain.MatchInformationCard{
			MatchID:           m.ID,
			InformationCardID: id,
			Order:             i,
			Status:            status,
			Card:              &domain.InformationCard{ID: id, Name: id, Facts: facts},
		})
	}
	for w := 1; w <= domain.ShownCardCount; w++ {
		m.Options = append(m.Options, &domain.MatchOption{MatchID: m.ID, Weight: w, Order: w, IndexOnCard: 0})
	}
	return m
}

// freshMatch returns the same table before the first testimony.
func freshMatch() *domain.Match {
	m := fixtureMatch()
	m.Phase = domain.PhaseProvideTestimonials
	m.InformationCards = m.InformationCards[:domain.ShownCardCount]
	m.Options = nil
	return m
}

func reduceAll(s State, actions ...Action) State {
	for _, a := range actions {
		s = Reduce(s, a)
	}
	return s
}
