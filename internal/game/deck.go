package game

import (
	"fmt"
	"slices"

	"github.com/dom/deception-server/internal/domain"
	"github.com/google/uuid"
)

const (
	MinPlayers = 4
	MaxPlayers = 10
)

// AssignRoles returns the role multiset for a party of n, unshuffled.
func AssignRoles(n int) ([]domain.Role, error) {
	if n < MinPlayers {
		return nil, fmt.Errorf("%w: need at least %d players, got %d", domain.ErrPartySize, MinPlayers, n)
	}
	if n > MaxPlayers {
		return nil, fmt.Errorf("%w: at most %d players, got %d", domain.ErrPartySize, MaxPlayers, n)
	}

	roles := []domain.Role{domain.RoleWitness, domain.RoleMurderer, domain.RoleDetective, domain.RoleDetective}
	if n > 4 {
		roles = append(roles, domain.RoleDetective)
	}
	if n > 5 {
		roles = append(roles, domain.RoleAccomplice)
	}
	for i := 6; i < n; i++ {
		roles = append(roles, domain.RoleDetective)
	}
	return roles, nil
}

// PickInformationCards fills six slots from a shuffled pool: slot 0 takes the
// first cause-of-death card, slot 1 the first crime-scene card, and slots 2..5
// the first four cards of any other category.
func PickInformationCards(pool []*domain.InformationCard, rng Rand) ([]*domain.InformationCard, error) {
	shuffled := slices.Clone(pool)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	result := make([]*domain.InformationCard, domain.ShownCardCount)
	count := 0
	next := 2
	for _, card := range shuffled {
		switch card.Category {
		case domain.CategoryCauseOfDeath:
			if result[0] == nil {
				result[0] = card
				count++
			}
		case domain.CategoryCrimeScene:
			if result[1] == nil {
				result[1] = card
				count++
			}
		default:
			if next < len(result) {
				result[next] = card
				next++
				count++
			}
		}
	}

	if count != domain.ShownCardCount {
		return nil, fmt.Errorf("%w: could only fill %d of %d information slots", domain.ErrCardPool, count, domain.ShownCardCount)
	}
	return result, nil
}

// DealHands shuffles each pool once and splices HandSize cards from the front
// for every non-witness seat. Witness hands are left empty.
func DealHands(roles []domain.Role, measures, clues []string, rng Rand) (measureHands, clueHands [][]string, err error) {
	measurePile := slices.Clone(measures)
	cluePile := slices.Clone(clues)
	rng.Shuffle(len(measurePile), func(i, j int) { measurePile[i], measurePile[j] = measurePile[j], measurePile[i] })
	rng.Shuffle(len(cluePile), func(i, j int) { cluePile[i], cluePile[j] = cluePile[j], cluePile[i] })

	measureHands = make([][]string, len(roles))
	clueHands = make([][]string, len(roles))
	for i, role := range roles {
		if role == domain.RoleWitness {
			measureHands[i] = []string{}
			clueHands[i] = []string{}
			continue
		}
		if len(measurePile) < domain.HandSize || len(cluePile) < domain.HandSize {
			return nil, nil, fmt.Errorf("%w: not enough measure or clue cards to deal seat %d", domain.ErrCardPool, i)
		}
		measureHands[i] = measurePile[:domain.HandSize:domain.HandSize]
		measurePile = measurePile[domain.HandSize:]
		clueHands[i] = cluePile[:domain.HandSize:domain.HandSize]
		cluePile = cluePile[domain.HandSize:]
	}
	return measureHands, clueHands, nil
}

// Seat is a room member taking part in a new match, in join order.
type Seat struct {
	UserID      uuid.UUID
	DisplayName string
}

// NewMatch builds a complete match aggregate in phase Init. Nothing is
// persisted here; an error means no match should be created at all.
func (e *Engine) NewMatch(roomID uuid.UUID, seats []Seat, catalog *domain.CardCatalog) (*domain.Match, error) {
	roles, err := AssignRoles(len(seats))
	if err != nil {
		return nil, err
	}
	e.rng.Shuffle(len(roles), func(i, j int) { roles[i], roles[j] = roles[j], roles[i] })

	infoCards, err := PickInformationCards(catalog.InformationCards, e.rng)
	if err != nil {
		return nil, err
	}

	measureNames := make([]string, len(catalog.MeasureCards))
	for i, c := range catalog.MeasureCards {
		measureNames[i] = c.Name
	}
	clueNames := make([]string, len(catalog.ClueCards))
	for i, c := range catalog.ClueCards {
		clueNames[i] = c.Name
	}
	measureHands, clueHands, err := DealHands(roles, measureNames, clueNames, e.rng)
	if err != nil {
		return nil, err
	}

	match := &domain.Match{
		ID:                 uuid.New(),
		RoomID:             roomID,
		Phase:              domain.PhaseInit,
		Round:              1,
		CurrentPlayerIndex: 0,
	}

	for i, seat := range seats {
		player := &domain.Player{
			ID:           uuid.New(),
			MatchID:      match.ID,
			UserID:       seat.UserID,
			DisplayName:  seat.DisplayName,
			Seat:         i,
			Role:         roles[i],
			Status:       domain.PlayerStatusNotReady,
			MeasureCards: measureHands[i],
			ClueCards:    clueHands[i],
		}
		if player.Role != domain.RoleWitness {
			player.RemainingNumOfSolveCase = 1
		}
		if player.Role == domain.RoleAccomplice {
			player.RemainingNumOfAccomplice = 1
		}
		match.Players = append(match.Players, player)
	}

	for i, card := range infoCards {
		match.InformationCards = append(match.InformationCards, &domain.MatchInformationCard{
			MatchID:           match.ID,
			InformationCardID: card.ID,
			Order:             i + 1,
			Status:            domain.CardStatusShow,
			Card:              card,
		})
	}

	return match, nil
}

// eligibleDraws lists templates that may still be drawn into the match.
func eligibleDraws(m *domain.Match, pool []*domain.InformationCard) []*domain.InformationCard {
	var eligible []*domain.InformationCard
	for _, card := range pool {
		if card.IsFixed() || m.InformationCard(card.ID) != nil {
			continue
		}
		eligible = append(eligible, card)
	}
	return eligible
}

// DrawInformationCard attaches one random eligible card as Pending. It
// returns nil and leaves the match unchanged when the pool is exhausted.
func DrawInformationCard(m *domain.Match, pool []*domain.InformationCard, rng Rand) *domain.MatchInformationCard {
	eligible := eligibleDraws(m, pool)
	if len(eligible) == 0 {
		return nil
	}
	return attachPending(m, eligible[rng.IntN(len(eligible))])
}

func attachPending(m *domain.Match, card *domain.InformationCard) *domain.MatchInformationCard {
	attached := &domain.MatchInformationCard{
		MatchID:           m.ID,
		InformationCardID: card.ID,
		Order:             len(m.InformationCards) + 1,
		Status:            domain.CardStatusPending,
		Card:              card,
	}
	m.InformationCards = append(m.InformationCards, attached)
	return attached
}
