package game_test

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/dom/deception-server/internal/domain"
	"github.com/dom/deception-server/internal/game"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func facts(prefix string) []string {
	out := make([]string, 6)
	for i := range out {
		out[i] = fmt.Sprintf("%s-%d", prefix, i)
	}
	return out
}

func testCatalog() *domain.CardCatalog {
	catalog := &domain.CardCatalog{}
	add := func(id, category string) {
		catalog.InformationCards = append(catalog.InformationCards, &domain.InformationCard{
			ID:       id,
			Name:     id,
			Category: category,
			Facts:    facts(id),
		})
	}
	add("cause-1", domain.CategoryCauseOfDeath)
	add("cause-2", domain.CategoryCauseOfDeath)
	add("scene-1", domain.CategoryCrimeScene)
	add("scene-2", domain.CategoryCrimeScene)
	for i := 1; i <= 8; i++ {
		add(fmt.Sprintf("other-%d", i), fmt.Sprintf("category-%d", i))
	}
	for i := 0; i < 40; i++ {
		catalog.MeasureCards = append(catalog.MeasureCards, &domain.MeasureCard{Name: fmt.Sprintf("measure-%02d", i)})
		catalog.ClueCards = append(catalog.ClueCards, &domain.ClueCard{Name: fmt.Sprintf("clue-%02d", i)})
	}
	return catalog
}

func seats(n int) []game.Seat {
	out := make([]game.Seat, n)
	for i := range out {
		out[i] = game.Seat{UserID: uuid.New(), DisplayName: fmt.Sprintf("player-%d", i)}
	}
	return out
}

func newEngine(seed uint64) *game.Engine {
	return game.NewEngine(game.DefaultMaxRounds, newRand(seed))
}

func newTestMatch(t *testing.T, e *game.Engine, n int) *domain.Match {
	t.Helper()
	m, err := e.NewMatch(uuid.New(), seats(n), testCatalog())
	require.NoError(t, err)
	return m
}

// validOptions places token i+1 on slot i+1 at fact 0.
func validOptions() []domain.Option {
	opts := make([]domain.Option, domain.ShownCardCount)
	for i := range opts {
		opts[i] = domain.Option{Weight: i + 1, Order: i + 1, IndexOnCard: 0}
	}
	return opts
}

func byRole(m *domain.Match, role domain.Role) *domain.Player {
	return m.PlayerByRole(role)
}

// toReasoning drives a fresh match through start, accusation, and testimony.
func toReasoning(t *testing.T, e *game.Engine, m *domain.Match) {
	t.Helper()
	require.NoError(t, e.Start(m))
	murderer := byRole(m, domain.RoleMurderer)
	require.NoError(t, e.Accuse(m, murderer.ID, murderer.MeasureCards[0], murderer.ClueCards[0]))
	require.NoError(t, e.ProvideTestimony(m, byRole(m, domain.RoleWitness).ID, validOptions()))
	require.Equal(t, domain.PhaseReasoning, m.Phase)
}

// endRound has every speaker end their turn in order.
func endRound(t *testing.T, e *game.Engine, m *domain.Match, pool []*domain.InformationCard) {
	t.Helper()
	for _, speaker := range m.Speakers() {
		require.NoError(t, e.EndTurn(m, speaker.ID, m.CurrentPlayerIndex, pool))
	}
}
