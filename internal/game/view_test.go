package game_test

import (
	"testing"

	"github.com/dom/deception-server/internal/domain"
	"github.com/dom/deception-server/internal/game"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func visibleRoles(m *domain.Match) map[uuid.UUID]domain.Role {
	out := make(map[uuid.UUID]domain.Role)
	for _, p := range m.Players {
		out[p.ID] = p.Role
	}
	return out
}

func TestViewFor(t *testing.T) {
	e := newEngine(21)
	m := newTestMatch(t, e, 6)
	toReasoning(t, e, m)

	witness := byRole(m, domain.RoleWitness)
	murderer := byRole(m, domain.RoleMurderer)
	accomplice := byRole(m, domain.RoleAccomplice)
	detective := byRole(m, domain.RoleDetective)

	tests := []struct {
		name        string
		viewer      uuid.UUID
		seesRoles   []*domain.Player
		hiddenRoles []*domain.Player
		seesAccused bool
	}{
		{
			name:        "witness sees the murderer's side",
			viewer:      witness.UserID,
			seesRoles:   []*domain.Player{witness, murderer, accomplice},
			hiddenRoles: []*domain.Player{detective},
			seesAccused: true,
		},
		{
			name:        "murderer sees the accomplice",
			viewer:      murderer.UserID,
			seesRoles:   []*domain.Player{witness, murderer, accomplice},
			hiddenRoles: []*domain.Player{detective},
			seesAccused: true,
		},
		{
			name:        "accomplice sees the murderer",
			viewer:      accomplice.UserID,
			seesRoles:   []*domain.Player{witness, murderer, accomplice},
			hiddenRoles: []*domain.Player{detective},
			seesAccused: true,
		},
		{
			name:        "detective sees only self and witness",
			viewer:      detective.UserID,
			seesRoles:   []*domain.Player{witness, detective},
			hiddenRoles: []*domain.Player{murderer, accomplice},
			seesAccused: false,
		},
		{
			name:        "spectator sees only the witness",
			viewer:      uuid.New(),
			seesRoles:   []*domain.Player{witness},
			hiddenRoles: []*domain.Player{murderer, accomplice, detective},
			seesAccused: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := game.ViewFor(m, tt.viewer)
			roles := visibleRoles(view)

			for _, p := range tt.seesRoles {
				assert.Equal(t, p.Role, roles[p.ID])
			}
			for _, p := range tt.hiddenRoles {
				assert.Empty(t, roles[p.ID])
			}
			if tt.seesAccused {
				require.NotNil(t, view.AccusedMeasure)
				assert.Equal(t, *m.AccusedMeasure, *view.AccusedMeasure)
			} else {
				assert.Nil(t, view.AccusedMeasure)
				assert.Nil(t, view.AccusedClue)
			}

			// Hands stay open to everyone.
			assert.Equal(t, []string(murderer.MeasureCards), []string(view.Player(murderer.ID).MeasureCards))
		})
	}

	assert.Equal(t, domain.RoleMurderer, murderer.Role, "the source match is not modified")
}

func TestViewFor_TerminalRevealsEverything(t *testing.T) {
	e := newEngine(22)
	m := newTestMatch(t, e, 4)
	toReasoning(t, e, m)
	m.Phase = domain.PhaseMurdererWin

	view := game.ViewFor(m, uuid.New())
	assert.Equal(t, m, view)
}
