package client

import (
	"testing"

	"github.com/dom/deception-server/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectors(t *testing.T) {
	m := fixtureMatch()
	m.Phase = domain.PhaseReasoning
	m.CurrentPlayerIndex = 1
	me := m.Players[2]
	sel := NewSelectors(me.UserID)

	speakers := sel.Speakers(m)
	require.Len(t, speakers, 4)
	for _, p := range speakers {
		assert.NotEqual(t, domain.RoleWitness, p.Role)
	}
	assert.Same(t, me, sel.CurrentSpeaker(m))
	assert.Same(t, me, sel.Self(m))
	assert.True(t, sel.IsMyTurn(m))

	t.Run("memoized per version", func(t *testing.T) {
		again := sel.Speakers(m)
		assert.Same(t, &speakers[0], &again[0])

		// Same version: the cached turn is kept even though the field moved.
		m.CurrentPlayerIndex = 2
		assert.Same(t, me, sel.CurrentSpeaker(m))

		m.Version++
		assert.Same(t, m.Players[3], sel.CurrentSpeaker(m))
		assert.False(t, sel.IsMyTurn(m))
	})

	t.Run("not seated", func(t *testing.T) {
		other := NewSelectors(uuid.New())
		assert.Nil(t, other.Self(m))
		assert.False(t, other.IsMyTurn(m))
	})

	t.Run("no snapshot", func(t *testing.T) {
		assert.Nil(t, sel.Speakers(nil))
		assert.Nil(t, sel.CurrentSpeaker(nil))
		assert.Nil(t, sel.Self(nil))
	})
}
