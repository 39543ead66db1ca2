package game_test

import (
	"testing"

	"github.com/dom/deception-server/internal/domain"
	"github.com/dom/deception-server/internal/game"
	"github.com/stretchr/testify/assert"
)

func TestValidateTestimony(t *testing.T) {
	e := newEngine(30)
	m := newTestMatch(t, e, 4)
	shown := m.ShownCards()

	tests := []struct {
		name    string
		mutate  func([]domain.Option) []domain.Option
		wantErr bool
	}{
		{
			name:   "complete placement",
			mutate: func(o []domain.Option) []domain.Option { return o },
		},
		{
			name:    "five options",
			mutate:  func(o []domain.Option) []domain.Option { return o[:5] },
			wantErr: true,
		},
		{
			name:    "seven options",
			mutate:  func(o []domain.Option) []domain.Option { return append(o, domain.Option{Weight: 7, Order: 1}) },
			wantErr: true,
		},
		{
			name: "duplicate weight",
			mutate: func(o []domain.Option) []domain.Option {
				o[1].Weight = 1
				return o
			},
			wantErr: true,
		},
		{
			name: "weight out of range",
			mutate: func(o []domain.Option) []domain.Option {
				o[5].Weight = 0
				return o
			},
			wantErr: true,
		},
		{
			name: "unplaced option",
			mutate: func(o []domain.Option) []domain.Option {
				o[3] = domain.EmptyOption()
				o[3].Weight = 4
				o[3].Order = 4
				return o
			},
			wantErr: true,
		},
		{
			name: "duplicate target",
			mutate: func(o []domain.Option) []domain.Option {
				o[4].Order = 1
				return o
			},
			wantErr: true,
		},
		{
			name: "slot without card",
			mutate: func(o []domain.Option) []domain.Option {
				o[0].Order = 7
				return o
			},
			wantErr: true,
		},
		{
			name: "fact index past the card",
			mutate: func(o []domain.Option) []domain.Option {
				o[0].IndexOnCard = 6
				return o
			},
			wantErr: true,
		},
		{
			name: "shuffled weights are fine",
			mutate: func(o []domain.Option) []domain.Option {
				o[0].Weight, o[5].Weight = o[5].Weight, o[0].Weight
				return o
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := game.ValidateTestimony(shown, tt.mutate(validOptions()))
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidTestimony)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateTestimony_RequiresSixShownCards(t *testing.T) {
	e := newEngine(31)
	m := newTestMatch(t, e, 4)

	err := game.ValidateTestimony(m.ShownCards()[:5], validOptions())
	assert.ErrorIs(t, err, domain.ErrInvalidTestimony)
}
