package service_test

import (
	"context"
	"testing"

	"github.com/dom/deception-server/internal/domain"
	"github.com/dom/deception-server/internal/service"
	"github.com/dom/deception-server/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	catalog, err := service.DefaultCatalog()
	require.NoError(t, err)

	var causes, scenes, others int
	for _, card := range catalog.InformationCards {
		assert.Len(t, card.Facts, 6, "card %s", card.ID)
		switch card.Category {
		case domain.CategoryCauseOfDeath:
			causes++
		case domain.CategoryCrimeScene:
			scenes++
		default:
			others++
		}
	}
	assert.GreaterOrEqual(t, causes, 1)
	assert.GreaterOrEqual(t, scenes, 1)
	assert.GreaterOrEqual(t, others, 4+3, "enough cards for the opening layout and one draw per round")

	// ten players hold four of each kind, the witness none
	assert.GreaterOrEqual(t, len(catalog.MeasureCards), 9*domain.HandSize)
	assert.GreaterOrEqual(t, len(catalog.ClueCards), 9*domain.HandSize)
}

func TestCardService_SyncAndCatalog(t *testing.T) {
	repos := testutil.NewMemoryRepositories()
	cards := service.NewCardService(repos.Card)
	ctx := context.Background()

	empty, err := cards.Catalog(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.InformationCards)

	n, err := cards.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 101, n)

	catalog, err := cards.Catalog(ctx)
	require.NoError(t, err)
	assert.Len(t, catalog.InformationCards, 21)
	assert.Len(t, catalog.MeasureCards, 40)
	assert.Len(t, catalog.ClueCards, 40)

	cached, err := cards.Catalog(ctx)
	require.NoError(t, err)
	assert.Same(t, catalog, cached)

	// syncing twice does not duplicate templates
	_, err = cards.Sync(ctx)
	require.NoError(t, err)
	catalog, err = cards.Catalog(ctx)
	require.NoError(t, err)
	assert.Len(t, catalog.InformationCards, 21)
}
