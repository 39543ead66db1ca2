package memory

import (
	"context"
	"slices"

	"github.com/dom/deception-server/internal/domain"
)

type cardRepository struct {
	s *Store
}

func (r *cardRepository) UpsertCatalog(ctx context.Context, catalog *domain.CardCatalog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	merged := copyCatalog(r.s.catalog)
	for _, card := range catalog.InformationCards {
		cp := *card
		cp.Facts = slices.Clone(card.Facts)
		if i := slices.IndexFunc(merged.InformationCards, func(c *domain.InformationCard) bool { return c.ID == card.ID }); i >= 0 {
			merged.InformationCards[i] = &cp
		} else {
			merged.InformationCards = append(merged.InformationCards, &cp)
		}
	}
	for _, card := range catalog.MeasureCards {
		cp := *card
		if i := slices.IndexFunc(merged.MeasureCards, func(c *domain.MeasureCard) bool { return c.Name == card.Name }); i >= 0 {
			merged.MeasureCards[i] = &cp
		} else {
			merged.MeasureCards = append(merged.MeasureCards, &cp)
		}
	}
	for _, card := range catalog.ClueCards {
		cp := *card
		if i := slices.IndexFunc(merged.ClueCards, func(c *domain.ClueCard) bool { return c.Name == card.Name }); i >= 0 {
			merged.ClueCards[i] = &cp
		} else {
			merged.ClueCards = append(merged.ClueCards, &cp)
		}
	}
	r.s.catalog = merged
	return nil
}

func (r *cardRepository) GetCatalog(ctx context.Context) (*domain.CardCatalog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return copyCatalog(r.s.catalog), nil
}

func copyCatalog(c *domain.CardCatalog) *domain.CardCatalog {
	out := &domain.CardCatalog{
		InformationCards: make([]*domain.InformationCard, 0, len(c.InformationCards)),
		MeasureCards:     make([]*domain.MeasureCard, 0, len(c.MeasureCards)),
		ClueCards:        make([]*domain.ClueCard, 0, len(c.ClueCards)),
	}
	for _, card := range c.InformationCards {
		cp := *card
		cp.Facts = slices.Clone(card.Facts)
		out.InformationCards = append(out.InformationCards, &cp)
	}
	for _, card := range c.MeasureCards {
		cp := *card
		out.MeasureCards = append(out.MeasureCards, &cp)
	}
	for _, card := range c.ClueCards {
		cp := *card
		out.ClueCards = append(out.ClueCards, &cp)
	}
	return out
}
