package service

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dom/deception-server/internal/domain"
	"github.com/dom/deception-server/internal/repository"
)

//go:embed cards.json
var defaultCatalog []byte

// DefaultCatalog decodes the card set shipped with the server.
func DefaultCatalog() (*domain.CardCatalog, error) {
	var catalog domain.CardCatalog
	if err := json.Unmarshal(defaultCatalog, &catalog); err != nil {
		return nil, fmt.Errorf("decode embedded catalog: %w", err)
	}
	return &catalog, nil
}

type CardService struct {
	cardRepo repository.CardRepository

	mu     sync.RWMutex
	cached *domain.CardCatalog
}

func NewCardService(cardRepo repository.CardRepository) *CardService {
	return &CardService{cardRepo: cardRepo}
}

// Sync writes the embedded catalog to the store, replacing templates with the
// same key, and refreshes the cached copy.
func (s *CardService) Sync(ctx context.Context) (int, error) {
	catalog, err := DefaultCatalog()
	if err != nil {
		return 0, err
	}
	if err := s.cardRepo.UpsertCatalog(ctx, catalog); err != nil {
		return 0, err
	}
	s.invalidate()
	return len(catalog.InformationCards) + len(catalog.MeasureCards) + len(catalog.ClueCards), nil
}

// Catalog returns every template. The result is shared and must not be
// modified.
func (s *CardService) Catalog(ctx context.Context) (*domain.CardCatalog, error) {
	s.mu.RLock()
	cached := s.cached
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	catalog, err := s.cardRepo.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cached = catalog
	s.mu.Unlock()
	return catalog, nil
}

func (s *CardService) invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}
