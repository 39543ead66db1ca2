package client

import (
	"sync"

	"github.com/dom/deception-server/internal/domain"
	"github.com/google/uuid"
)

type snapshotKey struct {
	id      uuid.UUID
	version int64
}

// Selectors derives per-player views of a snapshot. Results are computed
// once per match version and reused until a newer snapshot arrives.
type Selectors struct {
	userID uuid.UUID

	mu       sync.Mutex
	key      snapshotKey
	computed bool
	speakers []*domain.Player
	current  *domain.Player
	self     *domain.Player
}

func NewSelectors(userID uuid.UUID) *Selectors {
	return &Selectors{userID: userID}
}

func (s *Selectors) refresh(m *domain.Match) {
	key := snapshotKey{id: m.ID, version: m.Version}
	if s.computed && s.key == key {
		return
	}
	s.key = key
	s.computed = true
	s.speakers = m.Speakers()
	s.current = m.CurrentSpeaker()
	s.self = m.PlayerByUser(s.userID)
}

// Speakers returns the non-witness players in turn order.
func (s *Selectors) Speakers(m *domain.Match) []*domain.Player {
	if m == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh(m)
	return s.speakers
}

func (s *Selectors) CurrentSpeaker(m *domain.Match) *domain.Player {
	if m == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh(m)
	return s.current
}

// Self returns the viewer's own seat, or nil when they are not playing.
func (s *Selectors) Self(m *domain.Match) *domain.Player {
	if m == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh(m)
	return s.self
}

// IsMyTurn reports whether the viewer is the current speaker.
func (s *Selectors) IsMyTurn(m *domain.Match) bool {
	self, current := s.Self(m), s.CurrentSpeaker(m)
	return self != nil && current != nil && self.ID == current.ID
}
