package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dom/deception-server/internal/domain"
	"github.com/dom/deception-server/internal/repository"
	"github.com/google/uuid"
)

type matchRepository struct {
	s *Store
}

func (r *matchRepository) CreateForRoom(ctx context.Context, match *domain.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	room, ok := r.s.rooms[match.RoomID]
	if !ok {
		return domain.ErrRoomNotFound
	}
	if room.MatchID != nil {
		return domain.ErrMatchInProgress
	}
	if match.ID == uuid.Nil {
		match.ID = uuid.New()
	}
	now := time.Now()
	match.CreatedAt, match.UpdatedAt = now, now
	stamp(match)

	id := match.ID
	room.MatchID = &id
	r.s.matches[match.ID] = match.Clone()
	r.s.matchLocks[match.ID] = &sync.Mutex{}
	return nil
}

func (r *matchRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Match, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.matches[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrMatchNotFound, id)
	}
	return m.Clone(), nil
}

func (r *matchRepository) Mutate(ctx context.Context, id uuid.UUID, fn repository.MatchMutator) (*domain.Match, error) {
	r.s.mu.RLock()
	lock, ok := r.s.matchLocks[id]
	r.s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrMatchNotFound, id)
	}

	lock.Lock()
	defer lock.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	stored, ok := r.s.matches[id]
	r.s.mu.RUnlock()
	if !ok {
		// deleted while we waited
		return nil, fmt.Errorf("%w: %s", domain.ErrMatchNotFound, id)
	}

	working := stored.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	working.Version++
	working.UpdatedAt = time.Now()
	stamp(working)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.matches[id]; !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrMatchNotFound, id)
	}
	r.s.matches[id] = working.Clone()
	return working, nil
}

// Delete waits for any in-flight Mutate on the match before removing it.
func (r *matchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.RLock()
	lock, ok := r.s.matchLocks[id]
	r.s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrMatchNotFound, id)
	}
	lock.Lock()
	defer lock.Unlock()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrMatchNotFound, id)
	}
	if room, ok := r.s.rooms[m.RoomID]; ok && room.MatchID != nil && *room.MatchID == id {
		room.MatchID = nil
	}
	delete(r.s.matches, id)
	delete(r.s.matchLocks, id)
	return nil
}

// stamp points every child row at its match, as the foreign keys would.
func stamp(m *domain.Match) {
	for _, p := range m.Players {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		p.MatchID = m.ID
	}
	for _, c := range m.InformationCards {
		c.MatchID = m.ID
	}
	for _, o := range m.Options {
		o.MatchID = m.ID
	}
}
