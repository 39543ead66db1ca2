// Package memory keeps every repository in process memory. It backs
// STORE=memory for local play and the fast service and transport tests.
package memory

import (
	"sync"

	"github.com/dom/deception-server/internal/domain"
	"github.com/dom/deception-server/internal/repository"
	"github.com/google/uuid"
)

// Store holds all tables behind one lock so cross-table operations such as
// linking a match to its room are atomic.
type Store struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*domain.User
	sessions map[uuid.UUID]*domain.UserSession
	rooms    map[uuid.UUID]*domain.Room
	members  map[uuid.UUID][]*domain.RoomMember
	catalog  *domain.CardCatalog
	matches  map[uuid.UUID]*domain.Match

	// one lock per match so Mutate serializes writers of the same match only
	matchLocks map[uuid.UUID]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		users:      make(map[uuid.UUID]*domain.User),
		sessions:   make(map[uuid.UUID]*domain.UserSession),
		rooms:      make(map[uuid.UUID]*domain.Room),
		members:    make(map[uuid.UUID][]*domain.RoomMember),
		catalog:    &domain.CardCatalog{},
		matches:    make(map[uuid.UUID]*domain.Match),
		matchLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func NewRepositories(s *Store) *repository.Repositories {
	return &repository.Repositories{
		User:       &userRepository{s: s},
		Session:    &sessionRepository{s: s},
		Room:       &roomRepository{s: s},
		RoomMember: &roomMemberRepository{s: s},
		Card:       &cardRepository{s: s},
		Match:      &matchRepository{s: s},
	}
}
