package repository

import (
	"context"
	"time"

	"github.com/dom/deception-server/internal/domain"
	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByDisplayName(ctx context.Context, displayName string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// SessionRepository keeps at most one live refresh session per user.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.UserSession) error
	// GetByUserID returns the user's newest session.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.UserSession, error)
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
	// DeleteExpired removes every session that expired at or before now and
	// reports how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type RoomRepository interface {
	Create(ctx context.Context, room *domain.Room) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error)
	GetByShortCode(ctx context.Context, code string) (*domain.Room, error)
	Update(ctx context.Context, room *domain.Room) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type RoomMemberRepository interface {
	Create(ctx context.Context, member *domain.RoomMember) error
	GetByRoomID(ctx context.Context, roomID uuid.UUID) ([]*domain.RoomMember, error)
	GetByRoomAndUser(ctx context.Context, roomID, userID uuid.UUID) (*domain.RoomMember, error)
	// GetLatestByUser returns the membership the user joined most recently.
	GetLatestByUser(ctx context.Context, userID uuid.UUID) (*domain.RoomMember, error)
	SetReady(ctx context.Context, roomID, userID uuid.UUID, ready bool) error
	Delete(ctx context.Context, roomID, userID uuid.UUID) error
}

type CardRepository interface {
	UpsertCatalog(ctx context.Context, catalog *domain.CardCatalog) error
	GetCatalog(ctx context.Context) (*domain.CardCatalog, error)
}

// MatchMutator changes a freshly loaded match in place. Returning an error
// aborts the mutation and nothing is written.
type MatchMutator func(m *domain.Match) error

type MatchRepository interface {
	// CreateForRoom stores a new match and links it to its room in one step.
	// It fails with domain.ErrMatchInProgress if the room already has a match.
	CreateForRoom(ctx context.Context, match *domain.Match) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Match, error)
	// Mutate serializes writers on one match: it loads the current aggregate,
	// applies fn, bumps Version, and commits, or changes nothing if fn fails.
	Mutate(ctx context.Context, id uuid.UUID, fn MatchMutator) (*domain.Match, error)
	// Delete removes the match with its players, cards, and options, and
	// clears the room's link to it.
	Delete(ctx context.Context, id uuid.UUID) error
}

type Repositories struct {
	User       UserRepository
	Session    SessionRepository
	Room       RoomRepository
	RoomMember RoomMemberRepository
	Card       CardRepository
	Match      MatchRepository
}
