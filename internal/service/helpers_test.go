package service_test

import (
	"context"
	"testing"

	"github.com/dom/deception-server/internal/domain"
	"github.com/dom/deception-server/internal/repository"
	"github.com/dom/deception-server/internal/service"
	"github.com/dom/deception-server/internal/testutil"
	"github.com/stretchr/testify/require"
)

type env struct {
	repos    *repository.Repositories
	services *service.Services
}

func newEnv(t *testing.T) *env {
	t.Helper()
	repos := testutil.NewMemoryRepositories()
	services := service.NewServicesWithEngine(repos, testutil.TestConfig(), testutil.NewTestEngine(11))
	_, err := services.Card.Sync(context.Background())
	require.NoError(t, err)
	return &env{repos: repos, services: services}
}

// readyRoom seats n users, the first one hosting, all marked ready.
func (e *env) readyRoom(t *testing.T, n int) (*domain.Room, []*domain.User) {
	t.Helper()
	users := testutil.BuildUsers(t, e.repos.User, n)
	room := testutil.NewRoomBuilder().WithHost(users[0]).WithMembers(users[1:]...).AllReady().Build(t, e.repos)
	return room, users
}

// newMatch creates a match for a fresh ready room of n players.
func (e *env) newMatch(t *testing.T, n int) (*domain.Match, []*domain.User) {
	t.Helper()
	room, users := e.readyRoom(t, n)
	m, err := e.services.Match.Create(context.Background(), users[0].ID, room.ID)
	require.NoError(t, err)
	return m, users
}

func actor(m *domain.Match, p *domain.Player) service.Actor {
	return service.Actor{UserID: p.UserID, MatchID: m.ID, PlayerID: p.ID}
}

func validOptions() []domain.Option {
	opts := make([]domain.Option, domain.ShownCardCount)
	for i := range opts {
		opts[i] = domain.Option{Weight: i + 1, Order: i + 1, IndexOnCard: i % 6}
	}
	return opts
}
