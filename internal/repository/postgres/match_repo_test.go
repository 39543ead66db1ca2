package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dom/deception-server/internal/domain"
	"github.com/dom/deception-server/internal/game"
	"github.com/dom/deception-server/internal/repository"
	"github.com/dom/deception-server/internal/repository/postgres"
	"github.com/dom/deception-server/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type matchFixture struct {
	db    *gorm.DB
	repos *repository.Repositories
	room  *domain.Room
	match *domain.Match
}

func newMatchFixture(t *testing.T, players int) *matchFixture {
	t.Helper()
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	ctx := context.Background()

	catalog := testutil.TestCatalog()
	require.NoError(t, repos.Card.UpsertCatalog(ctx, catalog))

	users := testutil.BuildUsers(t, repos.User, players)
	room := testutil.NewRoomBuilder().WithHost(users[0]).WithMembers(users[1:]...).Build(t, repos)

	seats := make([]game.Seat, len(users))
	for i, u := range users {
		seats[i] = game.Seat{UserID: u.ID, DisplayName: u.DisplayName}
	}
	m, err := testutil.NewTestEngine(7).NewMatch(room.ID, seats, catalog)
	require.NoError(t, err)

	return &matchFixture{db: testDB.DB, repos: repos, room: room, match: m}
}

func TestMatchRepository_CreateForRoom(t *testing.T) {
	f := newMatchFixture(t, 5)
	ctx := context.Background()

	require.NoError(t, f.repos.Match.CreateForRoom(ctx, f.match))

	room, err := f.repos.Room.GetByID(ctx, f.room.ID)
	require.NoError(t, err)
	require.NotNil(t, room.MatchID)
	assert.Equal(t, f.match.ID, *room.MatchID)

	got, err := f.repos.Match.GetByID(ctx, f.match.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseInit, got.Phase)
	require.Len(t, got.Players, 5)
	for i, p := range got.Players {
		assert.Equal(t, i, p.Seat, "players load in seat order")
		assert.Len(t, p.MeasureCards, len(f.match.Players[i].MeasureCards))
	}
	assert.Len(t, got.ShownCards(), domain.ShownCardCount)
	for _, c := range got.InformationCards {
		require.NotNil(t, c.Card, "template card should be preloaded")
		assert.Equal(t, c.InformationCardID, c.Card.ID)
	}
}

func TestMatchRepository_CreateForRoomConflicts(t *testing.T) {
	f := newMatchFixture(t, 5)
	ctx := context.Background()

	require.NoError(t, f.repos.Match.CreateForRoom(ctx, f.match))

	second := f.match.Clone()
	second.ID = uuid.New()
	err := f.repos.Match.CreateForRoom(ctx, second)
	assert.ErrorIs(t, err, domain.ErrMatchInProgress)

	orphan := f.match.Clone()
	orphan.ID = uuid.New()
	orphan.RoomID = uuid.New()
	err = f.repos.Match.CreateForRoom(ctx, orphan)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMatchRepository_Mutate(t *testing.T) {
	f := newMatchFixture(t, 5)
	ctx := context.Background()
	require.NoError(t, f.repos.Match.CreateForRoom(ctx, f.match))

	t.Run("commits and bumps version", func(t *testing.T) {
		before, err := f.repos.Match.GetByID(ctx, f.match.ID)
		require.NoError(t, err)

		got, err := f.repos.Match.Mutate(ctx, f.match.ID, func(m *domain.Match) error {
			m.Phase = domain.PhaseMurder
			m.Players[0].Status = domain.PlayerStatusReady
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, before.Version+1, got.Version)

		reloaded, err := f.repos.Match.GetByID(ctx, f.match.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseMurder, reloaded.Phase)
		assert.Equal(t, domain.PlayerStatusReady, reloaded.Players[0].Status)
		assert.Equal(t, got.Version, reloaded.Version)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		before, err := f.repos.Match.GetByID(ctx, f.match.ID)
		require.NoError(t, err)

		boom := errors.New("boom")
		_, err = f.repos.Match.Mutate(ctx, f.match.ID, func(m *domain.Match) error {
			m.Phase = domain.PhaseDetectiveWin
			m.Players = m.Players[:1]
			return boom
		})
		assert.ErrorIs(t, err, boom)

		after, err := f.repos.Match.GetByID(ctx, f.match.ID)
		require.NoError(t, err)
		assert.Equal(t, before.Version, after.Version)
		assert.Equal(t, before.Phase, after.Phase)
		assert.Len(t, after.Players, 5)
	})

	t.Run("rewrites child rows", func(t *testing.T) {
		_, err := f.repos.Match.Mutate(ctx, f.match.ID, func(m *domain.Match) error {
			m.Options = append(m.Options, &domain.MatchOption{MatchID: m.ID, Weight: 1, Order: 3, IndexOnCard: 2})
			return nil
		})
		require.NoError(t, err)

		got, err := f.repos.Match.GetByID(ctx, f.match.ID)
		require.NoError(t, err)
		require.Len(t, got.Options, 1)
		assert.Equal(t, domain.Option{Weight: 1, Order: 3, IndexOnCard: 2}, got.Options[0].Option())
	})

	t.Run("unknown match", func(t *testing.T) {
		_, err := f.repos.Match.Mutate(ctx, uuid.New(), func(m *domain.Match) error { return nil })
		assert.ErrorIs(t, err, domain.ErrMatchNotFound)
	})
}

func TestMatchRepository_Delete(t *testing.T) {
	f := newMatchFixture(t, 5)
	ctx := context.Background()
	require.NoError(t, f.repos.Match.CreateForRoom(ctx, f.match))

	require.NoError(t, f.repos.Match.Delete(ctx, f.match.ID))

	_, err := f.repos.Match.GetByID(ctx, f.match.ID)
	assert.ErrorIs(t, err, domain.ErrMatchNotFound)

	room, err := f.repos.Room.GetByID(ctx, f.room.ID)
	require.NoError(t, err)
	assert.Nil(t, room.MatchID)

	var players int64
	require.NoError(t, f.db.Model(&domain.Player{}).Where("match_id = ?", f.match.ID).Count(&players).Error)
	assert.Zero(t, players)

	err = f.repos.Match.Delete(ctx, f.match.ID)
	assert.ErrorIs(t, err, domain.ErrMatchNotFound)
}
