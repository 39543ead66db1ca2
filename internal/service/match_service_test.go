package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/dom/deception-server/internal/domain"
	"github.com/dom/deception-server/internal/game"
	"github.com/dom/deception-server/internal/service"
	"github.com/dom/deception-server/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestMatchService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("deals every member in join order", func(t *testing.T) {
		e := newEnv(t)
		room, users := e.readyRoom(t, 6)

		m, err := e.services.Match.Create(ctx, users[0].ID, room.ID)
		require.NoError(t, err)

		assert.Equal(t, domain.PhaseInit, m.Phase)
		assert.Equal(t, 1, m.Round)
		require.Len(t, m.Players, 6)
		for i, p := range m.Players {
			assert.Equal(t, users[i].ID, p.UserID)
			assert.Equal(t, users[i].DisplayName, p.DisplayName)
			assert.Equal(t, i, p.Seat)
		}
		assert.NotNil(t, m.PlayerByRole(domain.RoleAccomplice))

		got, err := e.services.Room.GetRoom(ctx, room.ID.String())
		require.NoError(t, err)
		require.NotNil(t, got.MatchID)
		assert.Equal(t, m.ID, *got.MatchID)
	})

	tests := []struct {
		name    string
		setup   func(t *testing.T, e *env) (userID, roomID uuid.UUID)
		wantErr error
	}{
		{
			name: "not the host",
			setup: func(t *testing.T, e *env) (uuid.UUID, uuid.UUID) {
				room, users := e.readyRoom(t, 4)
				return users[1].ID, room.ID
			},
			wantErr: domain.ErrNotRoomHost,
		},
		{
			name: "members not ready",
			setup: func(t *testing.T, e *env) (uuid.UUID, uuid.UUID) {
				users := testutil.BuildUsers(t, e.repos.User, 4)
				room := testutil.NewRoomBuilder().WithHost(users[0]).WithMembers(users[1:]...).Build(t, e.repos)
				return users[0].ID, room.ID
			},
			wantErr: domain.ErrPlayersNotReady,
		},
		{
			name: "too few players",
			setup: func(t *testing.T, e *env) (uuid.UUID, uuid.UUID) {
				room, users := e.readyRoom(t, 3)
				return users[0].ID, room.ID
			},
			wantErr: domain.ErrPartySize,
		},
		{
			name: "already running",
			setup: func(t *testing.T, e *env) (uuid.UUID, uuid.UUID) {
				m, users := e.newMatch(t, 4)
				return users[0].ID, m.RoomID
			},
			wantErr: domain.ErrMatchInProgress,
		},
		{
			name: "unknown room",
			setup: func(t *testing.T, e *env) (uuid.UUID, uuid.UUID) {
				return uuid.New(), uuid.New()
			},
			wantErr: domain.ErrRoomNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			userID, roomID := tt.setup(t, e)

			_, err := e.services.Match.Create(ctx, userID, roomID)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMatchService_CreateWithoutCards(t *testing.T) {
	repos := testutil.NewMemoryRepositories()
	services := service.NewServicesWithEngine(repos, testutil.TestConfig(), testutil.NewTestEngine(1))
	e := &env{repos: repos, services: services}
	room, users := e.readyRoom(t, 4)

	_, err := services.Match.Create(context.Background(), users[0].ID, room.ID)
	assert.ErrorIs(t, err, domain.ErrCardPool)

	got, err := services.Room.GetRoom(context.Background(), room.ID.String())
	require.NoError(t, err)
	assert.Nil(t, got.MatchID, "a failed deal must not link a match")
}

func TestMatchService_Ready(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	m, _ := e.newMatch(t, 4)

	for i, p := range m.Players {
		got, allReady, err := e.services.Match.Ready(ctx, actor(m, p))
		require.NoError(t, err)
		assert.Equal(t, i == len(m.Players)-1, allReady)
		assert.Equal(t, domain.PlayerStatusReady, got.Player(p.ID).Status)
	}

	_, _, err := e.services.Match.Ready(ctx, actor(m, m.Players[0]))
	assert.ErrorIs(t, err, domain.ErrBadTiming)

	started, err := e.services.Match.Start(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseMurder, started.Phase)

	_, err = e.services.Match.Start(ctx, m.ID)
	assert.ErrorIs(t, err, domain.ErrBadTiming)
}

func TestMatchService_RejectsForeignSeat(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	m, _ := e.newMatch(t, 4)

	impostor := service.Actor{UserID: m.Players[1].UserID, MatchID: m.ID, PlayerID: m.Players[0].ID}
	_, _, err := e.services.Match.Ready(ctx, impostor)
	assert.ErrorIs(t, err, domain.ErrPermission)

	got, err := e.services.Match.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlayerStatusNotReady, got.Players[0].Status)
	assert.Equal(t, m.Version, got.Version, "rejected transitions do not bump the version")
}

func TestMatchService_FullMatch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	m, _ := e.newMatch(t, 6)

	_, err := e.services.Match.Start(ctx, m.ID)
	require.NoError(t, err)

	murderer := m.PlayerByRole(domain.RoleMurderer)
	witness := m.PlayerByRole(domain.RoleWitness)
	accomplice := m.PlayerByRole(domain.RoleAccomplice)
	measure, clue := murderer.MeasureCards[1], murderer.ClueCards[2]

	// only the murderer accuses, and only from their own hand
	_, err = e.services.Match.Accuse(ctx, actor(m, witness), measure, clue)
	assert.ErrorIs(t, err, domain.ErrPermission)
	_, err = e.services.Match.Accuse(ctx, actor(m, murderer), "not-a-card", clue)
	assert.ErrorIs(t, err, domain.ErrInvalidAction)

	got, err := e.services.Match.Accuse(ctx, actor(m, murderer), measure, clue)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseProvideTestimonials, got.Phase)

	_, err = e.services.Match.ProvideTestimony(ctx, actor(m, witness), validOptions()[:5])
	assert.ErrorIs(t, err, domain.ErrInvalidTestimony)

	got, err = e.services.Match.ProvideTestimony(ctx, actor(m, witness), validOptions())
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseReasoning, got.Phase)
	assert.Len(t, got.Options, domain.ShownCardCount)

	// a full round of speeches hands the turn to the accomplice
	for _, speaker := range got.Speakers() {
		got, err = e.services.Match.EndTurn(ctx, actor(m, speaker), got.CurrentPlayerIndex)
		require.NoError(t, err)
	}
	assert.Equal(t, domain.PhaseAccomplice, got.Phase)
	assert.Equal(t, 2, got.Round)

	got, err = e.services.Match.Assist(ctx, actor(m, accomplice), "")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseAdditionalTestimonials, got.Phase)

	var pending *domain.MatchInformationCard
	for _, c := range got.InformationCards {
		if c.Status == domain.CardStatusPending {
			pending = c
		}
	}
	require.NotNil(t, pending, "assist attaches a pending card")
	replaced := got.ShownCards()[2]

	edits := []game.CardEdit{
		{InformationCardID: replaced.InformationCardID, Order: replaced.Order, Status: domain.CardStatusDiscard},
		{InformationCardID: pending.InformationCardID, Order: replaced.Order, Status: domain.CardStatusShow},
	}
	got, err = e.services.Match.ReplenishTestimony(ctx, actor(m, witness), edits, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseReasoning, got.Phase)
	assert.Equal(t, pending.InformationCardID, got.ShownCards()[2].InformationCardID)

	detective := m.PlayerByRole(domain.RoleDetective)
	got, solved, err := e.services.Match.SolveCase(ctx, actor(m, detective), measure, clue, got.CurrentPlayerIndex)
	require.NoError(t, err)
	assert.True(t, solved)
	assert.Equal(t, domain.PhaseDetectiveWin, got.Phase)
}

func TestMatchService_ConcurrentTurnsCommitOnce(t *testing.T) {
	concurrentTurnsCommitOnce(t, newEnv(t))
}

func TestMatchService_ConcurrentTurnsCommitOnceOnPostgres(t *testing.T) {
	ts := testutil.NewPostgresTestServer(t)
	concurrentTurnsCommitOnce(t, &env{repos: ts.Repos, services: ts.Services})
}

// concurrentTurnsCommitOnce races ten EndTurn calls carrying the same turn
// index. Only the first to commit may advance the speaker.
func concurrentTurnsCommitOnce(t *testing.T, e *env) {
	ctx := context.Background()
	m, _ := e.newMatch(t, 5)

	_, err := e.services.Match.Start(ctx, m.ID)
	require.NoError(t, err)
	murderer := m.PlayerByRole(domain.RoleMurderer)
	_, err = e.services.Match.Accuse(ctx, actor(m, murderer), murderer.MeasureCards[0], murderer.ClueCards[0])
	require.NoError(t, err)
	reasoning, err := e.services.Match.ProvideTestimony(ctx, actor(m, m.PlayerByRole(domain.RoleWitness)), validOptions())
	require.NoError(t, err)

	speaker := reasoning.CurrentSpeaker()
	var successes atomic.Int32
	var g errgroup.Group
	for range 10 {
		g.Go(func() error {
			_, err := e.services.Match.EndTurn(ctx, actor(m, speaker), reasoning.CurrentPlayerIndex)
			switch {
			case err == nil:
				successes.Add(1)
			case !errors.Is(err, domain.ErrBadTiming):
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 1, successes.Load(), "a stale turn index is rejected after the first commit")
	got, err := e.services.Match.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, reasoning.CurrentPlayerIndex+1, got.CurrentPlayerIndex)
	assert.Equal(t, reasoning.Version+1, got.Version)
}

func TestMatchService_Quit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	m, _ := e.newMatch(t, 4)

	for i, p := range m.Players {
		got, destroyed, err := e.services.Match.Quit(ctx, actor(m, p))
		require.NoError(t, err)
		last := i == len(m.Players)-1
		assert.Equal(t, last, destroyed)
		assert.Equal(t, domain.PlayerStatusLeave, got.Player(p.ID).Status)
	}

	_, err := e.services.Match.Get(ctx, m.ID)
	assert.ErrorIs(t, err, domain.ErrMatchNotFound)

	room, err := e.services.Room.GetRoom(ctx, m.RoomID.String())
	require.NoError(t, err)
	assert.Nil(t, room.MatchID)
}

func TestMatchService_Delete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	m, users := e.newMatch(t, 4)

	_, err := e.services.Match.Delete(ctx, users[1].ID, m.ID)
	assert.ErrorIs(t, err, domain.ErrNotRoomHost)

	deleted, err := e.services.Match.Delete(ctx, users[0].ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, deleted.ID)

	_, err = e.services.Match.Get(ctx, m.ID)
	assert.ErrorIs(t, err, domain.ErrMatchNotFound)

	// the room can deal a fresh match afterwards
	_, err = e.services.Match.Create(ctx, users[0].ID, m.RoomID)
	assert.NoError(t, err)
}
