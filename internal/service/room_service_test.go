package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/dom/deception-server/internal/domain"
	"github.com/dom/deception-server/internal/service"
	"github.com/dom/deception-server/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomService_CreateRoom(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	host, _ := testutil.NewUserBuilder().Build(t, e.repos.User)

	room, err := e.services.Room.CreateRoom(ctx, service.CreateRoomInput{HostID: host.ID, Title: "  Manor  "})
	require.NoError(t, err)

	assert.Equal(t, "Manor", room.Title)
	assert.Equal(t, host.ID, room.HostID)
	assert.Len(t, room.ShortCode, 6)
	assert.Equal(t, strings.ToUpper(room.ShortCode), room.ShortCode)
	require.Len(t, room.Members, 1)
	assert.Equal(t, host.ID, room.Members[0].UserID)
	assert.False(t, room.Members[0].IsReady)
}

func TestRoomService_GetRoom(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	host, _ := testutil.NewUserBuilder().Build(t, e.repos.User)
	room, err := e.services.Room.CreateRoom(ctx, service.CreateRoomInput{HostID: host.ID})
	require.NoError(t, err)

	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{name: "by id", key: room.ID.String()},
		{name: "by short code", key: room.ShortCode},
		{name: "by lower case short code", key: strings.ToLower(room.ShortCode)},
		{name: "unknown id", key: uuid.New().String(), wantErr: domain.ErrRoomNotFound},
		{name: "unknown code", key: "NOPE00", wantErr: domain.ErrRoomNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.services.Room.GetRoom(ctx, tt.key)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, domain.ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, room.ID, got.ID)
		})
	}
}

func TestRoomService_JoinRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("join appends in order and is idempotent", func(t *testing.T) {
		e := newEnv(t)
		users := testutil.BuildUsers(t, e.repos.User, 3)
		room := testutil.NewRoomBuilder().WithHost(users[0]).Build(t, e.repos)

		_, err := e.services.Room.JoinRoom(ctx, room.ID, users[1].ID)
		require.NoError(t, err)
		got, err := e.services.Room.JoinRoom(ctx, room.ID, users[2].ID)
		require.NoError(t, err)
		again, err := e.services.Room.JoinRoom(ctx, room.ID, users[2].ID)
		require.NoError(t, err)

		assert.Len(t, again.Members, 3)
		for i, m := range got.Members {
			assert.Equal(t, users[i].ID, m.UserID)
		}
	})

	t.Run("room full", func(t *testing.T) {
		e := newEnv(t)
		users := testutil.BuildUsers(t, e.repos.User, domain.MaxRoomMembers+1)
		room := testutil.NewRoomBuilder().WithHost(users[0]).WithMembers(users[1:domain.MaxRoomMembers]...).Build(t, e.repos)

		_, err := e.services.Room.JoinRoom(ctx, room.ID, users[domain.MaxRoomMembers].ID)
		assert.ErrorIs(t, err, domain.ErrRoomFull)
		assert.ErrorIs(t, err, domain.ErrPartySize)
	})

	t.Run("match in progress", func(t *testing.T) {
		e := newEnv(t)
		m, _ := e.newMatch(t, 4)
		late, _ := testutil.NewUserBuilder().Build(t, e.repos.User)

		_, err := e.services.Room.JoinRoom(ctx, m.RoomID, late.ID)
		assert.ErrorIs(t, err, domain.ErrMatchInProgress)
		assert.ErrorIs(t, err, domain.ErrBadTiming)
	})

	t.Run("unknown room", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.services.Room.JoinRoom(ctx, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	})
}

func TestRoomService_LeaveRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("host leaving hands the room on", func(t *testing.T) {
		e := newEnv(t)
		users := testutil.BuildUsers(t, e.repos.User, 3)
		room := testutil.NewRoomBuilder().WithHost(users[0]).WithMembers(users[1], users[2]).Build(t, e.repos)

		got, err := e.services.Room.LeaveRoom(ctx, room.ID, users[0].ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, users[1].ID, got.HostID)
		assert.Len(t, got.Members, 2)
	})

	t.Run("last member deletes the room", func(t *testing.T) {
		e := newEnv(t)
		room := testutil.NewRoomBuilder().Build(t, e.repos)

		got, err := e.services.Room.LeaveRoom(ctx, room.ID, room.HostID)
		require.NoError(t, err)
		assert.Nil(t, got)

		_, err = e.services.Room.GetRoom(ctx, room.ID.String())
		assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	})

	t.Run("stranger", func(t *testing.T) {
		e := newEnv(t)
		room := testutil.NewRoomBuilder().Build(t, e.repos)

		_, err := e.services.Room.LeaveRoom(ctx, room.ID, uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotInRoom)
		assert.ErrorIs(t, err, domain.ErrPermission)
	})
}

func TestRoomService_SetReady(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	users := testutil.BuildUsers(t, e.repos.User, 2)
	room := testutil.NewRoomBuilder().WithHost(users[0]).WithMembers(users[1]).Build(t, e.repos)

	got, err := e.services.Room.SetReady(ctx, room.ID, users[1].ID, true)
	require.NoError(t, err)
	assert.True(t, got.Member(users[1].ID).IsReady)
	assert.False(t, got.AllReady())

	got, err = e.services.Room.SetReady(ctx, room.ID, users[0].ID, true)
	require.NoError(t, err)
	assert.True(t, got.AllReady())

	_, err = e.services.Room.SetReady(ctx, room.ID, uuid.New(), true)
	assert.ErrorIs(t, err, domain.ErrNotInRoom)
}

func TestRoomService_Presence(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	stranger, _ := testutil.NewUserBuilder().Build(t, e.repos.User)
	got, err := e.services.Room.Presence(ctx, stranger.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, got.Seated())

	room, users := e.readyRoom(t, 4)
	got, err = e.services.Room.Presence(ctx, users[1].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, room.ID, got.RoomID)
	assert.Nil(t, got.MatchID)
	assert.False(t, got.Seated())

	m, err := e.services.Match.Create(ctx, users[0].ID, room.ID)
	require.NoError(t, err)
	seat := m.PlayerByUser(users[1].ID)
	require.NotNil(t, seat)

	got, err = e.services.Room.Presence(ctx, users[1].ID)
	require.NoError(t, err)
	require.True(t, got.Seated())
	assert.Equal(t, m.ID, *got.MatchID)
	assert.Equal(t, seat.ID, *got.PlayerID)
	assert.Equal(t, domain.PhaseInit, *got.Phase)

	_, destroyed, err := e.services.Match.Quit(ctx, actor(m, seat))
	require.NoError(t, err)
	require.False(t, destroyed)

	got, err = e.services.Room.Presence(ctx, users[1].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, m.ID, *got.MatchID)
	assert.False(t, got.Seated(), "a player who quit has no seat to return to")
}
