package service

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indyapi/tictactoe-server/internal/apperror"
	"github.com/indyapi/tictactoe-server/internal/entity"
	"github.com/indyapi/tictactoe-server/internal/registry"
)

type fakeHasher struct {
	err error
}

func (that *fakeHasher) HashSecret(secret string) (string, error) {
	if that.err != nil {
		return "", that.err
	}

	return "hashed:" + secret, nil
}

func newRoomService() (RoomService, *registry.Registry) {
	reg := registry.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewRoomService(logger, reg, &fakeHasher{}), reg
}

func TestRoomService_CreateRoom(t *testing.T) {
	t.Run("PublicRoom_NoSecretHash", func(t *testing.T) {
		// Given: a room service
		svc, _ := newRoomService()

		// When: a public room is created without a secret
		room, err := svc.CreateRoom("owner-token", "Lobby", entity.StartingPlayerRandom, entity.VisibilityPublic, "")

		// Then: the room is registered with no secret hash
		require.NoError(t, err)
		assert.Empty(t, room.SecretHash())
		assert.False(t, room.IsPrivate())
	})

	t.Run("PrivateRoom_SecretHashed", func(t *testing.T) {
		svc, _ := newRoomService()

		room, err := svc.CreateRoom("owner-token", "Hideout", entity.SymbolO, entity.VisibilityPrivate, "s3cret!")

		require.NoError(t, err)
		assert.Equal(t, "hashed:s3cret!", room.SecretHash())
		assert.True(t, room.IsPrivate())
	})

	t.Run("HasherFails", func(t *testing.T) {
		reg := registry.New()
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		svc := NewRoomService(logger, reg, &fakeHasher{err: errors.New("cost too high")})

		_, err := svc.CreateRoom("owner-token", "Hideout", entity.SymbolO, entity.VisibilityPrivate, "s3cret!")

		require.Error(t, err)
	})
}

func TestRoomService_Lookups(t *testing.T) {
	svc, _ := newRoomService()

	room, err := svc.CreateRoom("owner-token", "Lobby", entity.SymbolX, entity.VisibilityPublic, "")
	require.NoError(t, err)

	got, err := svc.GetByID(room.ID())
	require.NoError(t, err)
	assert.Same(t, room, got)

	got, err = svc.ResolveByCode(room.JoinCode())
	require.NoError(t, err)
	assert.Same(t, room, got)

	rooms := svc.ListPublic()
	require.Len(t, rooms, 1)
	assert.Same(t, room, rooms[0])
}

func TestRoomService_Leave(t *testing.T) {
	t.Run("RemainingPlayer_RoomSurvives", func(t *testing.T) {
		svc, _ := newRoomService()

		room, err := svc.CreateRoom("owner-token", "Lobby", entity.SymbolX, entity.VisibilityPublic, "")
		require.NoError(t, err)

		_, ok := room.Join("conn-a", "owner-token")
		require.True(t, ok)
		_, ok = room.Join("conn-b", "guest-token")
		require.True(t, ok)

		// When: one of two players leaves
		events := svc.Leave(room, "conn-b")

		// Then: the departure is announced and the room stays registered
		require.Len(t, events, 1)

		_, err = svc.GetByID(room.ID())
		require.NoError(t, err)
	})

	t.Run("LastPlayer_RoomDissolved", func(t *testing.T) {
		svc, _ := newRoomService()

		room, err := svc.CreateRoom("owner-token", "Lobby", entity.SymbolX, entity.VisibilityPublic, "")
		require.NoError(t, err)

		_, ok := room.Join("conn-a", "owner-token")
		require.True(t, ok)

		// When: the last player leaves
		svc.Leave(room, "conn-a")

		// Then: neither the ID nor the join code resolves anymore
		_, err = svc.GetByID(room.ID())
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)

		_, err = svc.ResolveByCode(room.JoinCode())
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})
}
