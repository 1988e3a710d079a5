package service

import (
	"fmt"
	"log/slog"

	"github.com/indyapi/tictactoe-server/internal/entity"
	"github.com/indyapi/tictactoe-server/internal/registry"
)

// RoomService - room lifecycle on top of the registry: creation with secret
// hashing, lookups, and the leave cascade that may dissolve a room.
type RoomService interface {
	CreateRoom(owner, name, startingPlayer, visibility, secret string) (*entity.Room, error)

	GetByID(id string) (*entity.Room, error)
	ResolveByCode(code string) (*entity.Room, error)
	ListPublic() []*entity.Room

	Leave(room *entity.Room, connID entity.ConnectionID) []entity.Event
}

type secretHasher interface {
	HashSecret(secret string) (string, error)
}

type roomService struct {
	logger *slog.Logger

	rooms  *registry.Registry
	hasher secretHasher
}

func NewRoomService(logger *slog.Logger, rooms *registry.Registry, hasher secretHasher) RoomService {
	return &roomService{
		logger: logger,
		rooms:  rooms,
		hasher: hasher,
	}
}

func (that *roomService) CreateRoom(owner, name, startingPlayer, visibility, secret string) (*entity.Room, error) {
	spec := registry.RoomSpec{
		Owner:          owner,
		Name:           name,
		StartingPlayer: startingPlayer,
		Visibility:     visibility,
	}

	if secret != "" {
		hash, err := that.hasher.HashSecret(secret)
		if err != nil {
			return nil, fmt.Errorf("failed to hash room secret: %w", err)
		}

		spec.SecretHash = hash
	}

	room, err := that.rooms.Create(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	return room, nil
}

func (that *roomService) GetByID(id string) (*entity.Room, error) {
	return that.rooms.GetByID(id)
}

func (that *roomService) ResolveByCode(code string) (*entity.Room, error) {
	return that.rooms.ResolveByCode(code)
}

func (that *roomService) ListPublic() []*entity.Room {
	return that.rooms.ListPublic()
}

// Leave - unseats the connection and removes the room from the registry when
// the departure dissolves it: last player out, or forfeiture of a started
// game.
func (that *roomService) Leave(room *entity.Room, connID entity.ConnectionID) []entity.Event {
	log := that.logger.With("method", "Leave", "roomID", room.ID())

	events, dissolve := room.Leave(connID)
	if dissolve {
		that.rooms.Delete(room.ID())
		log.Info("room dissolved")
	}

	return events
}
