package registry

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/indyapi/tictactoe-server/internal/apperror"
	"github.com/indyapi/tictactoe-server/internal/entity"
)

// maxCodeAttempts - join codes are six characters from a wide alphabet, so
// collisions are rare but must be retried, not ignored. Running out of
// attempts is the only fatal condition.
const maxCodeAttempts = 64

const codeLength = 6

var ErrCodesExhausted = errors.New("could not generate a unique join code")

// RoomSpec - the collaborator-facing contract for room creation. The secret
// hash must be present iff the visibility is private.
type RoomSpec struct {
	Owner          string
	Name           string
	StartingPlayer string
	Visibility     string
	SecretHash     string
}

// Registry - directory of live rooms by ID and by join code. The two maps
// are updated together under one lock and are never individually out of
// sync: while a room lives, its code resolves to exactly that room.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*entity.Room
	codes map[string]string
}

func New() *Registry {
	return &Registry{
		rooms: make(map[string]*entity.Room),
		codes: make(map[string]string),
	}
}

// Create - registers a new room under a fresh ID and a unique upper-case
// join code.
func (that *Registry) Create(spec RoomSpec) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	code, err := that.generateCodeLocked()
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	room := entity.NewRoom(id, spec.Owner, spec.Name, spec.StartingPlayer, spec.Visibility, code, spec.SecretHash)

	that.rooms[id] = room
	that.codes[code] = id

	return room, nil
}

func (that *Registry) GetByID(id string) (*entity.Room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	room, ok := that.rooms[id]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	return room, nil
}

// ResolveByCode - case-insensitive join code lookup.
func (that *Registry) ResolveByCode(code string) (*entity.Room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	id, ok := that.codes[strings.ToUpper(code)]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	return that.rooms[id], nil
}

// Delete - removes both mappings as one atomic unit. Unknown IDs are a
// no-op.
func (that *Registry) Delete(id string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.rooms[id]
	if !ok {
		return
	}

	delete(that.rooms, id)
	delete(that.codes, room.JoinCode())
}

// ListPublic - rooms with public visibility only.
func (that *Registry) ListPublic() []*entity.Room {
	that.mu.RLock()
	defer that.mu.RUnlock()

	rooms := make([]*entity.Room, 0, len(that.rooms))
	for _, room := range that.rooms {
		if room.IsPublic() {
			rooms = append(rooms, room)
		}
	}

	return rooms
}

func (that *Registry) generateCodeLocked() (string, error) {
	for range maxCodeAttempts {
		code := strings.ToUpper(uuid.NewString()[:codeLength])
		if _, taken := that.codes[code]; !taken {
			return code, nil
		}
	}

	return "", ErrCodesExhausted
}
