package entity

import (
	"math/rand"
	"strings"
	"sync"

	"github.com/indyapi/tictactoe-server/internal/apperror"
)

const (
	VisibilityPublic   = "public"
	VisibilityUnlisted = "unlisted"
	VisibilityPrivate  = "private"

	StartingPlayerRandom = "random"

	MaxPlayers = 2
)

// Room - one game instance: membership, turn queue, board and lifecycle.
// All mutators serialize on the room mutex; the mutex is held only for the
// mutation itself, never while events are delivered. Connections are known
// to the room by ConnectionID only.
type Room struct {
	mu sync.Mutex

	id             string
	owner          string
	name           string
	startingPlayer string
	visibility     string
	joinCode       string
	secretHash     string

	players map[ConnectionID]*Player
	order   []ConnectionID
	idPool  []int
	turns   []ConnectionID
	board   Board
	started bool
}

// SymbolAssignment - one owner-requested symbol change, addressed by slot ID.
type SymbolAssignment struct {
	PlayerID int
	Symbol   string
}

func NewRoom(id, owner, name, startingPlayer, visibility, joinCode, secretHash string) *Room {
	return &Room{
		id:             id,
		owner:          owner,
		name:           name,
		startingPlayer: startingPlayer,
		visibility:     strings.ToLower(visibility),
		joinCode:       joinCode,
		secretHash:     secretHash,
		players:        make(map[ConnectionID]*Player),
	}
}

func (that *Room) ID() string         { return that.id }
func (that *Room) JoinCode() string   { return that.joinCode }
func (that *Room) Visibility() string { return that.visibility }
func (that *Room) SecretHash() string { return that.secretHash }

func (that *Room) IsPrivate() bool {
	return that.visibility == VisibilityPrivate
}

func (that *Room) IsPublic() bool {
	return that.visibility == VisibilityPublic
}

func (that *Room) IsOwner(token string) bool {
	return that.owner == token
}

func (that *Room) Started() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.started
}

func (that *Room) PlayerCount() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.players)
}

// Snapshot - a consistent copy of the room state for serialization.
func (that *Room) Snapshot() *Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.snapshotLocked()
}

// Join - seats a connection. Returns false without mutation when both seats
// are taken. Phase checks (started, secret, visibility) belong to the
// handshake gate upstream.
func (that *Room) Join(connID ConnectionID, token string) ([]Event, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(that.players) >= MaxPlayers {
		return nil, false
	}

	slot := len(that.players)
	if len(that.idPool) > 0 {
		slot = that.idPool[0]
		that.idPool = that.idPool[1:]
	}

	player := NewPlayer(connID, slot)
	that.players[connID] = player
	that.order = append(that.order, connID)

	events := []Event{{
		To: []ConnectionID{connID},
		Payload: OnJoinPayload{
			Type:    EventOnJoin,
			Game:    that.snapshotLocked(),
			IsOwner: that.owner == token,
		},
	}}

	if others := that.othersLocked(connID); len(others) > 0 {
		events = append(events, Event{
			To:      others,
			Payload: PlayerJoinPayload{Type: EventPlayerJoin, Player: *player},
		})
	}

	return events, true
}

// Leave - unseats a connection and recycles its slot. Idempotent: a
// connection that is not seated is a no-op. The second return reports
// whether the room should be dissolved: last player gone, or a started
// game dropping to one player (forfeit - the survivor is force-closed,
// no winner is declared).
func (that *Room) Leave(connID ConnectionID) ([]Event, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	player, ok := that.players[connID]
	if !ok {
		return nil, false
	}

	that.idPool = append(that.idPool, player.ID)
	delete(that.players, connID)
	that.order = removeConn(that.order, connID)
	that.turns = removeConn(that.turns, connID)

	if len(that.players) == 0 {
		return nil, true
	}

	if that.started && len(that.players) == 1 {
		that.started = false
		that.turns = nil

		return []Event{{To: that.allLocked(), Close: true}}, true
	}

	return []Event{{
		To:      that.allLocked(),
		Payload: PlayerLeavePayload{Type: EventPlayerLeave, PlayerID: player.ID},
	}}, false
}

// SetReady - flips a player's readiness. When both seats are filled and both
// players are ready, the round starts automatically.
func (that *Room) SetReady(connID ConnectionID, ready bool) []Event {
	that.mu.Lock()
	defer that.mu.Unlock()

	player, ok := that.players[connID]
	if !ok {
		return nil
	}

	player.Ready = ready

	events := []Event{{
		To:      that.allLocked(),
		Payload: PlayerReadyPayload{Type: EventPlayerReady, PlayerID: player.ID, Ready: ready},
	}}

	if len(that.players) == MaxPlayers && that.allReadyLocked() {
		events = append(events, that.startLocked()...)
	}

	return events
}

// AssignSymbols - owner-only symbol assignment by slot ID. Unknown slots are
// skipped. The caller does not receive the resulting broadcasts.
func (that *Room) AssignSymbols(connID ConnectionID, token string, assignments []SymbolAssignment) ([]Event, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.owner != token {
		return nil, apperror.ErrNotAuthorized
	}

	var events []Event

	others := that.othersLocked(connID)

	for _, assignment := range assignments {
		player := that.playerBySlotLocked(assignment.PlayerID)
		if player == nil {
			continue
		}

		player.SetSymbol(assignment.Symbol)

		if len(others) == 0 {
			continue
		}

		events = append(events, Event{
			To: others,
			Payload: PlayerSymbolPayload{
				Type:     EventPlayerSymbol,
				PlayerID: player.ID,
				Symbol:   player.Symbol,
			},
		})
	}

	return events, nil
}

// ApplyMove - applies one move for the connection at the head of the turn
// queue. The move is rejected without board mutation when the game is not in
// progress, when it is not the sender's turn, or when the cell is occupied.
func (that *Room) ApplyMove(connID ConnectionID, row, col int) ([]Event, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.started || len(that.turns) == 0 {
		return nil, apperror.ErrGameNotInProgress
	}

	if that.turns[0] != connID {
		return nil, apperror.ErrNotYourTurn
	}

	player := that.players[connID]

	if err := that.board.Place(row, col, player.Value); err != nil {
		return nil, err
	}

	that.turns = that.turns[1:]

	events := []Event{{
		To: that.allLocked(),
		Payload: PlayerMovePayload{
			Type: EventPlayerMove,
			Move: Move{Row: row, Col: col, Symbol: player.Symbol, Value: player.Value},
		},
	}}

	switch that.board.Evaluate(row, col, player.Value) {
	case OutcomeWin:
		that.started = false
		that.turns = nil

		winner := *player
		events = append(events, Event{
			To:      []ConnectionID{connID},
			Payload: GameEndPayload{Type: EventGameEnd, State: OutcomeWin, Winner: &winner},
		})

		if others := that.othersLocked(connID); len(others) > 0 {
			events = append(events, Event{
				To:      others,
				Payload: GameEndPayload{Type: EventGameEnd, State: OutcomeLoss, Winner: &winner},
			})
		}
	case OutcomeDraw:
		that.started = false
		that.turns = nil

		events = append(events, Event{
			To:      that.allLocked(),
			Payload: GameEndPayload{Type: EventGameEnd, State: OutcomeDraw},
		})
	default:
		that.turns = append(that.turns, connID)
		events = append(events, that.turnLocked()...)
	}

	return events, nil
}

// startLocked - begins a round: fresh board, turn queue rebuilt, readiness
// reset. A non-random preference names a symbol, and symbols are unassigned
// until the owner sets them, so seating falls back to join order there.
func (that *Room) startLocked() []Event {
	that.board = Board{}
	that.started = true

	that.turns = make([]ConnectionID, len(that.order))
	copy(that.turns, that.order)

	if strings.EqualFold(that.startingPlayer, StartingPlayerRandom) {
		rand.Shuffle(len(that.turns), func(i, j int) { //nolint: gosec // it's ok
			that.turns[i], that.turns[j] = that.turns[j], that.turns[i]
		})
	}

	for _, player := range that.players {
		player.Ready = false
	}

	events := []Event{{
		To: that.allLocked(),
		Payload: GameStartPayload{
			Type:       EventGameStart,
			PlayerTurn: that.players[that.turns[0]].ID,
			Players:    that.rosterLocked(),
		},
	}}

	return append(events, that.turnLocked()...)
}

// turnLocked - notifies the head of the queue directly and announces the
// active symbol to everyone.
func (that *Room) turnLocked() []Event {
	head := that.players[that.turns[0]]

	return []Event{
		{
			To:      []ConnectionID{head.ConnID},
			Payload: GameTurnPayload{Type: EventGameTurn},
		},
		{
			To:      that.allLocked(),
			Payload: PlayerTurnPayload{Type: EventPlayerTurn, Symbol: head.Symbol},
		},
	}
}

func (that *Room) snapshotLocked() *Snapshot {
	return &Snapshot{
		ID:             that.id,
		Name:           that.name,
		StartingPlayer: that.startingPlayer,
		Visibility:     that.visibility,
		JoinCode:       that.joinCode,
		PlayerCount:    len(that.players),
		Players:        that.rosterLocked(),
		Started:        that.started,
	}
}

func (that *Room) rosterLocked() []Player {
	roster := make([]Player, 0, len(that.players))
	for _, connID := range that.order {
		roster = append(roster, *that.players[connID])
	}

	return roster
}

func (that *Room) allLocked() []ConnectionID {
	all := make([]ConnectionID, len(that.order))
	copy(all, that.order)

	return all
}

func (that *Room) othersLocked(connID ConnectionID) []ConnectionID {
	others := make([]ConnectionID, 0, len(that.order))
	for _, id := range that.order {
		if id != connID {
			others = append(others, id)
		}
	}

	return others
}

func (that *Room) playerBySlotLocked(slot int) *Player {
	for _, player := range that.players {
		if player.ID == slot {
			return player
		}
	}

	return nil
}

func (that *Room) allReadyLocked() bool {
	for _, player := range that.players {
		if !player.Ready {
			return false
		}
	}

	return true
}

func removeConn(ids []ConnectionID, connID ConnectionID) []ConnectionID {
	for i, id := range ids {
		if id == connID {
			return append(ids[:i], ids[i+1:]...)
		}
	}

	return ids
}
