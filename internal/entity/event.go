package entity

// Event - one outbound message addressed to a set of connections. Room
// mutators build events under the room lock; the transport delivers them
// after the lock is released, so a slow socket never stalls the room.
type Event struct {
	To      []ConnectionID
	Close   bool
	Payload any
}

const (
	EventOnJoin       = "on_join"
	EventPlayerJoin   = "player_join"
	EventPlayerReady  = "player_ready"
	EventPlayerSymbol = "player_symbol"
	EventGameStart    = "game_start"
	EventGameTurn     = "game_turn"
	EventPlayerTurn   = "player_turn"
	EventPlayerMove   = "player_move"
	EventGameEnd      = "game_end"
	EventPlayerLeave  = "player_leave"
	EventError        = "error"
)

// Snapshot - the JSON view of a room sent to clients and the REST facade.
// The owner token and the secret hash never serialize.
type Snapshot struct {
	ID             string   `json:"uuid"`
	Name           string   `json:"name"`
	StartingPlayer string   `json:"starting_player"`
	Visibility     string   `json:"visibility"`
	JoinCode       string   `json:"join_code"`
	PlayerCount    int      `json:"player_count"`
	Players        []Player `json:"players"`
	Started        bool     `json:"started"`
}

type OnJoinPayload struct {
	Type    string    `json:"type"`
	Game    *Snapshot `json:"game"`
	IsOwner bool      `json:"is_owner"`
}

type PlayerJoinPayload struct {
	Type   string `json:"type"`
	Player Player `json:"player"`
}

type PlayerReadyPayload struct {
	Type     string `json:"type"`
	PlayerID int    `json:"player_id"`
	Ready    bool   `json:"ready"`
}

type PlayerSymbolPayload struct {
	Type     string `json:"type"`
	PlayerID int    `json:"player_id"`
	Symbol   string `json:"symbol"`
}

type GameStartPayload struct {
	Type       string   `json:"type"`
	PlayerTurn int      `json:"player_turn"`
	Players    []Player `json:"players"`
}

type GameTurnPayload struct {
	Type string `json:"type"`
}

type PlayerTurnPayload struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}

type Move struct {
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Symbol string `json:"symbol"`
	Value  int    `json:"value"`
}

type PlayerMovePayload struct {
	Type string `json:"type"`
	Move Move   `json:"move"`
}

type GameEndPayload struct {
	Type   string  `json:"type"`
	State  Outcome `json:"state"`
	Winner *Player `json:"winner,omitempty"`
}

type PlayerLeavePayload struct {
	Type     string `json:"type"`
	PlayerID int    `json:"player_id"`
}

type ErrorPayload struct {
	Type   string `json:"type"`
	Target string `json:"target"`
	Error  string `json:"error"`
}
