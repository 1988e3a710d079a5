package websocket

// Inbound message types. Every payload is validated field by field before
// use; a wrong shape yields an error event to the sender, never a crash.
const (
	messageAuth            = "auth"
	messageUpdateReadiness = "update_readiness"
	messageUpdateSymbols   = "update_symbols"
	messageMove            = "move"
)

// Error event audiences: console errors are protocol-level diagnostics,
// user errors are meant to be surfaced in the client UI.
const (
	targetConsole = "console"
	targetUser    = "user"
)

// Message - the envelope every inbound frame must carry.
type Message struct {
	Type string `json:"type"`
}

// Pointer fields distinguish an absent field from a zero value.

type AuthMessage struct {
	Token *string `json:"token"`
}

type UpdateReadinessMessage struct {
	Ready *bool `json:"ready"`
}

type SymbolEntry struct {
	PlayerID *int    `json:"player_id"`
	Symbol   *string `json:"symbol"`
}

type UpdateSymbolsMessage struct {
	Symbols []SymbolEntry `json:"symbols"`
}

type MoveMessage struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}
