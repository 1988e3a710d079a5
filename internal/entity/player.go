package entity

import (
	"fmt"
	"strings"
)

const (
	SymbolX = "X"
	SymbolO = "O"
)

// ConnectionID - opaque handle for a live connection. Rooms use it for
// addressing only; the transport owns the actual socket.
type ConnectionID string

// Player - one seat in a room. The slot ID is drawn from a small reuse pool,
// so a two-player room always uses slots {0, 1}.
type Player struct {
	ConnID ConnectionID `json:"-"`
	ID     int          `json:"id"`
	Name   string       `json:"name"`
	Symbol string       `json:"symbol"`
	Value  int          `json:"value"`
	Ready  bool         `json:"ready"`
}

func NewPlayer(connID ConnectionID, slot int) *Player {
	return &Player{
		ConnID: connID,
		ID:     slot,
		Name:   fmt.Sprintf("Player %d", slot+1),
	}
}

// SetSymbol - assigns the symbol and its derived numeric value: X maps to +1,
// everything else to -1.
func (that *Player) SetSymbol(symbol string) {
	that.Symbol = symbol

	if strings.EqualFold(symbol, SymbolX) {
		that.Value = 1
	} else {
		that.Value = -1
	}
}
