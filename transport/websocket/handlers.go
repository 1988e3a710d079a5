package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/indyapi/tictactoe-server/internal/apperror"
	"github.com/indyapi/tictactoe-server/internal/entity"
)

// handleAuth - attaches the connection to its room. Must precede every other
// message type; an invalid or unknown token closes the connection.
func (that *Server) handleAuth(ctx context.Context, conn *connection, data []byte) error {
	log := that.logger.With("method", "handleAuth")

	if conn.token != "" {
		that.sendError(conn, "Already authenticated", targetConsole)
		return nil
	}

	var msg AuthMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Token == nil {
		that.sendError(conn, "Expected string value for 'token'", targetConsole)
		return nil
	}

	ok, err := that.auth.VerifyToken(ctx, *msg.Token)
	if err != nil {
		conn.closeWith(closeInternalError, "Internal Server Error")
		return fmt.Errorf("failed to verify token: %w", err)
	}

	if !ok {
		conn.closeWith(closeUnauthorized, "Unauthorized")
		return nil
	}

	room, err := that.rooms.GetByID(conn.roomID)
	if err != nil {
		conn.closeWith(closeNotFound, "Not Found")
		return nil
	}

	events, joined := room.Join(conn.id, *msg.Token)
	if !joined {
		conn.closeWith(closeInternalError, "Internal Server Error")
		return nil
	}

	conn.token = *msg.Token

	that.sessionsMutex.Lock()
	that.sessions[conn.id] = conn.roomID
	that.sessionsMutex.Unlock()

	that.deliver(events)

	log.Info("player joined room", "roomID", conn.roomID)

	return nil
}

func (that *Server) handleUpdateReadiness(_ context.Context, conn *connection, data []byte) error {
	room, ok := that.attachedRoom(conn)
	if !ok {
		return nil
	}

	var msg UpdateReadinessMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Ready == nil {
		that.sendError(conn, "Expected boolean value for 'ready'", targetConsole)
		return nil
	}

	that.deliver(room.SetReady(conn.id, *msg.Ready))

	return nil
}

// handleUpdateSymbols - owner-only symbol assignment.
func (that *Server) handleUpdateSymbols(_ context.Context, conn *connection, data []byte) error {
	room, ok := that.attachedRoom(conn)
	if !ok {
		return nil
	}

	var msg UpdateSymbolsMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Symbols == nil {
		that.sendError(conn, "Expected list value for 'symbols'", targetConsole)
		return nil
	}

	assignments := make([]entity.SymbolAssignment, 0, len(msg.Symbols))
	for _, entry := range msg.Symbols {
		if entry.PlayerID == nil || entry.Symbol == nil {
			that.sendError(conn, "Expected 'player_id' and 'symbol' for every entry", targetConsole)
			return nil
		}

		assignments = append(assignments, entity.SymbolAssignment{
			PlayerID: *entry.PlayerID,
			Symbol:   *entry.Symbol,
		})
	}

	events, err := room.AssignSymbols(conn.id, conn.token, assignments)
	if errors.Is(err, apperror.ErrNotAuthorized) {
		that.sendError(conn, "notAllowed", targetUser)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to assign symbols: %w", err)
	}

	that.deliver(events)

	return nil
}

func (that *Server) handleMove(_ context.Context, conn *connection, data []byte) error {
	room, ok := that.attachedRoom(conn)
	if !ok {
		return nil
	}

	var msg MoveMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Row == nil || msg.Col == nil {
		that.sendError(conn, "Expected integer values for 'row' and 'col'", targetConsole)
		return nil
	}

	events, err := room.ApplyMove(conn.id, *msg.Row, *msg.Col)
	if err != nil {
		// Move-time preconditions are not fatal: the sender is told, the
		// room state stays untouched.
		that.sendError(conn, err.Error(), targetConsole)
		return nil
	}

	that.deliver(events)

	return nil
}

// attachedRoom - resolves the room a connection is attached to. A non-auth
// message on an unattached connection closes it.
func (that *Server) attachedRoom(conn *connection) (*entity.Room, bool) {
	if conn.token == "" {
		conn.closeWith(closeUnauthorized, "Unauthorized")
		return nil, false
	}

	that.sessionsMutex.RLock()
	roomID, attached := that.sessions[conn.id]
	that.sessionsMutex.RUnlock()

	if !attached {
		conn.closeWith(closeUnauthorized, "Unauthorized")
		return nil, false
	}

	room, err := that.rooms.GetByID(roomID)
	if err != nil {
		conn.closeWith(closeNotFound, "Not Found")
		return nil, false
	}

	return room, true
}
