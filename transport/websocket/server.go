package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/indyapi/tictactoe-server/internal/entity"
)

// WebSocket close codes mirroring their HTTP counterparts.
const (
	closeBadRequest    = 4400
	closeUnauthorized  = 4401
	closeForbidden     = 4403
	closeNotFound      = 4404
	closeInternalError = 4500
)

const (
	readBufferSize  = 1024
	writeBufferSize = 1024
	writeWait       = 5 * time.Second
)

type authService interface {
	VerifyToken(ctx context.Context, token string) (bool, error)
	VerifySecret(secret, hash string) bool
}

type roomService interface {
	GetByID(id string) (*entity.Room, error)
	Leave(room *entity.Room, connID entity.ConnectionID) []entity.Event
}

type Server struct {
	logger *slog.Logger
	auth   authService
	rooms  roomService

	upgrader websocket.Upgrader
	handlers map[string]func(ctx context.Context, conn *connection, data []byte) error

	sessionsMutex sync.RWMutex
	connections   map[entity.ConnectionID]*connection
	sessions      map[entity.ConnectionID]string
}

func New(logger *slog.Logger, auth authService, rooms roomService) *Server {
	server := &Server{
		logger: logger,
		auth:   auth,
		rooms:  rooms,

		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBufferSize,
			WriteBufferSize: writeBufferSize,
			CheckOrigin:     func(_ *http.Request) bool { return true },
		},

		handlers:    make(map[string]func(context.Context, *connection, []byte) error),
		connections: make(map[entity.ConnectionID]*connection),
		sessions:    make(map[entity.ConnectionID]string),
	}

	server.handlers[messageAuth] = server.handleAuth
	server.handlers[messageUpdateReadiness] = server.handleUpdateReadiness
	server.handlers[messageUpdateSymbols] = server.handleUpdateSymbols
	server.handlers[messageMove] = server.handleMove

	return server
}

// Start - starts the WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/game/join/{roomID}", func(w http.ResponseWriter, r *http.Request) {
		that.handleJoin(ctx, w, r)
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) && ctx.Err() != nil {
			return nil
		}

		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// handleJoin - upgrades the connection and runs the handshake gate: verified
// token, known room, matching secret for private rooms, a free seat, and a
// round that has not started. Failures close with a distinguishing code.
func (that *Server) handleJoin(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleJoin")

	sock, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	conn := &connection{
		id:     entity.ConnectionID(uuid.NewString()),
		sock:   sock,
		roomID: r.PathValue("roomID"),
	}

	token := handshakeToken(r)

	ok, err := that.auth.VerifyToken(ctx, token)
	if err != nil {
		log.Error("failed to verify token", "error", err)
		conn.closeWith(closeInternalError, "Internal Server Error")
		return
	}

	if !ok {
		conn.closeWith(closeUnauthorized, "Unauthorized")
		return
	}

	room, err := that.rooms.GetByID(conn.roomID)
	if err != nil {
		conn.closeWith(closeNotFound, "Not Found")
		return
	}

	if room.IsPrivate() {
		secret := r.URL.Query().Get("pass")
		if secret == "" || !that.auth.VerifySecret(secret, room.SecretHash()) {
			conn.closeWith(closeForbidden, "Forbidden")
			return
		}
	}

	if room.PlayerCount() >= entity.MaxPlayers {
		conn.closeWith(closeForbidden, "Forbidden")
		return
	}

	if room.Started() {
		conn.closeWith(closeForbidden, "Forbidden")
		return
	}

	that.sessionsMutex.Lock()
	that.connections[conn.id] = conn
	that.sessionsMutex.Unlock()

	log.Info("WebSocket connection established", "roomID", conn.roomID)

	that.readLoop(ctx, conn)
}

// readLoop - drains inbound frames and dispatches them by type until the
// connection drops. Malformed payloads get an error event and the connection
// stays open; unknown types likewise.
func (that *Server) readLoop(ctx context.Context, conn *connection) {
	log := that.logger.With("method", "readLoop")

	defer that.disconnect(ctx, conn)

	for {
		_, data, err := conn.sock.ReadMessage()
		if err != nil {
			return
		}

		var msg Message
		if err = json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
			that.sendError(conn, "Invalid message format", targetConsole)
			continue
		}

		handler, ok := that.handlers[strings.ToLower(msg.Type)]
		if !ok {
			that.sendError(conn, "Invalid message type", targetConsole)
			continue
		}

		if err = handler(ctx, conn, data); err != nil {
			log.Error("error processing message", "type", msg.Type, "error", err)
		}

		if conn.isClosed() {
			return
		}
	}
}

// disconnect - drops the connection from the session map and cascades into
// the room's leave handling. Disconnection is a lifecycle transition, not an
// error: it may dissolve the room or forfeit a started game.
func (that *Server) disconnect(ctx context.Context, conn *connection) {
	_ = ctx

	log := that.logger.With("method", "disconnect")

	that.sessionsMutex.Lock()
	roomID, attached := that.sessions[conn.id]
	delete(that.sessions, conn.id)
	delete(that.connections, conn.id)
	that.sessionsMutex.Unlock()

	conn.shutdown()

	if !attached {
		return
	}

	room, err := that.rooms.GetByID(roomID)
	if err != nil {
		return
	}

	that.deliver(that.rooms.Leave(room, conn.id))
	log.Info("player disconnected", "roomID", roomID)
}

// deliver - sends each event to its recipients after the room lock has been
// released. A failed or slow recipient is logged and never blocks the rest.
func (that *Server) deliver(events []entity.Event) {
	log := that.logger.With("method", "deliver")

	for _, event := range events {
		for _, id := range event.To {
			that.sessionsMutex.RLock()
			conn, ok := that.connections[id]
			that.sessionsMutex.RUnlock()

			if !ok {
				log.Warn("failed to find connection", "connID", id)
				continue
			}

			if event.Close {
				conn.closeWith(websocket.CloseNormalClosure, "")
				continue
			}

			if err := conn.send(event.Payload); err != nil {
				log.Error("failed to send event", "connID", id, "error", err)
			}
		}
	}
}

func (that *Server) sendError(conn *connection, message, target string) {
	payload := entity.ErrorPayload{
		Type:   entity.EventError,
		Target: target,
		Error:  message,
	}

	if err := conn.send(payload); err != nil {
		that.logger.Error("failed to send error event", "connID", conn.id, "error", err)
	}
}

// handshakeToken - the session token travels as a cookie or a query
// parameter.
func handshakeToken(r *http.Request) string {
	if cookie, err := r.Cookie("token"); err == nil {
		return cookie.Value
	}

	return r.URL.Query().Get("token")
}
