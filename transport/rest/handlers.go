package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/indyapi/tictactoe-server/internal/apperror"
	"github.com/indyapi/tictactoe-server/internal/entity"
)

var (
	namePattern   = regexp.MustCompile(`^[a-zA-Z0-9 ]{3,20}$`)
	secretPattern = regexp.MustCompile(`^[a-zA-Z0-9!@#$%^&*\-_]{6,20}$`)
	codePattern   = regexp.MustCompile(`^[a-zA-Z0-9]{6}$`)
)

type Handlers interface {
	Ping(w http.ResponseWriter, r *http.Request)

	GenerateToken(w http.ResponseWriter, r *http.Request)
	VerifyToken(w http.ResponseWriter, r *http.Request)

	CreateGame(w http.ResponseWriter, r *http.Request)
	ResolveGame(w http.ResponseWriter, r *http.Request)
	GetGame(w http.ResponseWriter, r *http.Request)
	ListGames(w http.ResponseWriter, r *http.Request)

	SuggestMove(w http.ResponseWriter, r *http.Request)
}

type authService interface {
	IssueToken(ctx context.Context) (string, error)
	VerifyToken(ctx context.Context, token string) (bool, error)
}

type roomService interface {
	CreateRoom(owner, name, startingPlayer, visibility, secret string) (*entity.Room, error)

	GetByID(id string) (*entity.Room, error)
	ResolveByCode(code string) (*entity.Room, error)
	ListPublic() []*entity.Room
}

type oracleService interface {
	SuggestMove(board entity.Board, value int) (int, int, error)
}

type handlers struct {
	logger *slog.Logger
	auth   authService
	rooms  roomService
	oracle oracleService
}

func NewHandlers(logger *slog.Logger, auth authService, rooms roomService, oracle oracleService) Handlers {
	return &handlers{
		logger: logger,
		auth:   auth,
		rooms:  rooms,
		oracle: oracle,
	}
}

func (that *handlers) Ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func (that *handlers) GenerateToken(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "GenerateToken")

	token, err := that.auth.IssueToken(r.Context())
	if err != nil {
		log.Error("failed to issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (that *handlers) VerifyToken(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "VerifyToken")

	ok, err := that.auth.VerifyToken(r.Context(), r.PathValue("token"))
	if err != nil {
		log.Error("failed to verify token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to verify token")
		return
	}

	if !ok {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Token is invalid", "status": "401"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Token is valid", "status": "200"})
}

type createGameRequest struct {
	Name           string `json:"name"`
	StartingPlayer string `json:"starting_player"`
	Visibility     string `json:"visibility"`
	Password       string `json:"password,omitempty"`
}

// CreateGame - creates a room owned by the caller's token. The name is 3-20
// alphanumeric/space characters; private rooms require a format-constrained
// password.
func (that *handlers) CreateGame(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "CreateGame")

	token, ok := that.requireToken(w, r)
	if !ok {
		return
	}

	var body createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if body.Name == "" || body.StartingPlayer == "" || body.Visibility == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	if !namePattern.MatchString(body.Name) {
		writeError(w, http.StatusBadRequest, "Invalid name format")
		return
	}

	if !validStartingPlayer(body.StartingPlayer) {
		writeError(w, http.StatusBadRequest, "Invalid starting player")
		return
	}

	if !validVisibility(body.Visibility) {
		writeError(w, http.StatusBadRequest, "Invalid visibility")
		return
	}

	if strings.EqualFold(body.Visibility, entity.VisibilityPrivate) {
		if body.Password == "" {
			writeError(w, http.StatusBadRequest, "Missing required fields")
			return
		}

		if !secretPattern.MatchString(body.Password) {
			writeError(w, http.StatusBadRequest, "Invalid password format")
			return
		}
	} else {
		body.Password = ""
	}

	room, err := that.rooms.CreateRoom(token, body.Name, body.StartingPlayer, body.Visibility, body.Password)
	if err != nil {
		log.Error("failed to create room", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create room")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"game_id":   room.ID(),
		"join_code": room.JoinCode(),
	})
}

func (that *handlers) ResolveGame(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	if !codePattern.MatchString(code) {
		writeError(w, http.StatusBadRequest, "Invalid code format")
		return
	}

	room, err := that.rooms.ResolveByCode(code)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Couldn't find the game with code: %s", code))
		return
	}

	writeJSON(w, http.StatusOK, room.Snapshot())
}

func (that *handlers) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("gameID")

	room, err := that.rooms.GetByID(gameID)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Couldn't find the game with id: %s", gameID))
		return
	}

	writeJSON(w, http.StatusOK, room.Snapshot())
}

func (that *handlers) ListGames(w http.ResponseWriter, _ *http.Request) {
	rooms := that.rooms.ListPublic()

	snapshots := make([]*entity.Snapshot, 0, len(rooms))
	for _, room := range rooms {
		snapshots = append(snapshots, room.Snapshot())
	}

	writeJSON(w, http.StatusOK, snapshots)
}

type suggestMoveRequest struct {
	Board entity.Board `json:"board"`
	Value int          `json:"value"`
}

func (that *handlers) SuggestMove(w http.ResponseWriter, r *http.Request) {
	var body suggestMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if body.Value != 1 && body.Value != -1 {
		writeError(w, http.StatusBadRequest, "Invalid perspective value")
		return
	}

	row, col, err := that.oracle.SuggestMove(body.Board, body.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, "No available moves")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"row": row, "col": col})
}

// requireToken - room creation is limited to holders of a live session
// token, carried in the Authorization header.
func (that *handlers) requireToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := r.Header.Get("Authorization")

	ok, err := that.auth.VerifyToken(r.Context(), token)
	if err != nil {
		that.logger.Error("failed to verify token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to verify token")
		return "", false
	}

	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}

	return token, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func validStartingPlayer(startingPlayer string) bool {
	switch strings.ToLower(startingPlayer) {
	case "x", "o", entity.StartingPlayerRandom:
		return true
	default:
		return false
	}
}

func validVisibility(visibility string) bool {
	switch strings.ToLower(visibility) {
	case entity.VisibilityPublic, entity.VisibilityUnlisted, entity.VisibilityPrivate:
		return true
	default:
		return false
	}
}
