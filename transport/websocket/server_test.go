package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indyapi/tictactoe-server/internal/apperror"
	"github.com/indyapi/tictactoe-server/internal/entity"
	"github.com/indyapi/tictactoe-server/internal/registry"
	"github.com/indyapi/tictactoe-server/internal/service"
)

const (
	tokenA = "token-a"
	tokenB = "token-b"
)

type stubAuth struct {
	valid map[string]bool
}

func (that *stubAuth) VerifyToken(_ context.Context, token string) (bool, error) {
	return that.valid[token], nil
}

func (that *stubAuth) VerifySecret(secret, hash string) bool {
	return hash == "hashed:"+secret
}

type stubHasher struct{}

func (stubHasher) HashSecret(secret string) (string, error) {
	return "hashed:" + secret, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *registry.Registry) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auth := &stubAuth{valid: map[string]bool{tokenA: true, tokenB: true}}

	reg := registry.New()
	rooms := service.NewRoomService(logger, reg, stubHasher{})

	server := New(logger, auth, rooms)

	mux := http.NewServeMux()
	mux.HandleFunc("/game/join/{roomID}", func(w http.ResponseWriter, r *http.Request) {
		server.handleJoin(context.Background(), w, r)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv, reg
}

func createRoom(t *testing.T, reg *registry.Registry, visibility, secretHash string) *entity.Room {
	t.Helper()

	room, err := reg.Create(registry.RoomSpec{
		Owner:          tokenA,
		Name:           "Test Room",
		StartingPlayer: entity.SymbolX,
		Visibility:     visibility,
		SecretHash:     secretHash,
	})
	require.NoError(t, err)

	return room
}

func dial(t *testing.T, srv *httptest.Server, roomID, query string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/game/join/" + roomID
	if query != "" {
		url += "?" + query
	}

	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { _ = ws.Close() })

	return ws
}

func sendMessage(t *testing.T, ws *websocket.Conn, payload string) {
	t.Helper()

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(payload)))
}

// nextEvent - reads one outbound event and returns it as a generic map.
func nextEvent(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))

	_, data, err := ws.ReadMessage()
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(data, &payload))

	return payload
}

func expectEvent(t *testing.T, ws *websocket.Conn, eventType string) map[string]any {
	t.Helper()

	payload := nextEvent(t, ws)
	require.Equal(t, eventType, payload["type"])

	return payload
}

func expectClose(t *testing.T, ws *websocket.Conn, code int) {
	t.Helper()

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))

	_, _, err := ws.ReadMessage()

	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, code, closeErr.Code)
}

func authenticate(t *testing.T, ws *websocket.Conn, token string) {
	t.Helper()

	sendMessage(t, ws, `{"type":"auth","token":"`+token+`"}`)
	expectEvent(t, ws, entity.EventOnJoin)
}

func TestServer_HandshakeGate(t *testing.T) {
	t.Run("InvalidToken", func(t *testing.T) {
		srv, reg := newTestServer(t)
		room := createRoom(t, reg, entity.VisibilityPublic, "")

		// When: the handshake carries an unknown token
		ws := dial(t, srv, room.ID(), "token=bogus")

		// Then: the connection is closed with the unauthorized code
		expectClose(t, ws, closeUnauthorized)
	})

	t.Run("UnknownRoom", func(t *testing.T) {
		srv, _ := newTestServer(t)

		ws := dial(t, srv, "no-such-room", "token="+tokenA)

		expectClose(t, ws, closeNotFound)
	})

	t.Run("PrivateRoom_WrongSecret", func(t *testing.T) {
		srv, reg := newTestServer(t)
		room := createRoom(t, reg, entity.VisibilityPrivate, "hashed:s3cret!")

		ws := dial(t, srv, room.ID(), "token="+tokenA+"&pass=wrong")

		expectClose(t, ws, closeForbidden)
	})

	t.Run("PrivateRoom_CorrectSecret", func(t *testing.T) {
		srv, reg := newTestServer(t)
		room := createRoom(t, reg, entity.VisibilityPrivate, "hashed:s3cret!")

		ws := dial(t, srv, room.ID(), "token="+tokenA+"&pass=s3cret!")

		authenticate(t, ws, tokenA)
	})

	t.Run("FullRoom", func(t *testing.T) {
		srv, reg := newTestServer(t)
		room := createRoom(t, reg, entity.VisibilityPublic, "")

		_, ok := room.Join("seat-1", tokenA)
		require.True(t, ok)
		_, ok = room.Join("seat-2", tokenB)
		require.True(t, ok)

		ws := dial(t, srv, room.ID(), "token="+tokenA)

		expectClose(t, ws, closeForbidden)
	})

	t.Run("PreAuthMessage", func(t *testing.T) {
		srv, reg := newTestServer(t)
		room := createRoom(t, reg, entity.VisibilityPublic, "")

		ws := dial(t, srv, room.ID(), "token="+tokenA)

		// When: a game message arrives before auth
		sendMessage(t, ws, `{"type":"move","row":0,"col":0}`)

		// Then: the connection is closed with the unauthorized code
		expectClose(t, ws, closeUnauthorized)
	})

	t.Run("MalformedPayload_KeepsConnection", func(t *testing.T) {
		srv, reg := newTestServer(t)
		room := createRoom(t, reg, entity.VisibilityPublic, "")

		ws := dial(t, srv, room.ID(), "token="+tokenA)

		// When: an auth message is missing its token field
		sendMessage(t, ws, `{"type":"auth"}`)

		// Then: the sender gets an error event and the connection survives
		payload := expectEvent(t, ws, entity.EventError)
		assert.Equal(t, targetConsole, payload["target"])

		authenticate(t, ws, tokenA)
	})

	t.Run("UnknownMessageType", func(t *testing.T) {
		srv, reg := newTestServer(t)
		room := createRoom(t, reg, entity.VisibilityPublic, "")

		ws := dial(t, srv, room.ID(), "token="+tokenA)
		authenticate(t, ws, tokenA)

		sendMessage(t, ws, `{"type":"teleport"}`)

		payload := expectEvent(t, ws, entity.EventError)
		assert.Equal(t, "Invalid message type", payload["error"])
	})
}

func TestServer_GameFlow(t *testing.T) {
	srv, reg := newTestServer(t)
	room := createRoom(t, reg, entity.VisibilityPublic, "")

	// Given: the owner joins first
	owner := dial(t, srv, room.ID(), "token="+tokenA)
	sendMessage(t, owner, `{"type":"auth","token":"`+tokenA+`"}`)

	payload := expectEvent(t, owner, entity.EventOnJoin)
	assert.Equal(t, true, payload["is_owner"])

	// Given: a guest joins second
	guest := dial(t, srv, room.ID(), "token="+tokenB)
	sendMessage(t, guest, `{"type":"auth","token":"`+tokenB+`"}`)

	payload = expectEvent(t, guest, entity.EventOnJoin)
	assert.Equal(t, false, payload["is_owner"])
	expectEvent(t, owner, entity.EventPlayerJoin)

	// When: a non-owner tries to assign symbols
	sendMessage(t, guest, `{"type":"update_symbols","symbols":[{"player_id":0,"symbol":"O"}]}`)

	// Then: the guest gets a user-facing error event
	payload = expectEvent(t, guest, entity.EventError)
	assert.Equal(t, targetUser, payload["target"])

	// When: the owner assigns both symbols
	sendMessage(t, owner, `{"type":"update_symbols","symbols":[{"player_id":0,"symbol":"X"},{"player_id":1,"symbol":"O"}]}`)

	// Then: only the guest is notified
	payload = expectEvent(t, guest, entity.EventPlayerSymbol)
	assert.Equal(t, float64(0), payload["player_id"])
	payload = expectEvent(t, guest, entity.EventPlayerSymbol)
	assert.Equal(t, float64(1), payload["player_id"])

	// When: both players ready up
	sendMessage(t, owner, `{"type":"update_readiness","ready":true}`)
	expectEvent(t, owner, entity.EventPlayerReady)
	expectEvent(t, guest, entity.EventPlayerReady)

	sendMessage(t, guest, `{"type":"update_readiness","ready":true}`)
	expectEvent(t, owner, entity.EventPlayerReady)
	expectEvent(t, guest, entity.EventPlayerReady)

	// Then: the round starts with the owner (slot 0) to move
	payload = expectEvent(t, owner, entity.EventGameStart)
	assert.Equal(t, float64(0), payload["player_turn"])
	expectEvent(t, guest, entity.EventGameStart)

	expectEvent(t, owner, entity.EventGameTurn)

	payload = expectEvent(t, owner, entity.EventPlayerTurn)
	assert.Equal(t, entity.SymbolX, payload["symbol"])
	expectEvent(t, guest, entity.EventPlayerTurn)

	// When: the guest moves out of turn
	sendMessage(t, guest, `{"type":"move","row":0,"col":0}`)

	// Then: the guest gets an error event and the game is untouched
	payload = expectEvent(t, guest, entity.EventError)
	assert.Equal(t, apperror.ErrNotYourTurn.Error(), payload["error"])

	// When: the owner moves
	sendMessage(t, owner, `{"type":"move","row":0,"col":0}`)

	// Then: everyone sees the move and the turn passes to the guest
	payload = expectEvent(t, owner, entity.EventPlayerMove)
	move, ok := payload["move"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, entity.SymbolX, move["symbol"])
	expectEvent(t, guest, entity.EventPlayerMove)

	expectEvent(t, guest, entity.EventGameTurn)

	payload = expectEvent(t, owner, entity.EventPlayerTurn)
	assert.Equal(t, entity.SymbolO, payload["symbol"])
	expectEvent(t, guest, entity.EventPlayerTurn)

	// When: the guest disconnects mid-game
	require.NoError(t, guest.Close())

	// Then: the survivor is closed normally and the room dissolves
	expectClose(t, owner, websocket.CloseNormalClosure)

	require.Eventually(t, func() bool {
		_, err := reg.GetByID(room.ID())
		return err != nil
	}, 2*time.Second, 20*time.Millisecond)
}

func TestServer_LobbyLeave(t *testing.T) {
	srv, reg := newTestServer(t)
	room := createRoom(t, reg, entity.VisibilityPublic, "")

	owner := dial(t, srv, room.ID(), "token="+tokenA)
	authenticate(t, owner, tokenA)

	guest := dial(t, srv, room.ID(), "token="+tokenB)
	authenticate(t, guest, tokenB)
	expectEvent(t, owner, entity.EventPlayerJoin)

	// When: the guest disconnects before the game starts
	require.NoError(t, guest.Close())

	// Then: the owner is told which slot left and the room survives
	payload := expectEvent(t, owner, entity.EventPlayerLeave)
	assert.Equal(t, float64(1), payload["player_id"])

	_, err := reg.GetByID(room.ID())
	require.NoError(t, err)
}
