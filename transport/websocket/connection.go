package websocket

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/indyapi/tictactoe-server/internal/entity"
)

// connection - one live socket. Writes are serialized on the mutex because
// the room broadcasts from whichever goroutine committed the mutation. The
// token is written once during auth and only read by the connection's own
// read loop afterwards.
type connection struct {
	id     entity.ConnectionID
	sock   *websocket.Conn
	roomID string
	token  string

	writeMutex sync.Mutex
	closed     bool
}

func (that *connection) send(payload any) error {
	that.writeMutex.Lock()
	defer that.writeMutex.Unlock()

	if that.closed {
		return nil
	}

	if err := that.sock.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err := that.sock.WriteJSON(payload); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

// closeWith - sends a close frame with the given code and drops the socket.
func (that *connection) closeWith(code int, reason string) {
	that.writeMutex.Lock()
	defer that.writeMutex.Unlock()

	if that.closed {
		return
	}
	that.closed = true

	frame := websocket.FormatCloseMessage(code, reason)
	_ = that.sock.WriteControl(websocket.CloseMessage, frame, time.Now().Add(writeWait))
	_ = that.sock.Close()
}

func (that *connection) shutdown() {
	that.writeMutex.Lock()
	defer that.writeMutex.Unlock()

	if that.closed {
		return
	}
	that.closed = true

	_ = that.sock.Close()
}

func (that *connection) isClosed() bool {
	that.writeMutex.Lock()
	defer that.writeMutex.Unlock()

	return that.closed
}
