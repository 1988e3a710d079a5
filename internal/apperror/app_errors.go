package apperror

import "errors"

var (
	ErrGameNotInProgress = errors.New("game is not in progress")
	ErrNotYourTurn       = errors.New("it's not your turn")
	ErrCellOccupied      = errors.New("cell is already occupied")
	ErrInvalidCell       = errors.New("invalid cell index")
	ErrNotAuthorized     = errors.New("not allowed")
	ErrRoomFull          = errors.New("room is full")
	ErrRoomStarted       = errors.New("room is already started")
	ErrRoomNotFound      = errors.New("room not found")
	ErrInvalidSecret     = errors.New("invalid room secret")
	ErrInvalidToken      = errors.New("invalid token")
)
