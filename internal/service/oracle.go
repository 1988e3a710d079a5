package service

import (
	"errors"

	"github.com/indyapi/tictactoe-server/internal/entity"
)

var ErrNoAvailableMoves = errors.New("no available moves")

// OracleService - move suggestions for a board from one player's
// perspective. Stands in for the third-party suggestion oracle.
type OracleService interface {
	SuggestMove(board entity.Board, value int) (int, int, error)
}

type oracleService struct{}

func NewOracleService() OracleService {
	return &oracleService{}
}

// SuggestMove - takes a winning move when one exists, otherwise blocks the
// opponent's winning move, otherwise the free cell with the smallest row
// index, then the smallest column index.
func (that *oracleService) SuggestMove(board entity.Board, value int) (int, int, error) {
	if row, col, ok := findWinningMove(board, value); ok {
		return row, col, nil
	}

	if row, col, ok := findWinningMove(board, -value); ok {
		return row, col, nil
	}

	for row := range entity.BoardSize {
		for col := range entity.BoardSize {
			if board[row][col] == entity.EmptyCell {
				return row, col, nil
			}
		}
	}

	return 0, 0, ErrNoAvailableMoves
}

func findWinningMove(board entity.Board, value int) (int, int, bool) {
	for row := range entity.BoardSize {
		for col := range entity.BoardSize {
			if board[row][col] != entity.EmptyCell {
				continue
			}

			probe := board
			if err := probe.Place(row, col, value); err != nil {
				continue
			}

			if probe.Evaluate(row, col, value) == entity.OutcomeWin {
				return row, col, true
			}
		}
	}

	return 0, 0, false
}
