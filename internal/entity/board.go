package entity

import (
	"fmt"

	"github.com/indyapi/tictactoe-server/internal/apperror"
)

// BoardSize - the side length of the square grid.
const BoardSize = 3

const EmptyCell = 0

// Outcome - the result of evaluating a board after a move.
type Outcome string

const (
	OutcomeNone Outcome = "NONE"
	OutcomeWin  Outcome = "WIN"
	OutcomeDraw Outcome = "DRAW"
	OutcomeLoss Outcome = "LOSS"
)

// Board - a 3x3 grid of cell values: 0 for empty, +1 and -1 for the two symbols.
type Board [BoardSize][BoardSize]int

// Place - writes a value into a cell. A cell, once taken, never reverts to empty.
func (that *Board) Place(row, col, value int) error {
	if row < 0 || row >= BoardSize || col < 0 || col >= BoardSize {
		return fmt.Errorf("%w: (%d, %d)", apperror.ErrInvalidCell, row, col)
	}

	if that[row][col] != EmptyCell {
		return apperror.ErrCellOccupied
	}

	that[row][col] = value

	return nil
}

// Evaluate - checks the board against the just-played cell only: its row, its
// column, and a diagonal when the cell lies on one. Moves off the diagonals
// cannot complete them, so those scans are skipped.
func (that *Board) Evaluate(row, col, value int) Outcome {
	rowDone, colDone := true, true
	for i := range BoardSize {
		rowDone = rowDone && that[row][i] == value
		colDone = colDone && that[i][col] == value
	}

	if rowDone || colDone {
		return OutcomeWin
	}

	if row == col {
		diag := true
		for i := range BoardSize {
			diag = diag && that[i][i] == value
		}
		if diag {
			return OutcomeWin
		}
	}

	if row+col == BoardSize-1 {
		diag := true
		for i := range BoardSize {
			diag = diag && that[i][BoardSize-i-1] == value
		}
		if diag {
			return OutcomeWin
		}
	}

	for i := range BoardSize {
		for j := range BoardSize {
			if that[i][j] == EmptyCell {
				return OutcomeNone
			}
		}
	}

	return OutcomeDraw
}
