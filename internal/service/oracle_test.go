package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indyapi/tictactoe-server/internal/entity"
)

func TestOracleService_SuggestMove(t *testing.T) {
	oracle := NewOracleService()

	t.Run("TakesWinningMove", func(t *testing.T) {
		// Given: X can complete the top row at (0, 2)
		board := entity.Board{
			{1, 1, 0},
			{-1, -1, 0},
			{0, 0, 0},
		}

		// When: a move is suggested for X
		row, col, err := oracle.SuggestMove(board, 1)

		// Then: the winning cell is taken
		require.NoError(t, err)
		assert.Equal(t, 0, row)
		assert.Equal(t, 2, col)
	})

	t.Run("BlocksOpponentWin", func(t *testing.T) {
		// Given: O threatens the middle row at (1, 2), X has no win
		board := entity.Board{
			{1, 0, 0},
			{-1, -1, 0},
			{1, 0, 0},
		}

		row, col, err := oracle.SuggestMove(board, 1)

		require.NoError(t, err)
		assert.Equal(t, 1, row)
		assert.Equal(t, 2, col)
	})

	t.Run("WinBeatsBlock", func(t *testing.T) {
		// Given: both sides threaten a line; X to move
		board := entity.Board{
			{1, 1, 0},
			{-1, -1, 0},
			{0, 0, 0},
		}

		row, col, err := oracle.SuggestMove(board, -1)

		// Then: O takes its own win over blocking X
		require.NoError(t, err)
		assert.Equal(t, 1, row)
		assert.Equal(t, 2, col)
	})

	t.Run("FallsBackToFirstFreeCell", func(t *testing.T) {
		// Given: no win or block available for either side
		board := entity.Board{
			{1, 0, 0},
			{0, -1, 0},
			{0, 0, 0},
		}

		row, col, err := oracle.SuggestMove(board, 1)

		// Then: the first free cell in row-major order is suggested
		require.NoError(t, err)
		assert.Equal(t, 0, row)
		assert.Equal(t, 1, col)
	})

	t.Run("ColumnWin", func(t *testing.T) {
		board := entity.Board{
			{1, 0, -1},
			{0, -1, 1},
			{1, 0, 0},
		}

		row, col, err := oracle.SuggestMove(board, 1)

		// Then: the column-0 win at (1, 0) is taken
		require.NoError(t, err)
		assert.Equal(t, 1, row)
		assert.Equal(t, 0, col)
	})

	t.Run("FullBoard_NoMoves", func(t *testing.T) {
		board := entity.Board{
			{1, -1, 1},
			{1, -1, -1},
			{-1, 1, 1},
		}

		_, _, err := oracle.SuggestMove(board, 1)

		require.ErrorIs(t, err, ErrNoAvailableMoves)
	})
}
