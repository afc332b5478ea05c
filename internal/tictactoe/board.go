package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-core/internal/apperror"
)

const (
	boardSize = 3
	cellCount = boardSize * boardSize

	initialState = "000000000"
)

// WinCombos are checked in this order, the first uniform triple decides the winner.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Cell is 0 for an empty cell and n+1 for a cell owned by player n.
type Cell uint8

const EmptyCell Cell = 0

func cellFor(player Player) Cell {
	return Cell(player + 1)
}

// Board is a row-major snapshot of the 3x3 grid. It is a value: copies never share cells.
type Board [cellCount]Cell

// occupancy is anything that can report who owns a cell by linear index.
type occupancy interface {
	OwnerAt(index int) (Player, bool)
}

// ParseState - validates a state string and decodes it into a board.
func ParseState(state string) (Board, error) {
	var board Board

	if len(state) != cellCount {
		return board, fmt.Errorf("%w: length %d, want %d", apperror.ErrInvalidStateString, len(state), cellCount)
	}

	for i := range cellCount {
		c := state[i]
		if c < '0' || c > '2' {
			return board, fmt.Errorf("%w: character %q at %d", apperror.ErrInvalidStateString, c, i)
		}
		board[i] = Cell(c - '0')
	}

	return board, nil
}

// OwnerAt - returns the owner of the cell at index, if any.
func (that Board) OwnerAt(index int) (Player, bool) {
	cell := that[index]
	if cell == EmptyCell {
		return 0, false
	}
	return Player(cell - 1), true
}

func (that Board) IsEmpty(index int) bool {
	return that[index] == EmptyCell
}

// With - returns a copy of the board with player placed at index.
func (that Board) With(index int, player Player) Board {
	that[index] = cellFor(player)
	return that
}

func (that Board) Winner() (Player, bool) {
	return winnerOf(that)
}

func (that Board) Full() bool {
	return isFull(that)
}

// Count - returns how many cells player owns.
func (that Board) Count(player Player) int {
	n := 0
	for _, cell := range that {
		if cell == cellFor(player) {
			n++
		}
	}
	return n
}

// String - encodes the board as a 9-character state string.
func (that Board) String() string {
	buf := make([]byte, cellCount)
	for i, cell := range that {
		buf[i] = '0' + byte(cell)
	}
	return string(buf)
}

func winnerOf(board occupancy) (Player, bool) {
	for _, combo := range WinCombos {
		a, okA := board.OwnerAt(combo[0])
		if !okA {
			continue
		}
		b, okB := board.OwnerAt(combo[1])
		c, okC := board.OwnerAt(combo[2])
		if okB && okC && a == b && b == c {
			return a, true
		}
	}

	return 0, false
}

// isFull does not look for a winner, callers check that first.
func isFull(board occupancy) bool {
	for i := range cellCount {
		if _, ok := board.OwnerAt(i); !ok {
			return false
		}
	}
	return true
}
