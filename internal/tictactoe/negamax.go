package tictactoe

import "github.com/rocketscienceinc/tictactoe-core/internal/apperror"

const (
	// maxDepth always reaches the end of a game on a 3x3 board.
	maxDepth = cellCount

	aiToMove    = 1
	humanToMove = -1

	noScore = -1000
)

// Negamax - scores board for the player to move, +1 win, -1 loss, 0 draw.
// color is +1 when ai is to move and -1 when its opponent is.
func Negamax(board Board, depth, color int, ai Player) int {
	if winner, ok := board.Winner(); ok {
		if winner == ai {
			return color
		}
		return -color
	}

	if board.Full() || depth == 0 {
		return 0
	}

	toMove := ai
	if color != aiToMove {
		toMove = ai.Opponent()
	}

	best := noScore
	for i := range cellCount {
		if !board.IsEmpty(i) {
			continue
		}

		score := -Negamax(board.With(i, toMove), depth-1, -color, ai)
		if score > best {
			best = score
		}
	}

	if best == noScore {
		return 0
	}
	return best
}

// BestMove - picks the cell ai should take. Ties go to the first cell in row-major order.
func BestMove(board Board, ai Player) (int, int, error) {
	bestScore := noScore
	bestCell := -1

	for i := range cellCount {
		if !board.IsEmpty(i) {
			continue
		}

		// the placement consumes one ply, the opponent moves next
		score := -Negamax(board.With(i, ai), maxDepth-1, humanToMove, ai)
		if score > bestScore {
			bestScore = score
			bestCell = i
		}
	}

	if bestCell == -1 {
		return -1, 0, apperror.ErrNoAvailableMoves
	}

	return bestCell, bestScore, nil
}
