package tictactoe

import "strconv"

// Player is a zero-based player number.
type Player int

const (
	PlayerOne Player = 0 // the human by convention
	PlayerTwo Player = 1 // the AI by convention
)

// NoWinner is the winner number reported while a game is drawn or still in play.
const NoWinner = -1

func (that Player) Number() int {
	return int(that)
}

// Opponent - returns the other player of a two-player game.
func (that Player) Opponent() Player {
	if that == PlayerOne {
		return PlayerTwo
	}
	return PlayerOne
}

func (that Player) String() string {
	return "player " + strconv.Itoa(int(that))
}
