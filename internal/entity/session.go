package entity

import (
	"github.com/rocketscienceinc/tictactoe-core/internal/tictactoe"
)

// Session is the JSON view of one live game.
type Session struct {
	ID       string `json:"id"`
	State    string `json:"state"`
	Status   string `json:"status"`
	Winner   int    `json:"winner"`
	Turn     int    `json:"player_turn"`
	AIPlayer int    `json:"ai_player"`
}

func NewSession(id string, game *tictactoe.Game) *Session {
	return &Session{
		ID:       id,
		State:    game.StateString(),
		Status:   game.Status().String(),
		Winner:   game.WinnerNumber(),
		Turn:     game.CurrentPlayer().Number(),
		AIPlayer: game.AIPlayer().Number(),
	}
}
