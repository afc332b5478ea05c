package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/tictactoe-core/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-core/internal/tictactoe"
)

type BotService interface {
	MakeTurn(game *tictactoe.Game) error
}

type botService struct {
	logger *slog.Logger
}

func NewBotService(logger *slog.Logger) BotService {
	return &botService{
		logger: logger.With("component", "bot"),
	}
}

// MakeTurn - lets the negamax opponent move when it is its turn.
func (that *botService) MakeTurn(game *tictactoe.Game) error {
	if err := game.ConfirmOngoingState(); err != nil {
		return err
	}

	if game.CurrentPlayer() != game.AIPlayer() {
		return apperror.ErrNotYourTurn
	}

	started := time.Now()
	if err := game.UpdateAI(); err != nil {
		return fmt.Errorf("bot failed to make turn: %w", err)
	}

	that.logger.Debug("bot made turn", "state", game.StateString(), "took", time.Since(started))

	return nil
}
