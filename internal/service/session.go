package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/rocketscienceinc/tictactoe-core/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-core/internal/entity"
	"github.com/rocketscienceinc/tictactoe-core/internal/repository"
	"github.com/rocketscienceinc/tictactoe-core/internal/tictactoe"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionService interface {
	Create(ctx context.Context) (*entity.Session, error)
	Get(ctx context.Context, id string) (*entity.Session, error)
	Close(ctx context.Context, id string) error

	Place(ctx context.Context, id string, cell int) (*entity.Session, error)
	MoveAI(ctx context.Context, id string) (*entity.Session, error)
	Reset(ctx context.Context, id string) (*entity.Session, error)
	Load(ctx context.Context, id, state string) (*entity.Session, error)
}

type stateRepo interface {
	Save(ctx context.Context, id, state string) error
	GetByID(ctx context.Context, id string) (string, error)
	DeleteByID(ctx context.Context, id string) error
}

// SessionOptions decide who the AI plays and whether it answers on its own.
type SessionOptions struct {
	AIPlayer tictactoe.Player
	ManualAI bool
}

// session guards one game; the AI search holds mu until it has committed its move.
type session struct {
	mu     sync.Mutex
	game   *tictactoe.Game
	closed bool
}

type sessionService struct {
	logger *slog.Logger

	stateRepo  stateRepo
	botService BotService
	options    SessionOptions

	sessions *xsync.MapOf[string, *session]
}

func NewSessionService(logger *slog.Logger, stateRepo stateRepo, botService BotService, options SessionOptions) SessionService {
	return &sessionService{
		logger:     logger.With("component", "session"),
		stateRepo:  stateRepo,
		botService: botService,
		options:    options,
		sessions:   xsync.NewMapOf[string, *session](),
	}
}

func (that *sessionService) newGame() *tictactoe.Game {
	game := tictactoe.NewGame(that.logger, tictactoe.NewTurnOrder(), that.options.AIPlayer)
	game.SetUpBoard()

	return game
}

func (that *sessionService) Create(ctx context.Context) (*entity.Session, error) {
	id := uuid.NewString()
	log := that.logger.With("method", "Create", "sessionID", id)

	game := that.newGame()
	if err := that.answer(game); err != nil {
		return nil, fmt.Errorf("failed to open game: %w", err)
	}

	if err := that.save(ctx, id, game); err != nil {
		return nil, err
	}

	that.sessions.Store(id, &session{game: game})

	log.Info("session created", "aiPlayer", game.AIPlayer().Number())

	return entity.NewSession(id, game), nil
}

func (that *sessionService) Get(ctx context.Context, id string) (*entity.Session, error) {
	var view *entity.Session

	err := that.withSession(ctx, id, func(game *tictactoe.Game) error {
		view = entity.NewSession(id, game)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return view, nil
}

// Close - removes the session and its saved state. A live session is locked first,
// so a move in flight finishes its save before the state is deleted.
func (that *sessionService) Close(ctx context.Context, id string) error {
	live, ok := that.sessions.Load(id)
	if ok {
		live.mu.Lock()
		defer live.mu.Unlock()

		if live.closed {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
	}

	err := that.stateRepo.DeleteByID(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrStateNotFound) {
		return fmt.Errorf("failed to delete session state: %w", err)
	}

	if !ok && err != nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	if ok {
		live.closed = true
	}
	that.sessions.Delete(id)

	that.logger.Info("session closed", "sessionID", id)

	return nil
}

// Place - plays the current player's piece on cell and lets the AI answer.
func (that *sessionService) Place(ctx context.Context, id string, cell int) (*entity.Session, error) {
	return that.mutate(ctx, id, func(game *tictactoe.Game) error {
		holder, ok := game.Holder(cell)
		if !ok {
			return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
		}

		if err := game.ConfirmOngoingState(); err != nil {
			return err
		}

		if !that.options.ManualAI && game.CurrentPlayer() == game.AIPlayer() {
			return apperror.ErrNotYourTurn
		}

		if !game.ActionForEmptyHolder(holder) {
			return fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, cell)
		}

		game.EndTurn()

		return that.answer(game)
	})
}

func (that *sessionService) MoveAI(ctx context.Context, id string) (*entity.Session, error) {
	return that.mutate(ctx, id, that.botService.MakeTurn)
}

func (that *sessionService) Reset(ctx context.Context, id string) (*entity.Session, error) {
	return that.mutate(ctx, id, func(game *tictactoe.Game) error {
		game.Reset()
		return that.answer(game)
	})
}

// Load - replaces the board with a saved state string.
func (that *sessionService) Load(ctx context.Context, id, state string) (*entity.Session, error) {
	return that.mutate(ctx, id, func(game *tictactoe.Game) error {
		if err := game.LoadFromState(state); err != nil {
			return err
		}

		game.ResumeTurn()

		return that.answer(game)
	})
}

// answer - lets the AI move if it plays on its own and the turn is its.
func (that *sessionService) answer(game *tictactoe.Game) error {
	if that.options.ManualAI || game.IsOver() || game.CurrentPlayer() != game.AIPlayer() {
		return nil
	}

	return that.botService.MakeTurn(game)
}

func (that *sessionService) mutate(ctx context.Context, id string, fn func(game *tictactoe.Game) error) (*entity.Session, error) {
	var view *entity.Session

	err := that.withSession(ctx, id, func(game *tictactoe.Game) error {
		before := game.StateString()

		if err := fn(game); err != nil {
			that.rollback(id, game, before)
			return err
		}

		if err := that.save(ctx, id, game); err != nil {
			that.rollback(id, game, before)
			return err
		}

		view = entity.NewSession(id, game)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return view, nil
}

func (that *sessionService) withSession(ctx context.Context, id string, fn func(game *tictactoe.Game) error) error {
	live, err := that.lookup(ctx, id)
	if err != nil {
		return err
	}

	live.mu.Lock()
	defer live.mu.Unlock()

	if live.closed {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	return fn(live.game)
}

// rollback - puts the live game back to the state it had before a failed mutation.
// Turns in a session always follow the piece counts, so ResumeTurn restores the mover too.
func (that *sessionService) rollback(id string, game *tictactoe.Game, state string) {
	if game.StateString() == state {
		return
	}

	if err := game.LoadFromState(state); err != nil {
		that.logger.Error("failed to roll back session", "sessionID", id, "error", err)
		return
	}
	game.ResumeTurn()

	that.logger.Warn("session rolled back", "sessionID", id, "state", state)
}

// lookup - returns the live session, restoring it from the saved state if needed.
func (that *sessionService) lookup(ctx context.Context, id string) (*session, error) {
	if live, ok := that.sessions.Load(id); ok {
		return live, nil
	}

	state, err := that.stateRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrStateNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get session state: %w", err)
	}

	game := that.newGame()
	if err = game.LoadFromState(state); err != nil {
		return nil, fmt.Errorf("failed to restore session %s: %w", id, err)
	}
	game.ResumeTurn()

	live, loaded := that.sessions.LoadOrStore(id, &session{game: game})
	if !loaded {
		that.logger.Info("session restored", "sessionID", id, "state", state)
	}

	return live, nil
}

func (that *sessionService) save(ctx context.Context, id string, game *tictactoe.Game) error {
	if err := that.stateRepo.Save(ctx, id, game.StateString()); err != nil {
		that.logger.Error("failed to save session state", "sessionID", id, "error", err)
		return fmt.Errorf("failed to save session state: %w", err)
	}

	return nil
}
