package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-core/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-core/internal/repository"
	"github.com/rocketscienceinc/tictactoe-core/internal/tictactoe"
)

var errRedisDown = errors.New("redis down")

type mockStateRepo struct {
	mock.Mock
}

func (that *mockStateRepo) Save(ctx context.Context, id, state string) error {
	args := that.Called(ctx, id, state)
	return args.Error(0)
}

func (that *mockStateRepo) GetByID(ctx context.Context, id string) (string, error) {
	args := that.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (that *mockStateRepo) DeleteByID(ctx context.Context, id string) error {
	args := that.Called(ctx, id)
	return args.Error(0)
}

func newTestService(t *testing.T, options SessionOptions) (SessionService, *mockStateRepo) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := &mockStateRepo{}
	t.Cleanup(func() { repo.AssertExpectations(t) })

	return NewSessionService(logger, repo, NewBotService(logger), options), repo
}

func TestSessionService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Human opens when the AI plays second", func(t *testing.T) {
		// Given: a service where the AI is player two
		svc, repo := newTestService(t, SessionOptions{AIPlayer: tictactoe.PlayerTwo})
		repo.On("Save", ctx, mock.AnythingOfType("string"), "000000000").Return(nil).Once()

		// When: creating a session
		session, err := svc.Create(ctx)

		// Then: the board is empty and player one is to move
		require.NoError(t, err)
		assert.NotEmpty(t, session.ID)
		assert.Equal(t, "000000000", session.State)
		assert.Equal(t, 0, session.Turn)
		assert.Equal(t, 1, session.AIPlayer)
		assert.Equal(t, "in_play", session.Status)
	})

	t.Run("AI opens when it plays first", func(t *testing.T) {
		// Given: a service where the AI is player one
		svc, repo := newTestService(t, SessionOptions{AIPlayer: tictactoe.PlayerOne})
		repo.On("Save", ctx, mock.AnythingOfType("string"), mock.MatchedBy(func(state string) bool {
			board, err := tictactoe.ParseState(state)
			return err == nil && board.Count(tictactoe.PlayerOne) == 1
		})).Return(nil).Once()

		// When: creating a session
		session, err := svc.Create(ctx)

		// Then: the AI has already placed one piece
		require.NoError(t, err)
		assert.Equal(t, 1, session.Turn)
	})

	t.Run("Save failure is returned", func(t *testing.T) {
		svc, repo := newTestService(t, SessionOptions{AIPlayer: tictactoe.PlayerTwo})
		repo.On("Save", ctx, mock.Anything, mock.Anything).Return(errRedisDown).Once()

		session, err := svc.Create(ctx)

		require.ErrorIs(t, err, errRedisDown)
		assert.Nil(t, session)
	})
}

func TestSessionService_Place(t *testing.T) {
	ctx := context.Background()

	t.Run("AI answers a human move", func(t *testing.T) {
		// Given: a fresh session
		svc, repo := newTestService(t, SessionOptions{AIPlayer: tictactoe.PlayerTwo})
		repo.On("Save", ctx, mock.Anything, mock.Anything).Return(nil)

		created, err := svc.Create(ctx)
		require.NoError(t, err)

		// When: the human takes the centre
		session, err := svc.Place(ctx, created.ID, 4)

		// Then: the AI has answered and it is the human's turn again
		require.NoError(t, err)
		board, err := tictactoe.ParseState(session.State)
		require.NoError(t, err)
		assert.Equal(t, 1, board.Count(tictactoe.PlayerOne))
		assert.Equal(t, 1, board.Count(tictactoe.PlayerTwo))
		assert.Equal(t, 0, session.Turn)
	})

	t.Run("Occupied cell", func(t *testing.T) {
		svc, repo := newTestService(t, SessionOptions{AIPlayer: tictactoe.PlayerTwo})
		repo.On("Save", ctx, mock.Anything, mock.Anything).Return(nil)

		created, err := svc.Create(ctx)
		require.NoError(t, err)
		first, err := svc.Place(ctx, created.ID, 4)
		require.NoError(t, err)

		// When: the human plays the centre again
		_, err = svc.Place(ctx, created.ID, 4)

		// Then: ErrCellOccupied is returned and the board is unchanged
		require.ErrorIs(t, err, apperror.ErrCellOccupied)

		current, err := svc.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, first.State, current.State)
	})

	t.Run("Invalid cell", func(t *testing.T) {
		svc, repo := newTestService(t, SessionOptions{AIPlayer: tictactoe.PlayerTwo})
		repo.On("Save", ctx, mock.Anything, mock.Anything).Return(nil).Once()

		created, err := svc.Create(ctx)
		require.NoError(t, err)

		_, err = svc.Place(ctx, created.ID, 9)
		require.ErrorIs(t, err, apperror.ErrInvalidCell)

		_, err = svc.Place(ctx, created.ID, -1)
		require.ErrorIs(t, err, apperror.ErrInvalidCell)
	})

	t.Run("Finished game", func(t *testing.T) {
		// Given: a session loaded with a won board
		svc, repo := newTestService(t, SessionOptions{AIPlayer: tictactoe.PlayerTwo})
		repo.On("Save", ctx, mock.Anything, mock.Anything).Return(nil)

		created, err := svc.Create(ctx)
		require.NoError(t, err)
		_, err = svc.Load(ctx, created.ID, "111220000")
		require.NoError(t, err)

		// When: playing on
		_, err = svc.Place(ctx, created.ID, 8)

		// Then: ErrGameFinished is returned
		require.ErrorIs(t, err, apperror.ErrGameFinished)
	})

	t.Run("Human cannot play the AI's turn", func(t *testing.T) {
		// Given: a session restored with player two to move
		svc, repo := newTestService(t, SessionOptions{AIPlayer: tictactoe.PlayerTwo})
		repo.On("GetByID", ctx, "s1").Return("100000000", nil).Once()

		// When: the human plays
		_, err := svc.Place(ctx, "s1", 4)

		// Then: ErrNotYourTurn is returned
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
	})

	t.Run("Manual AI lets both players place", func(t *testing.T) {
		svc, repo := newTestService(t, SessionOptions{AIPlayer: tictactoe.PlayerTwo, ManualAI: true})
		repo.On("Save", ctx, mock.Anything, mock.Anything).Return(nil)

		created, err := svc.Create(ctx)
		require.NoError(t, err)

		_, err = svc.Place(ctx, created.ID, 0)
		require.NoError(t, err)
		session, err := svc.Place(ctx, created.ID, 4)
		require.NoError(t, err)

		assert.Equal(t, "100020000", session.State)
		assert.Equal(t, 0, session.Turn)
	})

	t.Run("Failed save leaves the board as it was", func(t *testing.T) {
		// Given: a fresh session whose next save fails
		svc, repo := newTestService(t, SessionOptions{AIPlayer: tictactoe.PlayerTwo})
		repo.On("Save", ctx, mock.Anything, "000000000").Return(nil).Once()

		created, err := svc.Create(ctx)
		require.NoError(t, err)

		repo.On("Save", ctx, created.ID, mock.Anything).Return(errRedisDown).Once()
		repo.On("Save", ctx, created.ID, mock.Anything).Return(nil).Once()

		// When: the human takes the centre
		_, err = svc.Place(ctx, created.ID, 4)

		// Then: the error is returned and neither the human move nor the AI answer stays
		require.ErrorIs(t, err, errRedisDown)

		current, err := svc.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "000000000", current.State)
		assert.Equal(t, 0, current.Turn)

		// When: the human retries the same cell
		session, err := svc.Place(ctx, created.ID, 4)

		// Then: the move goes through and the AI answers
		require.NoError(t, err)
		board, err := tictactoe.ParseState(session.State)
		require.NoError(t, err)
		assert.Equal(t, 1, board.Count(tictactoe.PlayerOne))
		assert.Equal(t, 1, board.Count(tictactoe.PlayerTwo))
		assert.False(t, board.IsEmpty(4))
	})

	t.Run("Unknown session", func(t *testing.T) {
		svc, repo := newTestService(t, SessionOptions{AIPlayer: tictactoe.PlayerTwo})
		repo.On("GetByID", ctx, "missing").Return("", repository.ErrStateNotFound).Once()

		_, err := svc.Place(ctx, "missing", 0)

		require.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestSessionService_MoveAI(t *testing.T) {
	ctx := context.Background()

	t.Run("AI completes its row", func(t *testing.T) {
		// Given: a manual-AI session where player two owns cells 0 and 1 and is to move
		svc, repo := newTestService(t, SessionOptions{AIPlayer: tictactoe.PlayerTwo, ManualAI: true})
		repo.On("GetByID", ctx, "s1").Return("220110100", nil).Once()
		repo.On("Save", ctx, "s1", "222110100").Return(nil).Once()

		// When: asking the AI to move
		session, err := svc.MoveAI(ctx, "s1")

		// Then: player two wins on cell 2
		require.NoError(t, err)
		assert.Equal(t, "222110100", session.State)
		assert.Equal(t, "won", session.Status)
		assert.Equal(t, 1, session.Winner)
	})

	t.Run("Not the AI's turn", func(t *testing.T) {
		svc, repo := newTestService(t, SessionOptions{AIPlayer: tictactoe.PlayerTwo, ManualAI: true})
		repo.On("GetByID", ctx, "s1").Return("000000000", nil).Once()

		_, err := svc.MoveAI(ctx, "s1")

		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
	})
}

func TestSessionService_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("Malformed state leaves the session untouched", func(t *testing.T) {
		svc, repo := newTestService(t, SessionOptions{AIPlayer: tictactoe.PlayerTwo})
		repo.On("Save", ctx, mock.Anything, mock.Anything).Return(nil).Once()

		created, err := svc.Create(ctx)
		require.NoError(t, err)

		_, err = svc.Load(ctx, created.ID, "12345")
		require.ErrorIs(t, err, apperror.ErrInvalidStateString)

		session, err := svc.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "000000000", session.State)
	})

	t.Run("Drawn state is reported as drawn", func(t *testing.T) {
		svc, repo := newTestService(t, SessionOptions{AIPlayer: tictactoe.PlayerTwo})
		repo.On("Save", ctx, mock.Anything, mock.Anything).Return(nil)

		created, err := svc.Create(ctx)
		require.NoError(t, err)

		session, err := svc.Load(ctx, created.ID, "121121212")

		require.NoError(t, err)
		assert.Equal(t, "drawn", session.Status)
		assert.Equal(t, tictactoe.NoWinner, session.Winner)
	})
}

func TestSessionService_Reset(t *testing.T) {
	ctx := context.Background()

	svc, repo := newTestService(t, SessionOptions{AIPlayer: tictactoe.PlayerTwo})
	repo.On("GetByID", ctx, "s1").Return("111220000", nil).Once()
	repo.On("Save", ctx, "s1", "000000000").Return(nil).Once()

	session, err := svc.Reset(ctx, "s1")

	require.NoError(t, err)
	assert.Equal(t, "000000000", session.State)
	assert.Equal(t, "in_play", session.Status)
	assert.Equal(t, 0, session.Turn)
}

func TestSessionService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("Restores from saved state", func(t *testing.T) {
		svc, repo := newTestService(t, SessionOptions{AIPlayer: tictactoe.PlayerTwo})
		repo.On("GetByID", ctx, "s1").Return("222110000", nil).Once()

		session, err := svc.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "won", session.Status)

		// a second read is served from memory
		_, err = svc.Get(ctx, "s1")
		require.NoError(t, err)
	})

	t.Run("Storage failure", func(t *testing.T) {
		svc, repo := newTestService(t, SessionOptions{AIPlayer: tictactoe.PlayerTwo})
		repo.On("GetByID", ctx, "s1").Return("", errRedisDown).Once()

		_, err := svc.Get(ctx, "s1")

		require.ErrorIs(t, err, errRedisDown)
	})
}

func TestSessionService_Close(t *testing.T) {
	ctx := context.Background()

	t.Run("Closes a live session", func(t *testing.T) {
		svc, repo := newTestService(t, SessionOptions{AIPlayer: tictactoe.PlayerTwo})
		repo.On("Save", ctx, mock.Anything, mock.Anything).Return(nil).Once()

		created, err := svc.Create(ctx)
		require.NoError(t, err)

		repo.On("DeleteByID", ctx, created.ID).Return(nil).Once()
		require.NoError(t, svc.Close(ctx, created.ID))

		repo.On("GetByID", ctx, created.ID).Return("", repository.ErrStateNotFound).Once()
		_, err = svc.Get(ctx, created.ID)
		require.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("Unknown session", func(t *testing.T) {
		svc, repo := newTestService(t, SessionOptions{AIPlayer: tictactoe.PlayerTwo})
		repo.On("DeleteByID", ctx, "missing").Return(repository.ErrStateNotFound).Once()

		err := svc.Close(ctx, "missing")

		require.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestSessionService_CloseDuringPlacement(t *testing.T) {
	ctx := context.Background()

	// Given: a placement that is blocked inside its save
	svc, repo := newTestService(t, SessionOptions{AIPlayer: tictactoe.PlayerTwo, ManualAI: true})
	repo.On("Save", ctx, mock.Anything, "000000000").Return(nil).Once()

	created, err := svc.Create(ctx)
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		calls []string
	)
	record := func(call string) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, call)
	}

	saving := make(chan struct{})
	release := make(chan struct{})
	repo.On("Save", ctx, created.ID, "000010000").Run(func(mock.Arguments) {
		close(saving)
		<-release
		record("save")
	}).Return(nil).Once()
	repo.On("DeleteByID", ctx, created.ID).Run(func(mock.Arguments) {
		record("delete")
	}).Return(nil).Once()

	placed := make(chan error, 1)
	go func() {
		_, err := svc.Place(ctx, created.ID, 4)
		placed <- err
	}()
	<-saving

	// When: the session is closed while the placement holds it
	closed := make(chan error, 1)
	go func() {
		closed <- svc.Close(ctx, created.ID)
	}()

	select {
	case <-closed:
		t.Fatal("close returned while a placement was saving")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	// Then: the save lands before the delete and the session stays closed
	require.NoError(t, <-placed)
	require.NoError(t, <-closed)

	mu.Lock()
	assert.Equal(t, []string{"save", "delete"}, calls)
	mu.Unlock()

	repo.On("GetByID", ctx, created.ID).Return("", repository.ErrStateNotFound).Twice()

	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.Place(ctx, created.ID, 0)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionService_ConcurrentPlacements(t *testing.T) {
	ctx := context.Background()

	// Given: a manual-AI session shared by many goroutines
	svc, repo := newTestService(t, SessionOptions{AIPlayer: tictactoe.PlayerTwo, ManualAI: true})
	repo.On("Save", ctx, mock.Anything, mock.Anything).Return(nil)

	created, err := svc.Create(ctx)
	require.NoError(t, err)

	// When: every goroutine races for the same cell
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Place(ctx, created.ID, 4); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Then: exactly one placement wins
	assert.Equal(t, 1, success)

	session, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "000010000", session.State)
}
