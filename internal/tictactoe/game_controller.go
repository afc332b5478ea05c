package tictactoe

import (
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-core/internal/apperror"
)

type Status int

const (
	StatusSetup Status = iota
	StatusInPlay
	StatusWon
	StatusDrawn
)

func (that Status) String() string {
	switch that {
	case StatusSetup:
		return "setup"
	case StatusInPlay:
		return "in_play"
	case StatusWon:
		return "won"
	case StatusDrawn:
		return "drawn"
	default:
		return "unknown"
	}
}

// Game is one tic-tac-toe session. It is not safe for concurrent use.
type Game struct {
	logger *slog.Logger

	grid     [boardSize][boardSize]Square
	turns    Turns
	aiPlayer Player

	status Status
	winner int
}

func NewGame(logger *slog.Logger, turns Turns, aiPlayer Player) *Game {
	if turns == nil {
		turns = NewTurnOrder()
	}

	return &Game{
		logger:   logger.With("component", "tictactoe"),
		turns:    turns,
		aiPlayer: aiPlayer,
		status:   StatusSetup,
		winner:   NoWinner,
	}
}

// SetUpBoard - lays out the 3x3 grid and starts a fresh game.
func (that *Game) SetUpBoard() {
	for row := range boardSize {
		for col := range boardSize {
			that.grid[row][col].init(col, row)
		}
	}

	that.Reset()
	that.EndOfTurn()
}

// PieceForPlayer - creates a new piece owned by player.
func (that *Game) PieceForPlayer(player Player) *Piece {
	return NewPiece(player)
}

// Holder - returns the square at the row-major index, nil for an index off the board.
func (that *Game) Holder(index int) (Holder, bool) {
	if index < 0 || index >= cellCount {
		return nil, false
	}
	return that.square(index), true
}

func (that *Game) square(index int) *Square {
	return &that.grid[index/boardSize][index%boardSize]
}

// OwnerAt - returns the owner of the piece at index, if any.
func (that *Game) OwnerAt(index int) (Player, bool) {
	piece := that.square(index).Piece()
	if piece == nil {
		return 0, false
	}
	return piece.Owner(), true
}

// ActionForEmptyHolder - places the current player's piece on an empty holder.
func (that *Game) ActionForEmptyHolder(holder Holder) bool {
	if holder == nil {
		return false
	}

	if square, ok := holder.(*Square); ok && square == nil {
		return false
	}

	if holder.Piece() != nil {
		return false
	}

	that.placePiece(holder, that.turns.CurrentPlayer())

	return true
}

func (that *Game) placePiece(holder Holder, player Player) {
	piece := that.PieceForPlayer(player)
	piece.SetPosition(holder.Position())
	holder.SetPiece(piece)
}

// CanBitMoveFrom - placed pieces never move.
func (that *Game) CanBitMoveFrom(_ *Piece, _ Holder) bool {
	return false
}

func (that *Game) CanBitMoveFromTo(_ *Piece, _, _ Holder) bool {
	return false
}

// StopGame - destroys every piece on the board.
func (that *Game) StopGame() {
	for row := range boardSize {
		for col := range boardSize {
			that.grid[row][col].DestroyPiece()
		}
	}
}

func (that *Game) CheckForWinner() (Player, bool) {
	return winnerOf(that)
}

// CheckForDraw - reports a full board, the winner must be checked first.
func (that *Game) CheckForDraw() bool {
	return isFull(that)
}

func (that *Game) InitialStateString() string {
	return initialState
}

func (that *Game) StateString() string {
	return that.snapshot().String()
}

// SetStateString - replaces the board with the encoded state, a malformed string changes nothing.
func (that *Game) SetStateString(state string) error {
	board, err := ParseState(state)
	if err != nil {
		return err
	}

	for i := range cellCount {
		square := that.square(i)

		owner, ok := board.OwnerAt(i)
		if !ok {
			square.DestroyPiece()
			continue
		}

		that.placePiece(square, owner)
	}

	return nil
}

// LoadFromState - restores a saved board and recomputes game-over status from it.
func (that *Game) LoadFromState(state string) error {
	if err := that.SetStateString(state); err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	that.status = StatusInPlay
	that.winner = NoWinner
	that.EndOfTurn()

	that.logger.Debug("state loaded", "state", state, "status", that.status.String())

	return nil
}

// ResumeTurn - hands the move to whoever is behind on pieces, player one on a tie.
func (that *Game) ResumeTurn() {
	board := that.snapshot()
	if board.Count(PlayerOne) > board.Count(PlayerTwo) {
		that.turns.SetCurrent(PlayerTwo)
		return
	}
	that.turns.SetCurrent(PlayerOne)
}

// EndOfTurn - recomputes game-over status, a winner always takes precedence over a draw.
func (that *Game) EndOfTurn() {
	if winner, ok := that.CheckForWinner(); ok {
		that.status = StatusWon
		that.winner = winner.Number()
		return
	}

	if that.CheckForDraw() {
		that.status = StatusDrawn
		that.winner = NoWinner
		return
	}

	that.status = StatusInPlay
	that.winner = NoWinner
}

// EndTurn - advances to the next player and checks for game over.
func (that *Game) EndTurn() {
	that.turns.EndTurn()
	that.EndOfTurn()
}

func (that *Game) Reset() {
	that.StopGame()
	that.turns.Reset()
	that.status = StatusInPlay
	that.winner = NoWinner
}

// UpdateAI - searches the whole game tree and commits the AI's best move.
func (that *Game) UpdateAI() error {
	log := that.logger.With("method", "UpdateAI")

	cell, score, err := BestMove(that.snapshot(), that.aiPlayer)
	if err != nil {
		log.Error("no move found", "state", that.StateString(), "error", err)
		return fmt.Errorf("ai failed to move: %w", err)
	}

	that.placePiece(that.square(cell), that.aiPlayer)
	log.Debug("AI placed piece", "cell", cell, "score", score)

	that.EndTurn()

	return nil
}

func (that *Game) snapshot() Board {
	var board Board
	for i := range cellCount {
		if owner, ok := that.OwnerAt(i); ok {
			board[i] = cellFor(owner)
		}
	}
	return board
}

// Board - returns a copy of the current board.
func (that *Game) Board() Board {
	return that.snapshot()
}

func (that *Game) Status() Status {
	return that.status
}

func (that *Game) IsOver() bool {
	return that.status == StatusWon || that.status == StatusDrawn
}

func (that *Game) Winner() (Player, bool) {
	if that.status != StatusWon {
		return 0, false
	}
	return Player(that.winner), true
}

// WinnerNumber - returns the winning player's number or NoWinner.
func (that *Game) WinnerNumber() int {
	return that.winner
}

func (that *Game) CurrentPlayer() Player {
	return that.turns.CurrentPlayer()
}

func (that *Game) AIPlayer() Player {
	return that.aiPlayer
}

// ConfirmOngoingState - returns ErrGameFinished once the game is won or drawn.
func (that *Game) ConfirmOngoingState() error {
	if that.IsOver() {
		return apperror.ErrGameFinished
	}
	return nil
}
