package tictactoe

const (
	squareOriginX = 30
	squareOriginY = 35
	squareSpacing = 100
)

// Position is a fixed display position on the host's canvas.
type Position struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Piece is one player's mark.
type Piece struct {
	owner    Player
	position Position
}

func NewPiece(owner Player) *Piece {
	return &Piece{owner: owner}
}

func (that *Piece) Owner() Player {
	return that.owner
}

func (that *Piece) Position() Position {
	return that.position
}

func (that *Piece) SetPosition(position Position) {
	that.position = position
}

// Holder is a board square that can hold at most one piece.
type Holder interface {
	Piece() *Piece
	SetPiece(piece *Piece)
	DestroyPiece()
	Position() Position
}

// Square is the holder used for every cell of the 3x3 grid.
type Square struct {
	position Position
	col, row int
	piece    *Piece
}

func (that *Square) init(col, row int) {
	that.col = col
	that.row = row
	that.position = Position{
		X: float32(squareOriginX + col*squareSpacing),
		Y: float32(squareOriginY + row*squareSpacing),
	}
}

func (that *Square) Piece() *Piece {
	return that.piece
}

// SetPiece - replaces whatever piece the square held.
func (that *Square) SetPiece(piece *Piece) {
	that.piece = piece
}

func (that *Square) DestroyPiece() {
	that.piece = nil
}

func (that *Square) Position() Position {
	return that.position
}

// Index - returns the row-major index of the square.
func (that *Square) Index() int {
	return that.row*boardSize + that.col
}
