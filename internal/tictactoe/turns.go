package tictactoe

// Turns is the host's player registry and turn-advance primitive.
type Turns interface {
	CurrentPlayer() Player
	SetCurrent(player Player)
	EndTurn()
	Reset()
}

// TurnOrder alternates between the two players, starting with PlayerOne.
type TurnOrder struct {
	current Player
}

func NewTurnOrder() *TurnOrder {
	return &TurnOrder{current: PlayerOne}
}

func (that *TurnOrder) CurrentPlayer() Player {
	return that.current
}

func (that *TurnOrder) SetCurrent(player Player) {
	that.current = player
}

func (that *TurnOrder) EndTurn() {
	that.current = that.current.Opponent()
}

func (that *TurnOrder) Reset() {
	that.current = PlayerOne
}
