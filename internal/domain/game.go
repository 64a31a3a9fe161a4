package domain

import "errors"

// ErrGameOver is returned by Play once neither side can move.
var ErrGameOver = errors.New("game over")

// Game holds the current state of a Reversi match.
type Game struct {
	Board  *Board
	Turn   Color
	Winner Color // zero on a draw or while the game is running
	Over   bool
	Moves  int
	// Passed is the color whose turn was skipped by the last move, if any.
	Passed Color
}

// New returns a new game with Black to move.
func New() Game {
	return Game{Board: NewBoard(), Turn: Black}
}

// Play places a disc for the side to move at pos and advances the turn.
// A side with no legal move is skipped; when neither side can move the
// game ends and the winner is decided by disc count.
func (g *Game) Play(pos Position) error {
	if g.Over {
		return ErrGameOver
	}
	if err := g.Board.PlaceDisc(pos, g.Turn); err != nil {
		return err
	}
	g.Moves++
	g.Passed = 0

	next := g.Turn.Opponent()
	switch {
	case g.Board.HasAnyMove(next):
		g.Turn = next
	case g.Board.HasAnyMove(g.Turn):
		g.Passed = next
	default:
		g.finish()
	}
	return nil
}

func (g *Game) finish() {
	g.Over = true
	black, white := g.Score()
	switch {
	case black > white:
		g.Winner = Black
	case white > black:
		g.Winner = White
	default:
		g.Winner = 0
	}
}

// Score returns the black and white disc counts.
func (g *Game) Score() (black, white int) {
	return g.Board.Count(Black), g.Board.Count(White)
}

// Clone returns a copy that shares no discs with g.
func (g *Game) Clone() Game {
	cp := *g
	if g.Board != nil {
		cp.Board = g.Board.Clone()
	}
	return cp
}
