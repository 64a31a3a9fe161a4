package domain

import (
	"fmt"
	"strconv"
)

// Size is the fixed board width and height.
const Size = 8

// Position addresses a cell by row and column, both in [0, Size).
type Position struct {
	Row, Col int
}

// Valid reports whether p lies on the board.
func (p Position) Valid() bool {
	return p.Row >= 0 && p.Row < Size && p.Col >= 0 && p.Col < Size
}

// Step returns the neighbouring position in direction d. The result may be
// off the board.
func (p Position) Step(d Direction) Position {
	return Position{Row: p.Row + d.DRow, Col: p.Col + d.DCol}
}

// String renders p in algebraic notation: column letter, then 1-based row.
func (p Position) String() string {
	if !p.Valid() {
		return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
	}
	return string(rune('a'+p.Col)) + strconv.Itoa(p.Row+1)
}

// ParsePosition accepts algebraic notation such as "d3".
func ParsePosition(s string) (Position, error) {
	if len(s) != 2 {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	col := s[0]
	if col >= 'A' && col <= 'H' {
		col += 'a' - 'A'
	}
	p := Position{Row: int(s[1]) - '1', Col: int(col) - 'a'}
	if !p.Valid() {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	return p, nil
}

// Direction is a unit step across the grid.
type Direction struct {
	DRow, DCol int
}

// Directions lists the eight scan directions: E, SE, S, SW, W, NW, N, NE.
var Directions = [8]Direction{
	{0, 1}, {1, 1}, {1, 0}, {1, -1},
	{0, -1}, {-1, -1}, {-1, 0}, {-1, 1},
}
