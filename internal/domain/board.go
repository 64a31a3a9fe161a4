package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Errors returned by board operations.
var (
	ErrInvalidPosition = errors.New("invalid position")
	ErrIllegalMove     = errors.New("illegal move")
)

// Board is the 8x8 grid. A nil cell is empty; a cell never goes back to
// empty once a disc is placed on it.
//
// Board is not safe for concurrent use.
type Board struct {
	grid [Size][Size]*Disc
}

// NewBoard returns a board with the standard starting layout.
func NewBoard() *Board {
	b := &Board{}
	b.grid[3][4] = NewDisc(Black)
	b.grid[4][3] = NewDisc(Black)
	b.grid[3][3] = NewDisc(White)
	b.grid[4][4] = NewDisc(White)
	return b
}

// IsOccupied reports whether pos holds a disc. Off-board positions are
// never occupied.
func (b *Board) IsOccupied(pos Position) bool {
	return pos.Valid() && b.grid[pos.Row][pos.Col] != nil
}

// Piece returns the disc at pos, or nil when the cell is empty.
func (b *Board) Piece(pos Position) (*Disc, error) {
	if !pos.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, pos)
	}
	return b.grid[pos.Row][pos.Col], nil
}

// IsSameColor reports whether pos holds a disc of color c.
func (b *Board) IsSameColor(pos Position, c Color) bool {
	if !b.IsOccupied(pos) {
		return false
	}
	return b.grid[pos.Row][pos.Col].Color() == c
}

// PositionsToFlip walks from origin in direction d and returns the run of
// opposing discs that a disc of color c placed at origin would capture,
// nearest first. The run only counts when a disc of color c closes it; a
// scan that leaves the board or meets an empty cell captures nothing.
func (b *Board) PositionsToFlip(origin Position, c Color, d Direction) []Position {
	var run []Position
	for pos := origin.Step(d); ; pos = pos.Step(d) {
		if !b.IsOccupied(pos) {
			return nil
		}
		if b.IsSameColor(pos, c) {
			return run
		}
		run = append(run, pos)
	}
}

// Flips returns every position captured by placing c at pos, across all
// directions. It does not check whether pos is empty.
func (b *Board) Flips(pos Position, c Color) []Position {
	var all []Position
	for _, d := range Directions {
		all = append(all, b.PositionsToFlip(pos, c, d)...)
	}
	return all
}

// IsLegalMove reports whether c may place a disc at pos: the cell is empty
// and at least one direction captures.
func (b *Board) IsLegalMove(pos Position, c Color) bool {
	if !pos.Valid() || b.IsOccupied(pos) {
		return false
	}
	for _, d := range Directions {
		if len(b.PositionsToFlip(pos, c, d)) > 0 {
			return true
		}
	}
	return false
}

// PlaceDisc puts a disc of color c at pos and flips every captured disc.
// On ErrIllegalMove the board is unchanged.
func (b *Board) PlaceDisc(pos Position, c Color) error {
	if !b.IsLegalMove(pos, c) {
		return fmt.Errorf("%w: %v at %v", ErrIllegalMove, c, pos)
	}
	flips := b.Flips(pos, c)
	b.grid[pos.Row][pos.Col] = NewDisc(c)
	for _, p := range flips {
		b.grid[p.Row][p.Col].Flip()
	}
	return nil
}

// LegalMoves returns the legal moves for c in row-major order.
func (b *Board) LegalMoves(c Color) []Position {
	var moves []Position
	for r := 0; r < Size; r++ {
		for col := 0; col < Size; col++ {
			if pos := (Position{Row: r, Col: col}); b.IsLegalMove(pos, c) {
				moves = append(moves, pos)
			}
		}
	}
	return moves
}

// HasAnyMove reports whether c has at least one legal move.
func (b *Board) HasAnyMove(c Color) bool {
	for r := 0; r < Size; r++ {
		for col := 0; col < Size; col++ {
			if b.IsLegalMove(Position{Row: r, Col: col}, c) {
				return true
			}
		}
	}
	return false
}

// IsTerminal reports whether neither color can move.
func (b *Board) IsTerminal() bool {
	return !b.HasAnyMove(Black) && !b.HasAnyMove(White)
}

// Count returns the number of discs showing c.
func (b *Board) Count(c Color) int {
	n := 0
	for r := range b.grid {
		for _, d := range b.grid[r] {
			if d != nil && d.Color() == c {
				n++
			}
		}
	}
	return n
}

// Grid returns a snapshot of cell colors; empty cells are the zero Color.
func (b *Board) Grid() [Size][Size]Color {
	var out [Size][Size]Color
	for r := range b.grid {
		for c, d := range b.grid[r] {
			if d != nil {
				out[r][c] = d.Color()
			}
		}
	}
	return out
}

// Clone returns a deep copy; discs are not shared with b.
func (b *Board) Clone() *Board {
	cp := &Board{}
	for r := range b.grid {
		for c, d := range b.grid[r] {
			if d != nil {
				cp.grid[r][c] = NewDisc(d.Color())
			}
		}
	}
	return cp
}

// String dumps the grid one row per line, for debugging.
func (b *Board) String() string {
	var sb strings.Builder
	for r := range b.grid {
		sb.WriteString(" " + strconv.Itoa(r) + " |")
		for _, d := range b.grid[r] {
			switch {
			case d == nil:
				sb.WriteString(" *")
			case d.Color() == Black:
				sb.WriteString(" B")
			default:
				sb.WriteString(" W")
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
