package domain

// Color is the side a disc shows. The zero value is not a color; it only
// appears in grid snapshots to mark an empty cell.
type Color uint8

const (
	Black Color = iota + 1
	White
)

// Valid reports whether c is Black or White.
func (c Color) Valid() bool { return c == Black || c == White }

// Opponent returns the other color.
func (c Color) Opponent() Color {
	if c == Black {
		return White
	}
	return Black
}

func (c Color) String() string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return "none"
	}
}

// Disc is a placed piece. Flipping changes it in place, so every holder of
// the pointer sees the new color.
type Disc struct {
	color Color
}

// NewDisc returns a disc showing c.
func NewDisc(c Color) *Disc { return &Disc{color: c} }

func (d *Disc) Color() Color { return d.color }

// Flip toggles the disc between black and white.
func (d *Disc) Flip() { d.color = d.color.Opponent() }
