package app

import (
	"github.com/jaminalder/codex-reversi/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
)

// RandomMove picks a uniformly random legal move for c. ok is false when c
// has no legal move.
func RandomMove(b *domain.Board, c domain.Color, rng *rand.Rand) (pos domain.Position, ok bool) {
	moves := b.LegalMoves(c)
	if len(moves) == 0 {
		return domain.Position{}, false
	}
	return moves[rng.Intn(len(moves))], true
}

// SelfPlayResult summarises one random game.
type SelfPlayResult struct {
	Winner domain.Color
	Black  int
	White  int
	Moves  int
	Passes int
	Board  *domain.Board
}

// SelfPlay plays one game where both sides pick random legal moves.
func SelfPlay(rng *rand.Rand, logger zerolog.Logger) (SelfPlayResult, error) {
	g := domain.New()
	passes := 0
	for !g.Over {
		pos, ok := RandomMove(g.Board, g.Turn, rng)
		if !ok {
			// unreachable: Play skips a side with no move
			break
		}
		if err := g.Play(pos); err != nil {
			return SelfPlayResult{}, err
		}
		logger.Debug().Int("move", g.Moves).Stringer("pos", pos).Msg("self-play move")
		if g.Passed != 0 {
			passes++
		}
	}
	black, white := g.Score()
	return SelfPlayResult{
		Winner: g.Winner,
		Black:  black,
		White:  white,
		Moves:  g.Moves,
		Passes: passes,
		Board:  g.Board,
	}, nil
}
