package app

import (
	"testing"

	"github.com/jaminalder/codex-reversi/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestRandomMove(t *testing.T) {
	t.Run("picks a legal move", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		b := domain.NewBoard()
		for i := 0; i < 20; i++ {
			pos, ok := RandomMove(b, domain.Black, rng)
			require.True(t, ok)
			require.True(t, b.IsLegalMove(pos, domain.Black), "move %v should be legal", pos)
		}
	})

	t.Run("reports no move", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		b := domain.NewBoard()
		// fill the board by playing until terminal
		g := domain.New()
		for !g.Over {
			pos, ok := RandomMove(g.Board, g.Turn, rng)
			require.True(t, ok)
			require.NoError(t, g.Play(pos))
		}
		_, ok := RandomMove(g.Board, domain.Black, rng)
		require.False(t, ok)
		_, ok = RandomMove(b, domain.White, rng)
		require.True(t, ok)
	})
}

func TestSelfPlay(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		res, err := SelfPlay(rand.New(rand.NewSource(seed)), zerolog.Nop())
		require.NoError(t, err)
		require.True(t, res.Board.IsTerminal(), "seed %d should end terminal", seed)
		require.Equal(t, res.Black, res.Board.Count(domain.Black))
		require.Equal(t, res.White, res.Board.Count(domain.White))
		require.Equal(t, res.Moves+4, res.Black+res.White, "each move adds exactly one disc")
		switch {
		case res.Black > res.White:
			require.Equal(t, domain.Black, res.Winner)
		case res.White > res.Black:
			require.Equal(t, domain.White, res.Winner)
		default:
			require.Zero(t, res.Winner)
		}
	}
}

func TestSelfPlayDeterministicPerSeed(t *testing.T) {
	a, err := SelfPlay(rand.New(rand.NewSource(42)), zerolog.Nop())
	require.NoError(t, err)
	b, err := SelfPlay(rand.New(rand.NewSource(42)), zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, a.Board.Grid(), b.Board.Grid())
	require.Equal(t, a.Moves, b.Moves)
}
