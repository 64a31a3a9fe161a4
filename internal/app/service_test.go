package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/jaminalder/codex-reversi/internal/domain"
)

// minimal renderer for tests: encode moves count as bytes
func testRenderer(gs GameState) []byte { return []byte(fmt.Sprintf("moves=%d", gs.Game.Moves)) }

var (
	e6 = domain.Position{Row: 5, Col: 4}
	f4 = domain.Position{Row: 3, Col: 5}
	d3 = domain.Position{Row: 2, Col: 3}
)

func TestCreateAndGet(t *testing.T) {
	s := NewServiceWithRenderer(testRenderer)
	gs, err := s.CreateGame()
	if err != nil {
		t.Fatalf("CreateGame error: %v", err)
	}
	if gs.ID == "" {
		t.Fatalf("expected non-empty game ID")
	}
	if gs.Game.Turn != domain.Black {
		t.Fatalf("expected initial turn black")
	}
	if gs.Created.IsZero() || gs.Updated.IsZero() {
		t.Fatalf("expected timestamps to be set")
	}
	got, ok := s.Get(gs.ID)
	if !ok || got.ID != gs.ID {
		t.Fatalf("Get should find created game")
	}
	if _, ok := s.Get("missing"); ok {
		t.Fatalf("Get should not find unknown game")
	}
}

func TestGetReturnsIndependentCopy(t *testing.T) {
	s := NewService()
	gs, _ := s.CreateGame()
	cp, _ := s.Get(gs.ID)
	if err := cp.Game.Play(e6); err != nil {
		t.Fatalf("play on copy failed: %v", err)
	}
	latest, _ := s.Get(gs.ID)
	if latest.Game.Moves != 0 || latest.Game.Board.IsOccupied(e6) {
		t.Fatalf("mutating a copy must not touch the stored game")
	}
}

func TestJoinSeatsAndRejoin(t *testing.T) {
	s := NewServiceWithRenderer(testRenderer)
	gs, _ := s.CreateGame()
	p1, p2, p3 := "p1", "p2", "p3"

	side, _, err := s.Join(gs.ID, p1)
	if err != nil || side != domain.Black {
		t.Fatalf("p1 should claim black, got %v, err=%v", side, err)
	}
	side, _, err = s.Join(gs.ID, p2)
	if err != nil || side != domain.White {
		t.Fatalf("p2 should claim white, got %v, err=%v", side, err)
	}
	side, _, err = s.Join(gs.ID, p1)
	if err != nil || side != domain.Black {
		t.Fatalf("p1 rejoin should keep black, got %v, err=%v", side, err)
	}
	side, _, err = s.Join(gs.ID, p3)
	if err != nil || side != 0 {
		t.Fatalf("p3 should spectate, got %v, err=%v", side, err)
	}
	if _, _, err := s.Join("missing", p1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPlayEnforcesTurnAndSpectatorBlocked(t *testing.T) {
	s := NewServiceWithRenderer(testRenderer)
	gs, _ := s.CreateGame()
	p1, p2, p3 := "p1", "p2", "p3"
	s.Join(gs.ID, p1) // black
	s.Join(gs.ID, p2) // white
	s.Join(gs.ID, p3) // spectator

	// white cannot play first
	if _, err := s.Play(gs.ID, p2, f4); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	// spectator cannot play
	if _, err := s.Play(gs.ID, p3, e6); !errors.Is(err, ErrNotAPlayer) {
		t.Fatalf("expected ErrNotAPlayer, got %v", err)
	}
	// illegal square is rejected by the board
	if _, err := s.Play(gs.ID, p1, domain.Position{}); !errors.Is(err, domain.ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
	// black plays
	st, err := s.Play(gs.ID, p1, e6)
	if err != nil {
		t.Fatalf("black play failed: %v", err)
	}
	if !st.Game.Board.IsSameColor(e6, domain.Black) || st.Game.Turn != domain.White || st.Game.Moves != 1 {
		t.Fatalf("unexpected state after black move: turn=%v moves=%d", st.Game.Turn, st.Game.Moves)
	}
	// black cannot play again
	if _, err := s.Play(gs.ID, p1, d3); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn for black again, got %v", err)
	}
	if _, err := s.Play("missing", p1, d3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubscribeAndBroadcast(t *testing.T) {
	s := NewServiceWithRenderer(testRenderer)
	gs, _ := s.CreateGame()
	p1, p2 := "p1", "p2"
	s.Join(gs.ID, p1)
	s.Join(gs.ID, p2)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()
	ch, unsub, err := s.Subscribe(ctx, gs.ID)
	if err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	defer unsub()

	if _, err := s.Play(gs.ID, p1, e6); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	select {
	case b, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed unexpectedly")
		}
		if string(b) != "moves=1" {
			t.Fatalf("unexpected broadcast payload: %q", string(b))
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for broadcast")
	}
}

func TestDropSlowSubscriber(t *testing.T) {
	s := NewServiceWithRenderer(testRenderer)
	gs, _ := s.CreateGame()
	p1, p2 := "p1", "p2"
	s.Join(gs.ID, p1)
	s.Join(gs.ID, p2)

	// Slow subscriber: never read
	ctxSlow, cancelSlow := context.WithCancel(context.Background())
	defer cancelSlow()
	slowCh, _, err := s.Subscribe(ctxSlow, gs.ID)
	if err != nil {
		t.Fatalf("Subscribe slow: %v", err)
	}

	ctxFast, cancelFast := context.WithTimeout(context.Background(), time.Second*2)
	defer cancelFast()
	fastCh, unsubFast, err := s.Subscribe(ctxFast, gs.ID)
	if err != nil {
		t.Fatalf("Subscribe fast: %v", err)
	}
	defer unsubFast()

	if _, err := s.Play(gs.ID, p1, e6); err != nil {
		t.Fatalf("play1: %v", err)
	}
	select {
	case <-fastCh:
	case <-ctxFast.Done():
		t.Fatalf("fast subscriber did not receive first update")
	}
	if _, err := s.Play(gs.ID, p2, f4); err != nil {
		t.Fatalf("play2: %v", err)
	}
	select {
	case <-fastCh:
	case <-ctxFast.Done():
		t.Fatalf("fast subscriber did not receive second update")
	}

	// The slow channel holds the first payload and is then closed.
	if _, ok := <-slowCh; !ok {
		t.Fatalf("expected buffered payload before close")
	}
	if _, ok := <-slowCh; ok {
		t.Fatalf("expected slow subscriber to be closed")
	}
}

func TestSubscribeUnknownGame(t *testing.T) {
	s := NewService()
	ch, unsub, err := s.Subscribe(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if ch != nil || unsub != nil {
		t.Fatalf("expected no channel for unknown game")
	}
	if _, ok := s.Get("missing"); ok {
		t.Fatalf("Subscribe must not register a game")
	}
}

func TestUnsubscribeDuringPlay(t *testing.T) {
	// run with -race: unsubscribing while a move is broadcast must neither
	// race nor send on a closed channel
	for i := 0; i < 500; i++ {
		s := NewServiceWithRenderer(testRenderer)
		gs, _ := s.CreateGame()
		s.Join(gs.ID, "p1")
		s.Join(gs.ID, "p2")
		_, unsub, err := s.Subscribe(context.Background(), gs.ID)
		if err != nil {
			t.Fatalf("Subscribe error: %v", err)
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			unsub()
		}()
		go func() {
			defer wg.Done()
			if _, err := s.Play(gs.ID, "p1", e6); err != nil {
				t.Errorf("play failed: %v", err)
			}
		}()
		wg.Wait()
	}
}

func TestUnsubscribeClosesChannelAndStopsWatcher(t *testing.T) {
	s := NewService()
	gs, _ := s.CreateGame()
	before := runtime.NumGoroutine()

	for i := 0; i < 50; i++ {
		ch, unsub, err := s.Subscribe(context.Background(), gs.ID)
		if err != nil {
			t.Fatalf("Subscribe error: %v", err)
		}
		unsub()
		unsub()
		if _, ok := <-ch; ok {
			t.Fatalf("expected channel closed after unsubscribe")
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > before+2 {
		if time.Now().After(deadline) {
			t.Fatalf("watcher goroutines leaked: before=%d now=%d", before, runtime.NumGoroutine())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
