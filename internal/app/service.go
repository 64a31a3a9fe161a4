package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jaminalder/codex-reversi/internal/domain"
	"github.com/rs/zerolog"
)

// Errors exposed by the service layer.
var (
	ErrNotFound    = errors.New("game not found")
	ErrNotYourTurn = errors.New("not your turn")
	ErrNotAPlayer  = errors.New("not a player")
)

// GameState is the in-memory state tracked per game.
type GameState struct {
	ID      string
	Game    domain.Game
	Black   string
	White   string
	Created time.Time
	Updated time.Time
}

// Seat returns the color playerID sits as, or zero for spectators.
func (gs *GameState) Seat(playerID string) domain.Color {
	switch {
	case playerID == "":
		return 0
	case gs.Black == playerID:
		return domain.Black
	case gs.White == playerID:
		return domain.White
	}
	return 0
}

func (gs *GameState) clone() *GameState {
	cp := *gs
	cp.Game = gs.Game.Clone()
	return &cp
}

type subscriber struct {
	ch        chan []byte
	closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// Service manages games and subscribers. Boards are not safe for
// concurrent use, so every access goes through mu.
type Service struct {
	mu     sync.Mutex
	games  map[string]*GameState
	subs   map[string]map[*subscriber]struct{}
	render func(GameState) []byte
	log    zerolog.Logger
}

// NewService creates a service with a default renderer (encodes nothing useful).
func NewService() *Service { return NewServiceWithRenderer(nil) }

// NewServiceWithRenderer allows injecting a renderer for broadcast payloads.
func NewServiceWithRenderer(renderer func(GameState) []byte) *Service {
	if renderer == nil {
		renderer = func(gs GameState) []byte { return nil }
	}
	return &Service{
		games:  make(map[string]*GameState),
		subs:   make(map[string]map[*subscriber]struct{}),
		render: renderer,
		log:    zerolog.Nop(),
	}
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(GameState) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if renderer == nil {
		s.render = func(gs GameState) []byte { return nil }
		return
	}
	s.render = renderer
}

// SetLogger replaces the service logger.
func (s *Service) SetLogger(l zerolog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = l.With().Str("component", "app").Logger()
}

// CreateGame creates and registers a new game.
func (s *Service) CreateGame() (*GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := newGameID()
	now := time.Now()
	gs := &GameState{ID: id, Game: domain.New(), Created: now, Updated: now}
	s.games[id] = gs
	s.log.Info().Str("game", id).Msg("game created")
	return gs.clone(), nil
}

// Get returns a copy of the game state if present.
func (s *Service) Get(id string) (*GameState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		return nil, false
	}
	return gs.clone(), true
}

// Join assigns a seat to the player if available; returns zero for spectators.
func (s *Service) Join(id, playerID string) (domain.Color, *GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		return 0, nil, ErrNotFound
	}
	var side domain.Color
	if gs.Black == "" || gs.Black == playerID {
		gs.Black = playerID
		side = domain.Black
	} else if gs.White == "" || gs.White == playerID {
		gs.White = playerID
		side = domain.White
	}
	gs.Updated = time.Now()
	s.log.Debug().Str("game", id).Str("player", playerID).Stringer("color", side).Msg("player joined")
	return side, gs.clone(), nil
}

// Play validates seat and turn, applies a move, updates timestamps, and broadcasts.
func (s *Service) Play(id, playerID string, pos domain.Position) (*GameState, error) {
	s.mu.Lock()
	gs, ok := s.games[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	seat := gs.Seat(playerID)
	if seat == 0 {
		s.mu.Unlock()
		return nil, ErrNotAPlayer
	}
	if seat != gs.Game.Turn {
		s.mu.Unlock()
		return nil, ErrNotYourTurn
	}
	if err := gs.Game.Play(pos); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	gs.Updated = time.Now()

	ev := s.log.Info().Str("game", id).Str("player", playerID).Stringer("color", seat).Stringer("pos", pos)
	if gs.Game.Passed != 0 {
		ev = ev.Stringer("passed", gs.Game.Passed)
	}
	ev.Msg("move played")
	if gs.Game.Over {
		black, white := gs.Game.Score()
		s.log.Info().Str("game", id).Stringer("winner", gs.Game.Winner).
			Int("black", black).Int("white", white).Msg("game over")
	}

	// Snapshot state and fan out while holding mu: sends never block, and
	// unsubscribe closes channels under the same lock.
	cp := gs.clone()
	payload := s.render(*cp)
	dropped := 0
	for sub := range s.subs[id] {
		select {
		case sub.ch <- payload:
		default:
			// drop slow subscriber
			delete(s.subs[id], sub)
			sub.close()
			dropped++
		}
	}
	if dropped > 0 {
		s.log.Warn().Str("game", id).Int("dropped", dropped).Msg("dropped slow subscribers")
	}
	s.mu.Unlock()
	return cp, nil
}

// Subscribe registers a subscriber for an existing game. Returns a channel
// and an unsubscribe func; the channel is closed on unsubscribe, when ctx
// is done, or when the subscriber falls behind.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return nil, nil, ErrNotFound
	}
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan []byte, 1)}
	set[sub] = struct{}{}

	done := make(chan struct{})
	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
			sub.close()
			s.mu.Unlock()
			close(done)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			unsub()
		case <-done:
		}
	}()
	return sub.ch, unsub, nil
}
