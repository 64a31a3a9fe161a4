package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jaminalder/codex-reversi/internal/app"
	"github.com/jaminalder/codex-reversi/internal/domain"
	"github.com/rs/zerolog"
)

const defaultHeartbeat = 15 * time.Second

type handlers struct {
	svc       *app.Service
	tpl       *templates
	log       zerolog.Logger
	heartbeat time.Duration
}

func (h *handlers) renderBoard(gs app.GameState, playerID, errMsg string) []byte {
	return renderTemplate(h.tpl.board, "", newBoardView(gs, playerID, errMsg))
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(renderTemplate(h.tpl.index, "", nil))
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	gs, err := h.svc.CreateGame()
	if err != nil {
		http.Error(w, "failed to create", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/game/"+gs.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	// ensure cookie and auto-claim seat
	pid := ensurePlayerCookie(w, r)
	_, _, _ = h.svc.Join(id, pid)

	gs, ok := h.svc.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	data := struct {
		Game  struct{ ID string }
		Board boardView
	}{Board: newBoardView(*gs, pid, "")}
	data.Game.ID = gs.ID

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(renderTemplate(h.tpl.game, "", data))
}

func (h *handlers) join(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pid := ensurePlayerCookie(w, r)
	_, gs, err := h.svc.Join(id, pid)
	if err != nil || gs == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(h.renderBoard(*gs, pid, ""))
}

// movePosition reads either an algebraic "pos" field or numeric "r" and "c".
func movePosition(r *http.Request) (domain.Position, error) {
	if s := r.Form.Get("pos"); s != "" {
		return domain.ParsePosition(s)
	}
	row, errR := strconv.Atoi(r.Form.Get("r"))
	col, errC := strconv.Atoi(r.Form.Get("c"))
	if errR != nil || errC != nil {
		return domain.Position{}, fmt.Errorf("%w: r=%q c=%q", domain.ErrInvalidPosition, r.Form.Get("r"), r.Form.Get("c"))
	}
	p := domain.Position{Row: row, Col: col}
	if !p.Valid() {
		return domain.Position{}, fmt.Errorf("%w: %v", domain.ErrInvalidPosition, p)
	}
	return p, nil
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, app.ErrNotYourTurn):
		return "Not your turn"
	case errors.Is(err, app.ErrNotAPlayer):
		return "You are a spectator"
	case errors.Is(err, domain.ErrInvalidPosition):
		return "Out of bounds"
	case errors.Is(err, domain.ErrIllegalMove):
		return "Illegal move"
	case errors.Is(err, domain.ErrGameOver):
		return "Game is over"
	default:
		return "Invalid move"
	}
}

func (h *handlers) play(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pid := ensurePlayerCookie(w, r)
	_ = r.ParseForm()

	var gs *app.GameState
	pos, err := movePosition(r)
	if err == nil {
		gs, err = h.svc.Play(id, pid, pos)
	}
	var errMsg string
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		errMsg = errorMessage(err)
		if g, ok := h.svc.Get(id); ok {
			gs = g
		}
	}
	if gs == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(h.renderBoard(*gs, pid, errMsg))
}

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.svc.Get(id); !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	// In tests or non-EventSource requests, just acknowledge headers and return
	if r.Header.Get("Accept") != "text/event-stream" {
		w.WriteHeader(http.StatusOK)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx := r.Context()
	ch, unsub, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer unsub()
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	flusher.Flush()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case b, ok := <-ch:
			if !ok {
				return
			}
			// one data line per event
			b = bytes.ReplaceAll(b, []byte("\n"), nil)
			_, _ = fmt.Fprintf(w, "event: board\n")
			_, _ = fmt.Fprintf(w, "data: %s\n\n", b)
			flusher.Flush()
		}
	}
}

type stateDTO struct {
	ID         string                           `json:"id"`
	Board      [domain.Size][domain.Size]string `json:"board"`
	Turn       string                           `json:"turn"`
	Passed     string                           `json:"passed,omitempty"`
	Moves      int                              `json:"moves"`
	Black      int                              `json:"black"`
	White      int                              `json:"white"`
	Over       bool                             `json:"over"`
	Winner     string                           `json:"winner,omitempty"`
	LegalMoves []string                         `json:"legal_moves"`
}

func colorName(c domain.Color) string {
	if !c.Valid() {
		return ""
	}
	return c.String()
}

func newStateDTO(gs app.GameState) stateDTO {
	g := gs.Game
	dto := stateDTO{
		ID:         gs.ID,
		Turn:       colorName(g.Turn),
		Passed:     colorName(g.Passed),
		Moves:      g.Moves,
		Over:       g.Over,
		Winner:     colorName(g.Winner),
		LegalMoves: []string{},
	}
	dto.Black, dto.White = g.Score()
	grid := g.Board.Grid()
	for r := range grid {
		for c, color := range grid[r] {
			dto.Board[r][c] = colorName(color)
		}
	}
	if !g.Over {
		for _, p := range g.Board.LegalMoves(g.Turn) {
			dto.LegalMoves = append(dto.LegalMoves, p.String())
		}
	}
	return dto
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *handlers) state(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, newStateDTO(*gs))
}

func (h *handlers) dump(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, gs.Game.Board.String())
}
