package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// The zero CheckOrigin rejects cross-origin handshakes; clients without an
// Origin header (non-browser tools) are let through.
var upgrader = websocket.Upgrader{}

// ws pushes the JSON game state on connect and after every move.
func (h *handlers) ws(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	updates, unsub, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer unsub()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Str("game", id).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	send := make(chan []byte, 16)
	send <- h.stateMessage(id)
	go func() {
		defer close(send)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- h.stateMessage(id):
				default:
				}
			}
		}
	}()

	// The reader only watches for the peer going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeWSWithHeartbeat(conn, send, h.heartbeat); err != nil {
		h.log.Debug().Err(err).Str("game", id).Msg("websocket closed")
	}
}

func (h *handlers) stateMessage(id string) []byte {
	msg := wsMessage{Type: "state"}
	if gs, ok := h.svc.Get(id); ok {
		msg.Payload = mustMarshal(newStateDTO(*gs))
	}
	return mustMarshal(msg)
}

func writeWSWithHeartbeat(conn *websocket.Conn, send <-chan []byte, idle time.Duration) error {
	ticker := time.NewTicker(idle)
	defer ticker.Stop()
	lastWrite := time.Now()
	pingPayload := mustMarshal(wsMessage{Type: "ping"})

	for {
		select {
		case msg, ok := <-send:
			if !ok {
				return nil
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
			lastWrite = time.Now()
		case <-ticker.C:
			if time.Since(lastWrite) < idle {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, pingPayload); err != nil {
				return err
			}
			lastWrite = time.Now()
		}
	}
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
