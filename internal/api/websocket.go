package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/arxos/crystalgeo/internal/element"
	"github.com/arxos/crystalgeo/internal/lattice"
)

// upgrader is the websocket handshake configuration. CheckOrigin is
// permissive; the rs/cors middleware governs cross-origin access for the
// rest of the API.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// progressEvent is one message streamed over the progress websocket.
type progressEvent struct {
	Type      string `json:"type"` // started | completed | failed
	Message   string `json:"message,omitempty"`
	AtomCount int    `json:"atom_count,omitempty"`
}

// handleScriptProgress upgrades to a websocket and evaluates the submitted
// script, pushing a started event immediately and a completed/failed event
// once Evaluate returns. The lattice evaluator has no internal suspension
// points, so this reports coarse start/finish progress rather than
// per-block ticks.
func (s *Server) handleScriptProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Printf("websocket upgrade failed for script %s: %v", id, err)
		return
	}
	defer conn.Close()

	var req scriptRunRequest
	if err := conn.ReadJSON(&req); err != nil {
		conn.WriteJSON(progressEvent{Type: "failed", Message: "invalid request body"})
		return
	}

	conn.WriteJSON(progressEvent{Type: "started"})

	basis := element.Cubic
	if req.Basis == "hexagonal" {
		basis = element.Hexagonal
	}
	ops, err := compileScript(req.Ops)
	if err != nil {
		conn.WriteJSON(progressEvent{Type: "failed", Message: err.Error()})
		return
	}

	lat := lattice.New(basis)
	atoms, err := lat.Evaluate(req.Bounds.toBounds(), req.Material.toMaterial(), ops)
	if err != nil {
		conn.WriteJSON(progressEvent{Type: "failed", Message: err.Error()})
		return
	}

	s.results.put(id, atoms)
	conn.WriteJSON(progressEvent{Type: "completed", AtomCount: len(atoms)})
}
