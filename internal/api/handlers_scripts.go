package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/arxos/crystalgeo/internal/element"
	"github.com/arxos/crystalgeo/internal/lattice"
)

// scriptRunRequest is the POST /v1/scripts/{id}/run body: the lattice basis,
// bounds, material, and op list to evaluate.
type scriptRunRequest struct {
	Basis    string         `json:"basis"` // "cubic" | "hexagonal"
	Bounds   BoundsJSON     `json:"bounds"`
	Material MaterialJSON   `json:"material"`
	Ops      []ScriptOpJSON `json:"ops"`
}

type scriptRunResponse struct {
	ScriptID  string `json:"script_id"`
	AtomCount int    `json:"atom_count"`
}

// resultStore holds the materialized atoms of each run, keyed by the id
// path parameter: the run and progress endpoints fill it, and
// GET .../atoms reads from it. It is process-local: crystalgeo does not persist bulk atom
// clouds (internal/store only persists the compact script definition).
type resultStore struct {
	mu      sync.RWMutex
	results map[string][]element.Atom
}

func newResultStore() *resultStore {
	return &resultStore{results: make(map[string][]element.Atom)}
}

func (s *resultStore) put(id string, atoms []element.Atom) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[id] = atoms
}

func (s *resultStore) get(id string) ([]element.Atom, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	atoms, ok := s.results[id]
	return atoms, ok
}

// handleScriptRun evaluates a lattice script and returns the resulting atom
// count plus the id under which the atoms are now retrievable.
func (s *Server) handleScriptRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		id = uuid.NewString()
	}

	var req scriptRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	basis := element.Cubic
	if req.Basis == "hexagonal" {
		basis = element.Hexagonal
	}

	ops, err := compileScript(req.Ops)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	lat := lattice.New(basis)
	atoms, err := lat.Evaluate(req.Bounds.toBounds(), req.Material.toMaterial(), ops)
	if err != nil {
		writeError(w, err)
		return
	}

	s.results.put(id, atoms)
	s.cacheAtomCount(r.Context(), req, len(atoms))
	s.log.Event("script evaluated", "id", id, "atoms", len(atoms))
	respondJSON(w, http.StatusOK, scriptRunResponse{ScriptID: id, AtomCount: len(atoms)})
}

// cacheAtomCount memoizes the materialized atom count for this exact
// (bounds, material, script) triple, keyed by its JSON fingerprint.
func (s *Server) cacheAtomCount(ctx context.Context, req scriptRunRequest, count int) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(req)
	if err != nil {
		return
	}
	sum := sha256.Sum256(raw)
	key := hex.EncodeToString(sum[:])
	if err := s.cache.SetAtomCount(ctx, key, count); err != nil {
		s.log.Printf("failed to cache atom count: %v", err)
	}
}

// handleScriptAtoms streams the materialized atoms for a previously run
// script as JSON.
func (s *Server) handleScriptAtoms(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	atoms, ok := s.results.get(id)
	if !ok {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "unknown script id"})
		return
	}
	out := make([]AtomJSON, len(atoms))
	for i, a := range atoms {
		out[i] = atomToJSON(a)
	}
	respondJSON(w, http.StatusOK, out)
}
