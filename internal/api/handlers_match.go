package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/arxos/crystalgeo/internal/cache"
	"github.com/arxos/crystalgeo/internal/element"
	"github.com/arxos/crystalgeo/internal/topology"
)

// matchRequest is POST /v1/match's body: a standalone neighbor-match call
// against two atom clouds, outside of a full reconstruction run. This is
// the endpoint internal/cache's match-result memoization
// fronts.
type matchRequest struct {
	Queries      []AtomJSON `json:"queries"`
	Targets      []AtomJSON `json:"targets"`
	Radius       float64    `json:"radius"` // nanometers; 0 selects covalent bond length
	CovalentK    float64    `json:"covalent_k,omitempty"`
	MaxNeighbors int        `json:"max_neighbors"`
}

type matchResponse struct {
	Indices    [][]uint32 `json:"indices"`
	Counts     []int      `json:"counts"`
	Overflowed []bool     `json:"overflowed"`
	CacheHit   bool       `json:"cache_hit"`
}

// handleMatch runs the neighbor match engine, fronted by a Redis cache
// keyed by a fingerprint of (queries, targets, radius spec, maxNeighbors):
// internal/cache.GetMatchResult/SetMatchResult's only caller.
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.MaxNeighbors <= 0 {
		req.MaxNeighbors = topology.MaxNeighbors
	}

	key := matchCacheKey(req)

	if s.cache != nil {
		if cached, ok, err := s.cache.GetMatchResult(r.Context(), key); err == nil && ok {
			respondJSON(w, http.StatusOK, matchResponse{
				Indices:    cached.Indices,
				Counts:     cached.Counts,
				Overflowed: cached.Overflowed,
				CacheHit:   true,
			})
			return
		}
	}

	queries := make([]element.Atom, len(req.Queries))
	for i, a := range req.Queries {
		queries[i] = a.toAtom()
	}
	targets := make([]element.Atom, len(req.Targets))
	for i, a := range req.Targets {
		targets[i] = a.toAtom()
	}

	var spec topology.RadiusSpec
	if req.Radius > 0 {
		spec = topology.AbsoluteRadius(req.Radius)
	} else if req.CovalentK > 0 {
		spec = topology.CovalentBondLength(req.CovalentK)
	} else {
		spec = topology.DefaultCovalentBondLength()
	}

	matches, err := topology.Match(queries, targets, spec, req.MaxNeighbors)
	if err != nil {
		writeError(w, err)
		return
	}

	result := cache.MatchResult{
		Indices:    make([][]uint32, len(matches)),
		Counts:     make([]int, len(matches)),
		Overflowed: make([]bool, len(matches)),
	}
	for i, m := range matches {
		idx := make([]uint32, m.Count)
		copy(idx, m.Indices[:m.Count])
		result.Indices[i] = idx
		result.Counts[i] = m.Count
		result.Overflowed[i] = m.Overflowed
	}

	if s.cache != nil {
		if err := s.cache.SetMatchResult(r.Context(), key, result); err != nil {
			s.log.Printf("failed to cache match result: %v", err)
		}
	}

	respondJSON(w, http.StatusOK, matchResponse{
		Indices:    result.Indices,
		Counts:     result.Counts,
		Overflowed: result.Overflowed,
	})
}

func matchCacheKey(req matchRequest) string {
	raw, _ := json.Marshal(req)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
