package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/arxos/crystalgeo/internal/element"
	"github.com/arxos/crystalgeo/internal/reconstruct"
	"github.com/arxos/crystalgeo/internal/store"
)

// reconstructRequest is the POST /v1/reconstruct body: a submitted atom
// cloud (typically the output of a prior script run) plus material and
// passivation options.
type reconstructRequest struct {
	Atoms      []AtomJSON   `json:"atoms"`
	Material   MaterialJSON `json:"material"`
	Passivate  bool         `json:"passivate"`
	Passivator uint8        `json:"passivator"`
}

type reconstructResponse struct {
	RunID       string      `json:"run_id"`
	Atoms       []AtomJSON  `json:"atoms"`
	Bonds       []BondJSON  `json:"bonds"`
	CenterTypes map[int]int `json:"center_types"`
}

// handleReconstruct runs surface reconstruction over a submitted atom
// cloud and records one audit-log row per call via internal/store.
func (s *Server) handleReconstruct(w http.ResponseWriter, r *http.Request) {
	var req reconstructRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	atoms := make([]element.Atom, len(req.Atoms))
	for i, a := range req.Atoms {
		atoms[i] = a.toAtom()
	}

	opts := reconstruct.Options{Material: req.Material.toMaterial()}
	if req.Passivate {
		opts.Passivation = reconstruct.PassivationElement
		opts.Passivator = element.Number(req.Passivator)
	}

	runID := uuid.NewString()
	started := time.Now()

	result, err := reconstruct.Reconstruct(atoms, opts)

	if s.store != nil {
		run := store.ReconstructionRun{
			ID:         runID,
			StartedAt:  started,
			FinishedAt: time.Now(),
			Succeeded:  err == nil,
		}
		if err != nil {
			run.ErrorText = err.Error()
		} else {
			h2 := 0
			for _, a := range result.Topology.Atoms {
				if a.Number == element.H {
					h2++
				}
			}
			run.AtomCount = len(result.Topology.Atoms)
			run.BondCount = len(result.Topology.Bonds)
			run.H2Count = h2
		}
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		if auditErr := s.store.RecordReconstructionRun(ctx, run); auditErr != nil {
			s.log.Printf("failed to record reconstruction audit row: %v", auditErr)
		}
		cancel()
	}

	if err != nil {
		writeError(w, err)
		return
	}

	outAtoms := make([]AtomJSON, len(result.Topology.Atoms))
	for i, a := range result.Topology.Atoms {
		outAtoms[i] = atomToJSON(a)
	}
	outBonds := make([]BondJSON, len(result.Topology.Bonds))
	for i, b := range result.Topology.Bonds {
		outBonds[i] = bondToJSON(b)
	}

	respondJSON(w, http.StatusOK, reconstructResponse{
		RunID:       runID,
		Atoms:       outAtoms,
		Bonds:       outBonds,
		CenterTypes: result.CenterTypes,
	})
}
