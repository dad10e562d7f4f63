package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/arxos/crystalgeo/internal/lattice"
	"github.com/arxos/crystalgeo/internal/topology"
)

// writeError maps a core error to an HTTP status: lattice
// InvalidBounds/MaterialUnsupported/EmptyScope/InvalidScript are caller
// mistakes (400); topology/reconstruct CapacityExceeded is a payload that
// exceeds a fixed-capacity list (422); Divergence and InternalInvariant are
// always 500 with no Retry-After, since the core defines no retry path.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var latticeErr *lattice.Error
	var topoErr *topology.Error
	switch {
	case errors.As(err, &latticeErr):
		switch latticeErr.Kind {
		case lattice.InvalidBounds, lattice.MaterialUnsupported, lattice.EmptyScope, lattice.EmitBeforeSetup, lattice.InvalidScript:
			status = http.StatusBadRequest
		}
	case errors.As(err, &topoErr):
		switch topoErr.Kind {
		case topology.CapacityExceeded:
			status = http.StatusUnprocessableEntity
		case topology.Divergence, topology.InternalInvariant:
			status = http.StatusInternalServerError
		}
	}

	respondJSON(w, status, map[string]string{"error": err.Error()})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
