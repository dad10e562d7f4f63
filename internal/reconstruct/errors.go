package reconstruct

import "github.com/arxos/crystalgeo/internal/topology"

// divergenceErr and internalInvariantErr wrap the shared topology.Error
// type.

func divergenceErr(iteration, atomIndex int, format string, args ...any) error {
	return topology.NewError(topology.Divergence, "reconstruct", iteration, atomIndex, format, args...)
}

func internalInvariantErr(atomIndex int, format string, args ...any) error {
	return topology.NewError(topology.InternalInvariant, "reconstruct", 0, atomIndex, format, args...)
}
