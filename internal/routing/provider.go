// README: Routing provider port: point-to-point distance and ETA.
package routing

import (
	"context"
	"errors"

	"fleetdispatch/internal/types"
)

// Estimate is the travel distance and duration between two points.
type Estimate struct {
	DistanceMeters  int
	DurationSeconds int
}

// ErrUnavailable signals that the provider could not produce an estimate
// (unreachable, timed out, or no route). Callers degrade to "unknown
// proximity" instead of failing.
var ErrUnavailable = errors.New("routing provider unavailable")

type Provider interface {
	DistanceETA(ctx context.Context, origin, dest types.Point) (Estimate, error)
}
