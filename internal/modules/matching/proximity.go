// README: Proximity sub-score from the routing provider, degrading to unknown.
package matching

import (
	"context"
	"log"
	"math"

	"fleetdispatch/internal/routing"
	"fleetdispatch/internal/types"
)

const (
	proximityMaxScore = 25
	proximityFullKm   = 5.0
	proximityZeroKm   = 50.0
)

// Proximity is the driver-to-pickup leg. Known is false when either
// coordinate pair is missing or the provider could not answer; unknown
// proximity contributes zero score and zero penalty.
type Proximity struct {
	Known      bool
	DistanceKm float64
	EtaSeconds int
	Score      int
}

type ProximityScorer struct {
	provider routing.Provider
}

func NewProximityScorer(provider routing.Provider) *ProximityScorer {
	return &ProximityScorer{provider: provider}
}

// Score resolves the driver-to-pickup distance and converts it to a bounded
// sub-score: full points at proximityFullKm or less, linear down to zero at
// proximityZeroKm, flat zero beyond.
func (s *ProximityScorer) Score(ctx context.Context, from, to *types.Point) Proximity {
	if s == nil || s.provider == nil || from == nil || to == nil {
		return Proximity{}
	}

	est, err := s.provider.DistanceETA(ctx, *from, *to)
	if err != nil {
		// A provider failure degrades this one candidate only.
		log.Printf("proximity lookup failed: %v", err)
		return Proximity{}
	}

	km := float64(est.DistanceMeters) / 1000.0
	return Proximity{
		Known:      true,
		DistanceKm: km,
		EtaSeconds: est.DurationSeconds,
		Score:      proximityScore(km),
	}
}

func proximityScore(km float64) int {
	switch {
	case km <= proximityFullKm:
		return proximityMaxScore
	case km >= proximityZeroKm:
		return 0
	default:
		frac := (proximityZeroKm - km) / (proximityZeroKm - proximityFullKm)
		return int(math.Round(proximityMaxScore * frac))
	}
}
