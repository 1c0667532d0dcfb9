// README: Candidate model and scoring weights for driver recommendations.
package matching

import (
	"fleetdispatch/internal/modules/driver"
)

const (
	// Weighted sub-score contributions.
	weightAvailability = 20
	weightRest         = 15
	weightLicense      = 20
	weightCapacityMax  = 20
	weightPickupBonus  = 5

	// Ineligible candidates lose a flat penalty (floored at zero) so they
	// always rank below eligible ones regardless of raw sub-scores.
	ineligiblePenalty = 50
)

// Candidate is one scored driver in a recommendation result.
type Candidate struct {
	Driver     driver.Driver
	Eligible   bool
	Score      int
	Reasons    []string
	Compliance driver.Compliance
	Proximity  Proximity
}
