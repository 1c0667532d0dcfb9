// README: Recommendation engine: orchestrates eligibility, proximity, and weighted scoring.
package matching

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"

	"fleetdispatch/internal/config"
	"fleetdispatch/internal/modules/driver"
	"fleetdispatch/internal/modules/order"
	"fleetdispatch/internal/modules/trip"
	"fleetdispatch/internal/modules/vehicle"
	"fleetdispatch/internal/types"
)

type TripSource interface {
	Get(ctx context.Context, id types.ID) (*trip.Trip, error)
}

type VehicleSource interface {
	Get(ctx context.Context, id types.ID) (*vehicle.Vehicle, error)
}

type DriverSource interface {
	Get(ctx context.Context, id types.ID) (*driver.Driver, error)
	ListAvailableFit(ctx context.Context) ([]driver.Driver, error)
	ListWorkLogs(ctx context.Context, id types.ID) ([]driver.WorkLog, error)
}

type CargoSource interface {
	ListByTrip(ctx context.Context, tripID types.ID) ([]order.Order, error)
	TotalWeightByTrip(ctx context.Context, tripID types.ID) (float64, error)
}

type AssignmentSource interface {
	HasActiveElsewhere(ctx context.Context, driverID, excludeTrip types.ID) (bool, error)
}

// Service is read-only and advisory. It never reserves or locks a driver;
// the Validator is the authoritative gate at commit time.
type Service struct {
	trips       TripSource
	vehicles    VehicleSource
	drivers     DriverSource
	cargo       CargoSource
	assignments AssignmentSource
	prox        *ProximityScorer
	cfg         config.MatchingConfig
}

func NewService(
	trips TripSource,
	vehicles VehicleSource,
	drivers DriverSource,
	cargo CargoSource,
	assignments AssignmentSource,
	prox *ProximityScorer,
	cfg config.MatchingConfig,
) *Service {
	return &Service{
		trips:       trips,
		vehicles:    vehicles,
		drivers:     drivers,
		cargo:       cargo,
		assignments: assignments,
		prox:        prox,
		cfg:         cfg,
	}
}

// Recommend ranks candidate drivers for the trip. The result is a (possibly
// empty) list: per-candidate issues degrade that candidate, never the call.
func (s *Service) Recommend(ctx context.Context, tripID types.ID, limit int) ([]Candidate, error) {
	limit = s.clampLimit(limit)

	t, err := s.trips.Get(ctx, tripID)
	if err != nil {
		return nil, err
	}
	veh, err := s.vehicles.Get(ctx, t.VehicleID)
	if err != nil {
		return nil, err
	}
	cargoTons, err := s.cargo.TotalWeightByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	orders, err := s.cargo.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	tc := TripContext{Trip: t, Vehicle: veh, CargoTons: cargoTons}
	pickup := resolvePickup(t, orders)
	pickupType := firstPickupType(orders)

	pool, err := s.drivers.ListAvailableFit(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(pool))
	for _, d := range pool {
		c, err := s.scoreCandidate(ctx, tc, d, pickup, pickupType)
		if err != nil {
			log.Printf("score candidate driver=%s trip=%s: %v", d.ID, tripID, err)
			continue
		}
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Eligible != candidates[j].Eligible {
			return candidates[i].Eligible
		}
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Driver.ID < candidates[j].Driver.ID
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func (s *Service) scoreCandidate(ctx context.Context, tc TripContext, d driver.Driver, pickup *types.Point, pickupType string) (Candidate, error) {
	logs, err := s.drivers.ListWorkLogs(ctx, d.ID)
	if err != nil {
		return Candidate{}, err
	}
	comp := driver.ComplianceFromLogs(logs)

	busy, err := s.assignments.HasActiveElsewhere(ctx, d.ID, tc.Trip.ID)
	if err != nil {
		return Candidate{}, err
	}

	verdict := Evaluate(tc, d, comp, busy)

	score := 0
	reasons := verdict.Reasons()

	if verdict.RuleOK(RuleAvailability) {
		score += weightAvailability
	}
	if verdict.RuleOK(RuleRest) {
		score += weightRest
	}
	if verdict.RuleOK(RuleLicense) {
		score += weightLicense
	}
	if verdict.RuleOK(RuleCapacity) && tc.Vehicle.CapacityTons > 0 {
		// Heavier loads relative to capacity score higher: fuller trucks
		// are better matches than near-empty ones.
		util := tc.CargoTons / tc.Vehicle.CapacityTons
		bonus := int(math.Round(weightCapacityMax * util))
		score += bonus
		reasons = append(reasons, fmt.Sprintf("capacity utilization %.0f%% (+%d)", util*100, bonus))
	}
	if pickupType != "" {
		score += weightPickupBonus
		reasons = append(reasons, fmt.Sprintf("pickup type %q (+%d)", pickupType, weightPickupBonus))
	}

	prox := s.prox.Score(ctx, d.Location, pickup)
	if prox.Known {
		score += prox.Score
		reasons = append(reasons, fmt.Sprintf("%.1f km to pickup (+%d)", prox.DistanceKm, prox.Score))
	} else {
		reasons = append(reasons, "distance to pickup unknown")
	}

	if !verdict.Eligible {
		score -= ineligiblePenalty
		if score < 0 {
			score = 0
		}
	}

	return Candidate{
		Driver:     d,
		Eligible:   verdict.Eligible,
		Score:      score,
		Reasons:    reasons,
		Compliance: comp,
		Proximity:  prox,
	}, nil
}

func (s *Service) clampLimit(limit int) int {
	def, max := s.cfg.DefaultLimit, s.cfg.MaxLimit
	if def <= 0 {
		def = 10
	}
	if max <= 0 {
		max = 50
	}
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// resolvePickup picks the trip's pickup point: the first route waypoint,
// else the first order carrying pickup coordinates.
func resolvePickup(t *trip.Trip, orders []order.Order) *types.Point {
	if len(t.Waypoints) > 0 {
		p := t.Waypoints[0]
		return &p
	}
	for _, o := range orders {
		if o.Pickup != nil {
			p := *o.Pickup
			return &p
		}
	}
	return nil
}

func firstPickupType(orders []order.Order) string {
	for _, o := range orders {
		if o.PickupType != "" {
			return o.PickupType
		}
	}
	return ""
}
