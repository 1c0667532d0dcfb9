// README: Commit-time assignment validation, re-deriving every hard gate.
package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleetdispatch/internal/modules/driver"
	"fleetdispatch/internal/modules/trip"
	"fleetdispatch/internal/types"
)

var (
	ErrDriverNotAvailable = errors.New("driver is not available")
	ErrDriverUnfit        = errors.New("driver is not fit for duty")
	ErrDriverResting      = errors.New("driver has not completed mandatory rest")
	ErrLicenseMismatch    = errors.New("driver license does not match vehicle requirement")
	ErrCapacityExceeded   = errors.New("trip cargo exceeds vehicle capacity")
)

// Validator is the authoritative gate behind trip assignment. It never trusts
// a prior recommendation: every rule is re-derived from current state, so a
// driver who went off shift between ranking and commit is still rejected.
type Validator struct {
	trips       TripSource
	vehicles    VehicleSource
	drivers     DriverSource
	cargo       CargoSource
	assignments AssignmentSource
}

func NewValidator(trips TripSource, vehicles VehicleSource, drivers DriverSource, cargo CargoSource, assignments AssignmentSource) *Validator {
	return &Validator{
		trips:       trips,
		vehicles:    vehicles,
		drivers:     drivers,
		cargo:       cargo,
		assignments: assignments,
	}
}

// Validate implements trip.AssignmentValidator. vehicleID, when set,
// overrides the trip's own vehicle for the license and capacity checks.
func (v *Validator) Validate(ctx context.Context, tripID, driverID types.ID, vehicleID *types.ID) error {
	t, err := v.trips.Get(ctx, tripID)
	if err != nil {
		return err
	}

	vehID := t.VehicleID
	if vehicleID != nil {
		vehID = *vehicleID
	}
	veh, err := v.vehicles.Get(ctx, vehID)
	if err != nil {
		return err
	}

	d, err := v.drivers.Get(ctx, driverID)
	if err != nil {
		return err
	}

	cargoTons, err := v.cargo.TotalWeightByTrip(ctx, tripID)
	if err != nil {
		return err
	}

	logs, err := v.drivers.ListWorkLogs(ctx, driverID)
	if err != nil {
		return err
	}
	comp := driver.ComplianceFromLogs(logs)

	busy, err := v.assignments.HasActiveElsewhere(ctx, driverID, tripID)
	if err != nil {
		return err
	}

	tc := TripContext{Trip: t, Vehicle: veh, CargoTons: cargoTons}
	verdict := Evaluate(tc, *d, comp, busy)
	if verdict.Eligible {
		return nil
	}

	// Surface the first failing gate as a typed error.
	for _, r := range verdict.Rules {
		if r.OK {
			continue
		}
		switch r.Rule {
		case RuleAvailability:
			return fmt.Errorf("%w: status %q", ErrDriverNotAvailable, d.Status)
		case RuleFitness:
			return fmt.Errorf("%w: health %q", ErrDriverUnfit, d.Health)
		case RuleRest:
			return fmt.Errorf("%w: available again at %s", ErrDriverResting, comp.NextAvailableTime.Format(time.RFC3339))
		case RuleLicense:
			return fmt.Errorf("%w: has %q, requires %q", ErrLicenseMismatch, d.LicenseType, veh.RequiredLicense)
		case RuleCapacity:
			return fmt.Errorf("%w: %.2ft cargo against %.2ft capacity", ErrCapacityExceeded, cargoTons, veh.CapacityTons)
		case RuleConflict:
			return trip.ErrActiveAssignment
		}
	}
	return errors.New("driver failed assignment validation")
}
