// README: Hard eligibility rules, each evaluated independently for full diagnostics.
package matching

import (
	"fmt"
	"strings"
	"time"

	"fleetdispatch/internal/modules/driver"
	"fleetdispatch/internal/modules/trip"
	"fleetdispatch/internal/modules/vehicle"
)

// Rule identifiers, in evaluation order.
const (
	RuleAvailability = "availability"
	RuleFitness      = "fitness"
	RuleRest         = "rest"
	RuleLicense      = "license"
	RuleCapacity     = "capacity"
	RuleConflict     = "conflict"
)

type RuleResult struct {
	Rule   string
	OK     bool
	Reason string
}

type Verdict struct {
	Eligible bool
	Rules    []RuleResult
}

func (v Verdict) Reasons() []string {
	out := make([]string, 0, len(v.Rules))
	for _, r := range v.Rules {
		out = append(out, r.Reason)
	}
	return out
}

func (v Verdict) RuleOK(rule string) bool {
	for _, r := range v.Rules {
		if r.Rule == rule {
			return r.OK
		}
	}
	return false
}

// TripContext is the resolved trip side of an eligibility evaluation.
type TripContext struct {
	Trip      *trip.Trip
	Vehicle   *vehicle.Vehicle
	CargoTons float64
	// At is the evaluation instant; zero means the scheduled departure.
	At time.Time
}

func (tc TripContext) at() time.Time {
	if tc.At.IsZero() {
		return tc.Trip.ScheduledDeparture
	}
	return tc.At
}

// Evaluate applies every hard gate to one candidate. A failing rule marks
// the verdict ineligible but evaluation continues, so callers always see the
// outcome of all rules.
func Evaluate(tc TripContext, d driver.Driver, comp driver.Compliance, busyElsewhere bool) Verdict {
	v := Verdict{Eligible: true}
	add := func(rule string, ok bool, reason string) {
		v.Rules = append(v.Rules, RuleResult{Rule: rule, OK: ok, Reason: reason})
		if !ok {
			v.Eligible = false
		}
	}

	if d.Status == driver.StatusAvailable {
		add(RuleAvailability, true, "driver is available")
	} else {
		add(RuleAvailability, false, fmt.Sprintf("driver status is %q, not available", d.Status))
	}

	if d.Health == driver.HealthFit {
		add(RuleFitness, true, "driver is fit for duty")
	} else {
		add(RuleFitness, false, fmt.Sprintf("driver health status is %q", d.Health))
	}

	if comp.CompliantAt(tc.at()) {
		add(RuleRest, true, "rest requirement satisfied")
	} else {
		add(RuleRest, false, fmt.Sprintf("driver is resting until %s", comp.NextAvailableTime.Format(time.RFC3339)))
	}

	required := tc.Vehicle.RequiredLicense
	if required == "" || strings.EqualFold(required, d.LicenseType) {
		add(RuleLicense, true, "license requirement satisfied")
	} else {
		add(RuleLicense, false, fmt.Sprintf("license %q does not match required %q", d.LicenseType, required))
	}

	if tc.CargoTons <= tc.Vehicle.CapacityTons {
		add(RuleCapacity, true, fmt.Sprintf("cargo %.2ft within vehicle capacity %.2ft", tc.CargoTons, tc.Vehicle.CapacityTons))
	} else {
		add(RuleCapacity, false, fmt.Sprintf("cargo %.2ft exceeds vehicle capacity %.2ft", tc.CargoTons, tc.Vehicle.CapacityTons))
	}

	if !busyElsewhere {
		add(RuleConflict, true, "no conflicting trip assignment")
	} else {
		add(RuleConflict, false, "driver already has an active assignment on another trip")
	}

	return v
}
