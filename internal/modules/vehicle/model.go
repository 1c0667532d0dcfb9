// README: Vehicle entity. Read-only from the dispatch engine's perspective.
package vehicle

import (
	"fleetdispatch/internal/types"
)

type Status string

const (
	StatusActive      Status = "active"
	StatusMaintenance Status = "maintenance"
	StatusRetired     Status = "retired"
)

type Vehicle struct {
	ID              types.ID
	Type            string
	RequiredLicense string
	CapacityTons    float64
	Location        *types.Point
	Status          Status
}
