// README: Driver aggregate, work logs, and status definitions.
package driver

import (
	"time"

	"fleetdispatch/internal/types"
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusInUse     Status = "in_use"
	StatusInactive  Status = "inactive"
)

type HealthStatus string

const (
	HealthFit     HealthStatus = "fit"
	HealthSick    HealthStatus = "sick"
	HealthResting HealthStatus = "resting"
)

type Driver struct {
	ID          types.ID
	Name        string
	Phone       string
	LicenseType string
	Health      HealthStatus
	Status      Status
	Location    *types.Point
	Rating      float64
}

// WorkLog is one completed work period. Rows are append-only; they are never
// mutated after creation.
type WorkLog struct {
	ID                int64
	DriverID          types.ID
	TripID            *types.ID
	StartTime         time.Time
	EndTime           time.Time
	HoursWorked       float64
	RestHoursRequired float64
	NextAvailableTime *time.Time
}
