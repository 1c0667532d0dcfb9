// README: Cargo order entity and status definitions.
package order

import (
	"fleetdispatch/internal/types"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAssigned  Status = "assigned"
	StatusDelivered Status = "delivered"
)

// Order is a single cargo unit. An order belongs to at most one trip.
type Order struct {
	ID         types.ID
	TripID     *types.ID
	CustomerID types.ID
	WeightTons float64
	PickupType string
	Pickup     *types.Point
	Status     Status
}
