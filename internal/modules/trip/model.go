// README: Trip aggregate, assignment sub-entity, and status definitions.
package trip

import (
	"fmt"
	"time"

	"fleetdispatch/internal/types"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusArrived    Status = "arrived"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// AllowedTransitions represents the trip state flow as code. Cancellation is
// reachable from every non-terminal state.
var AllowedTransitions = map[Status][]Status{
	StatusScheduled:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusArrived, StatusCompleted, StatusCancelled},
	StatusArrived:    {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// ParseStatus converts user input into a closed Status value.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusScheduled, StatusInProgress, StatusArrived, StatusCompleted, StatusCancelled:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: unknown trip status %q", ErrBadRequest, s)
}

type DelayStatus string

const (
	DelayNone     DelayStatus = ""
	DelayPending  DelayStatus = "pending"
	DelayApproved DelayStatus = "approved"
	DelayRejected DelayStatus = "rejected"
)

type Trip struct {
	ID                 types.ID
	VehicleID          types.ID
	Waypoints          []types.Point
	Status             Status
	StatusVersion      int
	ScheduledDeparture time.Time
	ScheduledArrival   time.Time
	ActualDeparture    *time.Time
	ActualArrival      *time.Time

	DelayReason         string
	DelayStatus         DelayStatus
	SLAExtensionMinutes int
	DelayAdminComment   string
}

// DelayMinutes is the trip's lateness after subtracting granted SLA
// extensions. Zero until an actual arrival exists; never negative.
func (t *Trip) DelayMinutes() int {
	if t.ActualArrival == nil {
		return 0
	}
	late := int(t.ActualArrival.Sub(t.ScheduledArrival).Minutes())
	d := late - t.SLAExtensionMinutes
	if d < 0 {
		return 0
	}
	return d
}

type AssignmentStatus string

const (
	AssignmentAssigned  AssignmentStatus = "assigned"
	AssignmentAccepted  AssignmentStatus = "accepted"
	AssignmentDeclined  AssignmentStatus = "declined"
	AssignmentCompleted AssignmentStatus = "completed"
)

// Assignment links one trip to one driver. A driver holds at most one
// assignment in assigned or accepted status at any time.
type Assignment struct {
	ID          int64
	TripID      types.ID
	DriverID    types.ID
	Role        string
	Status      AssignmentStatus
	AssignedAt  time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

type Event struct {
	ID         int64
	TripID     types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	CreatedAt  time.Time
}

// InvalidTransitionError names both ends of a rejected transition.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid trip status transition from %q to %q", e.From, e.To)
}
