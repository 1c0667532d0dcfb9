// README: Trip lifecycle service: guarded transitions and assignment commits.
package trip

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"fleetdispatch/internal/modules/driver"
	"fleetdispatch/internal/modules/order"
	"fleetdispatch/internal/notify"
	"fleetdispatch/internal/types"
)

var (
	ErrNotFound           = errors.New("trip not found")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("trip state conflict")
	ErrTripNotAssignable  = errors.New("trip is not in scheduled status")
	ErrActiveAssignment   = errors.New("driver already has an active trip assignment")
	ErrAssignmentNotFound = errors.New("no active assignment for trip")
	ErrNotAssigned        = errors.New("driver is not assigned to this trip")
)

// TripStore is the persistence surface the service needs. *Store implements
// it; tests substitute an in-memory fake.
type TripStore interface {
	Get(ctx context.Context, id types.ID) (*Trip, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int) (bool, error)
	UpdateDelay(ctx context.Context, id types.ID, version int, reason string, status DelayStatus, slaMinutes int, comment string) (bool, error)
	ActiveAssignment(ctx context.Context, tripID types.ID) (*Assignment, error)
	UpdateAssignmentStatus(ctx context.Context, id int64, from, to AssignmentStatus) (bool, error)
	MarkAssignmentStarted(ctx context.Context, id int64) error
	CommitAssignment(ctx context.Context, tripID, driverID types.ID, vehicleID *types.ID, validate func(context.Context) error) error
	AppendEvent(ctx context.Context, e *Event) error
}

type DriverDirectory interface {
	Get(ctx context.Context, id types.ID) (*driver.Driver, error)
	UpdateStatus(ctx context.Context, id types.ID, status driver.Status) error
	AppendWorkLog(ctx context.Context, l driver.WorkLog) error
}

type OrderBook interface {
	ListByTrip(ctx context.Context, tripID types.ID) ([]order.Order, error)
	MarkDeliveredByTrip(ctx context.Context, tripID types.ID) error
}

// AssignmentValidator is the authoritative commit-time gate. The advisory
// recommendation ranking may be stale; this check is not.
type AssignmentValidator interface {
	Validate(ctx context.Context, tripID, driverID types.ID, vehicleID *types.ID) error
}

type Service struct {
	store     TripStore
	drivers   DriverDirectory
	orders    OrderBook
	validator AssignmentValidator
	notifier  notify.Notifier
}

func NewService(store TripStore, drivers DriverDirectory, orders OrderBook, validator AssignmentValidator, notifier notify.Notifier) *Service {
	return &Service{store: store, drivers: drivers, orders: orders, validator: validator, notifier: notifier}
}

// View is the trip read model returned by the API.
type View struct {
	Trip         *Trip
	Assignment   *Assignment
	Orders       []order.Order
	DelayMinutes int
}

func (s *Service) View(ctx context.Context, id types.ID) (*View, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	asg, err := s.store.ActiveAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByTrip(ctx, id)
	if err != nil {
		return nil, err
	}
	return &View{Trip: t, Assignment: asg, Orders: orders, DelayMinutes: t.DelayMinutes()}, nil
}

// Transition drives the trip state machine. Completion fans out to orders,
// the active assignment, the driver, and the work log.
func (s *Service) Transition(ctx context.Context, tripID types.ID, to Status, actorType string) (*Trip, error) {
	t, err := s.store.Get(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(t.Status, to) {
		return nil, &InvalidTransitionError{From: t.Status, To: to}
	}

	ok, err := s.store.UpdateStatus(ctx, tripID, t.Status, to, t.StatusVersion)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		TripID:     tripID,
		FromStatus: t.Status,
		ToStatus:   to,
		ActorType:  actorType,
		CreatedAt:  time.Now(),
	})

	switch to {
	case StatusInProgress:
		if asg, err := s.store.ActiveAssignment(ctx, tripID); err == nil && asg != nil {
			if err := s.store.MarkAssignmentStarted(ctx, asg.ID); err != nil {
				log.Printf("mark assignment started trip=%s: %v", tripID, err)
			}
		}
	case StatusCompleted:
		if err := s.completeTrip(ctx, tripID); err != nil {
			return nil, err
		}
	case StatusCancelled:
		if err := s.releaseDriver(ctx, tripID, AssignmentDeclined); err != nil {
			return nil, err
		}
	}

	return s.store.Get(ctx, tripID)
}

// completeTrip marks the cargo delivered, completes the assignment, releases
// the driver, and appends the work log covering the actual driving period.
func (s *Service) completeTrip(ctx context.Context, tripID types.ID) error {
	t, err := s.store.Get(ctx, tripID)
	if err != nil {
		return err
	}

	if err := s.orders.MarkDeliveredByTrip(ctx, tripID); err != nil {
		return err
	}

	asg, err := s.store.ActiveAssignment(ctx, tripID)
	if err != nil {
		return err
	}
	if asg == nil {
		return nil
	}

	if _, err := s.store.UpdateAssignmentStatus(ctx, asg.ID, asg.Status, AssignmentCompleted); err != nil {
		return err
	}
	if err := s.drivers.UpdateStatus(ctx, asg.DriverID, driver.StatusAvailable); err != nil {
		return err
	}

	if t.ActualDeparture != nil && t.ActualArrival != nil {
		start, end := *t.ActualDeparture, *t.ActualArrival
		hours := end.Sub(start).Hours()
		wl := driver.WorkLog{
			DriverID:    asg.DriverID,
			TripID:      &t.ID,
			StartTime:   start,
			EndTime:     end,
			HoursWorked: hours,
		}
		if hours >= 8 {
			wl.RestHoursRequired = 8
			next := end.Add(8 * time.Hour)
			wl.NextAvailableTime = &next
		}
		if err := s.drivers.AppendWorkLog(ctx, wl); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) releaseDriver(ctx context.Context, tripID types.ID, to AssignmentStatus) error {
	asg, err := s.store.ActiveAssignment(ctx, tripID)
	if err != nil {
		return err
	}
	if asg == nil {
		return nil
	}
	if asg.Status != to {
		if _, err := s.store.UpdateAssignmentStatus(ctx, asg.ID, asg.Status, to); err != nil {
			return err
		}
	}
	return s.drivers.UpdateStatus(ctx, asg.DriverID, driver.StatusAvailable)
}

// Assign commits a driver (and optionally a different vehicle) to a trip.
// The validator runs under the driver row lock inside the same transaction
// as the assignment insert.
func (s *Service) Assign(ctx context.Context, tripID, driverID types.ID, vehicleID *types.ID) error {
	t, err := s.store.Get(ctx, tripID)
	if err != nil {
		return err
	}
	if t.Status != StatusScheduled {
		return fmt.Errorf("%w (current status %q)", ErrTripNotAssignable, t.Status)
	}

	err = s.store.CommitAssignment(ctx, tripID, driverID, vehicleID, func(ctx context.Context) error {
		return s.validator.Validate(ctx, tripID, driverID, vehicleID)
	})
	if err != nil {
		return err
	}

	_ = s.store.AppendEvent(ctx, &Event{
		TripID:     tripID,
		FromStatus: t.Status,
		ToStatus:   t.Status,
		ActorType:  "admin",
		ActorID:    &driverID,
		CreatedAt:  time.Now(),
	})
	s.notifyQuietly(ctx, notify.Notification{
		TargetType: notify.TargetDriver,
		TargetID:   driverID,
		Message:    fmt.Sprintf("You have been assigned to trip %s", tripID),
		Metadata:   map[string]string{"trip_id": string(tripID)},
	})
	return nil
}

// AcceptAssignment records the driver's acceptance.
func (s *Service) AcceptAssignment(ctx context.Context, tripID, driverID types.ID) error {
	asg, err := s.mustActiveAssignment(ctx, tripID)
	if err != nil {
		return err
	}
	if asg.DriverID != driverID {
		return ErrNotAssigned
	}
	ok, err := s.store.UpdateAssignmentStatus(ctx, asg.ID, AssignmentAssigned, AssignmentAccepted)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

// DeclineAssignment is terminal for the assignment and frees the driver.
func (s *Service) DeclineAssignment(ctx context.Context, tripID, driverID types.ID) error {
	asg, err := s.mustActiveAssignment(ctx, tripID)
	if err != nil {
		return err
	}
	if asg.DriverID != driverID {
		return ErrNotAssigned
	}
	ok, err := s.store.UpdateAssignmentStatus(ctx, asg.ID, AssignmentAssigned, AssignmentDeclined)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return s.drivers.UpdateStatus(ctx, driverID, driver.StatusAvailable)
}

// CancelAssignment rolls an accepted assignment back to assigned and returns
// the driver to the available pool for re-dispatch.
func (s *Service) CancelAssignment(ctx context.Context, tripID types.ID) error {
	asg, err := s.mustActiveAssignment(ctx, tripID)
	if err != nil {
		return err
	}
	if asg.Status == AssignmentAccepted {
		ok, err := s.store.UpdateAssignmentStatus(ctx, asg.ID, AssignmentAccepted, AssignmentAssigned)
		if err != nil {
			return err
		}
		if !ok {
			return ErrConflict
		}
	}
	return s.drivers.UpdateStatus(ctx, asg.DriverID, driver.StatusAvailable)
}

func (s *Service) mustActiveAssignment(ctx context.Context, tripID types.ID) (*Assignment, error) {
	if _, err := s.store.Get(ctx, tripID); err != nil {
		return nil, err
	}
	asg, err := s.store.ActiveAssignment(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if asg == nil {
		return nil, ErrAssignmentNotFound
	}
	return asg, nil
}

// notifyQuietly sends a notification and only logs failures; notification
// delivery never gates a state change.
func (s *Service) notifyQuietly(ctx context.Context, n notify.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		log.Printf("notify %s:%s failed: %v", n.TargetType, n.TargetID, err)
	}
}
