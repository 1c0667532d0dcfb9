// README: Trip lifecycle service tests with in-memory fakes.
package trip

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleetdispatch/internal/modules/driver"
	"fleetdispatch/internal/modules/order"
	"fleetdispatch/internal/notify"
	"fleetdispatch/internal/types"
)

type fakeStore struct {
	trips       map[types.ID]*Trip
	assignments map[types.ID]*Assignment
	events      []Event
	nextAsgID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		trips:       make(map[types.ID]*Trip),
		assignments: make(map[types.ID]*Assignment),
		nextAsgID:   1,
	}
}

func (f *fakeStore) Get(ctx context.Context, id types.ID) (*Trip, error) {
	t, ok := f.trips[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int) (bool, error) {
	t, ok := f.trips[id]
	if !ok || t.Status != from || t.StatusVersion != version {
		return false, nil
	}
	t.Status = to
	t.StatusVersion++
	now := time.Now()
	if to == StatusInProgress && t.ActualDeparture == nil {
		t.ActualDeparture = &now
	}
	if to == StatusCompleted && t.ActualArrival == nil {
		t.ActualArrival = &now
	}
	return true, nil
}

func (f *fakeStore) UpdateDelay(ctx context.Context, id types.ID, version int, reason string, status DelayStatus, slaMinutes int, comment string) (bool, error) {
	t, ok := f.trips[id]
	if !ok || t.StatusVersion != version {
		return false, nil
	}
	t.DelayReason = reason
	t.DelayStatus = status
	t.SLAExtensionMinutes = slaMinutes
	t.DelayAdminComment = comment
	t.StatusVersion++
	return true, nil
}

func (f *fakeStore) ActiveAssignment(ctx context.Context, tripID types.ID) (*Assignment, error) {
	a, ok := f.assignments[tripID]
	if !ok || (a.Status != AssignmentAssigned && a.Status != AssignmentAccepted) {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *fakeStore) HasActiveElsewhere(ctx context.Context, driverID, excludeTrip types.ID) (bool, error) {
	for tripID, a := range f.assignments {
		if tripID == excludeTrip || a.DriverID != driverID {
			continue
		}
		if a.Status == AssignmentAssigned || a.Status == AssignmentAccepted {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) UpdateAssignmentStatus(ctx context.Context, id int64, from, to AssignmentStatus) (bool, error) {
	for _, a := range f.assignments {
		if a.ID != id {
			continue
		}
		if a.Status != from {
			return false, nil
		}
		a.Status = to
		if to == AssignmentCompleted {
			now := time.Now()
			a.CompletedAt = &now
		}
		return true, nil
	}
	return false, nil
}

func (f *fakeStore) MarkAssignmentStarted(ctx context.Context, id int64) error {
	for _, a := range f.assignments {
		if a.ID == id && a.StartedAt == nil {
			now := time.Now()
			a.StartedAt = &now
		}
	}
	return nil
}

func (f *fakeStore) CommitAssignment(ctx context.Context, tripID, driverID types.ID, vehicleID *types.ID, validate func(context.Context) error) error {
	if err := validate(ctx); err != nil {
		return err
	}
	if busy, _ := f.HasActiveElsewhere(ctx, driverID, tripID); busy {
		return ErrActiveAssignment
	}
	f.assignments[tripID] = &Assignment{
		ID:         f.nextAsgID,
		TripID:     tripID,
		DriverID:   driverID,
		Role:       "primary",
		Status:     AssignmentAssigned,
		AssignedAt: time.Now(),
	}
	f.nextAsgID++
	if vehicleID != nil {
		f.trips[tripID].VehicleID = *vehicleID
	}
	return nil
}

func (f *fakeStore) AppendEvent(ctx context.Context, e *Event) error {
	f.events = append(f.events, *e)
	return nil
}

type fakeDrivers struct {
	statuses map[types.ID]driver.Status
	logs     []driver.WorkLog
}

func newFakeDrivers() *fakeDrivers {
	return &fakeDrivers{statuses: make(map[types.ID]driver.Status)}
}

func (f *fakeDrivers) Get(ctx context.Context, id types.ID) (*driver.Driver, error) {
	st, ok := f.statuses[id]
	if !ok {
		return nil, driver.ErrNotFound
	}
	return &driver.Driver{ID: id, Status: st, Health: driver.HealthFit}, nil
}

func (f *fakeDrivers) UpdateStatus(ctx context.Context, id types.ID, status driver.Status) error {
	f.statuses[id] = status
	return nil
}

func (f *fakeDrivers) AppendWorkLog(ctx context.Context, l driver.WorkLog) error {
	f.logs = append(f.logs, l)
	return nil
}

type fakeOrders struct {
	orders    []order.Order
	delivered bool
}

func (f *fakeOrders) ListByTrip(ctx context.Context, tripID types.ID) ([]order.Order, error) {
	return f.orders, nil
}

func (f *fakeOrders) MarkDeliveredByTrip(ctx context.Context, tripID types.ID) error {
	f.delivered = true
	return nil
}

type validatorFunc func(ctx context.Context, tripID, driverID types.ID, vehicleID *types.ID) error

func (fn validatorFunc) Validate(ctx context.Context, tripID, driverID types.ID, vehicleID *types.ID) error {
	return fn(ctx, tripID, driverID, vehicleID)
}

var passValidator = validatorFunc(func(ctx context.Context, tripID, driverID types.ID, vehicleID *types.ID) error {
	return nil
})

type captureNotifier struct {
	msgs []notify.Notification
}

func (n *captureNotifier) Notify(ctx context.Context, msg notify.Notification) error {
	n.msgs = append(n.msgs, msg)
	return nil
}

func seedTrip(store *fakeStore, id types.ID, status Status) *Trip {
	t := &Trip{
		ID:                 id,
		VehicleID:          "veh-1",
		Status:             status,
		ScheduledDeparture: time.Now().Add(time.Hour),
		ScheduledArrival:   time.Now().Add(5 * time.Hour),
	}
	store.trips[id] = t
	return t
}

func seedAssignment(store *fakeStore, tripID, driverID types.ID, status AssignmentStatus) *Assignment {
	a := &Assignment{
		ID:         store.nextAsgID,
		TripID:     tripID,
		DriverID:   driverID,
		Status:     status,
		AssignedAt: time.Now(),
	}
	store.nextAsgID++
	store.assignments[tripID] = a
	return a
}

func TestTransitionRejectsInvalid(t *testing.T) {
	store := newFakeStore()
	seedTrip(store, "trip-1", StatusScheduled)
	svc := NewService(store, newFakeDrivers(), &fakeOrders{}, passValidator, nil)

	_, err := svc.Transition(context.Background(), "trip-1", StatusArrived, "admin")
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("scheduled -> arrived: err = %v, want InvalidTransitionError", err)
	}
	if invalid.From != StatusScheduled || invalid.To != StatusArrived {
		t.Errorf("error names %s -> %s, want scheduled -> arrived", invalid.From, invalid.To)
	}
	if len(store.events) != 0 {
		t.Error("rejected transition must not append a state event")
	}
}

func TestTransitionStartStampsDepartureAndAssignment(t *testing.T) {
	store := newFakeStore()
	seedTrip(store, "trip-1", StatusScheduled)
	seedAssignment(store, "trip-1", "drv-1", AssignmentAccepted)
	svc := NewService(store, newFakeDrivers(), &fakeOrders{}, passValidator, nil)

	got, err := svc.Transition(context.Background(), "trip-1", StatusInProgress, "driver")
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if got.Status != StatusInProgress {
		t.Errorf("status = %s, want in_progress", got.Status)
	}
	if got.ActualDeparture == nil {
		t.Error("actual departure not stamped")
	}
	if store.assignments["trip-1"].StartedAt == nil {
		t.Error("assignment start not stamped")
	}
	if len(store.events) != 1 || store.events[0].ToStatus != StatusInProgress {
		t.Errorf("events = %+v, want one scheduled->in_progress event", store.events)
	}
}

func TestCompletionFanOut(t *testing.T) {
	store := newFakeStore()
	trip := seedTrip(store, "trip-1", StatusInProgress)
	departed := time.Now().Add(-9 * time.Hour)
	trip.ActualDeparture = &departed
	seedAssignment(store, "trip-1", "drv-1", AssignmentAccepted)

	drivers := newFakeDrivers()
	drivers.statuses["drv-1"] = driver.StatusInUse
	orders := &fakeOrders{orders: []order.Order{{ID: "ord-1", CustomerID: "cust-1"}}}
	svc := NewService(store, drivers, orders, passValidator, nil)

	got, err := svc.Transition(context.Background(), "trip-1", StatusCompleted, "driver")
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if got.Status != StatusCompleted || got.ActualArrival == nil {
		t.Fatalf("trip = %+v, want completed with actual arrival", got)
	}
	if !orders.delivered {
		t.Error("orders not marked delivered")
	}
	if store.assignments["trip-1"].Status != AssignmentCompleted {
		t.Errorf("assignment status = %s, want completed", store.assignments["trip-1"].Status)
	}
	if drivers.statuses["drv-1"] != driver.StatusAvailable {
		t.Errorf("driver status = %s, want available", drivers.statuses["drv-1"])
	}

	// ~9 hours on the road crosses the rest threshold.
	if len(drivers.logs) != 1 {
		t.Fatalf("work logs = %d, want 1", len(drivers.logs))
	}
	wl := drivers.logs[0]
	if wl.HoursWorked < 8.9 || wl.HoursWorked > 9.1 {
		t.Errorf("HoursWorked = %v, want ~9", wl.HoursWorked)
	}
	if wl.RestHoursRequired != 8 || wl.NextAvailableTime == nil {
		t.Errorf("work log = %+v, want 8h rest with next available time", wl)
	}
}

func TestCompletionShortTripNoRest(t *testing.T) {
	store := newFakeStore()
	trip := seedTrip(store, "trip-1", StatusInProgress)
	departed := time.Now().Add(-3 * time.Hour)
	trip.ActualDeparture = &departed
	seedAssignment(store, "trip-1", "drv-1", AssignmentAccepted)

	drivers := newFakeDrivers()
	drivers.statuses["drv-1"] = driver.StatusInUse
	svc := NewService(store, drivers, &fakeOrders{}, passValidator, nil)

	if _, err := svc.Transition(context.Background(), "trip-1", StatusCompleted, "driver"); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if len(drivers.logs) != 1 {
		t.Fatalf("work logs = %d, want 1", len(drivers.logs))
	}
	if wl := drivers.logs[0]; wl.RestHoursRequired != 0 || wl.NextAvailableTime != nil {
		t.Errorf("3h trip must not require rest, got %+v", wl)
	}
}

func TestCancelReleasesDriver(t *testing.T) {
	store := newFakeStore()
	seedTrip(store, "trip-1", StatusInProgress)
	seedAssignment(store, "trip-1", "drv-1", AssignmentAccepted)
	drivers := newFakeDrivers()
	drivers.statuses["drv-1"] = driver.StatusInUse
	svc := NewService(store, drivers, &fakeOrders{}, passValidator, nil)

	if _, err := svc.Transition(context.Background(), "trip-1", StatusCancelled, "admin"); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if store.assignments["trip-1"].Status != AssignmentDeclined {
		t.Errorf("assignment status = %s, want declined", store.assignments["trip-1"].Status)
	}
	if drivers.statuses["drv-1"] != driver.StatusAvailable {
		t.Errorf("driver status = %s, want available", drivers.statuses["drv-1"])
	}
}

func TestAssignHappyPath(t *testing.T) {
	store := newFakeStore()
	seedTrip(store, "trip-1", StatusScheduled)
	notifier := &captureNotifier{}
	svc := NewService(store, newFakeDrivers(), &fakeOrders{}, passValidator, notifier)

	if err := svc.Assign(context.Background(), "trip-1", "drv-1", nil); err != nil {
		t.Fatalf("assign: %v", err)
	}
	a := store.assignments["trip-1"]
	if a == nil || a.DriverID != "drv-1" || a.Status != AssignmentAssigned {
		t.Fatalf("assignment = %+v, want drv-1 assigned", a)
	}
	if len(notifier.msgs) != 1 || notifier.msgs[0].TargetType != notify.TargetDriver || notifier.msgs[0].TargetID != "drv-1" {
		t.Errorf("notifications = %+v, want one driver notification", notifier.msgs)
	}
}

func TestAssignRejectsNonScheduledTrip(t *testing.T) {
	store := newFakeStore()
	seedTrip(store, "trip-1", StatusInProgress)
	svc := NewService(store, newFakeDrivers(), &fakeOrders{}, passValidator, nil)

	err := svc.Assign(context.Background(), "trip-1", "drv-1", nil)
	if !errors.Is(err, ErrTripNotAssignable) {
		t.Errorf("err = %v, want ErrTripNotAssignable", err)
	}
}

func TestAssignValidatorFailurePreventsAssignment(t *testing.T) {
	store := newFakeStore()
	seedTrip(store, "trip-1", StatusScheduled)
	boom := errors.New("driver failed validation")
	rejecting := validatorFunc(func(ctx context.Context, tripID, driverID types.ID, vehicleID *types.ID) error {
		return boom
	})
	svc := NewService(store, newFakeDrivers(), &fakeOrders{}, rejecting, nil)

	if err := svc.Assign(context.Background(), "trip-1", "drv-1", nil); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want validator error", err)
	}
	if store.assignments["trip-1"] != nil {
		t.Error("failed validation must not create an assignment")
	}
}

func TestAssignSecondActiveTripRejected(t *testing.T) {
	store := newFakeStore()
	seedTrip(store, "trip-1", StatusScheduled)
	seedTrip(store, "trip-2", StatusScheduled)
	svc := NewService(store, newFakeDrivers(), &fakeOrders{}, passValidator, nil)

	if err := svc.Assign(context.Background(), "trip-1", "drv-1", nil); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	if err := svc.Assign(context.Background(), "trip-2", "drv-1", nil); !errors.Is(err, ErrActiveAssignment) {
		t.Errorf("second assign err = %v, want ErrActiveAssignment", err)
	}
}

func TestAcceptAssignment(t *testing.T) {
	store := newFakeStore()
	seedTrip(store, "trip-1", StatusScheduled)
	seedAssignment(store, "trip-1", "drv-1", AssignmentAssigned)
	svc := NewService(store, newFakeDrivers(), &fakeOrders{}, passValidator, nil)

	if err := svc.AcceptAssignment(context.Background(), "trip-1", "drv-2"); !errors.Is(err, ErrNotAssigned) {
		t.Errorf("wrong driver err = %v, want ErrNotAssigned", err)
	}
	if err := svc.AcceptAssignment(context.Background(), "trip-1", "drv-1"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if store.assignments["trip-1"].Status != AssignmentAccepted {
		t.Errorf("status = %s, want accepted", store.assignments["trip-1"].Status)
	}
}

func TestDeclineAssignmentFreesDriver(t *testing.T) {
	store := newFakeStore()
	seedTrip(store, "trip-1", StatusScheduled)
	seedAssignment(store, "trip-1", "drv-1", AssignmentAssigned)
	drivers := newFakeDrivers()
	drivers.statuses["drv-1"] = driver.StatusInUse
	svc := NewService(store, drivers, &fakeOrders{}, passValidator, nil)

	if err := svc.DeclineAssignment(context.Background(), "trip-1", "drv-1"); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if store.assignments["trip-1"].Status != AssignmentDeclined {
		t.Errorf("status = %s, want declined", store.assignments["trip-1"].Status)
	}
	if drivers.statuses["drv-1"] != driver.StatusAvailable {
		t.Errorf("driver status = %s, want available", drivers.statuses["drv-1"])
	}
}

func TestCancelAssignmentRollsBackToAssigned(t *testing.T) {
	store := newFakeStore()
	seedTrip(store, "trip-1", StatusScheduled)
	seedAssignment(store, "trip-1", "drv-1", AssignmentAccepted)
	drivers := newFakeDrivers()
	drivers.statuses["drv-1"] = driver.StatusInUse
	svc := NewService(store, drivers, &fakeOrders{}, passValidator, nil)

	if err := svc.CancelAssignment(context.Background(), "trip-1"); err != nil {
		t.Fatalf("cancel assignment: %v", err)
	}
	if store.assignments["trip-1"].Status != AssignmentAssigned {
		t.Errorf("status = %s, want assigned", store.assignments["trip-1"].Status)
	}
	if drivers.statuses["drv-1"] != driver.StatusAvailable {
		t.Errorf("driver status = %s, want available", drivers.statuses["drv-1"])
	}
}

func TestCancelAssignmentWithoutActive(t *testing.T) {
	store := newFakeStore()
	seedTrip(store, "trip-1", StatusScheduled)
	svc := NewService(store, newFakeDrivers(), &fakeOrders{}, passValidator, nil)

	if err := svc.CancelAssignment(context.Background(), "trip-1"); !errors.Is(err, ErrAssignmentNotFound) {
		t.Errorf("err = %v, want ErrAssignmentNotFound", err)
	}
}
