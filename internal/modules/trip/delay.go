// README: Delay resolution workflow: driver submissions and admin adjudication.
package trip

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"fleetdispatch/internal/notify"
	"fleetdispatch/internal/types"
)

var (
	ErrDelayBlocked  = errors.New("delay submissions are closed: an SLA extension was already granted for this trip")
	ErrNoDelayReport = errors.New("no delay report found for trip")
)

// Admin responses to a delay report.
const (
	DelayResponseApproved = "APPROVED"
	DelayResponseRejected = "REJECTED"
)

const defaultExtensionMinutes = 30

// ReportDelay records a driver's delay report and flags it for adjudication.
// Once a delay has been approved with a non-zero extension the trip accepts
// no further submissions; repeat extensions are admin-initiated through
// RespondDelay. (Kept as the observed business rule, asymmetry and all.)
func (s *Service) ReportDelay(ctx context.Context, driverID, tripID types.ID, reason string) (*Trip, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: delay reason is required", ErrBadRequest)
	}

	t, err := s.store.Get(ctx, tripID)
	if err != nil {
		return nil, err
	}
	asg, err := s.store.ActiveAssignment(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if asg == nil || asg.DriverID != driverID {
		return nil, ErrNotAssigned
	}

	if t.DelayStatus == DelayApproved && t.SLAExtensionMinutes > 0 {
		return nil, ErrDelayBlocked
	}

	// Reset to pending and clear any prior admin comment; the accumulated
	// extension minutes are never reset.
	ok, err := s.store.UpdateDelay(ctx, tripID, t.StatusVersion, reason, DelayPending, t.SLAExtensionMinutes, "")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	s.notifyQuietly(ctx, notify.Notification{
		TargetType: notify.TargetAdmin,
		TargetID:   "dispatch",
		Message:    fmt.Sprintf("Driver %s reported a delay on trip %s: %s", driverID, tripID, reason),
		Metadata:   map[string]string{"trip_id": string(tripID), "driver_id": string(driverID)},
	})

	return s.store.Get(ctx, tripID)
}

// RespondDelay adjudicates the pending delay report. Approvals accumulate
// extension minutes; rejections leave them untouched.
func (s *Service) RespondDelay(ctx context.Context, tripID types.ID, responseType string, extensionMinutes int, comment string) (*Trip, error) {
	t, err := s.store.Get(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if t.DelayStatus == DelayNone {
		return nil, ErrNoDelayReport
	}

	var message string
	switch strings.ToUpper(strings.TrimSpace(responseType)) {
	case DelayResponseApproved:
		ext := extensionMinutes
		if ext <= 0 {
			ext = defaultExtensionMinutes
		}
		newTotal := t.SLAExtensionMinutes + ext
		ok, err := s.store.UpdateDelay(ctx, tripID, t.StatusVersion, t.DelayReason, DelayApproved, newTotal, comment)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrConflict
		}
		if t.SLAExtensionMinutes == 0 {
			message = fmt.Sprintf("Delay approved, SLA extended by %d minutes", ext)
		} else {
			message = fmt.Sprintf("SLA extended further by %d minutes, new total %d minutes", ext, newTotal)
		}
	case DelayResponseRejected:
		ok, err := s.store.UpdateDelay(ctx, tripID, t.StatusVersion, t.DelayReason, DelayRejected, t.SLAExtensionMinutes, comment)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrConflict
		}
		message = "Delay report rejected"
	default:
		return nil, fmt.Errorf("%w: invalid delay response type %q", ErrBadRequest, responseType)
	}

	s.notifyDelayOutcome(ctx, tripID, message)

	return s.store.Get(ctx, tripID)
}

// notifyDelayOutcome informs the assigned driver and every customer with
// cargo on the trip. Target resolution failures are logged, never fatal.
func (s *Service) notifyDelayOutcome(ctx context.Context, tripID types.ID, message string) {
	meta := map[string]string{"trip_id": string(tripID)}

	asg, err := s.store.ActiveAssignment(ctx, tripID)
	if err != nil {
		log.Printf("resolve assignment for delay notification trip=%s: %v", tripID, err)
	} else if asg != nil {
		s.notifyQuietly(ctx, notify.Notification{
			TargetType: notify.TargetDriver,
			TargetID:   asg.DriverID,
			Message:    message,
			Metadata:   meta,
		})
	}

	orders, err := s.orders.ListByTrip(ctx, tripID)
	if err != nil {
		log.Printf("resolve orders for delay notification trip=%s: %v", tripID, err)
		return
	}
	for _, o := range orders {
		if o.CustomerID == "" {
			continue
		}
		s.notifyQuietly(ctx, notify.Notification{
			TargetType: notify.TargetCustomer,
			TargetID:   o.CustomerID,
			Message:    message,
			Metadata:   meta,
		})
	}
}
