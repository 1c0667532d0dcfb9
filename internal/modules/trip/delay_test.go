// README: Delay workflow tests: submission block, accumulation, adjudication.
package trip

import (
	"context"
	"errors"
	"testing"

	"fleetdispatch/internal/modules/order"
	"fleetdispatch/internal/notify"
)

func delayFixture(t *testing.T) (*fakeStore, *Service, *captureNotifier) {
	t.Helper()
	store := newFakeStore()
	seedTrip(store, "trip-1", StatusInProgress)
	seedAssignment(store, "trip-1", "drv-1", AssignmentAccepted)
	notifier := &captureNotifier{}
	orders := &fakeOrders{orders: []order.Order{
		{ID: "ord-1", CustomerID: "cust-1"},
		{ID: "ord-2", CustomerID: "cust-2"},
	}}
	svc := NewService(store, newFakeDrivers(), orders, passValidator, notifier)
	return store, svc, notifier
}

func TestReportDelayRequiresReason(t *testing.T) {
	_, svc, _ := delayFixture(t)
	_, err := svc.ReportDelay(context.Background(), "drv-1", "trip-1", "   ")
	if !errors.Is(err, ErrBadRequest) {
		t.Errorf("err = %v, want ErrBadRequest", err)
	}
}

func TestReportDelayRequiresAssignedDriver(t *testing.T) {
	_, svc, _ := delayFixture(t)
	_, err := svc.ReportDelay(context.Background(), "drv-other", "trip-1", "flat tire")
	if !errors.Is(err, ErrNotAssigned) {
		t.Errorf("err = %v, want ErrNotAssigned", err)
	}
}

func TestReportDelayNotifiesAdmin(t *testing.T) {
	store, svc, notifier := delayFixture(t)

	got, err := svc.ReportDelay(context.Background(), "drv-1", "trip-1", "flat tire")
	if err != nil {
		t.Fatalf("report delay: %v", err)
	}
	if got.DelayStatus != DelayPending || got.DelayReason != "flat tire" {
		t.Errorf("trip delay = %s %q, want pending with reason", got.DelayStatus, got.DelayReason)
	}
	if len(notifier.msgs) != 1 || notifier.msgs[0].TargetType != notify.TargetAdmin {
		t.Errorf("notifications = %+v, want one admin notification", notifier.msgs)
	}
	if store.trips["trip-1"].DelayAdminComment != "" {
		t.Error("prior admin comment must be cleared on resubmission")
	}
}

// Once an extension has been granted the trip accepts no further
// submissions, even after a later rejection would seem to reopen it.
func TestReportDelayBlockedAfterApproval(t *testing.T) {
	_, svc, _ := delayFixture(t)
	ctx := context.Background()

	if _, err := svc.ReportDelay(ctx, "drv-1", "trip-1", "flat tire"); err != nil {
		t.Fatalf("report: %v", err)
	}
	if _, err := svc.RespondDelay(ctx, "trip-1", "APPROVED", 30, "ok"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	_, err := svc.ReportDelay(ctx, "drv-1", "trip-1", "traffic")
	if !errors.Is(err, ErrDelayBlocked) {
		t.Errorf("err = %v, want ErrDelayBlocked", err)
	}
}

func TestReportDelayAllowedAfterRejection(t *testing.T) {
	_, svc, _ := delayFixture(t)
	ctx := context.Background()

	if _, err := svc.ReportDelay(ctx, "drv-1", "trip-1", "flat tire"); err != nil {
		t.Fatalf("report: %v", err)
	}
	if _, err := svc.RespondDelay(ctx, "trip-1", "REJECTED", 0, "not credible"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	got, err := svc.ReportDelay(ctx, "drv-1", "trip-1", "second attempt")
	if err != nil {
		t.Fatalf("resubmit after rejection: %v", err)
	}
	if got.DelayStatus != DelayPending || got.DelayReason != "second attempt" {
		t.Errorf("trip delay = %s %q, want pending resubmission", got.DelayStatus, got.DelayReason)
	}
}

func TestRespondDelayWithoutReport(t *testing.T) {
	_, svc, _ := delayFixture(t)
	_, err := svc.RespondDelay(context.Background(), "trip-1", "APPROVED", 30, "")
	if !errors.Is(err, ErrNoDelayReport) {
		t.Errorf("err = %v, want ErrNoDelayReport", err)
	}
}

func TestRespondDelayInvalidType(t *testing.T) {
	_, svc, _ := delayFixture(t)
	ctx := context.Background()
	if _, err := svc.ReportDelay(ctx, "drv-1", "trip-1", "flat tire"); err != nil {
		t.Fatalf("report: %v", err)
	}
	_, err := svc.RespondDelay(ctx, "trip-1", "MAYBE", 30, "")
	if !errors.Is(err, ErrBadRequest) {
		t.Errorf("err = %v, want ErrBadRequest", err)
	}
}

func TestRespondDelayDefaultExtension(t *testing.T) {
	_, svc, _ := delayFixture(t)
	ctx := context.Background()
	if _, err := svc.ReportDelay(ctx, "drv-1", "trip-1", "flat tire"); err != nil {
		t.Fatalf("report: %v", err)
	}

	got, err := svc.RespondDelay(ctx, "trip-1", "APPROVED", 0, "")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got.SLAExtensionMinutes != 30 {
		t.Errorf("SLA extension = %d, want default 30", got.SLAExtensionMinutes)
	}
	if got.DelayStatus != DelayApproved {
		t.Errorf("delay status = %s, want approved", got.DelayStatus)
	}
}

// Approvals accumulate; the total never decreases.
func TestRespondDelayAccumulates(t *testing.T) {
	store, svc, notifier := delayFixture(t)
	ctx := context.Background()
	if _, err := svc.ReportDelay(ctx, "drv-1", "trip-1", "flat tire"); err != nil {
		t.Fatalf("report: %v", err)
	}

	got, err := svc.RespondDelay(ctx, "trip-1", "APPROVED", 20, "first")
	if err != nil {
		t.Fatalf("first approve: %v", err)
	}
	if got.SLAExtensionMinutes != 20 {
		t.Fatalf("after first approval SLA = %d, want 20", got.SLAExtensionMinutes)
	}

	// Repeat approvals are admin-initiated; submissions are closed but
	// RespondDelay can still extend.
	got, err = svc.RespondDelay(ctx, "trip-1", "APPROVED", 15, "second")
	if err != nil {
		t.Fatalf("second approve: %v", err)
	}
	if got.SLAExtensionMinutes != 35 {
		t.Errorf("after second approval SLA = %d, want 35", got.SLAExtensionMinutes)
	}

	// Driver plus both customers, per adjudication.
	driverMsgs, customerMsgs := 0, 0
	for _, m := range notifier.msgs {
		switch m.TargetType {
		case notify.TargetDriver:
			driverMsgs++
		case notify.TargetCustomer:
			customerMsgs++
		}
	}
	if driverMsgs != 2 || customerMsgs != 4 {
		t.Errorf("driver msgs = %d, customer msgs = %d, want 2 and 4", driverMsgs, customerMsgs)
	}
	if store.trips["trip-1"].DelayAdminComment != "second" {
		t.Errorf("admin comment = %q, want latest", store.trips["trip-1"].DelayAdminComment)
	}
}

func TestRespondDelayRejectionKeepsExtension(t *testing.T) {
	_, svc, _ := delayFixture(t)
	ctx := context.Background()
	if _, err := svc.ReportDelay(ctx, "drv-1", "trip-1", "flat tire"); err != nil {
		t.Fatalf("report: %v", err)
	}
	if _, err := svc.RespondDelay(ctx, "trip-1", "APPROVED", 25, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}

	got, err := svc.RespondDelay(ctx, "trip-1", "REJECTED", 99, "no more")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got.SLAExtensionMinutes != 25 {
		t.Errorf("rejection changed SLA to %d, want 25 untouched", got.SLAExtensionMinutes)
	}
	if got.DelayStatus != DelayRejected {
		t.Errorf("delay status = %s, want rejected", got.DelayStatus)
	}
}
