package services

import (
	"errors"
	"testing"

	"github.com/reparto-ops/dispatch-backend/internal/models"
	"github.com/reparto-ops/dispatch-backend/internal/storage"
)

type lifecycleFixture struct {
	store    *storage.MemoryStore
	checkIn  *CheckInService
	dispatch *DispatchService
	bags     *BagService
}

func newLifecycleFixture() *lifecycleFixture {
	store := storage.NewMemoryStore()
	return &lifecycleFixture{
		store:    store,
		checkIn:  NewCheckInService(store, nil),
		dispatch: NewDispatchService(store),
		bags:     NewBagService(store),
	}
}

func (f *lifecycleFixture) mustCheckIn(t *testing.T, name, device string) *models.Driver {
	t.Helper()
	if _, _, err := f.checkIn.CheckIn(checkInRequest(name, device)); err != nil {
		t.Fatalf("check-in for %s failed: %v", name, err)
	}
	driver, err := f.store.GetDriverByName(name)
	if err != nil {
		t.Fatalf("driver %s missing after check-in", name)
	}
	return driver
}

func TestDispatchMarksDriverOutWithBags(t *testing.T) {
	f := newLifecycleFixture()
	ana := f.mustCheckIn(t, "Ana", "dev-a")

	rec, err := f.dispatch.Dispatch(ana.DriverID, 5, "Centro")
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if rec.Status != models.DispatchStatusDispatched {
		t.Fatalf("expected dispatched record, got %s", rec.Status)
	}
	if rec.BagsTaken != 5 || rec.DestinationArea != "Centro" {
		t.Fatalf("record not stamped: %+v", rec)
	}

	ana, _ = f.store.GetDriver(ana.DriverID)
	if ana.Status != models.DriverStatusDispatched {
		t.Fatalf("expected dispatched driver, got %s", ana.Status)
	}
	if ana.BagBalance != 5 {
		t.Fatalf("expected bag balance 5, got %d", ana.BagBalance)
	}
}

func TestDispatchRequiresQueuedRecord(t *testing.T) {
	f := newLifecycleFixture()
	driver, _ := f.store.CreateDriver(&models.DriverRegistration{Name: "Ana"})

	if _, err := f.dispatch.Dispatch(driver.DriverID, 1, ""); !errors.Is(err, storage.ErrNoActiveRecord) {
		t.Fatalf("expected ErrNoActiveRecord, got %v", err)
	}
	if _, err := f.dispatch.Dispatch(driver.DriverID, -1, ""); !errors.Is(err, ErrInvalidBagCount) {
		t.Fatalf("expected ErrInvalidBagCount, got %v", err)
	}
}

func TestEndShiftFailsAtomicallyWhileQueued(t *testing.T) {
	f := newLifecycleFixture()
	ana := f.mustCheckIn(t, "Ana", "dev-a")
	bea := f.mustCheckIn(t, "Bea", "dev-b")

	if _, err := f.dispatch.Dispatch(ana.DriverID, 3, ""); err != nil {
		t.Fatal(err)
	}

	if _, err := f.dispatch.EndShift(); !errors.Is(err, storage.ErrQueueNotEmpty) {
		t.Fatalf("expected ErrQueueNotEmpty, got %v", err)
	}

	// Nothing moved: Ana is still out, Bea still queued.
	ana, _ = f.store.GetDriver(ana.DriverID)
	if ana.Status != models.DriverStatusDispatched {
		t.Fatalf("end-shift failure must not touch dispatched drivers, got %s", ana.Status)
	}
	bea, _ = f.store.GetDriver(bea.DriverID)
	if bea.Status != models.DriverStatusWaiting {
		t.Fatalf("end-shift failure must not touch queued drivers, got %s", bea.Status)
	}

	// After cancelling Bea the shift can end.
	if err := f.dispatch.Cancel(bea.DriverID); err != nil {
		t.Fatal(err)
	}
	ended, err := f.dispatch.EndShift()
	if err != nil {
		t.Fatalf("end shift failed: %v", err)
	}
	if ended != 1 {
		t.Fatalf("expected 1 completed record, got %d", ended)
	}

	ana, _ = f.store.GetDriver(ana.DriverID)
	if ana.Status != models.DriverStatusInactive {
		t.Fatalf("expected inactive driver after shift end, got %s", ana.Status)
	}
	completed, _ := f.store.GetDispatchRecordsByStatus(models.DispatchStatusCompleted)
	if len(completed) != 1 || completed[0].EndTime == nil {
		t.Fatalf("expected one completed record with end time, got %+v", completed)
	}
}

func TestCancelReturnsDriverToInactive(t *testing.T) {
	f := newLifecycleFixture()
	ana := f.mustCheckIn(t, "Ana", "dev-a")

	if err := f.dispatch.Cancel(ana.DriverID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	ana, _ = f.store.GetDriver(ana.DriverID)
	if ana.Status != models.DriverStatusInactive {
		t.Fatalf("expected inactive driver, got %s", ana.Status)
	}
	cancelled, _ := f.store.GetDispatchRecordsByStatus(models.DispatchStatusCancelled)
	if len(cancelled) != 1 {
		t.Fatalf("expected 1 cancelled record, got %d", len(cancelled))
	}

	if err := f.dispatch.Cancel(ana.DriverID); !errors.Is(err, storage.ErrNoActiveRecord) {
		t.Fatalf("expected ErrNoActiveRecord on second cancel, got %v", err)
	}
}

func TestCancelAllPendingClearsQueue(t *testing.T) {
	f := newLifecycleFixture()
	f.mustCheckIn(t, "Ana", "dev-a")
	f.mustCheckIn(t, "Bea", "dev-b")

	cancelled, err := f.dispatch.CancelAllPending()
	if err != nil {
		t.Fatalf("cancel-all failed: %v", err)
	}
	if cancelled != 2 {
		t.Fatalf("expected 2 cancelled entries, got %d", cancelled)
	}

	snap, _ := f.dispatch.Snapshot()
	if snap.Pending != 0 || snap.Queued != 0 {
		t.Fatalf("queue not empty after cancel-all: %+v", snap)
	}
	for _, name := range []string{"Ana", "Bea"} {
		driver, _ := f.store.GetDriverByName(name)
		if driver.Status != models.DriverStatusInactive {
			t.Fatalf("driver %s not returned to inactive", name)
		}
	}
}

func TestBagReturnsBoundedByBalance(t *testing.T) {
	f := newLifecycleFixture()
	ana := f.mustCheckIn(t, "Ana", "dev-a")
	if _, err := f.dispatch.Dispatch(ana.DriverID, 5, ""); err != nil {
		t.Fatal(err)
	}

	balance, err := f.bags.Return(ana.DriverID, 3)
	if err != nil {
		t.Fatalf("return failed: %v", err)
	}
	if balance != 2 {
		t.Fatalf("expected balance 2, got %d", balance)
	}

	// Returning more than the balance is rejected without touching it.
	if _, err := f.bags.Return(ana.DriverID, 5); !errors.Is(err, storage.ErrInsufficientBags) {
		t.Fatalf("expected ErrInsufficientBags, got %v", err)
	}
	if _, err := f.bags.Return(ana.DriverID, 0); !errors.Is(err, storage.ErrInsufficientBags) {
		t.Fatalf("expected rejection of non-positive return, got %v", err)
	}
	if balance, _ = f.bags.Balance(ana.DriverID); balance != 2 {
		t.Fatalf("rejected return must not change the balance, got %d", balance)
	}
}

func TestBagAuditTrailMatchesBalance(t *testing.T) {
	f := newLifecycleFixture()
	ana := f.mustCheckIn(t, "Ana", "dev-a")
	if _, err := f.dispatch.Dispatch(ana.DriverID, 7, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := f.bags.Return(ana.DriverID, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := f.bags.Return(ana.DriverID, 1); err != nil {
		t.Fatal(err)
	}

	txs, err := f.bags.Transactions(ana.DriverID)
	if err != nil {
		t.Fatal(err)
	}
	sum := 0
	for _, tx := range txs {
		switch tx.Kind {
		case models.BagTxIssue:
			sum += tx.Quantity
		case models.BagTxReturn:
			sum -= tx.Quantity
		default:
			t.Fatalf("unexpected transaction kind %q", tx.Kind)
		}
	}

	balance, _ := f.bags.Balance(ana.DriverID)
	if sum != balance {
		t.Fatalf("transaction sum %d does not match balance %d", sum, balance)
	}
	if balance != 4 {
		t.Fatalf("expected balance 4, got %d", balance)
	}
}
