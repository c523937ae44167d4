package services

import (
	"errors"
	"testing"
	"time"

	"github.com/reparto-ops/dispatch-backend/internal/models"
	"github.com/reparto-ops/dispatch-backend/internal/storage"
)

func TestRosterImportSpacesSlotsOneSecondApart(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewRosterService(store, time.UTC)

	inserted, err := svc.Import("2031-05-10", "08:00", []string{"Ana", " Bea ", "", "Carlos"})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if inserted != 3 {
		t.Fatalf("expected 3 slots (blank skipped), got %d", inserted)
	}

	recs, _ := store.GetDispatchRecordsByStatus(models.DispatchStatusPending)
	if len(recs) != 3 {
		t.Fatalf("expected 3 pending records, got %d", len(recs))
	}
	base := time.Date(2031, 5, 10, 8, 0, 0, 0, time.UTC)
	wantNames := []string{"Ana", "Bea", "Carlos"}
	for i, rec := range recs {
		if rec.DriverName != wantNames[i] {
			t.Errorf("slot %d: expected %s, got %s", i, wantNames[i], rec.DriverName)
		}
		if want := base.Add(time.Duration(i) * time.Second); !rec.StartTime.Equal(want) {
			t.Errorf("slot %d: expected start %v, got %v", i, want, rec.StartTime)
		}
	}

	// Drivers are created on demand for names never seen before.
	for _, name := range wantNames {
		if _, err := store.GetDriverByName(name); err != nil {
			t.Errorf("driver %s was not created", name)
		}
	}
}

func TestRosterReimportReplacesSameDay(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewRosterService(store, time.UTC)

	if _, err := svc.Import("2031-05-10", "08:00", []string{"Ana", "Bea", "Carlos"}); err != nil {
		t.Fatal(err)
	}
	inserted, err := svc.Import("2031-05-10", "09:30", []string{"Dana", "Eva"})
	if err != nil {
		t.Fatal(err)
	}
	if inserted != 2 {
		t.Fatalf("expected 2 slots on re-import, got %d", inserted)
	}

	recs, _ := store.GetDispatchRecordsByStatus(models.DispatchStatusPending)
	if len(recs) != 2 {
		t.Fatalf("re-import must replace the day's pending slots, got %d", len(recs))
	}
	if recs[0].DriverName != "Dana" || recs[1].DriverName != "Eva" {
		t.Fatalf("unexpected roster after re-import: %s, %s", recs[0].DriverName, recs[1].DriverName)
	}
}

func TestRosterImportRejectsBadInput(t *testing.T) {
	svc := NewRosterService(storage.NewMemoryStore(), time.UTC)

	if _, err := svc.Import("2031-05-10", "08:00", []string{"", "  "}); !errors.Is(err, ErrEmptyRoster) {
		t.Fatalf("expected ErrEmptyRoster, got %v", err)
	}
	if _, err := svc.Import("10/05/2031", "08:00", []string{"Ana"}); err == nil {
		t.Fatal("expected error for malformed date")
	}
	if _, err := svc.Import("2031-05-10", "8am", []string{"Ana"}); err == nil {
		t.Fatal("expected error for malformed time")
	}
}

func TestCheckInKeepsScheduledSlot(t *testing.T) {
	store := storage.NewMemoryStore()
	roster := NewRosterService(store, time.UTC)
	checkIn := NewCheckInService(store, nil)

	if _, err := roster.Import("2031-05-10", "08:00", []string{"Ana"}); err != nil {
		t.Fatal(err)
	}

	rec, _, err := checkIn.CheckIn(checkInRequest("Ana", "dev-a"))
	if err != nil {
		t.Fatalf("check-in against a scheduled slot failed: %v", err)
	}
	if rec.Status != models.DispatchStatusQueued {
		t.Fatalf("expected queued record, got %s", rec.Status)
	}
	scheduled := time.Date(2031, 5, 10, 8, 0, 0, 0, time.UTC)
	if !rec.StartTime.Equal(scheduled) {
		t.Fatalf("check-in must keep the scheduled start time, got %v", rec.StartTime)
	}

	pending, _ := store.GetDispatchRecordsByStatus(models.DispatchStatusPending)
	if len(pending) != 0 {
		t.Fatalf("scheduled slot must be consumed, %d still pending", len(pending))
	}
}

func TestStartQueueActivatesScheduledRoster(t *testing.T) {
	store := storage.NewMemoryStore()
	roster := NewRosterService(store, time.UTC)
	dispatch := NewDispatchService(store)

	if _, err := roster.Import("2031-05-10", "08:00", []string{"Ana", "Bea"}); err != nil {
		t.Fatal(err)
	}

	started, err := dispatch.StartQueue()
	if err != nil {
		t.Fatalf("start queue failed: %v", err)
	}
	if started != 2 {
		t.Fatalf("expected 2 activated slots, got %d", started)
	}

	queued, _ := store.GetDispatchRecordsByStatus(models.DispatchStatusQueued)
	if len(queued) != 2 {
		t.Fatalf("expected 2 queued records, got %d", len(queued))
	}
	// Roster order survives activation because ordering is by start time.
	if queued[0].DriverName != "Ana" || queued[1].DriverName != "Bea" {
		t.Fatalf("queue order broken: %s, %s", queued[0].DriverName, queued[1].DriverName)
	}
	for _, name := range []string{"Ana", "Bea"} {
		driver, _ := store.GetDriverByName(name)
		if driver.Status != models.DriverStatusWaiting {
			t.Errorf("driver %s not waiting after start, got %s", name, driver.Status)
		}
	}
}
