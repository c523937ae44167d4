package jobs

import (
	"testing"
	"time"

	"github.com/reparto-ops/dispatch-backend/internal/models"
	"github.com/reparto-ops/dispatch-backend/internal/storage"
)

func TestSweepCancelsOnlyStalePendingSlots(t *testing.T) {
	store := storage.NewMemoryStore()

	now := time.Now()
	dayStart := now.Add(-48 * time.Hour)
	_, err := store.ReplaceScheduledRoster(dayStart, now.Add(48*time.Hour), []models.RosterEntry{
		{Name: "Ana", StartTime: now.Add(-24 * time.Hour)},
		{Name: "Bea", StartTime: now.Add(-1 * time.Hour)},
		{Name: "Carol", StartTime: now.Add(24 * time.Hour)},
	})
	if err != nil {
		t.Fatal(err)
	}

	sweeper := NewQueueSweeper(store, time.Minute, 12*time.Hour)
	sweeper.sweep()

	pending, _ := store.GetDispatchRecordsByStatus(models.DispatchStatusPending)
	if len(pending) != 2 {
		t.Fatalf("expected 2 surviving pending slots, got %d", len(pending))
	}
	for _, rec := range pending {
		if rec.DriverName == "Ana" {
			t.Fatal("slot a day overdue must have been cancelled")
		}
	}

	cancelled, _ := store.GetDispatchRecordsByStatus(models.DispatchStatusCancelled)
	if len(cancelled) != 1 || cancelled[0].DriverName != "Ana" {
		t.Fatalf("expected only Ana's slot cancelled, got %+v", cancelled)
	}
}

func TestSweepIgnoresQueuedEntries(t *testing.T) {
	store := storage.NewMemoryStore()

	now := time.Now()
	if _, err := store.ReplaceScheduledRoster(now.Add(-48*time.Hour), now, []models.RosterEntry{
		{Name: "Ana", StartTime: now.Add(-24 * time.Hour)},
	}); err != nil {
		t.Fatal(err)
	}
	// Ana checked in against her slot, so it is queued rather than pending.
	driver, err := store.GetDriverByName("Ana")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.AdmitCheckIn(driver.DriverID, "dev-a", &models.DispatchRecord{}); err != nil {
		t.Fatal(err)
	}

	sweeper := NewQueueSweeper(store, time.Minute, 12*time.Hour)
	sweeper.sweep()

	queued, _ := store.GetDispatchRecordsByStatus(models.DispatchStatusQueued)
	if len(queued) != 1 {
		t.Fatalf("queued entries must never be swept, got %d", len(queued))
	}
}
