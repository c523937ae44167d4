package services

import (
	"testing"
	"time"
)

func TestDailyRankingOrdersByDispatchCount(t *testing.T) {
	f := newLifecycleFixture()
	ranking := NewRankingService(f.store, time.UTC)

	// Ana completes one round and goes out again; Bea and Dan one each;
	// Carol only queues up and never leaves.
	ana := f.mustCheckIn(t, "Ana", "dev-a")
	bea := f.mustCheckIn(t, "Bea", "dev-b")
	if _, err := f.dispatch.Dispatch(ana.DriverID, 2, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := f.dispatch.Dispatch(bea.DriverID, 3, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := f.dispatch.EndShift(); err != nil {
		t.Fatal(err)
	}

	f.mustCheckIn(t, "Ana", "dev-a")
	if _, err := f.dispatch.Dispatch(ana.DriverID, 1, ""); err != nil {
		t.Fatal(err)
	}
	dan := f.mustCheckIn(t, "Dan", "dev-d")
	if _, err := f.dispatch.Dispatch(dan.DriverID, 1, ""); err != nil {
		t.Fatal(err)
	}
	f.mustCheckIn(t, "Carol", "dev-c")

	entries, err := ranking.Daily(time.Now())
	if err != nil {
		t.Fatalf("ranking failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 ranked drivers, got %d", len(entries))
	}

	// Ana leads with two rounds; Bea and Dan tie on one and keep the
	// order in which they first appear in the day's records.
	wantNames := []string{"Ana", "Bea", "Dan"}
	wantCounts := []int{2, 1, 1}
	for i, entry := range entries {
		if entry.Name != wantNames[i] || entry.Dispatches != wantCounts[i] {
			t.Errorf("rank %d: expected %s/%d, got %s/%d",
				i, wantNames[i], wantCounts[i], entry.Name, entry.Dispatches)
		}
	}
	for _, entry := range entries {
		if entry.Name == "Carol" {
			t.Fatal("queued-only driver must not be ranked")
		}
	}
}

func TestDailyRankingIgnoresOtherDays(t *testing.T) {
	f := newLifecycleFixture()
	ranking := NewRankingService(f.store, time.UTC)

	ana := f.mustCheckIn(t, "Ana", "dev-a")
	if _, err := f.dispatch.Dispatch(ana.DriverID, 1, ""); err != nil {
		t.Fatal(err)
	}

	entries, err := ranking.Daily(time.Now().AddDate(0, 0, -7))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty ranking for a past day, got %d entries", len(entries))
	}
}
