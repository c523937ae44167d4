package services

import (
	"sort"
	"time"

	"github.com/reparto-ops/dispatch-backend/internal/models"
	"github.com/reparto-ops/dispatch-backend/internal/storage"
)

// RankingService computes the daily dispatch ranking reviewed by admins.
type RankingService struct {
	store storage.Store
	loc   *time.Location
}

// NewRankingService creates a ranking service operating in the given timezone
func NewRankingService(store storage.Store, loc *time.Location) *RankingService {
	if loc == nil {
		loc = time.Local
	}
	return &RankingService{store: store, loc: loc}
}

// Daily ranks drivers by how many dispatched or completed records fall inside
// the day containing the given instant. Sorted descending by count; ties keep
// the order in which drivers first appear in the day's records; drivers with
// zero qualifying records are absent.
func (s *RankingService) Daily(day time.Time) ([]models.RankingEntry, error) {
	day = day.In(s.loc)
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	recs, err := s.store.GetDispatchRecordsInRange(dayStart, dayEnd,
		models.DispatchStatusDispatched, models.DispatchStatusCompleted)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	var order []string
	names := make(map[string]string)
	for _, rec := range recs {
		if _, seen := counts[rec.DriverID]; !seen {
			order = append(order, rec.DriverID)
			names[rec.DriverID] = rec.DriverName
		}
		counts[rec.DriverID]++
	}

	entries := make([]models.RankingEntry, 0, len(order))
	for _, id := range order {
		entries = append(entries, models.RankingEntry{
			DriverID:   id,
			Name:       names[id],
			Dispatches: counts[id],
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Dispatches > entries[j].Dispatches
	})
	return entries, nil
}
