package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/reparto-ops/dispatch-backend/internal/models"
	"github.com/reparto-ops/dispatch-backend/internal/storage"
)

var ErrEmptyRoster = errors.New("roster has no names")

// RosterService pre-populates a future day's queue. Slots are spaced one
// synthetic second apart so that start_time alone preserves roster order,
// and re-importing the same day replaces the previous pending slots.
type RosterService struct {
	store storage.Store
	loc   *time.Location
}

// NewRosterService creates a roster service operating in the given timezone
func NewRosterService(store storage.Store, loc *time.Location) *RosterService {
	if loc == nil {
		loc = time.Local
	}
	return &RosterService{store: store, loc: loc}
}

// Import schedules the given names for the target date ("2006-01-02") at the
// given wall-clock time ("15:04"). Returns how many slots were inserted.
func (s *RosterService) Import(date, at string, names []string) (int, error) {
	day, err := time.ParseInLocation("2006-01-02", date, s.loc)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", date, err)
	}
	clock, err := time.Parse("15:04", at)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", at, err)
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, s.loc)
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var entries []models.RosterEntry
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		entries = append(entries, models.RosterEntry{
			Name:      name,
			StartTime: start.Add(time.Duration(len(entries)) * time.Second),
		})
	}
	if len(entries) == 0 {
		return 0, ErrEmptyRoster
	}

	return s.store.ReplaceScheduledRoster(dayStart, dayEnd, entries)
}
