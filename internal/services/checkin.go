package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/reparto-ops/dispatch-backend/internal/models"
	"github.com/reparto-ops/dispatch-backend/internal/storage"
)

var (
	ErrMissingFields   = errors.New("name and device id are required")
	ErrMissingLocation = errors.New("location is required for check-in")
	ErrOutsideGeofence = errors.New("outside the check-in zone")
	ErrAlreadyQueued   = errors.New("device already has an active queue entry")
)

// CheckInService admits drivers into the waiting queue. It runs the geofence
// check and the fraud heuristics before handing the transition to the store.
type CheckInService struct {
	store storage.Store
	fence *Geofence
}

// NewCheckInService creates a new check-in service. A nil fence disables the
// geofence check (used by tests and by admin override tooling).
func NewCheckInService(store storage.Store, fence *Geofence) *CheckInService {
	return &CheckInService{store: store, fence: fence}
}

// CheckIn validates the request, evaluates the fraud heuristics and admits
// the driver. Advisory alerts are persisted and returned even when the
// check-in succeeds; only a duplicate active queue entry rejects it.
func (s *CheckInService) CheckIn(req *models.CheckInRequest) (*models.DispatchRecord, []*models.FraudAlert, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || req.DeviceID == "" {
		return nil, nil, ErrMissingFields
	}

	if s.fence != nil {
		if req.Lat == nil || req.Lng == nil {
			return nil, nil, ErrMissingLocation
		}
		if !s.fence.Contains(*req.Lat, *req.Lng) {
			return nil, nil, ErrOutsideGeofence
		}
	}

	// Heuristics ordered most specific first: the first collected alert is
	// the one surfaced on rejection.
	var alerts []*models.FraudAlert

	if byDevice, err := s.store.GetDriverByDevice(req.DeviceID); err == nil && byDevice.Name != name {
		alerts = append(alerts, &models.FraudAlert{
			Kind:       models.AlertKindNameMismatchOnDevice,
			Message:    fmt.Sprintf("device is already bound to %q but checked in as %q", byDevice.Name, name),
			DriverName: name,
			DeviceID:   req.DeviceID,
		})
	}

	byName, nameErr := s.store.GetDriverByName(name)
	if nameErr == nil && byName.HasDevice() && byName.DeviceID != req.DeviceID {
		alerts = append(alerts, &models.FraudAlert{
			Kind:       models.AlertKindDuplicateName,
			Message:    fmt.Sprintf("driver %q is bound to a different device", name),
			DriverName: name,
			DeviceID:   req.DeviceID,
		})
	}

	if _, err := s.store.GetActiveRecordByDevice(req.DeviceID); err == nil {
		if len(alerts) == 0 {
			alerts = append(alerts, &models.FraudAlert{
				Kind:       models.AlertKindDuplicateDeviceBinding,
				Message:    "device already has an entry in the waiting queue",
				DriverName: name,
				DeviceID:   req.DeviceID,
			})
		}
		s.persistAlerts(alerts)
		return nil, alerts, fmt.Errorf("%w: %s", ErrAlreadyQueued, alerts[0].Message)
	}

	s.persistAlerts(alerts)

	driver := byName
	if nameErr != nil {
		created, err := s.store.CreateDriver(&models.DriverRegistration{Name: name})
		if err != nil {
			return nil, alerts, err
		}
		driver = created
	}

	rec := &models.DispatchRecord{
		StartTime: time.Now(),
		StartLat:  req.Lat,
		StartLng:  req.Lng,
		SelfieURL: req.SelfieURL,
	}
	admitted, err := s.store.AdmitCheckIn(driver.DriverID, req.DeviceID, rec)
	if err != nil {
		return nil, alerts, err
	}
	return admitted, alerts, nil
}

func (s *CheckInService) persistAlerts(alerts []*models.FraudAlert) {
	for _, alert := range alerts {
		if _, err := s.store.CreateFraudAlert(alert); err != nil {
			log.Printf("Failed to record fraud alert %s for %s: %v", alert.Kind, alert.DeviceID, err)
		}
	}
}
