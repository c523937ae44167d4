package services

import (
	"errors"
	"time"

	"github.com/reparto-ops/dispatch-backend/internal/models"
	"github.com/reparto-ops/dispatch-backend/internal/storage"
)

var ErrInvalidBagCount = errors.New("bag count must not be negative")

// DispatchService drives the coordinator side of the queue: bulk start,
// marking drivers out with a bag count, shift end and cancellations.
type DispatchService struct {
	store storage.Store
}

// NewDispatchService creates a new dispatch service
func NewDispatchService(store storage.Store) *DispatchService {
	return &DispatchService{store: store}
}

// WaitingQueue returns the coordinator view: pending and queued records
// ordered by start time.
func (s *DispatchService) WaitingQueue() ([]*models.DispatchRecord, error) {
	return s.store.GetDispatchRecordsByStatus(models.DispatchStatusPending, models.DispatchStatusQueued)
}

// ActiveDispatches returns drivers currently out on delivery
func (s *DispatchService) ActiveDispatches() ([]*models.DispatchRecord, error) {
	return s.store.GetDispatchRecordsByStatus(models.DispatchStatusDispatched)
}

// StartQueue admits every inactive driver with a pending slot into the queue
func (s *DispatchService) StartQueue() (int, error) {
	return s.store.StartQueue()
}

// Dispatch marks a queued driver out with the bags they take
func (s *DispatchService) Dispatch(driverID string, bagsTaken int, destinationArea string) (*models.DispatchRecord, error) {
	if bagsTaken < 0 {
		return nil, ErrInvalidBagCount
	}
	return s.store.DispatchDriver(driverID, bagsTaken, destinationArea)
}

// EndShift completes every dispatched record and returns those drivers to
// inactive. Fails without touching anything while queued records remain.
func (s *DispatchService) EndShift() (int, error) {
	return s.store.EndShift(time.Now())
}

// Cancel withdraws a single driver's active queue entry
func (s *DispatchService) Cancel(driverID string) error {
	return s.store.CancelDriver(driverID)
}

// CancelAllPending clears the whole waiting queue
func (s *DispatchService) CancelAllPending() (int, error) {
	return s.store.CancelAllPending()
}

// Snapshot reports queue depth for dashboard polling
func (s *DispatchService) Snapshot() (*models.QueueSnapshot, error) {
	return s.store.GetQueueSnapshot()
}
