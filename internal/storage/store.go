package storage

import (
	"errors"
	"time"

	"github.com/reparto-ops/dispatch-backend/internal/models"
)

var storeInstance Store

// SetStore sets the global store instance (call from main.go)
func SetStore(s Store) {
	storeInstance = s
}

// GetStore returns the global store instance
func GetStore() Store {
	return storeInstance
}

// Sentinel errors shared by every store implementation. Handlers map these
// to HTTP codes with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrNotEligible       = errors.New("driver not eligible")
	ErrNoActiveRecord    = errors.New("no active dispatch record")
	ErrQueueNotEmpty     = errors.New("queued records remain")
	ErrInsufficientBags  = errors.New("return exceeds bag balance")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Store defines the interface for storage operations
type Store interface {
	// Driver operations
	CreateDriver(reg *models.DriverRegistration) (*models.Driver, error)
	GetDriver(driverID string) (*models.Driver, error)
	GetDriverByName(name string) (*models.Driver, error)
	GetDriverByDevice(deviceID string) (*models.Driver, error)
	GetAllDrivers() ([]*models.Driver, error)
	GetDriversByStatus(status string) ([]*models.Driver, error)
	UpdateDriver(driver *models.Driver) error
	DeleteDriver(driverID string) error

	// Dispatch record operations (queue views are ordered by start_time asc)
	GetDispatchRecord(recordID string) (*models.DispatchRecord, error)
	GetDispatchRecordsByStatus(statuses ...string) ([]*models.DispatchRecord, error)
	GetActiveRecordByDriver(driverID string) (*models.DispatchRecord, error)
	GetActiveRecordByDevice(deviceID string) (*models.DispatchRecord, error)
	GetDispatchRecordsInRange(from, to time.Time, statuses ...string) ([]*models.DispatchRecord, error)

	// Atomic lifecycle transitions. Each of these moves registry and queue
	// rows together and must either fully apply or not apply at all.
	AdmitCheckIn(driverID, deviceID string, rec *models.DispatchRecord) (*models.DispatchRecord, error)
	StartQueue() (int, error)
	DispatchDriver(driverID string, bagsTaken int, destinationArea string) (*models.DispatchRecord, error)
	EndShift(endTime time.Time) (int, error)
	CancelDriver(driverID string) error
	CancelAllPending() (int, error)
	ReplaceScheduledRoster(dayStart, dayEnd time.Time, entries []models.RosterEntry) (int, error)

	// Bag ledger
	ReturnBags(driverID string, quantity int) (int, error)
	GetBagTransactions(driverID string) ([]*models.BagTransaction, error)

	// Fraud alerts
	CreateFraudAlert(alert *models.FraudAlert) (*models.FraudAlert, error)
	GetFraudAlerts() ([]*models.FraudAlert, error)
	ClearFraudAlerts() (int, error)

	// Dashboard
	GetQueueSnapshot() (*models.QueueSnapshot, error)
}
