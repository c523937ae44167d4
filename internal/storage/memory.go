package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/reparto-ops/dispatch-backend/internal/models"
)

// MemoryStore holds all data in memory, used for tests and local development.
// A single mutex guards every table so that multi-row transitions stay atomic
// without database transactions.
type MemoryStore struct {
	mu sync.RWMutex

	drivers map[string]*models.Driver
	records map[string]*models.DispatchRecord
	alerts  []*models.FraudAlert
	bagTxs  []*models.BagTransaction

	// Insertion order, so lookups and rankings stay deterministic
	driverOrder []string
	recordOrder []string

	// Counters for ID generation
	driverCounter int
	recordCounter int
	alertCounter  int
	bagTxCounter  int
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		drivers: make(map[string]*models.Driver),
		records: make(map[string]*models.DispatchRecord),
	}
}

// Driver operations

func (m *MemoryStore) CreateDriver(reg *models.DriverRegistration) (*models.Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createDriverLocked(reg)
}

func (m *MemoryStore) createDriverLocked(reg *models.DriverRegistration) (*models.Driver, error) {
	m.driverCounter++
	driver := &models.Driver{
		DriverID:    fmt.Sprintf("DRV%05d", m.driverCounter),
		Name:        strings.TrimSpace(reg.Name),
		VehicleType: reg.VehicleType,
		Status:      models.DriverStatusInactive,
	}
	m.drivers[driver.DriverID] = driver
	m.driverOrder = append(m.driverOrder, driver.DriverID)
	return driver, nil
}

func (m *MemoryStore) GetDriver(driverID string) (*models.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	driver, exists := m.drivers[driverID]
	if !exists {
		return nil, ErrNotFound
	}
	return driver, nil
}

func (m *MemoryStore) GetDriverByName(name string) (*models.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.driverByNameLocked(name)
}

func (m *MemoryStore) driverByNameLocked(name string) (*models.Driver, error) {
	name = strings.TrimSpace(name)
	for _, id := range m.driverOrder {
		if m.drivers[id].Name == name {
			return m.drivers[id], nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetDriverByDevice(deviceID string) (*models.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.driverOrder {
		if m.drivers[id].DeviceID == deviceID {
			return m.drivers[id], nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetAllDrivers() ([]*models.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	drivers := make([]*models.Driver, 0, len(m.driverOrder))
	for _, id := range m.driverOrder {
		drivers = append(drivers, m.drivers[id])
	}
	return drivers, nil
}

func (m *MemoryStore) GetDriversByStatus(status string) ([]*models.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var drivers []*models.Driver
	for _, id := range m.driverOrder {
		if m.drivers[id].Status == status {
			drivers = append(drivers, m.drivers[id])
		}
	}
	return drivers, nil
}

func (m *MemoryStore) UpdateDriver(driver *models.Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.drivers[driver.DriverID]; !exists {
		return ErrNotFound
	}
	m.drivers[driver.DriverID] = driver
	return nil
}

func (m *MemoryStore) DeleteDriver(driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.drivers[driverID]; !exists {
		return ErrNotFound
	}
	delete(m.drivers, driverID)
	for i, id := range m.driverOrder {
		if id == driverID {
			m.driverOrder = append(m.driverOrder[:i], m.driverOrder[i+1:]...)
			break
		}
	}
	return nil
}

// Dispatch record operations

func (m *MemoryStore) GetDispatchRecord(recordID string) (*models.DispatchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, exists := m.records[recordID]
	if !exists {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (m *MemoryStore) GetDispatchRecordsByStatus(statuses ...string) ([]*models.DispatchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.recordsByStatusLocked(statuses...), nil
}

func (m *MemoryStore) recordsByStatusLocked(statuses ...string) []*models.DispatchRecord {
	match := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		match[s] = true
	}
	var recs []*models.DispatchRecord
	for _, id := range m.recordOrder {
		if match[m.records[id].Status] {
			recs = append(recs, m.records[id])
		}
	}
	sortByStartTime(recs)
	return recs
}

func (m *MemoryStore) GetActiveRecordByDriver(driverID string) (*models.DispatchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeRecordByDriverLocked(driverID)
}

func (m *MemoryStore) activeRecordByDriverLocked(driverID string) (*models.DispatchRecord, error) {
	for _, rec := range m.recordsByStatusLocked(models.DispatchStatusPending, models.DispatchStatusQueued) {
		if rec.DriverID == driverID {
			return rec, nil
		}
	}
	return nil, ErrNoActiveRecord
}

func (m *MemoryStore) GetActiveRecordByDevice(deviceID string) (*models.DispatchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, rec := range m.recordsByStatusLocked(models.DispatchStatusQueued) {
		if rec.DeviceID == deviceID {
			return rec, nil
		}
	}
	return nil, ErrNoActiveRecord
}

func (m *MemoryStore) GetDispatchRecordsInRange(from, to time.Time, statuses ...string) ([]*models.DispatchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var recs []*models.DispatchRecord
	for _, rec := range m.recordsByStatusLocked(statuses...) {
		if rec.StartTime.Before(from) || !rec.StartTime.Before(to) {
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Atomic lifecycle transitions

func (m *MemoryStore) AdmitCheckIn(driverID, deviceID string, rec *models.DispatchRecord) (*models.DispatchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	driver, exists := m.drivers[driverID]
	if !exists {
		return nil, ErrNotFound
	}
	if driver.Status != models.DriverStatusInactive {
		return nil, ErrNotEligible
	}

	// Reuse a pre-seeded pending record when one exists, so a scheduled
	// roster slot keeps its start time and queue position.
	admitted, err := m.activeRecordByDriverLocked(driverID)
	if err == nil && admitted.Status == models.DispatchStatusPending {
		admitted.Status = models.DispatchStatusQueued
		admitted.DeviceID = deviceID
		admitted.SelfieURL = rec.SelfieURL
		admitted.StartLat = rec.StartLat
		admitted.StartLng = rec.StartLng
	} else if err == nil {
		// Already queued: the caller should have rejected this check-in.
		return nil, ErrNotEligible
	} else {
		m.recordCounter++
		admitted = &models.DispatchRecord{
			RecordID:   fmt.Sprintf("DSP%05d", m.recordCounter),
			DriverID:   driverID,
			DriverName: driver.Name,
			DeviceID:   deviceID,
			Status:     models.DispatchStatusQueued,
			StartTime:  rec.StartTime,
			StartLat:   rec.StartLat,
			StartLng:   rec.StartLng,
			SelfieURL:  rec.SelfieURL,
		}
		if admitted.StartTime.IsZero() {
			admitted.StartTime = time.Now()
		}
		m.records[admitted.RecordID] = admitted
		m.recordOrder = append(m.recordOrder, admitted.RecordID)
	}

	driver.Status = models.DriverStatusWaiting
	driver.DeviceID = deviceID
	return admitted, nil
}

func (m *MemoryStore) StartQueue() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	started := 0
	for _, rec := range m.recordsByStatusLocked(models.DispatchStatusPending) {
		driver, exists := m.drivers[rec.DriverID]
		if !exists || driver.Status != models.DriverStatusInactive {
			continue
		}
		rec.Status = models.DispatchStatusQueued
		driver.Status = models.DriverStatusWaiting
		started++
	}
	return started, nil
}

func (m *MemoryStore) DispatchDriver(driverID string, bagsTaken int, destinationArea string) (*models.DispatchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	driver, exists := m.drivers[driverID]
	if !exists {
		return nil, ErrNotFound
	}
	rec, err := m.activeRecordByDriverLocked(driverID)
	if err != nil || rec.Status != models.DispatchStatusQueued {
		return nil, ErrNoActiveRecord
	}

	rec.Status = models.DispatchStatusDispatched
	rec.BagsTaken = bagsTaken
	rec.DestinationArea = destinationArea
	driver.Status = models.DriverStatusDispatched

	if bagsTaken > 0 {
		driver.BagBalance += bagsTaken
		m.appendBagTxLocked(driverID, rec.RecordID, models.BagTxIssue, bagsTaken)
	}
	return rec, nil
}

func (m *MemoryStore) EndShift(endTime time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.recordsByStatusLocked(models.DispatchStatusQueued)) > 0 {
		return 0, ErrQueueNotEmpty
	}

	ended := 0
	for _, rec := range m.recordsByStatusLocked(models.DispatchStatusDispatched) {
		end := endTime
		rec.Status = models.DispatchStatusCompleted
		rec.EndTime = &end
		ended++
	}
	for _, id := range m.driverOrder {
		if m.drivers[id].Status == models.DriverStatusDispatched {
			m.drivers[id].Status = models.DriverStatusInactive
		}
	}
	return ended, nil
}

func (m *MemoryStore) CancelDriver(driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	driver, exists := m.drivers[driverID]
	if !exists {
		return ErrNotFound
	}
	rec, err := m.activeRecordByDriverLocked(driverID)
	if err != nil {
		return ErrNoActiveRecord
	}
	rec.Status = models.DispatchStatusCancelled
	if driver.Status == models.DriverStatusWaiting {
		driver.Status = models.DriverStatusInactive
	}
	return nil
}

func (m *MemoryStore) CancelAllPending() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cancelled := 0
	for _, rec := range m.recordsByStatusLocked(models.DispatchStatusPending, models.DispatchStatusQueued) {
		rec.Status = models.DispatchStatusCancelled
		if driver, exists := m.drivers[rec.DriverID]; exists && driver.Status == models.DriverStatusWaiting {
			driver.Status = models.DriverStatusInactive
		}
		cancelled++
	}
	return cancelled, nil
}

func (m *MemoryStore) ReplaceScheduledRoster(dayStart, dayEnd time.Time, entries []models.RosterEntry) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Drop any pending slots already inside the target window so a re-run
	// replaces instead of duplicating.
	for _, rec := range m.recordsByStatusLocked(models.DispatchStatusPending) {
		if rec.StartTime.Before(dayStart) || !rec.StartTime.Before(dayEnd) {
			continue
		}
		delete(m.records, rec.RecordID)
		for i, id := range m.recordOrder {
			if id == rec.RecordID {
				m.recordOrder = append(m.recordOrder[:i], m.recordOrder[i+1:]...)
				break
			}
		}
	}

	inserted := 0
	for _, entry := range entries {
		driver, err := m.driverByNameLocked(entry.Name)
		if err != nil {
			driver, _ = m.createDriverLocked(&models.DriverRegistration{Name: entry.Name})
		}
		m.recordCounter++
		rec := &models.DispatchRecord{
			RecordID:   fmt.Sprintf("DSP%05d", m.recordCounter),
			DriverID:   driver.DriverID,
			DriverName: driver.Name,
			Status:     models.DispatchStatusPending,
			StartTime:  entry.StartTime,
		}
		m.records[rec.RecordID] = rec
		m.recordOrder = append(m.recordOrder, rec.RecordID)
		inserted++
	}
	return inserted, nil
}

// Bag ledger

func (m *MemoryStore) ReturnBags(driverID string, quantity int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	driver, exists := m.drivers[driverID]
	if !exists {
		return 0, ErrNotFound
	}
	if quantity <= 0 || quantity > driver.BagBalance {
		return driver.BagBalance, ErrInsufficientBags
	}
	driver.BagBalance -= quantity
	m.appendBagTxLocked(driverID, "", models.BagTxReturn, quantity)
	return driver.BagBalance, nil
}

func (m *MemoryStore) appendBagTxLocked(driverID, recordID, kind string, quantity int) {
	m.bagTxCounter++
	m.bagTxs = append(m.bagTxs, &models.BagTransaction{
		TxID:     fmt.Sprintf("BAG%05d", m.bagTxCounter),
		DriverID: driverID,
		RecordID: recordID,
		Kind:     kind,
		Quantity: quantity,
	})
}

func (m *MemoryStore) GetBagTransactions(driverID string) ([]*models.BagTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var txs []*models.BagTransaction
	for _, tx := range m.bagTxs {
		if tx.DriverID == driverID {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

// Fraud alerts

func (m *MemoryStore) CreateFraudAlert(alert *models.FraudAlert) (*models.FraudAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.alertCounter++
	alert.AlertID = fmt.Sprintf("ALR%05d", m.alertCounter)
	m.alerts = append(m.alerts, alert)
	return alert, nil
}

func (m *MemoryStore) GetFraudAlerts() ([]*models.FraudAlert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	alerts := make([]*models.FraudAlert, len(m.alerts))
	copy(alerts, m.alerts)
	return alerts, nil
}

func (m *MemoryStore) ClearFraudAlerts() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cleared := len(m.alerts)
	m.alerts = nil
	return cleared, nil
}

// Dashboard

func (m *MemoryStore) GetQueueSnapshot() (*models.QueueSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := &models.QueueSnapshot{}
	for _, id := range m.recordOrder {
		switch m.records[id].Status {
		case models.DispatchStatusPending:
			snap.Pending++
		case models.DispatchStatusQueued:
			snap.Queued++
		case models.DispatchStatusDispatched:
			snap.Dispatched++
		}
	}
	return snap, nil
}

func sortByStartTime(recs []*models.DispatchRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].StartTime.Before(recs[j].StartTime)
	})
}
