package storage

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/reparto-ops/dispatch-backend/internal/models"
)

// DatabaseStore implements Store on top of GORM/PostgreSQL. Every multi-row
// lifecycle transition runs inside a database transaction with row-level
// locks, so two coordinator sessions cannot double-dispatch a driver or lose
// a bag-balance update.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a store backed by the given GORM connection
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// Driver operations

func (s *DatabaseStore) CreateDriver(reg *models.DriverRegistration) (*models.Driver, error) {
	driver := &models.Driver{
		Name:        strings.TrimSpace(reg.Name),
		VehicleType: reg.VehicleType,
		Status:      models.DriverStatusInactive,
	}
	if err := s.db.Create(driver).Error; err != nil {
		return nil, err
	}
	return driver, nil
}

func (s *DatabaseStore) GetDriver(driverID string) (*models.Driver, error) {
	var driver models.Driver
	if err := s.db.Where("driver_id = ?", driverID).First(&driver).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &driver, nil
}

func (s *DatabaseStore) GetDriverByName(name string) (*models.Driver, error) {
	var driver models.Driver
	err := s.db.Where("name = ?", strings.TrimSpace(name)).Order("id asc").First(&driver).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &driver, nil
}

func (s *DatabaseStore) GetDriverByDevice(deviceID string) (*models.Driver, error) {
	var driver models.Driver
	err := s.db.Where("device_id = ? AND device_id <> ''", deviceID).Order("id asc").First(&driver).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &driver, nil
}

func (s *DatabaseStore) GetAllDrivers() ([]*models.Driver, error) {
	var drivers []*models.Driver
	if err := s.db.Order("id asc").Find(&drivers).Error; err != nil {
		return nil, err
	}
	return drivers, nil
}

func (s *DatabaseStore) GetDriversByStatus(status string) ([]*models.Driver, error) {
	var drivers []*models.Driver
	if err := s.db.Where("status = ?", status).Order("id asc").Find(&drivers).Error; err != nil {
		return nil, err
	}
	return drivers, nil
}

func (s *DatabaseStore) UpdateDriver(driver *models.Driver) error {
	res := s.db.Model(&models.Driver{}).Where("driver_id = ?", driver.DriverID).
		Select("name", "vehicle_type", "status", "device_id", "bag_balance").
		Updates(driver)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *DatabaseStore) DeleteDriver(driverID string) error {
	res := s.db.Where("driver_id = ?", driverID).Delete(&models.Driver{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Dispatch record operations

func (s *DatabaseStore) GetDispatchRecord(recordID string) (*models.DispatchRecord, error) {
	var rec models.DispatchRecord
	if err := s.db.Where("record_id = ?", recordID).First(&rec).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &rec, nil
}

func (s *DatabaseStore) GetDispatchRecordsByStatus(statuses ...string) ([]*models.DispatchRecord, error) {
	var recs []*models.DispatchRecord
	err := s.db.Where("status IN ?", statuses).Order("start_time asc, id asc").Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *DatabaseStore) GetActiveRecordByDriver(driverID string) (*models.DispatchRecord, error) {
	return activeRecordByDriver(s.db, driverID)
}

func activeRecordByDriver(db *gorm.DB, driverID string) (*models.DispatchRecord, error) {
	var rec models.DispatchRecord
	err := db.Where("driver_id = ? AND status IN ?", driverID,
		[]string{models.DispatchStatusPending, models.DispatchStatusQueued}).
		Order("start_time asc").First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveRecord
		}
		return nil, err
	}
	return &rec, nil
}

func (s *DatabaseStore) GetActiveRecordByDevice(deviceID string) (*models.DispatchRecord, error) {
	var rec models.DispatchRecord
	err := s.db.Where("device_id = ? AND status = ?", deviceID, models.DispatchStatusQueued).
		Order("start_time asc").First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveRecord
		}
		return nil, err
	}
	return &rec, nil
}

func (s *DatabaseStore) GetDispatchRecordsInRange(from, to time.Time, statuses ...string) ([]*models.DispatchRecord, error) {
	var recs []*models.DispatchRecord
	err := s.db.Where("status IN ? AND start_time >= ? AND start_time < ?", statuses, from, to).
		Order("start_time asc, id asc").Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// Atomic lifecycle transitions

func (s *DatabaseStore) AdmitCheckIn(driverID, deviceID string, rec *models.DispatchRecord) (*models.DispatchRecord, error) {
	var admitted *models.DispatchRecord
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var driver models.Driver
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("driver_id = ?", driverID).First(&driver).Error
		if err != nil {
			return wrapNotFound(err)
		}
		if driver.Status != models.DriverStatusInactive {
			return ErrNotEligible
		}

		existing, err := activeRecordByDriver(tx, driverID)
		switch {
		case err == nil && existing.Status == models.DispatchStatusPending:
			// Pre-seeded roster slot: keep its start time and queue position.
			updates := map[string]interface{}{
				"status":     models.DispatchStatusQueued,
				"device_id":  deviceID,
				"selfie_url": rec.SelfieURL,
				"start_lat":  rec.StartLat,
				"start_lng":  rec.StartLng,
			}
			res := tx.Model(&models.DispatchRecord{}).
				Where("record_id = ? AND status = ?", existing.RecordID, models.DispatchStatusPending).
				Updates(updates)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrInvalidTransition
			}
			admitted = existing
			admitted.Status = models.DispatchStatusQueued
			admitted.DeviceID = deviceID
			admitted.SelfieURL = rec.SelfieURL
			admitted.StartLat = rec.StartLat
			admitted.StartLng = rec.StartLng
		case err == nil:
			return ErrNotEligible
		case errors.Is(err, ErrNoActiveRecord):
			fresh := &models.DispatchRecord{
				DriverID:   driverID,
				DriverName: driver.Name,
				DeviceID:   deviceID,
				Status:     models.DispatchStatusQueued,
				StartTime:  rec.StartTime,
				StartLat:   rec.StartLat,
				StartLng:   rec.StartLng,
				SelfieURL:  rec.SelfieURL,
			}
			if err := tx.Create(fresh).Error; err != nil {
				return err
			}
			admitted = fresh
		default:
			return err
		}

		return transitionDriver(tx, driverID, models.DriverStatusInactive, models.DriverStatusWaiting, map[string]interface{}{
			"device_id": deviceID,
		})
	})
	if err != nil {
		return nil, err
	}
	return admitted, nil
}

func (s *DatabaseStore) StartQueue() (int, error) {
	started := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var pending []*models.DispatchRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("status = ?", models.DispatchStatusPending).
			Order("start_time asc").Find(&pending).Error
		if err != nil {
			return err
		}
		for _, rec := range pending {
			res := tx.Model(&models.Driver{}).
				Where("driver_id = ? AND status = ?", rec.DriverID, models.DriverStatusInactive).
				Update("status", models.DriverStatusWaiting)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue // driver missing or already active, leave the slot pending
			}
			if err := tx.Model(&models.DispatchRecord{}).
				Where("record_id = ?", rec.RecordID).
				Update("status", models.DispatchStatusQueued).Error; err != nil {
				return err
			}
			started++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return started, nil
}

func (s *DatabaseStore) DispatchDriver(driverID string, bagsTaken int, destinationArea string) (*models.DispatchRecord, error) {
	var dispatched *models.DispatchRecord
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var driver models.Driver
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("driver_id = ?", driverID).First(&driver).Error
		if err != nil {
			return wrapNotFound(err)
		}

		rec, err := activeRecordByDriver(tx, driverID)
		if err != nil {
			return ErrNoActiveRecord
		}
		if rec.Status != models.DispatchStatusQueued {
			return ErrNoActiveRecord
		}

		res := tx.Model(&models.DispatchRecord{}).
			Where("record_id = ? AND status = ?", rec.RecordID, models.DispatchStatusQueued).
			Updates(map[string]interface{}{
				"status":           models.DispatchStatusDispatched,
				"bags_taken":       bagsTaken,
				"destination_area": destinationArea,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidTransition
		}

		updates := map[string]interface{}{}
		if bagsTaken > 0 {
			updates["bag_balance"] = gorm.Expr("bag_balance + ?", bagsTaken)
			issue := &models.BagTransaction{
				DriverID: driverID,
				RecordID: rec.RecordID,
				Kind:     models.BagTxIssue,
				Quantity: bagsTaken,
			}
			if err := tx.Create(issue).Error; err != nil {
				return err
			}
		}
		if err := transitionDriver(tx, driverID, models.DriverStatusWaiting, models.DriverStatusDispatched, updates); err != nil {
			return err
		}

		rec.Status = models.DispatchStatusDispatched
		rec.BagsTaken = bagsTaken
		rec.DestinationArea = destinationArea
		dispatched = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dispatched, nil
}

func (s *DatabaseStore) EndShift(endTime time.Time) (int, error) {
	ended := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var queued int64
		err := tx.Model(&models.DispatchRecord{}).
			Where("status = ?", models.DispatchStatusQueued).Count(&queued).Error
		if err != nil {
			return err
		}
		if queued > 0 {
			return ErrQueueNotEmpty
		}

		res := tx.Model(&models.DispatchRecord{}).
			Where("status = ?", models.DispatchStatusDispatched).
			Updates(map[string]interface{}{
				"status":   models.DispatchStatusCompleted,
				"end_time": endTime,
			})
		if res.Error != nil {
			return res.Error
		}
		ended = int(res.RowsAffected)

		return tx.Model(&models.Driver{}).
			Where("status = ?", models.DriverStatusDispatched).
			Update("status", models.DriverStatusInactive).Error
	})
	if err != nil {
		return 0, err
	}
	return ended, nil
}

func (s *DatabaseStore) CancelDriver(driverID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		rec, err := activeRecordByDriver(tx, driverID)
		if err != nil {
			return err
		}
		res := tx.Model(&models.DispatchRecord{}).
			Where("record_id = ? AND status IN ?", rec.RecordID,
				[]string{models.DispatchStatusPending, models.DispatchStatusQueued}).
			Update("status", models.DispatchStatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidTransition
		}
		return tx.Model(&models.Driver{}).
			Where("driver_id = ? AND status = ?", driverID, models.DriverStatusWaiting).
			Update("status", models.DriverStatusInactive).Error
	})
}

func (s *DatabaseStore) CancelAllPending() (int, error) {
	cancelled := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.DispatchRecord{}).
			Where("status IN ?", []string{models.DispatchStatusPending, models.DispatchStatusQueued}).
			Update("status", models.DispatchStatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		cancelled = int(res.RowsAffected)

		return tx.Model(&models.Driver{}).
			Where("status = ?", models.DriverStatusWaiting).
			Update("status", models.DriverStatusInactive).Error
	})
	if err != nil {
		return 0, err
	}
	return cancelled, nil
}

func (s *DatabaseStore) ReplaceScheduledRoster(dayStart, dayEnd time.Time, entries []models.RosterEntry) (int, error) {
	inserted := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("status = ? AND start_time >= ? AND start_time < ?",
			models.DispatchStatusPending, dayStart, dayEnd).
			Delete(&models.DispatchRecord{}).Error
		if err != nil {
			return err
		}

		for _, entry := range entries {
			name := strings.TrimSpace(entry.Name)
			var driver models.Driver
			err := tx.Where("name = ?", name).Order("id asc").First(&driver).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				driver = models.Driver{Name: name, Status: models.DriverStatusInactive}
				if err := tx.Create(&driver).Error; err != nil {
					return err
				}
			} else if err != nil {
				return err
			}

			rec := &models.DispatchRecord{
				DriverID:   driver.DriverID,
				DriverName: driver.Name,
				Status:     models.DispatchStatusPending,
				StartTime:  entry.StartTime,
			}
			if err := tx.Create(rec).Error; err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// Bag ledger

func (s *DatabaseStore) ReturnBags(driverID string, quantity int) (int, error) {
	balance := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var driver models.Driver
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("driver_id = ?", driverID).First(&driver).Error
		if err != nil {
			return wrapNotFound(err)
		}
		if quantity <= 0 || quantity > driver.BagBalance {
			balance = driver.BagBalance
			return ErrInsufficientBags
		}
		balance = driver.BagBalance - quantity
		err = tx.Model(&models.Driver{}).
			Where("driver_id = ?", driverID).
			Update("bag_balance", balance).Error
		if err != nil {
			return err
		}
		ret := &models.BagTransaction{
			DriverID: driverID,
			Kind:     models.BagTxReturn,
			Quantity: quantity,
		}
		return tx.Create(ret).Error
	})
	if err != nil {
		return balance, err
	}
	return balance, nil
}

func (s *DatabaseStore) GetBagTransactions(driverID string) ([]*models.BagTransaction, error) {
	var txs []*models.BagTransaction
	if err := s.db.Where("driver_id = ?", driverID).Order("id asc").Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// Fraud alerts

func (s *DatabaseStore) CreateFraudAlert(alert *models.FraudAlert) (*models.FraudAlert, error) {
	if err := s.db.Create(alert).Error; err != nil {
		return nil, err
	}
	return alert, nil
}

func (s *DatabaseStore) GetFraudAlerts() ([]*models.FraudAlert, error) {
	var alerts []*models.FraudAlert
	if err := s.db.Order("id asc").Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func (s *DatabaseStore) ClearFraudAlerts() (int, error) {
	res := s.db.Where("1 = 1").Delete(&models.FraudAlert{})
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

// Dashboard

func (s *DatabaseStore) GetQueueSnapshot() (*models.QueueSnapshot, error) {
	snap := &models.QueueSnapshot{}
	rows, err := s.db.Model(&models.DispatchRecord{}).
		Select("status, count(*)").
		Where("status IN ?", []string{models.DispatchStatusPending, models.DispatchStatusQueued, models.DispatchStatusDispatched}).
		Group("status").Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		switch status {
		case models.DispatchStatusPending:
			snap.Pending = count
		case models.DispatchStatusQueued:
			snap.Queued = count
		case models.DispatchStatusDispatched:
			snap.Dispatched = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snap, nil
}

// transitionDriver applies a guarded status move, failing when the row is no
// longer in the expected state.
func transitionDriver(tx *gorm.DB, driverID, from, to string, extra map[string]interface{}) error {
	if !models.CanTransitionDriver(from, to) {
		return ErrInvalidTransition
	}
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := tx.Model(&models.Driver{}).
		Where("driver_id = ? AND status = ?", driverID, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
