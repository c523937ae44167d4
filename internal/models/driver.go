package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Driver availability states
const (
	DriverStatusInactive   = "inactive"
	DriverStatusWaiting    = "waiting"
	DriverStatusDispatched = "dispatched"
)

// Vehicle types
const (
	VehicleTypeCar        = "car"
	VehicleTypeMotorcycle = "motorcycle"
)

// driverTransitions defines the allowed driver status moves. Administrative
// edits bypass this table on purpose.
var driverTransitions = map[string]map[string]struct{}{
	DriverStatusInactive:   {DriverStatusWaiting: {}},
	DriverStatusWaiting:    {DriverStatusDispatched: {}, DriverStatusInactive: {}},
	DriverStatusDispatched: {DriverStatusInactive: {}},
}

// CanTransitionDriver returns whether a driver may move from one status to another.
func CanTransitionDriver(from, to string) bool {
	if from == to {
		return true
	}
	allowed, ok := driverTransitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// ValidDriverStatus reports whether s is one of the three driver states.
func ValidDriverStatus(s string) bool {
	return s == DriverStatusInactive || s == DriverStatusWaiting || s == DriverStatusDispatched
}

// Driver represents a delivery driver in the registry
type Driver struct {
	gorm.Model

	DriverID    string `json:"driver_id" gorm:"uniqueIndex"`
	Name        string `json:"name" gorm:"index"`
	VehicleType string `json:"vehicle_type"` // "car", "motorcycle" or empty
	Status      string `json:"status" gorm:"index;default:inactive"`
	DeviceID    string `json:"device_id" gorm:"index"` // bound on first check-in, empty until then
	BagBalance  int    `json:"bag_balance" gorm:"default:0"`
}

// BeforeCreate hook to auto-generate DriverID and normalize data
func (d *Driver) BeforeCreate(tx *gorm.DB) error {
	if d.DriverID == "" {
		d.DriverID = fmt.Sprintf("DRV%d%03d", time.Now().Unix(), time.Now().Nanosecond()%1000)
	}
	d.Name = strings.TrimSpace(d.Name)
	if d.Status == "" {
		d.Status = DriverStatusInactive
	}
	return nil
}

// DriverRegistration is used when an administrator or roster import creates a driver
type DriverRegistration struct {
	Name        string `json:"name" validate:"required"`
	VehicleType string `json:"vehicle_type"`
}

// HasDevice reports whether the driver has ever checked in from a device.
func (d *Driver) HasDevice() bool {
	return d.DeviceID != ""
}

// IsEligibleForCheckIn checks if the driver can be admitted to the waiting queue
func (d *Driver) IsEligibleForCheckIn() bool {
	return d.Status == DriverStatusInactive
}
