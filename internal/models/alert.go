package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Fraud alert kinds raised by the check-in heuristics. Advisory only; the
// device id is a self-reported client token, not a cryptographic identity.
const (
	AlertKindDuplicateName          = "duplicate_name"
	AlertKindDuplicateDeviceBinding = "duplicate_device_binding"
	AlertKindNameMismatchOnDevice   = "name_mismatch_on_device"
)

// FraudAlert is an advisory flag recorded during check-in evaluation.
// Alerts are append-only and cleared in bulk by an administrator.
type FraudAlert struct {
	gorm.Model

	AlertID    string `json:"alert_id" gorm:"uniqueIndex"`
	Kind       string `json:"kind" gorm:"index"`
	Message    string `json:"message"`
	DriverName string `json:"driver_name"`
	DeviceID   string `json:"device_id"`
}

// BeforeCreate hook to auto-generate AlertID
func (a *FraudAlert) BeforeCreate(tx *gorm.DB) error {
	if a.AlertID == "" {
		a.AlertID = fmt.Sprintf("ALR%d%03d", time.Now().Unix(), time.Now().Nanosecond()%1000)
	}
	return nil
}
