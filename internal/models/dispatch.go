package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Dispatch record states. A record is created "pending" by a scheduled roster
// import, moves to "queued" when the driver is admitted to the waiting room,
// to "dispatched" when the coordinator marks the driver out with a bag count,
// and to "completed" at shift end. Terminal records are never mutated.
const (
	DispatchStatusPending    = "pending"
	DispatchStatusQueued     = "queued"
	DispatchStatusDispatched = "dispatched"
	DispatchStatusCompleted  = "completed"
	DispatchStatusCancelled  = "cancelled"
)

var dispatchTransitions = map[string]map[string]struct{}{
	DispatchStatusPending:    {DispatchStatusQueued: {}, DispatchStatusCancelled: {}},
	DispatchStatusQueued:     {DispatchStatusDispatched: {}, DispatchStatusCancelled: {}},
	DispatchStatusDispatched: {DispatchStatusCompleted: {}},
	DispatchStatusCompleted:  {},
	DispatchStatusCancelled:  {},
}

// CanTransitionDispatch returns whether a dispatch record may move between statuses.
func CanTransitionDispatch(from, to string) bool {
	if from == to {
		return true
	}
	allowed, ok := dispatchTransitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// IsTerminalDispatchStatus reports whether a record in this status is frozen.
func IsTerminalDispatchStatus(s string) bool {
	return s == DispatchStatusCompleted || s == DispatchStatusCancelled
}

// DispatchRecord represents one check-in-to-completion cycle for a driver
type DispatchRecord struct {
	gorm.Model

	RecordID string `json:"record_id" gorm:"uniqueIndex"`
	DriverID string `json:"driver_id" gorm:"index"`
	// DriverName is a display projection for queue views and exports.
	// All joins are keyed by DriverID.
	DriverName string `json:"driver_name"`
	DeviceID   string `json:"device_id" gorm:"index"`
	Status     string `json:"status" gorm:"index"`

	StartTime time.Time  `json:"start_time" gorm:"index"`
	EndTime   *time.Time `json:"end_time"`

	StartLat *float64 `json:"start_lat"`
	StartLng *float64 `json:"start_lng"`
	EndLat   *float64 `json:"end_lat"`
	EndLng   *float64 `json:"end_lng"`

	SelfieURL       string `json:"selfie_url"`
	DestinationArea string `json:"destination_area"`
	BagsTaken       int    `json:"bags_taken"`
}

// BeforeCreate hook to auto-generate RecordID and default the start time
func (r *DispatchRecord) BeforeCreate(tx *gorm.DB) error {
	if r.RecordID == "" {
		r.RecordID = fmt.Sprintf("DSP%d%03d", time.Now().Unix(), time.Now().Nanosecond()%1000)
	}
	if r.Status == "" {
		r.Status = DispatchStatusPending
	}
	if r.StartTime.IsZero() {
		r.StartTime = time.Now()
	}
	return nil
}

// SelfieTaken reports whether a selfie was captured for this record.
func (r *DispatchRecord) SelfieTaken() bool {
	return r.SelfieURL != ""
}

// CheckInRequest is the payload a driver device sends to enter the queue
type CheckInRequest struct {
	Name      string   `json:"name" validate:"required"`
	DeviceID  string   `json:"device_id" validate:"required"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	SelfieURL string   `json:"selfie_url"`
}

// RosterEntry is a single pre-seeded queue slot for a scheduled roster import
type RosterEntry struct {
	Name      string
	StartTime time.Time
}
