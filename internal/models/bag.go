package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Bag transaction kinds
const (
	BagTxIssue  = "issue"  // bags handed out at dispatch
	BagTxReturn = "return" // bags handed back by the driver
)

// BagTransaction is one immutable movement in a driver's returnable-bag
// balance. The running balance on Driver is always the sum of issues minus
// returns, which keeps the counter auditable after the fact.
type BagTransaction struct {
	gorm.Model

	TxID     string `json:"tx_id" gorm:"uniqueIndex"`
	DriverID string `json:"driver_id" gorm:"index"`
	RecordID string `json:"record_id"` // dispatch record that caused an issue, empty for returns
	Kind     string `json:"kind"`
	Quantity int    `json:"quantity"`
}

// BeforeCreate hook to auto-generate TxID
func (t *BagTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.TxID == "" {
		t.TxID = fmt.Sprintf("BAG%d%03d", time.Now().Unix(), time.Now().Nanosecond()%1000)
	}
	return nil
}
