package services

import (
	"github.com/reparto-ops/dispatch-backend/internal/models"
	"github.com/reparto-ops/dispatch-backend/internal/storage"
)

// BagService manages the returnable-bag ledger. Issues happen inside the
// dispatch transition; this service handles operator-entered returns and the
// audit trail.
type BagService struct {
	store storage.Store
}

// NewBagService creates a new bag ledger service
func NewBagService(store storage.Store) *BagService {
	return &BagService{store: store}
}

// Return records a bag return, bounded by [1, current balance]. The store
// rejects anything else without changing the balance.
func (s *BagService) Return(driverID string, quantity int) (int, error) {
	return s.store.ReturnBags(driverID, quantity)
}

// Transactions returns the driver's bag movements, oldest first
func (s *BagService) Transactions(driverID string) ([]*models.BagTransaction, error) {
	return s.store.GetBagTransactions(driverID)
}

// Balance returns the driver's current bag balance
func (s *BagService) Balance(driverID string) (int, error) {
	driver, err := s.store.GetDriver(driverID)
	if err != nil {
		return 0, err
	}
	return driver.BagBalance, nil
}
