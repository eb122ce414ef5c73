package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction records one rental period. Everything but IsCompleted is fixed
// at creation.
type Transaction struct {
	ID          string          `json:"transaction_id"`
	Sequence    int64           `json:"sequence"`
	ItemID      string          `json:"item_id"`
	RenterName  string          `json:"renter_name"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     time.Time       `json:"end_date"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	IsCompleted bool            `json:"is_completed"`
}

// Status returns the human label used in listings and exports.
func (t Transaction) Status() string {
	if t.IsCompleted {
		return StatusCompleted
	}
	return StatusActive
}

// Days returns the rented period length in whole days.
func (t Transaction) Days() int {
	return int(t.EndDate.Sub(t.StartDate) / (24 * time.Hour))
}
