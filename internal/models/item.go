package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is a rentable asset. While rented, the renter and the rental period
// are copied onto the item; RentedBy, RentalStart and RentalEnd are either
// all set or all unset.
type Item struct {
	ID          string          `yaml:"id" json:"item_id"`
	Name        string          `yaml:"name" json:"name"`
	DailyRate   decimal.Decimal `yaml:"daily_rate" json:"daily_rate"`
	Description string          `yaml:"description" json:"description"`
	IsAvailable bool            `yaml:"-" json:"is_available"`
	RentedBy    *string         `yaml:"-" json:"rented_by"`
	RentalStart *time.Time      `yaml:"-" json:"rental_start"`
	RentalEnd   *time.Time      `yaml:"-" json:"rental_end"`
}

// Rented reports whether the rental fields are populated.
func (i Item) Rented() bool {
	return i.RentedBy != nil && i.RentalStart != nil && i.RentalEnd != nil
}

// Consistent reports whether availability agrees with the rental fields.
func (i Item) Consistent() bool {
	unset := i.RentedBy == nil && i.RentalStart == nil && i.RentalEnd == nil
	if i.IsAvailable {
		return unset
	}
	return i.Rented()
}

// Renter returns the renter name or "" for an available item.
func (i Item) Renter() string {
	if i.RentedBy == nil {
		return ""
	}
	return *i.RentedBy
}

// Clone returns a deep copy so callers cannot reach the store's pointers.
func (i Item) Clone() Item {
	out := i
	if i.RentedBy != nil {
		v := *i.RentedBy
		out.RentedBy = &v
	}
	if i.RentalStart != nil {
		v := *i.RentalStart
		out.RentalStart = &v
	}
	if i.RentalEnd != nil {
		v := *i.RentalEnd
		out.RentalEnd = &v
	}
	return out
}

// MarkRented fills the rental fields and flips availability off.
func (i *Item) MarkRented(renter string, start, end time.Time) {
	i.IsAvailable = false
	i.RentedBy = &renter
	i.RentalStart = &start
	i.RentalEnd = &end
}

// MarkAvailable clears the rental fields.
func (i *Item) MarkAvailable() {
	i.IsAvailable = true
	i.RentedBy = nil
	i.RentalStart = nil
	i.RentalEnd = nil
}
