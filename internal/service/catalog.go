package service

import (
	"lejting/internal/models"

	"github.com/shopspring/decimal"
)

// DefaultCatalog is the sample inventory seeded when the config lists no
// items.
func DefaultCatalog() []models.Item {
	return []models.Item{
		{ID: "BIKE001", Name: "Mountain Bike", DailyRate: decimal.NewFromInt(50), Description: "High-quality mountain bike for outdoor adventures"},
		{ID: "CAR001", Name: "Compact Car", DailyRate: decimal.NewFromInt(300), Description: "Fuel-efficient compact car for city driving"},
		{ID: "TENT001", Name: "Camping Tent", DailyRate: decimal.NewFromInt(25), Description: "4-person camping tent, waterproof"},
		{ID: "TOOLS001", Name: "Power Drill Set", DailyRate: decimal.NewFromInt(75), Description: "Professional power drill with accessories"},
	}
}
