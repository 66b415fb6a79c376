package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Crop is one planting cycle. Its total initial cost is derived, never stored.
type Crop struct {
	ID           uint            `gorm:"primaryKey"`
	FarmerID     uint            `gorm:"index;not null"`
	Name         string          `gorm:"size:100;not null"`
	PlantedOn    time.Time       `gorm:"type:date;index;not null"`
	QuantitySown decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SowingUnit   string          `gorm:"size:20;not null;default:kg"`
	SeedCost     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	LaborCost    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Area         decimal.Decimal `gorm:"type:decimal(12,2);not null"` // hectares
	Zone         string          `gorm:"size:100;not null"`
	Notes        string          `gorm:"type:text"`
	Harvests     []Harvest       `gorm:"constraint:OnDelete:CASCADE"`
	Expenses     []Expense       `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
