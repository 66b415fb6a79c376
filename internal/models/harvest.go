package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type HarvestQuality string

const (
	QualityExcellent HarvestQuality = "excellent"
	QualityGood      HarvestQuality = "good"
	QualityAverage   HarvestQuality = "average"
	QualityPoor      HarvestQuality = "poor"
)

// Harvest belongs to a crop; the owning farmer is the crop's farmer.
type Harvest struct {
	ID             uint            `gorm:"primaryKey"`
	CropID         uint            `gorm:"index;not null"`
	Crop           Crop
	HarvestedOn    time.Time       `gorm:"type:date;index;not null"`
	Quantity       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Unit           string          `gorm:"size:20;not null;default:kg"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	LinkedExpenses decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Quality        HarvestQuality  `gorm:"size:20;not null;default:good"`
	Notes          string          `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
