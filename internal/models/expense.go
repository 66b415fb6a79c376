package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ExpenseCategory string

const (
	CategorySeeds      ExpenseCategory = "seeds"
	CategoryFertilizer ExpenseCategory = "fertilizer"
	CategoryPesticides ExpenseCategory = "pesticides"
	CategoryEquipment  ExpenseCategory = "equipment"
	CategoryFuel       ExpenseCategory = "fuel"
	CategoryTransport  ExpenseCategory = "transport"
	CategoryLabor      ExpenseCategory = "labor"
	CategoryIrrigation ExpenseCategory = "irrigation"
	CategoryStorage    ExpenseCategory = "storage"
	CategoryOther      ExpenseCategory = "other"
)

// ExpenseCategories lists every accepted category in display order.
var ExpenseCategories = []ExpenseCategory{
	CategorySeeds, CategoryFertilizer, CategoryPesticides, CategoryEquipment, CategoryFuel,
	CategoryTransport, CategoryLabor, CategoryIrrigation, CategoryStorage, CategoryOther,
}

func (c ExpenseCategory) Valid() bool {
	for _, v := range ExpenseCategories {
		if c == v {
			return true
		}
	}
	return false
}

// Expense is a standalone cost, optionally tied to one of the farmer's crops.
type Expense struct {
	ID          uint            `gorm:"primaryKey"`
	FarmerID    uint            `gorm:"index;not null"`
	CropID      *uint           `gorm:"index"`
	Description string          `gorm:"size:200;not null"`
	Category    ExpenseCategory `gorm:"size:20;index;not null;default:other"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SpentOn     time.Time       `gorm:"type:date;index;not null"`
	Supplier    *string         `gorm:"size:100"`
	Notes       string          `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
