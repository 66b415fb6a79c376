package models

import "time"

type FarmerRole string

const (
	RoleFarmer FarmerRole = "farmer"
	RoleAdmin  FarmerRole = "admin"
)

type FarmingType string

const (
	FarmingSubsistence FarmingType = "subsistence"
	FarmingCommercial  FarmingType = "commercial"
	FarmingMixed       FarmingType = "mixed"
)

// Farmer is the account owning every other record.
type Farmer struct {
	ID           uint        `gorm:"primaryKey"`
	Username     string      `gorm:"size:150;uniqueIndex;not null"`
	Email        string      `gorm:"size:254;not null"`
	FirstName    string      `gorm:"size:100;not null"`
	LastName     string      `gorm:"size:100;not null"`
	FarmingType  FarmingType `gorm:"size:20;not null;default:mixed"`
	Zone         string      `gorm:"size:100;not null"`
	Phone        *string     `gorm:"size:20"`
	PasswordHash string      `gorm:"size:255;not null"`
	Role         FarmerRole  `gorm:"size:20;not null;default:farmer"`
	IsActive     bool        `gorm:"not null;default:true"`

	// TokenVersion is embedded in every issued token; bumping it revokes them all.
	TokenVersion int `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
