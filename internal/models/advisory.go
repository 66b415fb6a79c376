package models

import "time"

type AdvisoryType string

const (
	AdvisoryCrop      AdvisoryType = "crop"
	AdvisoryYield     AdvisoryType = "yield"
	AdvisoryEconomic  AdvisoryType = "economic"
	AdvisoryTechnical AdvisoryType = "technical"
	AdvisorySeasonal  AdvisoryType = "seasonal"
)

type AdvisoryPriority string

const (
	PriorityLow    AdvisoryPriority = "low"
	PriorityMedium AdvisoryPriority = "medium"
	PriorityHigh   AdvisoryPriority = "high"
	PriorityUrgent AdvisoryPriority = "urgent"
)

type Advisory struct {
	ID        uint             `gorm:"primaryKey"`
	FarmerID  uint             `gorm:"index;not null"`
	Title     string           `gorm:"size:200;not null"`
	Body      string           `gorm:"type:text;not null"`
	Type      AdvisoryType     `gorm:"size:20;not null;default:technical"`
	Priority  AdvisoryPriority `gorm:"size:20;not null;default:medium"`

	// IsRead only changes through mark read / mark unread.
	IsRead    bool       `gorm:"index;not null;default:false"`
	ExpiresAt *time.Time `gorm:"type:date"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the advisory's expiration date is before day.
func (a *Advisory) Expired(day time.Time) bool {
	return a.ExpiresAt != nil && a.ExpiresAt.Before(day)
}
