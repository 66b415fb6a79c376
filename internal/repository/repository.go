// Package repository declares the storage contracts of the service. Every query
// that reads or writes farmer data takes the farmer id explicitly.
package repository

import (
	"context"
	"errors"
	"time"

	"agri-backend/internal/models"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a record does not exist or belongs to another farmer.
var ErrNotFound = errors.New("record not found")

// DateRange is half open: From is included, To is excluded. Zero bounds are open.
type DateRange struct {
	From time.Time
	To   time.Time
}

type FarmerRepository interface {
	Create(ctx context.Context, f *models.Farmer) error
	GetByID(ctx context.Context, id uint) (*models.Farmer, error)
	GetByUsername(ctx context.Context, username string) (*models.Farmer, error)
	UsernameTaken(ctx context.Context, username string, exceptID uint) (bool, error)
	AdminExists(ctx context.Context) (bool, error)
	List(ctx context.Context) ([]models.Farmer, error)
	Update(ctx context.Context, f *models.Farmer) error
	SetActive(ctx context.Context, id uint, active bool) error
	// RevokeTokens invalidates every token issued so far for the farmer.
	RevokeTokens(ctx context.Context, id uint) error
	// Delete removes the farmer and everything the farmer owns.
	Delete(ctx context.Context, id uint) error
}

type CropFilter struct {
	Name string // case-insensitive substring
	DateRange
}

type CropOption struct {
	ID        uint
	Name      string
	PlantedOn time.Time
}

type CropRepository interface {
	Create(ctx context.Context, c *models.Crop) error
	// Get loads the crop with its harvests.
	Get(ctx context.Context, farmerID, id uint) (*models.Crop, error)
	// GetDetail loads the crop with its harvests and tied expenses.
	GetDetail(ctx context.Context, farmerID, id uint) (*models.Crop, error)
	// OwnerOf returns the farmer owning the crop regardless of who asks.
	OwnerOf(ctx context.Context, id uint) (uint, error)
	List(ctx context.Context, farmerID uint, f CropFilter) ([]models.Crop, error)
	Options(ctx context.Context, farmerID uint) ([]CropOption, error)
	Update(ctx context.Context, c *models.Crop) error
	// Delete removes the crop, its harvests and its tied expenses.
	Delete(ctx context.Context, farmerID, id uint) error
}

type HarvestFilter struct {
	CropID uint
	DateRange
}

type HarvestRepository interface {
	Create(ctx context.Context, h *models.Harvest) error
	// Get loads the harvest with its crop.
	Get(ctx context.Context, farmerID, id uint) (*models.Harvest, error)
	List(ctx context.Context, farmerID uint, f HarvestFilter) ([]models.Harvest, error)
	Update(ctx context.Context, h *models.Harvest) error
	Delete(ctx context.Context, farmerID, id uint) error
}

type ExpenseFilter struct {
	Category models.ExpenseCategory
	CropID   uint
	DateRange
}

type ExpenseRepository interface {
	Create(ctx context.Context, e *models.Expense) error
	Get(ctx context.Context, farmerID, id uint) (*models.Expense, error)
	List(ctx context.Context, farmerID uint, f ExpenseFilter) ([]models.Expense, error)
	Update(ctx context.Context, e *models.Expense) error
	Delete(ctx context.Context, farmerID, id uint) error
}

type AdvisoryFilter struct {
	Read     *bool
	Type     models.AdvisoryType
	Priority models.AdvisoryPriority
	// ActiveOn, when set, drops advisories that expired before that day.
	ActiveOn time.Time
}

type AdvisoryRepository interface {
	Create(ctx context.Context, a *models.Advisory) error
	Get(ctx context.Context, farmerID, id uint) (*models.Advisory, error)
	List(ctx context.Context, farmerID uint, f AdvisoryFilter) ([]models.Advisory, error)
	// Update writes content fields only; the read flag is never touched.
	Update(ctx context.Context, a *models.Advisory) error
	SetRead(ctx context.Context, farmerID, id uint, read bool) (*models.Advisory, error)
	Delete(ctx context.Context, farmerID, id uint) error
}

type AuditFilter struct {
	EntityType string
	EntityID   uint
}

type AuditRepository interface {
	Create(ctx context.Context, l *models.AuditLog) error
	List(ctx context.Context, farmerID uint, f AuditFilter) ([]models.AuditLog, error)
}

// CropPerformance carries the per-crop aggregates the reporting engine needs.
type CropPerformance struct {
	ID           uint
	Name         string
	Area         decimal.Decimal
	SeedCost     decimal.Decimal
	LaborCost    decimal.Decimal
	Revenue      decimal.Decimal
	Harvested    decimal.Decimal
	HarvestCount int64
	CropExpenses decimal.Decimal
}

type CategoryTotal struct {
	Category models.ExpenseCategory
	Total    decimal.Decimal
}

// ReportRepository exposes the aggregate queries behind the dashboard.
type ReportRepository interface {
	CountCrops(ctx context.Context, farmerID uint) (int64, error)
	CountHarvests(ctx context.Context, farmerID uint) (int64, error)
	CountUnreadAdvisories(ctx context.Context, farmerID uint) (int64, error)
	// SumRevenue sums quantity times unit price per harvest dated within r.
	SumRevenue(ctx context.Context, farmerID uint, r DateRange) (decimal.Decimal, error)
	SumCropCosts(ctx context.Context, farmerID uint) (decimal.Decimal, error)
	SumLinkedExpenses(ctx context.Context, farmerID uint) (decimal.Decimal, error)
	// SumExpenses sums standalone expenses dated within r.
	SumExpenses(ctx context.Context, farmerID uint, r DateRange) (decimal.Decimal, error)
	// CropPerformance lists every crop of the farmer ordered by id.
	CropPerformance(ctx context.Context, farmerID uint) ([]CropPerformance, error)
	// ExpensesByCategory is sorted by total descending, then category.
	ExpensesByCategory(ctx context.Context, farmerID uint) ([]CategoryTotal, error)
	// ReadConsistent runs fn against a single read transaction.
	ReadConsistent(ctx context.Context, fn func(ReportRepository) error) error
}
