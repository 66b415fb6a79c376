package database

import (
	"context"
	"database/sql"
	"fmt"

	"agri-backend/internal/models"
	"agri-backend/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) repository.ReportRepository {
	return &reportRepository{db: db}
}

// sum result row; scanning a bare decimal would be taken for a model
type totalRow struct {
	Total decimal.Decimal `gorm:"column:total"`
}

func withinRange(q *gorm.DB, column string, r repository.DateRange) *gorm.DB {
	if !r.From.IsZero() {
		q = q.Where(column+" >= ?", r.From)
	}
	if !r.To.IsZero() {
		q = q.Where(column+" < ?", r.To)
	}
	return q
}

func (r *reportRepository) CountCrops(ctx context.Context, farmerID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Crop{}).Where("farmer_id = ?", farmerID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count crops: %w", err)
	}
	return n, nil
}

func (r *reportRepository) CountHarvests(ctx context.Context, farmerID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Harvest{}).
		Joins("JOIN crops ON crops.id = harvests.crop_id").
		Where("crops.farmer_id = ?", farmerID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count harvests: %w", err)
	}
	return n, nil
}

func (r *reportRepository) CountUnreadAdvisories(ctx context.Context, farmerID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Advisory{}).
		Where("farmer_id = ? AND is_read = ?", farmerID, false).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count unread advisories: %w", err)
	}
	return n, nil
}

func (r *reportRepository) SumRevenue(ctx context.Context, farmerID uint, dr repository.DateRange) (decimal.Decimal, error) {
	q := r.db.WithContext(ctx).Model(&models.Harvest{}).
		Select("COALESCE(SUM(harvests.quantity * harvests.unit_price), 0) AS total").
		Joins("JOIN crops ON crops.id = harvests.crop_id").
		Where("crops.farmer_id = ?", farmerID)
	q = withinRange(q, "harvests.harvested_on", dr)

	var row totalRow
	if err := q.Scan(&row).Error; err != nil {
		return decimal.Zero, fmt.Errorf("sum revenue: %w", err)
	}
	return row.Total, nil
}

func (r *reportRepository) SumCropCosts(ctx context.Context, farmerID uint) (decimal.Decimal, error) {
	var row totalRow
	err := r.db.WithContext(ctx).Model(&models.Crop{}).
		Select("COALESCE(SUM(seed_cost + labor_cost), 0) AS total").
		Where("farmer_id = ?", farmerID).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum crop costs: %w", err)
	}
	return row.Total, nil
}

func (r *reportRepository) SumLinkedExpenses(ctx context.Context, farmerID uint) (decimal.Decimal, error) {
	var row totalRow
	err := r.db.WithContext(ctx).Model(&models.Harvest{}).
		Select("COALESCE(SUM(harvests.linked_expenses), 0) AS total").
		Joins("JOIN crops ON crops.id = harvests.crop_id").
		Where("crops.farmer_id = ?", farmerID).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum linked expenses: %w", err)
	}
	return row.Total, nil
}

func (r *reportRepository) SumExpenses(ctx context.Context, farmerID uint, dr repository.DateRange) (decimal.Decimal, error) {
	q := r.db.WithContext(ctx).Model(&models.Expense{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("farmer_id = ?", farmerID)
	q = withinRange(q, "spent_on", dr)

	var row totalRow
	if err := q.Scan(&row).Error; err != nil {
		return decimal.Zero, fmt.Errorf("sum expenses: %w", err)
	}
	return row.Total, nil
}

const cropPerformanceSQL = `
SELECT c.id, c.name, c.area, c.seed_cost, c.labor_cost,
	COALESCE((SELECT SUM(h.quantity * h.unit_price) FROM harvests h WHERE h.crop_id = c.id), 0) AS revenue,
	COALESCE((SELECT SUM(h.quantity) FROM harvests h WHERE h.crop_id = c.id), 0) AS harvested,
	(SELECT COUNT(*) FROM harvests h WHERE h.crop_id = c.id) AS harvest_count,
	COALESCE((SELECT SUM(e.amount) FROM expenses e WHERE e.crop_id = c.id AND e.farmer_id = c.farmer_id), 0) AS crop_expenses
FROM crops c
WHERE c.farmer_id = ?
ORDER BY c.id ASC`

func (r *reportRepository) CropPerformance(ctx context.Context, farmerID uint) ([]repository.CropPerformance, error) {
	var rows []repository.CropPerformance
	if err := r.db.WithContext(ctx).Raw(cropPerformanceSQL, farmerID).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("crop performance: %w", err)
	}
	return rows, nil
}

func (r *reportRepository) ExpensesByCategory(ctx context.Context, farmerID uint) ([]repository.CategoryTotal, error) {
	type row struct {
		Category models.ExpenseCategory `gorm:"column:category"`
		Total    decimal.Decimal        `gorm:"column:total"`
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Expense{}).
		Select("category, COALESCE(SUM(amount), 0) AS total").
		Where("farmer_id = ?", farmerID).
		Group("category").
		Order("total DESC, category ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("expenses by category: %w", err)
	}

	out := make([]repository.CategoryTotal, 0, len(rows))
	for _, r := range rows {
		out = append(out, repository.CategoryTotal{Category: r.Category, Total: r.Total})
	}
	return out, nil
}

func (r *reportRepository) ReadConsistent(ctx context.Context, fn func(repository.ReportRepository) error) error {
	var opts []*sql.TxOptions
	if r.db.Dialector.Name() == "postgres" {
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&reportRepository{db: tx})
	}, opts...)
}
