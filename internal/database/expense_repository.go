package database

import (
	"context"
	"fmt"

	"agri-backend/internal/models"
	"agri-backend/internal/repository"

	"gorm.io/gorm"
)

type expenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) repository.ExpenseRepository {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) Create(ctx context.Context, e *models.Expense) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

func (r *expenseRepository) Get(ctx context.Context, farmerID, id uint) (*models.Expense, error) {
	var e models.Expense
	if err := r.db.WithContext(ctx).First(&e, "id = ? AND farmer_id = ?", id, farmerID).Error; err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (r *expenseRepository) List(ctx context.Context, farmerID uint, f repository.ExpenseFilter) ([]models.Expense, error) {
	q := r.db.WithContext(ctx).Where("farmer_id = ?", farmerID)
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.CropID != 0 {
		q = q.Where("crop_id = ?", f.CropID)
	}
	if !f.From.IsZero() {
		q = q.Where("spent_on >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("spent_on < ?", f.To)
	}

	var expenses []models.Expense
	if err := q.Order("spent_on desc, id desc").Find(&expenses).Error; err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

func (r *expenseRepository) Update(ctx context.Context, e *models.Expense) error {
	if err := r.db.WithContext(ctx).Save(e).Error; err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return nil
}

func (r *expenseRepository) Delete(ctx context.Context, farmerID, id uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND farmer_id = ?", id, farmerID).
		Delete(&models.Expense{})
	if res.Error != nil {
		return fmt.Errorf("delete expense: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
