package database

import (
	"context"
	"fmt"

	"agri-backend/internal/models"
	"agri-backend/internal/repository"

	"gorm.io/gorm"
)

type advisoryRepository struct {
	db *gorm.DB
}

func NewAdvisoryRepository(db *gorm.DB) repository.AdvisoryRepository {
	return &advisoryRepository{db: db}
}

func (r *advisoryRepository) Create(ctx context.Context, a *models.Advisory) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("create advisory: %w", err)
	}
	return nil
}

func (r *advisoryRepository) Get(ctx context.Context, farmerID, id uint) (*models.Advisory, error) {
	var a models.Advisory
	if err := r.db.WithContext(ctx).First(&a, "id = ? AND farmer_id = ?", id, farmerID).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *advisoryRepository) List(ctx context.Context, farmerID uint, f repository.AdvisoryFilter) ([]models.Advisory, error) {
	q := r.db.WithContext(ctx).Where("farmer_id = ?", farmerID)
	if f.Read != nil {
		q = q.Where("is_read = ?", *f.Read)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if !f.ActiveOn.IsZero() {
		q = q.Where("(expires_at IS NULL OR expires_at >= ?)", f.ActiveOn)
	}

	var advisories []models.Advisory
	if err := q.Order("created_at desc, id desc").Find(&advisories).Error; err != nil {
		return nil, fmt.Errorf("list advisories: %w", err)
	}
	return advisories, nil
}

func (r *advisoryRepository) Update(ctx context.Context, a *models.Advisory) error {
	err := r.db.WithContext(ctx).Model(a).
		Select("title", "body", "type", "priority", "expires_at").
		Updates(a).Error
	if err != nil {
		return fmt.Errorf("update advisory: %w", err)
	}
	return nil
}

// SetRead is idempotent: setting the flag to its current value succeeds.
func (r *advisoryRepository) SetRead(ctx context.Context, farmerID, id uint, read bool) (*models.Advisory, error) {
	var a models.Advisory
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&a, "id = ? AND farmer_id = ?", id, farmerID).Error; err != nil {
			return notFound(err)
		}
		if a.IsRead == read {
			return nil
		}
		if err := tx.Model(&a).Update("is_read", read).Error; err != nil {
			return fmt.Errorf("set advisory read flag: %w", err)
		}
		a.IsRead = read
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *advisoryRepository) Delete(ctx context.Context, farmerID, id uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND farmer_id = ?", id, farmerID).
		Delete(&models.Advisory{})
	if res.Error != nil {
		return fmt.Errorf("delete advisory: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
