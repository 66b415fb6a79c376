package database

import (
	"context"
	"fmt"
	"strings"

	"agri-backend/internal/models"
	"agri-backend/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type cropRepository struct {
	db *gorm.DB
}

func NewCropRepository(db *gorm.DB) repository.CropRepository {
	return &cropRepository{db: db}
}

func (r *cropRepository) Create(ctx context.Context, c *models.Crop) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error; err != nil {
		return fmt.Errorf("create crop: %w", err)
	}
	return nil
}

func (r *cropRepository) Get(ctx context.Context, farmerID, id uint) (*models.Crop, error) {
	var c models.Crop
	err := r.db.WithContext(ctx).
		Preload("Harvests", func(db *gorm.DB) *gorm.DB { return db.Order("harvested_on desc, id desc") }).
		First(&c, "id = ? AND farmer_id = ?", id, farmerID).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *cropRepository) GetDetail(ctx context.Context, farmerID, id uint) (*models.Crop, error) {
	var c models.Crop
	err := r.db.WithContext(ctx).
		Preload("Harvests", func(db *gorm.DB) *gorm.DB { return db.Order("harvested_on desc, id desc") }).
		Preload("Expenses", func(db *gorm.DB) *gorm.DB {
			return db.Where("farmer_id = ?", farmerID).Order("spent_on desc, id desc")
		}).
		First(&c, "id = ? AND farmer_id = ?", id, farmerID).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *cropRepository) OwnerOf(ctx context.Context, id uint) (uint, error) {
	var c models.Crop
	if err := r.db.WithContext(ctx).Select("id", "farmer_id").First(&c, "id = ?", id).Error; err != nil {
		return 0, notFound(err)
	}
	return c.FarmerID, nil
}

func (r *cropRepository) List(ctx context.Context, farmerID uint, f repository.CropFilter) ([]models.Crop, error) {
	q := r.db.WithContext(ctx).Where("farmer_id = ?", farmerID)
	if name := strings.TrimSpace(f.Name); name != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if !f.From.IsZero() {
		q = q.Where("planted_on >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("planted_on < ?", f.To)
	}

	var crops []models.Crop
	err := q.Preload("Harvests").
		Order("planted_on desc, id desc").
		Find(&crops).Error
	if err != nil {
		return nil, fmt.Errorf("list crops: %w", err)
	}
	return crops, nil
}

func (r *cropRepository) Options(ctx context.Context, farmerID uint) ([]repository.CropOption, error) {
	var opts []repository.CropOption
	err := r.db.WithContext(ctx).Model(&models.Crop{}).
		Select("id", "name", "planted_on").
		Where("farmer_id = ?", farmerID).
		Order("planted_on desc, id desc").
		Scan(&opts).Error
	if err != nil {
		return nil, fmt.Errorf("list crop options: %w", err)
	}
	return opts, nil
}

func (r *cropRepository) Update(ctx context.Context, c *models.Crop) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(c).Error; err != nil {
		return fmt.Errorf("update crop: %w", err)
	}
	return nil
}

func (r *cropRepository) Delete(ctx context.Context, farmerID, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Crop
		if err := tx.Select("id").First(&c, "id = ? AND farmer_id = ?", id, farmerID).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Where("crop_id = ?", id).Delete(&models.Harvest{}).Error; err != nil {
			return fmt.Errorf("delete harvests: %w", err)
		}
		if err := tx.Where("crop_id = ? AND farmer_id = ?", id, farmerID).Delete(&models.Expense{}).Error; err != nil {
			return fmt.Errorf("delete tied expenses: %w", err)
		}
		if err := tx.Delete(&models.Crop{}, id).Error; err != nil {
			return fmt.Errorf("delete crop: %w", err)
		}
		return nil
	})
}
