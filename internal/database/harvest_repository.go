package database

import (
	"context"
	"fmt"

	"agri-backend/internal/models"
	"agri-backend/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type harvestRepository struct {
	db *gorm.DB
}

func NewHarvestRepository(db *gorm.DB) repository.HarvestRepository {
	return &harvestRepository{db: db}
}

// owned restricts harvests to those whose crop belongs to the farmer.
func owned(db *gorm.DB, farmerID uint) *gorm.DB {
	return db.Where("harvests.crop_id IN (?)",
		db.Session(&gorm.Session{NewDB: true}).Model(&models.Crop{}).Select("id").Where("farmer_id = ?", farmerID))
}

func (r *harvestRepository) Create(ctx context.Context, h *models.Harvest) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(h).Error; err != nil {
		return fmt.Errorf("create harvest: %w", err)
	}
	return nil
}

func (r *harvestRepository) Get(ctx context.Context, farmerID, id uint) (*models.Harvest, error) {
	var h models.Harvest
	err := owned(r.db.WithContext(ctx), farmerID).
		Preload("Crop").
		First(&h, "harvests.id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &h, nil
}

func (r *harvestRepository) List(ctx context.Context, farmerID uint, f repository.HarvestFilter) ([]models.Harvest, error) {
	q := owned(r.db.WithContext(ctx), farmerID)
	if f.CropID != 0 {
		q = q.Where("harvests.crop_id = ?", f.CropID)
	}
	if !f.From.IsZero() {
		q = q.Where("harvests.harvested_on >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("harvests.harvested_on < ?", f.To)
	}

	var harvests []models.Harvest
	err := q.Preload("Crop").
		Order("harvests.harvested_on desc, harvests.id desc").
		Find(&harvests).Error
	if err != nil {
		return nil, fmt.Errorf("list harvests: %w", err)
	}
	return harvests, nil
}

func (r *harvestRepository) Update(ctx context.Context, h *models.Harvest) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(h).Error; err != nil {
		return fmt.Errorf("update harvest: %w", err)
	}
	return nil
}

func (r *harvestRepository) Delete(ctx context.Context, farmerID, id uint) error {
	res := owned(r.db.WithContext(ctx), farmerID).
		Where("harvests.id = ?", id).
		Delete(&models.Harvest{})
	if res.Error != nil {
		return fmt.Errorf("delete harvest: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
