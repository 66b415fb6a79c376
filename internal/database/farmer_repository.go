package database

import (
	"context"
	"fmt"

	"agri-backend/internal/models"
	"agri-backend/internal/repository"

	"gorm.io/gorm"
)

type farmerRepository struct {
	db *gorm.DB
}

func NewFarmerRepository(db *gorm.DB) repository.FarmerRepository {
	return &farmerRepository{db: db}
}

func (r *farmerRepository) Create(ctx context.Context, f *models.Farmer) error {
	if err := r.db.WithContext(ctx).Create(f).Error; err != nil {
		return fmt.Errorf("create farmer: %w", err)
	}
	return nil
}

func (r *farmerRepository) GetByID(ctx context.Context, id uint) (*models.Farmer, error) {
	var f models.Farmer
	if err := r.db.WithContext(ctx).First(&f, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

func (r *farmerRepository) GetByUsername(ctx context.Context, username string) (*models.Farmer, error) {
	var f models.Farmer
	if err := r.db.WithContext(ctx).First(&f, "username = ?", username).Error; err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

func (r *farmerRepository) UsernameTaken(ctx context.Context, username string, exceptID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Farmer{}).
		Where("username = ? AND id <> ?", username, exceptID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return count > 0, nil
}

func (r *farmerRepository) AdminExists(ctx context.Context) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Farmer{}).
		Where("role = ?", models.RoleAdmin).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	return count > 0, nil
}

func (r *farmerRepository) List(ctx context.Context) ([]models.Farmer, error) {
	var farmers []models.Farmer
	if err := r.db.WithContext(ctx).Order("id asc").Find(&farmers).Error; err != nil {
		return nil, fmt.Errorf("list farmers: %w", err)
	}
	return farmers, nil
}

func (r *farmerRepository) Update(ctx context.Context, f *models.Farmer) error {
	err := r.db.WithContext(ctx).Model(f).
		Select("email", "first_name", "last_name", "farming_type", "zone", "phone").
		Updates(f).Error
	if err != nil {
		return fmt.Errorf("update farmer: %w", err)
	}
	return nil
}

func (r *farmerRepository) SetActive(ctx context.Context, id uint, active bool) error {
	res := r.db.WithContext(ctx).Model(&models.Farmer{}).
		Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return fmt.Errorf("set farmer status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *farmerRepository) RevokeTokens(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Farmer{}).
		Where("id = ?", id).
		UpdateColumn("token_version", gorm.Expr("token_version + 1"))
	if res.Error != nil {
		return fmt.Errorf("revoke tokens: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *farmerRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var f models.Farmer
		if err := tx.First(&f, "id = ?", id).Error; err != nil {
			return notFound(err)
		}

		cropIDs := tx.Model(&models.Crop{}).Select("id").Where("farmer_id = ?", id)
		steps := []struct {
			name  string
			model any
			query *gorm.DB
		}{
			{"harvests", &models.Harvest{}, tx.Where("crop_id IN (?)", cropIDs)},
			{"expenses", &models.Expense{}, tx.Where("farmer_id = ?", id)},
			{"crops", &models.Crop{}, tx.Where("farmer_id = ?", id)},
			{"advisories", &models.Advisory{}, tx.Where("farmer_id = ?", id)},
			{"audit logs", &models.AuditLog{}, tx.Where("farmer_id = ?", id)},
		}
		for _, s := range steps {
			if err := s.query.Delete(s.model).Error; err != nil {
				return fmt.Errorf("delete %s: %w", s.name, err)
			}
		}

		if err := tx.Delete(&f).Error; err != nil {
			return fmt.Errorf("delete farmer: %w", err)
		}
		return nil
	})
}
