package database

import (
	"context"
	"fmt"

	"agri-backend/internal/models"
	"agri-backend/internal/repository"

	"gorm.io/gorm"
)

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) repository.AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, l *models.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, farmerID uint, f repository.AuditFilter) ([]models.AuditLog, error) {
	q := r.db.WithContext(ctx).Where("farmer_id = ?", farmerID)
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != 0 {
		q = q.Where("entity_id = ?", f.EntityID)
	}

	var logs []models.AuditLog
	if err := q.Order("created_at desc, id desc").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}
