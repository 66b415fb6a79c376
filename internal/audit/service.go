package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"agri-backend/internal/logger"
	"agri-backend/internal/metrics"
	"agri-backend/internal/models"
	"agri-backend/internal/repository"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type LogOptions struct {
	FarmerID    uint
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

type Recorder struct {
	repo repository.AuditRepository
}

func NewRecorder(repo repository.AuditRepository) *Recorder {
	return &Recorder{repo: repo}
}

func (r *Recorder) WriteLog(ctx context.Context, opts LogOptions) error {
	// jsonb rejects an empty string, "null" is the empty snapshot
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	entry := models.AuditLog{
		FarmerID:    opts.FarmerID,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}

	if err := r.repo.Create(ctx, &entry); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// Record counts the write and stores its audit trail. A failed audit write is
// logged and never fails the request that already changed the record.
func (r *Recorder) Record(c *fiber.Ctx, opts LogOptions) {
	metrics.RecordWrite(opts.EntityType, string(opts.Action))

	if err := r.WriteLog(c.UserContext(), opts); err != nil {
		logger.FromCtx(c).Warn("audit log not written",
			zap.String("entity_type", opts.EntityType),
			zap.Uint("entity_id", opts.EntityID),
			zap.Error(err),
		)
	}
}
