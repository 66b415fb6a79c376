package audit

import (
	"encoding/json"

	"agri-backend/internal/auth"
	"agri-backend/internal/httpx"
	"agri-backend/internal/models"
	"agri-backend/internal/repository"

	"github.com/gofiber/fiber/v2"
)

type ActivityResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	EntityType  string             `json:"entity_type"`
	EntityID    uint               `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	Before      json.RawMessage    `json:"before"`
	After       json.RawMessage    `json:"after"`
}

// GET /api/activity?entity_type=crop&entity_id=1
func ListActivityHandler(repo repository.AuditRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}

		entityID, err := httpx.QueryID(c, "entity_id")
		if err != nil {
			return err
		}
		filter := repository.AuditFilter{EntityType: c.Query("entity_type"), EntityID: entityID}

		logs, err := repo.List(c.UserContext(), farmerID, filter)
		if err != nil {
			return err
		}

		resp := make([]ActivityResponse, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, ActivityResponse{
				ID:          l.ID,
				CreatedAt:   l.CreatedAt.Format("2006-01-02 15:04:05"),
				EntityType:  l.EntityType,
				EntityID:    l.EntityID,
				Action:      l.Action,
				Description: l.Description,
				Before:      rawJSON(l.BeforeData),
				After:       rawJSON(l.AfterData),
			})
		}

		return c.JSON(resp)
	}
}

func rawJSON(s string) json.RawMessage {
	if s == "" || !json.Valid([]byte(s)) {
		return json.RawMessage("null")
	}
	return json.RawMessage(s)
}
