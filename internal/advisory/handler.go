package advisory

import (
	"fmt"
	"strings"
	"time"

	"agri-backend/internal/audit"
	"agri-backend/internal/auth"
	"agri-backend/internal/httpx"
	"agri-backend/internal/models"
	"agri-backend/internal/repository"
	"agri-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type CreateAdvisoryRequest struct {
	Title     string                  `json:"title" validate:"required,max=200"`
	Body      string                  `json:"body" validate:"required"`
	Type      models.AdvisoryType     `json:"type" validate:"omitempty,oneof=crop yield economic technical seasonal"`
	Priority  models.AdvisoryPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	ExpiresAt *string                 `json:"expires_at" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateAdvisoryRequest is partial; an empty expires_at clears the expiration.
// The read flag is not part of it.
type UpdateAdvisoryRequest struct {
	Title     *string                  `json:"title" validate:"omitempty,min=1,max=200"`
	Body      *string                  `json:"body" validate:"omitempty,min=1"`
	Type      *models.AdvisoryType     `json:"type" validate:"omitempty,oneof=crop yield economic technical seasonal"`
	Priority  *models.AdvisoryPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	ExpiresAt *string                  `json:"expires_at" validate:"omitempty,datetime=2006-01-02"`
}

type AdvisoryResponse struct {
	ID        uint    `json:"id"`
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	Type      string  `json:"type"`
	Priority  string  `json:"priority"`
	IsRead    bool    `json:"is_read"`
	ExpiresAt *string `json:"expires_at"`
	CreatedAt string  `json:"created_at"`
}

func ToResponse(a *models.Advisory) AdvisoryResponse {
	resp := AdvisoryResponse{
		ID:        a.ID,
		Title:     a.Title,
		Body:      a.Body,
		Type:      string(a.Type),
		Priority:  string(a.Priority),
		IsRead:    a.IsRead,
		CreatedAt: a.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if a.ExpiresAt != nil {
		s := httpx.FormatDate(*a.ExpiresAt)
		resp.ExpiresAt = &s
	}
	return resp
}

func parseExpiry(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := httpx.ParseDate("expires_at", *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ParseCreate reads and validates a new advisory for farmerID from the request body.
func ParseCreate(c *fiber.Ctx, farmerID uint) (*models.Advisory, error) {
	var body CreateAdvisoryRequest
	if err := c.BodyParser(&body); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	body.Title = strings.TrimSpace(body.Title)
	body.Body = strings.TrimSpace(body.Body)
	if err := validation.Struct(body); err != nil {
		return nil, err
	}

	expiresAt, err := parseExpiry(body.ExpiresAt)
	if err != nil {
		return nil, err
	}

	a := &models.Advisory{
		FarmerID:  farmerID,
		Title:     body.Title,
		Body:      body.Body,
		Type:      body.Type,
		Priority:  body.Priority,
		ExpiresAt: expiresAt,
	}
	if a.Type == "" {
		a.Type = models.AdvisoryTechnical
	}
	if a.Priority == "" {
		a.Priority = models.PriorityMedium
	}
	return a, nil
}

// -------------------------
// Advisory CRUD
// -------------------------

// GET /api/advisories?read=false&type=yield&priority=high&active=true
func ListAdvisoriesHandler(advisories repository.AdvisoryRepository, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}

		f := repository.AdvisoryFilter{
			Type:     models.AdvisoryType(strings.TrimSpace(c.Query("type"))),
			Priority: models.AdvisoryPriority(strings.TrimSpace(c.Query("priority"))),
		}
		if f.Type != "" {
			if err := validation.Get().Var(string(f.Type), "oneof=crop yield economic technical seasonal"); err != nil {
				return validation.NewFieldError("type", "unknown advisory type")
			}
		}
		if f.Priority != "" {
			if err := validation.Get().Var(string(f.Priority), "oneof=low medium high urgent"); err != nil {
				return validation.NewFieldError("priority", "unknown advisory priority")
			}
		}
		if f.Read, err = httpx.QueryBool(c, "read"); err != nil {
			return err
		}
		active, err := httpx.QueryBool(c, "active")
		if err != nil {
			return err
		}
		if active != nil && *active {
			f.ActiveOn = httpx.Today(time.Now(), loc)
		}

		list, err := advisories.List(c.UserContext(), farmerID, f)
		if err != nil {
			return err
		}

		res := make([]AdvisoryResponse, 0, len(list))
		for i := range list {
			res = append(res, ToResponse(&list[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/advisories
func CreateAdvisoryHandler(advisories repository.AdvisoryRepository, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}

		a, err := ParseCreate(c, farmerID)
		if err != nil {
			return err
		}
		if err := advisories.Create(c.UserContext(), a); err != nil {
			return err
		}

		resp := ToResponse(a)
		rec.Record(c, audit.LogOptions{
			FarmerID:    farmerID,
			EntityType:  "advisory",
			EntityID:    a.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Advisory created: %s", a.Title),
			After:       resp,
		})

		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// GET /api/advisories/:id
func GetAdvisoryHandler(advisories repository.AdvisoryRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		a, err := advisories.Get(c.UserContext(), farmerID, id)
		if err != nil {
			return httpx.NotFound(err, "advisory")
		}
		return c.JSON(ToResponse(a))
	}
}

// PUT|PATCH /api/advisories/:id
func UpdateAdvisoryHandler(advisories repository.AdvisoryRepository, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		a, err := advisories.Get(c.UserContext(), farmerID, id)
		if err != nil {
			return httpx.NotFound(err, "advisory")
		}
		before := ToResponse(a)

		var body UpdateAdvisoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		httpx.TrimAll(body.Title, body.Body)
		if err := validation.Struct(body); err != nil {
			return err
		}

		if body.Title != nil {
			a.Title = *body.Title
		}
		if body.Body != nil {
			a.Body = *body.Body
		}
		if body.Type != nil {
			a.Type = *body.Type
		}
		if body.Priority != nil {
			a.Priority = *body.Priority
		}
		if body.ExpiresAt != nil {
			if a.ExpiresAt, err = parseExpiry(body.ExpiresAt); err != nil {
				return err
			}
		}

		if err := advisories.Update(c.UserContext(), a); err != nil {
			return err
		}

		resp := ToResponse(a)
		rec.Record(c, audit.LogOptions{
			FarmerID:    farmerID,
			EntityType:  "advisory",
			EntityID:    a.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Advisory updated: %s", a.Title),
			Before:      before,
			After:       resp,
		})

		return c.JSON(resp)
	}
}

// DELETE /api/advisories/:id
func DeleteAdvisoryHandler(advisories repository.AdvisoryRepository, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		a, err := advisories.Get(c.UserContext(), farmerID, id)
		if err != nil {
			return httpx.NotFound(err, "advisory")
		}

		if err := advisories.Delete(c.UserContext(), farmerID, id); err != nil {
			return httpx.NotFound(err, "advisory")
		}

		rec.Record(c, audit.LogOptions{
			FarmerID:    farmerID,
			EntityType:  "advisory",
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Advisory deleted: %s", a.Title),
			Before:      ToResponse(a),
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// -------------------------
// Read flag
// -------------------------

// PATCH /api/advisories/:id/read and /api/advisories/:id/unread
// Setting the flag to its current value succeeds.
func MarkHandler(advisories repository.AdvisoryRepository, rec *audit.Recorder, read bool) fiber.Handler {
	action := models.AuditActionRead
	if !read {
		action = models.AuditActionUnread
	}

	return func(c *fiber.Ctx) error {
		farmerID, err := auth.CurrentFarmerID(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		a, err := advisories.SetRead(c.UserContext(), farmerID, id, read)
		if err != nil {
			return httpx.NotFound(err, "advisory")
		}

		resp := ToResponse(a)
		rec.Record(c, audit.LogOptions{
			FarmerID:    farmerID,
			EntityType:  "advisory",
			EntityID:    id,
			Action:      action,
			Description: fmt.Sprintf("Advisory %s: %s", strings.ReplaceAll(string(action), "_", " "), a.Title),
			After:       resp,
		})

		return c.JSON(resp)
	}
}
