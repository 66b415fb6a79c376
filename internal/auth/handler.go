package auth

import (
	"errors"
	"strings"
	"sync"

	"agri-backend/internal/config"
	"agri-backend/internal/logger"
	"agri-backend/internal/metrics"
	"agri-backend/internal/models"
	"agri-backend/internal/repository"
	"agri-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const invalidCredentials = "invalid credentials"

type RegisterRequest struct {
	Username        string             `json:"username" validate:"required,max=150"`
	Email           string             `json:"email" validate:"required,email,max=254"`
	FirstName       string             `json:"first_name" validate:"required,max=100"`
	LastName        string             `json:"last_name" validate:"required,max=100"`
	FarmingType     models.FarmingType `json:"farming_type" validate:"required,oneof=subsistence commercial mixed"`
	Zone            string             `json:"zone" validate:"required,max=100"`
	Phone           *string            `json:"phone" validate:"omitempty,max=20"`
	Password        string             `json:"password" validate:"required,min=8,max=128"`
	PasswordConfirm string             `json:"password_confirm" validate:"required,eqfield=Password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	Email       *string             `json:"email" validate:"omitempty,email,max=254"`
	FirstName   *string             `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName    *string             `json:"last_name" validate:"omitempty,min=1,max=100"`
	FarmingType *models.FarmingType `json:"farming_type" validate:"omitempty,oneof=subsistence commercial mixed"`
	Zone        *string             `json:"zone" validate:"omitempty,min=1,max=100"`
	Phone       *string             `json:"phone" validate:"omitempty,max=20"`
}

type FarmerResponse struct {
	ID          uint               `json:"id"`
	Username    string             `json:"username"`
	Email       string             `json:"email"`
	FirstName   string             `json:"first_name"`
	LastName    string             `json:"last_name"`
	FarmingType models.FarmingType `json:"farming_type"`
	Zone        string             `json:"zone"`
	Phone       *string            `json:"phone"`
	Role        models.FarmerRole  `json:"role"`
	IsActive    bool               `json:"is_active"`
	CreatedAt   string             `json:"created_at"`
}

func ToFarmerResponse(f *models.Farmer) FarmerResponse {
	return FarmerResponse{
		ID:          f.ID,
		Username:    f.Username,
		Email:       f.Email,
		FirstName:   f.FirstName,
		LastName:    f.LastName,
		FarmingType: f.FarmingType,
		Zone:        f.Zone,
		Phone:       f.Phone,
		Role:        f.Role,
		IsActive:    f.IsActive,
		CreatedAt:   f.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

var (
	dummyHash     []byte
	dummyHashOnce sync.Once
)

// compareDummy runs one bcrypt comparison for a username that does not exist.
func compareDummy(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// -------------------------
// Registration
// -------------------------

func parseRegistration(c *fiber.Ctx, farmers repository.FarmerRepository) (*models.Farmer, error) {
	var body RegisterRequest
	if err := c.BodyParser(&body); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	body.Username = strings.TrimSpace(body.Username)
	body.Email = strings.TrimSpace(strings.ToLower(body.Email))
	body.FirstName = strings.TrimSpace(body.FirstName)
	body.LastName = strings.TrimSpace(body.LastName)
	body.Zone = strings.TrimSpace(body.Zone)
	if body.Phone != nil {
		p := strings.TrimSpace(*body.Phone)
		if p == "" {
			body.Phone = nil
		} else {
			body.Phone = &p
		}
	}

	if err := validation.Struct(body); err != nil {
		return nil, err
	}
	if strings.ContainsAny(body.Username, " \t\n") {
		return nil, validation.NewFieldError("username", "must not contain spaces")
	}

	taken, err := farmers.UsernameTaken(c.UserContext(), body.Username, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, validation.NewFieldError("username", "this username is already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "could not hash password")
	}

	return &models.Farmer{
		Username:     body.Username,
		Email:        body.Email,
		FirstName:    body.FirstName,
		LastName:     body.LastName,
		FarmingType:  body.FarmingType,
		Zone:         body.Zone,
		Phone:        body.Phone,
		PasswordHash: string(hash),
		Role:         models.RoleFarmer,
		IsActive:     true,
	}, nil
}

// POST /api/auth/register
func RegisterHandler(cfg *config.Config, farmers repository.FarmerRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmer, err := parseRegistration(c, farmers)
		if err != nil {
			return err
		}

		if err := farmers.Create(c.UserContext(), farmer); err != nil {
			return err
		}

		token, err := GenerateToken(cfg.JWT.Secret, cfg.JWT.Expiration, farmer)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create token")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"token":   token,
			"user":    ToFarmerResponse(farmer),
			"message": "registration successful",
		})
	}
}

// POST /api/auth/register-admin
// Only allowed while no admin account exists.
func RegisterAdminHandler(farmers repository.FarmerRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		exists, err := farmers.AdminExists(c.UserContext())
		if err != nil {
			return err
		}
		if exists {
			return fiber.NewError(fiber.StatusForbidden, "an admin account already exists")
		}

		admin, err := parseRegistration(c, farmers)
		if err != nil {
			return err
		}
		admin.Role = models.RoleAdmin

		if err := farmers.Create(c.UserContext(), admin); err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(ToFarmerResponse(admin))
	}
}

// -------------------------
// Session
// -------------------------

// POST /api/auth/login
func LoginHandler(cfg *config.Config, farmers repository.FarmerRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Username = strings.TrimSpace(body.Username)
		if body.Username == "" || body.Password == "" {
			metrics.RecordAuthAttempt("failure")
			return fiber.NewError(fiber.StatusUnauthorized, invalidCredentials)
		}

		farmer, err := farmers.GetByUsername(c.UserContext(), body.Username)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			compareDummy(body.Password)
			metrics.RecordAuthAttempt("failure")
			return fiber.NewError(fiber.StatusUnauthorized, invalidCredentials)
		}

		if err := bcrypt.CompareHashAndPassword([]byte(farmer.PasswordHash), []byte(body.Password)); err != nil || !farmer.IsActive {
			metrics.RecordAuthAttempt("failure")
			return fiber.NewError(fiber.StatusUnauthorized, invalidCredentials)
		}

		token, err := GenerateToken(cfg.JWT.Secret, cfg.JWT.Expiration, farmer)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create token")
		}

		metrics.RecordAuthAttempt("success")
		logger.FromCtx(c).Info("farmer logged in", zap.Uint("farmer_id", farmer.ID))

		return c.JSON(fiber.Map{
			"token":   token,
			"user":    ToFarmerResponse(farmer),
			"message": "login successful",
		})
	}
}

// POST /api/auth/logout
// Revokes every token of the farmer, including the one used for this call.
func LogoutHandler(farmers repository.FarmerRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := CurrentFarmerID(c)
		if err != nil {
			return err
		}

		if err := farmers.RevokeTokens(c.UserContext(), farmerID); err != nil {
			return err
		}

		return c.JSON(fiber.Map{"message": "logged out"})
	}
}

// -------------------------
// Profile
// -------------------------

// GET /api/auth/me
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmer, err := CurrentFarmer(c)
		if err != nil {
			return err
		}
		return c.JSON(ToFarmerResponse(farmer))
	}
}

// PUT|PATCH /api/auth/me
func UpdateMeHandler(farmers repository.FarmerRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmer, err := CurrentFarmer(c)
		if err != nil {
			return err
		}

		var body UpdateProfileRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validation.Struct(body); err != nil {
			return err
		}

		updated := *farmer
		if body.Email != nil {
			updated.Email = strings.TrimSpace(strings.ToLower(*body.Email))
		}
		if body.FirstName != nil {
			updated.FirstName = strings.TrimSpace(*body.FirstName)
		}
		if body.LastName != nil {
			updated.LastName = strings.TrimSpace(*body.LastName)
		}
		if body.FarmingType != nil {
			updated.FarmingType = *body.FarmingType
		}
		if body.Zone != nil {
			updated.Zone = strings.TrimSpace(*body.Zone)
		}
		if body.Phone != nil {
			if p := strings.TrimSpace(*body.Phone); p == "" {
				updated.Phone = nil
			} else {
				updated.Phone = &p
			}
		}

		if err := farmers.Update(c.UserContext(), &updated); err != nil {
			return err
		}

		return c.JSON(ToFarmerResponse(&updated))
	}
}

// DELETE /api/auth/me
// Removes the account with every crop, harvest, expense and advisory it owns.
func DeleteMeHandler(farmers repository.FarmerRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, err := CurrentFarmerID(c)
		if err != nil {
			return err
		}

		if err := farmers.Delete(c.UserContext(), farmerID); err != nil {
			return err
		}

		logger.FromCtx(c).Info("farmer account deleted", zap.Uint("farmer_id", farmerID))
		return c.SendStatus(fiber.StatusNoContent)
	}
}
