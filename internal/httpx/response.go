package httpx

import (
	"errors"

	"agri-backend/internal/logger"
	"agri-backend/internal/repository"
	"agri-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ErrorHandler renders every error returned by a handler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:  "validation failed",
			Fields: verr.Fields,
		})
	}

	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		return c.Status(ferr.Code).JSON(ErrorResponse{Error: ferr.Message})
	}

	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "not found"})
	}

	logger.FromCtx(c).Error("unexpected error",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error: "internal server error",
	})
}

// NotFound maps a missing record to a 404 naming the entity; other errors pass through.
func NotFound(err error, entity string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, entity+" not found")
	}
	return err
}
