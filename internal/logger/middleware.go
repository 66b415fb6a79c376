package logger

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-ID"

	ctxLoggerKey    = "logger"
	ctxRequestIDKey = "request_id"
)

// Middleware tags each request with an id, stores a request scoped logger in
// the context and writes one line per request. Errors from later handlers are
// rendered here so the logged status is the one sent to the client.
func Middleware(base *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDHeader, requestID)

		reqLog := base.With(zap.String("request_id", requestID))
		c.Locals(ctxRequestIDKey, requestID)
		c.Locals(ctxLoggerKey, reqLog)

		chainErr := c.Next()
		if chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		}
		if c.Response().StatusCode() >= fiber.StatusInternalServerError {
			reqLog.Error("HTTP request failed", fields...)
		} else {
			reqLog.Info("HTTP request completed", fields...)
		}

		return nil
	}
}

// FromCtx returns the request scoped logger, or a no-op logger outside a request.
func FromCtx(c *fiber.Ctx) *zap.Logger {
	if l, ok := c.Locals(ctxLoggerKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(ctxRequestIDKey).(string)
	return id
}
