package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tideflow/tideflow-server/internal/logger"
)

// RequestLogging logs method, path, status and duration for each request.
func RequestLogging(l *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		l.Info("http request completed",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration_ms", time.Since(start).Milliseconds())

		if err != nil {
			l.Error("http request failed",
				"method", c.Method(),
				"path", c.Path(),
				"error", err.Error())
		}

		return err
	}
}
