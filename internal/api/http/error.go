package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tideflow/tideflow-server/internal/model"
)

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// mapServiceError maps core error taxonomy onto HTTP statuses.
func mapServiceError(c *fiber.Ctx, err error) error {
	var validationErr *model.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return apiError(c, fiber.StatusBadRequest, validationErr.Error())
	case errors.Is(err, model.ErrNotFound):
		return apiError(c, fiber.StatusNotFound, "tide not found")
	case errors.Is(err, model.ErrDualWriteFailed):
		return apiError(c, fiber.StatusServiceUnavailable, "storage unavailable")
	default:
		return apiError(c, fiber.StatusInternalServerError, "internal error")
	}
}
