package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/tideflow/tideflow-server/internal/logger"
)

// NewApp builds the Fiber application with all routes registered.
func NewApp(handler *Handler, l *logger.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "tideflow",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(RequestLogging(l))

	app.Get("/health", handler.Health)

	api := app.Group("/api")
	api.Post("/flows", handler.RecordFlow)
	api.Post("/energy", handler.RecordEnergy)
	api.Get("/context", handler.GetContext)
	api.Post("/projects", handler.CreateProject)
	api.Get("/charts", handler.GetCharts)
	api.Get("/tides/:id", handler.GetTide)

	return app
}
