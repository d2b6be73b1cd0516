package system

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type SystemApi struct {
	controller *SystemController
}

func NewSystemApi(controller *SystemController) *SystemApi {
	return &SystemApi{controller: controller}
}

// Setup registers health and metrics routes
func (h *SystemApi) Setup(app *fiber.App) {
	app.Get("/health", h.controller.HealthCheck)
	app.Get("/ready", h.controller.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
