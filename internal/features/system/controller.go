package system

import (
	"context"
	"time"

	"issue-tracker/internal/database"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type SystemController struct {
	DB      Pinger
	Log     *zap.Logger
	started time.Time
}

func NewSystemController(db *database.MongodbDB, log *zap.Logger) *SystemController {
	return &SystemController{DB: db, Log: log, started: time.Now()}
}

// HealthCheck godoc
// @Summary      Health Check
// @Description  Check if the server is up
// @Tags         health
// @Produce      plain
// @Success      200  {string}  string  "OK"
// @Router       /health [get]
func (ctrl *SystemController) HealthCheck(c *fiber.Ctx) error {
	return c.SendString("OK")
}

// Ready godoc
// @Summary      Readiness Check
// @Description  Check that the database answers a ping
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /ready [get]
func (ctrl *SystemController) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := ctrl.DB.Ping(ctx); err != nil {
		ctrl.Log.Warn("readiness ping failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unavailable",
		})
	}
	return c.JSON(fiber.Map{
		"status": "ok",
		"uptime": time.Since(ctrl.started).Round(time.Second).String(),
	})
}
