package role

import (
	"issue-tracker/internal/features/permission"
	"issue-tracker/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type RoleApi struct {
	controller *RoleController
	auth       *middleware.Authenticator
	gate       *middleware.Gate
}

func NewRoleApi(controller *RoleController, auth *middleware.Authenticator, gate *middleware.Gate) *RoleApi {
	return &RoleApi{
		controller: controller,
		auth:       auth,
		gate:       gate,
	}
}

// Setup registers role routes
func (h *RoleApi) Setup(app *fiber.App) {
	roles := app.Group("/api/roles", h.auth.Handler())

	roles.Get("/list", h.gate.Require(permission.ViewRoles, nil), h.controller.ListRoles)
	roles.Get("/:name", h.gate.Require(permission.ViewRoles, nil), h.controller.GetRole)
}
