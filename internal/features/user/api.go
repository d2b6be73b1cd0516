package user

import (
	"issue-tracker/internal/features/permission"
	"issue-tracker/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type UserApi struct {
	controller *UserController
	auth       *middleware.Authenticator
	gate       *middleware.Gate
}

func NewUserApi(controller *UserController, auth *middleware.Authenticator, gate *middleware.Gate) *UserApi {
	return &UserApi{
		controller: controller,
		auth:       auth,
		gate:       gate,
	}
}

// Setup registers user routes. Authentication is applied per route because
// the session routes share the /api/users prefix.
func (h *UserApi) Setup(app *fiber.App) {
	users := app.Group("/api/users")
	authed := h.auth.Handler()

	users.Get("/list", authed, h.gate.Require(permission.ViewUsers, nil), h.controller.ListUsers)

	users.Get("/me", authed, h.controller.GetMe)
	users.Put("/me", authed, h.controller.UpdateMe)

	users.Get("/:userId", authed, h.gate.Require(permission.ViewUsers, nil), h.controller.GetUser)
	users.Put("/:userId", authed, h.gate.Require(permission.AdministerUser, nil), h.controller.UpdateUser)
	users.Delete("/:userId", authed, h.gate.Require(permission.AdministerUser, nil), h.controller.DeleteUser)
}
