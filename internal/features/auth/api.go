package auth

import (
	"issue-tracker/internal/features/permission"
	"issue-tracker/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AuthApi struct {
	controller *AuthController
	auth       *middleware.Authenticator
	gate       *middleware.Gate
}

func NewAuthApi(controller *AuthController, auth *middleware.Authenticator, gate *middleware.Gate) *AuthApi {
	return &AuthApi{
		controller: controller,
		auth:       auth,
		gate:       gate,
	}
}

// Setup registers session routes
func (h *AuthApi) Setup(app *fiber.App) {
	users := app.Group("/api/users")

	users.Post("/register", h.controller.Register)
	users.Post("/login", h.controller.Login)
	users.Post("/logout", h.controller.Logout)

	// Any authenticated user may see their own effective set; the empty
	// requirement still runs resolution.
	users.Get("/me/permissions", h.auth.Handler(), h.gate.Require(permission.Self, nil), h.controller.MyPermissions)
}
