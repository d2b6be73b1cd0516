package auth

import (
	"issue-tracker/internal/common/api"
	"issue-tracker/internal/credential"
	"issue-tracker/internal/features/permission"
	"issue-tracker/internal/features/user"
	"issue-tracker/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AuthController struct {
	AuthService AuthService
	Creds       *credential.Service
}

func NewAuthController(authService AuthService, creds *credential.Service) *AuthController {
	return &AuthController{
		AuthService: authService,
		Creds:       creds,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (ctrl *AuthController) respond(c *fiber.Ctx, status int, message string, s *Session) error {
	ctrl.Creds.SetCookie(c, s.Token, s.ExpiresAt)
	return c.Status(status).JSON(fiber.Map{
		"message":     message,
		"userId":      s.User.ID.Hex(),
		"fullName":    s.User.FullName,
		"role":        s.User.Roles,
		"permissions": s.Permissions,
		"expiresAt":   s.ExpiresAt,
	})
}

// Register godoc
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body user.RegisterInput true "Registration details"
// @Success      201  {object} map[string]interface{}
// @Failure      400  {object} map[string]string
// @Failure      409  {object} map[string]string
// @Router       /users/register [post]
func (ctrl *AuthController) Register(c *fiber.Ctx) error {
	var req user.RegisterInput
	if err := api.ParseBody(c, &req); err != nil {
		return err
	}
	s, err := ctrl.AuthService.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return ctrl.respond(c, fiber.StatusCreated, "New user registered", s)
}

// Login godoc
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200  {object} map[string]interface{}
// @Failure      401  {object} map[string]string
// @Router       /users/login [post]
func (ctrl *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := api.ParseBody(c, &req); err != nil {
		return err
	}
	s, err := ctrl.AuthService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return ctrl.respond(c, fiber.StatusOK, "Welcome back", s)
}

func (ctrl *AuthController) Logout(c *fiber.Ctx) error {
	ctrl.Creds.ClearCookie(c)
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// MyPermissions reports the set the gate evaluated for this request.
func (ctrl *AuthController) MyPermissions(c *fiber.Ctx) error {
	granted, _ := c.Locals(middleware.PermissionsKey).(permission.Set)
	return c.JSON(fiber.Map{"permissions": granted.List()})
}
