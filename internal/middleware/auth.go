package middleware

import (
	"issue-tracker/internal/common/models"
	"issue-tracker/internal/credential"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	ClaimsKey      = "claims"
	PermissionsKey = "permissions"
)

// Authenticator validates the session token and injects its claims into context.
type Authenticator struct {
	creds *credential.Service
	log   *zap.Logger
}

func NewAuthenticator(creds *credential.Service, log *zap.Logger) *Authenticator {
	return &Authenticator{creds: creds, log: log}
}

func (a *Authenticator) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := a.creds.Verify(credential.TokenFromRequest(c))
		if err != nil {
			a.log.Debug("rejected credential", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}

		c.Locals(ClaimsKey, claims)
		return c.Next()
	}
}

// Claims returns the verified claims for the request.
func Claims(c *fiber.Ctx) (*credential.Claims, bool) {
	claims, ok := c.Locals(ClaimsKey).(*credential.Claims)
	return claims, ok && claims != nil
}

// Actor returns the reference stamped on records changed by this request.
func Actor(c *fiber.Ctx) models.UserRef {
	if claims, ok := Claims(c); ok {
		return claims.Actor()
	}
	return models.UserRef{}
}
