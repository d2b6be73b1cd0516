package middleware

import (
	"context"
	"errors"

	"issue-tracker/internal/common/errs"
	"issue-tracker/internal/config"
	"issue-tracker/internal/features/permission"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// OwnerLoader fetches the ownership facts of the entity addressed by the request.
type OwnerLoader func(c *fiber.Ctx) (*permission.Resource, error)

type PermissionResolver interface {
	ResolveUser(ctx context.Context, userID primitive.ObjectID) (permission.Set, error)
}

// Gate enforces permission requirements on routes.
type Gate struct {
	resolver PermissionResolver
	policy   string
	log      *zap.Logger
}

func NewGate(resolver PermissionResolver, cfg *config.Config, log *zap.Logger) *Gate {
	return &Gate{resolver: resolver, policy: cfg.PermissionPolicy, log: log}
}

// Require builds the handler for one requirement. owners may be nil when the
// requirement has no ownership-bound grants.
func (g *Gate) Require(req permission.Requirement, owners OwnerLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := Claims(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}
		userID, _ := primitive.ObjectIDFromHex(claims.UserID)

		granted, err := g.granted(c, userID, claims.Permissions)
		if errors.Is(err, errs.ErrNotFound) {
			// Token outlived its user.
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}
		if err != nil {
			return err
		}

		var res *permission.Resource
		if req.NeedsResource(granted) && owners != nil {
			if res, err = owners(c); err != nil {
				return err
			}
		}

		if !req.Evaluate(granted, userID, res) {
			g.log.Info("permission denied",
				zap.String("requirement", req.Name),
				zap.Any("anyOf", req.Permissions()),
				zap.String("userId", claims.UserID),
				zap.Strings("granted", granted.List()),
			)
			return errs.Forbidden("forbidden: insufficient permissions")
		}

		c.Locals(PermissionsKey, granted)
		return c.Next()
	}
}

func (g *Gate) granted(c *fiber.Ctx, userID primitive.ObjectID, embedded []string) (permission.Set, error) {
	if g.policy == config.PolicyEmbedded {
		return permission.FromStrings(embedded), nil
	}
	return g.resolver.ResolveUser(c.UserContext(), userID)
}
