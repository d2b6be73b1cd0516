package api

import (
	"issue-tracker/internal/common/errs"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ObjectIDParam reads a path parameter that must be a Mongo ObjectID.
func ObjectIDParam(c *fiber.Ctx, name string) (primitive.ObjectID, error) {
	raw := c.Params(name)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, errs.Validation("%s %q is not a valid id", name, raw)
	}
	return id, nil
}

// ParseBody decodes the JSON body, reporting malformed input as a validation error.
func ParseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return errs.Validation("invalid request body")
	}
	return nil
}
