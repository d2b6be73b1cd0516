package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("title is required"), fiber.StatusBadRequest},
		{"unauthorized", Unauthorized("unauthorized"), fiber.StatusUnauthorized},
		{"forbidden", Forbidden("nope"), fiber.StatusForbidden},
		{"not found", NotFound("bug %s not found", "x"), fiber.StatusNotFound},
		{"conflict", Conflict("email taken"), fiber.StatusConflict},
		{"storage", Storage(errors.New("socket closed"), "insert bug"), fiber.StatusInternalServerError},
		{"wrapped", fmt.Errorf("outer: %w", NotFound("gone")), fiber.StatusNotFound},
		{"fiber", fiber.NewError(fiber.StatusMethodNotAllowed, "no"), fiber.StatusMethodNotAllowed},
		{"plain", errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestPublicMessageHidesInternals(t *testing.T) {
	err := Storage(errors.New("connection refused 10.0.0.4:27017"), "insert bug")
	assert.Equal(t, "internal server error", PublicMessage(err))
	assert.Contains(t, err.Error(), "connection refused")

	assert.Equal(t, "bug 42 not found", PublicMessage(NotFound("bug %d not found", 42)))
}

func TestErrorsIs(t *testing.T) {
	err := Conflict("dup")
	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))

	cause := errors.New("io")
	assert.ErrorIs(t, Storage(cause, "find"), cause)
}
