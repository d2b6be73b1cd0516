package credential

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"issue-tracker/internal/common/errs"
	"issue-tracker/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestService(secret string) *Service {
	return NewService(&config.Config{JWTSecret: secret, JWTIssuer: "issue-tracker", TokenTTL: time.Hour})
}

func testIdentity() Identity {
	return Identity{
		UserID:      primitive.NewObjectID(),
		Email:       "dev@example.com",
		FullName:    "Dana Dev",
		Roles:       []string{"developer"},
		Permissions: []string{"canCreateBug", "canViewData"},
	}
}

func TestIssueAndVerify(t *testing.T) {
	svc := newTestService("s3cret")
	id := testIdentity()

	token, expires, err := svc.Issue(id)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id.UserID.Hex(), claims.UserID)
	assert.Equal(t, id.Permissions, claims.Permissions)
	assert.Equal(t, id.Roles, claims.Roles)

	actor := claims.Actor()
	assert.Equal(t, id.UserID, actor.UserID)
	assert.Equal(t, "Dana Dev", actor.FullName)
}

func TestIssue_EmptySecret(t *testing.T) {
	_, _, err := newTestService("").Issue(testIdentity())
	assert.ErrorIs(t, err, ErrSigning)
}

func TestVerify_Expired(t *testing.T) {
	svc := newTestService("s3cret")
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := svc.Issue(testIdentity())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Equal(t, fiber.StatusUnauthorized, errs.HTTPStatus(err))
	assert.Equal(t, "unauthorized", errs.PublicMessage(err))
}

func TestVerify_Rejects(t *testing.T) {
	svc := newTestService("s3cret")
	token, _, err := svc.Issue(testIdentity())
	require.NoError(t, err)

	otherKey, _, err := newTestService("another").Issue(testIdentity())
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"userId": "x"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]string{
		"empty":     "",
		"garbage":   "not.a.jwt",
		"wrong key": otherKey,
		"alg none":  none,
		"truncated": token[:len(token)-4],
		"tampered":  strings.Replace(token, ".", ".x", 1),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Verify(tok)
			assert.ErrorIs(t, err, ErrTokenInvalid)
			assert.ErrorIs(t, err, errs.ErrUnauthorized)
		})
	}
}

func TestCookieRoundTrip(t *testing.T) {
	svc := newTestService("s3cret")
	app := fiber.New()
	app.Get("/login", func(c *fiber.Ctx) error {
		token, expires, err := svc.Issue(testIdentity())
		if err != nil {
			return err
		}
		svc.SetCookie(c, token, expires)
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/whoami", func(c *fiber.Ctx) error {
		claims, err := svc.Verify(TokenFromRequest(c))
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.SendString(claims.Email)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/login", nil))
	require.NoError(t, err)
	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.AddCookie(cookies[0])
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+cookies[0].Value)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
