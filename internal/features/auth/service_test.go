package auth

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"issue-tracker/internal/common/errs"
	"issue-tracker/internal/common/models"
	"issue-tracker/internal/config"
	"issue-tracker/internal/credential"
	"issue-tracker/internal/features/permission"
	"issue-tracker/internal/features/user"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type MockUserService struct {
	mock.Mock
	user.UserService
}

func (m *MockUserService) Register(ctx context.Context, in user.RegisterInput) (*user.User, error) {
	args := m.Called(ctx, in)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	args := m.Called(ctx, email, password)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

type staticResolver struct{ set permission.Set }

func (r staticResolver) Resolve(_ context.Context, s permission.Subject) (permission.Set, error) {
	out := permission.NewSet()
	for p := range r.set {
		out.Add(p)
	}
	for name, ok := range s.Overrides {
		if !ok {
			out.Remove(permission.Permission(name))
		}
	}
	return out, nil
}

func newTestAuth(users user.UserService) (AuthService, *credential.Service) {
	creds := credential.NewService(&config.Config{JWTSecret: "k", JWTIssuer: "issue-tracker", TokenTTL: time.Hour})
	resolver := staticResolver{set: permission.NewSet(permission.ViewData, permission.CreateBug)}
	return NewAuthService(users, resolver, creds, zap.NewNop()), creds
}

func TestLogin_EmbedsResolvedPermissions(t *testing.T) {
	users := new(MockUserService)
	svc, creds := newTestAuth(users)
	u := &user.User{
		ID: primitive.NewObjectID(), Email: "ann@example.com", FullName: "Ann Lee",
		Roles: []string{"developer"}, Permissions: map[string]bool{"canCreateBug": false},
	}
	users.On("Authenticate", mock.Anything, "ann@example.com", "pw").Return(u, nil)

	s, err := svc.Login(context.Background(), "ann@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, []string{"canViewData"}, s.Permissions)

	claims, err := creds.Verify(s.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.Hex(), claims.UserID)
	assert.Equal(t, []string{"canViewData"}, claims.Permissions)
	assert.Equal(t, models.UserRef{UserID: u.ID, Email: u.Email, FullName: u.FullName}, claims.Actor())
}

func TestLogin_BadCredentials(t *testing.T) {
	users := new(MockUserService)
	svc, _ := newTestAuth(users)
	users.On("Authenticate", mock.Anything, "x@y.z", "bad").Return(nil, errs.Unauthorized("invalid login credentials"))

	_, err := svc.Login(context.Background(), "x@y.z", "bad")
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestRegisterEndpointSetsCookie(t *testing.T) {
	users := new(MockUserService)
	svc, creds := newTestAuth(users)
	u := &user.User{ID: primitive.NewObjectID(), Email: "new@example.com", FullName: "New Person", Roles: []string{"developer"}}
	users.On("Register", mock.Anything, user.RegisterInput{
		Email: "new@example.com", Password: "longenough", GivenName: "New", FamilyName: "Person",
	}).Return(u, nil)

	app := fiber.New()
	ctrl := NewAuthController(svc, creds)
	app.Post("/api/users/register", ctrl.Register)
	app.Post("/api/users/logout", ctrl.Logout)

	req := httptest.NewRequest("POST", "/api/users/register", strings.NewReader(
		`{"email":"new@example.com","password":"longenough","givenName":"New","familyName":"Person"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Len(t, resp.Cookies(), 1)
	assert.Equal(t, credential.CookieName, resp.Cookies()[0].Name)

	resp, err = app.Test(httptest.NewRequest("POST", "/api/users/logout", nil))
	require.NoError(t, err)
	require.Len(t, resp.Cookies(), 1)
	assert.Empty(t, resp.Cookies()[0].Value)
}
