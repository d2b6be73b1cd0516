package auth

import (
	"context"
	"time"

	"issue-tracker/internal/credential"
	"issue-tracker/internal/features/permission"
	"issue-tracker/internal/features/user"

	"go.uber.org/zap"
)

// SubjectResolver computes the effective permissions of a user record.
type SubjectResolver interface {
	Resolve(ctx context.Context, subject permission.Subject) (permission.Set, error)
}

// Session is the outcome of a successful login or registration.
type Session struct {
	User        *user.User
	Token       string
	ExpiresAt   time.Time
	Permissions []string
}

type AuthService interface {
	Register(ctx context.Context, in user.RegisterInput) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
}

type AuthServiceImpl struct {
	Users    user.UserService
	Resolver SubjectResolver
	Creds    *credential.Service
	Log      *zap.Logger
}

func NewAuthService(users user.UserService, resolver SubjectResolver, creds *credential.Service, log *zap.Logger) AuthService {
	return &AuthServiceImpl{
		Users:    users,
		Resolver: resolver,
		Creds:    creds,
		Log:      log,
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, in user.RegisterInput) (*Session, error) {
	u, err := s.Users.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	s.Log.Info("user registered", zap.String("userId", u.ID.Hex()))
	return s.issue(ctx, u)
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.Users.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, u)
}

// issue resolves the current permission set and embeds it in a new token.
func (s *AuthServiceImpl) issue(ctx context.Context, u *user.User) (*Session, error) {
	granted, err := s.Resolver.Resolve(ctx, SubjectOf(u))
	if err != nil {
		return nil, err
	}
	perms := granted.List()

	token, expires, err := s.Creds.Issue(credential.Identity{
		UserID:      u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		Roles:       u.Roles,
		Permissions: perms,
	})
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token, ExpiresAt: expires, Permissions: perms}, nil
}

// SubjectOf projects a user record onto what permission resolution reads.
func SubjectOf(u *user.User) permission.Subject {
	return permission.Subject{UserID: u.ID, Roles: u.Roles, Overrides: u.Permissions}
}
