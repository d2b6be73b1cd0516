package credential

import (
	"errors"
	"strings"
	"time"

	"issue-tracker/internal/common/errs"
	"issue-tracker/internal/common/models"
	"issue-tracker/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const CookieName = "authToken"

var (
	ErrSigning      = errors.New("credential signing failed")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Identity is what gets embedded in an issued token.
type Identity struct {
	UserID      primitive.ObjectID
	Email       string
	FullName    string
	Roles       []string
	Permissions []string
}

type Claims struct {
	UserID      string   `json:"userId"`
	Email       string   `json:"email"`
	FullName    string   `json:"fullName"`
	Roles       []string `json:"role"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// Actor converts the claims into the reference stamped on records.
func (c *Claims) Actor() models.UserRef {
	id, _ := primitive.ObjectIDFromHex(c.UserID)
	return models.UserRef{UserID: id, Email: c.Email, FullName: c.FullName}
}

type Service struct {
	secret []byte
	issuer string
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewService(cfg *config.Config) *Service {
	return &Service{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.JWTIssuer,
		ttl:    cfg.TokenTTL,
		secure: cfg.CookieSecure,
		now:    time.Now,
	}
}

func (s *Service) TTL() time.Duration { return s.ttl }

// Issue signs a token for the identity. The returned time is the expiry.
func (s *Service) Issue(id Identity) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, errs.Storage(ErrSigning, "signing secret is not configured")
	}
	now := s.now()
	expires := now.Add(s.ttl)

	claims := Claims{
		UserID:      id.UserID.Hex(),
		Email:       id.Email,
		FullName:    id.FullName,
		Roles:       id.Roles,
		Permissions: id.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID.Hex(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, errs.Storage(errors.Join(ErrSigning, err), "sign token")
	}
	return token, expires, nil
}

// Verify parses and validates a token. Every failure is an Unauthorized
// error; the cause is either ErrTokenExpired or ErrTokenInvalid.
func (s *Service) Verify(token string) (*Claims, error) {
	if token == "" || len(s.secret) == 0 {
		return nil, unauthorized(ErrTokenInvalid)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, unauthorized(ErrTokenExpired)
	case err != nil, !parsed.Valid:
		return nil, unauthorized(ErrTokenInvalid)
	}
	if _, err := primitive.ObjectIDFromHex(claims.UserID); err != nil {
		return nil, unauthorized(ErrTokenInvalid)
	}
	return claims, nil
}

func unauthorized(cause error) error {
	return &errs.Error{Kind: errs.ErrUnauthorized, Message: "unauthorized", Cause: cause}
}

// SetCookie stores the token in an HTTP-only cookie living as long as the token.
func (s *Service) SetCookie(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(s.ttl.Seconds()),
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (s *Service) ClearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// TokenFromRequest reads the auth cookie, falling back to a bearer header
// for non-browser clients.
func TokenFromRequest(c *fiber.Ctx) string {
	if tok := c.Cookies(CookieName); tok != "" {
		return tok
	}
	header := c.Get(fiber.HeaderAuthorization)
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
