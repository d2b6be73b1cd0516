package user

import (
	"strings"
	"time"

	"issue-tracker/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	Collection  = "User"
	DefaultRole = "developer"
)

type User struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Email         string             `json:"email" bson:"email"`
	PasswordHash  string             `json:"-" bson:"password"`
	GivenName     string             `json:"givenName" bson:"givenName"`
	FamilyName    string             `json:"familyName" bson:"familyName"`
	FullName      string             `json:"fullName" bson:"fullName"`
	Roles         []string           `json:"role" bson:"role"`
	Permissions   map[string]bool    `json:"permissions,omitempty" bson:"permissions,omitempty"`
	CreatedOn     time.Time          `json:"createdOn" bson:"createdOn"`
	LastUpdatedOn *time.Time         `json:"lastUpdatedOn,omitempty" bson:"lastUpdatedOn,omitempty"`
	LastUpdatedBy *models.UserRef    `json:"lastUpdatedBy,omitempty" bson:"lastUpdatedBy,omitempty"`
}

func (u *User) Ref() models.UserRef {
	return models.UserRef{UserID: u.ID, Email: u.Email, FullName: u.FullName}
}

func fullName(given, family string) string {
	return strings.TrimSpace(given + " " + family)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type RegisterInput struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	GivenName  string `json:"givenName"`
	FamilyName string `json:"familyName"`
}

// ProfileUpdate is what a user may change about themselves. Email is
// accepted only to be rejected.
type ProfileUpdate struct {
	Email      *string `json:"email,omitempty"`
	Password   *string `json:"password,omitempty"`
	GivenName  *string `json:"givenName,omitempty"`
	FamilyName *string `json:"familyName,omitempty"`
}

// AdminUpdate extends ProfileUpdate with role and override changes.
type AdminUpdate struct {
	ProfileUpdate
	Roles       []string        `json:"role,omitempty"`
	Permissions map[string]bool `json:"permissions,omitempty"`
}

type ListQuery struct {
	Keywords   string
	Role       string
	MaxAge     int
	MinAge     int
	SortBy     string
	PageSize   int64
	PageNumber int64
}
