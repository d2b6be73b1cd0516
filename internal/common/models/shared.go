package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRef identifies the principal that performed or owns something. It is
// embedded into bugs, comments and audit records as a snapshot, so a later
// rename does not rewrite history.
type UserRef struct {
	UserID   primitive.ObjectID `bson:"userId" json:"userId"`
	Email    string             `bson:"email" json:"email"`
	FullName string             `bson:"fullName" json:"fullName"`
}

func (u UserRef) IsZero() bool {
	return u.UserID.IsZero()
}

// DisplayName prefers the full name and falls back to the email.
func (u UserRef) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}
