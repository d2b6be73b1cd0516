package permission

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoleGrants is the permission map of one stored role.
type RoleGrants struct {
	Name        string
	Permissions map[string]bool
}

// RoleLookup loads roles by name. Unknown names are simply absent from the result.
type RoleLookup interface {
	RolesByName(ctx context.Context, names []string) ([]RoleGrants, error)
}

// Subject is the slice of a user record that permission resolution reads.
type Subject struct {
	UserID    primitive.ObjectID
	Roles     []string
	Overrides map[string]bool
}

// SubjectLookup loads the current state of a user.
type SubjectLookup interface {
	SubjectByID(ctx context.Context, userID primitive.ObjectID) (Subject, error)
}

type Resolver struct {
	Roles    RoleLookup
	Subjects SubjectLookup
}

func NewResolver(roles RoleLookup, subjects SubjectLookup) *Resolver {
	return &Resolver{Roles: roles, Subjects: subjects}
}

// Resolve unions the true flags of every role the subject holds, then
// applies the subject's own overrides: true grants, false revokes.
func (r *Resolver) Resolve(ctx context.Context, subject Subject) (Set, error) {
	granted := NewSet()

	roles, err := r.Roles.RolesByName(ctx, subject.Roles)
	if err != nil {
		return nil, err
	}
	for _, role := range roles {
		for name, ok := range role.Permissions {
			if ok {
				granted.Add(Permission(name))
			}
		}
	}

	for name, ok := range subject.Overrides {
		if ok {
			granted.Add(Permission(name))
		} else {
			granted.Remove(Permission(name))
		}
	}
	return granted, nil
}

// ResolveUser re-reads the user before resolving.
func (r *Resolver) ResolveUser(ctx context.Context, userID primitive.ObjectID) (Set, error) {
	subject, err := r.Subjects.SubjectByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return r.Resolve(ctx, subject)
}

// Authorize reports whether any required permission is granted.
func Authorize(required []Permission, granted Set) bool {
	for _, p := range required {
		if granted.Has(p) {
			return true
		}
	}
	return false
}
