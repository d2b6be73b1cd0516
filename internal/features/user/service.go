package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"issue-tracker/internal/common/errs"
	"issue-tracker/internal/common/models"
	"issue-tracker/internal/features/audit"
	"issue-tracker/internal/features/permission"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*User, error)
	Authenticate(ctx context.Context, email, password string) (*User, error)
	GetUser(ctx context.Context, id primitive.ObjectID) (*User, error)
	ListUsers(ctx context.Context, q ListQuery) ([]User, int64, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, in ProfileUpdate, actor models.UserRef) (*User, error)
	AdminUpdate(ctx context.Context, id primitive.ObjectID, in AdminUpdate, actor models.UserRef) (*User, error)
	DeleteUser(ctx context.Context, id primitive.ObjectID, actor models.UserRef) error
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type UserServiceImpl struct {
	UserRepo UserRepository
	Audit    *audit.Recorder
	now      func() time.Time
}

func NewUserService(userRepo UserRepository, recorder *audit.Recorder) UserService {
	return &UserServiceImpl{
		UserRepo: userRepo,
		Audit:    recorder,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", errs.Validation("password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errs.Validation("password cannot be hashed")
	}
	return string(hash), nil
}

func (s *UserServiceImpl) Register(ctx context.Context, in RegisterInput) (*User, error) {
	email := normalizeEmail(in.Email)
	given := strings.TrimSpace(in.GivenName)
	family := strings.TrimSpace(in.FamilyName)

	switch {
	case email == "":
		return nil, errs.Validation("email is required")
	case !strings.Contains(email, "@"):
		return nil, errs.Validation("email is invalid")
	case in.Password == "":
		return nil, errs.Validation("password is required")
	case given == "":
		return nil, errs.Validation("givenName is required")
	case family == "":
		return nil, errs.Validation("familyName is required")
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           primitive.NewObjectID(),
		Email:        email,
		PasswordHash: hash,
		GivenName:    given,
		FamilyName:   family,
		FullName:     fullName(given, family),
		Roles:        []string{DefaultRole},
		CreatedOn:    s.now(),
	}
	if err := s.UserRepo.Insert(ctx, u); err != nil {
		return nil, err
	}

	s.Audit.Append(ctx, audit.NewEdit(Collection, audit.OpInsert, audit.Target{UserID: u.ID}, bson.M{
		"email":      u.Email,
		"givenName":  u.GivenName,
		"familyName": u.FamilyName,
		"fullName":   u.FullName,
		"role":       u.Roles,
		"createdOn":  u.CreatedOn,
	}, u.Ref()))
	return u, nil
}

// Authenticate returns the same error for an unknown email and a wrong password.
func (s *UserServiceImpl) Authenticate(ctx context.Context, email, password string) (*User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, errs.Validation("email and password are required")
	}
	u, err := s.UserRepo.FindByEmail(ctx, email)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.Unauthorized("invalid login credentials")
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, errs.Unauthorized("invalid login credentials")
	}
	return u, nil
}

func (s *UserServiceImpl) GetUser(ctx context.Context, id primitive.ObjectID) (*User, error) {
	return s.UserRepo.FindByID(ctx, id)
}

func (s *UserServiceImpl) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	_, err := s.UserRepo.FindByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *UserServiceImpl) ListUsers(ctx context.Context, q ListQuery) ([]User, int64, error) {
	filter := buildListFilter(q, s.now())
	users, err := s.UserRepo.List(ctx, filter, buildListOptions(q))
	if err != nil {
		return nil, 0, err
	}
	total, err := s.UserRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// profileChanges turns a profile patch into the $set document and the
// audit payload. The hash never reaches the audit payload.
func (s *UserServiceImpl) profileChanges(current *User, in ProfileUpdate) (bson.M, bson.M, error) {
	if in.Email != nil {
		return nil, nil, errs.Validation("email cannot be changed")
	}
	set, changed := bson.M{}, bson.M{}

	given, family := current.GivenName, current.FamilyName
	if in.GivenName != nil {
		if given = strings.TrimSpace(*in.GivenName); given == "" {
			return nil, nil, errs.Validation("givenName cannot be empty")
		}
		set["givenName"], changed["givenName"] = given, given
	}
	if in.FamilyName != nil {
		if family = strings.TrimSpace(*in.FamilyName); family == "" {
			return nil, nil, errs.Validation("familyName cannot be empty")
		}
		set["familyName"], changed["familyName"] = family, family
	}
	if in.GivenName != nil || in.FamilyName != nil {
		name := fullName(given, family)
		set["fullName"], changed["fullName"] = name, name
	}
	if in.Password != nil {
		hash, err := hashPassword(*in.Password)
		if err != nil {
			return nil, nil, err
		}
		set["password"] = hash
		changed["passwordChanged"] = true
	}
	return set, changed, nil
}

func (s *UserServiceImpl) UpdateProfile(ctx context.Context, id primitive.ObjectID, in ProfileUpdate, actor models.UserRef) (*User, error) {
	current, err := s.UserRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	set, changed, err := s.profileChanges(current, in)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, id, set, changed, actor)
}

func (s *UserServiceImpl) AdminUpdate(ctx context.Context, id primitive.ObjectID, in AdminUpdate, actor models.UserRef) (*User, error) {
	current, err := s.UserRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	set, changed, err := s.profileChanges(current, in.ProfileUpdate)
	if err != nil {
		return nil, err
	}

	if in.Roles != nil {
		roles := make([]string, 0, len(in.Roles))
		for _, r := range in.Roles {
			if r = strings.ToLower(strings.TrimSpace(r)); r != "" {
				roles = append(roles, r)
			}
		}
		set["role"], changed["role"] = roles, roles
	}
	if in.Permissions != nil {
		for name := range in.Permissions {
			if !permission.Permission(name).Known() {
				return nil, errs.Validation("unknown permission %q", name)
			}
		}
		set["permissions"], changed["permissions"] = in.Permissions, in.Permissions
	}
	return s.apply(ctx, id, set, changed, actor)
}

func (s *UserServiceImpl) apply(ctx context.Context, id primitive.ObjectID, set, changed bson.M, actor models.UserRef) (*User, error) {
	if len(set) == 0 {
		return nil, errs.Validation("no fields to update")
	}
	now := s.now()
	set["lastUpdatedOn"] = now
	set["lastUpdatedBy"] = actor

	if err := s.UserRepo.Update(ctx, id, set); err != nil {
		return nil, err
	}
	changed["lastUpdatedOn"] = now
	s.Audit.Append(ctx, audit.NewEdit(Collection, audit.OpUpdate, audit.Target{UserID: id}, changed, actor))

	return s.UserRepo.FindByID(ctx, id)
}

func (s *UserServiceImpl) DeleteUser(ctx context.Context, id primitive.ObjectID, actor models.UserRef) error {
	if err := s.UserRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.Audit.Append(ctx, audit.NewEdit(Collection, audit.OpDelete, audit.Target{UserID: id}, nil, actor))
	return nil
}
