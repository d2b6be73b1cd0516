package role

import (
	"context"

	"issue-tracker/internal/common/errs"
	"issue-tracker/internal/features/permission"
)

type RoleService interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRoleByName(ctx context.Context, name string) (*Role, error)
	SaveRole(ctx context.Context, role *Role) (bool, error)
	// RolesByName satisfies permission.RoleLookup.
	RolesByName(ctx context.Context, names []string) ([]permission.RoleGrants, error)
}

type RoleServiceImpl struct {
	RoleRepo RoleRepository
}

func NewRoleService(roleRepo RoleRepository) RoleService {
	return &RoleServiceImpl{RoleRepo: roleRepo}
}

func (s *RoleServiceImpl) ListRoles(ctx context.Context) ([]Role, error) {
	return s.RoleRepo.List(ctx)
}

func (s *RoleServiceImpl) GetRoleByName(ctx context.Context, name string) (*Role, error) {
	return s.RoleRepo.FindByName(ctx, name)
}

// SaveRole validates the flag names before writing so a typo in seed data
// cannot silently grant nothing.
func (s *RoleServiceImpl) SaveRole(ctx context.Context, role *Role) (bool, error) {
	if normalizeName(role.Name) == "" {
		return false, errs.Validation("role name is required")
	}
	for name := range role.Permissions {
		if !permission.Permission(name).Known() {
			return false, errs.Validation("role %s: unknown permission %q", role.Name, name)
		}
	}
	return s.RoleRepo.Upsert(ctx, role)
}

func (s *RoleServiceImpl) RolesByName(ctx context.Context, names []string) ([]permission.RoleGrants, error) {
	roles, err := s.RoleRepo.FindByNames(ctx, names)
	if err != nil {
		return nil, err
	}
	grants := make([]permission.RoleGrants, 0, len(roles))
	for _, r := range roles {
		grants = append(grants, permission.RoleGrants{Name: r.Name, Permissions: r.Permissions})
	}
	return grants, nil
}
