package main

import (
	"os"
	"path/filepath"
	"testing"

	"issue-tracker/internal/features/permission"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRoles(t *testing.T) {
	roles, err := loadRoles("data/roles.yaml")
	require.NoError(t, err)
	require.Len(t, roles, 5)

	names := []string{}
	for _, r := range roles {
		names = append(names, r.Name)
		assert.Len(t, r.Permissions, len(permission.All), r.Name)
		for name := range r.Permissions {
			assert.True(t, permission.Permission(name).Known(), "%s: %s", r.Name, name)
		}
	}
	assert.Equal(t, []string{"developer", "business analyst", "quality analyst", "product manager", "technical manager"}, names)
}

func TestLoadRolesRejectsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("roles: []\n"), 0o600))

	_, err := loadRoles(path)
	assert.Error(t, err)

	_, err = loadRoles(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
