package main

import (
	"fmt"
	"os"

	"issue-tracker/internal/features/role"

	"gopkg.in/yaml.v3"
)

type roleFile struct {
	Roles []role.Role `yaml:"roles"`
}

// loadRoles reads the seed role definitions.
func loadRoles(path string) ([]role.Role, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f roleFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(f.Roles) == 0 {
		return nil, fmt.Errorf("%s defines no roles", path)
	}
	return f.Roles, nil
}
