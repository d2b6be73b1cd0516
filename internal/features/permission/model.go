package permission

import (
	"sort"
)

// Permission is a named capability flag carried by roles and tokens.
type Permission string

const (
	ViewData             Permission = "canViewData"
	CreateBug            Permission = "canCreateBug"
	EditAnyBug           Permission = "canEditAnyBug"
	EditMyBug            Permission = "canEditMyBug"
	EditIfAssignedTo     Permission = "canEditIfAssignedTo"
	ClassifyAnyBug       Permission = "canClassifyAnyBug"
	ReassignAnyBug       Permission = "canReassignAnyBug"
	ReassignIfAssignedTo Permission = "canReassignIfAssignedTo"
	CloseAnyBug          Permission = "canCloseAnyBug"
	AddComments          Permission = "canAddComments"
	AddTestCase          Permission = "canAddTestCase"
	EditTestCase         Permission = "canEditTestCase"
	DeleteTestCase       Permission = "canDeleteTestCase"
	EditAnyUser          Permission = "canEditAnyUser"
)

// All lists every permission the API understands.
var All = []Permission{
	ViewData, CreateBug, EditAnyBug, EditMyBug, EditIfAssignedTo,
	ClassifyAnyBug, ReassignAnyBug, ReassignIfAssignedTo, CloseAnyBug,
	AddComments, AddTestCase, EditTestCase, DeleteTestCase, EditAnyUser,
}

// Older role documents spell this one with a capital A.
var aliases = map[string]Permission{
	"canReAssignIfAssignedTo": ReassignIfAssignedTo,
}

// Parse canonicalizes a stored permission name.
func Parse(name string) Permission {
	if p, ok := aliases[name]; ok {
		return p
	}
	return Permission(name)
}

func (p Permission) Known() bool {
	p = Parse(string(p))
	for _, known := range All {
		if p == known {
			return true
		}
	}
	return false
}

// Set is an effective permission set.
type Set map[Permission]struct{}

func NewSet(perms ...Permission) Set {
	s := make(Set, len(perms))
	for _, p := range perms {
		s.Add(p)
	}
	return s
}

// FromStrings builds a set from names carried in a token.
func FromStrings(names []string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s.Add(Permission(n))
	}
	return s
}

func (s Set) Add(p Permission) {
	s[Parse(string(p))] = struct{}{}
}

func (s Set) Remove(p Permission) {
	delete(s, Parse(string(p)))
}

func (s Set) Has(p Permission) bool {
	_, ok := s[Parse(string(p))]
	return ok
}

// List returns the names in sorted order.
func (s Set) List() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, string(p))
	}
	sort.Strings(out)
	return out
}
