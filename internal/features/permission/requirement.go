package permission

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ownership narrows a grant to bugs the caller created or is assigned to.
type Ownership int

const (
	AnyOwner Ownership = iota
	Creator
	Assignee
)

// Grant is one alternative of a requirement.
type Grant struct {
	Permission Permission
	Owner      Ownership
}

// Resource carries the ownership facts of the entity being acted on.
type Resource struct {
	CreatedBy  primitive.ObjectID
	AssignedTo primitive.ObjectID
}

// Requirement describes who may perform an operation: any one of AnyOf
// suffices. An empty AnyOf admits every authenticated caller.
type Requirement struct {
	Name  string
	AnyOf []Grant
}

func Require(name string, grants ...Grant) Requirement {
	return Requirement{Name: name, AnyOf: grants}
}

func Any(p Permission) Grant { return Grant{Permission: p} }

func IfCreator(p Permission) Grant { return Grant{Permission: p, Owner: Creator} }

func IfAssignee(p Permission) Grant { return Grant{Permission: p, Owner: Assignee} }

func (r Requirement) Permissions() []Permission {
	out := make([]Permission, 0, len(r.AnyOf))
	for _, g := range r.AnyOf {
		out = append(out, g.Permission)
	}
	return out
}

// NeedsResource reports whether Evaluate would have to look at the resource.
// False when an unconditional grant already matches or nothing matches at all.
func (r Requirement) NeedsResource(granted Set) bool {
	needs := false
	for _, g := range r.AnyOf {
		if !granted.Has(g.Permission) {
			continue
		}
		if g.Owner == AnyOwner {
			return false
		}
		needs = true
	}
	return needs
}

// Evaluate checks the requirement. res may be nil when NeedsResource is false;
// ownership-bound grants never match a nil resource.
func (r Requirement) Evaluate(granted Set, userID primitive.ObjectID, res *Resource) bool {
	if len(r.AnyOf) == 0 {
		return true
	}
	for _, g := range r.AnyOf {
		if !granted.Has(g.Permission) {
			continue
		}
		switch g.Owner {
		case AnyOwner:
			return true
		case Creator:
			if res != nil && !userID.IsZero() && res.CreatedBy == userID {
				return true
			}
		case Assignee:
			if res != nil && !userID.IsZero() && res.AssignedTo == userID {
				return true
			}
		}
	}
	return false
}

// Requirements per gated operation.
var (
	Self           = Require("self")
	ViewBugs       = Require("viewBugs", Any(ViewData))
	CreateBugs     = Require("createBug", Any(CreateBug))
	UpdateBug      = Require("updateBug", Any(EditAnyBug), IfAssignee(EditIfAssignedTo), IfCreator(EditMyBug))
	ClassifyBug    = Require("classifyBug", Any(ClassifyAnyBug), IfAssignee(EditIfAssignedTo), IfCreator(EditMyBug))
	AssignBug      = Require("assignBug", Any(ReassignAnyBug), IfAssignee(ReassignIfAssignedTo), IfCreator(EditMyBug))
	CloseBug       = Require("closeBug", Any(CloseAnyBug))
	CommentBug     = Require("addComment", Any(AddComments))
	AddTest        = Require("addTestCase", Any(AddTestCase))
	EditTest       = Require("editTestCase", Any(EditTestCase))
	DeleteTest     = Require("deleteTestCase", Any(DeleteTestCase))
	ViewUsers      = Require("viewUsers", Any(ViewData))
	ViewRoles      = Require("viewRoles", Any(ViewData))
	AdministerUser = Require("editAnyUser", Any(EditAnyUser))
)
