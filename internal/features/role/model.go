package role

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const Collection = "Role"

// Role is a named bundle of permission flags. Flags set to false are kept
// so the document lists every known permission explicitly.
type Role struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name" yaml:"name"`
	Permissions map[string]bool    `json:"permissions" bson:"permissions" yaml:"permissions"`
	UpdatedOn   time.Time          `json:"updatedOn" bson:"updatedOn" yaml:"-"`
}

// Granted lists the permission names whose flag is true.
func (r *Role) Granted() []string {
	out := make([]string, 0, len(r.Permissions))
	for name, ok := range r.Permissions {
		if ok {
			out = append(out, name)
		}
	}
	return out
}
