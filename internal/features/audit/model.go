package audit

import (
	"time"

	"issue-tracker/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

func (o Op) Valid() bool {
	switch o {
	case OpInsert, OpUpdate, OpDelete:
		return true
	}
	return false
}

// Target points at the entity (and sub-entity) an edit applied to.
type Target struct {
	BugID     primitive.ObjectID `bson:"bugId,omitempty" json:"bugId,omitempty"`
	UserID    primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	CommentID primitive.ObjectID `bson:"commentId,omitempty" json:"commentId,omitempty"`
	TestID    primitive.ObjectID `bson:"testId,omitempty" json:"testId,omitempty"`
}

// Edit is one append-only entry in the Edits collection.
type Edit struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	Col       string             `bson:"col" json:"col"`
	Op        Op                 `bson:"op" json:"op"`
	Target    Target             `bson:"target" json:"target"`
	Update    any                `bson:"update,omitempty" json:"update,omitempty"`
	Auth      models.UserRef     `bson:"auth" json:"auth"`
}

// NewEdit stamps an edit with the current time.
func NewEdit(col string, op Op, target Target, update any, actor models.UserRef) *Edit {
	return &Edit{
		Timestamp: time.Now().UTC(),
		Col:       col,
		Op:        op,
		Target:    target,
		Update:    update,
		Auth:      actor,
	}
}
