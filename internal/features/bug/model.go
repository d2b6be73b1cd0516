package bug

import (
	"time"

	"issue-tracker/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const Collection = "Bug"

type Classification string

const (
	Unclassified Classification = "unclassified"
	Low          Classification = "Low"
	Medium       Classification = "Medium"
	High         Classification = "High"
	Critical     Classification = "Critical"
)

var classifications = []Classification{Unclassified, Low, Medium, High, Critical}

// ParseClassification accepts any casing of a known classification.
func ParseClassification(raw string) (Classification, bool) {
	for _, c := range classifications {
		if equalFold(string(c), raw) {
			return c, true
		}
	}
	return "", false
}

type Bug struct {
	ID               primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Title            string             `json:"title" bson:"title"`
	Description      string             `json:"description" bson:"description"`
	StepsToReproduce string             `json:"stepsToReproduce" bson:"stepsToReproduce"`
	CreatedOn        time.Time          `json:"createdOn" bson:"createdOn"`
	CreatedBy        models.UserRef     `json:"createdBy" bson:"createdBy"`

	Classification Classification  `json:"classification" bson:"classification"`
	ClassifiedOn   *time.Time      `json:"classifiedOn" bson:"classifiedOn"`
	ClassifiedBy   *models.UserRef `json:"classifiedBy" bson:"classifiedBy"`

	Closed   bool            `json:"closed" bson:"closed"`
	ClosedOn *time.Time      `json:"closedOn" bson:"closedOn"`
	ClosedBy *models.UserRef `json:"closedBy" bson:"closedBy"`

	AssignedToUserID   *primitive.ObjectID `json:"assignedToUserId" bson:"assignedToUserId"`
	AssignedToUserName string              `json:"assignedToUserName,omitempty" bson:"assignedToUserName,omitempty"`
	AssignedOn         *time.Time          `json:"assignedOn" bson:"assignedOn"`
	AssignedBy         *models.UserRef     `json:"assignedBy" bson:"assignedBy"`

	LastUpdatedOn *time.Time      `json:"lastUpdatedOn" bson:"lastUpdatedOn"`
	LastUpdatedBy *models.UserRef `json:"lastUpdatedBy" bson:"lastUpdatedBy"`

	Comments  []Comment  `json:"comments" bson:"comments"`
	TestCases []TestCase `json:"testCases" bson:"testCases"`
}

// Comment is immutable once posted.
type Comment struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	Comment   string             `json:"comment" bson:"comment"`
	Author    string             `json:"author" bson:"author"`
	AuthorID  primitive.ObjectID `json:"authorId" bson:"authorId"`
	CreatedOn time.Time          `json:"createdOn" bson:"createdOn"`
}

type TestCase struct {
	TestID        primitive.ObjectID  `json:"testId" bson:"testId"`
	UserID        primitive.ObjectID  `json:"userId" bson:"userId"`
	Passed        bool                `json:"passed" bson:"passed"`
	Version       string              `json:"version" bson:"version"`
	CreatedOn     time.Time           `json:"createdOn" bson:"createdOn"`
	AppliedOnDate time.Time           `json:"appliedOnDate" bson:"appliedOnDate"`
	LastUpdatedOn *time.Time          `json:"lastUpdatedOn,omitempty" bson:"lastUpdatedOn,omitempty"`
	LastUpdatedBy *primitive.ObjectID `json:"lastUpdatedBy,omitempty" bson:"lastUpdatedBy,omitempty"`
}

// Owners exposes the fields ownership-bound permissions look at.
type Owners struct {
	CreatedBy  primitive.ObjectID
	AssignedTo primitive.ObjectID
}

type NewBugInput struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	StepsToReproduce string `json:"stepsToReproduce"`
}

// BugPatch carries the fields of a generic update; nil means untouched.
type BugPatch struct {
	Title            *string `json:"title,omitempty"`
	Description      *string `json:"description,omitempty"`
	StepsToReproduce *string `json:"stepsToReproduce,omitempty"`
}

// TestCasePatch carries the mutable fields of a test case.
type TestCasePatch struct {
	Passed        *bool      `json:"passed,omitempty"`
	Version       *string    `json:"version,omitempty"`
	AppliedOnDate *time.Time `json:"appliedOnDate,omitempty"`
}

type ListQuery struct {
	Keywords       string
	Classification string
	MaxAge         int
	MinAge         int
	Closed         *bool
	SortBy         string
	PageSize       int64
	PageNumber     int64
}
