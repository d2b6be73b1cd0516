package bug

import (
	"context"
	"strings"
	"time"

	"issue-tracker/internal/common/errs"
	"issue-tracker/internal/common/models"
	"issue-tracker/internal/features/audit"
	"issue-tracker/internal/features/permission"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssigneeLookup confirms that an assignee exists.
type AssigneeLookup interface {
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type BugService interface {
	CreateBug(ctx context.Context, in NewBugInput, creator models.UserRef) (*Bug, error)
	GetBug(ctx context.Context, id primitive.ObjectID) (*Bug, error)
	ListBugs(ctx context.Context, q ListQuery) ([]Bug, int64, error)
	UpdateBug(ctx context.Context, id primitive.ObjectID, patch BugPatch, actor models.UserRef) (*Bug, error)
	ClassifyBug(ctx context.Context, id primitive.ObjectID, classification string, actor models.UserRef) (*Bug, error)
	AssignBug(ctx context.Context, id, assigneeID primitive.ObjectID, assigneeName string, actor models.UserRef) (*Bug, error)
	CloseBug(ctx context.Context, id primitive.ObjectID, closed bool, actor models.UserRef) (*Bug, bool, error)

	AddComment(ctx context.Context, id primitive.ObjectID, text string, author models.UserRef) (*Comment, error)
	ListComments(ctx context.Context, id primitive.ObjectID) ([]Comment, error)
	GetComment(ctx context.Context, id, commentID primitive.ObjectID) (*Comment, error)

	AddTestCase(ctx context.Context, id primitive.ObjectID, in TestCasePatch, creator models.UserRef) (*TestCase, error)
	ListTestCases(ctx context.Context, id primitive.ObjectID) ([]TestCase, error)
	GetTestCase(ctx context.Context, id, testID primitive.ObjectID) (*TestCase, error)
	UpdateTestCase(ctx context.Context, id, testID primitive.ObjectID, patch TestCasePatch, actor models.UserRef) (*TestCase, error)
	DeleteTestCase(ctx context.Context, id, testID primitive.ObjectID, actor models.UserRef) error

	Owners(ctx context.Context, id primitive.ObjectID) (*permission.Resource, error)
}

type BugServiceImpl struct {
	BugRepo   BugRepository
	Assignees AssigneeLookup
	Audit     *audit.Recorder
	now       func() time.Time
}

func NewBugService(bugRepo BugRepository, assignees AssigneeLookup, recorder *audit.Recorder) BugService {
	return &BugServiceImpl{
		BugRepo:   bugRepo,
		Assignees: assignees,
		Audit:     recorder,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *BugServiceImpl) record(ctx context.Context, op audit.Op, target audit.Target, update any, actor models.UserRef) {
	edit := audit.NewEdit(Collection, op, target, update, actor)
	s.Audit.Append(ctx, edit)
}

func (s *BugServiceImpl) CreateBug(ctx context.Context, in NewBugInput, creator models.UserRef) (*Bug, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	steps := strings.TrimSpace(in.StepsToReproduce)
	switch {
	case title == "":
		return nil, errs.Validation("title is required")
	case description == "":
		return nil, errs.Validation("description is required")
	case steps == "":
		return nil, errs.Validation("stepsToReproduce is required")
	}

	b := &Bug{
		ID:               primitive.NewObjectID(),
		Title:            title,
		Description:      description,
		StepsToReproduce: steps,
		CreatedOn:        s.now(),
		CreatedBy:        creator,
		Classification:   Unclassified,
		Closed:           false,
		Comments:         []Comment{},
		TestCases:        []TestCase{},
	}
	if err := s.BugRepo.Insert(ctx, b); err != nil {
		return nil, err
	}

	s.record(ctx, audit.OpInsert, audit.Target{BugID: b.ID}, bson.M{
		"title":            b.Title,
		"description":      b.Description,
		"stepsToReproduce": b.StepsToReproduce,
		"classification":   b.Classification,
		"closed":           b.Closed,
		"createdOn":        b.CreatedOn,
		"createdBy":        b.CreatedBy,
	}, creator)
	return b, nil
}

func (s *BugServiceImpl) GetBug(ctx context.Context, id primitive.ObjectID) (*Bug, error) {
	return s.BugRepo.FindByID(ctx, id)
}

func (s *BugServiceImpl) ListBugs(ctx context.Context, q ListQuery) ([]Bug, int64, error) {
	filter, err := buildListFilter(q, s.now())
	if err != nil {
		return nil, 0, err
	}
	bugs, err := s.BugRepo.List(ctx, filter, buildListOptions(q))
	if err != nil {
		return nil, 0, err
	}
	total, err := s.BugRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return bugs, total, nil
}

// setAndRecord writes set, appends one update edit carrying exactly set and
// returns the stored bug.
func (s *BugServiceImpl) setAndRecord(ctx context.Context, id primitive.ObjectID, set bson.M, actor models.UserRef) (*Bug, error) {
	now := s.now()
	set["lastUpdatedOn"] = now
	set["lastUpdatedBy"] = actor

	if err := s.BugRepo.SetFields(ctx, id, set); err != nil {
		return nil, err
	}
	s.record(ctx, audit.OpUpdate, audit.Target{BugID: id}, set, actor)
	return s.BugRepo.FindByID(ctx, id)
}

// UpdateBug changes descriptive fields only. Classification, assignment and
// closure have their own operations.
func (s *BugServiceImpl) UpdateBug(ctx context.Context, id primitive.ObjectID, patch BugPatch, actor models.UserRef) (*Bug, error) {
	set := bson.M{}
	fields := []struct {
		name  string
		value *string
	}{
		{"title", patch.Title},
		{"description", patch.Description},
		{"stepsToReproduce", patch.StepsToReproduce},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		v := strings.TrimSpace(*f.value)
		if v == "" {
			return nil, errs.Validation("%s cannot be empty", f.name)
		}
		set[f.name] = v
	}
	if len(set) == 0 {
		return nil, errs.Validation("no fields to update")
	}
	return s.setAndRecord(ctx, id, set, actor)
}

func (s *BugServiceImpl) ClassifyBug(ctx context.Context, id primitive.ObjectID, raw string, actor models.UserRef) (*Bug, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errs.Validation("classification is required")
	}
	c, ok := ParseClassification(raw)
	if !ok || c == Unclassified {
		return nil, errs.Validation("classification must be one of Low, Medium, High, Critical")
	}
	now := s.now()
	return s.setAndRecord(ctx, id, bson.M{
		"classification": c,
		"classifiedOn":   now,
		"classifiedBy":   actor,
	}, actor)
}

func (s *BugServiceImpl) AssignBug(ctx context.Context, id, assigneeID primitive.ObjectID, assigneeName string, actor models.UserRef) (*Bug, error) {
	name := strings.TrimSpace(assigneeName)
	if assigneeID.IsZero() {
		return nil, errs.Validation("assignedToUserId is required")
	}
	if name == "" {
		return nil, errs.Validation("assignedToUserName is required")
	}
	ok, err := s.Assignees.Exists(ctx, assigneeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.NotFound("user %s not found", assigneeID.Hex())
	}

	return s.setAndRecord(ctx, id, bson.M{
		"assignedToUserId":   assigneeID,
		"assignedToUserName": name,
		"assignedOn":         s.now(),
		"assignedBy":         actor,
	}, actor)
}

// CloseBug sets the closed flag. Closing a closed bug, or reopening an open
// one, changes nothing and records nothing; the bool reports a change.
func (s *BugServiceImpl) CloseBug(ctx context.Context, id primitive.ObjectID, closed bool, actor models.UserRef) (*Bug, bool, error) {
	current, err := s.BugRepo.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if current.Closed == closed {
		return current, false, nil
	}

	now := s.now()
	set := bson.M{
		"closed":        closed,
		"lastUpdatedOn": now,
		"lastUpdatedBy": actor,
	}
	var changed bool
	if closed {
		set["closedOn"] = now
		set["closedBy"] = actor
		changed, err = s.BugRepo.Close(ctx, id, set)
	} else {
		set["closedOn"] = nil
		set["closedBy"] = nil
		changed, err = s.BugRepo.Reopen(ctx, id, set)
	}
	if err != nil {
		return nil, false, err
	}
	if changed {
		s.record(ctx, audit.OpUpdate, audit.Target{BugID: id}, set, actor)
	}

	b, err := s.BugRepo.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return b, changed, nil
}

func (s *BugServiceImpl) AddComment(ctx context.Context, id primitive.ObjectID, text string, author models.UserRef) (*Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errs.Validation("comment is required")
	}
	if author.IsZero() || author.DisplayName() == "" {
		return nil, errs.Validation("author is required")
	}
	now := s.now()
	c := Comment{
		ID:        primitive.NewObjectID(),
		Comment:   text,
		Author:    author.DisplayName(),
		AuthorID:  author.UserID,
		CreatedOn: now,
	}
	stamp := bson.M{"lastUpdatedOn": now, "lastUpdatedBy": author}
	if err := s.BugRepo.AddComment(ctx, id, c, stamp); err != nil {
		return nil, err
	}
	s.record(ctx, audit.OpInsert, audit.Target{BugID: id, CommentID: c.ID}, c, author)
	return &c, nil
}

func (s *BugServiceImpl) ListComments(ctx context.Context, id primitive.ObjectID) ([]Comment, error) {
	b, err := s.BugRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Comments == nil {
		return []Comment{}, nil
	}
	return b.Comments, nil
}

func (s *BugServiceImpl) GetComment(ctx context.Context, id, commentID primitive.ObjectID) (*Comment, error) {
	comments, err := s.ListComments(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		if comments[i].ID == commentID {
			return &comments[i], nil
		}
	}
	return nil, errs.NotFound("comment %s not found", commentID.Hex())
}

func (s *BugServiceImpl) AddTestCase(ctx context.Context, id primitive.ObjectID, in TestCasePatch, creator models.UserRef) (*TestCase, error) {
	version := ""
	if in.Version != nil {
		version = strings.TrimSpace(*in.Version)
	}
	if version == "" {
		return nil, errs.Validation("version is required")
	}

	now := s.now()
	tc := TestCase{
		TestID:        primitive.NewObjectID(),
		UserID:        creator.UserID,
		Passed:        true,
		Version:       version,
		CreatedOn:     now,
		AppliedOnDate: now,
	}
	if in.Passed != nil {
		tc.Passed = *in.Passed
	}
	if in.AppliedOnDate != nil {
		tc.AppliedOnDate = in.AppliedOnDate.UTC()
	}

	all, err := s.BugRepo.AddTestCase(ctx, id, tc)
	if err != nil {
		return nil, err
	}
	s.record(ctx, audit.OpInsert, audit.Target{BugID: id, TestID: tc.TestID}, bson.M{"testCases": all}, creator)
	return &tc, nil
}

func (s *BugServiceImpl) ListTestCases(ctx context.Context, id primitive.ObjectID) ([]TestCase, error) {
	b, err := s.BugRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.TestCases == nil {
		return []TestCase{}, nil
	}
	return b.TestCases, nil
}

func (s *BugServiceImpl) GetTestCase(ctx context.Context, id, testID primitive.ObjectID) (*TestCase, error) {
	cases, err := s.ListTestCases(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range cases {
		if cases[i].TestID == testID {
			return &cases[i], nil
		}
	}
	return nil, errs.NotFound("test case %s not found", testID.Hex())
}

// UpdateTestCase changes passed, version and appliedOnDate. The identifier,
// creator and creation time are never written.
func (s *BugServiceImpl) UpdateTestCase(ctx context.Context, id, testID primitive.ObjectID, patch TestCasePatch, actor models.UserRef) (*TestCase, error) {
	set := bson.M{}
	if patch.Passed != nil {
		set["passed"] = *patch.Passed
	}
	if patch.Version != nil {
		v := strings.TrimSpace(*patch.Version)
		if v == "" {
			return nil, errs.Validation("version cannot be empty")
		}
		set["version"] = v
	}
	if patch.AppliedOnDate != nil {
		set["appliedOnDate"] = patch.AppliedOnDate.UTC()
	}
	if len(set) == 0 {
		return nil, errs.Validation("no fields to update")
	}
	set["lastUpdatedOn"] = s.now()
	set["lastUpdatedBy"] = actor.UserID

	tc, err := s.BugRepo.UpdateTestCase(ctx, id, testID, set)
	if err != nil {
		return nil, err
	}
	s.record(ctx, audit.OpUpdate, audit.Target{BugID: id, TestID: testID}, set, actor)
	return tc, nil
}

func (s *BugServiceImpl) DeleteTestCase(ctx context.Context, id, testID primitive.ObjectID, actor models.UserRef) error {
	removed, err := s.BugRepo.DeleteTestCase(ctx, id, testID)
	if err != nil {
		return err
	}
	if !removed {
		return errs.NotFound("test case %s not found on bug %s", testID.Hex(), id.Hex())
	}
	s.record(ctx, audit.OpDelete, audit.Target{BugID: id, TestID: testID}, nil, actor)
	return nil
}

func (s *BugServiceImpl) Owners(ctx context.Context, id primitive.ObjectID) (*permission.Resource, error) {
	o, err := s.BugRepo.FindOwners(ctx, id)
	if err != nil {
		return nil, err
	}
	return &permission.Resource{CreatedBy: o.CreatedBy, AssignedTo: o.AssignedTo}, nil
}
