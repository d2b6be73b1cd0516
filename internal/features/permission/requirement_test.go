package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRequirement_Evaluate(t *testing.T) {
	me := primitive.NewObjectID()
	other := primitive.NewObjectID()
	mine := &Resource{CreatedBy: me, AssignedTo: other}
	assignedToMe := &Resource{CreatedBy: other, AssignedTo: me}
	theirs := &Resource{CreatedBy: other, AssignedTo: other}

	cases := []struct {
		name    string
		req     Requirement
		granted Set
		res     *Resource
		want    bool
	}{
		{"any grant ignores ownership", UpdateBug, NewSet(EditAnyBug), theirs, true},
		{"creator grant on own bug", UpdateBug, NewSet(EditMyBug), mine, true},
		{"creator grant on other bug", UpdateBug, NewSet(EditMyBug), theirs, false},
		{"assignee grant when assigned", UpdateBug, NewSet(EditIfAssignedTo), assignedToMe, true},
		{"assignee grant when not assigned", UpdateBug, NewSet(EditIfAssignedTo), mine, false},
		{"ownership grant with nil resource", UpdateBug, NewSet(EditMyBug), nil, false},
		{"classify via edit-my-bug", ClassifyBug, NewSet(EditMyBug), mine, true},
		{"assign via reassign-if-assigned", AssignBug, NewSet(ReassignIfAssignedTo), assignedToMe, true},
		{"assign needs a reassign flag", AssignBug, NewSet(EditIfAssignedTo), assignedToMe, false},
		{"close requires close-any", CloseBug, NewSet(EditAnyBug, EditMyBug), mine, false},
		{"create without flag", CreateBugs, NewSet(ViewData), nil, false},
		{"create with flag", CreateBugs, NewSet(CreateBug), nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.req.Evaluate(tc.granted, me, tc.res))
		})
	}
}

func TestRequirement_NeedsResource(t *testing.T) {
	assert.False(t, UpdateBug.NeedsResource(NewSet(EditAnyBug, EditMyBug)))
	assert.True(t, UpdateBug.NeedsResource(NewSet(EditMyBug)))
	assert.False(t, UpdateBug.NeedsResource(NewSet(ViewData)))
	assert.False(t, CloseBug.NeedsResource(NewSet(CloseAnyBug)))
}

func TestRequirement_ZeroUserNeverOwns(t *testing.T) {
	res := &Resource{}
	assert.False(t, UpdateBug.Evaluate(NewSet(EditMyBug), primitive.NilObjectID, res))
}

func TestRequirement_SelfAdmitsAnyCaller(t *testing.T) {
	assert.True(t, Self.Evaluate(NewSet(), primitive.NewObjectID(), nil))
	assert.False(t, Self.NeedsResource(NewSet()))
}

func TestRequirement_Permissions(t *testing.T) {
	assert.Equal(t, []Permission{ClassifyAnyBug, EditIfAssignedTo, EditMyBug}, ClassifyBug.Permissions())
	assert.Empty(t, Self.Permissions())
}
