package bug

import (
	"context"
	"sync"

	"issue-tracker/internal/common/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// memoryBugs is an in-memory BugRepository that round-trips documents
// through BSON so field names behave as they do in Mongo.
type memoryBugs struct {
	mu   sync.Mutex
	bugs map[primitive.ObjectID]*Bug
	// order keeps insertion order for List.
	order []primitive.ObjectID
}

func newMemoryBugs() *memoryBugs {
	return &memoryBugs{bugs: map[primitive.ObjectID]*Bug{}}
}

func roundTrip[T any](in any, set bson.M) (T, error) {
	var out T
	raw, err := bson.Marshal(in)
	if err != nil {
		return out, err
	}
	doc := bson.M{}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return out, err
	}
	for k, v := range set {
		doc[k] = v
	}
	raw, err = bson.Marshal(doc)
	if err != nil {
		return out, err
	}
	err = bson.Unmarshal(raw, &out)
	return out, err
}

func (m *memoryBugs) Insert(_ context.Context, b *Bug) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, err := roundTrip[Bug](b, nil)
	if err != nil {
		return err
	}
	m.bugs[b.ID] = &stored
	m.order = append(m.order, b.ID)
	return nil
}

func (m *memoryBugs) get(id primitive.ObjectID) (*Bug, error) {
	b, ok := m.bugs[id]
	if !ok {
		return nil, notFound(id)
	}
	return b, nil
}

func (m *memoryBugs) FindByID(_ context.Context, id primitive.ObjectID) (*Bug, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.get(id)
	if err != nil {
		return nil, err
	}
	out, err := roundTrip[Bug](b, nil)
	return &out, err
}

func (m *memoryBugs) FindOwners(_ context.Context, id primitive.ObjectID) (*Owners, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.get(id)
	if err != nil {
		return nil, err
	}
	o := &Owners{CreatedBy: b.CreatedBy.UserID}
	if b.AssignedToUserID != nil {
		o.AssignedTo = *b.AssignedToUserID
	}
	return o, nil
}

func (m *memoryBugs) List(_ context.Context, _ bson.M, _ *options.FindOptions) ([]Bug, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Bug{}
	for _, id := range m.order {
		if b, ok := m.bugs[id]; ok {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *memoryBugs) Count(_ context.Context, _ bson.M) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.bugs)), nil
}

func (m *memoryBugs) apply(id primitive.ObjectID, set bson.M) error {
	b, err := m.get(id)
	if err != nil {
		return err
	}
	updated, err := roundTrip[Bug](b, set)
	if err != nil {
		return err
	}
	m.bugs[id] = &updated
	return nil
}

func (m *memoryBugs) SetFields(_ context.Context, id primitive.ObjectID, set bson.M) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apply(id, set)
}

func (m *memoryBugs) Close(_ context.Context, id primitive.ObjectID, set bson.M) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bugs[id]; !ok || b.Closed {
		return false, nil
	}
	return true, m.apply(id, set)
}

func (m *memoryBugs) Reopen(_ context.Context, id primitive.ObjectID, set bson.M) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bugs[id]; !ok || !b.Closed {
		return false, nil
	}
	return true, m.apply(id, set)
}

func (m *memoryBugs) AddComment(_ context.Context, id primitive.ObjectID, c Comment, set bson.M) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.get(id)
	if err != nil {
		return err
	}
	b.Comments = append(b.Comments, c)
	return m.apply(id, set)
}

func (m *memoryBugs) AddTestCase(_ context.Context, id primitive.ObjectID, tc TestCase) ([]TestCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.get(id)
	if err != nil {
		return nil, err
	}
	b.TestCases = append(b.TestCases, tc)
	return append([]TestCase(nil), b.TestCases...), nil
}

func (m *memoryBugs) UpdateTestCase(_ context.Context, id, testID primitive.ObjectID, set bson.M) (*TestCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.get(id)
	if err != nil {
		return nil, errs.NotFound("test case not found")
	}
	for i := range b.TestCases {
		if b.TestCases[i].TestID != testID {
			continue
		}
		updated, err := roundTrip[TestCase](b.TestCases[i], set)
		if err != nil {
			return nil, err
		}
		b.TestCases[i] = updated
		return &updated, nil
	}
	return nil, errs.NotFound("test case not found")
}

func (m *memoryBugs) DeleteTestCase(_ context.Context, id, testID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bugs[id]
	if !ok {
		return false, nil
	}
	for i := range b.TestCases {
		if b.TestCases[i].TestID == testID {
			b.TestCases = append(b.TestCases[:i], b.TestCases[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryBugs) EnsureIndexes(context.Context) error { return nil }
