package bug

import (
	"context"
	"errors"

	"issue-tracker/internal/common/errs"
	"issue-tracker/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BugRepository persists bugs. Mutations of embedded lists are single
// update documents so concurrent writers cannot lose each other's changes.
type BugRepository interface {
	Insert(ctx context.Context, bug *Bug) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Bug, error)
	FindOwners(ctx context.Context, id primitive.ObjectID) (*Owners, error)
	List(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]Bug, error)
	Count(ctx context.Context, filter bson.M) (int64, error)
	SetFields(ctx context.Context, id primitive.ObjectID, set bson.M) error
	Close(ctx context.Context, id primitive.ObjectID, set bson.M) (bool, error)
	Reopen(ctx context.Context, id primitive.ObjectID, set bson.M) (bool, error)
	AddComment(ctx context.Context, id primitive.ObjectID, comment Comment, set bson.M) error
	AddTestCase(ctx context.Context, id primitive.ObjectID, tc TestCase) ([]TestCase, error)
	UpdateTestCase(ctx context.Context, id, testID primitive.ObjectID, set bson.M) (*TestCase, error)
	DeleteTestCase(ctx context.Context, id, testID primitive.ObjectID) (bool, error)
	EnsureIndexes(ctx context.Context) error
}

type BugRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewBugRepository(mongodb *database.MongodbDB) BugRepository {
	return &BugRepositoryImpl{
		Collection: mongodb.DB.Collection(Collection),
	}
}

func notFound(id primitive.ObjectID) error {
	return errs.NotFound("bug %s not found", id.Hex())
}

func (r *BugRepositoryImpl) Insert(ctx context.Context, bug *Bug) error {
	if bug.ID.IsZero() {
		bug.ID = primitive.NewObjectID()
	}
	if _, err := r.Collection.InsertOne(ctx, bug); err != nil {
		return errs.Storage(err, "insert bug")
	}
	return nil
}

func (r *BugRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Bug, error) {
	var bug Bug
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&bug)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errs.Storage(err, "find bug")
	}
	return &bug, nil
}

func (r *BugRepositoryImpl) FindOwners(ctx context.Context, id primitive.ObjectID) (*Owners, error) {
	var doc struct {
		CreatedBy struct {
			UserID primitive.ObjectID `bson:"userId"`
		} `bson:"createdBy"`
		AssignedToUserID *primitive.ObjectID `bson:"assignedToUserId"`
	}
	opts := options.FindOne().SetProjection(bson.M{"createdBy.userId": 1, "assignedToUserId": 1})
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errs.Storage(err, "find bug owners")
	}

	owners := &Owners{CreatedBy: doc.CreatedBy.UserID}
	if doc.AssignedToUserID != nil {
		owners.AssignedTo = *doc.AssignedToUserID
	}
	return owners, nil
}

func (r *BugRepositoryImpl) List(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]Bug, error) {
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, errs.Storage(err, "list bugs")
	}
	defer cursor.Close(ctx)

	bugs := []Bug{}
	if err := cursor.All(ctx, &bugs); err != nil {
		return nil, errs.Storage(err, "decode bugs")
	}
	return bugs, nil
}

func (r *BugRepositoryImpl) Count(ctx context.Context, filter bson.M) (int64, error) {
	n, err := r.Collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, errs.Storage(err, "count bugs")
	}
	return n, nil
}

func (r *BugRepositoryImpl) SetFields(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	res, err := r.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return errs.Storage(err, "update bug")
	}
	if res.MatchedCount == 0 {
		return notFound(id)
	}
	return nil
}

// Close applies set only to an open bug. Returns false when the bug was
// already closed.
func (r *BugRepositoryImpl) Close(ctx context.Context, id primitive.ObjectID, set bson.M) (bool, error) {
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id, "closed": bson.M{"$ne": true}},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, errs.Storage(err, "close bug")
	}
	return res.MatchedCount > 0, nil
}

// Reopen applies set only to a closed bug.
func (r *BugRepositoryImpl) Reopen(ctx context.Context, id primitive.ObjectID, set bson.M) (bool, error) {
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id, "closed": true},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, errs.Storage(err, "reopen bug")
	}
	return res.MatchedCount > 0, nil
}

// AddComment pushes the comment and applies set in the same update.
func (r *BugRepositoryImpl) AddComment(ctx context.Context, id primitive.ObjectID, comment Comment, set bson.M) error {
	update := bson.M{"$push": bson.M{"comments": comment}}
	if len(set) > 0 {
		update["$set"] = set
	}
	res, err := r.Collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return errs.Storage(err, "add comment")
	}
	if res.MatchedCount == 0 {
		return notFound(id)
	}
	return nil
}

// AddTestCase appends tc and returns the list as stored after the push.
func (r *BugRepositoryImpl) AddTestCase(ctx context.Context, id primitive.ObjectID, tc TestCase) ([]TestCase, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"testCases": 1})

	// Pipeline form so a missing or null testCases field starts a new list.
	update := mongo.Pipeline{{{Key: "$set", Value: bson.M{
		"testCases": bson.M{"$concatArrays": bson.A{
			bson.M{"$ifNull": bson.A{"$testCases", bson.A{}}},
			bson.A{tc},
		}},
	}}}}

	var doc Bug
	err := r.Collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errs.Storage(err, "add test case")
	}
	return doc.TestCases, nil
}

// UpdateTestCase sets fields on the matching element in place. Keys of set
// are test case field names.
func (r *BugRepositoryImpl) UpdateTestCase(ctx context.Context, id, testID primitive.ObjectID, set bson.M) (*TestCase, error) {
	positional := bson.M{}
	for field, value := range set {
		positional["testCases.$."+field] = value
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"testCases": bson.M{"$elemMatch": bson.M{"testId": testID}}})

	var doc Bug
	err := r.Collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "testCases.testId": testID},
		bson.M{"$set": positional},
		opts,
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && len(doc.TestCases) == 0) {
		return nil, errs.NotFound("test case %s not found on bug %s", testID.Hex(), id.Hex())
	}
	if err != nil {
		return nil, errs.Storage(err, "update test case")
	}
	return &doc.TestCases[0], nil
}

// DeleteTestCase reports whether a test case was removed.
func (r *BugRepositoryImpl) DeleteTestCase(ctx context.Context, id, testID primitive.ObjectID) (bool, error) {
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id, "testCases.testId": testID},
		bson.M{"$pull": bson.M{"testCases": bson.M{"testId": testID}}},
	)
	if err != nil {
		return false, errs.Storage(err, "delete test case")
	}
	return res.ModifiedCount == 1, nil
}

func (r *BugRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "title", Value: "text"},
				{Key: "description", Value: "text"},
				{Key: "stepsToReproduce", Value: "text"},
			},
			Options: options.Index().SetName("bug_text"),
		},
		{Keys: bson.D{{Key: "createdOn", Value: -1}}},
		{Keys: bson.D{{Key: "classification", Value: 1}, {Key: "closed", Value: 1}}},
		{Keys: bson.D{{Key: "testCases.testId", Value: 1}}},
	})
	return err
}
