package user

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

type UserRepository interface {
	Insert(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]User, error)
	Count(ctx context.Context, filter bson.M) (int64, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	EnsureIndexes(ctx context.Context) error
}

type UserRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewUserRepository(mongodb *database.MongodbDB) UserRepository {
	return &UserRepositoryImpl{
		Collection: mongodb.DB.Collection(Collection),
	}
}

func (r *UserRepositoryImpl) Insert(ctx context.Context, user *User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return errs.Conflict("email %s is already registered", user.Email)
	}
	if err != nil {
		return errs.Storage(err, "insert user")
	}
	return nil
}

func (r *UserRepositoryImpl) findOne(ctx context.Context, filter bson.M, what string) (*User, error) {
	var user User
	err := r.Collection.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.NotFound("%s not found", what)
	}
	if err != nil {
		return nil, errs.Storage(err, "find user")
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	return r.findOne(ctx, bson.M{"_id": id}, "user "+id.Hex())
}

func (r *UserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, bson.M{"email": normalizeEmail(email)}, "user")
}

func (r *UserRepositoryImpl) List(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]User, error) {
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, errs.Storage(err, "list users")
	}
	defer cursor.Close(ctx)

	users := []User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, errs.Storage(err, "decode users")
	}
	return users, nil
}

func (r *UserRepositoryImpl) Count(ctx context.Context, filter bson.M) (int64, error) {
	n, err := r.Collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, errs.Storage(err, "count users")
	}
	return n, nil
}

func (r *UserRepositoryImpl) Update(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	res, err := r.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return errs.Storage(err, "update user")
	}
	if res.MatchedCount == 0 {
		return errs.NotFound("user %s not found", id.Hex())
	}
	return nil
}

func (r *UserRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errs.Storage(err, "delete user")
	}
	if res.DeletedCount == 0 {
		return errs.NotFound("user %s not found", id.Hex())
	}
	return nil
}

func (r *UserRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "givenName", Value: "text"},
				{Key: "familyName", Value: "text"},
				{Key: "email", Value: "text"},
			},
		},
	})
	return err
}
