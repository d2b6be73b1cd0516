package role

import (
	"context"
	"errors"
	"strings"
	"time"

	"issue-tracker/internal/common/errs"
	"issue-tracker/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type RoleRepository interface {
	FindByName(ctx context.Context, name string) (*Role, error)
	FindByNames(ctx context.Context, names []string) ([]Role, error)
	List(ctx context.Context) ([]Role, error)
	Upsert(ctx context.Context, role *Role) (created bool, err error)
	EnsureIndexes(ctx context.Context) error
}

type RoleRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewRoleRepository(mongodb *database.MongodbDB) RoleRepository {
	return &RoleRepositoryImpl{
		Collection: mongodb.DB.Collection(Collection),
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (r *RoleRepositoryImpl) FindByName(ctx context.Context, name string) (*Role, error) {
	var role Role
	err := r.Collection.FindOne(ctx, bson.M{"name": normalizeName(name)}).Decode(&role)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.NotFound("role %q not found", name)
	}
	if err != nil {
		return nil, errs.Storage(err, "find role")
	}
	return &role, nil
}

// FindByNames returns the roles that exist among names. Unknown names are
// skipped rather than reported.
func (r *RoleRepositoryImpl) FindByNames(ctx context.Context, names []string) ([]Role, error) {
	if len(names) == 0 {
		return []Role{}, nil
	}
	normalized := make([]string, 0, len(names))
	for _, n := range names {
		normalized = append(normalized, normalizeName(n))
	}

	cursor, err := r.Collection.Find(ctx, bson.M{"name": bson.M{"$in": normalized}})
	if err != nil {
		return nil, errs.Storage(err, "find roles")
	}
	defer cursor.Close(ctx)

	roles := []Role{}
	if err := cursor.All(ctx, &roles); err != nil {
		return nil, errs.Storage(err, "decode roles")
	}
	return roles, nil
}

func (r *RoleRepositoryImpl) List(ctx context.Context) ([]Role, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, errs.Storage(err, "list roles")
	}
	defer cursor.Close(ctx)

	roles := []Role{}
	if err := cursor.All(ctx, &roles); err != nil {
		return nil, errs.Storage(err, "decode roles")
	}
	return roles, nil
}

// Upsert replaces the permission map of the role with the same name,
// creating it when absent.
func (r *RoleRepositoryImpl) Upsert(ctx context.Context, role *Role) (bool, error) {
	role.Name = normalizeName(role.Name)
	role.UpdatedOn = time.Now().UTC()

	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"name": role.Name},
		bson.M{"$set": bson.M{"permissions": role.Permissions, "updatedOn": role.UpdatedOn}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, errs.Storage(err, "upsert role")
	}
	return res.UpsertedCount > 0, nil
}

func (r *RoleRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
