package audit

import (
	"context"

	"issue-tracker/internal/database"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const Collection = "Edits"

type AuditRepository interface {
	Insert(ctx context.Context, edit *Edit) error
}

type AuditRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewAuditRepository(mongodb *database.MongodbDB) AuditRepository {
	return &AuditRepositoryImpl{
		Collection: mongodb.DB.Collection(Collection),
	}
}

func (r *AuditRepositoryImpl) Insert(ctx context.Context, edit *Edit) error {
	if edit.ID.IsZero() {
		edit.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, edit)
	return err
}
