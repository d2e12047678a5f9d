package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"smabackend/internal/model"
)

type FeesRepo interface {
	GetByStudent(ctx context.Context, studentID string) (*model.FeeRecord, error)
	Upsert(ctx context.Context, record *model.FeeRecord) error
}

type feesRepo struct {
	collection *mongo.Collection
}

func NewFeesRepo(db *mongo.Database) FeesRepo {
	return &feesRepo{
		collection: db.Collection("fees"),
	}
}

func (r *feesRepo) GetByStudent(ctx context.Context, studentID string) (*model.FeeRecord, error) {
	var record model.FeeRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": studentID}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *feesRepo) Upsert(ctx context.Context, record *model.FeeRecord) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": record.StudentID},
		record, options.Replace().SetUpsert(true))
	return err
}
