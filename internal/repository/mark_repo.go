package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"smabackend/internal/model"
)

// ErrMarkExists is returned by Create when a mark for the same
// (session, student) pair is already present.
var ErrMarkExists = errors.New("attendee mark already exists")

type MarkRepo interface {
	Exists(ctx context.Context, sessionID, studentID string) (bool, error)
	Create(ctx context.Context, sessionID, studentID string) error
}

type markRepo struct {
	collection *mongo.Collection
}

func NewMarkRepo(db *mongo.Database) MarkRepo {
	return &markRepo{
		collection: db.Collection("attendance_marks"),
	}
}

func markID(sessionID, studentID string) string {
	return sessionID + "_" + studentID
}

func (r *markRepo) Exists(ctx context.Context, sessionID, studentID string) (bool, error) {
	err := r.collection.FindOne(ctx, bson.M{"_id": markID(sessionID, studentID)},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create inserts the mark with a store-assigned timestamp. Callers check
// Exists first inside the same transaction; if a racing writer slipped in
// anyway the matched document is reported as ErrMarkExists and the enclosing
// transaction rolls back.
func (r *markRepo) Create(ctx context.Context, sessionID, studentID string) error {
	update := bson.M{
		"$setOnInsert": bson.M{
			"sessionId": sessionID,
			"studentId": studentID,
			"status":    model.MarkPresent,
		},
		"$currentDate": bson.M{"timestamp": true},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": markID(sessionID, studentID)},
		update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return ErrMarkExists
	}
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return ErrMarkExists
	}
	return nil
}
