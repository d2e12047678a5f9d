package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"smabackend/internal/model"
)

type SessionRepo interface {
	GetByID(ctx context.Context, id string) (*model.AttendanceSession, error)
	Upsert(ctx context.Context, session *model.AttendanceSession) error
	Close(ctx context.Context, id, closedBy string) error
}

type sessionRepo struct {
	collection *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepo {
	return &sessionRepo{
		collection: db.Collection("attendance_sessions"),
	}
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.AttendanceSession, error) {
	var session model.AttendanceSession
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil // session not found
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Upsert writes the session with overwrite-on-recreate semantics: a second
// create for the same deterministic id replaces the token/expiry and clears
// any closure fields. createdAt is assigned by the store.
func (r *sessionRepo) Upsert(ctx context.Context, session *model.AttendanceSession) error {
	update := bson.M{
		"$set": bson.M{
			"courseId":        session.CourseID,
			"sectionId":       session.SectionID,
			"teacherId":       session.TeacherID,
			"sessionDate":     session.SessionDate,
			"expiresAt":       session.ExpiresAt,
			"qrToken":         session.QRToken,
			"durationMinutes": session.DurationMinutes,
			"status":          session.Status,
		},
		"$unset":       bson.M{"closedAt": "", "closedBy": ""},
		"$currentDate": bson.M{"createdAt": true},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": session.ID}, update, options.Update().SetUpsert(true))
	return err
}

// Close flips the session to closed. The caller re-reads the session in the
// same transaction first, so a concurrent closer observes the flip.
func (r *sessionRepo) Close(ctx context.Context, id, closedBy string) error {
	update := bson.M{
		"$set": bson.M{
			"status":   model.SessionClosed,
			"closedBy": closedBy,
		},
		"$currentDate": bson.M{"closedAt": true},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}
