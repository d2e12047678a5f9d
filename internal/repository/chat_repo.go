package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"smabackend/internal/model"
)

type ChatRoomRepo interface {
	Create(ctx context.Context, room *model.ChatRoom) error
	GetByID(ctx context.Context, id string) (*model.ChatRoom, error)
	FindByParticipants(ctx context.Context, teacherID, studentID, sectionID string) (*model.ChatRoom, error)
	ListForUser(ctx context.Context, userID string, role model.Role) ([]*model.ChatRoom, error)
}

type chatRoomRepo struct {
	collection *mongo.Collection
}

func NewChatRoomRepo(db *mongo.Database) ChatRoomRepo {
	return &chatRoomRepo{
		collection: db.Collection("chat_rooms"),
	}
}

func (r *chatRoomRepo) Create(ctx context.Context, room *model.ChatRoom) error {
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, room)
	return err
}

func (r *chatRoomRepo) GetByID(ctx context.Context, id string) (*model.ChatRoom, error) {
	var room model.ChatRoom
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&room)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *chatRoomRepo) FindByParticipants(ctx context.Context, teacherID, studentID, sectionID string) (*model.ChatRoom, error) {
	filter := bson.M{
		"teacherId": teacherID,
		"studentId": studentID,
		"sectionId": sectionID,
	}
	var room model.ChatRoom
	err := r.collection.FindOne(ctx, filter).Decode(&room)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *chatRoomRepo) ListForUser(ctx context.Context, userID string, role model.Role) ([]*model.ChatRoom, error) {
	field := "studentId"
	if role == model.RoleTeacher {
		field = "teacherId"
	}

	cursor, err := r.collection.Find(ctx, bson.M{field: userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rooms []*model.ChatRoom
	if err = cursor.All(ctx, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

type MessageRepo interface {
	Create(ctx context.Context, msg *model.ChatMessage) error
	ListByRoom(ctx context.Context, roomID string, limit int64, beforeID string) ([]*model.ChatMessage, error)
}

type messageRepo struct {
	collection *mongo.Collection
}

func NewMessageRepo(db *mongo.Database) MessageRepo {
	return &messageRepo{
		collection: db.Collection("chat_messages"),
	}
}

func (r *messageRepo) Create(ctx context.Context, msg *model.ChatMessage) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, msg)
	return err
}

// ListByRoom returns messages newest-first. beforeID is an optional cursor:
// only messages older than that message are returned.
func (r *messageRepo) ListByRoom(ctx context.Context, roomID string, limit int64, beforeID string) ([]*model.ChatMessage, error) {
	filter := bson.M{"roomId": roomID}

	if beforeID != "" {
		var anchor model.ChatMessage
		err := r.collection.FindOne(ctx, bson.M{"_id": beforeID}).Decode(&anchor)
		if err != nil && err != mongo.ErrNoDocuments {
			return nil, err
		}
		if err == nil {
			filter["timestamp"] = bson.M{"$lt": anchor.Timestamp}
		}
	}

	opts := options.Find().SetSort(bson.M{"timestamp": -1}).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var msgs []*model.ChatMessage
	if err = cursor.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
