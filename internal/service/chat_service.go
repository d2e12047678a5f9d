package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"smabackend/internal/cache"
	"smabackend/internal/model"
	"smabackend/internal/repository"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrRoomNotFound    = errors.New("chat room not found")
	ErrRoomAccess      = errors.New("access denied to this chat room")
	ErrSameRole        = errors.New("cannot create chat between users of same role")
	ErrNotInSection    = errors.New("users not in the specified section")
	ErrEmptyMessage    = errors.New("message text is required")
	ErrUserExists      = errors.New("user already exists")
	ErrInvalidUserRole = errors.New("invalid user role")
)

// ChatService is CRUD glue over the document store: users, rooms, messages.
// Real-time fan-out lives in the ws hub; presence lives in Redis.
type ChatService struct {
	users    repository.UserRepo
	rooms    repository.ChatRoomRepo
	messages repository.MessageRepo
	presence cache.PresenceCache
}

// NewChatService creates a new chat service
func NewChatService(
	users repository.UserRepo,
	rooms repository.ChatRoomRepo,
	messages repository.MessageRepo,
	presence cache.PresenceCache,
) *ChatService {
	return &ChatService{
		users:    users,
		rooms:    rooms,
		messages: messages,
		presence: presence,
	}
}

// CreateUser registers a user profile under its stable id.
func (s *ChatService) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID == "" || user.Name == "" || user.Email == "" {
		return fmt.Errorf("%w: id, name and email are required", ErrInvalidInput)
	}
	if user.Role != model.RoleTeacher && user.Role != model.RoleStudent {
		return ErrInvalidUserRole
	}

	existing, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrUserExists
	}
	return s.users.Create(ctx, user)
}

// GetUserChatRooms lists the caller's rooms with the counterpart's profile
// and live presence attached.
func (s *ChatService) GetUserChatRooms(ctx context.Context, userID string) ([]*model.ChatRoomView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	rooms, err := s.rooms.ListForUser(ctx, userID, user.Role)
	if err != nil {
		return nil, err
	}

	views := make([]*model.ChatRoomView, 0, len(rooms))
	for _, room := range rooms {
		otherID := room.TeacherID
		if user.Role == model.RoleTeacher {
			otherID = room.StudentID
		}

		view := &model.ChatRoomView{ChatRoom: *room}
		if other, err := s.users.GetByID(ctx, otherID); err == nil && other != nil {
			participant := &model.ChatParticipant{
				ID:   other.ID,
				Name: other.Name,
				Role: other.Role,
			}
			if p, err := s.presence.Get(ctx, other.ID); err == nil {
				participant.IsOnline = p.IsOnline
			}
			view.OtherUser = participant
		}
		views = append(views, view)
	}
	return views, nil
}

// CreateChatRoom opens (or returns the existing) teacher/student room for a
// section. Both users must hold different roles and share the section.
func (s *ChatService) CreateChatRoom(ctx context.Context, currentUserID, otherUserID, sectionID string) (string, error) {
	current, err := s.users.GetByID(ctx, currentUserID)
	if err != nil {
		return "", err
	}
	other, err := s.users.GetByID(ctx, otherUserID)
	if err != nil {
		return "", err
	}
	if current == nil || other == nil {
		return "", ErrUserNotFound
	}
	if current.Role == other.Role {
		return "", ErrSameRole
	}
	if !hasSection(current.Sections, sectionID) || !hasSection(other.Sections, sectionID) {
		return "", ErrNotInSection
	}

	teacherID, studentID := currentUserID, otherUserID
	if current.Role == model.RoleStudent {
		teacherID, studentID = otherUserID, currentUserID
	}

	existing, err := s.rooms.FindByParticipants(ctx, teacherID, studentID, sectionID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.ID, nil
	}

	room := &model.ChatRoom{
		ID:        uuid.New().String(),
		SectionID: sectionID,
		TeacherID: teacherID,
		StudentID: studentID,
		CreatedBy: currentUserID,
		IsActive:  true,
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		return "", err
	}
	return room.ID, nil
}

// GetRoomMessages pages through a room's history newest-first, after an
// access check against the room's two participants.
func (s *ChatService) GetRoomMessages(ctx context.Context, roomID, userID string, limit int64, beforeID string) ([]*model.ChatMessage, error) {
	if _, err := s.roomForUser(ctx, roomID, userID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 50
	}
	return s.messages.ListByRoom(ctx, roomID, limit, beforeID)
}

// SaveMessage persists one message after checking the sender belongs to the
// room. The ws hub broadcasts the returned message.
func (s *ChatService) SaveMessage(ctx context.Context, roomID, senderID, text string) (*model.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	if _, err := s.roomForUser(ctx, roomID, senderID); err != nil {
		return nil, err
	}

	msg := &model.ChatMessage{
		ID:        uuid.New().String(),
		RoomID:    roomID,
		SenderID:  senderID,
		Text:      text,
		Timestamp: time.Now(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// SetOnline and SetOffline mirror socket connect/disconnect into Redis.
func (s *ChatService) SetOnline(ctx context.Context, userID string) error {
	return s.presence.SetOnline(ctx, userID)
}

func (s *ChatService) SetOffline(ctx context.Context, userID string) error {
	return s.presence.SetOffline(ctx, userID)
}

func (s *ChatService) roomForUser(ctx context.Context, roomID, userID string) (*model.ChatRoom, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	if room.TeacherID != userID && room.StudentID != userID {
		return nil, ErrRoomAccess
	}
	return room, nil
}

func hasSection(sections []string, sectionID string) bool {
	for _, s := range sections {
		if s == sectionID {
			return true
		}
	}
	return false
}
