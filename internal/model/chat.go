package model

import "time"

// ChatRoom pairs one teacher with one student inside a section.
type ChatRoom struct {
	ID        string    `json:"id" bson:"_id"`
	SectionID string    `json:"sectionId" bson:"sectionId"`
	TeacherID string    `json:"teacherId" bson:"teacherId"`
	StudentID string    `json:"studentId" bson:"studentId"`
	CreatedBy string    `json:"createdBy" bson:"createdBy"`
	IsActive  bool      `json:"isActive" bson:"isActive"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// ChatParticipant is the counterpart info attached to a room listing.
type ChatParticipant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	IsOnline bool   `json:"isOnline"`
}

// ChatRoomView is a room plus the other participant, as returned to clients.
type ChatRoomView struct {
	ChatRoom  `bson:",inline"`
	OtherUser *ChatParticipant `json:"otherUser"`
}

type ChatMessage struct {
	ID        string    `json:"id" bson:"_id"`
	RoomID    string    `json:"roomId" bson:"roomId"`
	SenderID  string    `json:"senderId" bson:"senderId"`
	Text      string    `json:"text" bson:"text"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}
