package model

import "time"

type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionClosed SessionStatus = "closed"
)

// AttendanceSession is one time-bounded attendance window for a course
// section. Its _id is deterministic (date_course_section), so re-creating a
// session on the same day overwrites the previous window.
type AttendanceSession struct {
	ID              string        `json:"sessionId" bson:"_id"`
	CourseID        string        `json:"courseId" bson:"courseId"`
	SectionID       string        `json:"sectionId" bson:"sectionId"`
	TeacherID       string        `json:"teacherId" bson:"teacherId"`
	SessionDate     string        `json:"sessionDate" bson:"sessionDate"`
	CreatedAt       time.Time     `json:"createdAt" bson:"createdAt"`
	ExpiresAt       time.Time     `json:"expiresAt" bson:"expiresAt"`
	QRToken         string        `json:"qrToken" bson:"qrToken"`
	DurationMinutes int           `json:"durationMinutes" bson:"durationMinutes"`
	Status          SessionStatus `json:"status" bson:"status"`
	ClosedAt        *time.Time    `json:"closedAt,omitempty" bson:"closedAt,omitempty"`
	ClosedBy        string        `json:"closedBy,omitempty" bson:"closedBy,omitempty"`
}
