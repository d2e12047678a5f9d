package model

import "time"

// MarkPresent is the only status an attendee mark is ever written with.
const MarkPresent = "present"

// AttendeeMark records one student's admission to one session. The _id is
// sessionID + "_" + studentID, which is what makes the mark unique per
// (session, student) pair at the store level.
type AttendeeMark struct {
	ID        string    `json:"-" bson:"_id"`
	SessionID string    `json:"sessionId" bson:"sessionId"`
	StudentID string    `json:"studentId" bson:"studentId"`
	Status    string    `json:"status" bson:"status"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// CourseSectionStats keeps running counters for a (course, section) pair.
// TotalSessions goes up by 1 per created session and is never decremented.
type CourseSectionStats struct {
	ID            string `json:"id" bson:"_id"`
	CourseID      string `json:"courseId" bson:"courseId"`
	SectionID     string `json:"sectionId" bson:"sectionId"`
	TeacherID     string `json:"teacherId" bson:"teacherId"`
	LastClass     string `json:"lastClass" bson:"lastClass"`
	TotalSessions int    `json:"totalSessions" bson:"totalSessions"`
}

// StudentCourseStats counts sessions attended by one student in one course,
// keyed studentID + "_" + courseID.
type StudentCourseStats struct {
	ID               string `json:"id" bson:"_id"`
	StudentID        string `json:"studentId" bson:"studentId"`
	CourseID         string `json:"courseId" bson:"courseId"`
	SessionsAttended int    `json:"sessionsAttended" bson:"sessionsAttended"`
}

// AttendanceSummary is the per-student summary document, merged on every
// successful check-in.
type AttendanceSummary struct {
	StudentID string `json:"studentId" bson:"_id"`
	SectionID string `json:"sectionId" bson:"sectionId"`
}

// AttendanceStatus is the derived view the assistant answers attendance
// questions from. Status is "Good" at or above 75 percent.
type AttendanceStatus struct {
	Attendance      int    `json:"attendance"`
	TotalClasses    int    `json:"totalClasses"`
	AttendedClasses int    `json:"attendedClasses"`
	Status          string `json:"status"`
}
