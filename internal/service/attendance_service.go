package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"smabackend/internal/model"
	"smabackend/internal/repository"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidQRToken  = errors.New("invalid QR code")
	ErrSessionExpired  = errors.New("QR code expired")
	ErrSessionEnded    = errors.New("session ended")
	ErrAlreadyMarked   = errors.New("already marked present")
	ErrNotSessionOwner = errors.New("unauthorized to close this session")
	ErrAlreadyClosed   = errors.New("session is already closed")
)

// DefaultSessionDuration is applied when a create request leaves the
// duration unset.
const DefaultSessionDuration = 30

const closedByTeacher = "teacher"

// AttendanceService owns the session lifecycle and the exactly-once check-in
// protocol. All mutation goes through store transactions; there is no
// in-process locking.
type AttendanceService struct {
	sessions repository.SessionRepo
	marks    repository.MarkRepo
	stats    repository.StatsRepo
	txn      repository.TxnRunner
	loc      *time.Location
	now      func() time.Time
}

// NewAttendanceService creates a new attendance service. loc is the
// deployment timezone used for calendar-day session ids.
func NewAttendanceService(
	sessions repository.SessionRepo,
	marks repository.MarkRepo,
	stats repository.StatsRepo,
	txn repository.TxnRunner,
	loc *time.Location,
) *AttendanceService {
	return &AttendanceService{
		sessions: sessions,
		marks:    marks,
		stats:    stats,
		txn:      txn,
		loc:      loc,
		now:      time.Now,
	}
}

// sessionDate renders today's calendar day in the deployment timezone,
// day-month-year without zero padding.
func (s *AttendanceService) sessionDate() string {
	return s.now().In(s.loc).Format("2-1-2006")
}

// NewSessionID derives the deterministic session id for a course section on
// the current calendar day. Two calls on the same day yield the same id, so
// re-creating a session re-issues the window instead of duplicating it.
func (s *AttendanceService) NewSessionID(courseID, sectionID string) string {
	return s.sessionDate() + "_" + courseID + "_" + sectionID
}

// NewQRToken returns a 32-char hex admission token (128 bits of entropy).
// Uniqueness across sessions is not needed, only unguessability within one
// session's lifetime.
func NewQRToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// CreateSessionResult carries the id and token handed back for QR rendering.
type CreateSessionResult struct {
	SessionID string `json:"sessionId"`
	QRToken   string `json:"qrToken"`
}

// CreateSession opens an attendance window and bumps the course section's
// session counter in the same transaction. A second call for the same
// course/section/day overwrites the previous token and expiry while still
// incrementing the counter.
func (s *AttendanceService) CreateSession(ctx context.Context, courseID, sectionID, teacherID string, durationMinutes int) (*CreateSessionResult, error) {
	if courseID == "" || sectionID == "" || teacherID == "" {
		return nil, fmt.Errorf("%w: courseId, sectionId and teacherId are required", ErrInvalidInput)
	}
	if durationMinutes == 0 {
		durationMinutes = DefaultSessionDuration
	}
	if durationMinutes < 0 {
		return nil, fmt.Errorf("%w: durationMinutes must be positive", ErrInvalidInput)
	}

	token, err := NewQRToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR token: %w", err)
	}

	session := &model.AttendanceSession{
		ID:              s.NewSessionID(courseID, sectionID),
		CourseID:        courseID,
		SectionID:       sectionID,
		TeacherID:       teacherID,
		SessionDate:     s.sessionDate(),
		ExpiresAt:       s.now().Add(time.Duration(durationMinutes) * time.Minute),
		QRToken:         token,
		DurationMinutes: durationMinutes,
		Status:          model.SessionActive,
	}

	err = s.txn.Run(ctx, func(ctx context.Context) error {
		if err := s.sessions.Upsert(ctx, session); err != nil {
			return err
		}
		return s.stats.BumpCourseSection(ctx, courseID, sectionID, teacherID, session.SessionDate)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create attendance session: %w", err)
	}

	return &CreateSessionResult{SessionID: session.ID, QRToken: token}, nil
}

// validate re-reads the session on the transaction ctx and checks token,
// expiry and status, in that order. Expiry is logical: an expired session
// keeps status=active but fails every validation from then on.
func (s *AttendanceService) validate(ctx context.Context, sessionID, qrToken string) (*model.AttendanceSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.QRToken != qrToken {
		return nil, ErrInvalidQRToken
	}
	if !s.now().Before(session.ExpiresAt) {
		return nil, ErrSessionExpired
	}
	if session.Status != model.SessionActive {
		return nil, ErrSessionEnded
	}
	return session, nil
}

// CheckIn records a student present exactly once. Validation, the duplicate
// check, the mark write and both counter updates run in one transaction, so
// two simultaneous scans for the same student commit exactly one mark and
// one increment. Conflicting commits are retried by the store client; the
// retry re-reads the mark and comes back as ErrAlreadyMarked.
func (s *AttendanceService) CheckIn(ctx context.Context, sessionID, studentID, qrToken string) error {
	if sessionID == "" || studentID == "" || qrToken == "" {
		return fmt.Errorf("%w: sessionId, studentId and qrToken are required", ErrInvalidInput)
	}

	return s.txn.Run(ctx, func(ctx context.Context) error {
		session, err := s.validate(ctx, sessionID, qrToken)
		if err != nil {
			return err
		}

		exists, err := s.marks.Exists(ctx, sessionID, studentID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyMarked
		}

		if err := s.marks.Create(ctx, sessionID, studentID); err != nil {
			if errors.Is(err, repository.ErrMarkExists) {
				return ErrAlreadyMarked
			}
			return err
		}

		if err := s.stats.MergeSummary(ctx, studentID, session.SectionID); err != nil {
			return err
		}
		return s.stats.BumpStudentCourse(ctx, studentID, session.CourseID)
	})
}

// Close ends a session. Only the owning teacher may close, only while the
// session is still active, and the session is re-read inside the transaction
// so the loser of a concurrent close observes ErrAlreadyClosed.
func (s *AttendanceService) Close(ctx context.Context, sessionID, teacherID string) error {
	if sessionID == "" || teacherID == "" {
		return fmt.Errorf("%w: sessionId and teacherId are required", ErrInvalidInput)
	}

	return s.txn.Run(ctx, func(ctx context.Context) error {
		session, err := s.sessions.GetByID(ctx, sessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return ErrSessionNotFound
		}
		if session.TeacherID != teacherID {
			return ErrNotSessionOwner
		}
		if session.Status != model.SessionActive {
			return ErrAlreadyClosed
		}
		return s.sessions.Close(ctx, sessionID, closedByTeacher)
	})
}
