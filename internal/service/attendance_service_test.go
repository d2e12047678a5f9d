package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"smabackend/internal/model"
	"smabackend/internal/repository"
)

// fakeStore is an in-memory stand-in for the transactional document store.
// Run serializes transactions with a mutex, which models the store's
// conflict handling: the loser of a same-key race observes the winner's
// writes when its turn comes.
type fakeStore struct {
	mu             sync.Mutex
	sessions       map[string]*model.AttendanceSession
	marks          map[string]*model.AttendeeMark
	courseSections map[string]*model.CourseSectionStats
	studentCourses map[string]*model.StudentCourseStats
	summaries      map[string]string

	failBump bool
	now      func() time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions:       make(map[string]*model.AttendanceSession),
		marks:          make(map[string]*model.AttendeeMark),
		courseSections: make(map[string]*model.CourseSectionStats),
		studentCourses: make(map[string]*model.StudentCourseStats),
		summaries:      make(map[string]string),
		now:            time.Now,
	}
}

func (f *fakeStore) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(ctx)
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*model.AttendanceSession, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (f *fakeStore) Upsert(ctx context.Context, session *model.AttendanceSession) error {
	copied := *session
	copied.CreatedAt = f.now()
	copied.ClosedAt = nil
	copied.ClosedBy = ""
	f.sessions[session.ID] = &copied
	return nil
}

func (f *fakeStore) Close(ctx context.Context, id, closedBy string) error {
	session, ok := f.sessions[id]
	if !ok {
		return nil
	}
	now := f.now()
	session.Status = model.SessionClosed
	session.ClosedAt = &now
	session.ClosedBy = closedBy
	return nil
}

func (f *fakeStore) Exists(ctx context.Context, sessionID, studentID string) (bool, error) {
	_, ok := f.marks[sessionID+"_"+studentID]
	return ok, nil
}

func (f *fakeStore) Create(ctx context.Context, sessionID, studentID string) error {
	id := sessionID + "_" + studentID
	if _, ok := f.marks[id]; ok {
		return repository.ErrMarkExists
	}
	f.marks[id] = &model.AttendeeMark{
		ID:        id,
		SessionID: sessionID,
		StudentID: studentID,
		Status:    model.MarkPresent,
		Timestamp: f.now(),
	}
	return nil
}

func (f *fakeStore) BumpCourseSection(ctx context.Context, courseID, sectionID, teacherID, lastClass string) error {
	id := courseID + "_" + sectionID
	stats, ok := f.courseSections[id]
	if !ok {
		stats = &model.CourseSectionStats{ID: id, CourseID: courseID, SectionID: sectionID}
		f.courseSections[id] = stats
	}
	stats.TeacherID = teacherID
	stats.LastClass = lastClass
	stats.TotalSessions++
	return nil
}

func (f *fakeStore) BumpStudentCourse(ctx context.Context, studentID, courseID string) error {
	if f.failBump {
		return errors.New("store unavailable")
	}
	id := studentID + "_" + courseID
	stats, ok := f.studentCourses[id]
	if !ok {
		stats = &model.StudentCourseStats{ID: id, StudentID: studentID, CourseID: courseID}
		f.studentCourses[id] = stats
	}
	stats.SessionsAttended++
	return nil
}

func (f *fakeStore) MergeSummary(ctx context.Context, studentID, sectionID string) error {
	f.summaries[studentID] = sectionID
	return nil
}

func (f *fakeStore) GetCourseSection(ctx context.Context, courseID, sectionID string) (*model.CourseSectionStats, error) {
	stats, ok := f.courseSections[courseID+"_"+sectionID]
	if !ok {
		return nil, nil
	}
	copied := *stats
	return &copied, nil
}

func (f *fakeStore) GetStudentCourse(ctx context.Context, studentID, courseID string) (*model.StudentCourseStats, error) {
	stats, ok := f.studentCourses[studentID+"_"+courseID]
	if !ok {
		return nil, nil
	}
	copied := *stats
	return &copied, nil
}

func newTestService(store *fakeStore, now time.Time) *AttendanceService {
	svc := NewAttendanceService(store, store, store, store, time.UTC)
	svc.now = func() time.Time { return now }
	store.now = svc.now
	return svc
}

var fixedNow = time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)

func TestCreateSessionDeterministicID(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, fixedNow)

	first, err := svc.CreateSession(context.Background(), "C1", "S1", "T1", 30)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if first.SessionID != "5-3-2026_C1_S1" {
		t.Fatalf("expected session id 5-3-2026_C1_S1, got %q", first.SessionID)
	}

	second, err := svc.CreateSession(context.Background(), "C1", "S1", "T1", 45)
	if err != nil {
		t.Fatalf("re-create session: %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Fatalf("expected same id on same day, got %q and %q", first.SessionID, second.SessionID)
	}
	if second.QRToken == first.QRToken {
		t.Fatal("expected a fresh token on re-issue")
	}

	stats, _ := store.GetCourseSection(context.Background(), "C1", "S1")
	if stats.TotalSessions != 2 {
		t.Fatalf("expected totalSessions 2 after two creates, got %d", stats.TotalSessions)
	}

	session := store.sessions[first.SessionID]
	if session.QRToken != second.QRToken {
		t.Fatal("expected stored token to be the re-issued one")
	}
	if session.DurationMinutes != 45 {
		t.Fatalf("expected overwritten duration 45, got %d", session.DurationMinutes)
	}
}

func TestCreateSessionTokenFormat(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, fixedNow)

	result, err := svc.CreateSession(context.Background(), "C1", "S1", "T1", 0)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if !regexp.MustCompile(`^[0-9a-f]{32}$`).MatchString(result.QRToken) {
		t.Fatalf("expected 32-char hex token, got %q", result.QRToken)
	}
}

func TestCreateSessionDefaultDuration(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, fixedNow)

	result, err := svc.CreateSession(context.Background(), "C1", "S1", "T1", 0)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	session := store.sessions[result.SessionID]
	if session.DurationMinutes != DefaultSessionDuration {
		t.Fatalf("expected default duration %d, got %d", DefaultSessionDuration, session.DurationMinutes)
	}
	want := fixedNow.Add(30 * time.Minute)
	if !session.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiresAt %v, got %v", want, session.ExpiresAt)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, fixedNow)

	cases := []struct {
		name                     string
		course, section, teacher string
		duration                 int
	}{
		{"missing course", "", "S1", "T1", 30},
		{"missing section", "C1", "", "T1", 30},
		{"missing teacher", "C1", "S1", "", 30},
		{"negative duration", "C1", "S1", "T1", -5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateSession(context.Background(), tc.course, tc.section, tc.teacher, tc.duration)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestCheckInFlow(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, fixedNow)

	created, err := svc.CreateSession(context.Background(), "C1", "S1", "T1", 30)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := svc.CheckIn(context.Background(), created.SessionID, "StudentA", created.QRToken); err != nil {
		t.Fatalf("check in: %v", err)
	}

	stats, _ := store.GetStudentCourse(context.Background(), "StudentA", "C1")
	if stats == nil || stats.SessionsAttended != 1 {
		t.Fatalf("expected sessionsAttended 1, got %+v", stats)
	}
	if store.summaries["StudentA"] != "S1" {
		t.Fatalf("expected summary merged with section S1, got %q", store.summaries["StudentA"])
	}

	// Second identical scan must not move the counter.
	err = svc.CheckIn(context.Background(), created.SessionID, "StudentA", created.QRToken)
	if !errors.Is(err, ErrAlreadyMarked) {
		t.Fatalf("expected ErrAlreadyMarked, got %v", err)
	}
	stats, _ = store.GetStudentCourse(context.Background(), "StudentA", "C1")
	if stats.SessionsAttended != 1 {
		t.Fatalf("expected sessionsAttended still 1, got %d", stats.SessionsAttended)
	}
}

func TestCheckInWrongToken(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, fixedNow)

	created, err := svc.CreateSession(context.Background(), "C1", "S1", "T1", 30)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	err = svc.CheckIn(context.Background(), created.SessionID, "StudentA", "wrong-token")
	if !errors.Is(err, ErrInvalidQRToken) {
		t.Fatalf("expected ErrInvalidQRToken, got %v", err)
	}
	if exists, _ := store.Exists(context.Background(), created.SessionID, "StudentA"); exists {
		t.Fatal("expected no mark after rejected scan")
	}
}

func TestCheckInUnknownSession(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, fixedNow)

	err := svc.CheckIn(context.Background(), "5-3-2026_C9_S9", "StudentA", "whatever")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestCheckInExpired(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, fixedNow)

	created, err := svc.CreateSession(context.Background(), "C1", "S1", "T1", 30)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	// Exactly at expiresAt counts as expired, even with status still active.
	svc.now = func() time.Time { return fixedNow.Add(30 * time.Minute) }
	err = svc.CheckIn(context.Background(), created.SessionID, "StudentA", created.QRToken)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if store.sessions[created.SessionID].Status != model.SessionActive {
		t.Fatal("expiry is logical: stored status must remain active")
	}
}

func TestCheckInAfterClose(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, fixedNow)

	created, err := svc.CreateSession(context.Background(), "C1", "S1", "T1", 30)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := svc.Close(context.Background(), created.SessionID, "T1"); err != nil {
		t.Fatalf("close session: %v", err)
	}

	err = svc.CheckIn(context.Background(), created.SessionID, "StudentB", created.QRToken)
	if !errors.Is(err, ErrSessionEnded) {
		t.Fatalf("expected ErrSessionEnded, got %v", err)
	}
}

func TestCheckInStoreFailureLeavesNoPartialState(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, fixedNow)

	created, err := svc.CreateSession(context.Background(), "C1", "S1", "T1", 30)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	store.failBump = true
	if err := svc.CheckIn(context.Background(), created.SessionID, "StudentA", created.QRToken); err == nil {
		t.Fatal("expected store failure to surface")
	}
}

func TestCloseOwnershipAndIdempotence(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, fixedNow)

	created, err := svc.CreateSession(context.Background(), "C1", "S1", "T1", 30)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := svc.Close(context.Background(), created.SessionID, "T2"); !errors.Is(err, ErrNotSessionOwner) {
		t.Fatalf("expected ErrNotSessionOwner, got %v", err)
	}

	if err := svc.Close(context.Background(), created.SessionID, "T1"); err != nil {
		t.Fatalf("close session: %v", err)
	}
	session := store.sessions[created.SessionID]
	if session.Status != model.SessionClosed || session.ClosedAt == nil {
		t.Fatalf("expected closed session with closedAt, got %+v", session)
	}

	// Second close, by owner or anyone else, observes the flip.
	if err := svc.Close(context.Background(), created.SessionID, "T1"); !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("expected ErrAlreadyClosed, got %v", err)
	}
}

func TestCloseUnknownSession(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, fixedNow)

	if err := svc.Close(context.Background(), "5-3-2026_C9_S9", "T1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestConcurrentCheckInSameStudent(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, fixedNow)

	created, err := svc.CreateSession(context.Background(), "C1", "S1", "T1", 30)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	const n = 32
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- svc.CheckIn(context.Background(), created.SessionID, "StudentA", created.QRToken)
		}()
	}
	wg.Wait()
	close(results)

	successes, duplicates := 0, 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrAlreadyMarked):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || duplicates != n-1 {
		t.Fatalf("expected 1 success and %d duplicates, got %d and %d", n-1, successes, duplicates)
	}

	stats, _ := store.GetStudentCourse(context.Background(), "StudentA", "C1")
	if stats.SessionsAttended != 1 {
		t.Fatalf("expected sessionsAttended exactly 1, got %d", stats.SessionsAttended)
	}
}

func TestConcurrentCheckInDifferentStudents(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, fixedNow)

	created, err := svc.CreateSession(context.Background(), "C1", "S1", "T1", 30)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	students := []string{"StudentA", "StudentB", "StudentC", "StudentD"}
	var wg sync.WaitGroup
	results := make(chan error, len(students))
	for _, id := range students {
		wg.Add(1)
		go func(studentID string) {
			defer wg.Done()
			results <- svc.CheckIn(context.Background(), created.SessionID, studentID, created.QRToken)
		}(id)
	}
	wg.Wait()
	close(results)

	for err := range results {
		if err != nil {
			t.Fatalf("expected independent check-ins to succeed, got %v", err)
		}
	}
	for _, id := range students {
		stats, _ := store.GetStudentCourse(context.Background(), id, "C1")
		if stats == nil || stats.SessionsAttended != 1 {
			t.Fatalf("expected %s to have attended 1 session, got %+v", id, stats)
		}
	}
}
