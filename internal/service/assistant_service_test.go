package service

import (
	"context"
	"strings"
	"testing"

	"smabackend/internal/model"
)

type fakeFeesRepo struct {
	records map[string]*model.FeeRecord
}

func newFakeFeesRepo() *fakeFeesRepo {
	return &fakeFeesRepo{records: make(map[string]*model.FeeRecord)}
}

func (f *fakeFeesRepo) GetByStudent(ctx context.Context, studentID string) (*model.FeeRecord, error) {
	record, ok := f.records[studentID]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (f *fakeFeesRepo) Upsert(ctx context.Context, record *model.FeeRecord) error {
	copied := *record
	f.records[record.StudentID] = &copied
	return nil
}

// newOfflineAssistant builds an assistant with no API key so Ask always takes
// the data-summary path.
func newOfflineAssistant(store *fakeStore, fees *fakeFeesRepo) *AssistantService {
	svc := NewAssistantService(store, fees)
	svc.config.APIKey = ""
	return svc
}

func TestAssistantAttendanceAnswer(t *testing.T) {
	store := newFakeStore()
	fees := newFakeFeesRepo()
	svc := newOfflineAssistant(store, fees)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := store.BumpCourseSection(ctx, "C1", "S1", "T1", "5-3-2026"); err != nil {
			t.Fatalf("bump section: %v", err)
		}
	}
	for i := 0; i < 8; i++ {
		if err := store.BumpStudentCourse(ctx, "StudentA", "C1"); err != nil {
			t.Fatalf("bump student: %v", err)
		}
	}

	answer, err := svc.Ask(ctx, "StudentA", AssistantQuery{
		Message:   "what is my attendance percentage?",
		CourseID:  "C1",
		SectionID: "S1",
	})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !strings.Contains(answer, "8 of 10") || !strings.Contains(answer, "80%") || !strings.Contains(answer, "Good") {
		t.Fatalf("unexpected answer: %q", answer)
	}
}

func TestAssistantBelowRequired(t *testing.T) {
	store := newFakeStore()
	svc := newOfflineAssistant(store, newFakeFeesRepo())
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if err := store.BumpCourseSection(ctx, "C1", "S1", "T1", "5-3-2026"); err != nil {
			t.Fatalf("bump section: %v", err)
		}
	}
	if err := store.BumpStudentCourse(ctx, "StudentA", "C1"); err != nil {
		t.Fatalf("bump student: %v", err)
	}

	answer, err := svc.Ask(ctx, "StudentA", AssistantQuery{
		Message:   "am I short on attendance?",
		CourseID:  "C1",
		SectionID: "S1",
	})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !strings.Contains(answer, "1 of 4") || !strings.Contains(answer, "Below Required") {
		t.Fatalf("unexpected answer: %q", answer)
	}
}

func TestAssistantFeesAnswer(t *testing.T) {
	fees := newFakeFeesRepo()
	fees.records["StudentA"] = &model.FeeRecord{
		StudentID:        "StudentA",
		OverallDueAmount: 40000,
		Semesters: []model.FeeSemester{
			{Semester: 1, TotalAmount: 40000, AmountPaid: 40000, DueAmount: 0},
			{Semester: 2, TotalAmount: 40000, AmountPaid: 0, DueAmount: 40000},
		},
	}
	svc := newOfflineAssistant(newFakeStore(), fees)

	answer, err := svc.Ask(context.Background(), "StudentA", AssistantQuery{Message: "how much fees do I still owe?"})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !strings.Contains(answer, "total 80000") || !strings.Contains(answer, "paid 40000") || !strings.Contains(answer, "outstanding 40000") {
		t.Fatalf("unexpected answer: %q", answer)
	}
}

func TestAssistantNoContext(t *testing.T) {
	svc := newOfflineAssistant(newFakeStore(), newFakeFeesRepo())

	answer, err := svc.Ask(context.Background(), "StudentA", AssistantQuery{Message: "hello"})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !strings.Contains(answer, "attendance and fees") {
		t.Fatalf("expected the generic fallback, got %q", answer)
	}

	if _, err := svc.Ask(context.Background(), "StudentA", AssistantQuery{Message: "   "}); err == nil {
		t.Fatal("expected validation error for empty message")
	}
}

func TestContainsKeyword(t *testing.T) {
	if !containsKeyword("What is my Attendance like?", attendanceKeywords) {
		t.Fatal("expected case-insensitive keyword match")
	}
	if containsKeyword("when is the next class", feesKeywords) {
		t.Fatal("did not expect a fees match")
	}
}
