package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"smabackend/internal/config"
	"smabackend/internal/model"
	"smabackend/internal/repository"
)

var attendanceKeywords = []string{
	"attendance",
	"present",
	"absent",
	"classes attended",
	"attendance percentage",
	"missed classes",
}

var feesKeywords = []string{
	"fee",
	"fees",
	"due",
	"payment",
	"paid",
	"outstanding",
	"semester",
}

// AssistantQuery is one question to the account assistant. CourseID and
// SectionID scope attendance questions to a class.
type AssistantQuery struct {
	Message   string `json:"message" validate:"required"`
	CourseID  string `json:"courseId,omitempty"`
	SectionID string `json:"sectionId,omitempty"`
}

// AssistantService answers account-status questions (attendance standing,
// fee dues) via the Gemini API, grounded on data read from the store. It is
// glue: no state machine, no writes.
type AssistantService struct {
	config *config.AIConfig
	client *http.Client
	stats  repository.StatsRepo
	fees   repository.FeesRepo
}

// NewAssistantService creates a new assistant service
func NewAssistantService(stats repository.StatsRepo, fees repository.FeesRepo) *AssistantService {
	cfg := config.DefaultAIConfig()
	return &AssistantService{
		config: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
		stats: stats,
		fees:  fees,
	}
}

// Ask gathers whatever account context the question needs and asks the
// model. Without an API key it falls back to a plain data summary.
func (s *AssistantService) Ask(ctx context.Context, userID string, query AssistantQuery) (string, error) {
	if strings.TrimSpace(query.Message) == "" {
		return "", fmt.Errorf("%w: message is required", ErrInvalidInput)
	}

	contextParts := map[string]interface{}{}

	if containsKeyword(query.Message, attendanceKeywords) && query.CourseID != "" && query.SectionID != "" {
		status, err := s.attendanceStatus(ctx, userID, query.CourseID, query.SectionID)
		if err != nil {
			return "", err
		}
		contextParts["attendance"] = status
	}

	if containsKeyword(query.Message, feesKeywords) {
		summary, err := s.feeSummary(ctx, userID)
		if err != nil {
			return "", err
		}
		if summary != nil {
			contextParts["fees"] = summary
		}
	}

	if !s.config.IsEnabled() {
		return s.mockAnswer(contextParts), nil
	}

	answer, err := s.callGemini(ctx, s.config.Models.Assistant, s.buildPrompt(query.Message, contextParts))
	if err != nil {
		// Fallback to the data summary on API failure
		return s.mockAnswer(contextParts), nil
	}
	return answer, nil
}

// attendanceStatus combines the per-student counter with the course
// section's session total into a percentage.
func (s *AssistantService) attendanceStatus(ctx context.Context, userID, courseID, sectionID string) (*model.AttendanceStatus, error) {
	section, err := s.stats.GetCourseSection(ctx, courseID, sectionID)
	if err != nil {
		return nil, err
	}
	student, err := s.stats.GetStudentCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	total, attended := 0, 0
	if section != nil {
		total = section.TotalSessions
	}
	if student != nil {
		attended = student.SessionsAttended
	}

	percentage := 0.0
	if total > 0 {
		percentage = float64(attended) / float64(total) * 100
	}

	status := "Below Required"
	if percentage >= 75 {
		status = "Good"
	}

	return &model.AttendanceStatus{
		Attendance:      int(percentage + 0.5),
		TotalClasses:    total,
		AttendedClasses: attended,
		Status:          status,
	}, nil
}

func (s *AssistantService) feeSummary(ctx context.Context, userID string) (*model.FeeSummary, error) {
	record, err := s.fees.GetByStudent(ctx, userID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	summary := &model.FeeSummary{}
	for _, sem := range record.Semesters {
		summary.TotalFees += sem.TotalAmount
		summary.PaidAmount += sem.AmountPaid
		summary.OutstandingFees += sem.DueAmount
		summary.PaymentHistory = append(summary.PaymentHistory, sem.PaymentHistory...)
	}
	if record.OverallDueAmount > 0 {
		summary.OutstandingFees = record.OverallDueAmount
	}
	return summary, nil
}

func (s *AssistantService) buildPrompt(message string, contextParts map[string]interface{}) string {
	contextJSON, _ := json.Marshal(contextParts)
	return fmt.Sprintf(`You are a student account assistant. Answer the question using only the account data below. Be concise and factual. If the data does not cover the question, say so.

Account data:
%s

Question: %s`, contextJSON, message)
}

// mockAnswer renders the gathered data directly, used when the API is not
// configured or unreachable.
func (s *AssistantService) mockAnswer(contextParts map[string]interface{}) string {
	if len(contextParts) == 0 {
		return "I can answer questions about your attendance and fees. Ask about a specific course and section."
	}

	var b strings.Builder
	if v, ok := contextParts["attendance"]; ok {
		if status, ok := v.(*model.AttendanceStatus); ok {
			fmt.Fprintf(&b, "You attended %d of %d classes (%d%%, %s).",
				status.AttendedClasses, status.TotalClasses, status.Attendance, status.Status)
		}
	}
	if v, ok := contextParts["fees"]; ok {
		if fees, ok := v.(*model.FeeSummary); ok {
			if b.Len() > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "Fees: total %d, paid %d, outstanding %d.",
				fees.TotalFees, fees.PaidAmount, fees.OutstandingFees)
		}
	}
	return b.String()
}

func (s *AssistantService) callGemini(ctx context.Context, modelName, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]string{
					{"text": prompt},
				},
			},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s?key=%s", s.config.ModelEndpoint(modelName), s.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	// Parse Gemini response structure
	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", err
	}

	if len(geminiResp.Candidates) > 0 && len(geminiResp.Candidates[0].Content.Parts) > 0 {
		return geminiResp.Candidates[0].Content.Parts[0].Text, nil
	}

	return "", fmt.Errorf("empty response from Gemini")
}

func containsKeyword(message string, keywords []string) bool {
	lower := strings.ToLower(message)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
