package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"smabackend/internal/model"
	"smabackend/internal/service"
)

func newFixture(t *testing.T) (*AuthMiddleware, *service.AuthService) {
	t.Helper()
	authSvc := service.NewAuthService(nil, "test-secret")
	return NewAuthMiddleware(authSvc), authSvc
}

func echoIdentity(t *testing.T) (http.Handler, *string, *model.Role) {
	t.Helper()
	var gotID string
	var gotRole model.Role
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = GetUserID(r.Context())
		gotRole = GetRole(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return h, &gotID, &gotRole
}

func TestRequireUserPassesIdentity(t *testing.T) {
	mw, authSvc := newFixture(t)
	next, gotID, gotRole := echoIdentity(t)

	token, err := authSvc.IssueToken("T1", model.RoleTeacher)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest("POST", "/v1/attendance/generate-qr", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.RequireUser(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if *gotID != "T1" || *gotRole != model.RoleTeacher {
		t.Fatalf("expected identity T1/teacher in context, got %q/%q", *gotID, *gotRole)
	}
}

func TestRequireUserRejectsBadTokens(t *testing.T) {
	mw, _ := newFixture(t)
	next, _, _ := echoIdentity(t)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not.a.token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/v1/chat/rooms", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			mw.RequireUser(next).ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestRoleGates(t *testing.T) {
	mw, authSvc := newFixture(t)
	next, _, _ := echoIdentity(t)

	studentToken, err := authSvc.IssueToken("S-01", model.RoleStudent)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest("POST", "/v1/attendance/generate-qr", nil)
	req.Header.Set("Authorization", "Bearer "+studentToken)
	rec := httptest.NewRecorder()
	mw.RequireTeacher(next).ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for student on teacher route, got %d", rec.Code)
	}

	req = httptest.NewRequest("POST", "/v1/attendance/submit-scan", nil)
	req.Header.Set("Authorization", "Bearer "+studentToken)
	rec = httptest.NewRecorder()
	mw.RequireStudent(next).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for student on student route, got %d", rec.Code)
	}
}
