package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"smabackend/internal/service"
	"smabackend/internal/transport/rest/middleware"
)

// AttendanceHandler handles the attendance session endpoints
type AttendanceHandler struct {
	attendanceSvc *service.AttendanceService
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(attendanceSvc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// GenerateQRRequest is the request body for opening an attendance window
type GenerateQRRequest struct {
	CourseID        string `json:"courseId" validate:"required"`
	SectionID       string `json:"sectionId" validate:"required"`
	DurationMinutes int    `json:"durationMinutes" validate:"gte=0"`
}

// GenerateQR handles POST /v1/attendance/generate-qr
func (h *AttendanceHandler) GenerateQR(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetUserID(r.Context())

	var req GenerateQRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.attendanceSvc.CreateSession(r.Context(), req.CourseID, req.SectionID, teacherID, req.DurationMinutes)
	if err != nil {
		writeAttendanceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// SubmitScanRequest is the request body for a check-in
type SubmitScanRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
	QRToken   string `json:"qrToken" validate:"required"`
}

// SubmitScan handles POST /v1/attendance/submit-scan
func (h *AttendanceHandler) SubmitScan(w http.ResponseWriter, r *http.Request) {
	studentID := middleware.GetUserID(r.Context())

	var req SubmitScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if err := h.attendanceSvc.CheckIn(r.Context(), req.SessionID, studentID, req.QRToken); err != nil {
		writeAttendanceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "marked"})
}

// CloseSessionRequest is the request body for closing a session
type CloseSessionRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
}

// CloseSession handles POST /v1/attendance/close-session
func (h *AttendanceHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetUserID(r.Context())

	var req CloseSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if err := h.attendanceSvc.Close(r.Context(), req.SessionID, teacherID); err != nil {
		writeAttendanceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// writeAttendanceError maps each failure kind to a distinct, stable
// status/code pair. Only STORE_UNAVAILABLE is worth retrying unchanged.
func writeAttendanceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeErrorCode(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, service.ErrSessionNotFound):
		writeErrorCode(w, http.StatusNotFound, "SESSION_NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrInvalidQRToken):
		writeErrorCode(w, http.StatusBadRequest, "INVALID_QR", err.Error())
	case errors.Is(err, service.ErrSessionExpired):
		writeErrorCode(w, http.StatusGone, "QR_EXPIRED", err.Error())
	case errors.Is(err, service.ErrSessionEnded):
		writeErrorCode(w, http.StatusConflict, "SESSION_ENDED", err.Error())
	case errors.Is(err, service.ErrAlreadyMarked):
		writeErrorCode(w, http.StatusConflict, "ALREADY_MARKED", err.Error())
	case errors.Is(err, service.ErrNotSessionOwner):
		writeErrorCode(w, http.StatusForbidden, "NOT_SESSION_OWNER", err.Error())
	case errors.Is(err, service.ErrAlreadyClosed):
		writeErrorCode(w, http.StatusConflict, "ALREADY_CLOSED", err.Error())
	default:
		writeErrorCode(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "store operation failed")
	}
}
