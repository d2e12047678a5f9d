package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"smabackend/internal/model"
	"smabackend/internal/service"
	"smabackend/internal/transport/rest/middleware"
)

// ChatHandler handles user and chat endpoints
type ChatHandler struct {
	chatSvc *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatSvc *service.ChatService) *ChatHandler {
	return &ChatHandler{chatSvc: chatSvc}
}

// CreateUserRequest is the request body for registering a user profile
type CreateUserRequest struct {
	ID       string   `json:"id" validate:"required"`
	Name     string   `json:"name" validate:"required"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8"`
	Role     string   `json:"role" validate:"required,oneof=teacher student"`
	Sections []string `json:"sections"`
}

// CreateUser handles POST /v1/users
func (h *ChatHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := service.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user := &model.User{
		ID:           req.ID,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.Role(req.Role),
		Sections:     req.Sections,
	}
	if err := h.chatSvc.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, service.ErrUserExists) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		if errors.Is(err, service.ErrInvalidInput) || errors.Is(err, service.ErrInvalidUserRole) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": user.ID})
}

// ListRooms handles GET /v1/chat/rooms
func (h *ChatHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	rooms, err := h.chatSvc.GetUserChatRooms(r.Context(), userID)
	if err != nil {
		writeChatError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rooms)
}

// CreateRoomRequest is the request body for opening a chat room
type CreateRoomRequest struct {
	OtherUserID string `json:"otherUserId" validate:"required"`
	SectionID   string `json:"sectionId" validate:"required"`
}

// CreateRoom handles POST /v1/chat/rooms
func (h *ChatHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	roomID, err := h.chatSvc.CreateChatRoom(r.Context(), userID, req.OtherUserID, req.SectionID)
	if err != nil {
		writeChatError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"roomId": roomID})
}

// ListMessages handles GET /v1/chat/rooms/{roomId}/messages
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	roomID := mux.Vars(r)["roomId"]

	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	beforeID := r.URL.Query().Get("before")

	msgs, err := h.chatSvc.GetRoomMessages(r.Context(), roomID, userID, limit, beforeID)
	if err != nil {
		writeChatError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, msgs)
}

func writeChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrRoomNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrRoomAccess), errors.Is(err, service.ErrNotInSection):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrSameRole), errors.Is(err, service.ErrEmptyMessage), errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
