package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"smabackend/internal/service"
	"smabackend/internal/transport/rest/handler"
	"smabackend/internal/transport/rest/middleware"
	"smabackend/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService       *service.AuthService
	AttendanceService *service.AttendanceService
	ChatService       *service.ChatService
	AssistantService  *service.AssistantService
	WSHub             *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	attendanceHandler := handler.NewAttendanceHandler(c.AttendanceService)
	chatHandler := handler.NewChatHandler(c.ChatService)
	assistantHandler := handler.NewAssistantHandler(c.AssistantService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.ChatService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/users", chatHandler.CreateUser).Methods("POST", "OPTIONS")

	// WebSocket routes (token in query param)
	v1.HandleFunc("/ws/chat/{roomId}", wsHandler.RoomWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Teacher routes
	teacherRoutes := v1.NewRoute().Subrouter()
	teacherRoutes.Use(authMW.RequireTeacher)

	teacherRoutes.HandleFunc("/attendance/generate-qr", attendanceHandler.GenerateQR).Methods("POST", "OPTIONS")
	teacherRoutes.HandleFunc("/attendance/close-session", attendanceHandler.CloseSession).Methods("POST", "OPTIONS")

	// Student routes
	studentRoutes := v1.NewRoute().Subrouter()
	studentRoutes.Use(authMW.RequireStudent)

	studentRoutes.HandleFunc("/attendance/submit-scan", attendanceHandler.SubmitScan).Methods("POST", "OPTIONS")
	studentRoutes.HandleFunc("/ai/chat", assistantHandler.Chat).Methods("POST", "OPTIONS")

	// Routes for any authenticated user
	userRoutes := v1.NewRoute().Subrouter()
	userRoutes.Use(authMW.RequireUser)

	userRoutes.HandleFunc("/chat/rooms", chatHandler.ListRooms).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/chat/rooms", chatHandler.CreateRoom).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/chat/rooms/{roomId}/messages", chatHandler.ListMessages).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
