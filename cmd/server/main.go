package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"smabackend/internal/cache"
	"smabackend/internal/config"
	"smabackend/internal/repository"
	"smabackend/internal/service"
	"smabackend/internal/transport/rest"
	"smabackend/internal/transport/ws"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	cfg := config.Load()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	redisAddr := cfg.RedisAddr
	// Remove redis:// prefix if present
	if len(redisAddr) > 8 && redisAddr[:8] == "redis://" {
		redisAddr = redisAddr[8:]
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	defer rdb.Close()

	// Ping Redis
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize repositories
	sessionRepo := repository.NewSessionRepo(db)
	markRepo := repository.NewMarkRepo(db)
	statsRepo := repository.NewStatsRepo(db)
	userRepo := repository.NewUserRepo(db)
	chatRoomRepo := repository.NewChatRoomRepo(db)
	messageRepo := repository.NewMessageRepo(db)
	feesRepo := repository.NewFeesRepo(db)
	txnRunner := repository.NewTxnRunner(mongoClient)

	// Initialize caches
	presence := cache.NewPresenceCache(rdb)

	// Initialize services
	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret)
	attendanceSvc := service.NewAttendanceService(sessionRepo, markRepo, statsRepo, txnRunner, cfg.Timezone)
	chatSvc := service.NewChatService(userRepo, chatRoomRepo, messageRepo, presence)
	assistantSvc := service.NewAssistantService(statsRepo, feesRepo)

	// Create router with container
	container := &rest.Container{
		AuthService:       authSvc,
		AttendanceService: attendanceSvc,
		ChatService:       chatSvc,
		AssistantService:  assistantSvc,
		WSHub:             wsHub,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		log.Println("Endpoints:")
		log.Println("  POST /v1/auth/login")
		log.Println("  POST /v1/users")
		log.Println("  POST /v1/attendance/generate-qr")
		log.Println("  POST /v1/attendance/submit-scan")
		log.Println("  POST /v1/attendance/close-session")
		log.Println("  GET/POST /v1/chat/rooms")
		log.Println("  GET  /v1/chat/rooms/{roomId}/messages")
		log.Println("  POST /v1/ai/chat")
		log.Println("  WS  /v1/ws/chat/{roomId}")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
