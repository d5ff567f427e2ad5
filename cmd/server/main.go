// Package main runs the watch-together HTTP server with WebSocket and
// graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/couchsync/backend/config"
	"github.com/couchsync/backend/internal/auth"
	"github.com/couchsync/backend/internal/friends"
	"github.com/couchsync/backend/internal/invites"
	"github.com/couchsync/backend/internal/middleware"
	"github.com/couchsync/backend/internal/realtime"
	"github.com/couchsync/backend/internal/sessions"
	"github.com/couchsync/backend/internal/videos"
	"github.com/couchsync/backend/internal/watchlater"
	"github.com/couchsync/backend/pkg/database"
	"github.com/couchsync/backend/pkg/queue"
	"github.com/couchsync/backend/pkg/redis"
	"github.com/couchsync/backend/pkg/response"
	"github.com/couchsync/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			AvatarsBucket:        cfg.AWS.AvatarsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	bus := realtime.NewRedisTransport(rdb.Client, logger)
	presence := realtime.NewRedisPresence(rdb.Client)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, s3Client, logger)

	// Watch sessions
	sessionRepo := sessions.NewRepository(pool)
	sessionHandler := sessions.NewHandler(sessionRepo)

	hub := realtime.NewHub(logger, bus, sessionRepo, presence)

	// Session teardown: an emptied room schedules a reap after the grace
	// period; rejoining in time keeps the session.
	jobQueue := queue.NewQueue(rdb.Client, logger)
	hub.SetRoomEmptyHandler(func(sessionID uuid.UUID) {
		payload := queue.SessionReapPayload{
			SessionID: sessionID,
			NotBefore: time.Now().Add(cfg.Sessions.ReapGrace),
		}
		if err := jobQueue.EnqueueSessionReap(context.Background(), payload); err != nil {
			logger.Error("enqueue session reap", zap.Error(err), zap.String("session_id", sessionID.String()))
		}
	})

	// Friends
	friendRepo := friends.NewRepository(pool)
	friendHandler := friends.NewHandler(friendRepo)

	// Invitations
	inviteSender := invites.NewSender(bus, friendRepo, logger)
	inviteHandler := invites.NewHandler(inviteSender, sessionRepo)

	// Watch later
	watchLaterRepo := watchlater.NewRepository(pool)
	watchLaterHandler := watchlater.NewHandler(watchLaterRepo)

	// Video metadata
	youtubeClient := videos.NewYouTubeClient(cfg.YouTube.APIKey, cfg.YouTube.BaseURL)
	videoHandler := videos.NewHandler(youtubeClient)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Profile
		api.GET("/users/me", authHandler.Me)
		api.POST("/users/me/avatar", authHandler.UploadAvatar)

		// Friends
		api.GET("/friends", friendHandler.List)
		api.GET("/friends/requests", friendHandler.ListIncoming)
		api.POST("/friends/requests", friendHandler.SendRequest)
		api.POST("/friends/requests/:id/accept", friendHandler.AcceptRequest)

		// Watch sessions (creating one is a premium feature)
		api.POST("/sessions", middleware.RequirePremium(), sessionHandler.Create)
		api.GET("/sessions/:id", sessionHandler.GetByID)
		api.DELETE("/sessions/:id", sessionHandler.Delete)
		api.POST("/sessions/:id/join", sessionHandler.Join)
		api.POST("/sessions/:id/leave", sessionHandler.Leave)
		api.GET("/sessions/:id/participants", sessionHandler.Participants)
		api.GET("/sessions/:id/presence", sessionHandler.Presence(hub))
		api.POST("/sessions/:id/invites", inviteHandler.Send)

		// Watch later
		api.GET("/watch-later", watchLaterHandler.List)
		api.POST("/watch-later", watchLaterHandler.Add)
		api.GET("/watch-later/:videoId", watchLaterHandler.Contains)
		api.DELETE("/watch-later/:videoId", watchLaterHandler.Remove)

		// Video metadata
		api.GET("/videos/:id", videoHandler.GetByID)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, logger, jwtService))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
