package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"notebooklm-backend/internal/ai"
	"notebooklm-backend/internal/config"
	"notebooklm-backend/internal/database"
	"notebooklm-backend/internal/handlers"
	"notebooklm-backend/internal/middleware"
	"notebooklm-backend/internal/repository"
	"notebooklm-backend/internal/router"
	"notebooklm-backend/internal/services"
	"notebooklm-backend/internal/storage"
	"notebooklm-backend/internal/websocket"
	"notebooklm-backend/internal/worker"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	logger := newLogger(cfg)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	logger.Info("starting NotebookLM backend", zap.String("env", cfg.Env))

	ctx := context.Background()

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("PostgreSQL connection failed", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal("Redis connection failed", zap.Error(err))
	}
	defer redisClients.Close()
	logger.Info("Redis connected")

	// ──── Step 4: Run Database Migrations ────
	applied, err := database.RunMigrations(ctx, pool, cfg.MigrationsDir)
	if err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}
	logger.Info("database migrations applied", zap.Int("count", applied))

	// ──── Step 5: Initialize Gemini Client ────
	geminiService, err := services.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Fatal("Gemini client initialization failed", zap.Error(err))
	}
	defer geminiService.Close()
	dispatcher := ai.NewDispatcher(geminiService)

	// ──── Upload Storage ────
	store, err := storage.New(storage.Config{
		Type:      cfg.StorageType,
		LocalPath: cfg.StoragePath,
		S3: storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
		},
	})
	if err != nil {
		logger.Fatal("storage initialization failed", zap.Error(err))
	}
	logger.Info("upload storage ready", zap.String("type", cfg.StorageType))

	// ──── Initialize Repositories ────
	notebookRepo := repository.NewNotebookRepo(pool)
	documentRepo := repository.NewDocumentRepo(pool)
	jobRepo := repository.NewJobRepo(pool)
	settingsRepo := repository.NewSettingsRepo(pool)
	interactionRepo := repository.NewAIInteractionRepo(pool)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	youtubeService := services.NewYouTubeService()
	fileExtractService := services.NewFileExtractService()
	exportService := services.NewExportService()
	analyticsService := services.NewAnalyticsService(notebookRepo, interactionRepo)
	jobQueue := worker.NewQueue(redisClients.Queue, jobRepo)

	// ──── Initialize Handlers ────
	aiHandler := handlers.NewAIHandler(dispatcher, interactionRepo)
	notebookHandler := handlers.NewNotebookHandler(notebookRepo, exportService)
	documentHandler := handlers.NewDocumentHandler(documentRepo, jobQueue, store, fileExtractService)
	fileHandler := handlers.NewFileHandler(fileExtractService, dispatcher)
	searchHandler := handlers.NewSearchHandler(notebookRepo)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	settingsHandler := handlers.NewSettingsHandler(settingsRepo)
	youtubeHandler := handlers.NewYouTubeHandler(youtubeService)
	jobHandler := handlers.NewJobHandler(jobRepo)

	// ──── Step 6: Start Job Worker Pool ────
	workerPool := worker.NewPool(
		redisClients.Queue,
		jobRepo,
		documentRepo,
		store,
		fileExtractService,
		dispatcher,
		cfg.WorkerCount,
	)
	workerPool.Start()

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth, cfg.FrontendURL)
	defer wsHub.Close()

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		middleware.NewRateLimiter(cfg.UploadRateLimit, time.Minute),
		aiHandler,
		notebookHandler,
		documentHandler,
		fileHandler,
		searchHandler,
		analyticsHandler,
		settingsHandler,
		youtubeHandler,
		jobHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("NotebookLM backend ready",
		zap.String("api", fmt.Sprintf("http://localhost:%s/api/v1", cfg.Port)),
		zap.String("ws", fmt.Sprintf("ws://localhost:%s/api/v1/ws", cfg.Port)),
	)

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
	<-shutdownDone
}

func newLogger(cfg *config.Config) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.IsDevelopment() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger
}
