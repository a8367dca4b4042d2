package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storyweave-server/internal/authutils"
	"storyweave-server/internal/config"
	"storyweave-server/internal/database"
	"storyweave-server/internal/handler"
	"storyweave-server/internal/interfaces"
	"storyweave-server/internal/logger"
	"storyweave-server/internal/middleware"
	"storyweave-server/internal/realtime"
	"storyweave-server/internal/service"
	"storyweave-server/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	// .env удобен локально; в контейнере переменные приходят из окружения.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		// Файл может отсутствовать, это не ошибка.
		_ = err
	}

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync() //nolint:errcheck

	if err := run(cfg, log); err != nil {
		log.Fatal("Server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.RunMigrations(cfg.MigrationsPath, cfg.GetDSN(), log); err != nil {
		return err
	}

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	// Репозитории
	storyRepo := database.NewPgStoryRepository(pool, log)
	nodeRepo := database.NewPgStoryNodeRepository(pool, log)
	versionRepo := database.NewPgStoryVersionRepository(pool, log)
	userRepo := database.NewPgUserRepository(pool, log)
	starRepo := database.NewPgStarRepository(pool, log)
	sessionRepo := database.NewPgReadSessionRepository(pool, log)
	tokenRepo := database.NewRedisTokenRepository(redisClient, log)

	var coverStorage interfaces.CoverStorage
	coverStorage, err = storage.NewFirebaseCoverStorage(ctx, cfg.FirebaseCredentialsFile, cfg.FirebaseStorageBucket, log)
	if err != nil {
		return err
	}
	if coverStorage == nil {
		coverStorage = storage.NewNoopCoverStorage(log)
	}

	// Realtime
	hub := realtime.NewHub(log)
	go hub.Run()
	registry := realtime.NewSessionRegistry()

	// Сервисы
	graphService := service.NewGraphService(storyRepo, nodeRepo, versionRepo, userRepo, hub, log)
	presenceService := service.NewPresenceService(storyRepo, nodeRepo, versionRepo, userRepo, hub, log)
	versionService := service.NewVersionService(versionRepo, nodeRepo, starRepo, log)
	publishService := service.NewPublishService(storyRepo, nodeRepo, versionRepo, hub, log)
	storyService := service.NewStoryService(storyRepo, nodeRepo, versionRepo, userRepo, starRepo, coverStorage, log)
	readerService := service.NewReaderService(storyRepo, versionRepo, nodeRepo, starRepo, sessionRepo, userRepo, log)

	verifier := authutils.NewJWTVerifier(cfg.JWTSecret)
	wsHandler := realtime.NewWSHandler(hub, registry, presenceService, verifier, tokenRepo, log)
	apiHandler := handler.New(storyService, graphService, versionService, publishService, presenceService, readerService, log)

	// HTTP
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	prom := ginprometheus.NewPrometheus("gin")
	prom.Use(router)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ws", wsHandler.ServeWS)

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(verifier, tokenRepo, log))
	apiHandler.RegisterRoutes(api)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("Server stopped")
	return nil
}
