package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gcsmedia/backend/internal/app"
	"gcsmedia/backend/internal/auth"
	"gcsmedia/backend/internal/database"
	"gcsmedia/backend/internal/filestorage"
	"gcsmedia/backend/internal/handlers"
	"gcsmedia/backend/internal/media"
	"gcsmedia/backend/internal/router"
	"gcsmedia/backend/pkg/config"
	phxlog "gcsmedia/backend/pkg/log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Cfg
	phxlog.Init(cfg.LogLevel, cfg.Environment, phxlog.FileOptions{Path: cfg.LogFile, MaxSizeMB: cfg.LogMaxSizeMB})
	defer phxlog.Sync()
	logger := phxlog.L

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := auth.InitializeJWT(cfg.JWTSecret, cfg.JWTTokenLifespan); err != nil {
		logger.Fatal("Failed to initialize JWT", zap.Error(err))
	}

	db, err := database.ConnectDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.MigrateDB(db, cfg.DBDriver); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := app.NewStore(ctx, cfg, db)
	if err != nil {
		logger.Fatal("Failed to initialize options store", zap.Error(err))
	}
	defer func() { _ = closeStore() }()

	a := app.New(cfg, store)
	if err := a.Init(ctx); err != nil {
		logger.Fatal("admin_init failed", zap.Error(err))
	}

	// Without credentials the service still runs; uploads stay on local
	// disk until a bucket and credentials are configured.
	var provider filestorage.FileStorageProvider
	client, err := filestorage.NewStorageClient(ctx, app.ClientInfo(cfg), nil)
	if err != nil {
		logger.Warn("Google Cloud Storage client unavailable, bucket uploads will fail", zap.Error(err))
	} else {
		defer client.Close()
		provider = filestorage.NewGCSStorageProvider(client)
	}

	h := handlers.New(handlers.Deps{
		Bus:      a.Bus,
		Store:    a.Store,
		Registry: a.Registry,
		Menu:     a.Menu,
		Plugin:   a.Plugin,
		Media: media.NewService(media.Config{
			DB:             db,
			Bus:            a.Bus,
			Provider:       provider,
			UploadsDir:     cfg.UploadsDir,
			UploadsBaseURL: cfg.UploadsBaseURL,
		}),
	})

	engine := router.SetupRouter(logger, h)
	engine.Static("/uploads", cfg.UploadsDir)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
}
