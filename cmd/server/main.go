// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/goldenrice/rice-backend/internal/config"
	"github.com/goldenrice/rice-backend/internal/database"
	"github.com/goldenrice/rice-backend/internal/i18n"
	"github.com/goldenrice/rice-backend/internal/idempotency"
	"github.com/goldenrice/rice-backend/internal/logger"
	"github.com/goldenrice/rice-backend/internal/repository"
	"github.com/goldenrice/rice-backend/internal/router"
	"github.com/goldenrice/rice-backend/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger.Setup(cfg.Environment, cfg.Log.Level, cfg.Log.Format)

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close(db)

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}

	// Initialize i18n
	if err := i18n.Initialize(); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	repos := repository.NewGormRepositories(db)

	if err := services.NewAuthService(repos.Users, cfg.JWT).SeedAdmin(context.Background(), cfg.Admin); err != nil {
		logrus.WithError(err).Fatal("Failed to seed admin user")
	}

	blobs, err := services.NewBlobStore(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize upload storage")
	}

	store, closeStore := idempotencyStore(cfg.Redis)
	defer closeStore()

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := router.Initialize(cfg, router.Dependencies{
		Repos:       repos,
		Blobs:       blobs,
		Idempotency: store,
		Ping: func(ctx context.Context) error {
			return database.HealthCheck(ctx, db)
		},
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logrus.WithFields(logrus.Fields{"addr": srv.Addr, "host": cfg.Server.Host}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}

	logrus.Info("Server exited")
}

// idempotencyStore uses Redis when configured and reachable, and falls back
// to process memory otherwise.
func idempotencyStore(cfg config.RedisConfig) (idempotency.Store, func()) {
	if cfg.Addr() == "" {
		return idempotency.NewMemoryStore(), func() {}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := idempotency.NewRedisClient(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Warn("Redis unavailable, keeping idempotency keys in memory")
		return idempotency.NewMemoryStore(), func() {}
	}
	return idempotency.NewRedisStore(client), func() {
		if err := client.Close(); err != nil {
			logrus.WithError(err).Warn("Error closing redis client")
		}
	}
}
