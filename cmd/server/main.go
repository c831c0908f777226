// cmd/server/main.go
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

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/querylab/internal/cache"
	"github.com/javajoker/querylab/internal/config"
	"github.com/javajoker/querylab/internal/database"
	"github.com/javajoker/querylab/internal/i18n"
	"github.com/javajoker/querylab/internal/middleware"
	"github.com/javajoker/querylab/internal/router"
	"github.com/javajoker/querylab/internal/services"
	"github.com/javajoker/querylab/internal/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal("Failed to load configuration: ", err)
	}

	logger := telemetry.NewLogger(cfg.Log, os.Stdout)
	logrus.SetLevel(logger.GetLevel())
	logrus.SetFormatter(logger.Formatter)

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: ", err)
	}
	defer database.Close(db)

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		logger.Fatal("Failed to run migrations: ", err)
	}

	// Initialize i18n
	if err := i18n.Initialize(); err != nil {
		logger.Fatal("Failed to initialize i18n: ", err)
	}
	i18n.SetDefault(cfg.I18n.DefaultLocale)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional report cache
	var reportCache services.ReportCache
	if cfg.Redis.Enabled {
		client, err := cache.Connect(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to redis: ", err)
		}
		defer client.Close()
		reportCache = cache.NewRedisReportCache(client, time.Duration(cfg.Redis.ReportTTL)*time.Second)
		logger.WithField("addr", cfg.Redis.Addr()).Info("Product report cache enabled")
	}

	limiters := middleware.NewLimiters(cfg.RateLimit)
	limiters.Run(ctx)

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := router.Initialize(db, cfg, router.Options{
		Logger:      logger,
		Recorder:    telemetry.NewLogrusRecorder(logger, logrus.DebugLevel),
		ReportCache: reportCache,
		Limiters:    limiters,
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
		logger.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: ", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()
	logger.Info("Shutting down server...")

	// Create a deadline for shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown: ", err)
	}

	logger.Info("Server exited")
}
