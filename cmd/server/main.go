// backend-go/cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/autotransfer/backend-go/internal/api"
	"github.com/andresuchdata/autotransfer/backend-go/internal/app"
	"github.com/andresuchdata/autotransfer/backend-go/internal/cache"
	"github.com/andresuchdata/autotransfer/backend-go/internal/config"
	"github.com/andresuchdata/autotransfer/backend-go/internal/service"
	"github.com/andresuchdata/autotransfer/backend-go/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	logger.SetFormat(cfg.App.LogFormat)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	artifacts, err := cache.NewArtifactCache(cfg.Cache)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize artifact cache")
	}

	orchestrator, err := app.NewOrchestrator(cfg.Transfer)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize pipeline")
	}

	publisher, err := app.NewPublisher(cfg.Storage)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize object storage")
	}

	var fetcher service.InventoryFetcher
	driveService, err := app.NewDrive(ctx, cfg.Drive)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize Google Drive service")
	}
	if driveService != nil {
		fetcher = driveService
	}

	// Initialize services
	transferService := service.NewTransferService(orchestrator, artifacts, publisher, fetcher)

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{TransferService: transferService}, cfg.Server.AllowedOrigins, cfg.Server.MaxUploadMB)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().
			Str("port", cfg.Server.Port).
			Strs("targets", cfg.Transfer.Targets).
			Bool("storage", publisher != nil).
			Bool("drive", fetcher != nil).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
