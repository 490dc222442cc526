package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/greenridge/fieldops/internal/client"
	"github.com/greenridge/fieldops/internal/config"
	"github.com/greenridge/fieldops/internal/database"
	"github.com/greenridge/fieldops/internal/handler"
	"github.com/greenridge/fieldops/internal/logger"
	"github.com/greenridge/fieldops/internal/repository"
	"github.com/greenridge/fieldops/internal/router"
	"github.com/greenridge/fieldops/internal/service"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/local.yaml", "Path to configuration file")
	flag.Parse()

	// Optional .env for local development
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting fieldops backend",
		zap.String("env", cfg.Env),
		zap.String("config_path", *configPath),
	)

	// Initialize database
	db, err := database.New(cfg.StoragePath, log.Logger)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	validate := validator.New()

	// Repository and services
	workRecordRepo := repository.NewWorkRecordRepository(db.DB)
	allocationService := service.NewAllocationService(workRecordRepo, log.Logger)

	var fetcher service.EditFetcher
	if cfg.Workspace.BaseURL != "" {
		fetcher = client.NewWorkspaceClient(
			cfg.Workspace.BaseURL,
			cfg.Workspace.APIKey,
			time.Duration(cfg.Workspace.Timeout)*time.Second,
			log.Logger,
		)
		log.Info("Workspace sync enabled", zap.String("base_url", cfg.Workspace.BaseURL))
	} else {
		log.Info("No workspace configured, sync runs disabled")
	}
	syncService := service.NewSyncService(workRecordRepo, fetcher, cfg.Workspace.PageSize, log.Logger)

	// HTTP surface
	workRecordHandler := handler.NewWorkRecordHandler(workRecordRepo, validate, log.Logger)
	allocationHandler := handler.NewAllocationHandler(allocationService, validate, log.Logger)
	syncHandler := handler.NewSyncHandler(syncService, validate, log.Logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router.New(workRecordHandler, allocationHandler, syncHandler, log.Logger),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Info("Received shutdown signal", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("Fieldops backend stopped")
}
