package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"moneta/internal/config"
	"moneta/internal/fx"
	apphttp "moneta/internal/http"
	"moneta/internal/log"
	"moneta/internal/service"
	"moneta/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.New(log.ComponentApp, "info").Error("Failed to load configuration", log.FieldError, err)
		os.Exit(1)
	}

	logger := log.New(log.ComponentApp, cfg.LogLevel)
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	var store service.Store
	switch cfg.DataBackend {
	case "sqlite":
		sqliteStore, err := storage.Open(cfg.DBPath)
		if err != nil {
			logger.Error("Failed to open database", log.FieldError, err, log.FieldPath, cfg.DBPath)
			os.Exit(1)
		}
		defer sqliteStore.Close()
		store = sqliteStore
		logger.Info("Initialized sqlite backend", log.FieldPath, cfg.DBPath)
	default:
		store = storage.NewMemStore()
		logger.Info("Initialized memory backend")
	}

	rates := fx.NewClient(fx.ClientConfig{
		TTL:       cfg.RateCacheTTL,
		Timeout:   cfg.RateTimeout,
		CachePath: cfg.RateCachePath,
	})

	svc := service.New(store, rates, logger)
	srv := apphttp.NewServer(cfg.Addr(), svc, cfg.DisplayCurrency, logger)

	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting moneta server", "port", cfg.Port, "backend", cfg.DataBackend, log.FieldCurrency, cfg.DisplayCurrency)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
