package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "car-rental-client/internal/api/http"
	"car-rental-client/internal/config"
	"car-rental-client/internal/logger"

	"github.com/gorilla/mux"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting car rental mock API...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetMockServerAddress(), "token_ttl_minutes", cfg.MockServer.TokenTTLMinutes)

	// Initialize backend
	tokenTTL := time.Duration(cfg.MockServer.TokenTTLMinutes) * time.Minute
	backend := httpapi.NewMockBackend(cfg.MockServer.JWTSecret, tokenTTL)
	if cfg.MockServer.SeedDemoData {
		if cfg.Admin.Username == "" || cfg.Admin.Password == "" {
			log.Fatalf("seed_demo_data needs admin.username and admin.password")
		}
		if err := backend.SeedDemo(cfg.Admin.Username, cfg.Admin.Password); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
		logger.Info("Demo data seeded", "admin", cfg.Admin.Username)
	}

	router := mux.NewRouter()
	httpapi.RegisterMockAPIRoutes(router, backend)

	srv := &http.Server{
		Addr:              cfg.GetMockServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Mock API listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down mock API...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	logger.Info("Mock API stopped")
}
