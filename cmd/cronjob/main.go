package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"car-rental-client/internal/apiclient"
	"car-rental-client/internal/config"
	"car-rental-client/internal/jobs"
	"car-rental-client/internal/logger"
	"car-rental-client/internal/repository/postgres"
	"car-rental-client/internal/scheduler"
	"car-rental-client/internal/service"
	"car-rental-client/internal/session"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'reconcile-availability', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateForReconciler(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting car rental cronjob runner...", "log_level", cfg.Log.Level, "api", cfg.API.BaseURL)

	// Initialize the transition journal
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := postgres.Open(context.Background(), cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	journalStore := postgres.NewStore(db)
	if err := journalStore.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to prepare journal: %v", err)
	}

	// Initialize API client
	store := apiclient.NewStore(newAPIClient(cfg))

	// Initialize Services
	jobServices := &jobs.Services{
		Auth:   service.NewAuthService(store.AuthRepository, session.NewMemoryStore()),
		Rental: service.NewRentalService(store.RentalRepository, store.CarRepository, store.UserRepository, journalStore.TransitionRepository),
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(jobServices, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)
	if !cronScheduler.IsRunning() {
		log.Fatalf("No jobs registered, check scheduler.reconcile_availability")
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

func newAPIClient(cfg *config.Config) *apiclient.Client {
	opts := []apiclient.Option{apiclient.WithTimeout(cfg.APITimeout())}
	if cfg.Breaker.Enabled {
		opts = append(opts, apiclient.WithCircuitBreaker(
			uint32(cfg.Breaker.MaxFailures),
			uint32(cfg.Breaker.HalfOpenMaxRequests),
			cfg.BreakerOpenTimeout(),
		))
	}
	return apiclient.New(cfg.API.BaseURL, opts...)
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		logger.Warn("Failed to close database", "error", err)
	}
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "reconcile-availability":
		jobRunner.ReconcileAvailability()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - reconcile-availability\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}
