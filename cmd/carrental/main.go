package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"car-rental-client/internal/apiclient"
	"car-rental-client/internal/config"
	"car-rental-client/internal/domain"
	"car-rental-client/internal/logger"
	"car-rental-client/internal/repository"
	"car-rental-client/internal/repository/postgres"
	"car-rental-client/internal/service"
	"car-rental-client/internal/session"
)

// app is everything a command needs. sess is the stored session, if any.
type app struct {
	cfg      *config.Config
	sessions session.Store
	client   *apiclient.Client
	auth     service.AuthService
	users    service.UserService
	cars     service.CarService
	booking  service.BookingService
	rentals  service.RentalService
	sess     *session.Session
	out      io.Writer
}

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Debug("Configuration loaded", "api", cfg.API.BaseURL, "session_file", cfg.Session.File)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, closeFn, err := newApp(ctx, cfg, os.Stdout)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer closeFn()

	if err := a.dispatch(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		a.handleError(err)
		closeFn()
		os.Exit(1)
	}
}

func newApp(ctx context.Context, cfg *config.Config, out io.Writer) (*app, func(), error) {
	closeFn := func() {}

	// Initialize the optional transition journal
	var journal repository.TransitionRepository
	if cfg.JournalEnabled() {
		db, err := postgres.Open(ctx, cfg.GetDatabaseConnectionString())
		if err != nil {
			return nil, closeFn, err
		}
		store := postgres.NewStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, closeFn, err
		}
		journal = store.TransitionRepository
		closeFn = func() { closeDB(db) }
	}

	// Initialize API client and repositories
	client := newAPIClient(cfg)
	store := apiclient.NewStore(client)
	sessions := session.NewFileStore(cfg.Session.File)

	a := &app{
		cfg:      cfg,
		sessions: sessions,
		client:   client,
		auth:     service.NewAuthService(store.AuthRepository, sessions),
		users:    service.NewUserService(store.UserRepository),
		cars:     service.NewCarService(store.CarRepository),
		booking:  service.NewBookingService(store.RentalRepository, store.UserRepository),
		rentals:  service.NewRentalService(store.RentalRepository, store.CarRepository, store.UserRepository, journal),
		out:      out,
	}

	sess, err := a.auth.CurrentSession(ctx)
	if err != nil {
		logger.Warn("Ignoring stored session", "error", err)
	}
	a.sess = sess
	return a, closeFn, nil
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

// handleError prints err for the user. A rejected token is dropped so the
// next command starts signed out.
func (a *app) handleError(err error) {
	var aErr *domain.AuthError
	if errors.As(err, &aErr) && aErr.StatusCode == http.StatusUnauthorized && a.sess.Authenticated() {
		if cErr := a.sessions.Clear(); cErr != nil {
			logger.Warn("Failed to clear rejected session", "error", cErr)
		}
		fmt.Fprintln(os.Stderr, "Your session is no longer valid. Please sign in again.")
	}
	if errors.Is(err, domain.ErrNoChanges) {
		fmt.Fprintln(os.Stderr, "No changes detected.")
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: carrental [-config path] <command> [flags]\n\nCommands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-16s %s\n", name, commands[name].summary)
	}
}
