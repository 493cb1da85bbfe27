package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultAPIBaseURL = "http://localhost:8000"

// Config represents the application configuration
type Config struct {
	API        APIConfig        `yaml:"api"`
	Breaker    BreakerConfig    `yaml:"breaker"`
	Session    SessionConfig    `yaml:"session"`
	Database   DatabaseConfig   `yaml:"database"`
	Log        LogConfig        `yaml:"log"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Admin      AdminConfig      `yaml:"admin"`
	MockServer MockServerConfig `yaml:"mock_server"`
}

// APIConfig points the client at the rental REST API
type APIConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"` // 0 means no client-side timeout
}

// BreakerConfig guards the API client against a dead server
type BreakerConfig struct {
	Enabled             bool `yaml:"enabled"`
	MaxFailures         int  `yaml:"max_failures"`
	OpenTimeoutSeconds  int  `yaml:"open_timeout_seconds"`
	HalfOpenMaxRequests int  `yaml:"half_open_max_requests"`
}

// SessionConfig says where the signed-in token is kept
type SessionConfig struct {
	File string `yaml:"file"`
}

// DatabaseConfig contains PostgreSQL settings for the transition journal.
// The journal is disabled when Host is empty.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json", "text" or "pretty"
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	ReconcileAvailability string `yaml:"reconcile_availability"`
}

// AdminConfig holds the credentials the reconciliation job signs in with
type AdminConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MockServerConfig configures the local mock backend
type MockServerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	JWTSecret       string `yaml:"jwt_secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
	SeedDemoData    bool   `yaml:"seed_demo_data"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return finish(&cfg)
}

// LoadOrDefault is Load, except that a missing file yields the defaults
func LoadOrDefault(configPath string) (*Config, error) {
	cfg, err := Load(configPath)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return finish(&Config{})
}

func finish(cfg *Config) (*Config, error) {
	// Override with environment variables if present
	cfg.overrideWithEnv()
	cfg.applyDefaults()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// API
	if val := os.Getenv("CARRENTAL_API_URL"); val != "" {
		c.API.BaseURL = val
	}
	if val := os.Getenv("CARRENTAL_API_TIMEOUT_SECONDS"); val != "" {
		fmt.Sscanf(val, "%d", &c.API.TimeoutSeconds)
	}

	// Session
	if val := os.Getenv("CARRENTAL_SESSION_FILE"); val != "" {
		c.Session.File = val
	}

	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Admin
	if val := os.Getenv("CARRENTAL_ADMIN_USERNAME"); val != "" {
		c.Admin.Username = val
	}
	if val := os.Getenv("CARRENTAL_ADMIN_PASSWORD"); val != "" {
		c.Admin.Password = val
	}

	// Mock server
	if val := os.Getenv("MOCK_SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.MockServer.Port)
	}
	if val := os.Getenv("MOCK_JWT_SECRET"); val != "" {
		c.MockServer.JWTSecret = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}
}

func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultAPIBaseURL
	}
	if c.Session.File == "" {
		c.Session.File = defaultSessionFile()
	}
	if c.Breaker.MaxFailures == 0 {
		c.Breaker.MaxFailures = 3
	}
	if c.Breaker.OpenTimeoutSeconds == 0 {
		c.Breaker.OpenTimeoutSeconds = 10
	}
	if c.Breaker.HalfOpenMaxRequests == 0 {
		c.Breaker.HalfOpenMaxRequests = 1
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Scheduler.ReconcileAvailability == "" {
		c.Scheduler.ReconcileAvailability = "0 */15 * * * *" // Every 15 minutes
	}
	if c.MockServer.Host == "" {
		c.MockServer.Host = "localhost"
	}
	if c.MockServer.Port == 0 {
		c.MockServer.Port = 8000
	}
	if c.MockServer.JWTSecret == "" {
		c.MockServer.JWTSecret = "mock-server-dev-secret"
	}
	if c.MockServer.TokenTTLMinutes == 0 {
		c.MockServer.TokenTTLMinutes = 30
	}
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "carrental", "session.yaml")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// API validation
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API base URL: %q", c.API.BaseURL)
	}
	if c.API.TimeoutSeconds < 0 {
		return fmt.Errorf("API timeout cannot be negative")
	}

	// Breaker validation
	if c.Breaker.MaxFailures < 0 || c.Breaker.OpenTimeoutSeconds < 0 || c.Breaker.HalfOpenMaxRequests < 0 {
		return fmt.Errorf("circuit breaker settings cannot be negative")
	}

	// Database validation
	if c.JournalEnabled() {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	// Mock server validation
	if c.MockServer.Port <= 0 || c.MockServer.Port > 65535 {
		return fmt.Errorf("invalid mock server port: %d", c.MockServer.Port)
	}

	return nil
}

// ValidateForReconciler checks the settings only the cron runner needs
func (c *Config) ValidateForReconciler() error {
	if c.Admin.Username == "" || c.Admin.Password == "" {
		return fmt.Errorf("admin username and password are required for reconciliation")
	}
	if !c.JournalEnabled() {
		return fmt.Errorf("database host is required for reconciliation: only journaled releases are retried")
	}
	return nil
}

// JournalEnabled reports whether a transition journal database is configured
func (c *Config) JournalEnabled() bool {
	return c.Database.Host != ""
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetMockServerAddress returns the mock backend listen address
func (c *Config) GetMockServerAddress() string {
	return fmt.Sprintf("%s:%d", c.MockServer.Host, c.MockServer.Port)
}

// APITimeout returns the client timeout, zero meaning none
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// BreakerOpenTimeout is how long the breaker stays open before probing
func (c *Config) BreakerOpenTimeout() time.Duration {
	return time.Duration(c.Breaker.OpenTimeoutSeconds) * time.Second
}
