package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends understood by STORE_BACKEND
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
)

type Config struct {
	Environment string

	// Storage
	StoreBackend    string
	StoreFile       string
	StoreSlotKey    string
	DatabaseURL     string
	MySQLDSN        string
	MigrationsPath  string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	DatabaseTimeout time.Duration

	// Store behaviour
	UndoWindow time.Duration

	// Observability
	LogLevel      string
	LogFormat     string // json or console
	EnableMetrics bool
	MetricsPort   int
	EnableTracing bool
	OTLPEndpoint  string

	ShutdownTimeout time.Duration
}

func Load() (*Config, error) {
	// Load .env file if exists (for local development)
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),

		// Storage
		StoreBackend:    getEnv("STORE_BACKEND", BackendFile),
		StoreFile:       getEnv("STORE_FILE", DefaultStoreFile()),
		StoreSlotKey:    getEnv("STORE_SLOT_KEY", "todoLists"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		MySQLDSN:        getEnv("MYSQL_DSN", ""),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", ""),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 4),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		DatabaseTimeout: getEnvAsDuration("DATABASE_TIMEOUT", 5*time.Second),

		UndoWindow: getEnvAsDuration("UNDO_WINDOW", 5*time.Second),

		// Observability
		LogLevel:      getEnv("LOG_LEVEL", "warn"),
		LogFormat:     getEnv("LOG_FORMAT", "console"),
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", false),
		MetricsPort:   getEnvAsInt("METRICS_PORT", 9090),
		EnableTracing: getEnvAsBool("ENABLE_TRACING", false),
		OTLPEndpoint:  getEnv("OTLP_ENDPOINT", "localhost:4317"),

		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendFile:
		if c.StoreFile == "" {
			return fmt.Errorf("STORE_FILE is required for the file backend")
		}
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	case BackendMySQL:
		if c.MySQLDSN == "" {
			return fmt.Errorf("MYSQL_DSN is required for the mysql backend")
		}
	default:
		return fmt.Errorf("invalid store backend: %s (valid: file, memory, postgres, mysql)", c.StoreBackend)
	}

	if c.StoreSlotKey == "" {
		return fmt.Errorf("STORE_SLOT_KEY cannot be empty")
	}

	if c.UndoWindow <= 0 {
		return fmt.Errorf("invalid undo window: %s", c.UndoWindow)
	}

	if c.EnableMetrics && (c.MetricsPort < 1 || c.MetricsPort > 65535) {
		return fmt.Errorf("invalid metrics port: %d", c.MetricsPort)
	}

	if c.MaxOpenConns < c.MaxIdleConns {
		return fmt.Errorf("max_open_conns (%d) must be >= max_idle_conns (%d)",
			c.MaxOpenConns, c.MaxIdleConns)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.LogLevel)
	}

	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("invalid log format: %s (valid: json, console)", c.LogFormat)
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// DefaultStoreFile returns the snapshot path under the user's data directory.
// Uses XDG_DATA_HOME if set, otherwise $HOME/.local/share.
func DefaultStoreFile() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "tasklists", "lists.json")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "tasklists.json"
	}
	return filepath.Join(home, ".local", "share", "tasklists", "lists.json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

type StorageConfig struct {
	Backend         string
	File            string
	SlotKey         string
	DatabaseURL     string
	MySQLDSN        string
	MigrationsPath  string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Timeout         time.Duration
}

func (c *Config) GetStorageConfig() StorageConfig {
	return StorageConfig{
		Backend:         c.StoreBackend,
		File:            c.StoreFile,
		SlotKey:         c.StoreSlotKey,
		DatabaseURL:     c.DatabaseURL,
		MySQLDSN:        c.MySQLDSN,
		MigrationsPath:  c.MigrationsPath,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		Timeout:         c.DatabaseTimeout,
	}
}

type ObservabilityConfig struct {
	EnableMetrics bool
	MetricsPort   int
	EnableTracing bool
	OTLPEndpoint  string
	LogLevel      string
	LogFormat     string
}

func (c *Config) GetObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		EnableMetrics: c.EnableMetrics,
		MetricsPort:   c.MetricsPort,
		EnableTracing: c.EnableTracing,
		OTLPEndpoint:  c.OTLPEndpoint,
		LogLevel:      c.LogLevel,
		LogFormat:     c.LogFormat,
	}
}
