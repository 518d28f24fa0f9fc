package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"prizedraw/database"

	log "github.com/sirupsen/logrus"
)

// Oracle modes
const (
	OracleModeLocal = "local"
	OracleModeNATS  = "nats"
)

// Payment rail backends
const (
	PaymentRailMemory   = "memory"
	PaymentRailPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// NATS configuration; event publishing is disabled when NATSServers is empty
	NATSServers string // NATS server addresses (comma-separated)

	// Draw configuration
	OracleMode       string        // "local" or "nats"
	OracleTimeout    time.Duration // Re-request randomness after this long without a fulfilment
	DrawPollInterval time.Duration
	PaymentRail      string // "memory" or "postgres"
	LotteryFile      string // optional YAML file applied at startup

	// Network configuration
	HTTPAddr       string
	GRPCHealthAddr string

	// Discord announcements; disabled when DiscordToken is empty
	DiscordToken     string
	DiscordChannelID string

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelServiceName          string
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int

	// Logging
	LogLevel log.Level

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// UsesDatabase reports whether lotteries are persisted
func (c *Config) UsesDatabase() bool {
	return c.DatabaseURL != ""
}

// UsesNATS reports whether a NATS connection is configured
func (c *Config) UsesNATS() bool {
	return c.NATSServers != ""
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// NATS
		NATSServers: os.Getenv("NATS_SERVERS"),

		// Draws
		OracleMode:       getEnvWithDefault("ORACLE_MODE", OracleModeLocal),
		OracleTimeout:    10 * time.Minute,
		DrawPollInterval: 30 * time.Second,
		PaymentRail:      getEnvWithDefault("PAYMENT_RAIL", PaymentRailMemory),
		LotteryFile:      os.Getenv("LOTTERY_FILE"),

		// Network
		HTTPAddr:       getEnvWithDefault("HTTP_ADDR", ":8080"),
		GRPCHealthAddr: getEnvWithDefault("GRPC_HEALTH_ADDR", ":9000"),

		// Discord
		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),

		// OpenTelemetry
		OTelEnabled:              os.Getenv("OTEL_ENABLED") == "true",
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "prizedraw"),
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317"),
		OTelExportIntervalMillis: 60000,

		LogLevel: log.InfoLevel,

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if timeout := os.Getenv("ORACLE_TIMEOUT"); timeout != "" {
		parsed, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid ORACLE_TIMEOUT: %w", err)
		}
		config.OracleTimeout = parsed
	}
	if interval := os.Getenv("DRAW_POLL_INTERVAL"); interval != "" {
		parsed, err := time.ParseDuration(interval)
		if err != nil {
			return nil, fmt.Errorf("invalid DRAW_POLL_INTERVAL: %w", err)
		}
		config.DrawPollInterval = parsed
	}
	if interval := os.Getenv("OTEL_EXPORT_INTERVAL_MILLIS"); interval != "" {
		if parsed, err := strconv.Atoi(interval); err == nil {
			config.OTelExportIntervalMillis = parsed
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		config.LogLevel = parsed
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the combination of settings
func (c *Config) Validate() error {
	switch c.OracleMode {
	case OracleModeLocal:
	case OracleModeNATS:
		if c.NATSServers == "" {
			return fmt.Errorf("NATS_SERVERS is required when ORACLE_MODE is %q", OracleModeNATS)
		}
	default:
		return fmt.Errorf("ORACLE_MODE must be %q or %q, got %q", OracleModeLocal, OracleModeNATS, c.OracleMode)
	}
	switch c.PaymentRail {
	case PaymentRailMemory:
	case PaymentRailPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when PAYMENT_RAIL is %q", PaymentRailPostgres)
		}
	default:
		return fmt.Errorf("PAYMENT_RAIL must be %q or %q, got %q", PaymentRailMemory, PaymentRailPostgres, c.PaymentRail)
	}
	if c.OracleTimeout <= 0 {
		return fmt.Errorf("ORACLE_TIMEOUT must be positive")
	}
	if c.DrawPollInterval <= 0 {
		return fmt.Errorf("DRAW_POLL_INTERVAL must be positive")
	}
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
	}
	if c.DiscordToken != "" && c.DiscordChannelID == "" {
		return fmt.Errorf("DISCORD_CHANNEL_ID is required when DISCORD_TOKEN is set")
	}
	return nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		OracleMode:               OracleModeLocal,
		OracleTimeout:            time.Minute,
		DrawPollInterval:         time.Second,
		PaymentRail:              PaymentRailMemory,
		HTTPAddr:                 ":0",
		GRPCHealthAddr:           ":0",
		OTelServiceName:          "prizedraw-test",
		OTelExporterType:         "none",
		OTelExportIntervalMillis: 1000,
		LogLevel:                 log.DebugLevel,
		Environment:              "test",
	}
}
