package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all connector configuration
type Config struct {
	// Reporting API client settings
	Reporting ReportingConfig `json:"reporting"`

	// Dataset to sync
	Dataset DatasetConfig `json:"dataset"`

	// Poll loop settings for export job completion
	Poll PollSettings `json:"poll"`

	// Database configuration for the sink
	Database DatabaseConfig `json:"database"`

	// Kafka configuration for completion notifications
	Kafka KafkaConfig `json:"kafka"`

	// Redis configuration for the dataset lock
	Redis RedisConfig `json:"redis"`

	// Server configuration for the admin API
	Server ServerConfig `json:"server"`

	// Metrics configuration
	Metrics MetricsConfig `json:"metrics"`

	// Schedule is the cron expression for the sync daemon
	Schedule string `json:"schedule"`
}

// ReportingConfig contains reporting API client settings
type ReportingConfig struct {
	// BaseURL for the reporting API
	BaseURL string `json:"base_url"`

	// AccessToken is the bearer token for the API
	AccessToken string `json:"access_token"`

	// AppID is carried on status/download requests when the tenant requires it
	AppID string `json:"app_id"`

	// ClientID is carried on status/download requests when the tenant requires it
	ClientID string `json:"client_id"`

	// APIVersion is sent as the Api-Version header
	APIVersion string `json:"api_version"`
}

// DatasetConfig describes the dataset being synchronized
type DatasetConfig struct {
	// ID of the dataset to export (e.g. "conversation")
	ID string `json:"id"`

	// AttributeIDs selects the exported columns
	AttributeIDs []string `json:"attribute_ids"`

	// WindowSeconds is the size of each incremental sync window
	WindowSeconds int64 `json:"window_seconds"`

	// InitialStartTime is the unix epoch start of the first historical
	// window; 0 means 24 hours before the first run
	InitialStartTime int64 `json:"initial_start_time"`
}

// PollSettings bounds the export job poll loop
type PollSettings struct {
	// Interval is the initial wait between polls
	Interval time.Duration `json:"interval"`

	// MaxInterval caps the backoff
	MaxInterval time.Duration `json:"max_interval"`

	// BackoffMultiplier grows the interval after each poll
	BackoffMultiplier float64 `json:"backoff_multiplier"`

	// MaxAttempts bounds the number of polls per job
	MaxAttempts int `json:"max_attempts"`

	// Timeout bounds the cumulative wait per job
	Timeout time.Duration `json:"timeout"`
}

// DatabaseConfig contains sink database settings
type DatabaseConfig struct {
	// Type of database (sqlite, postgres)
	Type string `json:"type"`

	// Path to the SQLite database file
	Path string `json:"path"`

	// Host for postgres
	Host string `json:"host"`

	// Port for postgres
	Port int `json:"port"`

	// Name of the database
	Name string `json:"name"`

	// Username for database authentication
	Username string `json:"username"`

	// Password for database authentication
	Password string `json:"password"`

	// SSLMode for postgres connections
	SSLMode string `json:"ssl_mode"`
}

// ConnectionString returns a PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.Username, d.Password, d.Name, d.SSLMode)
}

// KafkaConfig contains Kafka producer settings
type KafkaConfig struct {
	// Enabled indicates if completion notifications are published
	Enabled bool `json:"enabled"`

	// Brokers is a list of Kafka broker addresses
	Brokers []string `json:"brokers"`

	// Topic for sync completion messages
	Topic string `json:"topic"`
}

// RedisConfig contains dataset lock settings
type RedisConfig struct {
	// Enabled indicates if the distributed lock is active
	Enabled bool `json:"enabled"`

	// Address of the Redis server
	Address string `json:"address"`

	// Password for Redis authentication
	Password string `json:"password"`

	// DB is the Redis database number
	DB int `json:"db"`

	// KeyPrefix namespaces the lock keys
	KeyPrefix string `json:"key_prefix"`

	// LockTTL bounds how long a crashed invocation holds the lock
	LockTTL time.Duration `json:"lock_ttl"`
}

// ServerConfig contains admin HTTP server settings
type ServerConfig struct {
	// Port is the admin API port
	Port int `json:"port"`

	// Host is the server bind address
	Host string `json:"host"`

	// ReadTimeout for HTTP requests
	ReadTimeout time.Duration `json:"read_timeout"`

	// WriteTimeout for HTTP responses
	WriteTimeout time.Duration `json:"write_timeout"`

	// ShutdownTimeout for graceful shutdown
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

// MetricsConfig contains metrics endpoint settings
type MetricsConfig struct {
	// Enabled indicates if metrics are served
	Enabled bool `json:"enabled"`

	// Port for the metrics endpoint
	Port int `json:"port"`

	// Path for the metrics endpoint
	Path string `json:"path"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		Reporting: ReportingConfig{
			BaseURL:     getEnv("REPORTING_BASE_URL", "https://api.intercom.io"),
			AccessToken: getEnv("REPORTING_ACCESS_TOKEN", ""),
			AppID:       getEnv("REPORTING_APP_ID", ""),
			ClientID:    getEnv("REPORTING_CLIENT_ID", ""),
			APIVersion:  getEnv("REPORTING_API_VERSION", "Unstable"),
		},
		Dataset: DatasetConfig{
			ID:               getEnv("DATASET_ID", ""),
			AttributeIDs:     getEnvAsStringSlice("ATTRIBUTE_IDS", []string{}),
			WindowSeconds:    getEnvAsInt64("WINDOW_SECONDS", 3600),
			InitialStartTime: getEnvAsInt64("INITIAL_START_TIME", 0),
		},
		Poll: PollSettings{
			Interval:          getEnvAsDuration("POLL_INTERVAL", 10*time.Second),
			MaxInterval:       getEnvAsDuration("POLL_MAX_INTERVAL", 60*time.Second),
			BackoffMultiplier: getEnvAsFloat("POLL_BACKOFF_MULTIPLIER", 1.5),
			MaxAttempts:       getEnvAsInt("POLL_MAX_ATTEMPTS", 60),
			Timeout:           getEnvAsDuration("POLL_TIMEOUT", 10*time.Minute),
		},
		Database: DatabaseConfig{
			Type:     getEnv("DB_TYPE", "sqlite"),
			Path:     getEnv("DB_PATH", "./reporting_sync.db"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "reporting_sync"),
			Username: getEnv("DB_USERNAME", ""),
			Password: getEnv("DB_PASSWORD", ""),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Kafka: loadKafkaConfig(),
		Redis: RedisConfig{
			Enabled:   getEnvAsBool("REDIS_ENABLED", false),
			Address:   getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "reporting-sync:"),
			LockTTL:   getEnvAsDuration("REDIS_LOCK_TTL", 30*time.Minute),
		},
		Server: ServerConfig{
			Port:            getEnvAsInt("PORT", 5000),
			Host:            getEnv("HOST", "0.0.0.0"),
			ReadTimeout:     getEnvAsDuration("READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
			Port:    getEnvAsInt("METRICS_PORT", 8080),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
		Schedule: getEnv("SYNC_SCHEDULE", "*/10 * * * *"),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func loadKafkaConfig() KafkaConfig {
	brokers := getEnvAsStringSlice("KAFKA_BROKERS", []string{})
	return KafkaConfig{
		Enabled: len(brokers) > 0,
		Brokers: brokers,
		Topic:   getEnv("KAFKA_TOPIC", "reporting-sync.events"),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Reporting.BaseURL == "" {
		return fmt.Errorf("reporting base URL is required")
	}
	if c.Dataset.ID == "" {
		return fmt.Errorf("dataset id is required")
	}
	if c.Dataset.WindowSeconds < 1 {
		return fmt.Errorf("window seconds must be positive, got %d", c.Dataset.WindowSeconds)
	}

	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.Poll.BackoffMultiplier < 1 {
		return fmt.Errorf("poll backoff multiplier must be >= 1, got %v", c.Poll.BackoffMultiplier)
	}
	if c.Poll.MaxAttempts < 1 {
		return fmt.Errorf("poll max attempts must be positive, got %d", c.Poll.MaxAttempts)
	}

	switch c.Database.Type {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for SQLite")
		}
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database type: %s (must be sqlite or postgres)", c.Database.Type)
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka topic is required when kafka is enabled")
		}
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return fmt.Errorf("invalid metrics port: %d", c.Metrics.Port)
	}

	return nil
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsStringSlice splits a comma-separated value, trimming
// whitespace and dropping empty entries.
func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
