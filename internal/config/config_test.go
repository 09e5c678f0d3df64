package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		original := os.Getenv(key)
		os.Unsetenv(key)
		t.Cleanup(func() {
			if original != "" {
				os.Setenv(key, original)
			} else {
				os.Unsetenv(key)
			}
		})
	}
}

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	original := os.Getenv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if original != "" {
			os.Setenv(key, original)
		} else {
			os.Unsetenv(key)
		}
	})
}

var allEnvVars = []string{
	"REPORTING_BASE_URL", "REPORTING_ACCESS_TOKEN", "REPORTING_APP_ID",
	"REPORTING_CLIENT_ID", "REPORTING_API_VERSION",
	"DATASET_ID", "ATTRIBUTE_IDS", "WINDOW_SECONDS", "INITIAL_START_TIME",
	"POLL_INTERVAL", "POLL_MAX_INTERVAL", "POLL_BACKOFF_MULTIPLIER",
	"POLL_MAX_ATTEMPTS", "POLL_TIMEOUT",
	"DB_TYPE", "DB_PATH", "DB_HOST", "DB_PORT", "DB_NAME",
	"KAFKA_BROKERS", "KAFKA_TOPIC",
	"REDIS_ENABLED", "REDIS_ADDRESS", "REDIS_LOCK_TTL",
	"PORT", "METRICS_PORT", "SYNC_SCHEDULE",
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t, allEnvVars...)
	setEnv(t, "DATASET_ID", "conversation")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Reporting.BaseURL != "https://api.intercom.io" {
		t.Errorf("Expected default base URL 'https://api.intercom.io', got %s", config.Reporting.BaseURL)
	}

	if config.Dataset.WindowSeconds != 3600 {
		t.Errorf("Expected default window seconds 3600, got %d", config.Dataset.WindowSeconds)
	}

	if config.Dataset.InitialStartTime != 0 {
		t.Errorf("Expected default initial start time 0, got %d", config.Dataset.InitialStartTime)
	}

	if len(config.Dataset.AttributeIDs) != 0 {
		t.Errorf("Expected no attribute IDs by default, got %v", config.Dataset.AttributeIDs)
	}

	if config.Poll.Interval != 10*time.Second {
		t.Errorf("Expected default poll interval 10s, got %v", config.Poll.Interval)
	}

	if config.Poll.BackoffMultiplier != 1.5 {
		t.Errorf("Expected default backoff multiplier 1.5, got %v", config.Poll.BackoffMultiplier)
	}

	if config.Database.Type != "sqlite" {
		t.Errorf("Expected default database type 'sqlite', got %s", config.Database.Type)
	}

	if config.Kafka.Enabled {
		t.Error("Expected Kafka to be disabled by default")
	}

	if config.Redis.Enabled {
		t.Error("Expected Redis to be disabled by default")
	}

	if config.Server.Port != 5000 {
		t.Errorf("Expected default port 5000, got %d", config.Server.Port)
	}

	if config.Schedule != "*/10 * * * *" {
		t.Errorf("Expected default schedule '*/10 * * * *', got %s", config.Schedule)
	}
}

func TestLoadConfigWithEnvironmentVariables(t *testing.T) {
	clearEnv(t, allEnvVars...)
	setEnv(t, "DATASET_ID", "company")
	setEnv(t, "ATTRIBUTE_IDS", "id, name , created_at,,")
	setEnv(t, "WINDOW_SECONDS", "86400")
	setEnv(t, "INITIAL_START_TIME", "1717480000")
	setEnv(t, "POLL_INTERVAL", "2s")
	setEnv(t, "POLL_MAX_ATTEMPTS", "10")
	setEnv(t, "DB_TYPE", "postgres")
	setEnv(t, "DB_HOST", "db.example.com")
	setEnv(t, "DB_PORT", "5433")
	setEnv(t, "KAFKA_BROKERS", "broker1:9092,broker2:9092")
	setEnv(t, "SYNC_SCHEDULE", "0 * * * *")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Dataset.ID != "company" {
		t.Errorf("Expected dataset id 'company', got %s", config.Dataset.ID)
	}

	want := []string{"id", "name", "created_at"}
	if len(config.Dataset.AttributeIDs) != len(want) {
		t.Fatalf("Expected %d attribute IDs, got %v", len(want), config.Dataset.AttributeIDs)
	}
	for i, attr := range want {
		if config.Dataset.AttributeIDs[i] != attr {
			t.Errorf("Expected attribute ID %q at %d, got %q", attr, i, config.Dataset.AttributeIDs[i])
		}
	}

	if config.Dataset.WindowSeconds != 86400 {
		t.Errorf("Expected window seconds 86400, got %d", config.Dataset.WindowSeconds)
	}

	if config.Dataset.InitialStartTime != 1717480000 {
		t.Errorf("Expected initial start time 1717480000, got %d", config.Dataset.InitialStartTime)
	}

	if config.Poll.Interval != 2*time.Second {
		t.Errorf("Expected poll interval 2s, got %v", config.Poll.Interval)
	}

	if config.Poll.MaxAttempts != 10 {
		t.Errorf("Expected 10 poll max attempts, got %d", config.Poll.MaxAttempts)
	}

	if config.Database.Type != "postgres" {
		t.Errorf("Expected database type 'postgres', got %s", config.Database.Type)
	}

	expectedConn := "host=db.example.com port=5433 user= password= dbname=reporting_sync sslmode=disable"
	if config.Database.ConnectionString() != expectedConn {
		t.Errorf("Unexpected connection string: %s", config.Database.ConnectionString())
	}

	if !config.Kafka.Enabled {
		t.Error("Expected Kafka to be enabled when brokers are set")
	}
	if len(config.Kafka.Brokers) != 2 {
		t.Errorf("Expected 2 Kafka brokers, got %v", config.Kafka.Brokers)
	}

	if config.Schedule != "0 * * * *" {
		t.Errorf("Expected schedule '0 * * * *', got %s", config.Schedule)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Reporting: ReportingConfig{BaseURL: "https://api.example.com"},
			Dataset:   DatasetConfig{ID: "conversation", WindowSeconds: 3600},
			Poll: PollSettings{
				Interval:          10 * time.Second,
				MaxInterval:       time.Minute,
				BackoffMultiplier: 1.5,
				MaxAttempts:       60,
				Timeout:           10 * time.Minute,
			},
			Database: DatabaseConfig{Type: "sqlite", Path: "./test.db"},
			Server:   ServerConfig{Port: 5000},
			Metrics:  MetricsConfig{Enabled: true, Port: 8080},
		}
	}

	if err := base().Validate(); err != nil {
		t.Errorf("Expected valid config, got error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing base URL", func(c *Config) { c.Reporting.BaseURL = "" }},
		{"missing dataset id", func(c *Config) { c.Dataset.ID = "" }},
		{"zero window", func(c *Config) { c.Dataset.WindowSeconds = 0 }},
		{"zero poll interval", func(c *Config) { c.Poll.Interval = 0 }},
		{"multiplier below one", func(c *Config) { c.Poll.BackoffMultiplier = 0.5 }},
		{"zero max attempts", func(c *Config) { c.Poll.MaxAttempts = 0 }},
		{"unsupported database", func(c *Config) { c.Database.Type = "mysql" }},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }},
		{"kafka without brokers", func(c *Config) { c.Kafka.Enabled = true }},
		{"invalid server port", func(c *Config) { c.Server.Port = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := base()
			tt.mutate(config)
			if err := config.Validate(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}
