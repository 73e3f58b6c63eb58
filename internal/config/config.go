// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const defaultDatabaseURL = "sqlite://./visibility.db"

type Config struct {
	Port              string
	Environment       string
	InngestEventKey   string
	InngestSigningKey string
	OpenAIAPIKey      string
	AnthropicAPIKey   string
	PerplexityAPIKey  string
	RedisURL          string
	CachePath         string
	LogLevel          string
	LogFormat         string
	SlackWebhookURL   string
	ScheduledProfiles []string
	Database          DatabaseConfig
	Oracle            OracleConfig
}

// DatabaseConfig holds the snapshot store connection settings
type DatabaseConfig struct {
	URL             string
	Driver          string // postgres or sqlite
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

// OracleConfig tunes the competitor-extraction oracle
type OracleConfig struct {
	Model       string
	Concurrency int
	Retries     int
	Temperature float64
}

func Load() *Config {
	config := &Config{
		Port:              getEnv("PORT", "8000"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		InngestEventKey:   os.Getenv("INNGEST_EVENT_KEY"),
		InngestSigningKey: os.Getenv("INNGEST_SIGNING_KEY"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:   firstEnv("ANTHROPIC_API_KEY", "CLAUDE_API_KEY"),
		PerplexityAPIKey:  os.Getenv("PERPLEXITY_API_KEY"),
		RedisURL:          os.Getenv("REDIS_URL"),
		CachePath:         getEnv("CACHE_PATH", "./visibility-cache.db"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "console"),
		SlackWebhookURL:   os.Getenv("SLACK_WEBHOOK_URL"),
		ScheduledProfiles: splitList(os.Getenv("SCHEDULED_PROFILES")),
		Oracle: OracleConfig{
			Model:       getEnv("ORACLE_MODEL", "gpt-4o-mini"),
			Concurrency: clamp(getEnvInt("ORACLE_CONCURRENCY", 3), 1, 5),
			Retries:     getEnvInt("ORACLE_RETRIES", 2),
			Temperature: getEnvFloat("ORACLE_TEMPERATURE", 0.2),
		},
	}

	dbConfig, err := parseDatabaseConfig(getEnv("DATABASE_URL", defaultDatabaseURL))
	if err != nil {
		dbConfig, _ = parseDatabaseConfig(defaultDatabaseURL)
	}
	config.Database = dbConfig

	return config
}

// parseDatabaseConfig picks the sql driver from the URL scheme. Postgres URLs
// are passed to lib/pq as-is; sqlite://path becomes a file path.
func parseDatabaseConfig(dbURL string) (DatabaseConfig, error) {
	config := DatabaseConfig{
		URL:             dbURL,
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 25),
		ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 300),
	}

	switch {
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		config.Driver = "postgres"
		config.DSN = dbURL
	case strings.HasPrefix(dbURL, "sqlite://"):
		config.Driver = "sqlite"
		config.DSN = strings.TrimPrefix(dbURL, "sqlite://")
		// SQLite allows a single writer.
		config.MaxOpenConns = 1
		config.MaxIdleConns = 1
	default:
		return DatabaseConfig{}, fmt.Errorf("invalid DATABASE_URL %q: expected postgres:// or sqlite://", dbURL)
	}

	if config.DSN == "" {
		return DatabaseConfig{}, fmt.Errorf("invalid DATABASE_URL %q: empty database", dbURL)
	}
	return config, nil
}

// HasProviderKey reports whether an API key is configured for provider.
func (c *Config) HasProviderKey(provider string) bool {
	return c.ProviderKey(provider) != ""
}

// ProviderKey returns the API key for a provider name.
func (c *Config) ProviderKey(provider string) string {
	switch strings.ToLower(provider) {
	case "openai":
		return c.OpenAIAPIKey
	case "claude", "anthropic":
		return c.AnthropicAPIKey
	case "perplexity":
		return c.PerplexityAPIKey
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

// splitList splits a comma separated env value, dropping blanks.
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
