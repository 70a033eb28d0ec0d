package config

import (
	"fmt"
	"os"
	"strings"
)

// EnvProduction disables sandbox-only behavior (test clocks)
const EnvProduction = "production"

// Config holds application configuration
type Config struct {
	Port        string
	DBConn      string
	LogLevel    string
	JWTSecret   string
	Environment string

	PlaidBaseURL  string
	PlaidClientID string
	PlaidSecret   string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string

	KafkaBrokers []string
	KafkaTopic   string

	DailyCheckSchedule string
	MigrationsURL      string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DBConn:      getEnv("DB_CONN", "host=localhost port=5432 user=guardian password=guardian dbname=guardian sslmode=disable"),
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		Environment: getEnv("ENVIRONMENT", "sandbox"),

		PlaidBaseURL:  getEnv("PLAID_BASE_URL", "https://sandbox.plaid.com"),
		PlaidClientID: getEnv("PLAID_CLIENT_ID", ""),
		PlaidSecret:   getEnv("PLAID_SECRET", ""),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SenderEmail:  getEnv("SENDER_EMAIL", "no-reply@guardian.app"),

		KafkaTopic: getEnv("KAFKA_TOPIC", "circle_events"),

		DailyCheckSchedule: getEnv("DAILY_CHECK_SCHEDULE", "0 6 * * *"),
		MigrationsURL:      getEnv("MIGRATIONS_URL", "file://migrations"),
	}

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Environment == EnvProduction && (cfg.PlaidClientID == "" || cfg.PlaidSecret == "") {
		return nil, fmt.Errorf("PLAID_CLIENT_ID and PLAID_SECRET are required in production")
	}

	return cfg, nil
}

// IsProduction reports whether the service runs against the live vendor
// environment. Sandbox-only features (test clocks) are disabled when true.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
