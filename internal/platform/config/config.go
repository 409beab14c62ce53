package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr                   string
	DatabaseURL            string
	Environment            string
	SessionSecret          string
	SessionTTL             time.Duration
	DataEncryptionKey      string
	AzureClientID          string
	AzureTenantID          string
	AzureClientSecret      string
	AzureRedirectURL       string
	GraphBaseURL           string
	DirectoryTimeout       time.Duration
	PMDashboardAllStatuses bool
	EmailEnabled           bool
	EmailFrom              string
	SMTPHost               string
	SMTPPort               int
	SMTPUser               string
	SMTPPassword           string
	SMTPUseTLS             bool
	RunMigrations          bool
	MetricsEnabled         bool
}

func Load() Config {
	return Config{
		Addr:                   getEnv("APP_ADDR", ":8080"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		Environment:            getEnv("APP_ENV", "development"),
		SessionSecret:          getEnv("SESSION_SECRET", ""),
		SessionTTL:             getEnvDuration("SESSION_TTL", 12*time.Hour),
		DataEncryptionKey:      getEnv("DATA_ENCRYPTION_KEY", ""),
		AzureClientID:          getEnv("AZURE_CLIENT_ID", ""),
		AzureTenantID:          getEnv("AZURE_TENANT_ID", ""),
		AzureClientSecret:      getEnv("AZURE_CLIENT_SECRET", ""),
		AzureRedirectURL:       getEnv("AZURE_REDIRECT_URL", "http://localhost:8080/api/v1/auth/redirect"),
		GraphBaseURL:           getEnv("GRAPH_BASE_URL", "https://graph.microsoft.com/v1.0"),
		DirectoryTimeout:       getEnvDuration("DIRECTORY_TIMEOUT", 5*time.Second),
		PMDashboardAllStatuses: getEnvBool("PM_DASHBOARD_ALL_STATUSES", false),
		EmailEnabled:           getEnvBool("EMAIL_ENABLED", false),
		EmailFrom:              getEnv("EMAIL_FROM", "no-reply@example.com"),
		SMTPHost:               getEnv("SMTP_HOST", ""),
		SMTPPort:               getEnvInt("SMTP_PORT", 587),
		SMTPUser:               getEnv("SMTP_USER", ""),
		SMTPPassword:           getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:             getEnvBool("SMTP_USE_TLS", true),
		RunMigrations:          getEnvBool("RUN_MIGRATIONS", true),
		MetricsEnabled:         getEnvBool("METRICS_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.SessionTTL < time.Minute {
		return fmt.Errorf("SESSION_TTL must be at least one minute")
	}
	if c.DirectoryTimeout <= 0 {
		return fmt.Errorf("DIRECTORY_TIMEOUT must be positive")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.SessionSecret) == "" {
			return fmt.Errorf("SESSION_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.AzureClientSecret) == "" {
			return fmt.Errorf("AZURE_CLIENT_SECRET must be set in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for session encryption at rest")
		}
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}
