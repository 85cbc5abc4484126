package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // containers often ship without zoneinfo

	"github.com/joho/godotenv"
)

// Recurring engine variants.
const (
	RecurringModeDirect = "direct"
	RecurringModeExpand = "expand"
)

// Notification failure policies.
const (
	FailurePolicyRetry    = "retry"
	FailurePolicyMarkSent = "mark_sent"
)

// Month-day clamp policies.
const (
	ClampLastDay  = "clamp"
	ClampOverflow = "overflow"
)

// Classifier providers.
const (
	ClassifierDify   = "dify"
	ClassifierGemini = "gemini"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns the PostgreSQL connection string used by gorm.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// URL returns the postgres:// URL used by golang-migrate.
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// Config holds application configuration. It is loaded once at startup and
// handed to constructors; nothing reads the environment after Load returns.
type Config struct {
	Env  string
	Port string

	Database DatabaseConfig

	// Calendar
	Timezone      string
	Location      *time.Location
	MonthDayClamp string

	// Reminders
	RecurringMode       string
	NotifyFailurePolicy string

	// Dashboard
	JWTSecret        string
	JWTExpirationDur time.Duration
	AuthTokenTTL     time.Duration
	DashboardURL     string

	// Maintenance trigger
	CronSecret        string
	MaintenanceAPIKey string

	// Classifier
	ClassifierProvider string
	DifyAPIURL         string
	DifyAPIKey         string
	GeminiAPIKey       string
	GeminiModel        string

	// WhatsApp gateway
	EvolutionAPIURL       string
	EvolutionAPIKey       string
	EvolutionInstanceName string

	// Redis (optional)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	HTTPClientTimeout time.Duration
}

// Load loads configuration from environment variables and validates it.
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "meugestor"),
			Password: getEnv("DB_PASSWORD", "meugestor"),
			Name:     getEnv("DB_NAME", "meugestor"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},

		Timezone:      getEnv("TIMEZONE", "America/Sao_Paulo"),
		MonthDayClamp: getEnv("MONTH_DAY_CLAMP", ClampLastDay),

		RecurringMode:       getEnv("RECURRING_MODE", RecurringModeDirect),
		NotifyFailurePolicy: getEnv("NOTIFY_FAILURE_POLICY", FailurePolicyRetry),

		JWTSecret:    getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		DashboardURL: getEnv("DASHBOARD_URL", ""),

		CronSecret:        getEnv("CRON_SECRET", ""),
		MaintenanceAPIKey: getEnv("MAINTENANCE_API_KEY", ""),

		ClassifierProvider: getEnv("CLASSIFIER_PROVIDER", ClassifierDify),
		DifyAPIURL:         strings.TrimRight(getEnv("DIFY_API_URL", ""), "/"),
		DifyAPIKey:         getEnv("DIFY_API_KEY", ""),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.5-flash-lite"),

		EvolutionAPIURL:       strings.TrimRight(getEnv("EVOLUTION_API_URL", ""), "/"),
		EvolutionAPIKey:       getEnv("EVOLUTION_API_KEY", ""),
		EvolutionInstanceName: getEnv("EVOLUTION_INSTANCE_NAME", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
	}

	var err error
	if cfg.JWTExpirationDur, err = getDuration("JWT_EXPIRES_IN", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.AuthTokenTTL, err = getDuration("AUTH_TOKEN_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.HTTPClientTimeout, err = getDuration("HTTP_CLIENT_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated settings and resolves the timezone.
func (c *Config) Validate() error {
	var errs []error

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err))
	} else {
		c.Location = loc
	}

	switch c.MonthDayClamp {
	case ClampLastDay, ClampOverflow:
	default:
		errs = append(errs, fmt.Errorf("invalid MONTH_DAY_CLAMP %q (use %s or %s)", c.MonthDayClamp, ClampLastDay, ClampOverflow))
	}

	switch c.RecurringMode {
	case RecurringModeDirect, RecurringModeExpand:
	default:
		errs = append(errs, fmt.Errorf("invalid RECURRING_MODE %q (use %s or %s)", c.RecurringMode, RecurringModeDirect, RecurringModeExpand))
	}

	switch c.NotifyFailurePolicy {
	case FailurePolicyRetry, FailurePolicyMarkSent:
	default:
		errs = append(errs, fmt.Errorf("invalid NOTIFY_FAILURE_POLICY %q (use %s or %s)", c.NotifyFailurePolicy, FailurePolicyRetry, FailurePolicyMarkSent))
	}

	switch c.ClassifierProvider {
	case ClassifierDify:
		if c.DifyAPIURL == "" || c.DifyAPIKey == "" {
			errs = append(errs, errors.New("DIFY_API_URL and DIFY_API_KEY are required for the dify classifier"))
		}
	case ClassifierGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini classifier"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid CLASSIFIER_PROVIDER %q", c.ClassifierProvider))
	}

	if c.EvolutionAPIURL == "" || c.EvolutionInstanceName == "" {
		errs = append(errs, errors.New("EVOLUTION_API_URL and EVOLUTION_INSTANCE_NAME are required"))
	}

	if c.Env == "production" && c.JWTSecret == "fallback-secret-key-for-dev-only" {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}

	return errors.Join(errs...)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return d, nil
}
