package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	AppEnv            string        `toml:"app_env"`
	Port              string        `toml:"port"`
	DatabaseURL       string        `toml:"database_url"`
	JWTSecret         string        `toml:"jwt_secret"`
	SessionTTL        time.Duration `toml:"session_ttl"`
	SentryDSN         string        `toml:"sentry_dsn"`
	FCMServiceAccount string        `toml:"fcm_service_account"`
	ExpenseRateWindow time.Duration `toml:"expense_rate_window"`
	ExpenseRateLimit  int           `toml:"expense_rate_limit"`
	CORSOrigins       string        `toml:"cors_origins"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		AppEnv:            "development",
		Port:              "8080",
		DatabaseURL:       "calculon.db",
		JWTSecret:         defaultJWTSecret,
		SessionTTL:        7 * 24 * time.Hour,
		ExpenseRateWindow: time.Minute,
		ExpenseRateLimit:  5,
		CORSOrigins:       "*",
	}
}

// Load layers defaults, an optional TOML file and the environment, in that
// order. An empty path falls back to CALCULON_CONFIG. A .env file in the
// working directory is loaded into the environment when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv("CALCULON_CONFIG")
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg.AppEnv = getEnv("APP_ENV", cfg.AppEnv)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.SentryDSN = getEnv("SENTRY_DSN", cfg.SentryDSN)
	cfg.FCMServiceAccount = getEnv("FCM_SERVICE_ACCOUNT", cfg.FCMServiceAccount)
	cfg.CORSOrigins = getEnv("CORS_ORIGINS", cfg.CORSOrigins)

	var err error
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", cfg.SessionTTL); err != nil {
		return nil, err
	}
	if cfg.ExpenseRateWindow, err = getDuration("EXPENSE_RATE_WINDOW", cfg.ExpenseRateWindow); err != nil {
		return nil, err
	}
	if cfg.ExpenseRateLimit, err = getInt("EXPENSE_RATE_LIMIT", cfg.ExpenseRateLimit); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// UsesDefaultSecret reports whether tokens are signed with the built-in secret.
func (c *Config) UsesDefaultSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
