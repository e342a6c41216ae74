package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds application configuration.
type Config struct {
	Port            string   `env:"PORT" envDefault:"8080"`
	Env             string   `env:"ENV" envDefault:"dev"`
	CORSAllowOrigin []string `env:"CORS_ALLOW_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
	DatabaseURL     string   `env:"DATABASE_URL"`
	RedisURL        string   `env:"REDIS_URL"`

	JWTSecret      string        `env:"JWT_SECRET"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	OTPTTL         time.Duration `env:"OTP_TTL" envDefault:"5m"`
	OTPMaxAttempts int           `env:"OTP_MAX_ATTEMPTS" envDefault:"5"`
	OTPPerMinute   float64       `env:"RATE_LIMIT_OTP_PER_MIN" envDefault:"3"`

	OTPPerIPPerMinute float64 `env:"RATE_LIMIT_OTP_PER_IP_PER_MIN" envDefault:"10"`
	ReadPerMinute     float64 `env:"RATE_LIMIT_READ_PER_MIN" envDefault:"120"`
	WritePerMinute    float64 `env:"RATE_LIMIT_WRITE_PER_MIN" envDefault:"60"`

	SMSProvider string `env:"SMS_PROVIDER" envDefault:"log"`
	AWSRegion   string `env:"AWS_REGION" envDefault:"me-central-1"`
	SMSSenderID string `env:"SMS_SENDER_ID"`

	Timezone string `env:"APP_TIMEZONE" envDefault:"UTC"`
	Locale   string `env:"APP_LOCALE" envDefault:"en"`
}

// Load reads configuration from .env files and environment variables.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.SMSProvider = normalizeSMSProvider(cfg.SMSProvider)
	cfg.CORSAllowOrigin = splitAndTrim(cfg.CORSAllowOrigin)

	if cfg.Env == "production" {
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required in production")
		}
		if strings.TrimSpace(cfg.JWTSecret) == "" {
			return Config{}, fmt.Errorf("JWT_SECRET is required in production")
		}
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		if !cfg.IsDevLike() {
			return Config{}, fmt.Errorf("JWT_SECRET is required outside dev")
		}
		cfg.JWTSecret = "dev-secret"
	}
	return cfg, nil
}

// Location resolves the configured timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsDevLike reports whether in-memory fallbacks are acceptable.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func splitAndTrim(parts []string) []string {
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeSMSProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sns":
		return "sns"
	default:
		return "log"
	}
}
