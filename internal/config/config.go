package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort      string
	ShutdownTimeout time.Duration

	DBDriver    string
	DatabaseDSN string
	ResetDB     bool

	RedisAddr string
	RedisDB   int
	RedisPass string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	VerificationCodeTTL time.Duration
	SMTPHost            string
	SMTPPort            int
	SMTPUser            string
	SMTPPass            string
	MailFrom            string

	LogLevel string
	LogMode  string
	LogFile  string

	CORSAllowedOrigins []string
	SwaggerHost        string
}

// Load builds Config from environment with sensible defaults. A .env file in
// the working directory is honoured when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8000"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),

		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", DriverMySQL)),
		DatabaseDSN: getEnv("DATABASE_DSN", "user:password@tcp(localhost:3306)/stockpilot?charset=utf8mb4&parseTime=True&loc=Local"),
		ResetDB:     getEnvBool("RESET_DB", false),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:   getEnvInt("REDIS_DB", 0),
		RedisPass: os.Getenv("REDIS_PASSWORD"),

		JWTSecret:       getEnv("JWT_SECRET", "change-me"),
		AccessTokenTTL:  getEnvDuration("JWT_ACCESS_TTL", 10*time.Hour),
		RefreshTokenTTL: getEnvDuration("JWT_REFRESH_TTL", 24*time.Hour),

		VerificationCodeTTL: getEnvDuration("VERIFICATION_CODE_TTL", 10*time.Minute),
		SMTPHost:            os.Getenv("SMTP_HOST"),
		SMTPPort:            getEnvInt("SMTP_PORT", 587),
		SMTPUser:            os.Getenv("SMTP_USER"),
		SMTPPass:            os.Getenv("SMTP_PASSWORD"),
		MailFrom:            getEnv("MAIL_FROM", "no-reply@stockpilot.local"),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogMode:  strings.ToLower(getEnv("LOG_MODE", "development")),
		LogFile:  os.Getenv("LOG_FILE"),

		CORSAllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		SwaggerHost:        os.Getenv("SWAGGER_HOST"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	switch c.DBDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (must be mysql, postgres or sqlite)", c.DBDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.LogMode == "production" && c.JWTSecret == "change-me" {
		return fmt.Errorf("JWT_SECRET must be set in production mode")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 || c.VerificationCodeTTL <= 0 {
		return fmt.Errorf("token and verification TTLs must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}
	if c.LogMode != "development" && c.LogMode != "production" {
		return fmt.Errorf("invalid log mode: %s (must be development or production)", c.LogMode)
	}

	return nil
}

// MailEnabled reports whether an SMTP relay is configured.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvSlice(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
