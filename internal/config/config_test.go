package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "DB_DRIVER", "JWT_ACCESS_TTL", "JWT_REFRESH_TTL", "LOG_LEVEL", "LOG_MODE", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.ServerPort)
	assert.Equal(t, DriverMySQL, cfg.DBDriver)
	assert.Equal(t, 10*time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.MailEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DATABASE_DSN", "file::memory:")
	t.Setenv("JWT_ACCESS_TTL", "2h")
	t.Setenv("RESET_DB", "true")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, 2*time.Hour, cfg.AccessTokenTTL)
	assert.True(t, cfg.ResetDB)
	assert.True(t, cfg.MailEnabled())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ServerPort:          "8000",
			DBDriver:            DriverPostgres,
			DatabaseDSN:         "host=localhost",
			JWTSecret:           "secret",
			AccessTokenTTL:      time.Hour,
			RefreshTokenTTL:     time.Hour,
			VerificationCodeTTL: time.Minute,
			LogLevel:            "debug",
			LogMode:             "production",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.DBDriver = "oracle" }, wantErr: "unsupported DB_DRIVER"},
		{name: "empty dsn", mutate: func(c *Config) { c.DatabaseDSN = "" }, wantErr: "DATABASE_DSN"},
		{name: "default secret in production", mutate: func(c *Config) { c.JWTSecret = "change-me" }, wantErr: "JWT_SECRET"},
		{name: "zero ttl", mutate: func(c *Config) { c.AccessTokenTTL = 0 }, wantErr: "TTLs"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: "log level"},
		{name: "bad log mode", mutate: func(c *Config) { c.LogMode = "staging" }, wantErr: "log mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
