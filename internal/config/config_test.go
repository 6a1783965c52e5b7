package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, yaml string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.yml"), []byte(yaml), 0o644))
	t.Chdir(dir)
}

func TestLoad_FromFile(t *testing.T) {
	writeConfig(t, `
app:
  port: 9090
  client_url: https://blog.example.com
database:
  dsn: "host=db user=u dbname=blog"
jwt:
  secret: file-secret
  ttl: 24h
otp:
  ttl: 10m
cleanup:
  interval: 2m
`)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, "https://blog.example.com", cfg.ClientURL)
	require.Equal(t, "file-secret", cfg.JWTSecret)
	require.Equal(t, 24*time.Hour, cfg.TokenTTL)
	require.Equal(t, 10*time.Minute, cfg.OTPTTL)
	require.Equal(t, 2*time.Minute, cfg.CleanupInterval)
	require.False(t, cfg.BypassRateLimiting)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	writeConfig(t, `
database:
  dsn: "host=db user=u dbname=blog"
jwt:
  secret: file-secret
`)
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("PORT", "3001")
	t.Setenv("BYPASS_RATE_LIMITING", "true")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "env-secret", cfg.JWTSecret)
	require.Equal(t, "3001", cfg.Port)
	require.True(t, cfg.BypassRateLimiting)
}

func TestLoad_MissingFileUsesEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("DATABASE_DSN", "host=db user=u dbname=blog")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, 168*time.Hour, cfg.TokenTTL)
	require.Equal(t, 5*time.Minute, cfg.OTPTTL)
	require.Equal(t, time.Minute, cfg.CleanupInterval)
}

func TestLoad_RequiredValues(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("DATABASE_DSN", "host=db user=u dbname=blog")
	_, err := Load()
	require.ErrorContains(t, err, "JWT secret")

	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("DATABASE_DSN", "")
	_, err = Load()
	require.ErrorContains(t, err, "DSN")
}

func TestLoad_BadDuration(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("DATABASE_DSN", "host=db")
	t.Setenv("OTP_TTL", "five minutes")

	_, err := Load()
	require.ErrorContains(t, err, "OTP TTL")
}
