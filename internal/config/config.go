package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Port      int    `yaml:"port"`
	GinMode   string `yaml:"gin_mode"`
	ClientURL string `yaml:"client_url"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
	TTL    string `yaml:"ttl"`
}

type OTPConfig struct {
	TTL string `yaml:"ttl"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

type CleanupConfig struct {
	Interval string `yaml:"interval"`
}

type RateLimitConfig struct {
	Bypass bool `yaml:"bypass"`
}

type ConfigFile struct {
	App       AppConfig       `yaml:"app"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	OTP       OTPConfig       `yaml:"otp"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	Google    GoogleConfig    `yaml:"google"`
	Cleanup   CleanupConfig   `yaml:"cleanup"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type Config struct {
	Port      string
	GinMode   string
	ClientURL string

	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration

	OTPTTL time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	CleanupInterval time.Duration

	BypassRateLimiting bool
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Load reads config/config.yml and applies environment overrides. A missing
// file is not an error; everything then comes from the environment and
// defaults, which is how containers deploy it.
func Load() (*Config, error) {
	configFile, err := loadConfigFile("config/config.yml")
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		configFile = &ConfigFile{}
	}

	cfg := &Config{
		Port:               env("PORT", intOr(configFile.App.Port, "8080")),
		GinMode:            env("GIN_MODE", strOr(configFile.App.GinMode, "release")),
		ClientURL:          env("CLIENT_URL", strOr(configFile.App.ClientURL, "http://localhost:3000")),
		DSN:                env("DATABASE_DSN", configFile.Database.DSN),
		RedisAddr:          env("REDIS_ADDR", strOr(configFile.Redis.Addr, "localhost:6379")),
		RedisPassword:      env("REDIS_PASSWORD", configFile.Redis.Password),
		RedisDB:            configFile.Redis.DB,
		JWTSecret:          env("JWT_SECRET", configFile.JWT.Secret),
		JWTIssuer:          env("JWT_ISSUER", strOr(configFile.JWT.Issuer, "blogauth")),
		SMTPHost:           env("SMTP_HOST", configFile.SMTP.Host),
		SMTPUsername:       env("SMTP_USERNAME", configFile.SMTP.Username),
		SMTPPassword:       env("SMTP_PASSWORD", configFile.SMTP.Password),
		SMTPFrom:           env("SMTP_FROM", configFile.SMTP.From),
		GoogleClientID:     env("GOOGLE_CLIENT_ID", configFile.Google.ClientID),
		GoogleClientSecret: env("GOOGLE_CLIENT_SECRET", configFile.Google.ClientSecret),
		GoogleRedirectURL:  env("GOOGLE_REDIRECT_URL", configFile.Google.RedirectURL),
		BypassRateLimiting: env("BYPASS_RATE_LIMITING", boolStr(configFile.RateLimit.Bypass)) == "true",
	}

	if v := env("REDIS_DB", ""); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		cfg.RedisDB = db
	}

	cfg.SMTPPort = configFile.SMTP.Port
	if v := env("SMTP_PORT", ""); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
		}
		cfg.SMTPPort = port
	}
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 587
	}

	cfg.TokenTTL, err = parseDuration(env("TOKEN_TTL", strOr(configFile.JWT.TTL, "168h")), "token TTL")
	if err != nil {
		return nil, err
	}
	cfg.OTPTTL, err = parseDuration(env("OTP_TTL", strOr(configFile.OTP.TTL, "5m")), "OTP TTL")
	if err != nil {
		return nil, err
	}
	cfg.CleanupInterval, err = parseDuration(env("CLEANUP_INTERVAL", strOr(configFile.Cleanup.Interval, "60s")), "cleanup interval")
	if err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT secret is required (JWT_SECRET or jwt.secret)")
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required (DATABASE_DSN or database.dsn)")
	}

	return cfg, nil
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}

	return &config, nil
}

func parseDuration(s, what string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", what, s, err)
	}
	return d, nil
}

func strOr(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func intOr(v int, def string) string {
	if v != 0 {
		return strconv.Itoa(v)
	}
	return def
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
