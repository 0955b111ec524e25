package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "dev_secret_change_me"

type Config struct {
	Env         string
	LogLevel    string
	HTTPAddr    string
	TCPAddr     string
	UDPAddr     string
	GRPCAddr    string
	DBDriver    string
	DBDSN       string
	JWTSecret   string
	TokenTTL    time.Duration
	AIAPIURL    string
	AIModel     string
	AIAPIKey    string
	AITimeout   time.Duration
	ReminderAt  string
	AdminEmails []string
}

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		Env:        getEnv("APP_ENV", "development"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		HTTPAddr:   getEnv("HTTP_ADDR", ":4000"),
		TCPAddr:    getEnv("TCP_ADDR", "127.0.0.1:9090"),
		UDPAddr:    getEnv("UDP_ADDR", "127.0.0.1:7070"),
		GRPCAddr:   getEnv("GRPC_ADDR", ":50051"),
		DBDriver:   getEnv("DB_DRIVER", "sqlite3"),
		DBDSN:      getEnv("DB_DSN", "./data/readinghub.db"),
		JWTSecret:  getEnv("JWT_SECRET", devJWTSecret),
		AIAPIURL:   getEnv("AI_API_URL", "https://open.bigmodel.cn/api/paas/v4/chat/completions"),
		AIModel:    getEnv("AI_MODEL", "glm-4.6"),
		AIAPIKey:   os.Getenv("BIGMODEL_API_KEY"),
		ReminderAt: getEnv("REMINDER_AT", "20:00"),
	}
	for _, e := range strings.Split(os.Getenv("ADMIN_EMAILS"), ",") {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			cfg.AdminEmails = append(cfg.AdminEmails, e)
		}
	}

	var err error
	if cfg.TokenTTL, err = time.ParseDuration(getEnv("TOKEN_TTL", "168h")); err != nil {
		return nil, fmt.Errorf("TOKEN_TTL: %w", err)
	}
	if cfg.AITimeout, err = time.ParseDuration(getEnv("AI_TIMEOUT", "60s")); err != nil {
		return nil, fmt.Errorf("AI_TIMEOUT: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	if c.DBDriver != "sqlite3" && c.DBDriver != "postgres" {
		return errors.New("DB_DRIVER must be sqlite3 or postgres")
	}
	if c.DBDSN == "" {
		return errors.New("DB_DSN is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Env == "production" && c.JWTSecret == devJWTSecret {
		return errors.New("JWT_SECRET must be changed in production")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if _, err := time.Parse("15:04", c.ReminderAt); err != nil {
		return errors.New("REMINDER_AT must be HH:MM")
	}
	return nil
}

// AIEnabled reports whether the recommendation endpoints can call out.
func (c *Config) AIEnabled() bool {
	return c.AIAPIKey != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
