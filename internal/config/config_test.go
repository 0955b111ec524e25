package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("BIGMODEL_API_KEY", "")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, 168*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "glm-4.6", cfg.AIModel)
	assert.False(t, cfg.AIEnabled())
	assert.Equal(t, "127.0.0.1:9090", cfg.TCPAddr)
	assert.Equal(t, "127.0.0.1:7070", cfg.UDPAddr)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "postgres://localhost/reading")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("BIGMODEL_API_KEY", "k")
	t.Setenv("ADMIN_EMAILS", " Ops@Example.com, ,root@example.com")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.AIEnabled())
	assert.Equal(t, []string{"ops@example.com", "root@example.com"}, cfg.AdminEmails)
}

func TestValidateRejects(t *testing.T) {
	base := Config{
		Env: "development", DBDriver: "sqlite3", DBDSN: "x.db",
		JWTSecret: "s", TokenTTL: time.Hour, ReminderAt: "20:00",
	}
	require.NoError(t, base.Validate())

	cases := map[string]func(c *Config){
		"bad env":            func(c *Config) { c.Env = "qa" },
		"bad driver":         func(c *Config) { c.DBDriver = "mysql" },
		"empty dsn":          func(c *Config) { c.DBDSN = "" },
		"dev secret in prod": func(c *Config) { c.Env = "production"; c.JWTSecret = devJWTSecret },
		"bad reminder":       func(c *Config) { c.ReminderAt = "8pm" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestFromEnvBadDuration(t *testing.T) {
	t.Setenv("TOKEN_TTL", "forever")
	_, err := FromEnv()
	assert.Error(t, err)
}
