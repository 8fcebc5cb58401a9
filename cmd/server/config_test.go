package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	newCmd(cfg)

	assert.Equal(t, 8080, cfg.port)
	assert.Equal(t, "memory", cfg.storage)
	assert.Equal(t, 24*time.Hour, cfg.sessionDuration)
	assert.Equal(t, 15*time.Second, cfg.readTimeout)
	assert.Equal(t, 15*time.Second, cfg.writeTimeout)
	assert.Equal(t, 30*time.Second, cfg.shutdownTimeout)
	assert.NoError(t, cfg.validate())
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("BEFOREAFTER_PORT", "9090")
	t.Setenv("BEFOREAFTER_STORAGE", "sqlite")
	t.Setenv("BEFOREAFTER_SQLITE_PATH", "/tmp/scores.db")
	t.Setenv("BEFOREAFTER_SESSION_DURATION", "2h")
	t.Setenv("BEFOREAFTER_WRITE_TIMEOUT", "45s")

	cfg := &Config{}
	newCmd(cfg)

	assert.Equal(t, 9090, cfg.port)
	assert.Equal(t, "sqlite", cfg.storage)
	assert.Equal(t, "/tmp/scores.db", cfg.sqlitePath)
	assert.Equal(t, 2*time.Hour, cfg.sessionDuration)
	assert.Equal(t, 45*time.Second, cfg.writeTimeout)
}

func TestFlagsParse(t *testing.T) {
	cfg := &Config{}
	cmd := newCmd(cfg)

	require.NoError(t, cmd.ParseFlags([]string{"--port", "7000", "--log-level", "debug", "--catalog", "items.yaml"}))
	assert.Equal(t, 7000, cfg.port)
	assert.Equal(t, "items.yaml", cfg.catalog)
	assert.NoError(t, cfg.validate())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			port:            8080,
			storage:         "memory",
			sessionDuration: time.Hour,
			logLevel:        "info",
			readTimeout:     time.Second,
			writeTimeout:    time.Second,
			shutdownTimeout: time.Second,
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port too low", func(c *Config) { c.port = 0 }},
		{"port too high", func(c *Config) { c.port = 70000 }},
		{"unknown storage", func(c *Config) { c.storage = "postgres" }},
		{"redis without url", func(c *Config) { c.storage = "redis" }},
		{"sqlite without path", func(c *Config) { c.storage = "sqlite" }},
		{"zero session duration", func(c *Config) { c.sessionDuration = 0 }},
		{"bad log level", func(c *Config) { c.logLevel = "loud" }},
		{"zero write timeout", func(c *Config) { c.writeTimeout = 0 }},
		{"negative shutdown timeout", func(c *Config) { c.shutdownTimeout = -time.Second }},
	}

	base := valid()
	require.NoError(t, base.validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.Error(t, cfg.validate())
		})
	}
}
