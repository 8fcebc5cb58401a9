package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mcoot/beforeafter/internal/api"
	"github.com/mcoot/beforeafter/internal/factory"
)

// Config holds the server's command-line and environment settings
type Config struct {
	host            string
	port            int
	storage         string
	redisURL        string
	sqlitePath      string
	catalog         string
	sessionDuration time.Duration
	logLevel        string

	readTimeout     time.Duration
	writeTimeout    time.Duration
	shutdownTimeout time.Duration
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	switch c.storage {
	case factory.StorageTypeMemory:
	case factory.StorageTypeRedis:
		if c.redisURL == "" {
			return errors.New("--redis-url is required when --storage=redis")
		}
	case factory.StorageTypeSQLite:
		if c.sqlitePath == "" {
			return errors.New("--sqlite-path is required when --storage=sqlite")
		}
	default:
		return fmt.Errorf("invalid storage %q (must be memory, redis or sqlite)", c.storage)
	}
	if c.sessionDuration <= 0 {
		return fmt.Errorf("invalid session duration: %s", c.sessionDuration)
	}
	for name, d := range map[string]time.Duration{
		"read-timeout":     c.readTimeout,
		"write-timeout":    c.writeTimeout,
		"shutdown-timeout": c.shutdownTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("invalid --%s: %s", name, d)
		}
	}
	if _, err := c.level(); err != nil {
		return err
	}
	return nil
}

func (c *Config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.logLevel)); err != nil {
		return level, fmt.Errorf("invalid log level %q", c.logLevel)
	}
	return level, nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("BEFOREAFTER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Serve the before/after game JSON API.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.host, "host", "", "address to bind to (env: BEFOREAFTER_HOST)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: BEFOREAFTER_PORT)")
	fs.StringVar(&cfg.storage, "storage", factory.StorageTypeMemory, "storage backend: memory, redis or sqlite (env: BEFOREAFTER_STORAGE)")
	fs.StringVar(&cfg.redisURL, "redis-url", "", "redis connection URL (env: BEFOREAFTER_REDIS_URL)")
	fs.StringVar(&cfg.sqlitePath, "sqlite-path", "beforeafter.db", "sqlite database file (env: BEFOREAFTER_SQLITE_PATH)")
	fs.StringVar(&cfg.catalog, "catalog", "", "YAML item catalog to load; the built-in catalog seeds empty storage otherwise (env: BEFOREAFTER_CATALOG)")
	fs.DurationVar(&cfg.sessionDuration, "session-duration", 24*time.Hour, "lifetime of a device token (env: BEFOREAFTER_SESSION_DURATION)")
	defaults := api.DefaultServerConfig()
	fs.DurationVar(&cfg.readTimeout, "read-timeout", defaults.ReadTimeout, "maximum time to read a request (env: BEFOREAFTER_READ_TIMEOUT)")
	fs.DurationVar(&cfg.writeTimeout, "write-timeout", defaults.WriteTimeout, "maximum time to write a response (env: BEFOREAFTER_WRITE_TIMEOUT)")
	fs.DurationVar(&cfg.shutdownTimeout, "shutdown-timeout", defaults.ShutdownTimeout, "grace period for in-flight requests on shutdown (env: BEFOREAFTER_SHUTDOWN_TIMEOUT)")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "debug, info, warn or error (env: BEFOREAFTER_LOG_LEVEL)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
