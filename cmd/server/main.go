package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/beforeafter/internal/api"
	"github.com/mcoot/beforeafter/internal/factory"
	"github.com/mcoot/beforeafter/internal/services/auth"
	redisstorage "github.com/mcoot/beforeafter/internal/storage/redis"
)

// How often expired device tokens are swept
const sessionSweepInterval = 10 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &Config{}
	if err := newCmd(cfg).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *Config) error {
	level, _ := cfg.level()

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	authCfg := auth.DefaultConfig()
	authCfg.SessionDuration = cfg.sessionDuration

	factoryCfg := factory.Config{
		CatalogPath: cfg.catalog,
		AuthConfig:  authCfg,
		Logger:      logger,
		StorageType: cfg.storage,
		SQLitePath:  cfg.sqlitePath,
	}
	if cfg.storage == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.redisURL
		factoryCfg.RedisConfig = &redisCfg
	}

	// Create application factory
	app, err := factory.New(ctx, factoryCfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer func() {
		if err := app.Storage.Close(); err != nil {
			logger.Warn("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		AuthService: app.AuthService,
		Controller:  app.Controller,
		Guesses:     app.Telemetry,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.host
	serverConfig.Port = cfg.port
	serverConfig.ReadTimeout = cfg.readTimeout
	serverConfig.WriteTimeout = cfg.writeTimeout
	serverConfig.ShutdownTimeout = cfg.shutdownTimeout
	server := api.NewServer(router, serverConfig, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Start()
	})
	g.Go(func() error {
		sweepSessions(gctx, app.AuthService, logger)
		return nil
	})
	// Stops the server on a signal, or when serving fails
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")
		return server.Shutdown(context.Background())
	})

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.storage),
	)

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}

func sweepSessions(ctx context.Context, authService *auth.Service, logger *slog.Logger) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := authService.CleanExpiredSessions(); removed > 0 {
				logger.Info("expired sessions removed", slog.Int("count", removed))
			}
		}
	}
}
