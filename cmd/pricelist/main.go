package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"pricelist/internal/auth"
	"pricelist/internal/catalog"
	"pricelist/internal/config"
	"pricelist/internal/db"
	"pricelist/internal/httpserver"
	"pricelist/internal/logging"
	"pricelist/internal/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	dbConn, err := db.Open(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := db.Migrate(ctx, dbConn); err != nil {
		return err
	}

	catalogStore := catalog.NewStore(dbConn)
	if cfg.SeedPath != "" {
		if err := catalogStore.SeedFromFile(ctx, cfg.SeedPath); errors.Is(err, os.ErrNotExist) {
			logger.Warn("seed file not found, skipping", "path", cfg.SeedPath)
		} else if err != nil {
			return err
		}
	}

	loginRL, registerRL, closeRL, err := newLimiters(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRL()

	codec, err := auth.NewTokenCodec(cfg.JWTSecret, cfg.JWTAlgorithm)
	if err != nil {
		return err
	}
	policy, err := ratelimit.ParsePolicy(cfg.RateLimitPolicy)
	if err != nil {
		return err
	}
	authSvc := auth.NewService(
		auth.NewStore(dbConn),
		auth.NewBcryptHasher(cfg.BcryptCost),
		codec,
		loginRL,
		registerRL,
		auth.Options{
			TokenTTL:      cfg.TokenTTL(),
			InviteCode:    cfg.InviteCode,
			AdminPassword: cfg.AdminPassword,
			AdminEmail:    cfg.AdminEmail,
			Policy:        policy,
		},
		logger,
	)
	if err := authSvc.EnsureAdmin(ctx); err != nil {
		return err
	}

	handler := httpserver.NewRouter(logger, authSvc, &catalog.Handler{Store: catalogStore, Logger: logger}, httpserver.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		GlobalRPS:      cfg.GlobalRPS,
		GlobalBurst:    cfg.GlobalBurst,
	})
	server := httpserver.New(cfg.HTTPAddr, handler, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctxShutdown)
}

// newLimiters builds the login and register limiters for the configured
// backend. The returned func releases their resources.
func newLimiters(ctx context.Context, cfg config.Config, logger *slog.Logger) (ratelimit.Backend, ratelimit.Backend, func(), error) {
	limit, window := cfg.RateLimitMaxAttempts, cfg.RateLimitWindow()

	if cfg.RateLimitBackend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, nil, err
		}
		logger.Info("rate limiter backend", "backend", "redis", "addr", cfg.RedisAddr)
		rl := ratelimit.NewRedis(client, "pricelist:rl:", limit, window, nil)
		return rl, rl, func() { _ = client.Close() }, nil
	}

	loginRL := ratelimit.New(limit, window, nil)
	registerRL := ratelimit.New(limit, window, nil)
	go loginRL.Run(ctx, window)
	go registerRL.Run(ctx, window)
	logger.Info("rate limiter backend", "backend", "memory", "max_attempts", limit, "window", window)
	return loginRL, registerRL, func() {}, nil
}
