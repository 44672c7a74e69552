package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/JonMunkholm/signup/internal/config"
	"github.com/JonMunkholm/signup/internal/core"
	"github.com/JonMunkholm/signup/internal/logging"
	"github.com/JonMunkholm/signup/internal/rowstore"
	"github.com/JonMunkholm/signup/internal/web"
	mw "github.com/JonMunkholm/signup/internal/web/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store_backend", cfg.Store.Backend,
		"table", cfg.Store.Table,
		"register_max_in_flight", cfg.Register.MaxInFlight,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	ctx := context.Background()

	stores, pinger, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	limiter, closeLimiter := newLimiter(ctx, cfg)
	defer closeLimiter()

	server := web.NewServer(cfg, web.Deps{
		Writer:  core.NewWriter(core.WithTable(cfg.Store.Table)),
		Stores:  stores,
		Pinger:  pinger,
		Limiter: limiter,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		closeLimiter()
		closeStore()
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openStore connects the configured backend and returns how requests get
// their store handle.
func openStore(ctx context.Context, cfg *config.Config) (web.StoreProvider, web.Pinger, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendREST:
		store := rowstore.NewREST(cfg.REST.URL, cfg.REST.APIKey,
			rowstore.WithHTTPClient(&http.Client{Timeout: cfg.REST.Timeout}),
		)
		slog.Info("using REST store", "url", cfg.REST.URL)
		return web.SessionScopedREST(store), store, func() {}, nil

	default:
		poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("parse database URL: %w", err)
		}
		poolConfig.MaxConns = int32(cfg.Database.MaxConns)
		poolConfig.MinConns = int32(cfg.Database.MinConns)
		poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
		poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("ping: %w", err)
		}

		if u, err := url.Parse(cfg.Database.URL); err == nil {
			slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
		} else {
			slog.Info("connected to database")
		}

		store := rowstore.NewPostgres(pool)
		return web.SharedStore(store), store, pool.Close, nil
	}
}

// newLimiter builds the configured rate limiter. A nil limiter disables
// rate limiting.
func newLimiter(ctx context.Context, cfg *config.Config) (mw.Limiter, func()) {
	if !cfg.Rate.Enabled {
		return nil, func() {}
	}

	if cfg.Rate.Backend == config.RateBackendRedis {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Rate.RedisAddr,
			Password: cfg.Rate.RedisPassword,
			DB:       cfg.Rate.RedisDB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			// The limiter fails open, so a missing redis only loses rate limiting.
			slog.Warn("redis unreachable, rate limiting will allow requests until it recovers",
				"addr", cfg.Rate.RedisAddr,
				"error", err,
			)
		}

		l := mw.NewRedisLimiter(rdb, cfg.Rate.RequestsPerMinute, time.Minute, cfg.Rate.BlockDuration, "signup:register")
		return l, func() { rdb.Close() }
	}

	l := mw.NewMemoryLimiter(cfg.Rate.RequestsPerMinute, time.Minute)
	return l, l.Stop
}
