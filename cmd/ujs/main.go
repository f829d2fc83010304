package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/MrCreosote/user-and-job-state/config"
	"github.com/MrCreosote/user-and-job-state/internal/adapters/reaper"
	"github.com/MrCreosote/user-and-job-state/internal/bootstrap"
	httpx "github.com/MrCreosote/user-and-job-state/internal/http"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Default().ErrorContext(ctx, "fatal error", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger := bootstrap.InitLogger(cfg.Log)

	if err = bootstrap.ValidateServiceConfig(&cfg); err != nil {
		return err
	}
	logStartupInfo(ctx, logger, &cfg)

	infra, err := initInfrastructure(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer infra.close(ctx, logger)

	if cfg.Postgres.RunMigrationsOnStart {
		if err = bootstrap.RunMigrations(ctx, infra.db, logger); err != nil {
			return err
		}
	} else {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.IsHTTPServerEnabled() {
		server, serr := newHTTPServer(ctx, &cfg, infra, logger)
		if serr != nil {
			return serr
		}
		g.Go(func() error {
			return bootstrap.ServeHTTP(gctx, server, cfg.HTTP, logger)
		})
	}

	if cfg.IsReaperEnabled() {
		runner, rerr := reaper.NewRunner(reaper.RunnerOptions{
			DB:     infra.db,
			Config: cfg.Reaper,
			Logger: logger,
		})
		if rerr != nil {
			return fmt.Errorf("reaper: %w", rerr)
		}
		g.Go(func() error {
			if err := runner.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("reaper: %w", err)
			}
			return nil
		})
	}

	err = g.Wait()
	logger.InfoContext(context.WithoutCancel(ctx), "shutdown complete")
	return err
}

func newHTTPServer(ctx context.Context, cfg *config.AppConfig, infra *infrastructure, logger *slog.Logger) (*http.Server, error) {
	resolver, err := bootstrap.NewIdentityResolver(ctx, cfg.Auth, logger)
	if err != nil {
		return nil, err
	}

	publisher, err := bootstrap.NewEventPublisher(cfg.Events, logger)
	if err != nil {
		return nil, err
	}
	infra.publisher = publisher

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:      cfg,
		DB:          infra.db,
		RedisClient: infra.redis,
		Publisher:   publisher,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	ready := map[string]httpx.Pinger{"postgres": infra.db}
	if infra.redis != nil {
		ready["redis"] = httpx.PingerFunc(func(ctx context.Context) error {
			return infra.redis.Ping(ctx).Err()
		})
	}

	return bootstrap.NewHTTPServer(bootstrap.HTTPServerConfig{
		HTTP: cfg.HTTP,
		Services: httpx.RouterServices{
			Jobs:     services.Jobs,
			State:    services.State,
			Resolver: resolver,
			Ready:    ready,
		},
		Logger: logger,
	}), nil
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting user and job state service",
		"db_host", cfg.Postgres.Host,
		"db_port", cfg.Postgres.Port,
		"db_name", cfg.Postgres.Name,
		"auth_mode", cfg.Auth.Mode,
		"events_enabled", cfg.Events.Enabled,
		"enabled_services", bootstrap.GetEnabledServices(cfg))
}

// infrastructure holds the connections shared by the enabled services.
type infrastructure struct {
	db        *sql.DB
	redis     redis.UniversalClient
	publisher bootstrap.EventPublisher
}

// initInfrastructure connects shared dependencies used by the service runtime.
// Redis backs only the user state API, so the reaper alone never dials it.
func initInfrastructure(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*infrastructure, error) {
	dbCfg := bootstrap.DatabaseConfig{
		DBConfig:    cfg.Postgres,
		RedisConfig: cfg.Redis,
		Logger:      logger,
	}

	db, err := bootstrap.ConnectDB(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	infra := &infrastructure{db: db}

	if cfg.IsHTTPServerEnabled() {
		infra.redis, err = bootstrap.ConnectRedis(ctx, dbCfg)
		if err != nil {
			if cerr := db.Close(); cerr != nil {
				return nil, fmt.Errorf("connect redis: %w", errors.Join(err, fmt.Errorf("close database: %w", cerr)))
			}
			return nil, fmt.Errorf("connect redis: %w", err)
		}
	}

	return infra, nil
}

func (i *infrastructure) close(ctx context.Context, logger *slog.Logger) {
	ctx = context.WithoutCancel(ctx)
	if i.publisher != nil {
		if err := i.publisher.Close(); err != nil {
			logger.ErrorContext(ctx, "close event publisher failed", "error", err)
		}
	}
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			logger.ErrorContext(ctx, "close redis failed", "error", err)
		}
	}
	if err := i.db.Close(); err != nil {
		logger.ErrorContext(ctx, "close database failed", "error", err)
	}
}
