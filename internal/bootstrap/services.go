package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/MrCreosote/user-and-job-state/config"
	redisadapter "github.com/MrCreosote/user-and-job-state/internal/adapters/redis"
	"github.com/MrCreosote/user-and-job-state/internal/core"
	"github.com/MrCreosote/user-and-job-state/internal/data"
	"github.com/MrCreosote/user-and-job-state/internal/domain/auth"
	"github.com/MrCreosote/user-and-job-state/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Jobs  *service.JobService
	State *service.UserStateService // nil without a Redis client
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Publisher   core.JobEventPublisher
	Logger      *slog.Logger
}

// NewServices builds the job and user state services on their stores.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service dependencies are required")
	}
	if deps.DB == nil {
		return ServiceContainer{}, errors.New("database connection is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	jobs, err := service.NewJobService(service.JobServiceOptions{
		Repo:       data.NewJobRepo(deps.DB, data.RepoConfig{Logger: logger}),
		Authorizer: newAuthorizer(deps.Config.Jobs),
		Publisher:  deps.Publisher,
		Logger:     logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("job service: %w", err)
	}

	container := ServiceContainer{Jobs: jobs}
	if deps.RedisClient == nil {
		logger.Warn("user state disabled: redis client not configured")
		return container, nil
	}

	container.State, err = service.NewUserStateService(service.UserStateServiceOptions{
		Repo:   redisadapter.NewUserStateStoreWithPrefix(deps.RedisClient, deps.Config.Redis.KeyPrefix),
		Logger: logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("user state service: %w", err)
	}
	return container, nil
}

// newAuthorizer returns the parameter ACL authorizer when one is configured,
// otherwise the default owner and sharing rules.
//
//nolint:ireturn // the authorizer is chosen by configuration.
func newAuthorizer(cfg config.JobsConfig) auth.Authorizer {
	if !cfg.ACLEnabled() {
		return auth.DefaultAuthorizer{}
	}
	return &auth.ParamACLAuthorizer{Strategy: cfg.ACLStrategy, Readers: cfg.Readers()}
}
