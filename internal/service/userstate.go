package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MrCreosote/user-and-job-state/internal/core"
	"github.com/MrCreosote/user-and-job-state/internal/domain/model"
	apperrors "github.com/MrCreosote/user-and-job-state/internal/errors"
)

// UserStateServiceOptions groups dependencies for UserStateService.
type UserStateServiceOptions struct {
	Repo   core.UserStateRepository // Required: user state store
	Logger *slog.Logger             // Optional: structured logger
}

// UserStateService stores small JSON values per user, service and key.
type UserStateService struct {
	repo   core.UserStateRepository
	logger *slog.Logger
}

// NewUserStateService constructs a new UserStateService.
func NewUserStateService(opts UserStateServiceOptions) (*UserStateService, error) {
	if opts.Repo == nil {
		return nil, errors.New("UserStateRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &UserStateService{
		repo:   opts.Repo,
		logger: logger.With("component", "user_state_service"),
	}, nil
}

// MustNewUserStateService constructs a new UserStateService and panics on error.
func MustNewUserStateService(opts UserStateServiceOptions) *UserStateService {
	svc, err := NewUserStateService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create UserStateService: %v", err))
	}
	return svc
}

// SetState stores value under key, replacing any previous value.
func (s *UserStateService) SetState(ctx context.Context, key model.StateKey, value any) error {
	encoded, err := model.EncodeStateValue(value)
	if err != nil {
		return err
	}
	if err := key.Validate(); err != nil {
		return err
	}
	if err := s.repo.Set(ctx, key, encoded); err != nil {
		return apperrors.MapDBError(err)
	}
	s.logger.DebugContext(ctx, "state set",
		"user", key.User,
		"service", key.Service,
		"authed", key.Authed,
		"bytes", len(encoded),
	)
	return nil
}

// GetState returns the JSON value stored under key.
func (s *UserStateService) GetState(ctx context.Context, key model.StateKey) (json.RawMessage, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	value, ok, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	if !ok {
		return nil, key.NotFoundError()
	}
	return json.RawMessage(value), nil
}

// HasState reports whether key holds a value.
func (s *UserStateService) HasState(ctx context.Context, key model.StateKey) (bool, error) {
	if err := key.Validate(); err != nil {
		return false, err
	}
	ok, err := s.repo.Has(ctx, key)
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	return ok, nil
}

// RemoveState deletes the value under key. Removing a missing key is not an error.
func (s *UserStateService) RemoveState(ctx context.Context, key model.StateKey) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if err := s.repo.Remove(ctx, key); err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// ListState returns the sorted keys stored for one user and service.
func (s *UserStateService) ListState(ctx context.Context, scope core.StateScope) ([]string, error) {
	if err := model.CheckStateScope(scope.User, scope.Service); err != nil {
		return nil, err
	}
	keys, err := s.repo.ListKeys(ctx, scope)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return keys, nil
}

// ListStateServices returns the sorted services holding state for user.
func (s *UserStateService) ListStateServices(ctx context.Context, user string, authed bool) ([]string, error) {
	if err := model.CheckString(user, "user", 0); err != nil {
		return nil, err
	}
	services, err := s.repo.ListServices(ctx, user, authed)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return services, nil
}
