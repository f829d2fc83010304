package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/MrCreosote/user-and-job-state/config"
	"github.com/MrCreosote/user-and-job-state/internal/adapters/rabbitmq"
	"github.com/MrCreosote/user-and-job-state/internal/core"
)

// EventPublisher is a job event sink that holds broker resources.
type EventPublisher interface {
	core.JobEventPublisher
	Close() error
}

type noopEventPublisher struct {
	core.NoopJobEventPublisher
}

func (noopEventPublisher) Close() error { return nil }

// dialRabbitMQ is replaced in tests.
var dialRabbitMQ = func(cfg config.EventsConfig, logger *slog.Logger) (EventPublisher, error) {
	pub, err := rabbitmq.Dial(cfg, logger)
	if err != nil {
		return nil, err
	}
	return pub, nil
}

// NewEventPublisher connects the RabbitMQ publisher when events are enabled
// and otherwise returns a publisher that drops every event.
//
//nolint:ireturn // the concrete publisher depends on configuration.
func NewEventPublisher(cfg config.EventsConfig, logger *slog.Logger) (EventPublisher, error) {
	if !cfg.Enabled {
		if logger != nil {
			logger.Info("job event publishing disabled")
		}
		return noopEventPublisher{}, nil
	}

	pub, err := dialRabbitMQ(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect event publisher: %w", err)
	}
	if logger != nil {
		logger.Info("job event publishing enabled", "exchange", cfg.Exchange)
	}
	return pub, nil
}
