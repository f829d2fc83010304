// Package rabbitmq publishes job lifecycle events to a RabbitMQ topic exchange.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/MrCreosote/user-and-job-state/config"
	"github.com/MrCreosote/user-and-job-state/internal/core"
	"github.com/MrCreosote/user-and-job-state/internal/domain/model"
)

// channel is the subset of *amqp.Channel used for publishing.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher implements core.JobEventPublisher on a RabbitMQ channel.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       channel
	exchange string
	cfg      config.EventsConfig
	logger   *slog.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

var _ core.JobEventPublisher = (*Publisher)(nil)

// Dial connects to the broker, declares the durable topic exchange and
// returns a ready Publisher.
func Dial(cfg config.EventsConfig, logger *slog.Logger) (*Publisher, error) {
	if cfg.URL == "" || cfg.Exchange == "" {
		return nil, errors.New("AMQP URL and exchange are required")
	}

	conn, err := amqp.DialConfig(cfg.URL, amqp.Config{Heartbeat: 10 * time.Second, Locale: "en_US"})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}

	p := newPublisher(ch, cfg, logger)
	p.conn = conn
	p.logger.Info("rabbitmq publisher ready", "exchange", cfg.Exchange)
	return p, nil
}

func newPublisher(ch channel, cfg config.EventsConfig, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		ch:       ch,
		exchange: cfg.Exchange,
		cfg:      cfg,
		logger:   logger.With("component", "rabbitmq_publisher"),
		sleep:    sleepContext,
	}
}

// PublishJobEvent publishes evt as a persistent JSON message routed by its
// type, retrying with exponential backoff.
func (p *Publisher) PublishJobEvent(ctx context.Context, evt model.JobEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal job event: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    evt.At,
		Type:         string(evt.Type),
		Body:         body,
	}
	key := evt.RoutingKey()

	backoff := p.cfg.RetryBackoff
	var lastErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			p.logger.WarnContext(ctx, "publish failed, retrying",
				"attempt", attempt,
				"max_retries", p.cfg.MaxRetries,
				"retry_after", backoff,
				"error", lastErr,
			)
			if err := p.sleep(ctx, backoff); err != nil {
				return fmt.Errorf("publish %s: %w", key, err)
			}
			backoff *= 2
		}

		lastErr = p.publishOnce(ctx, key, msg)
		if lastErr == nil {
			p.logger.DebugContext(ctx, "job event published", "routing_key", key, "id", evt.JobID)
			return nil
		}
	}
	return fmt.Errorf("publish %s after %d attempts: %w", key, p.cfg.MaxRetries+1, lastErr)
}

func (p *Publisher) publishOnce(ctx context.Context, key string, msg amqp.Publishing) error {
	if p.cfg.PublishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.PublishTimeout)
		defer cancel()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, msg)
}

// Close closes the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
