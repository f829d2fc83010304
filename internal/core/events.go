package core

import (
	"context"

	"github.com/MrCreosote/user-and-job-state/internal/domain/model"
)

// JobEventPublisher delivers job lifecycle events to an external broker.
type JobEventPublisher interface {
	PublishJobEvent(ctx context.Context, evt model.JobEvent) error
}

// NoopJobEventPublisher drops every event.
type NoopJobEventPublisher struct{}

// PublishJobEvent implements JobEventPublisher.
func (NoopJobEventPublisher) PublishJobEvent(context.Context, model.JobEvent) error { return nil }
