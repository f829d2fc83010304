// Package testutil provides testing utilities and helpers for the job and user state stores.
package testutil

import (
	"time"

	"github.com/MrCreosote/user-and-job-state/internal/domain/model"
)

// StartRequestBuilder provides a fluent interface for building StartJobRequest objects for testing.
type StartRequestBuilder struct {
	req *model.StartJobRequest
}

// NewStartRequest creates a StartRequestBuilder for the job and owner with sensible defaults.
func NewStartRequest(owner, id string) *StartRequestBuilder {
	return &StartRequestBuilder{
		req: &model.StartJobRequest{
			Owner:       owner,
			ID:          id,
			Service:     "serv1",
			Status:      "started",
			Description: "test job",
			Progress:    model.NoProgress(),
		},
	}
}

// WithService sets the starting service.
func (b *StartRequestBuilder) WithService(service string) *StartRequestBuilder {
	b.req.Service = service
	return b
}

// WithStatus sets the status.
func (b *StartRequestBuilder) WithStatus(status string) *StartRequestBuilder {
	b.req.Status = status
	return b
}

// WithDescription sets the description.
func (b *StartRequestBuilder) WithDescription(desc string) *StartRequestBuilder {
	b.req.Description = desc
	return b
}

// WithTasks tracks progress against maxTasks.
func (b *StartRequestBuilder) WithTasks(maxTasks int) *StartRequestBuilder {
	b.req.Progress = model.TaskProgress(maxTasks)
	return b
}

// WithPercent tracks percentage progress.
func (b *StartRequestBuilder) WithPercent() *StartRequestBuilder {
	b.req.Progress = model.PercentProgress()
	return b
}

// WithEstComplete sets the estimated completion time.
func (b *StartRequestBuilder) WithEstComplete(t time.Time) *StartRequestBuilder {
	b.req.EstComplete = &t
	return b
}

// Build returns the built StartJobRequest.
func (b *StartRequestBuilder) Build() *model.StartJobRequest {
	return b.req
}

// NewCreateRequest returns a normalized default strategy create request.
func NewCreateRequest(owner string, meta ...model.MetaPair) *model.CreateJobRequest {
	req := &model.CreateJobRequest{Owner: owner, Metadata: meta}
	req.Normalize()
	return req
}

// NewUpdateRequest returns an update adding delta progress.
func NewUpdateRequest(owner, id, service string, delta int) *model.UpdateJobRequest {
	return &model.UpdateJobRequest{
		Owner:         owner,
		ID:            id,
		Service:       service,
		Status:        "working",
		ProgressDelta: &delta,
	}
}

// NewCompleteRequest returns a successful completion without results.
func NewCompleteRequest(owner, id, service string) *model.CompleteJobRequest {
	return &model.CompleteJobRequest{
		Owner:   owner,
		ID:      id,
		Service: service,
		Status:  "done",
	}
}
