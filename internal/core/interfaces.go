package core

import (
	"context"
	"time"

	"github.com/MrCreosote/user-and-job-state/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// JobRepository defines the job record operations. Every mutation is a single
// conditional statement; the bool results report whether a row matched the
// precondition.
type JobRepository interface {
	Create(ctx context.Context, req *model.CreateJobRequest) (string, error)
	Start(ctx context.Context, req *model.StartJobRequest) (bool, error)
	Update(ctx context.Context, req *model.UpdateJobRequest) (bool, error)
	Complete(ctx context.Context, req *model.CompleteJobRequest) (bool, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	// GetUncompleted returns the job only if its completion flag is not true.
	GetUncompleted(ctx context.Context, id string) (*model.Job, error)
	Cancel(ctx context.Context, params CancelJobParams) (bool, error)
	// GetDeletable returns the job only if it matches the delete predicate.
	GetDeletable(ctx context.Context, params DeleteJobParams) (*model.Job, error)
	Delete(ctx context.Context, params DeleteJobParams) (bool, error)
	ListServices(ctx context.Context, user string) ([]string, error)
	List(ctx context.Context, req *model.ListJobsRequest) ([]*model.Job, error)
	Share(ctx context.Context, params ShareJobParams) (bool, error)
	Unshare(ctx context.Context, params ShareJobParams) (bool, error)
}

// CancelJobParams groups parameters for JobRepository.Cancel to keep param count ≤3.
type CancelJobParams struct {
	ID     string
	User   string
	Status string
}

// DeleteJobParams selects the deletion mode. A nil Service requires the job
// to be complete; a set Service requires it to match regardless of completion.
type DeleteJobParams struct {
	ID      string
	Service *string
}

// ShareJobParams groups parameters for share and unshare. Owner is the
// job's owner, not necessarily the acting user.
type ShareJobParams struct {
	ID    string
	Owner string
	Users []string
}

// ReaperRepository removes expired job records.
type ReaperRepository interface {
	DeleteExpiredJobs(ctx context.Context, params DeleteExpiredJobsParams) (int64, error)
}

// DeleteExpiredJobsParams groups parameters for DeleteExpiredJobs.
type DeleteExpiredJobsParams struct {
	MaxAge            time.Duration
	BatchSize         int
	IncludeUnfinished bool
}

// UserStateRepository stores arbitrary JSON values per user, service and key.
type UserStateRepository interface {
	Set(ctx context.Context, key model.StateKey, value []byte) error
	// Get returns the stored value and whether it exists.
	Get(ctx context.Context, key model.StateKey) ([]byte, bool, error)
	Has(ctx context.Context, key model.StateKey) (bool, error)
	Remove(ctx context.Context, key model.StateKey) error
	ListKeys(ctx context.Context, scope StateScope) ([]string, error)
	ListServices(ctx context.Context, user string, authed bool) ([]string, error)
}

// StateScope selects the keys of one user and service.
type StateScope struct {
	User    string
	Service string
	Authed  bool
}
