package data

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/MrCreosote/user-and-job-state/internal/core"
)

var _ core.JobRepository = (*JobRepo)(nil)

// RepoConfig holds configuration options for the job repository.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// JobRepo stores job records in the jobs table. Every mutation is a single
// conditional statement whose WHERE clause carries the expected state.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewJobRepo creates a new JobRepo instance with the given database connection and configuration.
func NewJobRepo(db *sql.DB, cfg RepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &JobRepo{
		DB:           db,
		timeProvider: tp,
		logger:       logger.With("component", "job_repo"),
	}
}

// now returns the current time at the precision Postgres stores.
func (r *JobRepo) now() time.Time {
	return r.timeProvider.Now().UTC().Truncate(time.Microsecond)
}

const jobColumns = `
  id,
  owner,
  auth_strategy,
  auth_param,
  metadata,
  service,
  status,
  description,
  progress_type,
  progress,
  max_progress,
  created,
  updated,
  started,
  est_complete,
  complete,
  error,
  error_msg,
  results,
  canceled_by,
  shared
`

// jobColumnList is jobColumns in the form taken by the list query builder.
var jobColumnList = []string{
	"id", "owner", "auth_strategy", "auth_param", "metadata", "service", "status",
	"description", "progress_type", "progress", "max_progress", "created", "updated",
	"started", "est_complete", "complete", "error", "error_msg", "results",
	"canceled_by", "shared",
}
