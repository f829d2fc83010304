// Package testhelpers builds data layer fixtures for integration tests in other packages.
package testhelpers

import (
	"context"
	"database/sql"
	"time"

	"github.com/MrCreosote/user-and-job-state/internal/data"
	"github.com/MrCreosote/user-and-job-state/internal/domain/model"
)

// NewJobRepoWithTimeProvider creates a JobRepo with the provided TimeProvider for tests.
func NewJobRepoWithTimeProvider(db *sql.DB, cfg data.RepoConfig, tp data.TimeProvider) *data.JobRepo {
	cfg.TimeProvider = tp
	return data.NewJobRepo(db, cfg)
}

// NewFixedClockJobRepo creates a JobRepo whose clock starts at start.
func NewFixedClockJobRepo(db *sql.DB, start time.Time) (*data.JobRepo, *data.FixedTimeProvider) {
	tp := data.NewFixedTimeProvider(start)
	return NewJobRepoWithTimeProvider(db, data.RepoConfig{}, tp), tp
}

// CreateStartedJob creates and starts a default strategy job for owner under service.
func CreateStartedJob(ctx context.Context, repo *data.JobRepo, owner, service string, prog model.ProgressSpec) (string, error) {
	req := &model.CreateJobRequest{Owner: owner}
	req.Normalize()
	id, err := repo.Create(ctx, req)
	if err != nil {
		return "", err
	}
	_, err = repo.Start(ctx, &model.StartJobRequest{
		Owner:       owner,
		ID:          id,
		Service:     service,
		Status:      "started",
		Description: "fixture",
		Progress:    prog,
	})
	return id, err
}
