package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/MrCreosote/user-and-job-state/internal/core"
	"github.com/MrCreosote/user-and-job-state/internal/domain/model"
)

// Create inserts a job in the created stage and returns its id. The request
// is expected to be validated and normalized by the caller.
func (r *JobRepo) Create(ctx context.Context, req *model.CreateJobRequest) (string, error) {
	if req == nil {
		return "", errors.New("create job request is required")
	}

	now := r.now()
	id, err := model.NewJobID(now)
	if err != nil {
		return "", fmt.Errorf("generate job id: %w", err)
	}

	meta := req.Metadata
	if meta == nil {
		meta = []model.MetaPair{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO jobs (id, owner, auth_strategy, auth_param, metadata, created, updated)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, id, req.Owner, req.AuthStrategy, req.AuthParam, metaJSON, now)
	if err != nil {
		return "", fmt.Errorf("insert job: %w", err)
	}
	return id, nil
}

// Start moves an unstarted job owned by req.Owner into the started stage.
// It reports false if no such job exists. Canceling an unstarted job sets its
// complete flag, so a canceled job can never be started.
func (r *JobRepo) Start(ctx context.Context, req *model.StartJobRequest) (bool, error) {
	if req == nil {
		return false, errors.New("start job request is required")
	}

	progType, prog, maxProg := req.Progress.Initial()
	now := r.now()
	var est *time.Time
	if req.EstComplete != nil {
		t := req.EstComplete.UTC()
		est = &t
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET service = $3,
		    status = $4,
		    description = $5,
		    progress_type = $6,
		    progress = $7,
		    max_progress = $8,
		    started = $9,
		    updated = $9,
		    est_complete = $10,
		    complete = false,
		    error = false,
		    error_msg = NULL,
		    results = NULL
		WHERE id = $1
		  AND owner = $2
		  AND service IS NULL
		  AND complete IS DISTINCT FROM TRUE
	`, req.ID, req.Owner, req.Service, req.Status, req.Description, string(progType), prog, maxProg, now, est)
	if err != nil {
		return false, fmt.Errorf("start job: %w", err)
	}
	return rowsMatched(res)
}

// Update records status and progress on a started, uncompleted job. The
// progress delta is added in the same statement, so concurrent updates never
// lose increments. Jobs without progress tracking keep a NULL progress.
func (r *JobRepo) Update(ctx context.Context, req *model.UpdateJobRequest) (bool, error) {
	if req == nil {
		return false, errors.New("update job request is required")
	}

	delta := 0
	if req.ProgressDelta != nil {
		delta = *req.ProgressDelta
	}
	var est *time.Time
	if req.EstComplete != nil {
		t := req.EstComplete.UTC()
		est = &t
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET status = $4,
		    updated = $5,
		    est_complete = COALESCE($6, est_complete),
		    progress = progress + $7
		WHERE id = $1
		  AND owner = $2
		  AND service = $3
		  AND complete = false
	`, req.ID, req.Owner, req.Service, req.Status, r.now(), est, delta)
	if err != nil {
		return false, fmt.Errorf("update job: %w", err)
	}
	return rowsMatched(res)
}

// Complete finishes a started, uncompleted job. A non-nil error message marks
// the job as errored.
func (r *JobRepo) Complete(ctx context.Context, req *model.CompleteJobRequest) (bool, error) {
	if req == nil {
		return false, errors.New("complete job request is required")
	}

	var results any
	if req.Results != nil {
		b, err := json.Marshal(req.Results)
		if err != nil {
			return false, fmt.Errorf("marshal results: %w", err)
		}
		results = b
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET complete = true,
		    error = $4,
		    error_msg = $5,
		    status = $6,
		    results = $7,
		    updated = $8
		WHERE id = $1
		  AND owner = $2
		  AND service = $3
		  AND complete = false
	`, req.ID, req.Owner, req.Service, req.ErrorMessage != nil, req.ErrorMessage, req.Status, results, r.now())
	if err != nil {
		return false, fmt.Errorf("complete job: %w", err)
	}
	return rowsMatched(res)
}

// Cancel marks any job whose complete flag is not true as canceled by
// params.User. Authorization happens before the call; the predicate here
// re-checks that the job is still cancelable.
func (r *JobRepo) Cancel(ctx context.Context, params core.CancelJobParams) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET status = $3,
		    updated = $4,
		    canceled_by = $2,
		    complete = true,
		    error = false
		WHERE id = $1
		  AND complete IS DISTINCT FROM TRUE
	`, params.ID, params.User, params.Status, r.now())
	if err != nil {
		return false, fmt.Errorf("cancel job: %w", err)
	}
	return rowsMatched(res)
}

// Delete removes the job if it still matches the deletion predicate.
func (r *JobRepo) Delete(ctx context.Context, params core.DeleteJobParams) (bool, error) {
	where, args := deletePredicate(params)
	res, err := r.DB.ExecContext(ctx, `DELETE FROM jobs WHERE `+where, args...)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	return rowsMatched(res)
}

// deletePredicate returns the WHERE clause shared by GetDeletable and Delete.
func deletePredicate(params core.DeleteJobParams) (string, []any) {
	if params.Service == nil {
		return "id = $1 AND complete = true", []any{params.ID}
	}
	return "id = $1 AND service = $2", []any{params.ID, *params.Service}
}

type execResult interface {
	RowsAffected() (int64, error)
}

func rowsMatched(res execResult) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// jobRow mirrors the jobs table for pgx.RowToAddrOfStructByName.
type jobRow struct {
	ID           string     `db:"id"`
	Owner        string     `db:"owner"`
	AuthStrategy string     `db:"auth_strategy"`
	AuthParam    string     `db:"auth_param"`
	Metadata     []byte     `db:"metadata"`
	Service      *string    `db:"service"`
	Status       *string    `db:"status"`
	Description  *string    `db:"description"`
	ProgressType *string    `db:"progress_type"`
	Progress     *int       `db:"progress"`
	MaxProgress  *int       `db:"max_progress"`
	Created      time.Time  `db:"created"`
	Updated      time.Time  `db:"updated"`
	Started      *time.Time `db:"started"`
	EstComplete  *time.Time `db:"est_complete"`
	Complete     *bool      `db:"complete"`
	Error        *bool      `db:"error"`
	ErrorMsg     *string    `db:"error_msg"`
	Results      []byte     `db:"results"`
	CanceledBy   *string    `db:"canceled_by"`
	Shared       []string   `db:"shared"`
}

func (row *jobRow) toModel() (*model.Job, error) {
	job := &model.Job{
		ID:           row.ID,
		Owner:        row.Owner,
		AuthStrategy: row.AuthStrategy,
		AuthParam:    row.AuthParam,
		Service:      row.Service,
		Status:       row.Status,
		Description:  row.Description,
		Progress:     row.Progress,
		MaxProgress:  row.MaxProgress,
		Created:      row.Created.UTC(),
		Updated:      row.Updated.UTC(),
		Started:      utcPtr(row.Started),
		EstComplete:  utcPtr(row.EstComplete),
		Complete:     row.Complete != nil && *row.Complete,
		Error:        row.Error != nil && *row.Error,
		ErrorMsg:     row.ErrorMsg,
		CanceledBy:   row.CanceledBy,
		Shared:       row.Shared,
	}
	if job.Shared == nil {
		job.Shared = []string{}
	}
	if row.ProgressType != nil {
		job.ProgressType = model.ProgressType(*row.ProgressType)
	}

	job.Metadata = []model.MetaPair{}
	if len(row.Metadata) > 0 {
		if err := json.Unmarshal(row.Metadata, &job.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for job %s: %w", row.ID, err)
		}
	}
	if len(row.Results) > 0 {
		job.Results = &model.JobResults{}
		if err := json.Unmarshal(row.Results, job.Results); err != nil {
			return nil, fmt.Errorf("decode results for job %s: %w", row.ID, err)
		}
	}
	return job, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// collectJobs collects every row into jobs using pgx v5 helpers.
func collectJobs(rows pgx.Rows) ([]*model.Job, error) {
	scanned, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[jobRow])
	if err != nil {
		return nil, err
	}
	jobs := make([]*model.Job, 0, len(scanned))
	for _, row := range scanned {
		job, convErr := row.toModel()
		if convErr != nil {
			return nil, convErr
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// collectJob collects exactly one job, returning pgx.ErrNoRows when there is none.
func collectJob(rows pgx.Rows) (*model.Job, error) {
	row, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[jobRow])
	if err != nil {
		return nil, err
	}
	return row.toModel()
}
