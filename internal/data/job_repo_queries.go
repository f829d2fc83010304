package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/MrCreosote/user-and-job-state/internal/core"
	"github.com/MrCreosote/user-and-job-state/internal/data/database"
	"github.com/MrCreosote/user-and-job-state/internal/data/pgxutil"
	"github.com/MrCreosote/user-and-job-state/internal/domain/model"
)

// GetByID retrieves a job by its ID.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	return r.getOne(ctx, "get job", `id = $1`, id)
}

// GetUncompleted retrieves the job only while its complete flag is not true.
func (r *JobRepo) GetUncompleted(ctx context.Context, id string) (*model.Job, error) {
	return r.getOne(ctx, "get uncompleted job", `id = $1 AND complete IS DISTINCT FROM TRUE`, id)
}

// GetDeletable retrieves the job only if it matches the deletion predicate.
func (r *JobRepo) GetDeletable(ctx context.Context, params core.DeleteJobParams) (*model.Job, error) {
	where, args := deletePredicate(params)
	return r.getOne(ctx, "get deletable job", where, args...)
}

func (r *JobRepo) getOne(ctx context.Context, op, where string, args ...any) (*model.Job, error) {
	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, `SELECT `+jobColumns+` FROM jobs WHERE `+where, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		job, err = collectJob(rows)
		return err
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return job, nil
}

// ListServices returns the distinct, sorted services of started jobs owned
// by or shared with user.
func (r *JobRepo) ListServices(ctx context.Context, user string) ([]string, error) {
	var services []string
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, `
			SELECT DISTINCT service
			FROM jobs
			WHERE (owner = $1 OR shared @> ARRAY[$1]::text[])
			  AND service IS NOT NULL
			ORDER BY service
		`, user)
		if err != nil {
			return err
		}
		services, err = pgx.CollectRows(rows, pgx.RowTo[string])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	if services == nil {
		services = []string{}
	}
	return services, nil
}

// List returns the jobs matching the visibility, service and stage
// predicates of req, ordered by id. Authorization of the request happens
// before the call.
func (r *JobRepo) List(ctx context.Context, req *model.ListJobsRequest) ([]*model.Job, error) {
	if req == nil {
		return nil, errors.New("list jobs request is required")
	}

	query, args := database.BuildListQuery(buildJobListOptions(req))

	var jobs []*model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		jobs, err = collectJobs(rows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

func buildJobListOptions(req *model.ListJobsRequest) *database.ListQueryOptions {
	opts := []database.ListQueryOption{
		database.WithColumns(jobColumnList...),
		database.WithOrderBy("id", "ASC"),
	}

	if req.AuthStrategy == model.DefaultAuthStrategy {
		if req.IncludeShared {
			opts = append(opts, database.WithCondition(
				database.WhereRawCond("(owner = $1 OR shared @> ARRAY[$1]::text[])", req.User),
			))
		} else {
			opts = append(opts, database.WithCondition(
				database.WhereCond("owner", database.Equal, req.User),
			))
		}
	} else {
		opts = append(opts,
			database.WithCondition(database.WhereCond("auth_strategy", database.Equal, req.AuthStrategy)),
			database.WithCondition(database.WhereCond("auth_param", database.Any, req.AuthParams)),
		)
		// Any drops an empty slice; no readable params must match nothing.
		if len(req.AuthParams) == 0 {
			opts = append(opts, database.WithCondition(database.WhereRawCond("FALSE")))
		}
	}

	if len(req.Services) > 0 {
		opts = append(opts, database.WithCondition(database.WhereCond("service", database.Any, req.Services)))
	} else {
		opts = append(opts, database.WithCondition(database.WhereRawCond("service IS NOT NULL")))
	}

	if pred, ok := StagePredicate(req.Stages); ok {
		opts = append(opts, database.WithCondition(database.WhereRawCond(pred)))
	}

	return database.NewListQueryOptions("jobs", opts...)
}
