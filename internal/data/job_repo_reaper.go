package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MrCreosote/user-and-job-state/internal/core"
	"github.com/MrCreosote/user-and-job-state/internal/data/pgxutil"
)

// Advisory lock namespace for reaper operations, used with the two-argument
// pg_try_advisory_xact_lock(major, minor).
const (
	advisoryLockReaperMajor      = 2100
	advisoryLockReaperDeleteJobs = 1
)

var _ core.ReaperRepository = (*JobRepo)(nil)

// DeleteExpiredJobs deletes up to params.BatchSize jobs not updated within
// params.MaxAge, oldest first. Unfinished jobs are skipped unless
// params.IncludeUnfinished is set. When another reaper holds the advisory
// lock the call deletes nothing and returns zero.
func (r *JobRepo) DeleteExpiredJobs(ctx context.Context, params core.DeleteExpiredJobsParams) (int64, error) {
	if params.BatchSize <= 0 {
		return 0, ErrInvalidBatchSize
	}
	if params.MaxAge <= 0 {
		return 0, ErrInvalidMaxAge
	}

	var rowsAffected int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var locked bool
			if err := tx.QueryRowContext(ctx, "SELECT pg_try_advisory_xact_lock($1, $2)",
				advisoryLockReaperMajor, advisoryLockReaperDeleteJobs).Scan(&locked); err != nil {
				return fmt.Errorf("acquire advisory lock: %w", err)
			}
			if !locked {
				return nil
			}

			cutoff := r.now().Add(-params.MaxAge)
			res, err := tx.ExecContext(ctx, `
				DELETE FROM jobs
				WHERE id IN (
					SELECT id FROM jobs
					WHERE updated < $1
					  AND ($2 OR complete = true)
					ORDER BY updated
					LIMIT $3
				)
			`, cutoff, params.IncludeUnfinished, params.BatchSize)
			if err != nil {
				return fmt.Errorf("delete expired jobs: %w", err)
			}

			ra, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			rowsAffected = ra
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	return rowsAffected, nil
}
