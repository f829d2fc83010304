package data

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/MrCreosote/user-and-job-state/internal/core"
	"github.com/MrCreosote/user-and-job-state/internal/data/pgxutil"
	"github.com/MrCreosote/user-and-job-state/internal/domain/model"
)

// Share appends the users not already in the shared set of a default
// strategy job owned by params.Owner. New users keep their first-seen order
// and duplicates in params.Users collapse. Excluding the owner is the
// caller's job.
func (r *JobRepo) Share(ctx context.Context, params core.ShareJobParams) (bool, error) {
	return r.execShare(ctx, "share job", `
		UPDATE jobs
		SET shared = shared || ARRAY(
			SELECT t.u
			FROM unnest($4::text[]) WITH ORDINALITY AS t(u, ord)
			WHERE t.u <> ALL (jobs.shared)
			GROUP BY t.u
			ORDER BY min(t.ord)
		)
		WHERE id = $1
		  AND owner = $2
		  AND auth_strategy = $3
	`, params)
}

// Unshare removes params.Users from the shared set of a default strategy
// job owned by params.Owner, keeping the order of the remaining users.
func (r *JobRepo) Unshare(ctx context.Context, params core.ShareJobParams) (bool, error) {
	return r.execShare(ctx, "unshare job", `
		UPDATE jobs
		SET shared = ARRAY(
			SELECT t.u
			FROM unnest(jobs.shared) WITH ORDINALITY AS t(u, ord)
			WHERE t.u <> ALL ($4::text[])
			ORDER BY t.ord
		)
		WHERE id = $1
		  AND owner = $2
		  AND auth_strategy = $3
	`, params)
}

func (r *JobRepo) execShare(ctx context.Context, op, query string, params core.ShareJobParams) (bool, error) {
	users := params.Users
	if users == nil {
		users = []string{}
	}
	var matched bool
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		tag, err := pgxConn.Exec(ctx, query, params.ID, params.Owner, model.DefaultAuthStrategy, users)
		if err != nil {
			return err
		}
		matched = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return matched, nil
}
