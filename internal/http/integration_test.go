package httpx

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrCreosote/user-and-job-state/internal/adapters/devauth"
	"github.com/MrCreosote/user-and-job-state/internal/core"
	"github.com/MrCreosote/user-and-job-state/internal/data/testhelpers"
	"github.com/MrCreosote/user-and-job-state/internal/domain/model"
	"github.com/MrCreosote/user-and-job-state/internal/service"
	"github.com/MrCreosote/user-and-job-state/internal/testutil"
)

type listedJobs struct {
	Jobs []jobView `json:"jobs"`
}

// newDBRouter serves the job routes over a real repository, trusting X-User.
func newDBRouter(t *testing.T, db *sql.DB) (http.Handler, string) {
	t.Helper()
	repo, _ := testhelpers.NewFixedClockJobRepo(db, time.Now().UTC().Add(-time.Hour))
	id, err := testhelpers.CreateStartedJob(context.Background(), repo, "alice", "serv1", model.TaskProgress(5))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(RouterServices{
		Jobs: service.MustNewJobService(service.JobServiceOptions{
			Repo:      repo,
			Publisher: core.NoopJobEventPublisher{},
			Logger:    logger,
		}),
		Resolver:     devauth.NewResolver(devauth.Config{}),
		MaxBodyBytes: 1 << 16,
		Logger:       logger,
	})
	return router, id
}

func asUser(t *testing.T, h http.Handler, user, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := newRequest(t, method, target, body)
	req.Header.Set(UserHeader, user)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIntegration_JobLifecycleOverHTTP(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		h, id := newDBRouter(t, db)
		jobPath := "/api/v1/jobs/" + id

		rec := asUser(t, h, "alice", http.MethodGet, jobPath, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		job := decodeBody[map[string]any](t, rec)
		assert.Equal(t, "started", job["stage"])
		assert.Equal(t, "serv1", job["service"])
		assert.EqualValues(t, 0, job["prog"])
		assert.EqualValues(t, 5, job["maxprog"])

		assert.Equal(t, http.StatusNotFound, asUser(t, h, "bob", http.MethodGet, jobPath, nil).Code)

		rec = asUser(t, h, "alice", http.MethodPost, jobPath+"/share", map[string]any{"users": []string{"bob", "alice"}})
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
		assert.Equal(t, http.StatusOK, asUser(t, h, "bob", http.MethodGet, jobPath, nil).Code)

		rec = asUser(t, h, "bob", http.MethodGet, "/api/v1/jobs?shared=true", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		shared := decodeBody[listedJobs](t, rec)
		require.Len(t, shared.Jobs, 1)
		assert.Equal(t, id, shared.Jobs[0].ID)
		assert.Equal(t, []string{"bob"}, shared.Jobs[0].Shared)

		rec = asUser(t, h, "bob", http.MethodGet, "/api/v1/jobs", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decodeBody[listedJobs](t, rec).Jobs)

		rec = asUser(t, h, "bob", http.MethodGet, "/api/v1/services", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"services":["serv1"]}`, rec.Body.String())

		// Only the owner may cancel or delete.
		cancel := map[string]any{"status": "stopped"}
		assert.Equal(t, http.StatusNotFound, asUser(t, h, "bob", http.MethodPost, jobPath+"/cancel", cancel).Code)
		assert.Equal(t, http.StatusNotFound, asUser(t, h, "alice", http.MethodDelete, jobPath, nil).Code)

		rec = asUser(t, h, "alice", http.MethodPost, jobPath+"/cancel", cancel)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = asUser(t, h, "alice", http.MethodGet, jobPath, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		job = decodeBody[map[string]any](t, rec)
		assert.Equal(t, "canceled", job["stage"])
		assert.Equal(t, "alice", job["canceledby"])
		assert.Equal(t, "stopped", job["status"])

		rec = asUser(t, h, "alice", http.MethodGet, "/api/v1/jobs?filter=x", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeBody[listedJobs](t, rec).Jobs, 1)

		assert.Equal(t, http.StatusNotFound, asUser(t, h, "bob", http.MethodDelete, jobPath, nil).Code)
		assert.Equal(t, http.StatusNoContent, asUser(t, h, "alice", http.MethodDelete, jobPath, nil).Code)
		assert.Equal(t, http.StatusNotFound, asUser(t, h, "alice", http.MethodGet, jobPath, nil).Code)
	})
}

func TestIntegration_MissingUserHeader(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		h, id := newDBRouter(t, db)
		req := newRequest(t, http.MethodGet, "/api/v1/jobs/"+id, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
