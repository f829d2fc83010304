package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrCreosote/user-and-job-state/internal/core"
	"github.com/MrCreosote/user-and-job-state/internal/domain/model"
	apperrors "github.com/MrCreosote/user-and-job-state/internal/errors"
)

func strPtr(s string) *string { return &s }

func aliceJob() *model.Job {
	return &model.Job{
		ID:           testJobID,
		Owner:        testUser,
		AuthStrategy: model.DefaultAuthStrategy,
		AuthParam:    model.DefaultAuthParam,
		Metadata:     []model.MetaPair{},
		Service:      strPtr("serv1"),
		Status:       strPtr("running"),
		Created:      testNow,
		Updated:      testNow,
		Shared:       []string{},
	}
}

func TestCreateJob(t *testing.T) {
	ts := newTestServer(t)
	ts.jobs.EXPECT().Create(gomock.Any(), gomock.Cond(func(req *model.CreateJobRequest) bool {
		return req.Owner == testUser &&
			req.AuthStrategy == model.DefaultAuthStrategy &&
			len(req.Metadata) == 1 && req.Metadata[0].Key == "a"
	})).Return(testJobID, nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/jobs", map[string]any{
		"meta": []map[string]string{{"k": "a", "v": "b"}},
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, testJobID, decodeBody[idResponse](t, rec).ID)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestCreateJob_WithStart(t *testing.T) {
	ts := newTestServer(t)
	gomock.InOrder(
		ts.jobs.EXPECT().Create(gomock.Any(), gomock.Any()).Return(testJobID, nil),
		ts.jobs.EXPECT().Start(gomock.Any(), gomock.Cond(func(req *model.StartJobRequest) bool {
			return req.ID == testJobID && req.Service == "serv1" && req.Progress.Type == model.ProgressTask
		})).Return(true, nil),
	)

	rec := ts.do(t, http.MethodPost, "/api/v1/jobs", map[string]any{
		"start": map[string]any{
			"service":  "serv1",
			"status":   "running",
			"desc":     "a job",
			"progress": map[string]any{"type": "task", "max": 3},
		},
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, testJobID, decodeBody[idResponse](t, rec).ID)
}

func TestCreateJob_StartRejectsMetadata(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/jobs", map[string]any{
		"meta":  []map[string]string{{"k": "a", "v": "b"}},
		"start": map[string]any{"service": "serv1"},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decodeBody[ErrorResponse](t, rec).Error)
}

func TestCreateJob_InvalidJSON(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/jobs", `{"bogus": 1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", decodeBody[ErrorResponse](t, rec).Error)

	rec = ts.do(t, http.MethodPost, "/api/v1/jobs", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateJob_StoreUnavailable(t *testing.T) {
	ts := newTestServer(t)
	ts.jobs.EXPECT().Create(gomock.Any(), gomock.Any()).Return("", errors.New("dial tcp: connection refused"))

	rec := ts.do(t, http.MethodPost, "/api/v1/jobs", map[string]any{})

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "communication", body.Error)
	assert.NotContains(t, body.Message, "connection refused")
}

func TestJobs_RequireAuthentication(t *testing.T) {
	ts := newTestServer(t)

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, newRequest(t, http.MethodGet, "/api/v1/jobs/"+testJobID, nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
	assert.Equal(t, "authentication_required", decodeBody[ErrorResponse](t, rec).Error)

	req := newRequest(t, http.MethodGet, "/api/v1/jobs/"+testJobID, nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetJob(t *testing.T) {
	ts := newTestServer(t)
	ts.jobs.EXPECT().GetByID(gomock.Any(), testJobID).Return(aliceJob(), nil)

	rec := ts.do(t, http.MethodGet, "/api/v1/jobs/"+testJobID, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, testJobID, body["id"])
	assert.Equal(t, testUser, body["owner"])
	assert.Equal(t, "started", body["stage"])
	assert.Equal(t, "serv1", body["service"])
}

func TestGetJob_CanceledBeforeStart(t *testing.T) {
	ts := newTestServer(t)
	job := aliceJob()
	job.Service = nil
	job.Complete = true
	job.CanceledBy = strPtr(testUser)
	ts.jobs.EXPECT().GetByID(gomock.Any(), testJobID).Return(job, nil)

	rec := ts.do(t, http.MethodGet, "/api/v1/jobs/"+testJobID, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "canceled", body["stage"])
	assert.Equal(t, testUser, body["canceledby"])
	assert.NotContains(t, body, "service")
}

func TestGetJob_NotVisible(t *testing.T) {
	ts := newTestServer(t)
	job := aliceJob()
	job.Owner = "bob"
	ts.jobs.EXPECT().GetByID(gomock.Any(), testJobID).Return(job, nil)

	rec := ts.do(t, http.MethodGet, "/api/v1/jobs/"+testJobID, nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "not_found", body.Error)
	assert.Equal(t, "There is no job "+testJobID+" viewable by user alice", body.Message)
}

func TestGetJob_BadID(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/jobs/nothex", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Job ID nothex is not a legal ID", decodeBody[ErrorResponse](t, rec).Message)
}

func TestStartJob_NotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.jobs.EXPECT().Start(gomock.Any(), gomock.Any()).Return(false, nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/jobs/"+testJobID+"/start", map[string]any{
		"service": "serv1", "status": "go", "progress": map[string]any{"type": "none"},
	})

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "There is no unstarted job "+testJobID+" for user alice", decodeBody[ErrorResponse](t, rec).Message)
}

func TestUpdateAndCompleteJob(t *testing.T) {
	ts := newTestServer(t)
	ts.jobs.EXPECT().Update(gomock.Any(), gomock.Cond(func(req *model.UpdateJobRequest) bool {
		return req.Owner == testUser && req.ProgressDelta != nil && *req.ProgressDelta == 2
	})).Return(true, nil)
	ts.jobs.EXPECT().Complete(gomock.Any(), gomock.Cond(func(req *model.CompleteJobRequest) bool {
		return req.ErrorMessage != nil && *req.ErrorMessage == "boom" && req.Results != nil
	})).Return(true, nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/jobs/"+testJobID+"/update", map[string]any{
		"service": "serv1", "status": "halfway", "prog": 2,
	})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/v1/jobs/"+testJobID+"/complete", map[string]any{
		"service": "serv1",
		"status":  "failed",
		"error":   "boom",
		"results": map[string]any{"shocknodes": []string{"n1"}},
	})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
}

func TestCancelJob(t *testing.T) {
	ts := newTestServer(t)
	ts.jobs.EXPECT().GetUncompleted(gomock.Any(), testJobID).Return(aliceJob(), nil)
	ts.jobs.EXPECT().Cancel(gomock.Any(), core.CancelJobParams{ID: testJobID, User: testUser, Status: "stop"}).
		Return(true, nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/jobs/"+testJobID+"/cancel", map[string]any{"status": "stop"})

	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
}

func TestDeleteJob(t *testing.T) {
	t.Run("completed only", func(t *testing.T) {
		ts := newTestServer(t)
		params := core.DeleteJobParams{ID: testJobID}
		ts.jobs.EXPECT().GetDeletable(gomock.Any(), params).Return(aliceJob(), nil)
		ts.jobs.EXPECT().Delete(gomock.Any(), params).Return(true, nil)

		rec := ts.do(t, http.MethodDelete, "/api/v1/jobs/"+testJobID, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	})

	t.Run("by service", func(t *testing.T) {
		ts := newTestServer(t)
		byService := gomock.Cond(func(p core.DeleteJobParams) bool {
			return p.ID == testJobID && p.Service != nil && *p.Service == "serv1"
		})
		ts.jobs.EXPECT().GetDeletable(gomock.Any(), byService).Return(aliceJob(), nil)
		ts.jobs.EXPECT().Delete(gomock.Any(), byService).Return(true, nil)

		rec := ts.do(t, http.MethodDelete, "/api/v1/jobs/"+testJobID+"?service=serv1", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	})

	t.Run("missing", func(t *testing.T) {
		ts := newTestServer(t)
		ts.jobs.EXPECT().GetDeletable(gomock.Any(), gomock.Any()).Return(nil, apperrors.NotFound("job not found"))

		rec := ts.do(t, http.MethodDelete, "/api/v1/jobs/"+testJobID, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "There is no deletable job "+testJobID+" for user alice", decodeBody[ErrorResponse](t, rec).Message)
	})
}

func TestListJobs(t *testing.T) {
	ts := newTestServer(t)
	ts.jobs.EXPECT().List(gomock.Any(), gomock.Cond(func(req *model.ListJobsRequest) bool {
		return req.User == testUser &&
			assert.ObjectsAreEqual([]string{"a", "b", "c"}, req.Services) &&
			req.Stages == model.StageFilter{Running: true, Error: true} &&
			req.IncludeShared
	})).Return([]*model.Job{aliceJob()}, nil)

	rec := ts.do(t, http.MethodGet, "/api/v1/jobs?services=a,b&services=c&filter=RE&shared=true", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody[struct {
		Jobs []map[string]any `json:"jobs"`
	}](t, rec)
	require.Len(t, body.Jobs, 1)
	assert.Equal(t, "started", body.Jobs[0]["stage"])
}

func TestListJobs_Empty(t *testing.T) {
	ts := newTestServer(t)
	ts.jobs.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, nil)

	rec := ts.do(t, http.MethodGet, "/api/v1/jobs", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"jobs":[]}`, rec.Body.String())
}

func TestListJobs_BadQuery(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/jobs?shared=maybe", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "shared", body.Field)

	rec = ts.do(t, http.MethodGet, "/api/v1/jobs?authstrat=kbaseworkspace&authparams=1", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListServices(t *testing.T) {
	ts := newTestServer(t)
	ts.jobs.EXPECT().ListServices(gomock.Any(), testUser).Return([]string{"a", "b"}, nil)

	rec := ts.do(t, http.MethodGet, "/api/v1/services", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"services":["a","b"]}`, rec.Body.String())
}

func TestShareAndUnshareJob(t *testing.T) {
	ts := newTestServer(t)
	ts.jobs.EXPECT().Share(gomock.Any(), core.ShareJobParams{ID: testJobID, Owner: testUser, Users: []string{"bob"}}).
		Return(true, nil)
	ts.jobs.EXPECT().GetByID(gomock.Any(), testJobID).Return(aliceJob(), nil)
	ts.jobs.EXPECT().Unshare(gomock.Any(), core.ShareJobParams{ID: testJobID, Owner: testUser, Users: []string{"bob"}}).
		Return(true, nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/jobs/"+testJobID+"/share", map[string]any{"users": []string{"bob", testUser}})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/v1/jobs/"+testJobID+"/unshare", map[string]any{"users": []string{"bob"}})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
}

func TestShareJob_NullUsers(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/jobs/"+testJobID+"/share", map[string]any{})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "The users list cannot be null", decodeBody[ErrorResponse](t, rec).Message)
}

func TestJobs_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPut, "/api/v1/jobs/"+testJobID, nil)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
