package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrCreosote/user-and-job-state/internal/core"
	"github.com/MrCreosote/user-and-job-state/internal/domain/auth"
	"github.com/MrCreosote/user-and-job-state/internal/domain/model"
	apperrors "github.com/MrCreosote/user-and-job-state/internal/errors"
	"github.com/MrCreosote/user-and-job-state/internal/mocks"
)

const (
	testJobID      = "0123456789abcdef01234567"
	testJobIDUpper = "0123456789ABCDEF01234567"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type jobServiceFixture struct {
	svc       *JobService
	repo      *mocks.MockJobRepository
	publisher *mocks.MockJobEventPublisher
}

func newTestJobService(t *testing.T) jobServiceFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	pub := mocks.NewMockJobEventPublisher(ctrl)
	svc := MustNewJobService(JobServiceOptions{
		Repo:      repo,
		Publisher: pub,
		Now:       func() time.Time { return testNow },
	})
	return jobServiceFixture{svc: svc, repo: repo, publisher: pub}
}

func strPtr(s string) *string { return &s }

func startedJob(owner string) *model.Job {
	return &model.Job{
		ID:           testJobID,
		Owner:        owner,
		AuthStrategy: model.DefaultAuthStrategy,
		AuthParam:    model.DefaultAuthParam,
		Service:      strPtr("serv1"),
		Shared:       []string{"friend"},
	}
}

func expectEvent(pub *mocks.MockJobEventPublisher, typ model.JobEventType) *gomock.Call {
	return pub.EXPECT().PublishJobEvent(gomock.Any(), gomock.Cond(func(evt model.JobEvent) bool {
		return evt.Type == typ && evt.At.Equal(testNow)
	})).Return(nil)
}

func requireNotFound(t *testing.T, err error, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err), "expected not found, got %v", err)
	assert.Equal(t, msg, err.Error())
}

func TestNewJobService(t *testing.T) {
	_, err := NewJobService(JobServiceOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JobRepository is required")
	assert.Panics(t, func() { MustNewJobService(JobServiceOptions{}) })

	ctrl := gomock.NewController(t)
	svc, err := NewJobService(JobServiceOptions{Repo: mocks.NewMockJobRepository(ctrl)})
	require.NoError(t, err)
	assert.IsType(t, auth.DefaultAuthorizer{}, svc.authorizer)
	assert.IsType(t, core.NoopJobEventPublisher{}, svc.publisher)
}

func TestJobService_CreateJob(t *testing.T) {
	t.Run("defaults the strategy", func(t *testing.T) {
		f := newTestJobService(t)
		f.repo.EXPECT().Create(gomock.Any(), &model.CreateJobRequest{
			Owner:        "foo",
			AuthStrategy: model.DefaultAuthStrategy,
			AuthParam:    model.DefaultAuthParam,
		}).Return(testJobID, nil)
		expectEvent(f.publisher, model.JobEventCreated)

		id, err := f.svc.CreateDefaultJob(context.Background(), "foo")
		require.NoError(t, err)
		assert.Equal(t, testJobID, id)
	})

	t.Run("validates the owner", func(t *testing.T) {
		f := newTestJobService(t)
		_, err := f.svc.CreateDefaultJob(context.Background(), "")
		require.Error(t, err)
		assert.Equal(t, "user cannot be null or the empty string", err.Error())
	})

	t.Run("create denial is an authorization error", func(t *testing.T) {
		f := newTestJobService(t)
		acl := &auth.ParamACLAuthorizer{Strategy: "acl", Readers: map[string][]string{"1": {"r"}}}
		_, err := f.svc.CreateJob(context.Background(), CreateJobParams{
			CreateJobRequest: model.CreateJobRequest{Owner: "foo", AuthStrategy: "acl", AuthParam: "2"},
			Authorizer:       acl,
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsAuthorization(err))
		assert.ErrorIs(t, err, auth.ErrUnauthorized)
	})

	t.Run("store failure is a communication error", func(t *testing.T) {
		f := newTestJobService(t)
		f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return("", errors.New("dial tcp: refused"))
		_, err := f.svc.CreateDefaultJob(context.Background(), "foo")
		require.Error(t, err)
		assert.True(t, apperrors.IsCommunication(err))
		assert.Equal(t, apperrors.CommunicationMessage, apperrors.GetMessage(err))
	})

	t.Run("publish failure does not fail the operation", func(t *testing.T) {
		f := newTestJobService(t)
		f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(testJobID, nil)
		f.publisher.EXPECT().PublishJobEvent(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))
		id, err := f.svc.CreateDefaultJob(context.Background(), "foo")
		require.NoError(t, err)
		assert.Equal(t, testJobID, id)
	})
}

func TestJobService_StartJob(t *testing.T) {
	req := func() *model.StartJobRequest {
		return &model.StartJobRequest{
			Owner: "foo", ID: testJobIDUpper, Service: "serv1", Status: "st", Description: "d",
			Progress: model.TaskProgress(10),
		}
	}

	t.Run("canonicalizes the id without mutating the request", func(t *testing.T) {
		f := newTestJobService(t)
		r := req()
		f.repo.EXPECT().Start(gomock.Any(), gomock.Cond(func(got *model.StartJobRequest) bool {
			return got.ID == testJobID
		})).Return(true, nil)
		expectEvent(f.publisher, model.JobEventStarted)

		require.NoError(t, f.svc.StartJob(context.Background(), r))
		assert.Equal(t, testJobIDUpper, r.ID)
	})

	t.Run("no match reports the raw id", func(t *testing.T) {
		f := newTestJobService(t)
		f.repo.EXPECT().Start(gomock.Any(), gomock.Any()).Return(false, nil)
		err := f.svc.StartJob(context.Background(), req())
		requireNotFound(t, err, "There is no unstarted job "+testJobIDUpper+" for user foo")
	})

	t.Run("past estimate", func(t *testing.T) {
		f := newTestJobService(t)
		r := req()
		past := testNow
		r.EstComplete = &past
		err := f.svc.StartJob(context.Background(), r)
		require.Error(t, err)
		assert.Equal(t, "The estimated completion date must be in the future", err.Error())
	})

	t.Run("null byte in status never reaches the store", func(t *testing.T) {
		f := newTestJobService(t)
		r := req()
		r.Status = "a\x00b"
		err := f.svc.StartJob(context.Background(), r)
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
		assert.Equal(t, "status contains a null character", err.Error())
	})

	t.Run("illegal id", func(t *testing.T) {
		f := newTestJobService(t)
		r := req()
		r.ID = "afeaefafaefaefafeaf"
		err := f.svc.StartJob(context.Background(), r)
		require.Error(t, err)
		assert.Equal(t, "Job ID afeaefafaefaefafeaf is not a legal ID", err.Error())
	})
}

func TestJobService_CreateAndStartJob(t *testing.T) {
	req := func() *model.CreateAndStartJobRequest {
		return &model.CreateAndStartJobRequest{
			Owner: "foo", Service: "serv1", Status: "st", Description: "d", Progress: model.PercentProgress(),
		}
	}

	t.Run("creates then starts", func(t *testing.T) {
		f := newTestJobService(t)
		gomock.InOrder(
			f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(testJobID, nil),
			f.repo.EXPECT().Start(gomock.Any(), gomock.Cond(func(got *model.StartJobRequest) bool {
				return got.ID == testJobID && got.Owner == "foo" && got.Progress.Type == model.ProgressPercent
			})).Return(true, nil),
		)
		expectEvent(f.publisher, model.JobEventCreated)
		expectEvent(f.publisher, model.JobEventStarted)

		id, err := f.svc.CreateAndStartJob(context.Background(), req())
		require.NoError(t, err)
		assert.Equal(t, testJobID, id)
	})

	t.Run("invalid start creates nothing", func(t *testing.T) {
		f := newTestJobService(t)
		r := req()
		r.Progress = model.TaskProgress(0)
		_, err := f.svc.CreateAndStartJob(context.Background(), r)
		require.Error(t, err)
		assert.Equal(t, "The maximum progress for the job must be > 0", err.Error())
	})

	t.Run("vanished job is internal", func(t *testing.T) {
		f := newTestJobService(t)
		f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(testJobID, nil)
		f.repo.EXPECT().Start(gomock.Any(), gomock.Any()).Return(false, nil)
		expectEvent(f.publisher, model.JobEventCreated)
		_, err := f.svc.CreateAndStartJob(context.Background(), req())
		require.Error(t, err)
		assert.True(t, apperrors.IsInternal(err))
	})
}

func TestJobService_UpdateAndComplete(t *testing.T) {
	msg := "There is no uncompleted job " + testJobID + " for user foo started by service serv1"

	t.Run("update no match", func(t *testing.T) {
		f := newTestJobService(t)
		f.repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(false, nil)
		delta := 3
		err := f.svc.UpdateJob(context.Background(), &model.UpdateJobRequest{
			Owner: "foo", ID: testJobID, Service: "serv1", ProgressDelta: &delta,
		})
		requireNotFound(t, err, msg)
	})

	t.Run("update negative progress", func(t *testing.T) {
		f := newTestJobService(t)
		delta := -1
		err := f.svc.UpdateJob(context.Background(), &model.UpdateJobRequest{
			Owner: "foo", ID: testJobID, Service: "serv1", ProgressDelta: &delta,
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("complete with error publishes errored event", func(t *testing.T) {
		f := newTestJobService(t)
		results := &model.JobResults{ShockNodes: []string{"n1"}}
		f.repo.EXPECT().Complete(gomock.Any(), gomock.Cond(func(got *model.CompleteJobRequest) bool {
			return got.Results != results && got.Results.ShockNodes[0] == "n1"
		})).Return(true, nil)
		f.publisher.EXPECT().PublishJobEvent(gomock.Any(), gomock.Cond(func(evt model.JobEvent) bool {
			return evt.Type == model.JobEventCompleted && evt.Error && evt.Service == "serv1"
		})).Return(nil)

		err := f.svc.CompleteJob(context.Background(), &model.CompleteJobRequest{
			Owner: "foo", ID: testJobID, Service: "serv1", ErrorMessage: strPtr("boom"), Results: results,
		})
		require.NoError(t, err)
	})

	t.Run("complete with a null byte in results", func(t *testing.T) {
		f := newTestJobService(t)
		err := f.svc.CompleteJob(context.Background(), &model.CompleteJobRequest{
			Owner: "foo", ID: testJobID, Service: "serv1",
			Results: &model.JobResults{WorkspaceIDs: []string{"1\x00"}},
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
		assert.Equal(t, "results", apperrors.GetField(err))
	})

	t.Run("complete no match", func(t *testing.T) {
		f := newTestJobService(t)
		f.repo.EXPECT().Complete(gomock.Any(), gomock.Any()).Return(false, nil)
		err := f.svc.CompleteJob(context.Background(), &model.CompleteJobRequest{
			Owner: "foo", ID: testJobID, Service: "serv1",
		})
		requireNotFound(t, err, msg)
	})
}

func TestJobService_GetJob(t *testing.T) {
	t.Run("owner and shared users may read", func(t *testing.T) {
		f := newTestJobService(t)
		f.repo.EXPECT().GetByID(gomock.Any(), testJobID).Return(startedJob("foo"), nil).Times(2)
		for _, user := range []string{"foo", "friend"} {
			job, err := f.svc.GetJob(context.Background(), GetJobParams{User: user, ID: testJobID})
			require.NoError(t, err)
			assert.Equal(t, "foo", job.Owner)
		}
	})

	t.Run("denial is indistinguishable from absence", func(t *testing.T) {
		f := newTestJobService(t)
		f.repo.EXPECT().GetByID(gomock.Any(), testJobID).Return(startedJob("foo"), nil)
		f.repo.EXPECT().GetByID(gomock.Any(), testJobID).Return(nil, apperrors.NotFound("job not found"))

		_, denied := f.svc.GetJob(context.Background(), GetJobParams{User: "stranger", ID: testJobID})
		_, absent := f.svc.GetJob(context.Background(), GetJobParams{User: "stranger", ID: testJobID})
		requireNotFound(t, denied, "There is no job "+testJobID+" viewable by user stranger")
		assert.Equal(t, denied.Error(), absent.Error())
	})

	t.Run("store failure", func(t *testing.T) {
		f := newTestJobService(t)
		f.repo.EXPECT().GetByID(gomock.Any(), testJobID).Return(nil, errors.New("i/o timeout"))
		_, err := f.svc.GetJob(context.Background(), GetJobParams{User: "foo", ID: testJobID})
		assert.True(t, apperrors.IsCommunication(err))
	})

	t.Run("authorizer override", func(t *testing.T) {
		f := newTestJobService(t)
		job := startedJob("foo")
		job.AuthStrategy, job.AuthParam = "acl", "grp"
		f.repo.EXPECT().GetByID(gomock.Any(), testJobID).Return(job, nil)
		acl := &auth.ParamACLAuthorizer{Strategy: "acl", Readers: map[string][]string{"grp": {"reader"}}}
		_, err := f.svc.GetJob(context.Background(), GetJobParams{User: "reader", ID: testJobID, Authorizer: acl})
		require.NoError(t, err)
	})
}

func TestJobService_CancelJob(t *testing.T) {
	params := func(user string) CancelJobParams {
		return CancelJobParams{User: user, ID: testJobID, Status: "stop"}
	}

	t.Run("owner cancels", func(t *testing.T) {
		f := newTestJobService(t)
		f.repo.EXPECT().GetUncompleted(gomock.Any(), testJobID).Return(startedJob("foo"), nil)
		f.repo.EXPECT().Cancel(gomock.Any(), core.CancelJobParams{ID: testJobID, User: "foo", Status: "stop"}).Return(true, nil)
		expectEvent(f.publisher, model.JobEventCanceled)
		require.NoError(t, f.svc.CancelJob(context.Background(), params("foo")))
	})

	t.Run("shared user may not cancel", func(t *testing.T) {
		f := newTestJobService(t)
		f.repo.EXPECT().GetUncompleted(gomock.Any(), testJobID).Return(startedJob("foo"), nil)
		err := f.svc.CancelJob(context.Background(), params("friend"))
		requireNotFound(t, err, "There is no job "+testJobID+" that may be canceled by user friend")
	})

	t.Run("completed job", func(t *testing.T) {
		f := newTestJobService(t)
		f.repo.EXPECT().GetUncompleted(gomock.Any(), testJobID).Return(nil, apperrors.NotFound("job not found"))
		err := f.svc.CancelJob(context.Background(), params("foo"))
		requireNotFound(t, err, "There is no job "+testJobID+" that may be canceled by user foo")
	})

	t.Run("lost race", func(t *testing.T) {
		f := newTestJobService(t)
		f.repo.EXPECT().GetUncompleted(gomock.Any(), testJobID).Return(startedJob("foo"), nil)
		f.repo.EXPECT().Cancel(gomock.Any(), gomock.Any()).Return(false, nil)
		err := f.svc.CancelJob(context.Background(), params("foo"))
		requireNotFound(t, err, "There is no job "+testJobID+" that may be canceled by user foo")
	})

	t.Run("long status", func(t *testing.T) {
		f := newTestJobService(t)
		p := params("foo")
		p.Status = string(make([]byte, model.MaxLenStatus+1))
		err := f.svc.CancelJob(context.Background(), p)
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestJobService_DeleteJob(t *testing.T) {
	t.Run("unscoped delete", func(t *testing.T) {
		f := newTestJobService(t)
		pred := core.DeleteJobParams{ID: testJobID}
		f.repo.EXPECT().GetDeletable(gomock.Any(), pred).Return(startedJob("foo"), nil)
		f.repo.EXPECT().Delete(gomock.Any(), pred).Return(true, nil)
		expectEvent(f.publisher, model.JobEventDeleted)
		require.NoError(t, f.svc.DeleteJob(context.Background(), DeleteJobParams{User: "foo", ID: testJobID}))
	})

	t.Run("service scoped message", func(t *testing.T) {
		f := newTestJobService(t)
		svc := "serv1"
		f.repo.EXPECT().GetDeletable(gomock.Any(), core.DeleteJobParams{ID: testJobID, Service: &svc}).
			Return(nil, apperrors.NotFound("job not found"))
		err := f.svc.DeleteJob(context.Background(), DeleteJobParams{User: "foo", ID: testJobID, Service: &svc})
		requireNotFound(t, err, "There is no deletable job "+testJobID+" for user foo and service serv1")
	})

	t.Run("non-owner", func(t *testing.T) {
		f := newTestJobService(t)
		f.repo.EXPECT().GetDeletable(gomock.Any(), gomock.Any()).Return(startedJob("foo"), nil)
		err := f.svc.DeleteJob(context.Background(), DeleteJobParams{User: "friend", ID: testJobID})
		requireNotFound(t, err, "There is no deletable job "+testJobID+" for user friend")
	})

	t.Run("deleted concurrently", func(t *testing.T) {
		f := newTestJobService(t)
		f.repo.EXPECT().GetDeletable(gomock.Any(), gomock.Any()).Return(startedJob("foo"), nil)
		f.repo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(false, nil)
		err := f.svc.DeleteJob(context.Background(), DeleteJobParams{User: "foo", ID: testJobID})
		requireNotFound(t, err, "There is no deletable job "+testJobID+" for user foo")
	})
}

func TestJobService_ListJobs(t *testing.T) {
	t.Run("defaults to the default strategy", func(t *testing.T) {
		f := newTestJobService(t)
		f.repo.EXPECT().List(gomock.Any(), &model.ListJobsRequest{
			User:          "foo",
			Services:      []string{"serv1"},
			Stages:        model.StageFilter{Running: true},
			IncludeShared: true,
			AuthStrategy:  model.DefaultAuthStrategy,
			AuthParams:    []string{model.DefaultAuthParam},
		}).Return([]*model.Job{startedJob("foo")}, nil)

		jobs, err := f.svc.ListJobs(context.Background(), ListJobsParams{ListJobsRequest: model.ListJobsRequest{
			User: "foo", Services: []string{"serv1"}, Stages: model.StageFilter{Running: true}, IncludeShared: true,
		}})
		require.NoError(t, err)
		assert.Len(t, jobs, 1)
	})

	t.Run("non-default strategy needs an authorizer", func(t *testing.T) {
		f := newTestJobService(t)
		_, err := f.svc.ListJobs(context.Background(), ListJobsParams{ListJobsRequest: model.ListJobsRequest{
			User: "foo", AuthStrategy: "acl", AuthParams: []string{"1"},
		}})
		require.Error(t, err)
		assert.True(t, apperrors.IsAuthorization(err))
		assert.Contains(t, err.Error(), "Invalid authorization strategy: acl")
	})

	t.Run("bulk read is all or nothing", func(t *testing.T) {
		f := newTestJobService(t)
		acl := &auth.ParamACLAuthorizer{Strategy: "acl", Readers: map[string][]string{"1": {"r"}, "2": {}}}
		_, err := f.svc.ListJobs(context.Background(), ListJobsParams{
			ListJobsRequest: model.ListJobsRequest{User: "r", AuthStrategy: "acl", AuthParams: []string{"1", "2"}},
			Authorizer:      acl,
		})
		assert.True(t, apperrors.IsAuthorization(err))
	})

	t.Run("invalid service", func(t *testing.T) {
		f := newTestJobService(t)
		_, err := f.svc.ListJobs(context.Background(), ListJobsParams{ListJobsRequest: model.ListJobsRequest{
			User: "foo", Services: []string{""},
		}})
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestJobService_ListServices(t *testing.T) {
	f := newTestJobService(t)
	f.repo.EXPECT().ListServices(gomock.Any(), "foo").Return([]string{"a", "b"}, nil)
	services, err := f.svc.ListServices(context.Background(), "foo")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, services)

	_, err = f.svc.ListServices(context.Background(), "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestJobService_ShareJob(t *testing.T) {
	t.Run("drops the owner", func(t *testing.T) {
		f := newTestJobService(t)
		users := []string{"foo", "a", "b"}
		f.repo.EXPECT().Share(gomock.Any(), core.ShareJobParams{ID: testJobID, Owner: "foo", Users: []string{"a", "b"}}).
			Return(true, nil)
		expectEvent(f.publisher, model.JobEventShared)
		require.NoError(t, f.svc.ShareJob(context.Background(), "foo", testJobIDUpper, users))
		assert.Equal(t, []string{"foo", "a", "b"}, users)
	})

	t.Run("not owner", func(t *testing.T) {
		f := newTestJobService(t)
		f.repo.EXPECT().Share(gomock.Any(), gomock.Any()).Return(false, nil)
		err := f.svc.ShareJob(context.Background(), "bar", testJobID, []string{"a"})
		requireNotFound(t, err, "There is no job "+testJobID+" with default authorization owned by user bar")
	})

	t.Run("validation", func(t *testing.T) {
		f := newTestJobService(t)
		err := f.svc.ShareJob(context.Background(), "foo", testJobID, nil)
		require.Error(t, err)
		assert.Equal(t, "The users list cannot be null", err.Error())
		err = f.svc.ShareJob(context.Background(), "", testJobID, []string{"a"})
		require.Error(t, err)
		assert.Equal(t, "owner cannot be null or the empty string", err.Error())
	})
}

func TestJobService_UnshareJob(t *testing.T) {
	visible := "There is no job " + testJobID + " with default authorization visible to user "

	t.Run("owner removes anyone", func(t *testing.T) {
		f := newTestJobService(t)
		f.repo.EXPECT().GetByID(gomock.Any(), testJobID).Return(startedJob("foo"), nil)
		f.repo.EXPECT().Unshare(gomock.Any(), core.ShareJobParams{ID: testJobID, Owner: "foo", Users: []string{"friend", "x"}}).
			Return(true, nil)
		expectEvent(f.publisher, model.JobEventUnshared)
		require.NoError(t, f.svc.UnshareJob(context.Background(), "foo", testJobID, []string{"friend", "x"}))
	})

	t.Run("shared user removes themselves", func(t *testing.T) {
		f := newTestJobService(t)
		f.repo.EXPECT().GetByID(gomock.Any(), testJobID).Return(startedJob("foo"), nil)
		f.repo.EXPECT().Unshare(gomock.Any(), core.ShareJobParams{ID: testJobID, Owner: "foo", Users: []string{"friend"}}).
			Return(true, nil)
		expectEvent(f.publisher, model.JobEventUnshared)
		require.NoError(t, f.svc.UnshareJob(context.Background(), "friend", testJobID, []string{"friend"}))
	})

	t.Run("shared user may not remove others", func(t *testing.T) {
		f := newTestJobService(t)
		f.repo.EXPECT().GetByID(gomock.Any(), testJobID).Return(startedJob("foo"), nil)
		err := f.svc.UnshareJob(context.Background(), "friend", testJobID, []string{"friend", "foo"})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
		assert.Equal(t, "User friend may only stop sharing job "+testJobID+" for themselves", err.Error())
	})

	t.Run("stranger", func(t *testing.T) {
		f := newTestJobService(t)
		f.repo.EXPECT().GetByID(gomock.Any(), testJobID).Return(startedJob("foo"), nil)
		err := f.svc.UnshareJob(context.Background(), "stranger", testJobID, []string{"stranger"})
		requireNotFound(t, err, visible+"stranger")
	})

	t.Run("non-default job", func(t *testing.T) {
		f := newTestJobService(t)
		job := startedJob("foo")
		job.AuthStrategy = "acl"
		f.repo.EXPECT().GetByID(gomock.Any(), testJobID).Return(job, nil)
		err := f.svc.UnshareJob(context.Background(), "foo", testJobID, []string{"friend"})
		requireNotFound(t, err, visible+"foo")
	})

	t.Run("missing job", func(t *testing.T) {
		f := newTestJobService(t)
		f.repo.EXPECT().GetByID(gomock.Any(), testJobID).Return(nil, apperrors.NotFound("job not found"))
		err := f.svc.UnshareJob(context.Background(), "foo", testJobID, []string{"friend"})
		requireNotFound(t, err, visible+"foo")
	})

	t.Run("validation precedes lookup", func(t *testing.T) {
		f := newTestJobService(t)
		err := f.svc.UnshareJob(context.Background(), "foo", testJobID, []string{})
		require.Error(t, err)
		assert.Equal(t, "The users list is empty", err.Error())
	})

	t.Run("unmatched unshare is ignored", func(t *testing.T) {
		f := newTestJobService(t)
		f.repo.EXPECT().GetByID(gomock.Any(), testJobID).Return(startedJob("foo"), nil)
		f.repo.EXPECT().Unshare(gomock.Any(), gomock.Any()).Return(false, nil)
		require.NoError(t, f.svc.UnshareJob(context.Background(), "foo", testJobID, []string{"friend"}))
	})
}
