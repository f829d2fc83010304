package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/MrCreosote/user-and-job-state/internal/core"
	"github.com/MrCreosote/user-and-job-state/internal/domain/auth"
	"github.com/MrCreosote/user-and-job-state/internal/domain/model"
	apperrors "github.com/MrCreosote/user-and-job-state/internal/errors"
)

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Repo       core.JobRepository     // Required: job repository
	Authorizer auth.Authorizer        // Optional: defaults to auth.DefaultAuthorizer
	Publisher  core.JobEventPublisher // Optional: lifecycle event sink
	Logger     *slog.Logger           // Optional: structured logger
	Now        func() time.Time       // Optional: clock used for validation and events
}

// JobService implements the job lifecycle on top of a JobRepository.
//
// Each mutation maps to a single conditional write; when nothing matched the
// service reports a not-found error naming the precondition. Per-job
// authorization failures are reported the same way, so callers cannot probe
// for jobs they may not see.
type JobService struct {
	repo       core.JobRepository
	authorizer auth.Authorizer
	publisher  core.JobEventPublisher
	logger     *slog.Logger
	now        func() time.Time
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) (*JobService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}

	authorizer := opts.Authorizer
	if authorizer == nil {
		authorizer = auth.DefaultAuthorizer{}
	}
	publisher := opts.Publisher
	if publisher == nil {
		publisher = core.NoopJobEventPublisher{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &JobService{
		repo:       opts.Repo,
		authorizer: authorizer,
		publisher:  publisher,
		logger:     logger.With("component", "job_service"),
		now:        now,
	}, nil
}

// MustNewJobService constructs a new JobService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewJobService(opts JobServiceOptions) *JobService {
	svc, err := NewJobService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create JobService: %v", err))
	}
	return svc
}

// CreateJobParams wraps a create request with an optional authorizer override.
type CreateJobParams struct {
	model.CreateJobRequest
	Authorizer auth.Authorizer
}

// GetJobParams selects a job to read on behalf of User.
type GetJobParams struct {
	User       string
	ID         string
	Authorizer auth.Authorizer
}

// CancelJobParams selects a job for User to cancel.
type CancelJobParams struct {
	User       string
	ID         string
	Status     string
	Authorizer auth.Authorizer
}

// DeleteJobParams selects a job for User to delete. A nil Service deletes
// only completed jobs; a set Service deletes any job started by it.
type DeleteJobParams struct {
	User       string
	ID         string
	Service    *string
	Authorizer auth.Authorizer
}

// ListJobsParams wraps a list request with an optional authorizer override.
type ListJobsParams struct {
	model.ListJobsRequest
	Authorizer auth.Authorizer
}

func (s *JobService) authz(override auth.Authorizer) auth.Authorizer {
	if override != nil {
		return override
	}
	return s.authorizer
}

// CreateDefaultJob creates a default-strategy job with no metadata.
func (s *JobService) CreateDefaultJob(ctx context.Context, owner string) (string, error) {
	return s.CreateJob(ctx, CreateJobParams{CreateJobRequest: model.CreateJobRequest{Owner: owner}})
}

// CreateJob creates a job in the created stage and returns its id.
func (s *JobService) CreateJob(ctx context.Context, params CreateJobParams) (string, error) {
	req := params.CreateJobRequest
	req.Normalize()
	if err := model.CheckString(req.Owner, "user", model.MaxLenUser); err != nil {
		return "", err
	}
	if err := s.authz(params.Authorizer).AuthorizeCreate(req.AuthStrategy, req.AuthParam); err != nil {
		return "", apperrors.Authorization(err)
	}
	if err := req.Validate(); err != nil {
		return "", err
	}

	id, err := s.repo.Create(ctx, &req)
	if err != nil {
		return "", apperrors.MapDBError(err)
	}

	s.logger.DebugContext(ctx, "job created",
		"id", id,
		"owner", req.Owner,
		"auth_strategy", req.AuthStrategy,
	)
	s.publish(ctx, model.JobEvent{Type: model.JobEventCreated, JobID: id, Actor: req.Owner})
	return id, nil
}

// StartJob moves a created job owned by req.Owner into the started stage.
func (s *JobService) StartJob(ctx context.Context, req *model.StartJobRequest) error {
	if req == nil {
		return apperrors.Validation("start job request is required")
	}
	r := *req
	if err := r.Validate(s.now()); err != nil {
		return err
	}

	ok, err := s.repo.Start(ctx, &r)
	if err != nil {
		return apperrors.MapDBError(err)
	}
	if !ok {
		return apperrors.NotFoundf("There is no unstarted job %s for user %s", req.ID, req.Owner)
	}

	s.publish(ctx, model.JobEvent{Type: model.JobEventStarted, JobID: r.ID, Actor: r.Owner, Service: r.Service})
	return nil
}

// CreateAndStartJob creates a default-strategy job and starts it. The start
// arguments are validated first, so invalid input creates nothing.
func (s *JobService) CreateAndStartJob(ctx context.Context, req *model.CreateAndStartJobRequest) (string, error) {
	if req == nil {
		return "", apperrors.Validation("create and start job request is required")
	}
	if err := req.Validate(s.now()); err != nil {
		return "", err
	}

	id, err := s.CreateDefaultJob(ctx, req.Owner)
	if err != nil {
		return "", err
	}

	start := req.StartRequest(id)
	ok, err := s.repo.Start(ctx, start)
	if err != nil {
		return "", apperrors.MapDBError(err)
	}
	if !ok {
		return "", apperrors.Internalf("created job %s vanished before it could be started", id)
	}

	s.publish(ctx, model.JobEvent{Type: model.JobEventStarted, JobID: id, Actor: req.Owner, Service: req.Service})
	return id, nil
}

// UpdateJob records status and progress on a started, uncompleted job.
func (s *JobService) UpdateJob(ctx context.Context, req *model.UpdateJobRequest) error {
	if req == nil {
		return apperrors.Validation("update job request is required")
	}
	r := *req
	if err := r.Validate(s.now()); err != nil {
		return err
	}

	ok, err := s.repo.Update(ctx, &r)
	if err != nil {
		return apperrors.MapDBError(err)
	}
	if !ok {
		return noUncompletedJob(req.ID, req.Owner, req.Service)
	}
	return nil
}

// CompleteJob finishes a started job. A non-nil ErrorMessage marks it errored.
func (s *JobService) CompleteJob(ctx context.Context, req *model.CompleteJobRequest) error {
	if req == nil {
		return apperrors.Validation("complete job request is required")
	}
	r := *req
	if err := r.Validate(); err != nil {
		return err
	}
	r.Results = req.Results.Clone()

	ok, err := s.repo.Complete(ctx, &r)
	if err != nil {
		return apperrors.MapDBError(err)
	}
	if !ok {
		return noUncompletedJob(req.ID, req.Owner, req.Service)
	}

	s.publish(ctx, model.JobEvent{
		Type:    model.JobEventCompleted,
		JobID:   r.ID,
		Actor:   r.Owner,
		Service: r.Service,
		Error:   r.ErrorMessage != nil,
	})
	return nil
}

func noUncompletedJob(id, owner, service string) error {
	return apperrors.NotFoundf("There is no uncompleted job %s for user %s started by service %s", id, owner, service)
}

// GetJob returns the job if User may read it.
func (s *JobService) GetJob(ctx context.Context, params GetJobParams) (*model.Job, error) {
	if err := model.CheckString(params.User, "user", model.MaxLenUser); err != nil {
		return nil, err
	}
	id, err := model.CheckJobID(params.ID)
	if err != nil {
		return nil, err
	}

	notFound := apperrors.NotFoundf("There is no job %s viewable by user %s", params.ID, params.User)
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, foldNotFound(err, notFound)
	}
	if err := s.authz(params.Authorizer).AuthorizeRead(params.User, job); err != nil {
		s.logger.DebugContext(ctx, "job read denied", "id", id, "user", params.User, "error", err)
		return nil, notFound
	}
	return job, nil
}

// CancelJob cancels a job that is not yet complete.
func (s *JobService) CancelJob(ctx context.Context, params CancelJobParams) error {
	if err := model.CheckString(params.User, "user", model.MaxLenUser); err != nil {
		return err
	}
	if err := model.CheckMaxLen(params.Status, "status", model.MaxLenStatus); err != nil {
		return err
	}
	id, err := model.CheckJobID(params.ID)
	if err != nil {
		return err
	}

	notFound := apperrors.NotFoundf("There is no job %s that may be canceled by user %s", params.ID, params.User)
	job, err := s.repo.GetUncompleted(ctx, id)
	if err != nil {
		return foldNotFound(err, notFound)
	}
	if err := s.authz(params.Authorizer).AuthorizeCancel(params.User, job); err != nil {
		s.logger.DebugContext(ctx, "job cancel denied", "id", id, "user", params.User, "error", err)
		return notFound
	}

	ok, err := s.repo.Cancel(ctx, core.CancelJobParams{ID: id, User: params.User, Status: params.Status})
	if err != nil {
		return apperrors.MapDBError(err)
	}
	if !ok {
		// Completed or deleted between the read and the write.
		return notFound
	}

	evt := model.JobEvent{Type: model.JobEventCanceled, JobID: id, Actor: params.User}
	if job.Service != nil {
		evt.Service = *job.Service
	}
	s.publish(ctx, evt)
	return nil
}

// DeleteJob removes a job. Without a service only completed jobs may be
// deleted; with one, any job started by that service may be.
func (s *JobService) DeleteJob(ctx context.Context, params DeleteJobParams) error {
	if err := model.CheckString(params.User, "user", model.MaxLenUser); err != nil {
		return err
	}
	id, err := model.CheckJobID(params.ID)
	if err != nil {
		return err
	}

	who := params.User
	if params.Service != nil {
		who += " and service " + *params.Service
	}
	notFound := apperrors.NotFoundf("There is no deletable job %s for user %s", params.ID, who)

	predicate := core.DeleteJobParams{ID: id, Service: params.Service}
	job, err := s.repo.GetDeletable(ctx, predicate)
	if err != nil {
		return foldNotFound(err, notFound)
	}
	if err := s.authz(params.Authorizer).AuthorizeDelete(params.User, job); err != nil {
		s.logger.DebugContext(ctx, "job delete denied", "id", id, "user", params.User, "error", err)
		return notFound
	}

	ok, err := s.repo.Delete(ctx, predicate)
	if err != nil {
		return apperrors.MapDBError(err)
	}
	if !ok {
		return notFound
	}

	evt := model.JobEvent{Type: model.JobEventDeleted, JobID: id, Actor: params.User}
	if job.Service != nil {
		evt.Service = *job.Service
	}
	s.publish(ctx, evt)
	return nil
}

// ListServices returns the sorted services that started jobs owned by or
// shared with user.
func (s *JobService) ListServices(ctx context.Context, user string) ([]string, error) {
	if err := model.CheckString(user, "user", 0); err != nil {
		return nil, err
	}
	services, err := s.repo.ListServices(ctx, user)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return services, nil
}

// ListJobs returns the started jobs visible to the user, in creation order.
// A non-default strategy requires every requested parameter to be readable.
func (s *JobService) ListJobs(ctx context.Context, params ListJobsParams) ([]*model.Job, error) {
	req := params.ListJobsRequest
	req.Normalize()
	if err := model.CheckString(req.User, "user", 0); err != nil {
		return nil, err
	}
	if err := s.authz(params.Authorizer).AuthorizeReadBulk(req.AuthStrategy, req.User, req.AuthParams); err != nil {
		return nil, apperrors.Authorization(err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	jobs, err := s.repo.List(ctx, &req)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return jobs, nil
}

// ShareJob grants read access on a default-strategy job to users. The owner
// is dropped from the list and users already present keep their position.
func (s *JobService) ShareJob(ctx context.Context, owner, jobID string, users []string) error {
	id, err := model.CheckShareParams(owner, jobID, users, "owner")
	if err != nil {
		return err
	}
	others := slices.DeleteFunc(slices.Clone(users), func(u string) bool { return u == owner })

	ok, err := s.repo.Share(ctx, core.ShareJobParams{ID: id, Owner: owner, Users: others})
	if err != nil {
		return apperrors.MapDBError(err)
	}
	if !ok {
		return apperrors.NotFoundf("There is no job %s with default authorization owned by user %s", jobID, owner)
	}

	s.publish(ctx, model.JobEvent{Type: model.JobEventShared, JobID: id, Actor: owner, Users: others})
	return nil
}

// UnshareJob revokes read access. The owner may remove anyone; a user the job
// is shared with may only remove themselves. Removing users who were never
// shared has no effect.
func (s *JobService) UnshareJob(ctx context.Context, user, jobID string, users []string) error {
	id, err := model.CheckShareParams(user, jobID, users, "user")
	if err != nil {
		return err
	}

	notFound := apperrors.NotFoundf("There is no job %s with default authorization visible to user %s", jobID, user)
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return foldNotFound(err, notFound)
	}
	if !job.IsDefaultAuth() {
		return notFound
	}

	switch {
	case job.Owner == user:
	case job.IsSharedWith(user):
		if len(users) != 1 || users[0] != user {
			return apperrors.ValidationField("users",
				fmt.Sprintf("User %s may only stop sharing job %s for themselves", user, jobID))
		}
	default:
		return notFound
	}

	ok, err := s.repo.Unshare(ctx, core.ShareJobParams{ID: id, Owner: job.Owner, Users: users})
	if err != nil {
		return apperrors.MapDBError(err)
	}
	if !ok {
		s.logger.DebugContext(ctx, "unshare matched no job", "id", id, "user", user)
		return nil
	}

	s.publish(ctx, model.JobEvent{Type: model.JobEventUnshared, JobID: id, Actor: user, Users: users})
	return nil
}

// foldNotFound replaces a repository not-found with the operation's message.
func foldNotFound(err, notFound error) error {
	if apperrors.IsNotFound(err) {
		return notFound
	}
	return apperrors.MapDBError(err)
}

// publish delivers evt best effort; failures are logged and swallowed.
func (s *JobService) publish(ctx context.Context, evt model.JobEvent) {
	evt.At = s.now().UTC()
	if err := s.publisher.PublishJobEvent(ctx, evt); err != nil {
		s.logger.WarnContext(ctx, "failed to publish job event",
			"type", evt.Type,
			"id", evt.JobID,
			"error", err,
		)
	}
}
