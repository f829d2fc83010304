// Package httpx provides the JSON HTTP API for the job and user state stores.
package httpx

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MrCreosote/user-and-job-state/internal/domain/model"
	apperrors "github.com/MrCreosote/user-and-job-state/internal/errors"
	"github.com/MrCreosote/user-and-job-state/internal/service"
)

// JobHandlers provides HTTP handlers for job-related operations.
type JobHandlers struct {
	Svc    *service.JobService
	Logger *slog.Logger
}

// jobView adds the derived stage to the stored job.
type jobView struct {
	*model.Job
	Stage model.Stage `json:"stage"`
}

func newJobView(j *model.Job) jobView { return jobView{Job: j, Stage: j.Stage()} }

type startBody struct {
	Service     string             `json:"service"`
	Status      string             `json:"status"`
	Description string             `json:"desc"`
	Progress    model.ProgressSpec `json:"progress"`
	EstComplete *time.Time         `json:"estcompl,omitempty"`
}

type createJobBody struct {
	AuthStrategy string           `json:"authstrat,omitempty"`
	AuthParam    string           `json:"authparam,omitempty"`
	Metadata     []model.MetaPair `json:"meta,omitempty"`
	// Start, when present, creates and starts a default-strategy job in one call.
	Start *startBody `json:"start,omitempty"`
}

type updateJobBody struct {
	Service     string     `json:"service"`
	Status      string     `json:"status"`
	Progress    *int       `json:"prog,omitempty"`
	EstComplete *time.Time `json:"estcompl,omitempty"`
}

type completeJobBody struct {
	Service string            `json:"service"`
	Status  string            `json:"status"`
	Error   *string           `json:"error,omitempty"`
	Results *model.JobResults `json:"results,omitempty"`
}

type cancelJobBody struct {
	Status string `json:"status"`
}

type shareBody struct {
	Users []string `json:"users"`
}

type idResponse struct {
	ID string `json:"id"`
}

func (h *JobHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	WriteAppError(w, r, h.Logger, err)
}

// CreateJob handles POST /api/v1/jobs.
func (h *JobHandlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var body createJobBody
	if !DecodeJSON(w, r, &body) {
		return
	}
	user := UserFromContext(r.Context())

	var (
		id  string
		err error
	)
	if body.Start != nil {
		if (body.AuthStrategy != "" && body.AuthStrategy != model.DefaultAuthStrategy) || len(body.Metadata) > 0 {
			h.fail(w, r, apperrors.Validation("A job created and started in one call cannot carry metadata or a custom authorization strategy"))
			return
		}
		id, err = h.Svc.CreateAndStartJob(r.Context(), &model.CreateAndStartJobRequest{
			Owner:       user,
			Service:     body.Start.Service,
			Status:      body.Start.Status,
			Description: body.Start.Description,
			Progress:    body.Start.Progress,
			EstComplete: body.Start.EstComplete,
		})
	} else {
		id, err = h.Svc.CreateJob(r.Context(), service.CreateJobParams{CreateJobRequest: model.CreateJobRequest{
			Owner:        user,
			AuthStrategy: body.AuthStrategy,
			AuthParam:    body.AuthParam,
			Metadata:     body.Metadata,
		}})
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, idResponse{ID: id})
}

// StartJob handles POST /api/v1/jobs/{id}/start.
func (h *JobHandlers) StartJob(w http.ResponseWriter, r *http.Request) {
	var body startBody
	if !DecodeJSON(w, r, &body) {
		return
	}
	err := h.Svc.StartJob(r.Context(), &model.StartJobRequest{
		Owner:       UserFromContext(r.Context()),
		ID:          r.PathValue("id"),
		Service:     body.Service,
		Status:      body.Status,
		Description: body.Description,
		Progress:    body.Progress,
		EstComplete: body.EstComplete,
	})
	h.noContent(w, r, err)
}

// UpdateJob handles POST /api/v1/jobs/{id}/update.
func (h *JobHandlers) UpdateJob(w http.ResponseWriter, r *http.Request) {
	var body updateJobBody
	if !DecodeJSON(w, r, &body) {
		return
	}
	err := h.Svc.UpdateJob(r.Context(), &model.UpdateJobRequest{
		Owner:         UserFromContext(r.Context()),
		ID:            r.PathValue("id"),
		Service:       body.Service,
		Status:        body.Status,
		ProgressDelta: body.Progress,
		EstComplete:   body.EstComplete,
	})
	h.noContent(w, r, err)
}

// CompleteJob handles POST /api/v1/jobs/{id}/complete.
func (h *JobHandlers) CompleteJob(w http.ResponseWriter, r *http.Request) {
	var body completeJobBody
	if !DecodeJSON(w, r, &body) {
		return
	}
	err := h.Svc.CompleteJob(r.Context(), &model.CompleteJobRequest{
		Owner:        UserFromContext(r.Context()),
		ID:           r.PathValue("id"),
		Service:      body.Service,
		Status:       body.Status,
		ErrorMessage: body.Error,
		Results:      body.Results,
	})
	h.noContent(w, r, err)
}

// CancelJob handles POST /api/v1/jobs/{id}/cancel.
func (h *JobHandlers) CancelJob(w http.ResponseWriter, r *http.Request) {
	var body cancelJobBody
	if !DecodeJSON(w, r, &body) {
		return
	}
	err := h.Svc.CancelJob(r.Context(), service.CancelJobParams{
		User:   UserFromContext(r.Context()),
		ID:     r.PathValue("id"),
		Status: body.Status,
	})
	h.noContent(w, r, err)
}

// DeleteJob handles DELETE /api/v1/jobs/{id}. An explicit ?service= deletes
// a job started by that service whatever its stage.
func (h *JobHandlers) DeleteJob(w http.ResponseWriter, r *http.Request) {
	params := service.DeleteJobParams{User: UserFromContext(r.Context()), ID: r.PathValue("id")}
	if q := r.URL.Query(); q.Has("service") {
		svc := q.Get("service")
		params.Service = &svc
	}
	h.noContent(w, r, h.Svc.DeleteJob(r.Context(), params))
}

// GetJob handles GET /api/v1/jobs/{id}.
func (h *JobHandlers) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.Svc.GetJob(r.Context(), service.GetJobParams{
		User: UserFromContext(r.Context()),
		ID:   r.PathValue("id"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, newJobView(job))
}

// ListJobs handles GET /api/v1/jobs.
func (h *JobHandlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	shared, err := parseBoolQuery(q.Get("shared"), "shared")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	jobs, err := h.Svc.ListJobs(r.Context(), service.ListJobsParams{ListJobsRequest: model.ListJobsRequest{
		User:          UserFromContext(r.Context()),
		Services:      splitList(q["services"]),
		Stages:        model.ParseStageFilter(q.Get("filter")),
		IncludeShared: shared,
		AuthStrategy:  q.Get("authstrat"),
		AuthParams:    splitList(q["authparams"]),
	}})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	views := make([]jobView, 0, len(jobs))
	for _, j := range jobs {
		views = append(views, newJobView(j))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"jobs": views})
}

// ListServices handles GET /api/v1/services.
func (h *JobHandlers) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.Svc.ListServices(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"services": services})
}

// ShareJob handles POST /api/v1/jobs/{id}/share.
func (h *JobHandlers) ShareJob(w http.ResponseWriter, r *http.Request) {
	var body shareBody
	if !DecodeJSON(w, r, &body) {
		return
	}
	h.noContent(w, r, h.Svc.ShareJob(r.Context(), UserFromContext(r.Context()), r.PathValue("id"), body.Users))
}

// UnshareJob handles POST /api/v1/jobs/{id}/unshare.
func (h *JobHandlers) UnshareJob(w http.ResponseWriter, r *http.Request) {
	var body shareBody
	if !DecodeJSON(w, r, &body) {
		return
	}
	h.noContent(w, r, h.Svc.UnshareJob(r.Context(), UserFromContext(r.Context()), r.PathValue("id"), body.Users))
}

func (h *JobHandlers) noContent(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// splitList accepts both repeated and comma separated query values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// parseBoolQuery treats an empty value as false.
func parseBoolQuery(v, name string) (bool, error) {
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, apperrors.ValidationField(name, "Invalid boolean value for "+name+": "+v)
	}
	return b, nil
}
