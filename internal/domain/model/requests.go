package model

import (
	"time"

	apperrors "github.com/MrCreosote/user-and-job-state/internal/errors"
)

// ProgressSpec describes the progress tracking chosen at start time.
type ProgressSpec struct {
	Type ProgressType `json:"type"`
	// Max is only read for ProgressTask and must be at least 1.
	Max int `json:"max,omitempty"`
}

// NoProgress tracks nothing.
func NoProgress() ProgressSpec { return ProgressSpec{Type: ProgressNone} }

// TaskProgress tracks progress against max tasks.
func TaskProgress(maxTasks int) ProgressSpec {
	return ProgressSpec{Type: ProgressTask, Max: maxTasks}
}

// PercentProgress tracks progress out of 100.
func PercentProgress() ProgressSpec { return ProgressSpec{Type: ProgressPercent} }

// Validate checks the progress type and maximum.
func (p ProgressSpec) Validate() error {
	if p.Type == "" {
		return nil
	}
	if !p.Type.Valid() {
		return apperrors.ValidationField("progtype", "Illegal progress type: "+string(p.Type))
	}
	if p.Type == ProgressTask && p.Max < 1 {
		return apperrors.ValidationField("maxprog", "The maximum progress for the job must be > 0")
	}
	return nil
}

// Initial returns the progress type and the starting progress and maximum to store.
// Jobs without progress tracking store neither.
func (p ProgressSpec) Initial() (ProgressType, *int, *int) {
	zero := 0
	switch p.Type {
	case ProgressTask:
		maxTasks := p.Max
		return ProgressTask, &zero, &maxTasks
	case ProgressPercent:
		hundred := 100
		return ProgressPercent, &zero, &hundred
	default:
		return ProgressNone, nil, nil
	}
}

// CreateJobRequest creates a job in the created stage.
type CreateJobRequest struct {
	Owner        string     `json:"owner"`
	AuthStrategy string     `json:"authstrat,omitempty"`
	AuthParam    string     `json:"authparam,omitempty"`
	Metadata     []MetaPair `json:"meta,omitempty"`
}

// Normalize fills the default strategy and parameter when none was supplied.
func (r *CreateJobRequest) Normalize() {
	if r.AuthStrategy == "" {
		r.AuthStrategy = DefaultAuthStrategy
		if r.AuthParam == "" {
			r.AuthParam = DefaultAuthParam
		}
	}
}

// Validate validates the CreateJobRequest fields.
func (r *CreateJobRequest) Validate() error {
	if err := CheckString(r.Owner, "user", MaxLenUser); err != nil {
		return err
	}
	if err := CheckString(r.AuthStrategy, "authstrat", 0); err != nil {
		return err
	}
	if err := CheckMaxLen(r.AuthParam, "authparam", 0); err != nil {
		return err
	}
	for _, m := range r.Metadata {
		if err := CheckString(m.Key, "metadata key", 0); err != nil {
			return err
		}
		if err := CheckMaxLen(m.Value, "metadata value", 0); err != nil {
			return err
		}
	}
	return nil
}

// StartJobRequest moves a created job into the started stage.
type StartJobRequest struct {
	Owner       string       `json:"owner"`
	ID          string       `json:"id"`
	Service     string       `json:"service"`
	Status      string       `json:"status"`
	Description string       `json:"desc"`
	Progress    ProgressSpec `json:"progress"`
	EstComplete *time.Time   `json:"estcompl,omitempty"`
}

// Validate validates all fields and canonicalizes the id.
func (r *StartJobRequest) Validate(now time.Time) error {
	if err := CheckString(r.Owner, "user", MaxLenUser); err != nil {
		return err
	}
	id, err := CheckJobID(r.ID)
	if err != nil {
		return err
	}
	r.ID = id
	return r.validateFields(now)
}

// validateFields checks everything except the owner and id, so that a
// create-and-start can be vetted before the job exists.
func (r *StartJobRequest) validateFields(now time.Time) error {
	if err := CheckString(r.Service, "service", MaxLenService); err != nil {
		return err
	}
	if err := CheckMaxLen(r.Status, "status", MaxLenStatus); err != nil {
		return err
	}
	if err := CheckMaxLen(r.Description, "description", MaxLenDescription); err != nil {
		return err
	}
	if err := CheckEstComplete(r.EstComplete, now); err != nil {
		return err
	}
	return r.Progress.Validate()
}

// CreateAndStartJobRequest creates a default-strategy job and starts it immediately.
type CreateAndStartJobRequest struct {
	Owner       string       `json:"owner"`
	Service     string       `json:"service"`
	Status      string       `json:"status"`
	Description string       `json:"desc"`
	Progress    ProgressSpec `json:"progress"`
	EstComplete *time.Time   `json:"estcompl,omitempty"`
}

// Validate validates the request before any job is created.
func (r *CreateAndStartJobRequest) Validate(now time.Time) error {
	if err := CheckString(r.Owner, "user", MaxLenUser); err != nil {
		return err
	}
	return r.StartRequest("").validateFields(now)
}

// StartRequest returns the start half of the request for the created job id.
func (r *CreateAndStartJobRequest) StartRequest(id string) *StartJobRequest {
	return &StartJobRequest{
		Owner:       r.Owner,
		ID:          id,
		Service:     r.Service,
		Status:      r.Status,
		Description: r.Description,
		Progress:    r.Progress,
		EstComplete: r.EstComplete,
	}
}

// UpdateJobRequest records progress on a started, uncompleted job.
type UpdateJobRequest struct {
	Owner         string     `json:"owner"`
	ID            string     `json:"id"`
	Service       string     `json:"service"`
	Status        string     `json:"status"`
	ProgressDelta *int       `json:"prog,omitempty"`
	EstComplete   *time.Time `json:"estcompl,omitempty"`
}

// Validate validates all fields and canonicalizes the id.
func (r *UpdateJobRequest) Validate(now time.Time) error {
	if err := CheckMaxLen(r.Status, "status", MaxLenStatus); err != nil {
		return err
	}
	id, err := checkStartedJob(r.Owner, r.ID, r.Service)
	if err != nil {
		return err
	}
	r.ID = id
	if err := CheckEstComplete(r.EstComplete, now); err != nil {
		return err
	}
	if r.ProgressDelta != nil && *r.ProgressDelta < 0 {
		return apperrors.ValidationField("prog", "progress cannot be negative")
	}
	return nil
}

// CompleteJobRequest finishes a started job, optionally with an error.
type CompleteJobRequest struct {
	Owner        string      `json:"owner"`
	ID           string      `json:"id"`
	Service      string      `json:"service"`
	Status       string      `json:"status"`
	ErrorMessage *string     `json:"error,omitempty"`
	Results      *JobResults `json:"results,omitempty"`
}

// Validate validates all fields and canonicalizes the id.
func (r *CompleteJobRequest) Validate() error {
	if err := CheckMaxLen(r.Status, "status", MaxLenStatus); err != nil {
		return err
	}
	if err := CheckOptionalMaxLen(r.ErrorMessage, "error", MaxLenError); err != nil {
		return err
	}
	if err := r.Results.Validate(); err != nil {
		return err
	}
	id, err := checkStartedJob(r.Owner, r.ID, r.Service)
	if err != nil {
		return err
	}
	r.ID = id
	return nil
}

func checkStartedJob(owner, id, service string) (string, error) {
	if err := CheckString(owner, "user", MaxLenUser); err != nil {
		return "", err
	}
	canonical, err := CheckJobID(id)
	if err != nil {
		return "", err
	}
	if err := CheckString(service, "service", MaxLenService); err != nil {
		return "", err
	}
	return canonical, nil
}

// ListJobsRequest selects jobs visible to a user.
type ListJobsRequest struct {
	User          string      `json:"user"`
	Services      []string    `json:"services,omitempty"`
	Stages        StageFilter `json:"stages"`
	IncludeShared bool        `json:"shared"`
	AuthStrategy  string      `json:"authstrat,omitempty"`
	AuthParams    []string    `json:"authparams,omitempty"`
}

// Normalize fills the default strategy and parameter list when none was supplied.
func (r *ListJobsRequest) Normalize() {
	if r.AuthStrategy == "" {
		r.AuthStrategy = DefaultAuthStrategy
		if len(r.AuthParams) == 0 {
			r.AuthParams = []string{DefaultAuthParam}
		}
	}
}

// Validate checks the user and every requested service.
func (r *ListJobsRequest) Validate() error {
	if err := CheckString(r.User, "user", 0); err != nil {
		return err
	}
	for _, s := range r.Services {
		if err := CheckString(s, "service", MaxLenService); err != nil {
			return err
		}
	}
	return nil
}

// CheckShareParams validates the arguments shared by share and unshare and
// returns the canonical job id. userType names the acting user in messages.
func CheckShareParams(user, id string, users []string, userType string) (string, error) {
	if err := CheckString(user, userType, 0); err != nil {
		return "", err
	}
	if users == nil {
		return "", apperrors.ValidationField("users", "The users list cannot be null")
	}
	if len(users) == 0 {
		return "", apperrors.ValidationField("users", "The users list is empty")
	}
	for _, u := range users {
		if err := CheckString(u, "user", 0); err != nil {
			return "", err
		}
	}
	return CheckJobID(id)
}
