package auth

import (
	"errors"
	"fmt"
	"slices"

	"github.com/MrCreosote/user-and-job-state/internal/domain/model"
)

// ErrUnauthorized is returned (possibly wrapped) by every Authorizer denial.
var ErrUnauthorized = errors.New("unauthorized")

// Authorizer decides who may create, read, cancel and delete jobs.
//
// Per-job denials are folded into "not found" by the job store, so a caller
// cannot tell a hidden job from an absent one. AuthorizeReadBulk guards a
// whole listing and its denial is reported as an authorization failure.
type Authorizer interface {
	AuthorizeCreate(strategy, param string) error
	AuthorizeRead(user string, job *model.Job) error
	AuthorizeReadBulk(strategy, user string, params []string) error
	AuthorizeCancel(user string, job *model.Job) error
	AuthorizeDelete(user string, job *model.Job) error
}

// DefaultAuthorizer implements ownership and sharing rules for jobs using
// the default strategy.
type DefaultAuthorizer struct{}

var _ Authorizer = DefaultAuthorizer{}

// AuthorizeCreate always allows creation.
func (DefaultAuthorizer) AuthorizeCreate(_, _ string) error {
	return nil
}

// AuthorizeRead allows the owner and users the job is shared with.
func (DefaultAuthorizer) AuthorizeRead(user string, job *model.Job) error {
	if job == nil || !job.IsDefaultAuth() {
		return fmt.Errorf("%w: job does not use the default authorization strategy", ErrUnauthorized)
	}
	if job.Owner == user || job.IsSharedWith(user) {
		return nil
	}
	return fmt.Errorf("%w: user %s may not read job %s", ErrUnauthorized, user, job.ID)
}

// AuthorizeReadBulk only accepts the default strategy.
func (DefaultAuthorizer) AuthorizeReadBulk(strategy, _ string, _ []string) error {
	if strategy != model.DefaultAuthStrategy {
		return fmt.Errorf("%w: Invalid authorization strategy: %s", ErrUnauthorized, strategy)
	}
	return nil
}

// AuthorizeCancel allows only the owner.
func (DefaultAuthorizer) AuthorizeCancel(user string, job *model.Job) error {
	return requireOwner(user, job, "cancel")
}

// AuthorizeDelete allows only the owner.
func (DefaultAuthorizer) AuthorizeDelete(user string, job *model.Job) error {
	return requireOwner(user, job, "delete")
}

func requireOwner(user string, job *model.Job, action string) error {
	if job != nil && job.Owner == user {
		return nil
	}
	id := ""
	if job != nil {
		id = job.ID
	}
	return fmt.Errorf("%w: user %s may not %s job %s", ErrUnauthorized, user, action, id)
}

// ParamACLAuthorizer is a non-default strategy where each authorization
// parameter names a group readable by a fixed set of users. Owners keep
// full control over their own jobs.
type ParamACLAuthorizer struct {
	Strategy string
	// Readers maps an auth param to the users allowed to read jobs carrying it.
	Readers map[string][]string
}

var _ Authorizer = (*ParamACLAuthorizer)(nil)

// AuthorizeCreate allows creation for the configured strategy and known params.
func (a *ParamACLAuthorizer) AuthorizeCreate(strategy, param string) error {
	if strategy == model.DefaultAuthStrategy {
		return nil
	}
	if strategy != a.Strategy {
		return fmt.Errorf("%w: Invalid authorization strategy: %s", ErrUnauthorized, strategy)
	}
	if _, ok := a.Readers[param]; !ok {
		return fmt.Errorf("%w: unknown authorization parameter %s", ErrUnauthorized, param)
	}
	return nil
}

// AuthorizeRead defers to the default rules for default jobs and to the ACL otherwise.
func (a *ParamACLAuthorizer) AuthorizeRead(user string, job *model.Job) error {
	if job == nil {
		return ErrUnauthorized
	}
	if job.IsDefaultAuth() {
		return DefaultAuthorizer{}.AuthorizeRead(user, job)
	}
	if job.Owner == user || a.canRead(user, job.AuthParam) {
		return nil
	}
	return fmt.Errorf("%w: user %s may not read job %s", ErrUnauthorized, user, job.ID)
}

// AuthorizeReadBulk requires every requested param to be readable.
func (a *ParamACLAuthorizer) AuthorizeReadBulk(strategy, user string, params []string) error {
	if strategy == model.DefaultAuthStrategy {
		return nil
	}
	if strategy != a.Strategy {
		return fmt.Errorf("%w: Invalid authorization strategy: %s", ErrUnauthorized, strategy)
	}
	for _, p := range params {
		if !a.canRead(user, p) {
			return fmt.Errorf("%w: user %s may not read authorization parameter %s", ErrUnauthorized, user, p)
		}
	}
	return nil
}

// AuthorizeCancel allows only the owner.
func (a *ParamACLAuthorizer) AuthorizeCancel(user string, job *model.Job) error {
	return requireOwner(user, job, "cancel")
}

// AuthorizeDelete allows only the owner.
func (a *ParamACLAuthorizer) AuthorizeDelete(user string, job *model.Job) error {
	return requireOwner(user, job, "delete")
}

func (a *ParamACLAuthorizer) canRead(user, param string) bool {
	return slices.Contains(a.Readers[param], user)
}
