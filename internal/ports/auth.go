// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.
package ports

import (
	"context"
	"errors"

	domainauth "github.com/MrCreosote/user-and-job-state/internal/domain/auth"
)

// ErrNoCredentials is returned when a request carries nothing to authenticate.
var ErrNoCredentials = errors.New("no credentials supplied")

// Credentials carries the raw authentication material from a request.
type Credentials struct {
	// BearerToken is the token from an "Authorization: Bearer" header.
	BearerToken string
	// User is the value of the X-User header, honored only by development resolvers.
	User string
}

// IdentityResolver turns request credentials into an authenticated identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, creds Credentials) (domainauth.Identity, error)
}
