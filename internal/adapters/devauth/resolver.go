// Package devauth provides a trusting IdentityResolver for local development.
package devauth

import (
	"context"
	"strings"

	domainauth "github.com/MrCreosote/user-and-job-state/internal/domain/auth"
	"github.com/MrCreosote/user-and-job-state/internal/ports"
)

// Config controls the dev resolver.
type Config struct {
	// DefaultUser is used when a request names no user. Empty rejects such requests.
	DefaultUser string
}

// Resolver trusts the user named in the request credentials. It must never be
// enabled outside development.
type Resolver struct {
	defaultUser string
}

var _ ports.IdentityResolver = (*Resolver)(nil)

// NewResolver constructs a dev resolver from Config.
func NewResolver(cfg Config) *Resolver {
	return &Resolver{defaultUser: strings.TrimSpace(cfg.DefaultUser)}
}

// Resolve returns creds.User, or the default user when none was sent.
func (r *Resolver) Resolve(_ context.Context, creds ports.Credentials) (domainauth.Identity, error) {
	user := strings.TrimSpace(creds.User)
	if user == "" {
		user = r.defaultUser
	}
	if user == "" {
		return domainauth.Identity{}, ports.ErrNoCredentials
	}
	return domainauth.Identity{UserID: user}, nil
}
