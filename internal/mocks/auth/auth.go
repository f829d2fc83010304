// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"sync"
	"time"

	domainauth "github.com/MrCreosote/user-and-job-state/internal/domain/auth"
	"github.com/MrCreosote/user-and-job-state/internal/ports"
)

// Ensure compile-time conformance to ports.
var _ ports.IdentityResolver = (*StaticResolver)(nil)

// StaticResolver maps bearer tokens to fixed identities.
type StaticResolver struct {
	ResolveFunc func(ctx context.Context, creds ports.Credentials) (domainauth.Identity, error)

	// Tokens maps a bearer token to the user id it authenticates.
	Tokens map[string]string

	mu    sync.Mutex
	calls []ports.Credentials
}

// NewStaticResolver creates a StaticResolver from token/user pairs.
func NewStaticResolver(tokens map[string]string) *StaticResolver {
	return &StaticResolver{Tokens: tokens}
}

func (r *StaticResolver) Resolve(ctx context.Context, creds ports.Credentials) (domainauth.Identity, error) {
	r.mu.Lock()
	r.calls = append(r.calls, creds)
	r.mu.Unlock()

	if r.ResolveFunc != nil {
		return r.ResolveFunc(ctx, creds)
	}
	if creds.BearerToken == "" {
		return domainauth.Identity{}, ports.ErrNoCredentials
	}
	user, ok := r.Tokens[creds.BearerToken]
	if !ok {
		return domainauth.Identity{}, ErrInvalidToken
	}
	return domainauth.Identity{UserID: user, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

// Calls returns the credentials seen so far.
func (r *StaticResolver) Calls() []ports.Credentials {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ports.Credentials, len(r.calls))
	copy(out, r.calls)
	return out
}

type invalidTokenError struct{}

func (invalidTokenError) Error() string { return "invalid token" }

// ErrInvalidToken is returned for tokens missing from the table.
var ErrInvalidToken error = invalidTokenError{}
