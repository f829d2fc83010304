package ports_test

import (
	"testing"

	"github.com/MrCreosote/user-and-job-state/internal/adapters/devauth"
	"github.com/MrCreosote/user-and-job-state/internal/adapters/oidc"
	mocks "github.com/MrCreosote/user-and-job-state/internal/mocks/auth"
	"github.com/MrCreosote/user-and-job-state/internal/ports"
)

// This test only verifies that adapters and mocks conform to the ports at compile time.
func TestImplementationsSatisfyPorts(t *testing.T) {
	t.Helper()

	var _ ports.IdentityResolver = (*devauth.Resolver)(nil)
	var _ ports.IdentityResolver = (*oidc.Verifier)(nil)
	var _ ports.IdentityResolver = (*mocks.StaticResolver)(nil)
}
