package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MrCreosote/user-and-job-state/config"
	"github.com/MrCreosote/user-and-job-state/internal/adapters/devauth"
	"github.com/MrCreosote/user-and-job-state/internal/adapters/oidc"
	"github.com/MrCreosote/user-and-job-state/internal/ports"
)

// NewIdentityResolver builds the request authenticator for the configured mode.
//
//nolint:ireturn // callers only need the port.
func NewIdentityResolver(ctx context.Context, cfg config.AuthConfig, logger *slog.Logger) (ports.IdentityResolver, error) {
	switch cfg.Mode {
	case config.AuthModeDev:
		if logger != nil {
			logger.WarnContext(ctx, "development authentication enabled; the X-User header is trusted",
				"default_user", cfg.DevAuth.DefaultUser)
		}
		return devauth.NewResolver(devauth.Config{DefaultUser: cfg.DevAuth.DefaultUser}), nil

	case config.AuthModeOIDC:
		v, err := oidc.NewVerifier(ctx, oidc.Config{
			IssuerURL:         cfg.OIDC.IssuerURL,
			ClientID:          cfg.OIDC.ClientID,
			UsernameClaim:     cfg.OIDC.UsernameClaim,
			SkipClientIDCheck: cfg.OIDC.SkipClientIDCheck,
		})
		if err != nil {
			return nil, fmt.Errorf("oidc verifier: %w", err)
		}
		if logger != nil {
			logger.InfoContext(ctx, "oidc authentication enabled",
				"issuer", cfg.OIDC.IssuerURL,
				"username_claim", cfg.OIDC.UsernameClaim,
			)
		}
		return v, nil

	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Mode)
	}
}
