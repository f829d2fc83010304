package config

import (
	"fmt"
	"strings"
)

// AuthMode represents the authentication mode for the API.
type AuthMode string

const (
	// AuthModeOIDC verifies bearer ID tokens against an OpenID Connect issuer.
	AuthModeOIDC AuthMode = "oidc"
	// AuthModeDev trusts the X-User header (for development only).
	AuthModeDev AuthMode = "dev"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "oidc", "dev":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oidc, dev)", v)
	}
}

// OIDCConfig contains OpenID Connect token verification settings.
type OIDCConfig struct {
	IssuerURL string `env:"ISSUER_URL"`
	ClientID  string `env:"CLIENT_ID"  envDefault:"ujs"`
	// UsernameClaim is a JMESPath expression evaluated against the token
	// claims to obtain the user name recorded on jobs.
	UsernameClaim string `env:"USERNAME_CLAIM" envDefault:"preferred_username"`
	// SkipClientIDCheck accepts tokens issued for any audience.
	SkipClientIDCheck bool `env:"SKIP_CLIENT_ID_CHECK" envDefault:"false"`
}

// DevAuthConfig controls development authentication.
// Used when AUTH_MODE=dev.
type DevAuthConfig struct {
	// DefaultUser is used when a request carries no X-User header. Empty
	// rejects such requests.
	DefaultUser string `env:"DEFAULT_USER" envDefault:""`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which identity resolver to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oidc"`

	// OIDC configuration (used when Mode=oidc).
	OIDC OIDCConfig `envPrefix:"AUTH_OIDC_"`

	// DevAuth configuration (used when Mode=dev).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`
}

// Sanitize normalizes authentication settings.
func (a *AuthConfig) Sanitize() {
	a.OIDC.IssuerURL = strings.TrimSpace(a.OIDC.IssuerURL)
	a.OIDC.UsernameClaim = strings.TrimSpace(a.OIDC.UsernameClaim)
	if a.OIDC.UsernameClaim == "" {
		a.OIDC.UsernameClaim = "preferred_username"
	}
	a.DevAuth.DefaultUser = strings.TrimSpace(a.DevAuth.DefaultUser)
}

// Validate reports configuration that cannot serve the chosen mode.
func (a *AuthConfig) Validate() error {
	if a.Mode == AuthModeOIDC && a.OIDC.IssuerURL == "" {
		return fmt.Errorf("AUTH_OIDC_ISSUER_URL is required when AUTH_MODE=%s", AuthModeOIDC)
	}
	return nil
}
