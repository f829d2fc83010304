// Package oidc verifies OpenID Connect bearer tokens for the HTTP API.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/oauth2"

	domainauth "github.com/MrCreosote/user-and-job-state/internal/domain/auth"
	"github.com/MrCreosote/user-and-job-state/internal/ports"
)

// ErrInvalidToken is returned when a bearer token fails verification or
// carries no usable user name.
var ErrInvalidToken = errors.New("invalid bearer token")

// Config holds the verifier settings.
type Config struct {
	IssuerURL string
	ClientID  string
	// UsernameClaim is a JMESPath expression evaluated on the token claims.
	UsernameClaim     string
	SkipClientIDCheck bool
	HTTPClient        *http.Client // Optional, defaults to a 30s-timeout client
}

// claimsVerifier verifies a raw token and returns its claims and expiry.
type claimsVerifier interface {
	VerifyClaims(ctx context.Context, raw string) (map[string]any, time.Time, error)
}

type idTokenVerifier struct {
	v *gooidc.IDTokenVerifier
}

func (i idTokenVerifier) VerifyClaims(ctx context.Context, raw string) (map[string]any, time.Time, error) {
	tok, err := i.v.Verify(ctx, raw)
	if err != nil {
		return nil, time.Time{}, err
	}
	var claims map[string]any
	if err := tok.Claims(&claims); err != nil {
		return nil, time.Time{}, fmt.Errorf("parse claims: %w", err)
	}
	return claims, tok.Expiry, nil
}

// Verifier implements ports.IdentityResolver for bearer ID tokens.
type Verifier struct {
	verifier      claimsVerifier
	usernameClaim string
	httpClient    *http.Client
}

var _ ports.IdentityResolver = (*Verifier)(nil)

// NewVerifier discovers the issuer and builds a token verifier.
func NewVerifier(ctx context.Context, cfg Config) (*Verifier, error) {
	if cfg.IssuerURL == "" {
		return nil, errors.New("issuer URL is required")
	}
	if cfg.ClientID == "" && !cfg.SkipClientIDCheck {
		return nil, errors.New("client ID is required")
	}
	claim, err := compileClaim(cfg.UsernameClaim)
	if err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	discoveryCtx := context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	issuer := strings.TrimSuffix(cfg.IssuerURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(discoveryCtx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	v := op.Verifier(&gooidc.Config{ClientID: cfg.ClientID, SkipClientIDCheck: cfg.SkipClientIDCheck})
	return &Verifier{
		verifier:      idTokenVerifier{v: v},
		usernameClaim: claim,
		httpClient:    httpClient,
	}, nil
}

func compileClaim(expr string) (string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		expr = "preferred_username"
	}
	if _, err := jmespath.Compile(expr); err != nil {
		return "", fmt.Errorf("invalid username claim expression %q: %w", expr, err)
	}
	return expr, nil
}

// Resolve verifies creds.BearerToken and maps its claims to an identity.
func (v *Verifier) Resolve(ctx context.Context, creds ports.Credentials) (domainauth.Identity, error) {
	if creds.BearerToken == "" {
		return domainauth.Identity{}, ports.ErrNoCredentials
	}

	// JWKS refreshes go through the configured client.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, v.httpClient)
	claims, expiry, err := v.verifier.VerifyClaims(ctx, creds.BearerToken)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	user, err := usernameFromClaims(v.usernameClaim, claims)
	if err != nil {
		return domainauth.Identity{}, err
	}
	email, _ := claims["email"].(string)
	return domainauth.Identity{UserID: user, Email: email, ExpiresAt: expiry}, nil
}

// usernameFromClaims evaluates expr on claims and requires a non-empty string.
func usernameFromClaims(expr string, claims map[string]any) (string, error) {
	res, err := jmespath.Search(expr, claims)
	if err != nil {
		return "", fmt.Errorf("%w: evaluate %q: %w", ErrInvalidToken, expr, err)
	}
	user, ok := res.(string)
	if !ok || strings.TrimSpace(user) == "" {
		return "", fmt.Errorf("%w: claim %q is not a non-empty string", ErrInvalidToken, expr)
	}
	return strings.TrimSpace(user), nil
}
