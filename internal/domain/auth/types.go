// Package auth contains domain-level types for caller identity and the
// pluggable job authorization strategies.
// It is pure and free of framework/adapter concerns.
package auth

import "time"

// Identity represents the authenticated caller of the API.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string    // user name recorded as job owner, actor or state user
	Email     string    // optional
	ExpiresAt time.Time // zero when the identity does not expire
}

// Valid reports whether the identity names a user.
func (i Identity) Valid() bool { return i.UserID != "" }
