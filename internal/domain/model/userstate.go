package model

import (
	"encoding/json"
	"fmt"
	"regexp"

	apperrors "github.com/MrCreosote/user-and-job-state/internal/errors"
)

// MaxStateValueSize is the largest serialized user state value accepted.
const MaxStateValueSize = 1000000

var invalidServiceChars = regexp.MustCompile(`[^\w]`)

// StateKey addresses one user state value. Authed separates values written by
// authenticated services from values written by unauthenticated ones.
type StateKey struct {
	User    string `json:"user"`
	Service string `json:"service"`
	Authed  bool   `json:"auth"`
	Key     string `json:"key"`
}

// Validate checks every component of the key.
func (k StateKey) Validate() error {
	if err := CheckStateScope(k.User, k.Service); err != nil {
		return err
	}
	return CheckString(k.Key, "key", 0)
}

// NotFoundError returns the error reported when the key holds no value.
func (k StateKey) NotFoundError() error {
	prefix := ""
	if !k.Authed {
		prefix = "un"
	}
	return apperrors.NotFoundf("There is no key %s for the %sauthorized service %s", k.Key, prefix, k.Service)
}

// CheckStateScope validates a user and service name pair used to scope state.
func CheckStateScope(user, service string) error {
	if err := CheckString(user, "user", 0); err != nil {
		return err
	}
	return CheckServiceName(service)
}

// CheckServiceName requires a non-empty service name made only of word characters.
func CheckServiceName(name string) error {
	if err := CheckString(name, "service", 0); err != nil {
		return err
	}
	if bad := invalidServiceChars.FindString(name); bad != "" {
		return apperrors.ValidationField("service", fmt.Sprintf("Illegal character in service name %s: %s", name, bad))
	}
	return nil
}

// EncodeStateValue serializes a state value and enforces the size limit.
func EncodeStateValue(value any) ([]byte, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "Unable to serialize value")
	}
	if len(b) > MaxStateValueSize {
		return nil, apperrors.Validationf("Value cannot be > %d bytes when serialized", MaxStateValueSize)
	}
	return b, nil
}
