package model

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/MrCreosote/user-and-job-state/internal/errors"
)

// CheckString requires a non-empty value of at most maxLen characters.
// A maxLen of zero disables the length check.
func CheckString(value, name string, maxLen int) error {
	if value == "" {
		return apperrors.ValidationField(name, name+" cannot be null or the empty string")
	}
	return CheckMaxLen(value, name, maxLen)
}

// CheckMaxLen allows an empty value but rejects one longer than maxLen
// characters. Values must be valid UTF-8 without NUL bytes, which Postgres
// text columns cannot hold.
func CheckMaxLen(value, name string, maxLen int) error {
	if !utf8.ValidString(value) {
		return apperrors.ValidationField(name, name+" is not valid UTF-8")
	}
	if strings.IndexByte(value, 0) >= 0 {
		return apperrors.ValidationField(name, name+" contains a null character")
	}
	if maxLen > 0 && utf8.RuneCountInString(value) > maxLen {
		return apperrors.ValidationField(name, name+" exceeds the maximum length of "+strconv.Itoa(maxLen))
	}
	return nil
}

// CheckOptionalMaxLen is CheckMaxLen for a nil-able value.
func CheckOptionalMaxLen(value *string, name string, maxLen int) error {
	if value == nil {
		return nil
	}
	return CheckMaxLen(*value, name, maxLen)
}

// CheckJobID validates a job id and returns it in canonical lowercase form.
func CheckJobID(id string) (string, error) {
	if err := CheckString(id, "id", 0); err != nil {
		return "", err
	}
	if !ValidJobID(id) {
		return "", apperrors.ValidationField("id", "Job ID "+id+" is not a legal ID")
	}
	return strings.ToLower(id), nil
}

// CheckEstComplete requires a non-nil estimated completion to be strictly after now.
func CheckEstComplete(est *time.Time, now time.Time) error {
	if est == nil {
		return nil
	}
	if !est.After(now) {
		return apperrors.ValidationField("estcompl", "The estimated completion date must be in the future")
	}
	return nil
}
