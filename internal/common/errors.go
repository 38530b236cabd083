// Package common defines shared constants and errors used across the client
// and server layers. Callers should use errors.Is / errors.As to match them.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Registration / profile errors.
	ErrDuplicateIdentity      = errors.New("identity already exists")
	ErrIncorrectPassword      = errors.New("incorrect current password")
	ErrMissingCurrentPassword = errors.New("current password is required to set a new password")

	// Auth errors. ErrInvalidToken deliberately carries no reason.
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidToken        = errors.New("invalid token")
	ErrMissingBearerPrefix = errors.New("missing bearer prefix")
	ErrUserNotFound        = errors.New("user not found")
)

// Machine-readable error kinds exposed to API callers.
const (
	KindDuplicateIdentity      = "duplicate_identity"
	KindInvalidCredentials     = "invalid_credentials"
	KindInvalidToken           = "invalid_token"
	KindMissingBearerPrefix    = "missing_bearer_prefix"
	KindUserNotFound           = "user_not_found"
	KindIncorrectPassword      = "incorrect_password"
	KindMissingCurrentPassword = "missing_current_password"
	KindInternal               = "internal_error"
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrDuplicateIdentity, KindDuplicateIdentity},
	{ErrInvalidCredentials, KindInvalidCredentials},
	{ErrInvalidToken, KindInvalidToken},
	{ErrMissingBearerPrefix, KindMissingBearerPrefix},
	{ErrUserNotFound, KindUserNotFound},
	{ErrIncorrectPassword, KindIncorrectPassword},
	{ErrMissingCurrentPassword, KindMissingCurrentPassword},
}

// KindOf returns the stable kind of err, or KindInternal for anything that
// is not part of the auth error taxonomy.
func KindOf(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// UniqueViolationError is returned by repositories when a write hits a
// uniqueness constraint. Field names the user attribute that collided.
type UniqueViolationError struct {
	Field string
}

func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("unique violation on %s", e.Field)
}

// DuplicateIdentityError reports which identity field is already taken.
type DuplicateIdentityError struct {
	Field string
}

func (e *DuplicateIdentityError) Error() string {
	return fmt.Sprintf("%s already registered", e.Field)
}

// Is makes errors.Is(err, ErrDuplicateIdentity) hold for any field.
func (e *DuplicateIdentityError) Is(target error) bool {
	return target == ErrDuplicateIdentity
}
