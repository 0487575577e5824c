package errors

import (
	"errors"
	"fmt"
)

// Common error types for the session library
var (
	// Credential errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingUserInfo    = errors.New("token missing user info")

	// Token errors
	ErrMalformedToken       = errors.New("malformed token")
	ErrTokenExpired         = errors.New("token expired")
	ErrInvalidTokenResponse = errors.New("invalid token response")
	ErrNoToken              = errors.New("no token present")

	// Session errors
	ErrSessionExpired = errors.New("session expired")
	ErrRefreshFailed  = errors.New("token refresh failed")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
