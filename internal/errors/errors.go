package errors

import (
	"errors"
	"fmt"
)

// Common error types for the dashboard
var (
	// Authentication errors
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidState     = errors.New("invalid state parameter")
	ErrInvalidNonce     = errors.New("invalid nonce")
	ErrMissingIDToken   = errors.New("no id token in response")
	ErrEmailNotVerified = errors.New("email not verified")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrUserNotFound    = errors.New("user not found")

	// Mail errors
	ErrMailAuthFailed       = errors.New("mail authentication failed")
	ErrMessageNotFound      = errors.New("message not found")
	ErrAttachmentNotFound   = errors.New("attachment not found")
	ErrMailUnavailable      = errors.New("mail service unavailable")
	ErrInvalidReplyRequest  = errors.New("invalid reply request")
	ErrReplyGenerationEmpty = errors.New("generator returned no text")

	// General errors
	ErrNotFound       = errors.New("not found")
	ErrInternal       = errors.New("internal error")
	ErrInvalidRequest = errors.New("invalid request")
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
