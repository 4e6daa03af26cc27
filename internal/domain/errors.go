package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingField       = errors.New("required field missing")
	ErrInvalidHours       = errors.New("hours must be a positive integer")
	ErrIndexUnsupported   = errors.New("only access logs can be sent to the search index")
	ErrInvalidLogType     = errors.New("invalid log type")
	ErrConfigNotFound     = errors.New("config file not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// Error codes for UI and CLI responses
const (
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeMissingField       = "MISSING_FIELD"
	ErrCodeInvalidHours       = "INVALID_HOURS"
	ErrCodeIndexUnsupported   = "INDEX_UNSUPPORTED"
	ErrCodeInvalidLogType     = "INVALID_LOG_TYPE"

	// Remote failure codes (no sentinel errors; they are produced by the
	// remote client when it normalizes a response)
	ErrCodeBadResponse      = "BAD_RESPONSE"
	ErrCodeConnectionFailed = "CONNECTION_FAILED"
)

// Form fields that can be reported missing
const (
	FieldTenant       = "tenant"
	FieldNamespace    = "namespace"
	FieldLoadBalancer = "loadbalancer"
)

// MissingFieldError reports a required form field left empty
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// Unwrap lets errors.Is match ErrMissingField
func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}

// ErrorCode returns the error code for a domain error
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return ErrCodeInvalidCredentials
	case errors.Is(err, ErrMissingField):
		return ErrCodeMissingField
	case errors.Is(err, ErrInvalidHours):
		return ErrCodeInvalidHours
	case errors.Is(err, ErrIndexUnsupported):
		return ErrCodeIndexUnsupported
	case errors.Is(err, ErrInvalidLogType):
		return ErrCodeInvalidLogType
	default:
		return "INTERNAL_ERROR"
	}
}

// IsValidation reports whether err is caused by incomplete or invalid input
// rather than by the remote API.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidHours) ||
		errors.Is(err, ErrIndexUnsupported) ||
		errors.Is(err, ErrInvalidLogType)
}
