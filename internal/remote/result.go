package remote

import (
	"fmt"

	"github.com/charliek/logdesk/internal/domain"
)

// FailureKind tells a rejected request apart from an unreachable server
type FailureKind string

const (
	// FailureRemote means the API answered with a non-success status
	FailureRemote FailureKind = "remote"
	// FailureTransport means no response was received
	FailureTransport FailureKind = "transport"
)

// Failure is a normalized remote or transport error
type Failure struct {
	Kind    FailureKind
	Status  int    // HTTP status, zero for transport failures
	Message string // human-readable message
	Detail  string // optional diagnostic blob (stderr, stdout, traceback)
}

func (f *Failure) Error() string {
	if f.Kind == FailureTransport {
		return fmt.Sprintf("connection error: %s", f.Message)
	}
	if f.Status != 0 {
		return fmt.Sprintf("remote error (%d): %s", f.Status, f.Message)
	}
	return fmt.Sprintf("remote error: %s", f.Message)
}

// Code returns the error code for the failure
func (f *Failure) Code() string {
	if f.Kind == FailureTransport {
		return domain.ErrCodeConnectionFailed
	}
	return domain.ErrCodeBadResponse
}

// Result is the outcome of one remote operation: a value or a failure
type Result[T any] struct {
	Value   T
	Failure *Failure
}

// OK returns true if the operation succeeded
func (r Result[T]) OK() bool {
	return r.Failure == nil
}

// Err returns the failure as an error, or nil on success
func (r Result[T]) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

// Succeeded wraps a value in a successful Result
func Succeeded[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Failed wraps a failure in a Result
func Failed[T any](f *Failure) Result[T] {
	return Result[T]{Failure: f}
}
