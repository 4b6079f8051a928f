// Package errors provides the structured error taxonomy for gamevault-backend.
//
// Every failure surfaced by the backup/restore core carries a Kind so
// callers can map it to an HTTP status and operators can tell a recovered
// restore failure apart from a fatal one.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers and operators.
type Kind string

const (
	// KindConfiguration marks operator-fixable configuration problems
	// (in-memory database, unknown database system). Not retryable.
	KindConfiguration Kind = "configuration"

	// KindAuthorization marks a rejected database password.
	KindAuthorization Kind = "authorization"

	// KindProcessExecution marks an external tool that failed to spawn
	// or exited non-zero. Captured output is kept in Details.
	KindProcessExecution Kind = "process_execution"

	// KindRestore marks a restore that failed but was rolled back;
	// live data is intact.
	KindRestore Kind = "restore"

	// KindInternal marks a fatal condition: rollback itself failed and
	// live data may be inconsistent. Operator intervention required.
	KindInternal Kind = "internal"

	// KindNotFound marks a missing backup/snapshot file.
	KindNotFound Kind = "not_found"
)

// Error is a structured error with kind, message, and optional details
type Error struct {
	Kind    Kind
	Message string
	Details string // captured tool output, paths, etc.
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.Details != "" {
		msg += "\n" + e.Details
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by Kind
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// WithDetails attaches details (captured output, paths) to an error
func (e *Error) WithDetails(details string) *Error {
	e.Details = details
	return e
}

// NewConfiguration creates a configuration error
func NewConfiguration(message string) *Error {
	return &Error{Kind: KindConfiguration, Message: message}
}

// NewAuthorization creates an authorization error
func NewAuthorization(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

// NewProcessExecution creates an external-tool failure error
func NewProcessExecution(message, output string, cause error) *Error {
	return &Error{Kind: KindProcessExecution, Message: message, Details: output, Cause: cause}
}

// NewRestore creates a non-fatal restore error (rollback succeeded)
func NewRestore(message string, cause error) *Error {
	return &Error{Kind: KindRestore, Message: message, Cause: cause}
}

// NewInternal creates a fatal internal error (rollback failed)
func NewInternal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, Cause: cause}
}

// NewNotFound creates a missing-file error
func NewNotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// KindOf returns the kind of err, or "" for unclassified errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Fatal reports whether err requires operator intervention
// (rollback failed, live data possibly inconsistent)
func Fatal(err error) bool {
	return IsKind(err, KindInternal)
}
