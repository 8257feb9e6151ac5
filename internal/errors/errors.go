// Package errors provides centralized error definitions for the engine.
// It defines sentinel errors for the failure taxonomy (lookup,
// configuration, execution, cancellation, shutdown), semantic error types
// with structured context, and classification helpers.
//
// Lookup and configuration errors are surfaced synchronously to callers.
// Execution errors are recovered by the retry policy and surface only
// through a task's terminal failed state. Cancellation is a deliberate
// outcome, not an error condition, but ErrCanceled exists for wrapping
// context results.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions so callers can import only this
// package for error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors useful only for debugging.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors requiring immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Lookup sentinel errors.
var (
	// ErrTaskNotFound indicates a status or cancel call named an unknown task.
	ErrTaskNotFound = New("task not found")
	// ErrEngineNotFound indicates a registry lookup for an unknown engine name.
	ErrEngineNotFound = New("engine not found")
)

// Configuration sentinel errors.
var (
	// ErrUnknownKind indicates a submission named a kind with no registered handler.
	ErrUnknownKind = New("no handler registered for kind")
	// ErrDuplicateKind indicates a handler was already registered for the kind.
	ErrDuplicateKind = New("handler already registered for kind")
	// ErrDuplicateID indicates a submission reused an existing task ID.
	ErrDuplicateID = New("task id already exists")
	// ErrEngineStopped indicates an operation on an engine that is not running.
	ErrEngineStopped = New("engine is not running")
	// ErrShutdownStarted indicates task creation after shutdown began.
	ErrShutdownStarted = New("shutdown already started")
)

// General sentinel errors.
var (
	// ErrTimeout indicates an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrCanceled indicates an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrAlreadyTerminal indicates a transition attempt on a finished task.
	ErrAlreadyTerminal = New("task already in terminal state")
	// ErrInvalidTransition indicates an illegal state machine transition.
	ErrInvalidTransition = New("invalid state transition")
)

// EngineError carries task context for failures inside the engine.
//
// Example:
//
//	err := errors.NewEngineError("dispatch failed", errors.ErrUnknownKind).
//		WithTaskID("t-1").WithKind("memory")
type EngineError struct {
	message string
	cause   error
	TaskID  string
	Kind    string

	severity  Severity
	retryable bool
}

// NewEngineError creates a new EngineError.
func NewEngineError(message string, cause error) *EngineError {
	return &EngineError{
		message:  message,
		cause:    cause,
		severity: SeverityError,
	}
}

// WithTaskID adds a task ID to the error context.
func (e *EngineError) WithTaskID(id string) *EngineError {
	e.TaskID = id
	return e
}

// WithKind adds a task kind to the error context.
func (e *EngineError) WithKind(kind string) *EngineError {
	e.Kind = kind
	return e
}

// WithSeverity sets the error severity.
func (e *EngineError) WithSeverity(s Severity) *EngineError {
	e.severity = s
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *EngineError) WithRetryable(r bool) *EngineError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *EngineError) Error() string {
	var parts []string
	if e.TaskID != "" {
		parts = append(parts, fmt.Sprintf("task=%s", e.TaskID))
	}
	if e.Kind != "" {
		parts = append(parts, fmt.Sprintf("kind=%s", e.Kind))
	}

	prefix := "engine error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("engine error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Unwrap returns the underlying error.
func (e *EngineError) Unwrap() error { return e.cause }

// Is checks if this error matches the target.
func (e *EngineError) Is(target error) bool {
	if _, ok := target.(*EngineError); ok {
		return true
	}
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *EngineError) Severity() Severity { return e.severity }

// IsRetryable returns whether the error is retryable.
func (e *EngineError) IsRetryable() bool { return e.retryable }

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("task", "t-42")
//	fmt.Println(err) // "task 't-42' not found"
type NotFoundError struct {
	ResourceType string
	ResourceID   string
	cause        error
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{ResourceType: resourceType, ResourceID: resourceID}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Unwrap returns the underlying error.
func (e *NotFoundError) Unwrap() error { return e.cause }

// Is matches other NotFoundErrors and the lookup sentinels for the
// corresponding resource type.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	if target == ErrTaskNotFound && e.ResourceType == "task" {
		return true
	}
	if target == ErrEngineNotFound && e.ResourceType == "engine" {
		return true
	}
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// ValidationError represents invalid input or state, used for the
// configuration-error class: unregistered kinds, duplicate IDs, and
// submissions after shutdown.
type ValidationError struct {
	message string
	cause   error
	Field   string
	Value   any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{message: message}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error { return e.cause }

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// TimeoutError represents an operation that exceeded its deadline, such as
// a shutdown tier that did not drain within its window.
type TimeoutError struct {
	Operation string
	Duration  time.Duration
	cause     error
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{Operation: operation, Duration: duration}
}

// WithCause adds a cause to the error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout: %s (after %s)", e.Operation, e.Duration)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Unwrap returns the underlying error.
func (e *TimeoutError) Unwrap() error { return e.cause }

// Is matches other TimeoutErrors and ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	if target == ErrTimeout {
		return true
	}
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// IsRetryable returns true if the error represents a transient condition.
// Timeouts are retryable; lookup and configuration errors are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var engineErr *EngineError
	if As(err, &engineErr) {
		return engineErr.IsRetryable()
	}
	if Is(err, ErrTimeout) {
		return true
	}
	return false
}

// GetSeverity returns the severity level of the error. Unknown error types
// default to SeverityError; not-found, validation and timeout errors are
// warnings.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var engineErr *EngineError
	if As(err, &engineErr) {
		return engineErr.Severity()
	}

	var notFound *NotFoundError
	var validation *ValidationError
	var timeout *TimeoutError
	if As(err, &notFound) || As(err, &validation) || As(err, &timeout) {
		return SeverityWarning
	}

	return SeverityError
}

// Wrap wraps an error with an additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
