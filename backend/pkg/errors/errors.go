package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeNotFound represents a referenced user, topic or hashtag that does not exist
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeConflict represents a uniqueness violation raised by the graph store
	ErrorTypeConflict ErrorType = "conflict"
	// ErrorTypeTransient represents a temporarily unavailable graph store
	ErrorTypeTransient ErrorType = "transient_store"
	// ErrorTypeGraph represents any other graph database error
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeValidation represents rejected mutation input
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// Kind exposes the error category so typed errors embedding *BaseError satisfy kinded.
func (e *BaseError) Kind() ErrorType {
	return e.Type
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

type kinded interface {
	Kind() ErrorType
}

// Lookup Errors

// ErrNotFound is returned when a referenced entity is missing from the graph
type ErrNotFound struct {
	*BaseError
	Entity string
	Key    string
}

func NewNotFound(entity, key string) *ErrNotFound {
	return &ErrNotFound{
		BaseError: NewBaseError(ErrorTypeNotFound, fmt.Sprintf("%s not found: %s", entity, key), nil),
		Entity:    entity,
		Key:       key,
	}
}

// ErrConflict is returned when a concurrent writer violated a uniqueness constraint
type ErrConflict struct {
	*BaseError
	Key string
}

func NewConflict(key string, err error) *ErrConflict {
	return &ErrConflict{
		BaseError: NewBaseError(ErrorTypeConflict, fmt.Sprintf("uniqueness conflict: %s", key), err),
		Key:       key,
	}
}

// Graph Errors

// ErrGraphConnectionFailed is returned when Neo4j connection fails
type ErrGraphConnectionFailed struct {
	*BaseError
	URI string
}

func NewGraphConnectionFailed(uri string, err error) *ErrGraphConnectionFailed {
	return &ErrGraphConnectionFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrGraphQueryFailed is returned when a graph query fails
type ErrGraphQueryFailed struct {
	*BaseError
	Query string
}

func NewGraphQueryFailed(query string, err error) *ErrGraphQueryFailed {
	return &ErrGraphQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("query failed: %s", query), err),
		Query:     query,
	}
}

// ErrTransientStore is returned when the graph store is temporarily unavailable
// (leader election, deadlock, lost connection). The engine never retries these itself.
type ErrTransientStore struct {
	*BaseError
	Query string
}

func NewTransientStore(query string, err error) *ErrTransientStore {
	return &ErrTransientStore{
		BaseError: NewBaseError(ErrorTypeTransient, fmt.Sprintf("graph store unavailable: %s", query), err),
		Query:     query,
	}
}

// Validation Errors

// ErrValidationFailed is returned when mutation input is rejected
type ErrValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewValidationFailed(field, reason string) *ErrValidationFailed {
	return &ErrValidationFailed{
		BaseError: NewBaseError(ErrorTypeValidation, fmt.Sprintf("invalid %s: %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// Context Errors

// ErrContextCancelled is returned when context is cancelled
type ErrContextCancelled struct {
	*BaseError
	Operation string
}

func NewContextCancelled(operation string, err error) *ErrContextCancelled {
	return &ErrContextCancelled{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context cancelled: %s", operation), err),
		Operation: operation,
	}
}

// ErrContextTimeout is returned when context times out
type ErrContextTimeout struct {
	*BaseError
	Operation string
	Timeout   time.Duration
}

func NewContextTimeout(operation string, timeout time.Duration, err error) *ErrContextTimeout {
	return &ErrContextTimeout{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context timeout: %s (timeout: %v)", operation, timeout), err),
		Operation: operation,
		Timeout:   timeout,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// KindOf returns the category of the first classified error in err's chain,
// or the empty ErrorType when none is found.
func KindOf(err error) ErrorType {
	var k kinded
	if stderrors.As(err, &k) {
		return k.Kind()
	}
	return ""
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == errType
}

// IsRetryable reports whether the caller may retry the failed operation.
// Only transient store failures qualify.
func IsRetryable(err error) bool {
	return IsErrorType(err, ErrorTypeTransient)
}
