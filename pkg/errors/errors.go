// Package errors provides the error types used across the sisync system.
// Record-level errors are recoverable (the record is skipped and counted),
// pass-level errors abort one entity type's sync, and configuration errors
// abort the whole run before any side effect occurs.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is and As are aliases for their standard library equivalents so callers
// need only import this package.
var (
	Is = errors.Is
	As = errors.As
)

// Common sentinel errors for the sisync system
var (
	// ErrMalformedInput indicates an extract file does not have the expected
	// top-level structure. Fatal for the affected entity type's pass.
	ErrMalformedInput = errors.New("malformed input")

	// ErrInvalidRecord indicates a single record failed field validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrUnresolvedReference indicates a record references an entity that
	// was not loaded in an earlier pass.
	ErrUnresolvedReference = errors.New("unresolved reference")

	// ErrRemoteTransient indicates a remote operation failed in a way that
	// is expected to succeed on retry (network, timeout, 5xx).
	ErrRemoteTransient = errors.New("transient remote error")

	// ErrRemotePermanent indicates a remote operation was rejected and
	// retrying will not help (4xx).
	ErrRemotePermanent = errors.New("permanent remote error")

	// ErrConfiguration indicates a required configuration option is missing
	// or invalid. Fatal at startup.
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound indicates a requested resource was not found remotely.
	ErrNotFound = errors.New("not found")

	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = errors.New("operation timed out")
)

// ParseError represents a malformed extract file. It aborts the pass for
// the affected entity type and any pass depending on it.
type ParseError struct {
	Format  string // "json", "yaml"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedInput
}

// NewParseError creates a new ParseError
func NewParseError(format, file, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a per-record field validation failure.
// The record is skipped; the batch continues.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRecord
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ReferenceError represents a foreign key that did not resolve against the
// entities loaded by an earlier pass. The record is excluded; it does not
// imply the referenced entity type's pass failed.
type ReferenceError struct {
	Entity string // entity type of the record being mapped
	Key    string // natural key of the record being mapped, if known
	Field  string // the reference field that failed to resolve
	Target string // entity type the field points at
	Value  string // the unresolvable key value
}

// Error implements the error interface
func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s %s: field %s references %s %q which does not exist",
		e.Entity, e.Key, e.Field, e.Target, e.Value)
}

// Is implements errors.Is support
func (e *ReferenceError) Is(target error) bool {
	return target == ErrUnresolvedReference
}

// APIError represents an error from the remote record API. Its status code
// determines whether the operation is retryable.
type APIError struct {
	Resource   string // remote resource name, e.g. "students"
	StatusCode int
	Message    string
	Fields     map[string][]string // per-field rejection details from the API body
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error for %s (status %d): %s", e.Resource, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error for %s: %s", e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrRemoteTransient:
		return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
	case ErrRemotePermanent:
		return e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != 429
	case ErrNotFound:
		return e.StatusCode == 404
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(resource string, statusCode int, message string) *APIError {
	return &APIError{
		Resource:   resource,
		StatusCode: statusCode,
		Message:    message,
	}
}

// ConfigError represents a missing or invalid configuration option.
type ConfigError struct {
	Option  string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Option != "" {
		return fmt.Sprintf("configuration error for %s: %s", e.Option, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigError creates a new ConfigError
func NewConfigError(option, message string) *ConfigError {
	return &ConfigError{Option: option, Message: message}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "open", "close"
	Path      string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("IO error during %s: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// Helper functions for error checking

// IsMalformedInput checks if an error indicates a malformed extract file
func IsMalformedInput(err error) bool {
	return errors.Is(err, ErrMalformedInput)
}

// IsInvalidRecord checks if an error is a per-record validation failure
func IsInvalidRecord(err error) bool {
	return errors.Is(err, ErrInvalidRecord)
}

// IsUnresolvedReference checks if an error is an unresolved foreign key
func IsUnresolvedReference(err error) bool {
	return errors.Is(err, ErrUnresolvedReference)
}

// IsTransient reports whether a remote operation error is worth retrying.
// Network failures, timeouts and context deadlines all count as transient.
func IsTransient(err error) bool {
	if errors.Is(err, ErrRemoteTransient) || errors.Is(err, ErrTimeout) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}

// IsPermanent checks if a remote operation error is not retryable
func IsPermanent(err error) bool {
	return errors.Is(err, ErrRemotePermanent)
}

// IsConfiguration checks if an error is a configuration error
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Err: err}
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}
