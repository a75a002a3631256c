// Package errors provides standardized error handling patterns for aifand
// components. It includes error classification, standard error variables, and
// helper functions for consistent error wrapping and classification across
// the system.
package errors

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorOperational represents runtime failures inside a process tick.
	// Recovered at the process boundary: logged once, input passed through.
	ErrorOperational ErrorClass = iota
	// ErrorConfig represents errors due to invalid configuration or
	// structure. Raised at build/mutation time, never at tick time.
	ErrorConfig
	// ErrorPermission represents a process producing output its role
	// forbids. A programming error: propagates past the process-level
	// recovery up to the runner, which halts.
	ErrorPermission
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorOperational:
		return "operational"
	case ErrorConfig:
		return "config"
	case ErrorPermission:
		return "permission"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Runner lifecycle errors
	ErrAlreadyStarted = errors.New("runner already started")
	ErrNotStarted     = errors.New("runner not started")
	ErrStopTimeout    = errors.New("runner did not stop within timeout")

	// Configuration errors
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrMissingConfig  = errors.New("missing required configuration")
	ErrUnknownKind    = errors.New("unknown process kind")
	ErrDuplicateName  = errors.New("duplicate name")
	ErrTargetNotFound = errors.New("target not found")

	// Data model errors
	ErrDeviceNotFound = errors.New("device not found")
	ErrRoleNotFound   = errors.New("role not found")

	// History buffer errors
	ErrTimeRegression = errors.New("timestamp earlier than latest entry")

	// Connection errors for observation leaves
	ErrNoConnection = errors.New("no connection available")
)

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsOperational checks if an error is an operational failure that the
// process boundary should absorb.
func IsOperational(err error) bool {
	if err == nil {
		return false
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorOperational
	}
	// Unclassified errors default to operational so an unexpected failure
	// in a single stage never takes the control loop down.
	return !IsPermission(err) && !IsConfig(err)
}

// IsPermission checks if an error is a permission violation that must
// propagate to the runner.
func IsPermission(err error) bool {
	if err == nil {
		return false
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorPermission
	}
	return false
}

// IsConfig checks if an error is a configuration error
func IsConfig(err error) bool {
	if err == nil {
		return false
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorConfig
	}
	return errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrMissingConfig) ||
		errors.Is(err, ErrUnknownKind) ||
		errors.Is(err, ErrDuplicateName) ||
		errors.Is(err, ErrTargetNotFound)
}

// Classify returns the error class for an error
func Classify(err error) ErrorClass {
	if IsPermission(err) {
		return ErrorPermission
	}
	if IsConfig(err) {
		return ErrorConfig
	}
	return ErrorOperational
}

// newClassified creates a new classified error.
// This is an internal helper - use WrapOperational(), WrapConfig(), or
// WrapPermission() instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapOperational wraps an error as an operational failure with context
func WrapOperational(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorOperational, wrappedErr, component, method, wrappedErr.Error())
}

// WrapConfig wraps an error as a configuration error with context
func WrapConfig(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorConfig, wrappedErr, component, method, wrappedErr.Error())
}

// WrapPermission wraps an error as a permission violation with context
func WrapPermission(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorPermission, wrappedErr, component, method, wrappedErr.Error())
}
