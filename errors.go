// This file defines error types and structures for detailed error reporting
// across rule definition and evaluation operations.

package vrule

import (
	"fmt"
	"strings"
)

// ErrorType represents the category of definition errors.
// It provides a way to classify the failures that can occur while building
// a RuleSet from a declarative definition.
type ErrorType int

const (
	// ErrorTypeUnknown represents an unclassified error
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeUnknownKey indicates a definition key that names no constraint
	ErrorTypeUnknownKey
	// ErrorTypeBadShape indicates a constraint argument with the wrong shape
	ErrorTypeBadShape
	// ErrorTypeParseFailure indicates failure to parse definition data
	ErrorTypeParseFailure
	// ErrorTypeLoadFailure indicates failure to read a definition source
	ErrorTypeLoadFailure
	// ErrorTypeWatchFailure indicates failure in source watching functionality
	ErrorTypeWatchFailure
)

// String returns the string representation of the error type.
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeUnknownKey:
		return "UnknownKey"
	case ErrorTypeBadShape:
		return "BadShape"
	case ErrorTypeParseFailure:
		return "ParseFailure"
	case ErrorTypeLoadFailure:
		return "LoadFailure"
	case ErrorTypeWatchFailure:
		return "WatchFailure"
	default:
		return "Unknown"
	}
}

// DefinitionError represents a structured construction-time error. It names
// the offending definition key, describes the expected shape, and carries the
// underlying cause when one exists. A DefinitionError is unconditionally
// fatal to construction; there is no partial RuleSet.
type DefinitionError struct {
	// Type categorizes the kind of error that occurred
	Type ErrorType
	// Key is the definition key that triggered the error, if any
	Key string
	// Message describes what was expected
	Message string
	// Cause holds the underlying error that triggered this one
	Cause error
}

// Error implements the error interface by returning a formatted message
// including the error type, offending key, and descriptive text.
func (e *DefinitionError) Error() string {
	var parts []string

	if e.Type != ErrorTypeUnknown {
		parts = append(parts, fmt.Sprintf("[%s]", e.Type.String()))
	}

	if e.Key != "" {
		parts = append(parts, fmt.Sprintf("key=%s", e.Key))
	}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause.
func (e *DefinitionError) Unwrap() error {
	return e.Cause
}

// Is matches another DefinitionError by error type.
func (e *DefinitionError) Is(target error) bool {
	if de, ok := target.(*DefinitionError); ok {
		return e.Type == de.Type
	}
	return false
}

// NewDefinitionError creates a new definition error.
func NewDefinitionError(errType ErrorType, key, message string, cause error) *DefinitionError {
	return &DefinitionError{
		Type:    errType,
		Key:     key,
		Message: message,
		Cause:   cause,
	}
}

// Convenience functions for creating errors

// NewShapeError reports a constraint argument with the wrong shape.
func NewShapeError(key, expected string, cause error) *DefinitionError {
	return NewDefinitionError(ErrorTypeBadShape, key, expected, cause)
}

// NewUnknownKeyError reports a definition key that names no constraint.
func NewUnknownKeyError(key string) *DefinitionError {
	return NewDefinitionError(ErrorTypeUnknownKey, key, "unknown constraint key", nil)
}

// NewParseError reports unparseable definition data.
func NewParseError(source, message string, cause error) *DefinitionError {
	return NewDefinitionError(ErrorTypeParseFailure, source, message, cause)
}

// NewLoadError reports an unreadable definition source.
func NewLoadError(source, message string, cause error) *DefinitionError {
	return NewDefinitionError(ErrorTypeLoadFailure, source, message, cause)
}

// ValidationError is the call-time failure returned by RuleSet.Check: a
// non-nil value violated one named constraint. Check attribution follows the
// fixed evaluation order; only the first failing check is ever reported.
type ValidationError struct {
	// Check is the name of the constraint that failed, e.g. "maxLength" or
	// "nonEmpty (callback)" for named callbacks.
	Check string
	// Value is the offending value.
	Value any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on check %q for value %v", e.Check, e.Value)
}
