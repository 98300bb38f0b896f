package errors

import (
	"fmt"
)

// ParseError represents a configuration document that could not be decoded.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures a malformed setting or argument.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ConfigurationError is fatal: it aborts the run before any installer is invoked.
// It usually wraps a ParseError or a ValidationError.
type ConfigurationError struct {
	Path string
	Err  error
}

// NewConfigurationError constructs a ConfigurationError for the document at path.
func NewConfigurationError(path string, err error) error {
	return &ConfigurationError{Path: path, Err: err}
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Path != "" {
		return fmt.Sprintf("configuration error in %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("configuration error: %v", e.Err)
}

// Unwrap exposes the underlying error.
func (e *ConfigurationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// DependencyMissingError reports that a tool every provider relies on is absent
// and could not be bootstrapped.
type DependencyMissingError struct {
	Dependency string
	Hint       string
	Err        error
}

// NewDependencyMissingError constructs a DependencyMissingError.
func NewDependencyMissingError(dependency, hint string, err error) error {
	return &DependencyMissingError{Dependency: dependency, Hint: hint, Err: err}
}

func (e *DependencyMissingError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("required dependency %q is missing", e.Dependency)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Hint != "" {
		msg = fmt.Sprintf("%s\nHint: %s", msg, e.Hint)
	}
	return msg
}

// Unwrap exposes the underlying error.
func (e *DependencyMissingError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ExecutionError represents a run-level failure outside any single item, such
// as the progress view or the report file.
type ExecutionError struct {
	Stage string
	Err   error
}

// NewExecutionError constructs an ExecutionError for the named stage.
func NewExecutionError(stage string, err error) error {
	return &ExecutionError{Stage: stage, Err: err}
}

func (e *ExecutionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Stage != "" {
		return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("execution error: %v", e.Err)
}

// Unwrap exposes the root error.
func (e *ExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
