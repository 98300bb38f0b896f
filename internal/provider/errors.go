package provider

import "errors"

// ProviderError is the base interface for errors raised by providers. The
// reconciler uses it to tell recovered probe failures from install failures.
type ProviderError interface {
	error
	ItemKey() string
	Unwrap() error
}

// ProbeError means the read-only check could not determine the item's state.
// It is recovered: the item is treated as not satisfied.
type ProbeError struct {
	Key string
	Err error
}

// NewProbeError creates a new ProbeError.
func NewProbeError(key string, err error) *ProbeError {
	return &ProbeError{Key: key, Err: err}
}

// Error returns a formatted error message including the item key.
func (e *ProbeError) Error() string {
	if e.Err == nil {
		return "probe error for " + e.Key
	}
	return "probe error for " + e.Key + ": " + e.Err.Error()
}

// ItemKey returns the key of the item being probed.
func (e *ProbeError) ItemKey() string {
	return e.Key
}

// Unwrap returns the underlying error.
func (e *ProbeError) Unwrap() error {
	return e.Err
}

// Is checks if this error matches another ProbeError.
func (e *ProbeError) Is(target error) bool {
	_, ok := target.(*ProbeError)
	return ok
}

// InstallError means the mutating action failed. It is recorded as a Failed
// outcome for the item and never stops the run.
type InstallError struct {
	Key string
	Err error
}

// NewInstallError creates a new InstallError.
func NewInstallError(key string, err error) *InstallError {
	return &InstallError{Key: key, Err: err}
}

// Error returns a formatted error message including the item key.
func (e *InstallError) Error() string {
	if e.Err == nil {
		return "install error for " + e.Key
	}
	return "install error for " + e.Key + ": " + e.Err.Error()
}

// ItemKey returns the key of the item being installed.
func (e *InstallError) ItemKey() string {
	return e.Key
}

// Unwrap returns the underlying error.
func (e *InstallError) Unwrap() error {
	return e.Err
}

// Is checks if this error matches another InstallError.
func (e *InstallError) Is(target error) bool {
	_, ok := target.(*InstallError)
	return ok
}

// AsProviderError attempts to convert any error to a ProviderError.
func AsProviderError(err error) (ProviderError, bool) {
	var providerErr ProviderError
	if errors.As(err, &providerErr) {
		return providerErr, true
	}
	return nil, false
}

// Cause returns the innermost message of a provider error, which is what
// operators want to see in an outcome's detail.
func Cause(err error) string {
	if err == nil {
		return ""
	}
	if pe, ok := AsProviderError(err); ok && pe.Unwrap() != nil {
		return pe.Unwrap().Error()
	}
	return err.Error()
}
