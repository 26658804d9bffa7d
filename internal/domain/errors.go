// Package domain contains business logic types and errors.
// Domain errors describe which stage of a command failed (configuration,
// fetching, extraction, persistence) independent of the transport or file
// format that produced them.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrConfig indicates invalid or incomplete configuration. Not retried.
	ErrConfig = errors.New("configuration error")

	// ErrTransport indicates the vendor response could not be obtained.
	ErrTransport = errors.New("transport error")

	// ErrExtraction indicates a vendor response did not contain a usable field.
	ErrExtraction = errors.New("extraction error")

	// ErrFieldNotFound indicates a field query selected nothing.
	ErrFieldNotFound = errors.New("field not found")

	// ErrTypeMismatch indicates a selected value cannot be converted to the requested type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrRetryExhausted indicates every fetch attempt failed.
	ErrRetryExhausted = errors.New("retries exhausted")

	// ErrInvalidMaxSize indicates a history bound below one.
	ErrInvalidMaxSize = errors.New("maximum number of quotes must be greater than 0")

	// ErrLoadHistory indicates the history file exists but could not be loaded.
	ErrLoadHistory = errors.New("loading quote history")

	// ErrMalformedHistory indicates the history file is not valid history JSON.
	ErrMalformedHistory = errors.New("malformed quote history")

	// ErrSaveHistory indicates the history file could not be written.
	ErrSaveHistory = errors.New("saving quote history")
)

// ErrNoVendors is returned when no vendor is enabled for selection.
var ErrNoVendors error = &ConfigError{Setting: "enable_vendors", Reason: "no quote vendors enabled"}

// ConfigError provides context for configuration errors.
type ConfigError struct {
	Setting string
	Reason  string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Setting != "" {
		return fmt.Sprintf("invalid %s: %s", e.Setting, e.Reason)
	}

	return "invalid configuration: " + e.Reason
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ConfigError) Unwrap() error {
	return ErrConfig
}

// NewConfigError creates a configuration error with context.
func NewConfigError(setting, reason string) error {
	return &ConfigError{Setting: setting, Reason: reason}
}

// TransportError provides context for failures to obtain a vendor response.
type TransportError struct {
	Vendor string
	Reason string
	Cause  error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	msg := fmt.Sprintf("fetching from vendor %q", e.Vendor)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	return msg
}

// Unwrap returns the sentinel and the underlying cause.
func (e *TransportError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrTransport}
	}

	return []error{ErrTransport, e.Cause}
}

// NewTransportError creates a transport error with context.
func NewTransportError(vendor, reason string, cause error) error {
	return &TransportError{Vendor: vendor, Reason: reason, Cause: cause}
}

// ExtractionError provides context for a field that could not be extracted.
type ExtractionError struct {
	Vendor string
	Field  string
	Cause  error
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("parsing %s from vendor %q: %v", e.Field, e.Vendor, e.Cause)
}

// Unwrap returns the sentinel and the underlying cause.
func (e *ExtractionError) Unwrap() []error {
	return []error{ErrExtraction, e.Cause}
}

// NewExtractionError creates an extraction error with context.
func NewExtractionError(vendor, field string, cause error) error {
	return &ExtractionError{Vendor: vendor, Field: field, Cause: cause}
}

// RetryExhaustedError wraps the last failure after all attempts were used.
type RetryExhaustedError struct {
	Attempts int
	LastErr  error
}

// Error implements the error interface.
func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("failed fetching quote after %d attempts: %v", e.Attempts, e.LastErr)
}

// Unwrap returns the sentinel and the last underlying error.
func (e *RetryExhaustedError) Unwrap() []error {
	return []error{ErrRetryExhausted, e.LastErr}
}

// NewRetryExhaustedError creates a retry exhausted error.
func NewRetryExhaustedError(attempts int, lastErr error) error {
	return &RetryExhaustedError{Attempts: attempts, LastErr: lastErr}
}

// LoadError provides context for a history file that exists but cannot be loaded.
type LoadError struct {
	Path  string
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("loading quote history from %s: %v", e.Path, e.Cause)
}

// Unwrap returns the sentinel and the underlying cause.
func (e *LoadError) Unwrap() []error {
	return []error{ErrLoadHistory, e.Cause}
}

// NewLoadError creates a history load error.
func NewLoadError(path string, cause error) error {
	return &LoadError{Path: path, Cause: cause}
}

// SaveError provides context for a history file that cannot be written.
type SaveError struct {
	Path  string
	Cause error
}

// Error implements the error interface.
func (e *SaveError) Error() string {
	return fmt.Sprintf("saving quote history to %s: %v", e.Path, e.Cause)
}

// Unwrap returns the sentinel and the underlying cause.
func (e *SaveError) Unwrap() []error {
	return []error{ErrSaveHistory, e.Cause}
}

// NewSaveError creates a history save error.
func NewSaveError(path string, cause error) error {
	return &SaveError{Path: path, Cause: cause}
}

// IsConfig checks if an error is a configuration error.
func IsConfig(err error) bool {
	return errors.Is(err, ErrConfig)
}

// IsTransport checks if an error is a transport error.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsExtraction checks if an error is an extraction error.
func IsExtraction(err error) bool {
	return errors.Is(err, ErrExtraction)
}

// IsRetryExhausted checks if an error reports exhausted fetch attempts.
func IsRetryExhausted(err error) bool {
	return errors.Is(err, ErrRetryExhausted)
}

// IsMalformedHistory checks if an error reports an unparsable history file.
func IsMalformedHistory(err error) bool {
	return errors.Is(err, ErrMalformedHistory)
}
