// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrNotConfigured   = errors.New("host URL or API key not configured")
	ErrNoActiveSymbol  = errors.New("no active symbol configured")
	ErrNoSelection     = errors.New("no strike selected")
	ErrNoExpiry        = errors.New("no expiry selected")
	ErrChainNotBuilt   = errors.New("strike chain not built")
	ErrOrderNotFound   = errors.New("order not found")
	ErrFeedDisabled    = errors.New("live data feed disabled")
	ErrFeedNotRunning  = errors.New("live data feed not connected")
	ErrStaleResponse   = errors.New("response superseded by newer selection")
	ErrSettingNotFound = errors.New("setting not found")
)

// NetworkError represents a failed or timed-out request to the trading API.
// The operation is aborted and callers keep displaying stale data.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error [%s]: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new NetworkError.
func NewNetworkError(endpoint string, err error) *NetworkError {
	return &NetworkError{Endpoint: endpoint, Err: err}
}

// APIError represents a response with status != success. The server-provided
// message is surfaced to the user as-is; there is no automatic retry.
type APIError struct {
	Endpoint string
	Message  string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error [%s]: request rejected", e.Endpoint)
	}
	return fmt.Sprintf("api error [%s]: %s", e.Endpoint, e.Message)
}

// NewAPIError creates a new APIError.
func NewAPIError(endpoint, message string) *APIError {
	return &APIError{Endpoint: endpoint, Message: message}
}

// ResolutionError represents a failure to derive the strike ladder seed from
// resolved option symbols. The current chain build is aborted and any prior
// chain state is left untouched.
type ResolutionError struct {
	Symbol string
	Reason string
}

func (e *ResolutionError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("resolution error: %s", e.Reason)
	}
	return fmt.Sprintf("resolution error [%s]: %s", e.Symbol, e.Reason)
}

// NewResolutionError creates a new ResolutionError.
func NewResolutionError(symbol, reason string) *ResolutionError {
	return &ResolutionError{Symbol: symbol, Reason: reason}
}

// ValidationError represents user input violating a precondition.
// The request is never sent.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
