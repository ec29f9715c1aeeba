package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimeoutError represents a bounded-wait expiry on a single client request.
type TimeoutError struct {
	Operation string        `json:"operation"`
	Client    string        `json:"client,omitempty"`
	Timeout   time.Duration `json:"timeout,omitempty"`
	Cause     error         `json:"cause,omitempty"`
}

func (e *TimeoutError) Error() string {
	if e.Client != "" {
		return fmt.Sprintf("timeout for %s on client %s (timeout: %v)", e.Operation, e.Client, e.Timeout)
	}
	return fmt.Sprintf("timeout for %s (timeout: %v)", e.Operation, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return e.Cause }

// UnsupportedError marks a method a backend client cannot serve. The
// dispatcher only surfaces it to the user when every client reports it.
type UnsupportedError struct {
	Method string `json:"method"`
	Client string `json:"client,omitempty"`
}

func (e *UnsupportedError) Error() string {
	if e.Client != "" {
		return fmt.Sprintf("method %s not supported by client %s", e.Method, e.Client)
	}
	return fmt.Sprintf("method %s not supported by any client", e.Method)
}

// NoClientsError signals that no client of the requested backend is
// attached to the buffer. Distinct from UnsupportedError: clients may be
// attached yet all decline the method.
type NoClientsError struct {
	ClientName string `json:"clientName"`
	BufNr      int    `json:"bufnr"`
}

func (e *NoClientsError) Error() string {
	return fmt.Sprintf("no %s client attached to buffer %d", e.ClientName, e.BufNr)
}

// ResolveError is raised when a */resolve round-trip comes back empty at
// the point of use. Unlike normalization failures it is surfaced to the
// acting user flow.
type ResolveError struct {
	Method string `json:"method"`
	Cause  error  `json:"cause,omitempty"`
}

func (e *ResolveError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to %s: %v", e.Method, e.Cause)
	}
	return fmt.Sprintf("failed to %s", e.Method)
}

func (e *ResolveError) Unwrap() error { return e.Cause }

// ValidationError represents parameter validation errors
type ValidationError struct {
	Parameter string `json:"parameter"`
	Message   string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for parameter '%s': %s", e.Parameter, e.Message)
}

// Error constructors

func NewTimeoutError(operation, client string, timeout time.Duration, cause error) *TimeoutError {
	return &TimeoutError{Operation: operation, Client: client, Timeout: timeout, Cause: cause}
}

func NewUnsupportedError(method, client string) *UnsupportedError {
	return &UnsupportedError{Method: method, Client: client}
}

func NewNoClientsError(clientName string, bufNr int) *NoClientsError {
	return &NoClientsError{ClientName: clientName, BufNr: bufNr}
}

func NewResolveError(method string, cause error) *ResolveError {
	return &ResolveError{Method: method, Cause: cause}
}

func NewValidationError(parameter, message string) *ValidationError {
	return &ValidationError{Parameter: parameter, Message: message}
}

// Classification helpers

func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}

func IsUnsupportedError(err error) bool {
	var ue *UnsupportedError
	return errors.As(err, &ue)
}

func IsNoClientsError(err error) bool {
	var ne *NoClientsError
	return errors.As(err, &ne)
}

func IsResolveError(err error) bool {
	var re *ResolveError
	return errors.As(err, &re)
}

func IsCancellationError(err error) bool {
	return errors.Is(err, context.Canceled)
}

// WrapWithContext wraps an error with operation context for better messages
func WrapWithContext(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", operation, err)
}
