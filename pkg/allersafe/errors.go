package allersafe

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated is returned when an operation requires a
	// logged-in principal and none is present
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrEmptyURL is returned when a scan is submitted without a URL
	ErrEmptyURL = errors.New("menu URL is required")

	// ErrNoScanResult is returned when analysis is requested before a
	// scan has completed
	ErrNoScanResult = errors.New("no scan result available")

	// ErrNoMemberSelected is returned when analysis is requested
	// without a family member
	ErrNoMemberSelected = errors.New("no family member selected")

	// ErrInconsistentAnalysis is returned when the backend's safety
	// buckets do not account for every scanned item exactly once
	ErrInconsistentAnalysis = errors.New("safety analysis buckets do not match scan")

	// ErrReconcilerStopped is returned when a reconciliation is begun
	// after the reconciler has already emitted a terminal signal
	ErrReconcilerStopped = errors.New("reconciliation already terminated")
)

// ValidationError reports a local, pre-network input failure.
// It never reaches the network.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// BackendError is an HTTP non-2xx response carrying the backend's
// structured detail message. The detail is surfaced verbatim to the
// user.
type BackendError struct {
	StatusCode int
	Detail     string
}

func (e *BackendError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// TransportError is a network or decoding failure, distinct from a
// backend-reported failure. It is surfaced as a generic retryable
// message.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// PolicyDeniedError reports that the capability policy refused an
// action for the current principal. It is raised locally, never sent
// to the network, and carries the user-facing upgrade prompt.
type PolicyDeniedError struct {
	Capability Capability
	Message    string
}

func (e *PolicyDeniedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("capability %s is not available on the current plan", e.Capability)
}

// IsBackendError reports whether err is a backend-reported failure
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}

// IsTransportError reports whether err is a network/transport failure
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsPolicyDenied reports whether err is a capability refusal
func IsPolicyDenied(err error) bool {
	var pe *PolicyDeniedError
	return errors.As(err, &pe)
}
