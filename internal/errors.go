package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse marks bodies that are not a usable analysis payload
	ErrMalformedResponse = errors.New("malformed response")

	// ErrAnalysisInFlight is returned when an analysis is already outstanding
	ErrAnalysisInFlight = errors.New("analysis already in flight")

	// ErrStaleResult is returned when the session was reset while a request was outstanding
	ErrStaleResult = errors.New("result discarded: session was reset")

	// ErrAnalysisNotFound is returned when a history entry does not exist
	ErrAnalysisNotFound = errors.New("analysis not found")
)

// StorageError represents errors accessing the local cache
type StorageError struct {
	Path string
	Op   string // "open", "migrate", "read", "write"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// EncodingError represents a failure to turn an image reference into a payload
type EncodingError struct {
	Ref string
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding error [%s]: %v", e.Ref, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// MalformedResponseError describes why a response body was rejected
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed response: %s", e.Reason)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match ErrMalformedResponse
func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

func malformed(reason string, err error) error {
	return &MalformedResponseError{Reason: reason, Err: err}
}

// RequestErrorKind classifies request failures
type RequestErrorKind int

const (
	KindNetwork RequestErrorKind = iota
	KindServiceRejected
	KindMalformedResponse
)

func (k RequestErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServiceRejected:
		return "service rejected"
	case KindMalformedResponse:
		return "malformed response"
	default:
		return "unknown"
	}
}

// RequestError represents a failed call to the analysis service
type RequestError struct {
	Kind     RequestErrorKind
	Endpoint string
	Status   int // set for KindServiceRejected
	Err      error
}

func (e *RequestError) Error() string {
	if e.Kind == KindServiceRejected {
		return fmt.Sprintf("request error [%s] %s: status %d: %v", e.Kind, e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("request error [%s] %s: %v", e.Kind, e.Endpoint, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// SyncError wraps a failed history sync. History has already been emptied.
type SyncError struct {
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("history sync failed: %v", e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Degraded reports whether the failure only degrades history to empty
// rather than being a hard failure worth surfacing.
func (e *SyncError) Degraded() bool {
	return errors.Is(e.Err, ErrMalformedResponse)
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether a manual retry may succeed without changing input
func IsRetryable(err error) bool {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Kind == KindNetwork
	}
	return false
}

// ServiceStatus returns the HTTP status of a rejected request, or 0
func ServiceStatus(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Kind == KindServiceRejected {
		return reqErr.Status
	}
	return 0
}
