package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport marks a network-level fault reaching the issue tracker.
	ErrTransport = errors.New("transport error")
	// ErrSourceUnavailable marks a failure status returned by the issue tracker.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrPublish marks a rejected write to blob storage.
	ErrPublish = errors.New("publish failed")
	// ErrBlobNotFound is returned by blob stores when a blob or its container does not exist.
	ErrBlobNotFound = errors.New("blob not found")
)

// TransportError wraps a connection-level failure for one page fetch.
type TransportError struct {
	Repository string
	Page       int
	Err        error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s page %d: %v", e.Repository, e.Page, e.Err)
}

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

// SourceUnavailableError is returned when the issue tracker answers with a
// non-success status. StatusCode is kept for diagnostics.
type SourceUnavailableError struct {
	Repository string
	Page       int
	StatusCode int
	Err        error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("fetch %s page %d: status %d", e.Repository, e.Page, e.StatusCode)
}

func (e *SourceUnavailableError) Unwrap() []error { return []error{ErrSourceUnavailable, e.Err} }

// PublishError carries whatever diagnostic detail the storage client exposes.
type PublishError struct {
	Container  string
	Blob       string
	RequestID  string
	StatusCode int
	ErrorCode  string
	Err        error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("upload %s/%s failed, requestId - %s, statusCode - %d, errorCode - %s: %v",
		e.Container, e.Blob, e.RequestID, e.StatusCode, e.ErrorCode, e.Err)
}

func (e *PublishError) Unwrap() []error { return []error{ErrPublish, e.Err} }
