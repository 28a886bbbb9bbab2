package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyQuery signals a blank search query.
	ErrEmptyQuery = errors.New("empty query")
	// ErrNoFiles signals an upload submitted without selected files.
	ErrNoFiles = errors.New("no files selected")
	// ErrEmptyNote signals a pasted document without title or content.
	ErrEmptyNote = errors.New("empty note")

	// ErrRequestInFlight signals a submit while the page is still waiting for the backend.
	ErrRequestInFlight = errors.New("request already in flight")
	// ErrPageClosed signals use of a page instance after it was unmounted.
	ErrPageClosed = errors.New("page closed")

	// ErrBackendUnavailable signals a transport failure (no HTTP response).
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrBackendRejected signals a non-2xx backend response.
	ErrBackendRejected = errors.New("backend rejected request")
	// ErrBackendMalformed signals a 2xx response whose body could not be decoded.
	ErrBackendMalformed = errors.New("malformed backend response")
)

// BackendError is the opaque error returned by the backend client.
// Detail holds the human-readable message the backend sent, if any.
type BackendError struct {
	Endpoint   string
	StatusCode int // 0 when no response was received
	Detail     string
	kind       error
	cause      error
}

// NewBackendError creates a BackendError of the given kind
// (ErrBackendUnavailable, ErrBackendRejected or ErrBackendMalformed).
func NewBackendError(kind error, endpoint string, status int, detail string, cause error) *BackendError {
	return &BackendError{
		Endpoint:   endpoint,
		StatusCode: status,
		Detail:     detail,
		kind:       kind,
		cause:      cause,
	}
}

func (e *BackendError) Error() string {
	var b strings.Builder
	b.WriteString(e.Endpoint)
	b.WriteString(": ")
	b.WriteString(e.kind.Error())
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	} else if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *BackendError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

// UserMessage returns the backend-provided detail carried by err,
// or fallback when there is none.
func UserMessage(err error, fallback string) string {
	var be *BackendError
	if errors.As(err, &be) && be.Detail != "" {
		return be.Detail
	}
	return fallback
}
