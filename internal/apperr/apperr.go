// Package apperr defines the error-kind taxonomy shared by every component
// of the pipeline (scraper, extractor, summarizer, notifier, API).
package apperr

import (
	"errors"
	"fmt"
)

// Kind is one of the error kinds named in the design notes: a small, closed
// set that retry wrappers and HTTP handlers switch on, instead of walking a
// package-specific sentinel-error zoo per call site.
type Kind string

const (
	// KindConfig is a missing/invalid configuration value. Fatal at startup.
	KindConfig Kind = "config"
	// KindAuthFailed is a rejected credential or an unrecoverable session.
	KindAuthFailed Kind = "auth_failed"
	// KindTransient is a network, 5xx, 429, or proxy failure. Retried with
	// bounded back-off.
	KindTransient Kind = "transient"
	// KindUpstreamUnavailable is an LLM or push service persistently failing
	// after retries.
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	// KindDataError is a malformed blob or unparseable PDF/HTML.
	KindDataError Kind = "data_error"
	// KindConflict is a duplicate content hash, a no-op success.
	KindConflict Kind = "conflict"
	// KindInternal is an invariant violation or assertion failure.
	KindInternal Kind = "internal"
	// KindNotFound is a missing resource, surfaced as HTTP 404.
	KindNotFound Kind = "not_found"
	// KindInvalidInput is a bad request parameter, surfaced as HTTP 400.
	KindInvalidInput Kind = "invalid_input"
)

// Error wraps an underlying error with a Kind so callers can classify it
// without inspecting message text.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with the given kind and operation label.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err (or any error it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, defaulting to KindInternal when err
// does not carry one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
