// Package errors provides the error types used across n8n-backup.
//
// Base errors are sentinels that classify a failure. Structured types add
// context (which request, which resource kind, which workflow) and unwrap
// to their cause so errors.Is and errors.As keep working.
//
// # Error Types
//
// Base errors (sentinel errors):
//   - ErrInvalid - argument or configuration validation failed
//   - ErrNotFound - a referenced file or entry is missing
//   - ErrTransport - the request never produced an HTTP response
//   - ErrStatus - the server answered with a non-2xx status
//   - ErrDecode - the response body is not valid JSON
//   - ErrIO - local file I/O failed
//   - ErrCanceled - the run was canceled
//
// Wrapped error types (add context):
//   - HTTPError{Method, URL, Status, StatusText, Body} - failed remote call
//   - ResourceError{Kind, Op, Err} - listing one resource kind failed
//   - WorkflowError{Op, ID, Name, Err} - one workflow could not be exported
//   - ConfigError{Path, Err} - configuration errors
//
// # Usage
//
//	return &errors.ResourceError{Kind: "tags", Op: "list", Err: err}
//
//	if errors.IsStatus(err) {
//	    // the endpoint is there but refused us, e.g. license restrictions
//	}
package errors

import (
	"errors"
	"fmt"
)

// Base error types (sentinel errors).
var (
	// ErrInvalid indicates validation failed.
	ErrInvalid = baseError("invalid")

	// ErrNotFound indicates a file or entry was not found.
	ErrNotFound = baseError("not found")

	// ErrTransport indicates the request failed before a response arrived.
	ErrTransport = baseError("transport failure")

	// ErrStatus indicates a non-2xx HTTP status.
	ErrStatus = baseError("unexpected HTTP status")

	// ErrDecode indicates a response body could not be parsed as JSON.
	ErrDecode = baseError("failed to parse JSON")

	// ErrIO indicates a file I/O error.
	ErrIO = baseError("I/O error")

	// ErrCanceled indicates the run was canceled.
	ErrCanceled = baseError("canceled")
)

// baseError is a string that implements error.
type baseError string

func (e baseError) Error() string { return string(e) }

// maxBodyLen bounds how much of a response body is kept in an HTTPError.
const maxBodyLen = 200

// HTTPError describes a remote call that returned a non-2xx status.
type HTTPError struct {
	Method     string
	URL        string
	Status     int
	StatusText string
	// Body is the response body, truncated.
	Body string
}

// NewHTTPError builds an HTTPError, truncating body.
func NewHTTPError(method, url string, status int, statusText, body string) *HTTPError {
	return &HTTPError{
		Method:     method,
		URL:        url,
		Status:     status,
		StatusText: statusText,
		Body:       truncate(body, maxBodyLen),
	}
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.Status)
	if e.StatusText != "" {
		msg += " " + e.StatusText
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *HTTPError) Unwrap() error { return ErrStatus }

// ResourceError represents a failure to export one resource kind.
type ResourceError struct {
	// Kind is the resource kind (e.g., "users", "tags").
	Kind string
	// Op is the operation being performed (e.g., "list").
	Op string
	// Err is the underlying error.
	Err error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Kind, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// WorkflowError represents a failure to export a single workflow.
type WorkflowError struct {
	// Op is the operation being performed (e.g., "resolve", "encode").
	Op string
	// ID is the workflow identifier.
	ID string
	// Name is the workflow display name (optional).
	Name string
	// Err is the underlying error.
	Err error
}

func (e *WorkflowError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("workflow %s %s (%s): %s", e.Op, e.Name, e.ID, e.Err)
	}
	return fmt.Sprintf("workflow %s %q: %s", e.Op, e.ID, e.Err)
}

func (e *WorkflowError) Unwrap() error { return e.Err }

// ConfigError represents an error related to configuration.
type ConfigError struct {
	// Path is the configuration file path (optional).
	Path string
	// Err is the underlying error.
	Err error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config %s: %s", e.Path, e.Err)
	}
	return fmt.Sprintf("config: %s", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Wrap adds context to an error by wrapping it with an operation name.
// The returned error implements Unwrap() allowing errors.Is and errors.As
// to work with the wrapped error.
func Wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{op: op, err: err}
}

// Wrapf is Wrap with a sentinel: the result matches both kind and err.
func Wrapf(kind error, err error, op string) error {
	return &wrappedError{op: op, err: err, kind: kind}
}

// wrappedError is an error with an operation context.
type wrappedError struct {
	op   string
	err  error
	kind error
}

func (e *wrappedError) Error() string { return fmt.Sprintf("%s: %s", e.op, e.err) }

func (e *wrappedError) Unwrap() []error {
	if e.kind == nil {
		return []error{e.err}
	}
	return []error{e.kind, e.err}
}

// IsInvalid reports whether err is or wraps ErrInvalid.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransport reports whether err is or wraps ErrTransport.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsStatus reports whether err is or wraps ErrStatus.
func IsStatus(err error) bool {
	return errors.Is(err, ErrStatus)
}

// IsDecode reports whether err is or wraps ErrDecode.
func IsDecode(err error) bool {
	return errors.Is(err, ErrDecode)
}

// IsIO reports whether err is or wraps ErrIO.
func IsIO(err error) bool {
	return errors.Is(err, ErrIO)
}

// IsCanceled reports whether err is or wraps ErrCanceled.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// AsHTTPError reports whether err can be typed as a *HTTPError.
func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}

// AsResourceError reports whether err can be typed as a *ResourceError.
func AsResourceError(err error) (*ResourceError, bool) {
	var re *ResourceError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// AsWorkflowError reports whether err can be typed as a *WorkflowError.
func AsWorkflowError(err error) (*WorkflowError, bool) {
	var we *WorkflowError
	if errors.As(err, &we) {
		return we, true
	}
	return nil, false
}

// AsConfigError reports whether err can be typed as a *ConfigError.
func AsConfigError(err error) (*ConfigError, bool) {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
