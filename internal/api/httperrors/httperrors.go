// Package httperrors defines the public error payload of the API. Every
// error leaves the service in this shape; handlers never write ad-hoc error
// bodies.
package httperrors

import "fmt"

const (
	TypeGeneric      = "generic"
	TypeValidation   = "validation"
	TypeStateGuard   = "state_guard"
	TypeUnauthorized = "unauthorized"
	TypeNotFound     = "not_found"
	TypeTransfer     = "transfer"
)

// HTTPError is the JSON error envelope. Internal carries the wrapped cause
// for logging and is never serialized.
type HTTPError struct {
	Code   int    `json:"status"`
	Type   string `json:"type"`
	Detail string `json:"detail,omitempty"`

	Internal error `json:"-"`
}

func (e *HTTPError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("HTTPError %d (%s): %s: %v", e.Code, e.Type, e.Detail, e.Internal)
	}
	return fmt.Sprintf("HTTPError %d (%s): %s", e.Code, e.Type, e.Detail)
}

// Unwrap exposes the internal cause to errors.Is/As.
func (e *HTTPError) Unwrap() error {
	return e.Internal
}

// NewHTTPError creates an error payload without an internal cause.
func NewHTTPError(code int, errorType string, detail string) *HTTPError {
	return &HTTPError{
		Code:   code,
		Type:   errorType,
		Detail: detail,
	}
}

// WrapHTTPError creates an error payload wrapping an internal cause.
func WrapHTTPError(code int, errorType string, detail string, internal error) *HTTPError {
	return &HTTPError{
		Code:     code,
		Type:     errorType,
		Detail:   detail,
		Internal: internal,
	}
}
