// Package apierror defines the error half of the API envelope. Handlers
// build one of these and hand it to response.Error, which writes the
// status code and the serialized body.
package apierror

import (
	"encoding/json"
	"net/http"
)

// Error is a structured API error. StatusCode drives the HTTP response,
// Code is a stable machine-readable identifier, Message is for humans.
type Error struct {
	StatusCode int          `json:"-"`
	Code       string       `json:"code"`
	Message    string       `json:"message"`
	Details    []FieldError `json:"details,omitempty"`
}

// FieldError pins a validation failure to a single request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// ToJSON serializes the error in the standard envelope shape.
func (e *Error) ToJSON() []byte {
	body := struct {
		Success bool   `json:"success"`
		Err     *Error `json:"error"`
	}{
		Success: false,
		Err:     e,
	}

	data, _ := json.Marshal(body)
	return data
}

// BadRequest creates a 400 error for requests that cannot be parsed or
// reference malformed identifiers.
func BadRequest(message string) *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
	}
}

// ValidationError creates a 400 error carrying per-field failures, for
// listing payloads that parse but violate a rule (negative price, item
// without a type, and so on).
func ValidationError(message string, details ...FieldError) *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		Code:       "VALIDATION_ERROR",
		Message:    message,
		Details:    details,
	}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *Error {
	if message == "" {
		message = "Authentication required"
	}
	return &Error{
		StatusCode: http.StatusUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    message,
	}
}

// Forbidden creates a 403 error, used when a player other than the seller
// tries to cancel a listing.
func Forbidden(message string) *Error {
	if message == "" {
		message = "Access denied"
	}
	return &Error{
		StatusCode: http.StatusForbidden,
		Code:       "FORBIDDEN",
		Message:    message,
	}
}

// NotFound creates a 404 error. Listings that were just bought or
// cancelled report this same way as listings that never existed.
func NotFound(message string) *Error {
	if message == "" {
		message = "Resource not found"
	}
	return &Error{
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    message,
	}
}

// InternalError creates a 500 error.
func InternalError(message string) *Error {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return &Error{
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    message,
	}
}
