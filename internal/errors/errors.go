// Package errors defines the structured HTTP error response used for client
// input errors, authorization failures, and infrastructure faults. Domain
// outcomes (not found, expired, ceiling reached) are not errors; they are
// carried in normal 200 responses by the handlers.
package errors

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError is a renderable error response: {"success":false,"message":...}.
type APIError struct {
	StatusCode int    `json:"-"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// New creates an APIError with the given status and message.
func New(statusCode int, message string) *APIError {
	return &APIError{StatusCode: statusCode, Message: message}
}

// Validation is a 400 client input error.
func Validation(message string) *APIError {
	return New(http.StatusBadRequest, message)
}

// Unauthorized carries no detail about why, deliberately.
var Unauthorized = New(http.StatusUnauthorized, "Unauthorized")

// ServerError is the generic 500 response; the cause stays in the server
// logs and is never exposed to the caller.
func ServerError(message string) *APIError {
	return New(http.StatusInternalServerError, message)
}
