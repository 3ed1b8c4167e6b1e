// Package apierror defines the error body returned by the ledger API.
package apierror

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Error is an API failure with its HTTP status and a stable machine code.
type Error struct {
	StatusCode int          `json:"-"`
	Code       string       `json:"code"`
	Message    string       `json:"message"`
	Details    []FieldError `json:"details,omitempty"`
}

// FieldError points at one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// ToJSON renders the {"success":false,"error":{...}} envelope.
func (e *Error) ToJSON() []byte {
	data, _ := json.Marshal(struct {
		Success bool   `json:"success"`
		Error   *Error `json:"error"`
	}{Error: e})
	return data
}

// New builds an error for status. An empty code is derived from the status text
// (404 becomes NOT_FOUND) and an empty message falls back to the status text.
func New(status int, code, message string) *Error {
	text := http.StatusText(status)
	if code == "" {
		code = strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
	}
	if message == "" {
		message = text
	}
	return &Error{StatusCode: status, Code: code, Message: message}
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, "BAD_REQUEST", message)
}

// ValidationError is a 400 listing the offending fields.
func ValidationError(message string, details ...FieldError) *Error {
	e := New(http.StatusBadRequest, "VALIDATION_ERROR", message)
	e.Details = details
	return e
}

func NotFound(code, message string) *Error {
	return New(http.StatusNotFound, code, message)
}

func Conflict(code, message string) *Error {
	return New(http.StatusConflict, code, message)
}

// UnprocessableEntity is for well-formed requests the ledger cannot complete.
func UnprocessableEntity(code, message string) *Error {
	return New(http.StatusUnprocessableEntity, code, message)
}

// InternalError hides the cause; handlers log it before responding.
func InternalError(message string) *Error {
	return New(http.StatusInternalServerError, "INTERNAL_ERROR", message)
}
