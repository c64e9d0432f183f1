package common

import (
	"errors"
	"net/http"
)

// Error codes shared across handlers. CustomerNotApproved is deliberately not
// in this list: an unapproved B2B account is not an error, it simply falls
// back to the regular price tiers.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeProductNotFound  = "PRODUCT_NOT_FOUND"
	CodeDuplicateRule    = "DUPLICATE_RULE"
	CodeNegativeResult   = "NEGATIVE_RESULT"
	CodeNotFound         = "NOT_FOUND"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeConflict         = "CONFLICT"
	CodeInternal         = "INTERNAL"
	CodeIdempotentReplay = "IDEMPOTENT_REPLAY"
)

// AppError carries an error code and HTTP status alongside the cause.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// NotFoundError builds the 404-equivalent used for unknown products and records.
func NotFoundError(code, message string) *AppError {
	return NewAppError(code, message, http.StatusNotFound, nil)
}

// ConflictError builds the 409-equivalent used for duplicate rule creation.
func ConflictError(code, message string) *AppError {
	return NewAppError(code, message, http.StatusConflict, nil)
}

// WriteError renders err as the canonical JSON error envelope, unwrapping
// AppError codes and falling back to a 500.
func WriteError(w http.ResponseWriter, err error) {
	var app *AppError
	if errors.As(err, &app) {
		status := app.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		JSONError(w, status, app.Code, app.Message, app.Details)
		return
	}
	JSONError(w, http.StatusInternalServerError, CodeInternal, "internal error", nil)
}
