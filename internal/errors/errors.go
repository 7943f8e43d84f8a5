// Package errors provides custom error types for the Hawltrack API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, optional structured details,
// and optional internal error.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	StatusCode int            `json:"-"`
	Internal   error          `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// WithDetails creates a new AppError carrying a custom message and a
// structured details payload (e.g. remaining days on a premature finalize).
func WithDetails(sentinel *AppError, message string, details map[string]any) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		Details:    details,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Nisab year record errors. A missing record and a record owned by another
// user are reported identically so the API never reveals whether a given
// record ID exists.
var (
	ErrRecordNotFound = &AppError{Code: "RECORD_NOT_FOUND", Message: "Nisab year record not found", StatusCode: http.StatusNotFound}
	ErrRecordConflict = &AppError{Code: "RECORD_CONFLICT", Message: "Record was modified by another request; reload and retry", StatusCode: http.StatusConflict}
	ErrDuplicateDraft = &AppError{Code: "DUPLICATE_DRAFT", Message: "An active draft record already exists for this user", StatusCode: http.StatusConflict}
)

// Lifecycle errors. Invalid state transitions, locked-record edits,
// premature finalization and disallowed deletes each get a distinct code
// so callers can tell them apart.
var (
	ErrInvalidTransition    = &AppError{Code: "INVALID_TRANSITION", Message: "Invalid record state transition", StatusCode: http.StatusConflict}
	ErrRecordLocked         = &AppError{Code: "RECORD_LOCKED", Message: "Record is finalized; unlock it before editing", StatusCode: http.StatusConflict}
	ErrHawlNotComplete      = &AppError{Code: "HAWL_NOT_COMPLETE", Message: "The Hawl period has not completed yet", StatusCode: http.StatusUnprocessableEntity}
	ErrDeleteNotAllowed     = &AppError{Code: "DELETE_NOT_ALLOWED", Message: "Only draft records can be deleted", StatusCode: http.StatusConflict}
	ErrUnlockReasonTooShort = &AppError{Code: "UNLOCK_REASON_TOO_SHORT", Message: "Unlock reason must be at least 10 characters", StatusCode: http.StatusBadRequest}
)
