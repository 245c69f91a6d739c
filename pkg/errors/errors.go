package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Standard sentinel errors for common cases.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrAlreadyExists    = errors.New("resource already exists")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidReference = errors.New("invalid reference")
	ErrIDMismatch       = errors.New("id mismatch")
	ErrDuplicateChildID = errors.New("duplicate child identifier")
	ErrInternal         = errors.New("internal error")
	ErrConflict         = errors.New("conflict")
	ErrServiceUnavail   = errors.New("service unavailable")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource string, id any) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %v not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// AlreadyExists creates a 409 error.
func AlreadyExists(resource, field, value string) *AppError {
	return &AppError{
		Code:    "ALREADY_EXISTS",
		Message: fmt.Sprintf("%s with %s %q already exists", resource, field, value),
		Status:  http.StatusConflict,
		Err:     ErrAlreadyExists,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// InvalidReference creates a 400 error for a write that points at a
// related record which does not exist (for example an unknown category name).
func InvalidReference(resource, key string) *AppError {
	return &AppError{
		Code:    "INVALID_REFERENCE",
		Message: fmt.Sprintf("%s %q does not exist", resource, key),
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidReference,
	}
}

// IDMismatch creates a 400 error for an update whose body id disagrees with
// the id in the request path.
func IDMismatch(pathID, bodyID int64) *AppError {
	return &AppError{
		Code:    "ID_MISMATCH",
		Message: fmt.Sprintf("path id %d does not match body id %d", pathID, bodyID),
		Status:  http.StatusBadRequest,
		Err:     ErrIDMismatch,
	}
}

// DuplicateChildID creates a 400 error for a child collection that lists the
// same identifier more than once.
func DuplicateChildID(collection string, id int64) *AppError {
	return &AppError{
		Code:    "DUPLICATE_CHILD_IDENTIFIER",
		Message: fmt.Sprintf("%s id %d appears more than once", collection, id),
		Status:  http.StatusBadRequest,
		Err:     ErrDuplicateChildID,
	}
}

// Conflict creates a 409 error.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
		Status:  http.StatusConflict,
		Err:     ErrConflict,
	}
}

// InUse creates a 409 error for a delete blocked by rows that still
// reference the resource.
func InUse(resource string, id any) *AppError {
	return &AppError{
		Code:    fmt.Sprintf("%s_IN_USE", upper(resource)),
		Message: fmt.Sprintf("%s with id %v is still referenced", resource, id),
		Status:  http.StatusConflict,
		Err:     ErrConflict,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidReference),
		errors.Is(err, ErrIDMismatch),
		errors.Is(err, ErrDuplicateChildID):
		return http.StatusBadRequest
	case errors.Is(err, ErrServiceUnavail):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var codeReplacer = strings.NewReplacer(" ", "_", "-", "_")

func upper(s string) string {
	return codeReplacer.Replace(strings.ToUpper(s))
}
