package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes session store failures.
	RedisErrorMessage = "session store operation failed"
	// RedisNotFoundMessage describes a missing conversation key.
	RedisNotFoundMessage = "conversation not found"
	// CatalogErrorMessage describes product catalog failures.
	CatalogErrorMessage = "catalog operation failed"
	// NotFoundMessage is the generic missing-resource message.
	NotFoundMessage = "resource not found"
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// NotFound builds a 404 AppError for a missing resource.
func NotFound(message string) *AppError {
	if message == "" {
		message = NotFoundMessage
	}
	return New(nil, http.StatusNotFound, message)
}

// BadRequest builds a 400 AppError for invalid client input.
func BadRequest(err error, message string) *AppError {
	return New(err, http.StatusBadRequest, message)
}

// Internal builds a 500 AppError with the safe system message.
func Internal(err error) *AppError {
	return New(err, http.StatusInternalServerError, SystemErrorMessage)
}

// WrapCatalog wraps a product catalog error with a consistent status and message.
func WrapCatalog(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, CatalogErrorMessage)
}

// StatusOf extracts the HTTP status carried by err, defaulting to 500.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}
