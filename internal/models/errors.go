package models

import (
	"errors"
	"fmt"
)

// Error codes shared by every layer
const (
	CodeNotAuthenticated   = "NOT_AUTHENTICATED"
	CodeProfileMissing     = "PROFILE_MISSING"
	CodeValidation         = "VALIDATION_ERROR"
	CodeOwnershipViolation = "OWNERSHIP_VIOLATION"
	CodeNotFound           = "NOT_FOUND"
	CodeTransientFetch     = "TRANSIENT_FETCH_FAILURE"
	CodeConflict           = "CONFLICT"
	CodeInternal           = "INTERNAL_ERROR"
)

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HasCode reports whether err carries an AppError with the given code
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// CodeOf returns the AppError code of err, or CodeInternal
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

func NewNotAuthenticatedError(message string) *AppError {
	return &AppError{Code: CodeNotAuthenticated, Message: message}
}

func NewProfileMissingError(subject string) *AppError {
	return &AppError{
		Code:    CodeProfileMissing,
		Message: fmt.Sprintf("no profile exists for session subject %s", subject),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

func NewOwnershipError(message string) *AppError {
	return &AppError{Code: CodeOwnershipViolation, Message: message}
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewTransientFetchError(collection Collection, err error) *AppError {
	return &AppError{
		Code:    CodeTransientFetch,
		Message: fmt.Sprintf("failed to fetch %s", collection),
		Err:     err,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}
