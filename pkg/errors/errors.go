package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for common error cases
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized indicates the request lacks valid authentication
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidInput indicates the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUserExists indicates a user with the same username already exists
	ErrUserExists = errors.New("user already exists")

	// ErrTokenExists indicates the user already holds a personal access token
	ErrTokenExists = errors.New("token already exists")

	// ErrTokenExpired indicates the access token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidToken indicates a malformed or unknown token
	ErrInvalidToken = errors.New("invalid token")

	// ErrDuplicate indicates a unique constraint was violated
	ErrDuplicate = errors.New("duplicate record")

	// ErrConfigError indicates a configuration error
	ErrConfigError = errors.New("configuration error")
)

// ErrorCode represents HTTP-like error codes
type ErrorCode int

const (
	CodeBadRequest          ErrorCode = http.StatusBadRequest
	CodeUnauthorized        ErrorCode = http.StatusUnauthorized
	CodeForbidden           ErrorCode = http.StatusForbidden
	CodeNotFound            ErrorCode = http.StatusNotFound
	CodeConflict            ErrorCode = http.StatusConflict
	CodeTooManyRequests     ErrorCode = http.StatusTooManyRequests
	CodeInternalServerError ErrorCode = http.StatusInternalServerError
	CodeServiceUnavailable  ErrorCode = http.StatusServiceUnavailable
)

// AppError represents an application-level error with additional context
type AppError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Err     error                  `json:"-"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is interface for comparison
func (e *AppError) Is(target error) bool {
	if e.Err != nil {
		return errors.Is(e.Err, target)
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error
func (e *AppError) HTTPStatus() int {
	return int(e.Code)
}

// WithDetails adds additional details to the error
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new AppError with the given code, message, and underlying error
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NotFound creates a new not found error
func NotFound(resource string, err error) *AppError {
	return NewAppError(CodeNotFound, fmt.Sprintf("%s not found", resource), err)
}

// NotFoundOrUnauthorized is returned when a caller targets a resource it does
// not own. The message is identical for both cases so ownership is not leaked.
func NotFoundOrUnauthorized(resource string) *AppError {
	return NewAppError(CodeNotFound, fmt.Sprintf("%s not found or unauthorized", resource), ErrNotFound)
}

// Unauthorized creates a new unauthorized error
func Unauthorized(message string, err error) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return NewAppError(CodeUnauthorized, message, err)
}

// BadRequest creates a new bad request error
func BadRequest(message string, err error) *AppError {
	if message == "" {
		message = "invalid request"
	}
	return NewAppError(CodeBadRequest, message, err)
}

// Conflict creates a new conflict error (for duplicate resources)
func Conflict(message string, err error) *AppError {
	return NewAppError(CodeConflict, message, err)
}

// TooManyRequests creates a rate limit error
func TooManyRequests(message string) *AppError {
	if message == "" {
		message = "too many requests"
	}
	return NewAppError(CodeTooManyRequests, message, nil)
}

// InternalError creates a new internal server error
func InternalError(message string, err error) *AppError {
	if message == "" {
		message = "an internal error occurred"
	}
	return NewAppError(CodeInternalServerError, message, err)
}

// DatabaseError creates a new database error
func DatabaseError(operation string, err error) *AppError {
	return NewAppError(CodeInternalServerError, fmt.Sprintf("database %s failed", operation), err)
}

// StorageError creates a new storage error
func StorageError(operation string, err error) *AppError {
	return NewAppError(CodeInternalServerError, fmt.Sprintf("storage %s failed", operation), err)
}

// ValidationError creates a new validation error with field details
func ValidationError(field, message string) *AppError {
	return NewAppError(CodeBadRequest, message, ErrInvalidInput).WithDetails(map[string]interface{}{
		"field": field,
	})
}

// sentinels maps each client-facing code to the bare errors that imply it
// when no AppError is present in the chain
var sentinels = map[ErrorCode][]error{
	CodeNotFound:     {ErrNotFound},
	CodeUnauthorized: {ErrUnauthorized, ErrInvalidToken, ErrTokenExpired},
	CodeConflict:     {ErrUserExists, ErrTokenExists, ErrDuplicate},
	CodeBadRequest:   {ErrInvalidInput},
}

// hasCode reports whether err carries code, either as the outermost AppError
// in its chain or through one of the code's sentinels
func hasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	for _, sentinel := range sentinels[code] {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool { return hasCode(err, CodeNotFound) }

// IsUnauthorized checks if an error is an authentication failure
func IsUnauthorized(err error) bool { return hasCode(err, CodeUnauthorized) }

// IsConflict checks if an error is a duplicate or conflict error
func IsConflict(err error) bool { return hasCode(err, CodeConflict) }

// IsBadRequest checks if an error is a validation or bad request error
func IsBadRequest(err error) bool { return hasCode(err, CodeBadRequest) }

// StatusOf resolves the HTTP status for any error, defaulting to 500
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	for _, code := range []ErrorCode{CodeNotFound, CodeUnauthorized, CodeConflict, CodeBadRequest} {
		if hasCode(err, code) {
			return int(code)
		}
	}
	return http.StatusInternalServerError
}
