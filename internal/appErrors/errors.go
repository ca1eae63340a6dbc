package appErrors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of application error.
type ErrorCode string

// AppError is the application error carried from services to handlers.
type AppError struct {
	Code     ErrorCode   `json:"code"`
	Message  string      `json:"message"`
	Details  interface{} `json:"details,omitempty"`
	Err      error       `json:"-"`
	HTTPCode int         `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches by code, so detailed or wrapped copies still compare equal to
// their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func New(code ErrorCode, message string, httpCode int) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		HTTPCode: httpCode,
	}
}

func Wrap(err error, code ErrorCode, message string, httpCode int) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Err:      err,
		HTTPCode: httpCode,
	}
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	type alias struct {
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}
	return json.Marshal(&alias{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// Predefined errors
var (
	ErrInvalidCredentials = New(CodeInvalidCredentials, "Invalid email or password", http.StatusUnauthorized)
	ErrUnauthorized       = New(CodeUnauthorized, "Authentication required", http.StatusUnauthorized)
	ErrForbidden          = New(CodeForbidden, "Access denied", http.StatusForbidden)
	ErrInvalidToken       = New(CodeInvalidToken, "Invalid or expired token", http.StatusUnauthorized)

	ErrUserNotFound         = New(CodeUserNotFound, "User not found", http.StatusNotFound)
	ErrNotificationNotFound = New(CodeNotificationNotFound, "Notification not found", http.StatusNotFound)
	ErrBroadcastNotFound    = New(CodeBroadcastNotFound, "Broadcast not found", http.StatusNotFound)

	ErrValidationFailed = New(CodeValidationFailed, "Validation failed", http.StatusBadRequest)
	ErrInvalidUserRole  = New(CodeInvalidUserRole, "Invalid user role", http.StatusBadRequest)

	ErrEmptyBroadcastTarget = New(CodeEmptyBroadcastTarget, "Broadcast target set is empty", http.StatusBadRequest)
	ErrInconsistentTarget   = New(CodeInconsistentTarget, "Broadcast target fields do not match target type", http.StatusBadRequest)

	ErrInsufficientPermissions = New(CodeInsufficientPermissions, "Insufficient permissions", http.StatusForbidden)
)

// InternalError wraps an unexpected error.
func InternalError(err error) *AppError {
	return Wrap(err, CodeInternalError, "Internal server error", http.StatusInternalServerError)
}

// DatabaseError wraps a storage failure.
func DatabaseError(err error) *AppError {
	return Wrap(err, CodeDatabaseError, "Database error", http.StatusInternalServerError)
}
