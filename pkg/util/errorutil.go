package util

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
)

// Machine-readable error codes returned to API clients. Authentication codes
// deliberately stay generic: "wrong password" and "no such account" both map
// to CodeInvalidCredentials.
const (
	CodeValidation              = "VALIDATION"
	CodeInvalidCredentials      = "INVALID_CREDENTIALS"
	CodeNoPassword              = "NO_PASSWORD"
	CodeAccountInactive         = "ACCOUNT_INACTIVE"
	CodeInvalidRefreshToken     = "INVALID_REFRESH_TOKEN"
	CodeRefreshTokenExpired     = "REFRESH_TOKEN_EXPIRED"
	CodeNoToken                 = "NO_TOKEN"
	CodeInvalidToken            = "INVALID_TOKEN"
	CodeUserNotFound            = "USER_NOT_FOUND"
	CodeInsufficientPermissions = "INSUFFICIENT_PERMISSIONS"
	CodeInvalidResetToken       = "INVALID_RESET_TOKEN"
	CodeConflict                = "CONFLICT"
	CodeNotFound                = "NOT_FOUND"
	CodeRateLimited             = "RATE_LIMITED"
	CodeDependencyFailure       = "DEPENDENCY_FAILURE"
	CodeSystemError             = "SYSTEM_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewAuthError builds a 401 with the given machine code.
func NewAuthError(code, message string) error {
	return NewDomainError(code, message, http.StatusUnauthorized, nil)
}

// NewAuthErrorWithDetails builds a 401 carrying extra context, e.g. the
// account status for ACCOUNT_INACTIVE.
func NewAuthErrorWithDetails(code, message string, details map[string]any) error {
	return NewDomainError(code, message, http.StatusUnauthorized, details)
}

func NewForbidden(code, message string) error {
	return NewDomainError(code, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewRateLimited(message string) error {
	return NewDomainError(CodeRateLimited, message, http.StatusTooManyRequests, nil)
}

// NewDependencyFailure wraps a collaborator error (mailer, store) that must
// be surfaced to the caller rather than swallowed.
func NewDependencyFailure(message string, err error) error {
	return &DomainError{
		Code:       CodeDependencyFailure,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeSystemError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       CodeSystemError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

// CodeOf extracts the machine code from any error, defaulting to SYSTEM_ERROR.
func CodeOf(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeSystemError
}
