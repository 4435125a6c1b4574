package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	ErrCodeDuplicateEmail     ErrorCode = "DUPLICATE_EMAIL"
	ErrCodeAccountUnverified  ErrorCode = "ACCOUNT_UNVERIFIED"
	ErrCodeInvalidPassword    ErrorCode = "INVALID_PASSWORD"
	ErrCodeUserNotFound       ErrorCode = "USER_NOT_FOUND"
	ErrCodeInvalidUserOptions ErrorCode = "INVALID_USER_OPTIONS"

	ErrCodeEmptyName           ErrorCode = "EMPTY_NAME"
	ErrCodeNameInUse           ErrorCode = "NAME_IN_USE"
	ErrCodeRoleNotFound        ErrorCode = "ROLE_NOT_FOUND"
	ErrCodePermissionNotFound  ErrorCode = "PERMISSION_NOT_FOUND"
	ErrCodeRoleNotAssigned     ErrorCode = "ROLE_NOT_ASSIGNED"
	ErrCodeRoleAssignment      ErrorCode = "ROLE_ASSIGNMENT_FAILED"
	ErrCodeAlreadyAssigned     ErrorCode = "ALREADY_ASSIGNED"
	ErrCodeMissingSelection    ErrorCode = "MISSING_SELECTION"
	ErrCodeTokenNotFound       ErrorCode = "TOKEN_NOT_FOUND"
	ErrCodeTokenExpired        ErrorCode = "TOKEN_EXPIRED"
	ErrCodeTokenRelationship   ErrorCode = "TOKEN_RELATIONSHIP_MISMATCH"
	ErrCodeTokenPrecondition   ErrorCode = "TOKEN_PRECONDITION_FAILED"
	ErrCodeAlreadyVerified     ErrorCode = "ALREADY_VERIFIED"
	ErrCodePasswordChangeLimit ErrorCode = "PASSWORD_CHANGE_LIMIT"

	ErrCodeStoreFailure    ErrorCode = "STORE_FAILURE"
	ErrCodeNotifierFailure ErrorCode = "NOTIFIER_FAILURE"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

// Is matches by error code so wrapped copies of a sentinel still compare equal
// through errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeStoreFailure,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrDuplicateEmail     = NewConflictError("email is already registered", ErrCodeDuplicateEmail)
	ErrAccountUnverified  = NewForbiddenError("account has not been verified", ErrCodeAccountUnverified)
	ErrInvalidPassword    = NewUnauthorizedError("current password does not match", ErrCodeInvalidPassword)
	ErrUserNotFound       = NewNotFoundError("user not found", ErrCodeUserNotFound)
	ErrInvalidUserOptions = NewValidationError("user options contain fields outside the allowed set", ErrCodeInvalidUserOptions)

	ErrEmptyRoleName       = NewValidationError("role name cannot be empty", ErrCodeEmptyName)
	ErrRoleNameInUse       = NewConflictError("role name is already in use", ErrCodeNameInUse)
	ErrRoleNotFound        = NewNotFoundError("role not found", ErrCodeRoleNotFound)
	ErrEmptyPermissionName = NewValidationError("permission name cannot be empty", ErrCodeEmptyName)
	ErrPermissionNameInUse = NewConflictError("permission name is already in use", ErrCodeNameInUse)
	ErrPermissionNotFound  = NewNotFoundError("permission not found", ErrCodePermissionNotFound)
	ErrRoleNotAssigned     = NewValidationError("user does not have the role", ErrCodeRoleNotAssigned)
	ErrRoleAssignment      = &AppError{Type: ErrorTypeInternal, Code: ErrCodeRoleAssignment, Message: "could not assign role to user", StatusCode: http.StatusInternalServerError}
	ErrAlreadyAssigned     = NewConflictError("permission is already assigned to the role", ErrCodeAlreadyAssigned)
	ErrMissingSelection    = NewValidationError("at least one item must be selected", ErrCodeMissingSelection)

	ErrTokenNotFound     = NewNotFoundError("token does not match or does not exist", ErrCodeTokenNotFound)
	ErrTokenExpired      = NewUnauthorizedError("token has expired", ErrCodeTokenExpired)
	ErrTokenRelationship = NewForbiddenError("token does not belong to the supplied user", ErrCodeTokenRelationship)
	ErrTokenPrecondition = NewValidationError("no pending token for the user", ErrCodeTokenPrecondition)
	ErrAlreadyVerified   = NewConflictError("account is already verified", ErrCodeAlreadyVerified)

	ErrPasswordChangeLimit = NewForbiddenError("password change limit reached for the current window", ErrCodePasswordChangeLimit)

	ErrNotifierFailure = &AppError{Type: ErrorTypeInternal, Code: ErrCodeNotifierFailure, Message: "could not deliver notification", StatusCode: http.StatusInternalServerError}
)

// WrapStoreError keeps typed domain errors intact and wraps everything else as
// a store failure, so repository internals never leak to callers untyped.
func WrapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*AppError); ok {
		return err
	}
	return NewInternalError("store operation failed", err)
}

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
