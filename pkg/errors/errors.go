package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    "BAD_REQUEST",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func Forbidden(message string, err error) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// InvalidParticipants is returned before any storage access when a
// participant pair cannot form a conversation identity.
func InvalidParticipants(message string, err error) *AppError {
	return &AppError{
		Code:    "INVALID_PARTICIPANTS",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

// InvalidMessageBody rejects empty, oversized or unsafe message text.
func InvalidMessageBody(message string) *AppError {
	return &AppError{
		Code:    "INVALID_MESSAGE_BODY",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     nil,
	}
}

// RateLimited is a recoverable denial carrying a retry-after hint in seconds.
func RateLimited(resetInSeconds int) *AppError {
	return &AppError{
		Code:    "RATE_LIMITED",
		Message: fmt.Sprintf("Too many messages. Retry in %d seconds", resetInSeconds),
		Status:  http.StatusTooManyRequests,
		Err:     nil,
	}
}

func PlatformBlocked() *AppError {
	return &AppError{
		Code:    "PLATFORM_BLOCKED",
		Message: "Your account has been blocked by an administrator",
		Status:  http.StatusForbidden,
		Err:     nil,
	}
}

func BlockedBySeller() *AppError {
	return &AppError{
		Code:    "BLOCKED_BY_SELLER",
		Message: "You cannot message this seller",
		Status:  http.StatusForbidden,
		Err:     nil,
	}
}

func BlockedByCustomer() *AppError {
	return &AppError{
		Code:    "BLOCKED_BY_CUSTOMER",
		Message: "You cannot message this customer",
		Status:  http.StatusForbidden,
		Err:     nil,
	}
}

// ConversationResolutionFailed marks an exhausted duplicate-key retry loop.
// Unlike the denials above it is a genuine storage fault.
func ConversationResolutionFailed(err error) *AppError {
	return &AppError{
		Code:    "CONVERSATION_RESOLUTION_FAILED",
		Message: "Could not resolve conversation, please retry",
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}
