package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Application error types organized by category for better error handling

type ErrorType int

// Client-side errors - detected before or instead of a network call
const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeValidation
	ErrorTypeNotFound
	ErrorTypeGeolocation
	ErrorTypeAuth

	// Backend errors - the request reached the network layer
	ErrorTypeNetwork
	ErrorTypeHTTP
	ErrorTypeUnauthorized
	ErrorTypeDecode

	// Infrastructure errors - local persistence and setup
	ErrorTypeStorage
	ErrorTypeConfiguration
)

// String returns the string representation of error type
func (e ErrorType) String() string {
	switch e {
	case ErrorTypeValidation:
		return "VALIDATION_ERROR"
	case ErrorTypeNotFound:
		return "NOT_FOUND_ERROR"
	case ErrorTypeGeolocation:
		return "GEOLOCATION_ERROR"
	case ErrorTypeAuth:
		return "AUTH_ERROR"
	case ErrorTypeNetwork:
		return "NETWORK_ERROR"
	case ErrorTypeHTTP:
		return "HTTP_ERROR"
	case ErrorTypeUnauthorized:
		return "UNAUTHORIZED_ERROR"
	case ErrorTypeDecode:
		return "DECODE_ERROR"
	case ErrorTypeStorage:
		return "STORAGE_ERROR"
	case ErrorTypeConfiguration:
		return "CONFIGURATION_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

const (
	// GenericMessage is shown when an error carries nothing better.
	GenericMessage = "An unexpected error occurred"
	// NetworkMessage is shown for transport failures.
	NetworkMessage = "Network error: unable to reach the server"
	// GeolocationMessage is shown when the device position is unavailable.
	GeolocationMessage = "Failed to get current location. Please check permissions."
)

type AppError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type.String(), e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type.String(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(errorType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
	}
}

func Wrap(errorType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// Client-side Error Constructors
func NewValidationError(message string) *AppError {
	return New(ErrorTypeValidation, message)
}

func NewNotFoundError(message string) *AppError {
	return New(ErrorTypeNotFound, message)
}

func NewGeolocationError(message string, cause error) *AppError {
	return Wrap(ErrorTypeGeolocation, message, cause)
}

func NewAuthError(message string) *AppError {
	return New(ErrorTypeAuth, message)
}

// Backend Error Constructors
func NewNetworkError(cause error) *AppError {
	return Wrap(ErrorTypeNetwork, NetworkMessage, cause)
}

// NewHTTPError builds the error for a non-2xx response. A 401 is typed as
// Unauthorized so callers can recognise a terminal authentication failure.
func NewHTTPError(statusCode int, message string) *AppError {
	if message == "" {
		message = fmt.Sprintf("Request failed with status %d", statusCode)
	}
	errorType := ErrorTypeHTTP
	if statusCode == http.StatusUnauthorized {
		errorType = ErrorTypeUnauthorized
	}
	return &AppError{
		Type:       errorType,
		Message:    message,
		StatusCode: statusCode,
	}
}

func NewDecodeError(message string, cause error) *AppError {
	return Wrap(ErrorTypeDecode, message, cause)
}

// Infrastructure Error Constructors
func NewStorageError(message string, cause error) *AppError {
	return Wrap(ErrorTypeStorage, message, cause)
}

func NewConfigurationError(message string, cause error) *AppError {
	return Wrap(ErrorTypeConfiguration, message, cause)
}

// Helper functions for error type checking

func typeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeUnknown
}

func IsValidationError(err error) bool {
	return typeOf(err) == ErrorTypeValidation
}

func IsNotFoundError(err error) bool {
	return typeOf(err) == ErrorTypeNotFound
}

func IsGeolocationError(err error) bool {
	return typeOf(err) == ErrorTypeGeolocation
}

func IsAuthError(err error) bool {
	return typeOf(err) == ErrorTypeAuth
}

func IsNetworkError(err error) bool {
	return typeOf(err) == ErrorTypeNetwork
}

// IsHTTPError reports any non-2xx backend response, 401 included.
func IsHTTPError(err error) bool {
	t := typeOf(err)
	return t == ErrorTypeHTTP || t == ErrorTypeUnauthorized
}

func IsUnauthorizedError(err error) bool {
	return typeOf(err) == ErrorTypeUnauthorized
}

func IsDecodeError(err error) bool {
	return typeOf(err) == ErrorTypeDecode
}

func IsStorageError(err error) bool {
	return typeOf(err) == ErrorTypeStorage
}

func IsConfigurationError(err error) bool {
	return typeOf(err) == ErrorTypeConfiguration
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return 0
}

// UserMessage returns the text to show a user for err. AppError messages are
// written for users already; anything else falls back to fallback, or to
// GenericMessage when fallback is empty.
func UserMessage(err error, fallback string) string {
	if fallback == "" {
		fallback = GenericMessage
	}
	if err == nil {
		return fallback
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
