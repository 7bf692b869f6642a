package errors

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrUsernameExists is returned when registering a taken username.
	ErrUsernameExists = errors.New("Username already exists")
	// ErrEmailExists is returned when registering a taken email address.
	ErrEmailExists = errors.New("Email already exists")
	// ErrInvalidCredentials is returned for any failed login, whatever the cause.
	ErrInvalidCredentials = errors.New("Invalid credentials")
	// ErrInvalidRefreshToken is returned when a refresh token is malformed, expired or orphaned.
	ErrInvalidRefreshToken = errors.New("Token is invalid or expired")
	// ErrUserNotFound is returned when an authenticated principal no longer resolves to an active user.
	ErrUserNotFound = errors.New("User not found")
	// ErrInvalidVerificationCode is returned when an email verification code does not match.
	ErrInvalidVerificationCode = errors.New("Invalid or expired verification code")
	// ErrProductNotFound covers both a missing product and one owned by someone else.
	ErrProductNotFound = errors.New("No Product matches the given query.")
)

const (
	MessageValidationFailed = "Validation failed."
	MessageInternal         = "A server error occurred."
)

// Meta is the metadata block shared by every response envelope.
type Meta struct {
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
	Code       string `json:"code,omitempty"`
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Meta   Meta             `json:"meta"`
	Errors ValidationErrors `json:"errors,omitempty"`
}

// ValidationErrors maps a field name to every message collected for it.
type ValidationErrors map[string][]string

// Add appends a message for field.
func (v ValidationErrors) Add(field, message string) {
	v[field] = append(v[field], message)
}

// Has reports whether field already carries an error.
func (v ValidationErrors) Has(field string) bool {
	return len(v[field]) > 0
}

// Empty reports whether no violations were collected.
func (v ValidationErrors) Empty() bool { return len(v) == 0 }

// Err returns v as an error, or nil when empty.
func (v ValidationErrors) Err() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(v[f], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     ValidationErrors
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse. Field-level
// validation envelopes carry no status code, matching the list/create views.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	if len(e.Fields) > 0 {
		return ErrorResponse{Meta: Meta{Message: e.Message}, Errors: e.Fields}
	}
	return ErrorResponse{
		Meta: Meta{Message: e.Message, StatusCode: e.StatusCode, Code: e.Code},
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var fields ValidationErrors
	if errors.As(err, &fields) {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    MessageValidationFailed,
			Code:       "invalid",
			Fields:     fields,
		}
	}

	switch {
	case errors.Is(err, ErrUsernameExists):
		return NewHTTPError(http.StatusBadRequest, ErrUsernameExists.Error(), "username_exists")
	case errors.Is(err, ErrEmailExists):
		return NewHTTPError(http.StatusBadRequest, ErrEmailExists.Error(), "email_exists")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidCredentials.Error(), "invalid_credentials")
	case errors.Is(err, ErrInvalidRefreshToken):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidRefreshToken.Error(), "token_not_valid")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusUnauthorized, ErrUserNotFound.Error(), "user_not_found")
	case errors.Is(err, ErrInvalidVerificationCode):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidVerificationCode.Error(), "invalid_code")
	case errors.Is(err, ErrProductNotFound):
		return NewHTTPError(http.StatusNotFound, ErrProductNotFound.Error(), "not_found")
	default:
		return NewHTTPError(http.StatusInternalServerError, MessageInternal, "error")
	}
}
