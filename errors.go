package glueops

import (
	"fmt"

	"github.com/pkg/errors"
)

// AuthenticationError indicates that the client could not obtain a token for
// a remote service, for example because the workload identity exchange was
// rejected.
type AuthenticationError struct {
	// Endpoint is the service the client tried to authenticate to.
	Endpoint string
	cause    error
}

// NewAuthenticationError returns a new error indicating that authenticating to
// the endpoint failed because of the cause.
func NewAuthenticationError(endpoint string, cause error) *AuthenticationError {
	return &AuthenticationError{Endpoint: endpoint, cause: cause}
}

func (e *AuthenticationError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("authenticating to '%s'", e.Endpoint)
	}
	return fmt.Sprintf("authenticating to '%s': %s", e.Endpoint, e.cause)
}

// Unwrap returns the underlying cause of the error.
func (e *AuthenticationError) Unwrap() error {
	return e.cause
}

// IsAuthenticationError returns whether or not the error is due to failed
// authentication.
func IsAuthenticationError(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// RedirectError indicates that a response carried a redirect location. This
// usually means the request was bounced to an identity provider's login page
// (e.g. by an authenticating proxy) or that the session expired, rather than
// reaching the API.
type RedirectError struct {
	// Location is the redirect target given by the response.
	Location string
	// StatusCode is the HTTP status of the response.
	StatusCode int
}

// NewRedirectError returns a new error for a response with the given status
// that redirected to the location.
func NewRedirectError(location string, statusCode int) *RedirectError {
	return &RedirectError{Location: location, StatusCode: statusCode}
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("received a redirect to '%s' (status %d); the request may have been sent to a login page or the session may have expired", e.Location, e.StatusCode)
}

// IsRedirectError returns whether or not the error is due to a redirect
// response.
func IsRedirectError(err error) bool {
	var redirectErr *RedirectError
	return errors.As(err, &redirectErr)
}

// MalformedResponseError indicates that a response body could not be parsed or
// was missing required fields.
type MalformedResponseError struct {
	// Reason describes what is wrong with the response.
	Reason string
	cause  error
}

// NewMalformedResponseError returns a new error for a response that is
// malformed for the given reason.
func NewMalformedResponseError(reason string, cause error) *MalformedResponseError {
	return &MalformedResponseError{Reason: reason, cause: cause}
}

func (e *MalformedResponseError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("malformed response: %s", e.Reason)
	}
	return fmt.Sprintf("malformed response: %s: %s", e.Reason, e.cause)
}

// Unwrap returns the underlying cause of the error.
func (e *MalformedResponseError) Unwrap() error {
	return e.cause
}

// IsMalformedResponseError returns whether or not the error is due to a
// malformed response.
func IsMalformedResponseError(err error) bool {
	var malformedErr *MalformedResponseError
	return errors.As(err, &malformedErr)
}

// APIError indicates that a remote API rejected a request or could not be
// reached.
type APIError struct {
	// StatusCode is the HTTP status of the response. It is zero if no response
	// was received.
	StatusCode int
	// Message is the response body or a description of the failure.
	Message string
	cause   error
}

// NewAPIError returns a new error for a response with the given status and
// message.
func NewAPIError(statusCode int, message string) *APIError {
	return &APIError{StatusCode: statusCode, Message: message}
}

// NewAPIErrorFromCause returns a new error for a request that did not receive a
// response because of the cause.
func NewAPIErrorFromCause(cause error) *APIError {
	return &APIError{cause: cause}
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		if e.cause == nil {
			return fmt.Sprintf("API request failed: %s", e.Message)
		}
		return fmt.Sprintf("API request failed: %s", e.cause)
	}
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *APIError) Unwrap() error {
	return e.cause
}

// IsAPIError returns whether or not the error is due to an API failure.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// NetworkError indicates a transport-level failure such as a refused
// connection or a timeout.
type NetworkError struct {
	// Op describes the request that failed.
	Op    string
	cause error
}

// NewNetworkError returns a new error for the request described by op that
// failed because of the cause.
func NewNetworkError(op string, cause error) *NetworkError {
	return &NetworkError{Op: op, cause: cause}
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.cause)
}

// Unwrap returns the underlying cause of the error.
func (e *NetworkError) Unwrap() error {
	return e.cause
}

// IsNetworkError returns whether or not the error is due to a transport
// failure.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
