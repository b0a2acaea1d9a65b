package ean

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrorType represents the category of a transport failure
type ErrorType int

const (
	// ErrTypeNetwork indicates a generic network-level error
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates the request or the caller's deadline timed out
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the server refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeCanceled indicates the caller canceled the request
	ErrTypeCanceled
	// ErrTypeRequest indicates the request could not be built (bad URL)
	ErrTypeRequest
	// ErrTypeHTTP indicates a non-2xx response on a read endpoint
	ErrTypeHTTP
	// ErrTypeParse indicates an unreadable response on a read endpoint
	ErrTypeParse
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeCanceled:
		return "Canceled"
	case ErrTypeRequest:
		return "Request Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is returned when talking to the server failed below the level of a
// server verdict: the request never produced a response, or a read endpoint
// answered with something unusable.
type Error struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (if applicable)
	URL        string    // Endpoint that was called
	Err        error     // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes a transport error and returns a typed *Error
func ClassifyNetworkError(err error, endpoint string) *Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return &Error{Type: ErrTypeCanceled, Message: "Request canceled", URL: endpoint, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return &Error{Type: ErrTypeTimeout, Message: "Request timed out", URL: endpoint, Err: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{
			Type:    ErrTypeDNS,
			Message: fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			URL:     endpoint,
			Err:     err,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return &Error{Type: ErrTypeConnectionRefused, Message: "Server refused connection", URL: endpoint, Err: err}
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return &Error{Type: ErrTypeNetwork, Message: "Host unreachable", URL: endpoint, Err: err}
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return &Error{Type: ErrTypeNetwork, Message: "Network unreachable", URL: endpoint, Err: err}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != err {
		return ClassifyNetworkError(urlErr.Err, endpoint)
	}

	return &Error{Type: ErrTypeNetwork, Message: "Network error occurred", URL: endpoint, Err: err}
}

// NewRequestError creates an error for a request that could not be built
func NewRequestError(endpoint string, err error) *Error {
	return &Error{Type: ErrTypeRequest, Message: "invalid request", URL: endpoint, Err: err}
}

// NewHTTPError creates an error for an unexpected status on a read endpoint
func NewHTTPError(endpoint string, statusCode int, message string) *Error {
	return &Error{Type: ErrTypeHTTP, Message: message, StatusCode: statusCode, URL: endpoint}
}

// NewParseError creates an error for an unreadable response on a read endpoint
func NewParseError(endpoint string, err error) *Error {
	return &Error{Type: ErrTypeParse, Message: "failed to parse response", URL: endpoint, Err: err}
}

func errorType(err error) (ErrorType, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Type, true
	}
	return 0, false
}

// IsNetworkError checks if an error is a transport error (including timeout,
// connection refused, DNS and cancellation)
func IsNetworkError(err error) bool {
	t, ok := errorType(err)
	if !ok {
		return false
	}
	switch t {
	case ErrTypeNetwork, ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeDNS, ErrTypeCanceled:
		return true
	}
	return false
}

// IsTimeout checks if an error is a timeout
func IsTimeout(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeTimeout
}

// IsCanceled checks if an error is a caller cancellation
func IsCanceled(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeCanceled
}

// IsHTTPError checks if an error is an unexpected HTTP status
func IsHTTPError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeHTTP
}

// ShortMessage returns a concise, user-friendly error message
func ShortMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}

	switch e.Type {
	case ErrTypeTimeout:
		return "Server not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Server refused connection - is gm-ean-server running?"
	case ErrTypeDNS:
		return "Cannot resolve server hostname"
	case ErrTypeCanceled:
		return "Request canceled"
	case ErrTypeRequest:
		return fmt.Sprintf("Invalid server URL %q", e.URL)
	case ErrTypeHTTP:
		return fmt.Sprintf("Server error (HTTP %d)", e.StatusCode)
	case ErrTypeParse:
		return "Failed to parse server response"
	default:
		return "Network error - check connection"
	}
}

// TroubleshootingHint returns user-facing advice lines for an error
func TroubleshootingHint(err error) []string {
	var e *Error
	if !errors.As(err, &e) {
		return nil
	}

	switch e.Type {
	case ErrTypeConnectionRefused:
		return []string{
			"Start the server: gm-ean-server serve",
			"Check the --server URL and port",
		}
	case ErrTypeDNS:
		return []string{
			"Use the IP address instead of the hostname",
			"Run 'gm-ean discover' to find servers on the local network",
		}
	case ErrTypeTimeout:
		return []string{
			"The server did not answer in time",
			"Check that the server host is reachable",
		}
	case ErrTypeHTTP:
		if e.StatusCode == 404 {
			return []string{
				"The part does not exist or the EAN panel is disabled",
				"Check --part and the enable_panel setting",
			}
		}
		return []string{strings.TrimSpace(e.Message)}
	default:
		return []string{
			"Check your network connection",
			"Verify the --server URL",
		}
	}
}
