package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Sentinel errors for local precondition failures and transport exhaustion.
// Match them with errors.Is.
var (
	// ErrNoSigner is returned when an agent identity is required but none is
	// configured (no MOLTBRIDGE_AGENT_ID in the environment).
	ErrNoSigner = errors.New("no agent identity configured")

	// ErrNotVerified is returned by Register when no verification token has
	// been obtained yet. Call Verify first; no network call is made.
	ErrNotVerified = errors.New("verification required: call Verify before Register")

	// ErrConnectionFailed is returned after the retry budget is exhausted by
	// connection-level failures. It wraps the last underlying cause.
	ErrConnectionFailed = errors.New("connection failed")
)

// Kind sentinels for server-reported errors, derived one-to-one from the
// HTTP status. An *APIError unwraps to exactly one of these (or to none for
// unclassified statuses), so both forms work:
//
//	if errors.Is(err, client.ErrRateLimited) { ... }
//
//	var apiErr *client.APIError
//	if errors.As(err, &apiErr) { log.Println(apiErr.Code) }
var (
	ErrAuthentication     = errors.New("authentication failed")
	ErrValidation         = errors.New("request validation failed")
	ErrNotFound           = errors.New("resource not found")
	ErrConflict           = errors.New("resource conflict")
	ErrRateLimited        = errors.New("rate limit exceeded")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)

// APIError is a non-2xx response from the MoltBridge API. Classification
// happens once, at the transport boundary, and is immutable afterward.
type APIError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int
	// Code is the machine-readable code from the error body, or "UNKNOWN"
	// when the body did not carry one.
	Code string
	// Message is the human-readable message from the error body.
	Message string
	// RetryAfter is the Retry-After header in seconds, when the server sent
	// one on a 429. Zero means the header was absent.
	RetryAfter int

	kind error
}

func (e *APIError) Error() string {
	if e.kind != nil {
		return fmt.Sprintf("%s (status %d, code %s): %s", e.kind, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("server error (status %d, code %s): %s", e.StatusCode, e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return e.kind }

// kindForStatus maps an HTTP status to its error kind sentinel. Statuses
// outside the map classify as a plain *APIError with no kind.
func kindForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuthentication
	case http.StatusBadRequest:
		return ErrValidation
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusServiceUnavailable:
		return ErrServiceUnavailable
	default:
		return nil
	}
}

// apiErrorFromResponse builds the typed error for a ≥400 response. The body
// is expected to be {"error":{"message":...,"code":...}}; anything else
// falls back to the raw text with code UNKNOWN.
func apiErrorFromResponse(status int, header http.Header, body []byte) *APIError {
	message := "Unknown error"
	code := "UNKNOWN"

	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error.Message != "" {
			message = envelope.Error.Message
		}
		if envelope.Error.Code != "" {
			code = envelope.Error.Code
		}
	} else if text := strings.TrimSpace(string(body)); text != "" {
		message = text
	}

	apiErr := &APIError{
		StatusCode: status,
		Code:       code,
		Message:    message,
		kind:       kindForStatus(status),
	}
	if status == http.StatusTooManyRequests {
		if secs, err := strconv.Atoi(header.Get("Retry-After")); err == nil {
			apiErr.RetryAfter = secs
		}
	}
	return apiErr
}
