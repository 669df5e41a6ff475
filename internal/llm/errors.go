package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// TransientError marks a failure worth retrying: rate limits, timeouts,
// upstream 5xx responses.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a failure that retrying cannot fix: bad credentials,
// malformed requests, unknown models.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// NewTransientError wraps err as retryable.
func NewTransientError(err error) error {
	return &TransientError{Err: err}
}

// NewPermanentError wraps err as non-retryable.
func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsPermanent reports whether err is not worth retrying.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// HTTPStatusError preserves the upstream status code for callers that need it.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("llm provider returned %d: %s", e.StatusCode, e.Body)
}

// mapHTTPError classifies a non-2xx provider response.
func mapHTTPError(statusCode int, body []byte) error {
	statusErr := &HTTPStatusError{StatusCode: statusCode, Body: truncate(string(body), 512)}

	switch {
	case statusCode == 429, statusCode == 408, statusCode >= 500:
		return NewTransientError(statusErr)
	default:
		return NewPermanentError(statusErr)
	}
}

// wrapRequestError classifies transport-level failures. Context cancellation
// passes through untouched so callers can distinguish client disconnects.
func wrapRequestError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTransientError(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTransientError(err)
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"connection refused", "connection reset", "no such host", "broken pipe", "eof"} {
		if strings.Contains(msg, marker) {
			return NewTransientError(err)
		}
	}

	return NewPermanentError(err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
