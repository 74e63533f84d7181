package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
)

// statusCarrier is implemented by errors that know their HTTP status.
type statusCarrier interface {
	HTTPStatus() int
}

// HTTPStatus extracts an HTTP status code from anywhere in an error
// chain. Returns (0, false) when no status is attached.
func HTTPStatus(err error) (int, bool) {
	var carrier statusCarrier
	if errors.As(err, &carrier) {
		return carrier.HTTPStatus(), true
	}
	return 0, false
}

// Substrings that mark an error as a transient network failure when no
// HTTP status is attached.
var networkErrorSignatures = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"network is unreachable",
	"timeout",
	"timed out",
	"temporarily unavailable",
}

// IsRetryable classifies an error as worth retrying.
//
// Errors carrying an HTTP status are classified by status: 429 and 5xx
// are retryable, other 4xx are not. Without a status, network and
// timeout errors are retryable. Anything else fails closed - retrying a
// logic error cannot change the outcome.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if status, ok := HTTPStatus(err); ok {
		switch {
		case status == http.StatusTooManyRequests:
			return true
		case status >= 500:
			return true
		default:
			return false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, sig := range networkErrorSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}

	return false
}
