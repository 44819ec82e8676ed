package retry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	utilnet "k8s.io/apimachinery/pkg/util/net"
)

// StatusCoder is implemented by errors carrying an HTTP-like status code.
type StatusCoder interface {
	StatusCode() int
}

// transientMessages are matched case-insensitively against error messages that
// carry no type information, e.g. errors relayed from another process.
var transientMessages = []string{
	"econnreset",
	"connection reset",
	"econnrefused",
	"connection refused",
	"etimedout",
	"timeout",
	"timed out",
	"enotfound",
	"eai_again",
	"no such host",
	"socket hang up",
}

// DefaultShouldRetry retries transient errors regardless of the attempt number.
func DefaultShouldRetry(err error, _ int) bool {
	return IsTransient(err)
}

// IsTransient reports whether err indicates a condition expected to clear up on its
// own: connection resets and refusals, timeouts, DNS failures, and status codes
// >= 500, 429 and 408. Context cancellation is never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if code, ok := statusCode(err); ok {
		return IsRetryableStatus(code)
	}
	if apierrors.IsInternalError(err) || apierrors.IsServerTimeout(err) || apierrors.IsTimeout(err) ||
		apierrors.IsTooManyRequests(err) || apierrors.IsServiceUnavailable(err) || apierrors.IsUnexpectedServerError(err) {
		return true
	}
	if utilnet.IsConnectionReset(err) || utilnet.IsConnectionRefused(err) || utilnet.IsProbableEOF(err) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range transientMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// IsRetryableStatus reports whether an HTTP status code denotes a transient failure.
func IsRetryableStatus(code int) bool {
	return code >= http.StatusInternalServerError ||
		code == http.StatusTooManyRequests ||
		code == http.StatusRequestTimeout
}

func statusCode(err error) (int, bool) {
	var coder StatusCoder
	if errors.As(err, &coder) {
		return coder.StatusCode(), true
	}
	var apiStatus apierrors.APIStatus
	if errors.As(err, &apiStatus) {
		if code := apiStatus.Status().Code; code != 0 {
			return int(code), true
		}
	}
	return 0, false
}
