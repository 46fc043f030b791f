package api

import (
	"errors"
	"io"
	"net"
	"net/http"
	"slices"
	"strings"
	"syscall"
)

var retrableErrorSuffixes = []string{
	syscall.ECONNREFUSED.Error(),
	syscall.ECONNRESET.Error(),
	syscall.ETIMEDOUT.Error(),
	"no such host",
	"remote error: handshake failure",
	io.ErrUnexpectedEOF.Error(),
	io.EOF.Error(),
}

var retryableStatuses = []int{
	http.StatusTooManyRequests,     // 429
	http.StatusInternalServerError, // 500
	http.StatusBadGateway,          // 502
	http.StatusServiceUnavailable,  // 503
	http.StatusGatewayTimeout,      // 504
}

// IsRetryableStatus returns true if the response's StatusCode is one that we should retry.
func IsRetryableStatus(r *Response) bool {
	return r != nil && r.StatusCode >= 400 && slices.Contains(retryableStatuses, r.StatusCode)
}

// IsRetryableError looks at a bunch of connection related errors, and
// returns true if the error matches one of them.
func IsRetryableError(err error) bool {
	var neterr net.Error
	if errors.As(err, &neterr) && neterr.Timeout() {
		return true
	}

	s := err.Error()
	if strings.Contains(s, "use of closed network connection") ||
		strings.Contains(s, "request canceled while waiting for connection") {
		return true
	}

	for _, suffix := range retrableErrorSuffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}

	return false
}

func isRetryable(err error, resp *Response) bool {
	var merr *MalformedResponseError
	if errors.As(err, &merr) {
		return false
	}
	if resp != nil {
		return IsRetryableStatus(resp)
	}
	return IsRetryableError(err)
}
