package util

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/url"
	"strings"
)

// IsRequeueableError decides whether a failed MQ message should be nacked
// back onto the queue. Only infrastructure trouble is worth a redelivery;
// everything domain-level (unparseable payload, terminal extraction failure,
// exhausted conflict retry) would fail the same way again and must be
// dropped instead of poisoning the queue.
// Returns: (requeue, errorType).
func IsRequeueableError(err error) (bool, string) {
	if err == nil {
		return false, ""
	}

	errStr := err.Error()

	// JSON decode errors in the event payload itself
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return false, "json_decode_error"
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return false, "json_decode_error"
	}

	// Network errors
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true, "network_timeout"
		}
		return true, "network_error"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true, "network_error"
	}

	// Context timeout
	if errors.Is(err, context.DeadlineExceeded) {
		return true, "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return false, "context_canceled"
	}

	// DB connectivity
	if strings.Contains(errStr, "connection") || strings.Contains(errStr, "timeout") {
		return true, "db_connection_error"
	}

	// Unknown: conservative, do not requeue
	return false, "unknown_error"
}
