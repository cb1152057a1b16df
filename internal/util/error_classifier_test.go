package util

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"testing"
)

func TestIsRequeueableError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		requeue bool
		errType string
	}{
		{"nil", nil, false, ""},
		{"json syntax", &json.SyntaxError{}, false, "json_decode_error"},
		{"network error", &net.OpError{Op: "dial", Err: fmt.Errorf("refused")}, true, "network_error"},
		{"context deadline", context.DeadlineExceeded, true, "timeout"},
		{"context canceled", context.Canceled, false, "context_canceled"},
		{"db connection", fmt.Errorf("failed to acquire connection from pool"), true, "db_connection_error"},
		{"unknown", fmt.Errorf("something odd"), false, "unknown_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requeue, errType := IsRequeueableError(tt.err)
			if requeue != tt.requeue {
				t.Errorf("requeue = %v, want %v", requeue, tt.requeue)
			}
			if errType != tt.errType {
				t.Errorf("errType = %q, want %q", errType, tt.errType)
			}
		})
	}
}
