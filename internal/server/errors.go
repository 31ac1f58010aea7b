package server

import (
	"errors"
	"net"
	"strings"
)

// isExpectedCloseError checks if an error is the normal result of a
// connection being closed, so that teardown paths stay quiet in the logs.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "websocket: close 1000") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset by peer")
}
