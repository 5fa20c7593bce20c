// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// DefaultOutboundTimeout bounds every call to a third-party verification endpoint.
const DefaultOutboundTimeout = 5 * time.Second

// NewHTTPClient returns a client whose requests never outlive timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultOutboundTimeout
	}
	return &http.Client{Timeout: timeout}
}
