package httputil

import (
	"net/http"
	"time"
)

const (
	DefaultTimeout = 30 * time.Second

	// UserAgent identifies outbound requests to collaborator APIs.
	UserAgent = "SmokeWatch/1.0 (PM2.5 early-warning service)"
)

// NewClient returns an HTTP client with standard timeout configuration.
func NewClient() *http.Client {
	return &http.Client{
		Timeout: DefaultTimeout,
	}
}
