package httputil

import (
	"net/http"
	"time"
)

const DefaultTimeout = 30 * time.Second

// UserAgent identifies this product on every outbound provider call.
// The forecast provider rejects requests with a blank User-Agent.
const UserAgent = "snowline/1.0 (+https://github.com/snowlineapp/snowline)"

// NewClient returns an HTTP client with standard timeout configuration.
func NewClient() *http.Client {
	return &http.Client{
		Timeout: DefaultTimeout,
	}
}
