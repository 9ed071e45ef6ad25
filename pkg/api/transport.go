package api

import (
	"net/http"
	"time"
)

type userAgentTransport struct {
	userAgent string
	inner     http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}

	return t.inner.RoundTrip(req)
}

// NewHTTPClient returns the client used for every upstream call. It stamps
// requests with userAgent unless they already carry one.
func NewHTTPClient(timeout time.Duration, userAgent string) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &userAgentTransport{
			userAgent: userAgent,
			inner:     http.DefaultTransport,
		},
	}
}
