package httputil

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// LimitedTransport is an http.RoundTripper that waits for a rate limiter
// token and stamps a User-Agent before sending.
type LimitedTransport struct {
	Base        http.RoundTripper
	RateLimiter *rate.Limiter
	UserAgent   string
}

func (t *LimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.RateLimiter != nil {
		if err := t.RateLimiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}
	if t.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.UserAgent)
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
