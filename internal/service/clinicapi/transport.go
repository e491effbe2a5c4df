package clinicapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

type debugLogger interface {
	Debug(msg string, args ...any)
}

// requestTransport tags every request with a request id and logs the round trip
type requestTransport struct {
	next   http.RoundTripper
	logger debugLogger
}

func newRequestTransport(next http.RoundTripper, l debugLogger) *requestTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &requestTransport{next: next, logger: l}
}

func (t *requestTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()

	// RoundTripper must not modify the original request
	r = r.Clone(r.Context())
	if r.Header.Get(RequestIDHeader) == "" {
		r.Header.Set(RequestIDHeader, uuid.NewString())
	}

	resp, err := t.next.RoundTrip(r)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}

	t.logger.Debug(
		"sent HTTP request",
		"method", r.Method,
		"uri", r.URL.RequestURI(),
		"request_id", r.Header.Get(RequestIDHeader),
		"duration", time.Since(start),
		"status", status,
	)

	return resp, err
}
