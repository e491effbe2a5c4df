package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nkiryanov/clinicdesk/internal/apperrors"
	"github.com/nkiryanov/clinicdesk/internal/logger"
)

const (
	defaultTimeout = 10 * time.Second

	// Responses larger than that are never expected from the API
	maxResponseBytes = 1 << 20

	RequestIDHeader = "X-Request-ID"
)

type Config struct {
	// Base URL of the clinic API, like http://localhost:8000
	// Required
	BaseURL string

	// Timeout for a single request
	// If not set than default is used
	Timeout time.Duration

	// HTTP client to send requests with
	// If not set than new client is used
	HTTPClient *http.Client
}

// Client of the remote clinic API: auth service and appointment/availability read APIs
type Client struct {
	baseURL string
	timeout time.Duration

	client *http.Client
	logger logger.Logger
}

func NewClient(cfg Config, l logger.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("clinic API base url must not be empty")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	// Copy so the caller's client is left untouched
	var hc http.Client
	if cfg.HTTPClient != nil {
		hc = *cfg.HTTPClient
	}
	hc.Transport = newRequestTransport(hc.Transport, l)

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		client:  &hc,
		logger:  l,
	}, nil
}

type request struct {
	method string
	path   string

	// Bearer token, request is anonymous if empty
	access string

	// Encoded as JSON if not nil
	body any
}

// do sends request and decodes JSON response into out (if not nil)
// Every status except 2xx is returned as *apperrors.APIError
func (c *Client) do(ctx context.Context, r request, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return &apperrors.APIError{Kind: apperrors.ErrNetworkFailure, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.access != "" {
		req.Header.Set("Authorization", "Bearer "+r.access)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("Clinic API request failed", "method", r.method, "path", r.path, "error", err)
		return &apperrors.APIError{Kind: apperrors.ErrNetworkFailure, Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close() // nolint:errcheck

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &apperrors.APIError{Kind: apperrors.ErrNetworkFailure, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, payload)
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return &apperrors.APIError{Kind: apperrors.ErrUnexpectedResponse, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return nil
}

// statusError converts not successful response to *apperrors.APIError
func statusError(status int, payload []byte) *apperrors.APIError {
	apiErr := &apperrors.APIError{Status: status}

	switch {
	case status == http.StatusUnauthorized:
		apiErr.Kind = apperrors.ErrInvalidCredentials
	case status == http.StatusBadRequest:
		apiErr.Kind = apperrors.ErrValidationFailure
		apiErr.Fields = parseFieldErrors(payload)
	default:
		apiErr.Kind = apperrors.ErrUnexpectedResponse
	}

	return apiErr
}

// parseFieldErrors reads REST framework error body: {"field": ["message", ...], "detail": "message"}
// Returns nil if body is not in that format
func parseFieldErrors(payload []byte) map[string][]string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil
	}

	fields := make(map[string][]string, len(raw))
	for name, value := range raw {
		var many []string
		if err := json.Unmarshal(value, &many); err == nil {
			fields[name] = many
			continue
		}

		var one string
		if err := json.Unmarshal(value, &one); err == nil {
			fields[name] = []string{one}
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}
