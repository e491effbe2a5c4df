package clinicapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nkiryanov/clinicdesk/internal/apperrors"
	"github.com/nkiryanov/clinicdesk/internal/models"
)

const (
	pathToken        = "/api/token/"
	pathTokenRefresh = "/api/token/refresh/"
	pathRegister     = "/api/users/register/"
	pathProfile      = "/api/users/profile/"
)

// Login exchanges credentials for a token pair
func (c *Client) Login(ctx context.Context, creds models.Credentials) (models.TokenPair, error) {
	var pair models.TokenPair

	if err := validateInput(creds); err != nil {
		return pair, err
	}

	err := c.do(ctx, request{method: http.MethodPost, path: pathToken, body: creds}, &pair)
	if err != nil {
		return models.TokenPair{}, err
	}

	if pair.Access == "" || pair.Refresh == "" {
		return models.TokenPair{}, &apperrors.APIError{
			Kind:   apperrors.ErrUnexpectedResponse,
			Status: http.StatusOK,
			Err:    errors.New("token pair is incomplete"),
		}
	}

	return pair, nil
}

// Register creates a new account. It does not log in
func (c *Client) Register(ctx context.Context, data models.RegisterData) error {
	if err := validateInput(data); err != nil {
		return err
	}

	err := c.do(ctx, request{method: http.MethodPost, path: pathRegister, body: data}, nil)

	var apiErr *apperrors.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest && usernameTaken(apiErr.Fields) {
		apiErr.Kind = apperrors.ErrAccountExists
	}

	return err
}

func usernameTaken(fields map[string][]string) bool {
	for _, msg := range fields["username"] {
		if strings.Contains(strings.ToLower(msg), "exists") {
			return true
		}
	}
	return false
}

// RefreshAccess exchanges refresh token for a new access token
// If the server does not rotate refresh tokens the passed one is kept in the returned pair
func (c *Client) RefreshAccess(ctx context.Context, refresh string) (models.TokenPair, error) {
	var pair models.TokenPair

	if refresh == "" {
		return pair, &apperrors.APIError{
			Kind:   apperrors.ErrValidationFailure,
			Fields: map[string][]string{"refresh": {"This field is required."}},
		}
	}

	body := map[string]string{"refresh": refresh}
	err := c.do(ctx, request{method: http.MethodPost, path: pathTokenRefresh, body: body}, &pair)
	if err != nil {
		return models.TokenPair{}, err
	}

	if pair.Access == "" {
		return models.TokenPair{}, &apperrors.APIError{
			Kind:   apperrors.ErrUnexpectedResponse,
			Status: http.StatusOK,
			Err:    errors.New("access token is missing"),
		}
	}
	if pair.Refresh == "" {
		pair.Refresh = refresh
	}

	return pair, nil
}

// Profile returns identity of the access token owner
func (c *Client) Profile(ctx context.Context, access string) (models.Identity, error) {
	var identity models.Identity
	err := c.do(ctx, request{method: http.MethodGet, path: pathProfile, access: access}, &identity)
	if err != nil {
		return models.Identity{}, err
	}
	return identity, nil
}

// ProfileResolver resolves session identity with the profile endpoint
type ProfileResolver struct {
	Client *Client
}

func (r ProfileResolver) Resolve(ctx context.Context, pair models.TokenPair) (models.Identity, error) {
	return r.Client.Profile(ctx, pair.Access)
}
