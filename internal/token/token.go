// Package token reads claims of access tokens issued by the clinic API.
// Signatures are not verified.
package token

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nkiryanov/clinicdesk/internal/apperrors"
	"github.com/nkiryanov/clinicdesk/internal/models"
)

// Claims of the access token as issued by the auth service
type Claims struct {
	jwt.RegisteredClaims

	TokenType string      `json:"token_type"`
	UserID    json.Number `json:"user_id"`
	Username  string      `json:"username,omitempty"`
	UserType  string      `json:"user_type,omitempty"`
}

// Parse decodes access token claims without signature check
func Parse(access string) (Claims, error) {
	var claims Claims

	_, _, err := jwt.NewParser().ParseUnverified(access, &claims)
	if err != nil {
		return claims, fmt.Errorf("%w: malformed token: %w", apperrors.ErrInvalidCredentials, err)
	}

	return claims, nil
}

// Expired reports whether claims expired at the moment
// Tokens without expiration never expire
func (c Claims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(c.ExpiresAt.Time)
}

// Identity built from claims. Only fields present in the token are set
func (c Claims) Identity() (models.Identity, error) {
	identity := models.Identity{
		Username: c.Username,
		Role:     c.UserType,
	}

	if c.UserID != "" {
		id, err := c.UserID.Int64()
		if err != nil {
			return identity, fmt.Errorf("%w: user_id is not a number: %w", apperrors.ErrInvalidCredentials, err)
		}
		identity.ID = id
	}

	if identity.ID == 0 && identity.Username == "" {
		return identity, fmt.Errorf("%w: token has no subject", apperrors.ErrInvalidCredentials)
	}

	return identity, nil
}

// ClaimsResolver resolves session identity from access token claims without network calls
type ClaimsResolver struct {
	// Current time source. time.Now if nil
	Now func() time.Time
}

func (r ClaimsResolver) Resolve(_ context.Context, pair models.TokenPair) (models.Identity, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	claims, err := Parse(pair.Access)
	if err != nil {
		return models.Identity{}, err
	}

	if claims.Expired(now()) {
		return models.Identity{}, fmt.Errorf("%w: expired at %s", apperrors.ErrTokenExpired, claims.ExpiresAt.Format(time.RFC3339))
	}

	return claims.Identity()
}
