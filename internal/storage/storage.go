package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/nkiryanov/clinicdesk/internal/apperrors"
	"github.com/nkiryanov/clinicdesk/internal/models"
)

// Durable string key-value storage that survives process restarts
type Storage interface {
	// Get value by key
	// If key not exists has to return apperrors.ErrKeyNotFound
	Get(ctx context.Context, key string) (string, error)

	// Set all entries at once: either every entry is written or none
	Set(ctx context.Context, entries map[string]string) error

	// Delete keys. Missing keys are not an error
	Delete(ctx context.Context, keys ...string) error
}

// LoadTokens reads token pair from storage
// Missing tokens are returned as empty strings
func LoadTokens(ctx context.Context, s Storage) (models.TokenPair, error) {
	var pair models.TokenPair

	get := func(key string, dst *string) error {
		value, err := s.Get(ctx, key)
		switch {
		case err == nil:
			*dst = value
			return nil
		case errors.Is(err, apperrors.ErrKeyNotFound):
			return nil
		default:
			return fmt.Errorf("error while reading %s. Err: %w", key, err)
		}
	}

	if err := get(models.AccessTokenKey, &pair.Access); err != nil {
		return models.TokenPair{}, err
	}
	if err := get(models.RefreshTokenKey, &pair.Refresh); err != nil {
		return models.TokenPair{}, err
	}

	return pair, nil
}

// SaveTokens writes both tokens in one call
func SaveTokens(ctx context.Context, s Storage, pair models.TokenPair) error {
	return s.Set(ctx, map[string]string{
		models.AccessTokenKey:  pair.Access,
		models.RefreshTokenKey: pair.Refresh,
	})
}

// ClearTokens removes both tokens
func ClearTokens(ctx context.Context, s Storage) error {
	return s.Delete(ctx, models.AccessTokenKey, models.RefreshTokenKey)
}
