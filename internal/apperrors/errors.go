package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// Remote API failures
	ErrNetworkFailure     = errors.New("network failure")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountExists      = errors.New("account already exists")
	ErrValidationFailure  = errors.New("validation failed")
	ErrUnexpectedResponse = errors.New("unexpected response")
	ErrTokenExpired       = errors.New("token is expired")

	// Durable storage failures
	ErrKeyNotFound        = errors.New("key not found")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Session lifecycle misuse
	ErrNotInitialized      = errors.New("session is not initialized")
	ErrAlreadyInitialized  = errors.New("session is already initialized")
	ErrOperationInProgress = errors.New("another session operation is in progress")
	ErrNoSession           = errors.New("no active session")
)

// kinds lists every sentinel with the name reported by Kind
var kinds = []struct {
	err  error
	name string
}{
	{ErrNetworkFailure, "network_failure"},
	{ErrInvalidCredentials, "invalid_credentials"},
	{ErrAccountExists, "account_exists"},
	{ErrValidationFailure, "validation_failure"},
	{ErrUnexpectedResponse, "unexpected_response"},
	{ErrTokenExpired, "token_expired"},
	{ErrKeyNotFound, "key_not_found"},
	{ErrStorageUnavailable, "storage_unavailable"},
	{ErrNotInitialized, "not_initialized"},
	{ErrAlreadyInitialized, "already_initialized"},
	{ErrOperationInProgress, "operation_in_progress"},
	{ErrNoSession, "no_session"},
}

// Kind returns short name of the first known sentinel err wraps
// Returns "" for nil and "unknown" for errors outside of the taxonomy
func Kind(err error) string {
	if err == nil {
		return ""
	}

	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}

	return "unknown"
}

// APIError describes a failed call to the remote clinic API
type APIError struct {
	// One of the sentinel errors above
	Kind error

	// HTTP status code, zero if request never got a response
	Status int

	// Field level messages returned by the API on validation errors
	Fields map[string][]string

	Err error
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())

	if e.Status != 0 {
		fmt.Fprintf(&b, ", status: %d", e.Status)
	}

	if len(e.Fields) > 0 {
		names := make([]string, 0, len(e.Fields))
		for name := range e.Fields {
			names = append(names, name)
		}
		sort.Strings(names)

		b.WriteString(", fields:")
		for _, name := range names {
			fmt.Fprintf(&b, " %s=%q", name, strings.Join(e.Fields[name], "; "))
		}
	}

	if e.Err != nil {
		fmt.Fprintf(&b, ", error: %v", e.Err)
	}

	return b.String()
}

func (e *APIError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
