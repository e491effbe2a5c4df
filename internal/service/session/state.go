package session

import (
	"github.com/nkiryanov/clinicdesk/internal/models"
)

type Phase int

const (
	// Stored tokens not read yet
	PhaseUnknown Phase = iota

	// No tokens, nobody logged in
	PhaseAnonymous

	// Access token present but identity not resolved
	PhasePendingValidation

	// Access token present and identity resolved
	PhaseAuthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseUnknown:
		return "unknown"
	case PhaseAnonymous:
		return "anonymous"
	case PhasePendingValidation:
		return "pending_validation"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return "invalid"
	}
}

// State is an immutable snapshot of the session
// Every transition produces a new snapshot with greater Version
type State struct {
	Phase Phase

	// Set only in PhaseAuthenticated
	Identity *models.Identity

	// True until stored tokens are restored
	Loading bool

	// User facing message of the last failed login or registration, empty if absent
	Error string

	// Typed cause of Error or of a failed restore, nil if absent
	Err error

	Version uint64
}

// HasToken reports whether the session holds an access token
func (s State) HasToken() bool {
	return s.Phase == PhasePendingValidation || s.Phase == PhaseAuthenticated
}

func (s State) clone() State {
	if s.Identity != nil {
		identity := *s.Identity
		s.Identity = &identity
	}
	return s
}
