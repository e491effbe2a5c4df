package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nkiryanov/clinicdesk/internal/apperrors"
	"github.com/nkiryanov/clinicdesk/internal/logger"
	"github.com/nkiryanov/clinicdesk/internal/models"
	"github.com/nkiryanov/clinicdesk/internal/storage"
)

const (
	defaultInvalidCredentialsMessage = "Invalid credentials"
	defaultRegistrationFailedMessage = "Registration failed"
)

// Remote auth service the session talks to
type AuthService interface {
	// Exchange credentials for a token pair
	Login(ctx context.Context, creds models.Credentials) (models.TokenPair, error)

	// Create a new account. Does not issue tokens
	Register(ctx context.Context, data models.RegisterData) error

	// Exchange refresh token for a new pair
	RefreshAccess(ctx context.Context, refresh string) (models.TokenPair, error)
}

// Resolves identity of the token pair owner
// Returning apperrors.ErrInvalidCredentials or apperrors.ErrTokenExpired means the tokens are no longer usable
type IdentityResolver interface {
	Resolve(ctx context.Context, pair models.TokenPair) (models.Identity, error)
}

// Consumer is everything dependents may do with the session
type Consumer interface {
	Snapshot() State
	Subscribe(ctx context.Context) <-chan State
	Login(ctx context.Context, creds models.Credentials) error
	Register(ctx context.Context, data models.RegisterData) error
	Logout(ctx context.Context)
}

type Config struct {
	// Messages set to State.Error on failed login and registration
	// If not set than default is used
	InvalidCredentialsMessage string
	RegistrationFailedMessage string
}

type Option func(*Store)

func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithIdentityResolver sets hook to resolve identity after tokens are obtained or restored
// Without resolver the session stays in PhasePendingValidation while it has tokens
func WithIdentityResolver(r IdentityResolver) Option {
	return func(s *Store) {
		s.resolver = r
	}
}

// Store is the single owner of the session state and the token pair
type Store struct {
	auth     AuthService
	storage  storage.Storage
	resolver IdentityResolver
	logger   logger.Logger

	invalidCredentialsMessage string
	registrationFailedMessage string

	// Held by initialize, login, register, refresh and logout
	// Login, register and refresh only try to acquire it, initialize and logout wait
	op sync.Mutex

	mu          sync.RWMutex
	state       State
	tokens      models.TokenPair
	initStarted bool
	closed      bool
	done        chan struct{}
	subscribers map[chan State]struct{}
}

var _ Consumer = (*Store)(nil)

func New(cfg Config, auth AuthService, s storage.Storage, opts ...Option) (*Store, error) {
	if auth == nil || s == nil {
		return nil, errors.New("auth service and storage must be set")
	}

	if cfg.InvalidCredentialsMessage == "" {
		cfg.InvalidCredentialsMessage = defaultInvalidCredentialsMessage
	}
	if cfg.RegistrationFailedMessage == "" {
		cfg.RegistrationFailedMessage = defaultRegistrationFailedMessage
	}

	store := &Store{
		auth:    auth,
		storage: s,
		logger:  logger.NewNoOpLogger(),

		invalidCredentialsMessage: cfg.InvalidCredentialsMessage,
		registrationFailedMessage: cfg.RegistrationFailedMessage,

		state:       State{Phase: PhaseUnknown, Loading: true},
		done:        make(chan struct{}),
		subscribers: make(map[chan State]struct{}),
	}

	for _, opt := range opts {
		opt(store)
	}

	return store, nil
}

// Initialize restores session from the storage. May be called only once
// Store leaves loading state even if restore fails; the failure is recorded in State.Err and returned
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.initStarted {
		s.mu.Unlock()
		return apperrors.ErrAlreadyInitialized
	}
	s.initStarted = true
	s.mu.Unlock()

	// Logout waits for the restore to finish and always has the last word
	s.op.Lock()
	defer s.op.Unlock()

	pair, err := storage.LoadTokens(ctx, s.storage)
	if err != nil {
		s.logger.Warn("Failed to restore session", "error", err)
		s.transition("initialize", func(st *State) {
			st.Phase = PhaseAnonymous
			st.Loading = false
			st.Err = err
		})
		return fmt.Errorf("failed to restore session: %w", err)
	}

	if pair.Access == "" {
		if !pair.IsZero() {
			s.logger.Info("Refresh token without access token removed")
			if err := storage.ClearTokens(ctx, s.storage); err != nil {
				s.logger.Warn("Failed to remove stale refresh token", "error", err)
			}
		}
		s.transition("initialize", func(st *State) {
			st.Phase = PhaseAnonymous
			st.Loading = false
		})
		return nil
	}

	if s.resolver == nil {
		s.transition("initialize", func(st *State) {
			s.tokens = pair
			st.Phase = PhasePendingValidation
			st.Loading = false
		})
		return nil
	}

	identity, err := s.resolver.Resolve(ctx, pair)
	switch {
	case err == nil:
		s.transition("initialize", func(st *State) {
			s.tokens = pair
			st.Phase = PhaseAuthenticated
			st.Identity = &identity
			st.Loading = false
		})

	case tokenRejected(err):
		s.logger.Info("Stored tokens rejected, session dropped", "reason", apperrors.Kind(err))
		if err := storage.ClearTokens(ctx, s.storage); err != nil {
			s.logger.Warn("Failed to remove rejected tokens", "error", err)
		}
		s.transition("initialize", func(st *State) {
			st.Phase = PhaseAnonymous
			st.Loading = false
		})

	default:
		s.logger.Warn("Failed to resolve identity", "error", err)
		s.transition("initialize", func(st *State) {
			s.tokens = pair
			st.Phase = PhasePendingValidation
			st.Loading = false
			st.Err = err
		})
	}

	return nil
}

// Login exchanges credentials for tokens and persists them
// On failure the session keeps its phase, identity and stored tokens, State.Error is set to a fixed message
func (s *Store) Login(ctx context.Context, creds models.Credentials) error {
	unlock, err := s.begin()
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.login(ctx, creds); err != nil {
		s.logger.Warn("Login failed", "username", creds.Username, "kind", apperrors.Kind(err), "error", err)
		s.fail("login", s.invalidCredentialsMessage, err)
		return fmt.Errorf("login failed: %w", err)
	}

	return nil
}

// Register creates an account and logs in with the same username and password
// A failure of either step sets the same fixed message
func (s *Store) Register(ctx context.Context, data models.RegisterData) error {
	unlock, err := s.begin()
	if err != nil {
		return err
	}
	defer unlock()

	err = s.auth.Register(ctx, data)
	if err == nil {
		err = s.login(ctx, data.Credentials())
	}

	if err != nil {
		s.logger.Warn("Registration failed", "username", data.Username, "kind", apperrors.Kind(err), "error", err)
		s.fail("register", s.registrationFailedMessage, err)
		return fmt.Errorf("registration failed: %w", err)
	}

	return nil
}

// Refresh exchanges stored refresh token for a new access token
// If the auth service rejects refresh token the session is dropped
func (s *Store) Refresh(ctx context.Context) error {
	unlock, err := s.begin()
	if err != nil {
		return err
	}
	defer unlock()

	s.mu.RLock()
	current := s.tokens
	phase := s.state.Phase
	s.mu.RUnlock()

	if current.Refresh == "" {
		return apperrors.ErrNoSession
	}

	pair, err := s.auth.RefreshAccess(ctx, current.Refresh)
	if err != nil {
		if tokenRejected(err) {
			s.logger.Info("Refresh token rejected, session dropped", "reason", apperrors.Kind(err))
			s.drop(ctx, "refresh")
		}
		return fmt.Errorf("refresh failed: %w", err)
	}

	if err := storage.SaveTokens(ctx, s.storage, pair); err != nil {
		return fmt.Errorf("failed to persist tokens: %w", err)
	}

	if phase == PhaseAuthenticated {
		s.transition("refresh", func(st *State) {
			s.tokens = pair
		})
		return nil
	}

	s.authenticate(ctx, "refresh", pair)
	return nil
}

// Logout drops the session. Never fails and makes no remote calls
// Waits for an operation in flight to finish, so logout always has the last word
func (s *Store) Logout(ctx context.Context) {
	s.op.Lock()
	defer s.op.Unlock()

	s.drop(ctx, "logout")
}

// Snapshot returns the current state
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.clone()
}

// AccessToken returns current access token to authorize API calls
func (s *Store) AccessToken(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tokens.Access == "" {
		return "", apperrors.ErrNoSession
	}
	return s.tokens.Access, nil
}

// Subscribe returns channel with the current state followed by a new state after each transition
// Only the latest state is kept if the subscriber is slow; the store is never blocked by subscribers
// Channel is closed when ctx is done or the store is closed
func (s *Store) Subscribe(ctx context.Context) <-chan State {
	ch := make(chan State, 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	ch <- s.state.clone()

	if s.closed {
		close(ch)
		return ch
	}
	s.subscribers[ch] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
		case <-s.done:
		}
		s.unsubscribe(ch)
	}()

	return ch
}

// Close releases all subscribers. Session state stays readable
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.done)

	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Store) unsubscribe(ch chan State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subscribers[ch]; ok {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// begin checks the store is ready and takes operation lock
// Clears error of the previous attempt
func (s *Store) begin() (unlock func(), err error) {
	if s.Snapshot().Loading {
		return nil, apperrors.ErrNotInitialized
	}

	if !s.op.TryLock() {
		return nil, apperrors.ErrOperationInProgress
	}

	s.mu.RLock()
	hasError := s.state.Error != "" || s.state.Err != nil
	s.mu.RUnlock()

	if hasError {
		s.transition("clear_error", func(st *State) {
			st.Error = ""
			st.Err = nil
		})
	}

	return s.op.Unlock, nil
}

// login calls the auth service and persists tokens. Store state is changed only on success
func (s *Store) login(ctx context.Context, creds models.Credentials) error {
	pair, err := s.auth.Login(ctx, creds)
	if err != nil {
		return err
	}

	if err := storage.SaveTokens(ctx, s.storage, pair); err != nil {
		return fmt.Errorf("failed to persist tokens: %w", err)
	}

	s.authenticate(ctx, "login", pair)
	return nil
}

// authenticate switches session to the new tokens and resolves identity if possible
// Resolver failures are only logged: tokens are valid, identity is just unknown yet
func (s *Store) authenticate(ctx context.Context, event string, pair models.TokenPair) {
	var identity *models.Identity

	if s.resolver != nil {
		resolved, err := s.resolver.Resolve(ctx, pair)
		if err != nil {
			s.logger.Warn("Failed to resolve identity", "kind", apperrors.Kind(err), "error", err)
		} else {
			identity = &resolved
		}
	}

	s.transition(event, func(st *State) {
		s.tokens = pair
		st.Identity = identity
		if identity != nil {
			st.Phase = PhaseAuthenticated
		} else {
			st.Phase = PhasePendingValidation
		}
	})
}

func (s *Store) fail(event string, message string, err error) {
	s.transition(event, func(st *State) {
		st.Error = message
		st.Err = err
	})
}

// drop removes stored tokens and moves session to anonymous
func (s *Store) drop(ctx context.Context, event string) {
	if err := storage.ClearTokens(ctx, s.storage); err != nil {
		s.logger.Warn("Failed to remove stored tokens", "error", err)
	}

	s.transition(event, func(st *State) {
		s.tokens = models.TokenPair{}
		st.Phase = PhaseAnonymous
		st.Identity = nil
		st.Error = ""
		st.Err = nil
	})
}

// transition applies fn to state under lock and publishes the new snapshot
func (s *Store) transition(event string, fn func(st *State)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.state)
	s.state.Version++
	snapshot := s.state.clone()

	for ch := range s.subscribers {
		// Replace stale snapshot the subscriber has not read yet
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snapshot:
		default:
		}
	}

	s.logger.Debug("Session transition",
		"event", event,
		"phase", snapshot.Phase.String(),
		"version", snapshot.Version,
		"error", apperrors.Kind(snapshot.Err),
	)
}

func tokenRejected(err error) bool {
	return errors.Is(err, apperrors.ErrInvalidCredentials) || errors.Is(err, apperrors.ErrTokenExpired)
}
