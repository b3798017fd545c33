package service

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/yndnr/authsession-go/internal/core/domain"
	"github.com/yndnr/authsession-go/internal/telemetry/logger"
	"github.com/yndnr/authsession-go/internal/telemetry/metric"
)

// AuthClient is the backend surface the session drives.
type AuthClient interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error)
	Register(ctx context.Context, data domain.RegistrationData) (*domain.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.AuthResult, error)
	Logout(ctx context.Context) error
}

// TokenStore persists the token pair.
type TokenStore interface {
	Save(ctx context.Context, pair domain.TokenPair) error
	Get(ctx context.Context) (*domain.TokenPair, error)
	AccessToken(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// TokenChecker decides whether an access token is still usable.
type TokenChecker interface {
	IsExpired(token string) bool
}

// Listener receives a copy of the state after every change.
// A listener may read the session but must not mutate it.
type Listener func(domain.SessionState)

// Operation names used for logging and metrics.
const (
	opLogin    = "login"
	opRegister = "register"
	opRefresh  = "refresh"
	opLogout   = "logout"
)

// Fallback messages when a failure carries no text of its own.
const (
	loginFailedMessage    = "Login failed"
	registerFailedMessage = "Registration failed"
)

// Session is the client session state machine.
//
// State changes are serialized; network calls run without the lock held,
// so concurrent operations are applied in the order they complete.
type Session struct {
	client  AuthClient
	store   TokenStore
	checker TokenChecker
	logger  logger.Logger
	metrics *metric.Registry

	singleFlight bool
	refreshGroup singleflight.Group

	// notifyMu orders listener callbacks the same way as state changes.
	notifyMu sync.Mutex

	mu        sync.Mutex
	state     domain.SessionState
	listeners map[uint64]Listener
	nextID    uint64
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records operation outcomes in r.
func WithMetrics(r *metric.Registry) Option {
	return func(s *Session) { s.metrics = r }
}

// WithSingleFlight controls whether concurrent Refresh calls share one
// backend round trip. Enabled by default.
func WithSingleFlight(enabled bool) Option {
	return func(s *Session) { s.singleFlight = enabled }
}

// NewSession creates an anonymous session.
func NewSession(client AuthClient, store TokenStore, checker TokenChecker, opts ...Option) *Session {
	s := &Session{
		client:       client,
		store:        store,
		checker:      checker,
		logger:       logger.Nop(),
		singleFlight: true,
		state:        domain.InitialState(),
		listeners:    make(map[uint64]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "session")
	return s
}

// State returns a copy of the current state.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers fn for state changes and returns a function that
// removes it. fn is not called with the current state.
func (s *Session) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// update applies fn under the lock and then notifies listeners.
func (s *Session) update(fn func(st *domain.SessionState)) domain.SessionState {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	fn(&s.state)
	snapshot := s.state.Clone()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snapshot.Clone())
	}
	return snapshot
}

// ============================================================================
// Login / Register
// ============================================================================

// Login authenticates with credentials.
//
// It never returns an error: a failure is published in State().Error and
// the session goes back to anonymous.
func (s *Session) Login(ctx context.Context, creds domain.Credentials) domain.SessionState {
	ctx = logger.WithOperation(ctx, opLogin)
	s.beginAuthentication()
	result, err := s.client.Login(ctx, creds)
	return s.completeAuthentication(ctx, opLogin, result, err, loginFailedMessage)
}

// Register creates an account and signs it in. Failure handling matches Login.
func (s *Session) Register(ctx context.Context, data domain.RegistrationData) domain.SessionState {
	ctx = logger.WithOperation(ctx, opRegister)
	s.beginAuthentication()
	result, err := s.client.Register(ctx, data)
	return s.completeAuthentication(ctx, opRegister, result, err, registerFailedMessage)
}

func (s *Session) beginAuthentication() {
	s.update(func(st *domain.SessionState) {
		st.Phase = domain.PhaseAuthenticating
		st.IsLoading = true
		st.Error = ""
	})
}

func (s *Session) completeAuthentication(ctx context.Context, op string, result *domain.AuthResult, err error, fallback string) domain.SessionState {
	if err == nil {
		err = s.store.Save(ctx, result.Tokens)
	}
	s.metrics.ObserveOperation(op, err)

	if err != nil {
		msg := domain.UserMessage(err)
		if msg == "" {
			msg = fallback
		}
		s.logger.Info(op+" failed", "error", err)
		return s.update(func(st *domain.SessionState) {
			st.Phase = domain.PhaseAnonymous
			st.IsLoading = false
			st.IsAuthenticated = false
			st.Error = msg
		})
	}

	s.logger.Info(op+" succeeded", "user_id", result.User.ID)
	return s.update(func(st *domain.SessionState) {
		authenticated(st, result)
		st.IsLoading = false
	})
}

func authenticated(st *domain.SessionState, result *domain.AuthResult) {
	identity := result.User
	st.Phase = domain.PhaseAuthenticated
	st.Identity = &identity
	st.Tokens = result.Tokens.Clone()
	st.IsAuthenticated = true
	st.Error = ""
}

// ============================================================================
// Refresh
// ============================================================================

// Refresh trades the held refresh token for a new pair.
//
// Without a refresh token it fails with domain.ErrNoRefreshToken before any
// network call. A failed attempt clears identity and tokens from state and
// store; ctx ending first leaves them untouched.
// When single-flight is on, concurrent callers share one attempt and its
// outcome; a caller whose ctx ends early stops waiting without cancelling
// the shared attempt.
func (s *Session) Refresh(ctx context.Context) error {
	if !s.singleFlight {
		return s.refresh(ctx)
	}

	ch := s.refreshGroup.DoChan(opRefresh, func() (any, error) {
		return nil, s.refresh(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Shared {
			s.metrics.ObserveRefreshShared()
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) refresh(ctx context.Context) error {
	ctx = logger.WithOperation(ctx, opRefresh)
	refreshToken := s.State().RefreshToken()
	if refreshToken == "" {
		s.failRefresh(ctx, domain.ErrNoRefreshToken)
		return domain.ErrNoRefreshToken
	}

	var prev domain.Phase
	s.update(func(st *domain.SessionState) {
		prev = st.Phase
		st.Phase = domain.PhaseRefreshing
	})

	result, err := s.client.Refresh(ctx, refreshToken)
	if err == nil {
		err = s.store.Save(ctx, result.Tokens)
	}
	if err != nil && isContextError(ctx, err) {
		// The caller gave up; the held session stays as it was.
		s.logger.Debug("refresh abandoned", "error", err)
		s.update(func(st *domain.SessionState) {
			if st.Phase == domain.PhaseRefreshing {
				st.Phase = prev
			}
		})
		return err
	}
	if err != nil {
		s.failRefresh(ctx, err)
		return err
	}

	s.metrics.ObserveOperation(opRefresh, nil)
	s.logger.Debug("refresh succeeded", "user_id", result.User.ID)
	s.update(func(st *domain.SessionState) {
		authenticated(st, result)
	})
	return nil
}

// isContextError reports whether err comes from ctx ending rather than
// from the backend answering.
func isContextError(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (s *Session) failRefresh(ctx context.Context, cause error) {
	s.metrics.ObserveOperation(opRefresh, cause)
	s.logger.Info("refresh failed", "error", cause)
	if err := s.store.Clear(ctx); err != nil {
		s.logger.Warn("clear tokens after failed refresh", "error", err)
	}
	s.update(func(st *domain.SessionState) {
		st.Phase = domain.PhaseAnonymous
		st.Identity = nil
		st.Tokens = nil
		st.IsAuthenticated = false
	})
}

// ============================================================================
// Logout and local mutations
// ============================================================================

// Logout ends the session. The backend is told on a best-effort basis;
// local state and the store are cleared whatever it answers.
func (s *Session) Logout(ctx context.Context) {
	ctx = logger.WithOperation(ctx, opLogout)
	s.update(func(st *domain.SessionState) {
		st.Phase = domain.PhaseLoggingOut
	})

	err := s.client.Logout(ctx)
	s.metrics.ObserveOperation(opLogout, err)
	if err != nil {
		s.logger.Warn("logout request failed", "error", err)
	}
	if err := s.store.Clear(ctx); err != nil {
		s.logger.Warn("clear tokens on logout", "error", err)
	}

	s.update(func(st *domain.SessionState) {
		*st = domain.InitialState()
	})
}

// ClearAuth drops identity, tokens and error from state and store without
// contacting the backend.
func (s *Session) ClearAuth(ctx context.Context) {
	if err := s.store.Clear(ctx); err != nil {
		s.logger.Warn("clear tokens", "error", err)
	}
	s.update(func(st *domain.SessionState) {
		st.Phase = domain.PhaseAnonymous
		st.Identity = nil
		st.Tokens = nil
		st.IsAuthenticated = false
		st.Error = ""
	})
}

// ClearError removes the published error.
func (s *Session) ClearError() {
	s.update(func(st *domain.SessionState) {
		st.Error = ""
	})
}

// SetTokens replaces the tokens held in state. The store is not touched.
func (s *Session) SetTokens(pair domain.TokenPair) {
	s.update(func(st *domain.SessionState) {
		st.Tokens = pair.Clone()
	})
}

// SetIdentity records the signed-in user. A session holding tokens
// becomes authenticated.
func (s *Session) SetIdentity(identity domain.Identity) {
	s.update(func(st *domain.SessionState) {
		st.Identity = &identity
		if st.HasSession() {
			st.Phase = domain.PhaseAuthenticated
			st.IsAuthenticated = true
		}
	})
}
