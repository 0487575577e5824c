// Package session holds the client-side authentication state for the
// JalSoochak dashboard: the current token, the user derived from it, and
// the expired-session flag the refresh coordinator raises.
package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/arghyam/jalsoochak-session/authapi"
	"github.com/arghyam/jalsoochak-session/identity"
	apperrors "github.com/arghyam/jalsoochak-session/internal/errors"
	"github.com/arghyam/jalsoochak-session/internal/utils"
	"github.com/arghyam/jalsoochak-session/token"
)

// AuthAPI is the slice of the auth client the store depends on.
type AuthAPI interface {
	Login(ctx context.Context, identifier, password string) (*authapi.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*authapi.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Credentials are what the login form collects. The identifier is a phone
// number for field users and an email for admins.
type Credentials struct {
	Identifier string
	Password   string
}

// Store is the session state. All mutation goes through Login, Logout,
// Restore, SetSessionExpired, and AdoptTokenResponse; the user field is
// only ever derived from the token, never set independently.
type Store struct {
	authAPI AuthAPI
	repo    TokenRepo
	logger  zerolog.Logger

	mu            sync.RWMutex
	token         string
	refreshToken  string
	user          *identity.UserIdentity
	authenticated bool
	expired       bool
	lastErr       string
}

// StoreOption defines a function type to modify the Store instance.
type StoreOption func(*Store)

// WithLogger overrides the store's logger.
func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore initialises a session store with required dependencies.
func NewStore(authAPI AuthAPI, repo TokenRepo, options ...StoreOption) (*Store, error) {
	if authAPI == nil {
		return nil, errors.New("[NewStore] auth API is required")
	}
	if repo == nil {
		return nil, errors.New("[NewStore] token repo is required")
	}

	store := &Store{
		authAPI: authAPI,
		repo:    repo,
		logger:  log.Logger,
	}
	for _, opt := range options {
		opt(store)
	}
	return store, nil
}

// Login exchanges credentials for tokens and installs the resulting
// session. On any failure the session is cleared, the error recorded, and
// the error returned so the login form can react.
func (s *Store) Login(ctx context.Context, creds Credentials) (*identity.UserIdentity, error) {
	tr, err := s.authAPI.Login(ctx, creds.Identifier, creds.Password)
	if err != nil {
		s.failLogin(err)
		return nil, errors.Wrap(err, "[Store.Login]")
	}

	user, err := s.adoptTokenResponse(tr)
	if err != nil {
		s.failLogin(err)
		return nil, errors.Wrap(err, "[Store.Login]")
	}

	return user, nil
}

// AdoptTokenResponse commits a validated token response: the shared path
// for login and refresh. The user is derived from the ID token's claims
// with the response's person_type/tenant_id fields applied on top, and the
// access token becomes the session's bearer token.
func (s *Store) AdoptTokenResponse(tr *authapi.TokenResponse) error {
	_, err := s.adoptTokenResponse(tr)
	return err
}

// adoptTokenResponse commits the response and returns the user it derived,
// so Login can hand back the identity it just installed without re-reading
// state that a concurrent Logout may have cleared in the meantime.
func (s *Store) adoptTokenResponse(tr *authapi.TokenResponse) (*identity.UserIdentity, error) {
	if err := tr.Validate(); err != nil {
		return nil, err
	}

	claims, ok := token.Decode(utils.Value(tr.IDToken))
	if !ok {
		return nil, apperrors.ErrMissingUserInfo
	}

	user, err := identity.FromClaims(claims)
	if err != nil {
		return nil, err
	}
	user = user.WithOverrides(tr.PersonType, tr.TenantID)

	accessToken := utils.Value(tr.AccessToken)

	s.mu.Lock()
	s.token = accessToken
	s.refreshToken = utils.Value(tr.RefreshToken)
	s.user = user
	s.authenticated = true
	s.expired = false
	s.lastErr = ""
	s.mu.Unlock()

	if err := s.repo.Save(accessToken); err != nil {
		// The in-memory session is already live; a persistence failure
		// only costs the next restart its silent restore.
		s.logger.Warn().Err(err).Msg("failed to persist session token")
	}

	derived := *user
	return &derived, nil
}

// Logout clears the session synchronously, then revokes the refresh token
// server-side on a best-effort basis. Idempotent.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	refreshToken := s.refreshToken
	s.clearLocked()
	s.mu.Unlock()

	if err := s.repo.Clear(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to clear persisted token")
	}

	if refreshToken == "" {
		return
	}
	if err := s.authAPI.Logout(ctx, refreshToken); err != nil {
		s.logger.Warn().Err(err).Msg("server-side logout failed")
	}
}

// Restore rehydrates the session from the persisted token. A missing token
// is a no-op; an undecodable or expired one is a silent logout, not an
// error. Idempotent; called once at startup.
func (s *Store) Restore() {
	persisted, err := s.repo.Load()
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load persisted token")
		return
	}
	if persisted == "" {
		return
	}

	claims, ok := token.Decode(persisted)
	if !ok || claims.Expired() {
		s.logger.Debug().Msg("persisted token invalid or expired; clearing session")
		s.silentLogout()
		return
	}

	user, err := identity.FromClaims(claims)
	if err != nil {
		s.silentLogout()
		return
	}

	s.mu.Lock()
	s.token = persisted
	s.user = user
	s.authenticated = true
	s.expired = false
	s.lastErr = ""
	s.mu.Unlock()
}

// SetSessionExpired flags the session as unrenewable. The token and user
// are left in place; clearing them is the UI's call when it routes the
// user back to login.
func (s *Store) SetSessionExpired() {
	s.mu.Lock()
	s.expired = true
	s.mu.Unlock()
}

// Refresh exchanges the current refresh token for new tokens and commits
// them. Used by the refresh coordinator; not called directly by UIs.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.RLock()
	refreshToken := s.refreshToken
	s.mu.RUnlock()

	if refreshToken == "" {
		return apperrors.ErrNoToken
	}

	tr, err := s.authAPI.Refresh(ctx, refreshToken)
	if err != nil {
		return errors.Wrap(err, "[Store.Refresh]")
	}
	if err := s.AdoptTokenResponse(tr); err != nil {
		return errors.Wrap(err, "[Store.Refresh]")
	}
	return nil
}

func (s *Store) failLogin(cause error) {
	s.mu.Lock()
	s.clearLocked()
	s.lastErr = cause.Error()
	s.mu.Unlock()

	// The persisted token mirrors the session token: a failed login clears
	// both, or a restart would resurrect the session just cleared.
	if err := s.repo.Clear(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to clear persisted token")
	}
}

func (s *Store) silentLogout() {
	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()
	if err := s.repo.Clear(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to clear persisted token")
	}
}

// clearLocked resets all session fields. Callers hold s.mu.
func (s *Store) clearLocked() {
	s.token = ""
	s.refreshToken = ""
	s.user = nil
	s.authenticated = false
	s.expired = false
	s.lastErr = ""
}

// Token returns the current bearer token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the current user, or nil when logged out.
func (s *Store) User() *identity.UserIdentity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	user := *s.user
	return &user
}

// IsAuthenticated reports whether a decoded, non-expired token is installed.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// SessionExpired reports whether a refresh attempt has definitively
// failed. Distinct from "never logged in".
func (s *Store) SessionExpired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expired
}

// LastError returns the message recorded by the most recent failed login.
func (s *Store) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}
