// Package transport provides the http.RoundTripper that attaches the
// session's bearer token to outbound requests and coordinates
// refresh-on-401 with single-flight semantics.
//
// Refresh-and-retry needs the request body to be replayable: a 401 on a
// request whose body is spent and has no GetBody is returned to the caller
// as-is, with no refresh attempted. Callers sending streams they want
// retried must set GetBody (the http package does this for bytes and
// strings readers automatically).
package transport

import (
	"context"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SessionState is the slice of the session store the transport reads and
// signals.
type SessionState interface {
	Token() string
	SetSessionExpired()
	Refresh(ctx context.Context) error
}

// Transport wraps a base RoundTripper. Every request gains an
// "Authorization: Bearer <token>" header when the store holds a token;
// requests with no token available are sent as-is and the server rejects
// them appropriately.
//
// A 401 response on a non-auth request triggers at most one refresh
// process-wide (see Coordinator) and one retry of the request with the new
// token. A 401 on the retry is returned untouched.
type Transport struct {
	base        http.RoundTripper
	sessions    SessionState
	coordinator *Coordinator
	authPaths   map[string]bool
	logger      zerolog.Logger
}

var _ http.RoundTripper = (*Transport)(nil)

// TransportOption defines a function type to modify the Transport.
type TransportOption func(*Transport)

// WithBase overrides the underlying RoundTripper (defaults to
// http.DefaultTransport).
func WithBase(base http.RoundTripper) TransportOption {
	return func(t *Transport) {
		t.base = base
	}
}

// WithTransportLogger overrides the transport's logger.
func WithTransportLogger(logger zerolog.Logger) TransportOption {
	return func(t *Transport) {
		t.logger = logger
	}
}

// New initialises the refresh transport. authPaths are the request paths
// of the auth endpoints themselves (login, refresh, logout); 401s on those
// must never enter refresh handling, or refreshing the refresh call would
// recurse forever.
func New(sessions SessionState, coordinator *Coordinator, authPaths []string, options ...TransportOption) (*Transport, error) {
	if sessions == nil {
		return nil, errors.New("[transport.New] session state is required")
	}
	if coordinator == nil {
		return nil, errors.New("[transport.New] coordinator is required")
	}

	pathSet := make(map[string]bool, len(authPaths))
	for _, p := range authPaths {
		pathSet[p] = true
	}

	t := &Transport{
		base:        http.DefaultTransport,
		sessions:    sessions,
		coordinator: coordinator,
		authPaths:   pathSet,
		logger:      log.Logger,
	}
	for _, opt := range options {
		opt(t)
	}
	return t, nil
}

// Client returns an http.Client built on this transport.
func (t *Transport) Client() *http.Client {
	return &http.Client{Transport: t}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	currentToken := t.sessions.Token()

	resp, err := t.base.RoundTrip(withBearer(req, currentToken))
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	if t.authPaths[req.URL.Path] {
		return resp, nil
	}

	if currentToken == "" {
		// Nothing to refresh.
		t.sessions.SetSessionExpired()
		return resp, nil
	}

	if req.Body != nil && req.GetBody == nil {
		// The body is spent and cannot be replayed.
		t.logger.Debug().Str("path", req.URL.Path).Msg("401 on non-replayable request body, skipping refresh")
		return resp, nil
	}

	t.logger.Debug().Str("path", req.URL.Path).Msg("401 received, awaiting token refresh")

	drainAndClose(resp.Body)
	if refreshErr := t.coordinator.Await(req.Context()); refreshErr != nil {
		// The caller sees the refresh failure, not its original 401: "your
		// session could not be renewed" beats a generic auth error.
		return nil, refreshErr
	}

	retry, err := replayableRequest(req)
	if err != nil {
		return nil, err
	}
	return t.base.RoundTrip(withBearer(retry, t.sessions.Token()))
}

// withBearer clones the request and attaches the bearer header. The
// original request is never mutated; an empty token leaves the request
// unauthenticated.
func withBearer(req *http.Request, token string) *http.Request {
	clone := req.Clone(req.Context())
	if token != "" {
		clone.Header.Set("Authorization", "Bearer "+token)
	}
	return clone
}

// replayableRequest rebuilds the request with a fresh body for the retry.
func replayableRequest(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, errors.Wrap(err, "[Transport.RoundTrip] rewinding request body")
		}
		clone.Body = body
	}
	return clone, nil
}

func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
