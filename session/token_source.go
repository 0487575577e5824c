package session

import (
	"time"

	"golang.org/x/oauth2"

	apperrors "github.com/arghyam/jalsoochak-session/internal/errors"
	"github.com/arghyam/jalsoochak-session/token"
)

// TokenSource exposes the store as an oauth2.TokenSource so it plugs into
// libraries that expect one. The returned source reads the live session on
// every call; it never triggers a refresh itself (that is the transport's
// job).
func (s *Store) TokenSource() oauth2.TokenSource {
	return storeTokenSource{store: s}
}

type storeTokenSource struct {
	store *Store
}

func (ts storeTokenSource) Token() (*oauth2.Token, error) {
	s := ts.store

	s.mu.RLock()
	raw := s.token
	refreshToken := s.refreshToken
	s.mu.RUnlock()

	if raw == "" {
		return nil, apperrors.ErrNoToken
	}

	t := &oauth2.Token{
		AccessToken:  raw,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}
	if claims, ok := token.Decode(raw); ok && claims.Exp != 0 {
		t.Expiry = time.Unix(claims.Exp, 0)
	}
	return t, nil
}
