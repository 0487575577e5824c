package idp

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/arghyam/jalsoochak-session/internal/config"
	apperrors "github.com/arghyam/jalsoochak-session/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

const refreshTokenLength = 32

// TokenIssuer signs the stub's HS256 tokens and manages refresh tokens.
type TokenIssuer struct {
	config config.IdpConfig

	lock          sync.Mutex
	refreshTokens map[string]*storedRefreshToken // token -> record
	byUserID      map[string]string              // user ID -> current token
}

type storedRefreshToken struct {
	Token  string
	UserID string
	Iat    time.Time
}

func NewTokenIssuer(cfg config.IdpConfig) *TokenIssuer {
	return &TokenIssuer{
		config:        cfg,
		refreshTokens: make(map[string]*storedRefreshToken),
		byUserID:      make(map[string]string),
	}
}

// IssueAccessToken creates a bearer token carrying the user's full claim
// set, so the client can derive a session from it on restore.
func (ti *TokenIssuer) IssueAccessToken(user *User) (string, error) {
	return ti.sign(user, ti.config.GetAccessTokenExpiry())
}

// IssueIDToken creates the identity token the client decodes for the
// session user. Same claims as the access token, longer lifetime.
func (ti *TokenIssuer) IssueIDToken(user *User) (string, error) {
	return ti.sign(user, ti.config.GetIDTokenExpiry())
}

func (ti *TokenIssuer) sign(user *User, expiry time.Duration) (string, error) {
	claims := jwtlib.MapClaims{
		"iss":          ti.config.GetIdpIssuer(),
		"sub":          user.ID,
		"name":         user.Name,
		"email":        user.Email,
		"phone_number": user.PhoneNumber,
		"tenant_id":    user.TenantID,
		"iat":          NowTimeFunc().Unix(),
		"exp":          NowTimeFunc().Add(expiry).Unix(),
		"jti":          uuid.New().String(),
		"realm_access": map[string]any{
			"roles": user.Roles,
		},
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).
		SignedString([]byte(ti.config.GetIdpSigningSecret()))
	if err != nil {
		return "", errors.Wrap(err, "[TokenIssuer.sign]")
	}
	return signed, nil
}

// VerifyAccessToken parses and verifies a bearer token. The stub IS a
// server, so unlike the client codec it checks the signature and expiry.
func (ti *TokenIssuer) VerifyAccessToken(raw string) (*jwtlib.Token, error) {
	parsed, err := jwtlib.Parse(raw, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(ti.config.GetIdpSigningSecret()), nil
	})
	if err != nil || !parsed.Valid {
		return nil, apperrors.ErrMalformedToken
	}
	return parsed, nil
}

// CreateRefreshToken mints an opaque refresh token, replacing any existing
// token for the user (single refresh token per user).
func (ti *TokenIssuer) CreateRefreshToken(userID string) (string, error) {
	tokenBytes := make([]byte, refreshTokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", errors.Wrap(err, "[TokenIssuer.CreateRefreshToken] rand.Read")
	}
	tokenStr := hex.EncodeToString(tokenBytes)

	ti.lock.Lock()
	defer ti.lock.Unlock()

	if existing, ok := ti.byUserID[userID]; ok {
		delete(ti.refreshTokens, existing)
	}
	ti.refreshTokens[tokenStr] = &storedRefreshToken{
		Token:  tokenStr,
		UserID: userID,
		Iat:    NowTimeFunc(),
	}
	ti.byUserID[userID] = tokenStr
	return tokenStr, nil
}

// ConsumeRefreshToken validates a refresh token and removes it (rotation:
// every refresh token is single use). Returns the owning user ID.
func (ti *TokenIssuer) ConsumeRefreshToken(token string) (string, error) {
	ti.lock.Lock()
	defer ti.lock.Unlock()

	stored, ok := ti.refreshTokens[token]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	delete(ti.refreshTokens, token)
	delete(ti.byUserID, stored.UserID)

	if NowTimeFunc().Sub(stored.Iat) > ti.config.GetRefreshTokenExpiry() {
		return "", apperrors.ErrTokenExpired
	}
	return stored.UserID, nil
}

// RevokeRefreshToken drops a refresh token. Unknown tokens are a no-op:
// logout must be idempotent.
func (ti *TokenIssuer) RevokeRefreshToken(token string) {
	ti.lock.Lock()
	defer ti.lock.Unlock()

	if stored, ok := ti.refreshTokens[token]; ok {
		delete(ti.byUserID, stored.UserID)
		delete(ti.refreshTokens, token)
	}
}
