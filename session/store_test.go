package session_test

import (
	"context"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/arghyam/jalsoochak-session/authapi"
	"github.com/arghyam/jalsoochak-session/identity"
	apperrors "github.com/arghyam/jalsoochak-session/internal/errors"
	"github.com/arghyam/jalsoochak-session/internal/utils"
	"github.com/arghyam/jalsoochak-session/session"
	"github.com/arghyam/jalsoochak-session/session/repofakes"
	"github.com/arghyam/jalsoochak-session/session/sessionfakes"
)

const (
	testIdentifier = "9876543210"
	testPassword   = "pw"
	testUserID     = "u1"
	testTenantID   = "t1"
)

// testFixture holds all test dependencies
type testFixture struct {
	authAPI   *sessionfakes.FakeAuthAPI
	tokenRepo *repofakes.FakeTokenRepo
	store     *session.Store
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	api := sessionfakes.NewFakeAuthAPI()
	repo := repofakes.NewFakeTokenRepo()

	store, err := session.NewStore(api, repo)
	require.NoError(t, err)

	return &testFixture{
		authAPI:   api,
		tokenRepo: repo,
		store:     store,
	}
}

func signToken(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return raw
}

func stateAdminToken(t *testing.T, exp time.Time) string {
	t.Helper()
	return signToken(t, jwtlib.MapClaims{
		"sub":          testUserID,
		"name":         "Asha Patil",
		"phone_number": testIdentifier,
		"exp":          exp.Unix(),
		"roles":        []string{"state_admin"},
	})
}

func tokenResponse(t *testing.T, exp time.Time) *authapi.TokenResponse {
	t.Helper()
	raw := stateAdminToken(t, exp)
	return &authapi.TokenResponse{
		AccessToken:  utils.Ptr(raw),
		RefreshToken: utils.Ptr("refresh-1"),
		IDToken:      utils.Ptr(raw),
		TokenType:    "bearer",
		ExpiresIn:    900,
		PersonType:   "state_admin",
		TenantID:     testTenantID,
	}
}

func TestLoginSuccess(t *testing.T) {
	f := setupTestFixture(t)
	f.authAPI.LoginFn = func(identifier, password string) (*authapi.TokenResponse, error) {
		require.Equal(t, testIdentifier, identifier)
		require.Equal(t, testPassword, password)
		return tokenResponse(t, time.Now().Add(time.Hour)), nil
	}

	user, err := f.store.Login(context.Background(), session.Credentials{
		Identifier: testIdentifier,
		Password:   testPassword,
	})
	require.NoError(t, err)

	require.True(t, f.store.IsAuthenticated())
	require.False(t, f.store.SessionExpired())
	require.Equal(t, identity.RoleStateAdmin, user.Role)
	require.Equal(t, testTenantID, user.TenantID)
	require.Equal(t, testUserID, user.ID)

	// Only the raw token is persisted.
	persisted, err := f.tokenRepo.Load()
	require.NoError(t, err)
	require.Equal(t, f.store.Token(), persisted)
}

func TestLoginRejectedCredentials(t *testing.T) {
	f := setupTestFixture(t)
	f.authAPI.LoginFn = func(string, string) (*authapi.TokenResponse, error) {
		return nil, apperrors.ErrInvalidCredentials
	}

	_, err := f.store.Login(context.Background(), session.Credentials{
		Identifier: testIdentifier,
		Password:   "wrong",
	})
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	require.False(t, f.store.IsAuthenticated())
	require.Nil(t, f.store.User())
	require.Empty(t, f.store.Token())
	require.NotEmpty(t, f.store.LastError())
}

func TestFailedLoginClearsPersistedToken(t *testing.T) {
	f := setupTestFixture(t)
	f.authAPI.LoginFn = func(string, string) (*authapi.TokenResponse, error) {
		return tokenResponse(t, time.Now().Add(time.Hour)), nil
	}
	_, err := f.store.Login(context.Background(), session.Credentials{
		Identifier: testIdentifier,
		Password:   testPassword,
	})
	require.NoError(t, err)

	// A failed re-login clears the persisted token along with the
	// in-memory session.
	f.authAPI.LoginFn = func(string, string) (*authapi.TokenResponse, error) {
		return nil, apperrors.ErrInvalidCredentials
	}
	_, err = f.store.Login(context.Background(), session.Credentials{
		Identifier: testIdentifier,
		Password:   "wrong",
	})
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	persisted, err := f.tokenRepo.Load()
	require.NoError(t, err)
	require.Empty(t, persisted)

	// A restart over the same repo must not resurrect the cleared session.
	restarted, err := session.NewStore(f.authAPI, f.tokenRepo)
	require.NoError(t, err)
	restarted.Restore()
	require.False(t, restarted.IsAuthenticated())
	require.Nil(t, restarted.User())
}

func TestLoginUndecodableIDToken(t *testing.T) {
	f := setupTestFixture(t)
	f.authAPI.LoginFn = func(string, string) (*authapi.TokenResponse, error) {
		return &authapi.TokenResponse{
			AccessToken:  utils.Ptr("not-a-jwt"),
			RefreshToken: utils.Ptr("refresh-1"),
			IDToken:      utils.Ptr("not-a-jwt"),
		}, nil
	}

	_, err := f.store.Login(context.Background(), session.Credentials{
		Identifier: testIdentifier,
		Password:   testPassword,
	})
	require.ErrorIs(t, err, apperrors.ErrMissingUserInfo)
	require.False(t, f.store.IsAuthenticated())
}

func TestLoginReturnsUserDespiteConcurrentLogout(t *testing.T) {
	f := setupTestFixture(t)
	f.authAPI.LoginFn = func(string, string) (*authapi.TokenResponse, error) {
		return tokenResponse(t, time.Now().Add(time.Hour)), nil
	}

	// A logout landing between the commit and the return must not turn a
	// successful login into (nil, nil).
	for i := 0; i < 50; i++ {
		done := make(chan struct{})
		go func() {
			f.store.Logout(context.Background())
			close(done)
		}()

		user, err := f.store.Login(context.Background(), session.Credentials{
			Identifier: testIdentifier,
			Password:   testPassword,
		})
		require.NoError(t, err)
		require.NotNil(t, user)
		require.Equal(t, testUserID, user.ID)
		<-done
	}
}

func TestLoginClearsPriorExpiredFlag(t *testing.T) {
	f := setupTestFixture(t)
	f.store.SetSessionExpired()
	require.True(t, f.store.SessionExpired())

	f.authAPI.LoginFn = func(string, string) (*authapi.TokenResponse, error) {
		return tokenResponse(t, time.Now().Add(time.Hour)), nil
	}
	_, err := f.store.Login(context.Background(), session.Credentials{
		Identifier: testIdentifier,
		Password:   testPassword,
	})
	require.NoError(t, err)
	require.False(t, f.store.SessionExpired())
}

func TestRestoreValidToken(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.tokenRepo.Save(stateAdminToken(t, time.Now().Add(time.Hour))))

	f.store.Restore()
	require.True(t, f.store.IsAuthenticated())
	require.Equal(t, testUserID, f.store.User().ID)
	require.Equal(t, identity.RoleStateAdmin, f.store.User().Role)

	// Idempotent: a second restore yields the same state.
	userBefore := f.store.User()
	f.store.Restore()
	require.True(t, f.store.IsAuthenticated())
	require.Equal(t, userBefore, f.store.User())
}

func TestRestoreExpiredToken(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.tokenRepo.Save(stateAdminToken(t, time.Now().Add(-10*time.Second))))

	f.store.Restore()

	// Silent logout: unauthenticated, no partially populated user, and the
	// stale persisted token is gone.
	require.False(t, f.store.IsAuthenticated())
	require.Nil(t, f.store.User())
	require.Empty(t, f.store.Token())
	persisted, err := f.tokenRepo.Load()
	require.NoError(t, err)
	require.Empty(t, persisted)
}

func TestRestoreMalformedToken(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.tokenRepo.Save("garbage.token"))

	f.store.Restore()
	require.False(t, f.store.IsAuthenticated())
	require.Nil(t, f.store.User())
}

func TestRestoreNothingPersisted(t *testing.T) {
	f := setupTestFixture(t)
	f.store.Restore()
	require.False(t, f.store.IsAuthenticated())
	require.Empty(t, f.store.LastError())
}

func TestLogout(t *testing.T) {
	f := setupTestFixture(t)
	f.authAPI.LoginFn = func(string, string) (*authapi.TokenResponse, error) {
		return tokenResponse(t, time.Now().Add(time.Hour)), nil
	}
	var revoked string
	f.authAPI.LogoutFn = func(refreshToken string) error {
		revoked = refreshToken
		return nil
	}

	_, err := f.store.Login(context.Background(), session.Credentials{
		Identifier: testIdentifier,
		Password:   testPassword,
	})
	require.NoError(t, err)

	f.store.Logout(context.Background())
	require.False(t, f.store.IsAuthenticated())
	require.Nil(t, f.store.User())
	require.Empty(t, f.store.Token())
	require.Equal(t, "refresh-1", revoked)

	persisted, err := f.tokenRepo.Load()
	require.NoError(t, err)
	require.Empty(t, persisted)

	// Logging out again is a no-op, including server-side: there is no
	// refresh token left to revoke.
	f.store.Logout(context.Background())
	require.False(t, f.store.IsAuthenticated())
	_, _, logoutCalls := f.authAPI.Counts()
	require.Equal(t, 1, logoutCalls)
}

func TestSetSessionExpiredLeavesTokenAndUser(t *testing.T) {
	f := setupTestFixture(t)
	f.authAPI.LoginFn = func(string, string) (*authapi.TokenResponse, error) {
		return tokenResponse(t, time.Now().Add(time.Hour)), nil
	}
	_, err := f.store.Login(context.Background(), session.Credentials{
		Identifier: testIdentifier,
		Password:   testPassword,
	})
	require.NoError(t, err)

	f.store.SetSessionExpired()
	require.True(t, f.store.SessionExpired())
	require.NotEmpty(t, f.store.Token())
	require.NotNil(t, f.store.User())
}

func TestRefreshRotatesTokens(t *testing.T) {
	f := setupTestFixture(t)
	f.authAPI.LoginFn = func(string, string) (*authapi.TokenResponse, error) {
		return tokenResponse(t, time.Now().Add(time.Hour)), nil
	}
	_, err := f.store.Login(context.Background(), session.Credentials{
		Identifier: testIdentifier,
		Password:   testPassword,
	})
	require.NoError(t, err)
	oldToken := f.store.Token()

	f.authAPI.RefreshFn = func(refreshToken string) (*authapi.TokenResponse, error) {
		require.Equal(t, "refresh-1", refreshToken)
		tr := tokenResponse(t, time.Now().Add(2*time.Hour))
		tr.RefreshToken = utils.Ptr("refresh-2")
		return tr, nil
	}

	require.NoError(t, f.store.Refresh(context.Background()))
	require.True(t, f.store.IsAuthenticated())
	require.NotEqual(t, oldToken, f.store.Token())
}

func TestRefreshWithoutSession(t *testing.T) {
	f := setupTestFixture(t)
	err := f.store.Refresh(context.Background())
	require.ErrorIs(t, err, apperrors.ErrNoToken)
	_, refreshCalls, _ := f.authAPI.Counts()
	require.Zero(t, refreshCalls)
}

func TestTokenSource(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.store.TokenSource().Token()
	require.ErrorIs(t, err, apperrors.ErrNoToken)

	exp := time.Now().Add(time.Hour)
	f.authAPI.LoginFn = func(string, string) (*authapi.TokenResponse, error) {
		return tokenResponse(t, exp), nil
	}
	_, err = f.store.Login(context.Background(), session.Credentials{
		Identifier: testIdentifier,
		Password:   testPassword,
	})
	require.NoError(t, err)

	tok, err := f.store.TokenSource().Token()
	require.NoError(t, err)
	require.Equal(t, f.store.Token(), tok.AccessToken)
	require.Equal(t, "Bearer", tok.TokenType)
	require.Equal(t, exp.Unix(), tok.Expiry.Unix())
}
