package sessionfakes

import (
	"context"
	"sync"

	"github.com/arghyam/jalsoochak-session/authapi"
	"github.com/arghyam/jalsoochak-session/internal/errors"
	"github.com/arghyam/jalsoochak-session/session"
)

var _ session.AuthAPI = (*FakeAuthAPI)(nil)

// FakeAuthAPI is a scriptable AuthAPI for tests. Stub the *Fn fields; the
// counters record how often each endpoint was hit.
type FakeAuthAPI struct {
	lock sync.Mutex

	LoginFn   func(identifier, password string) (*authapi.TokenResponse, error)
	RefreshFn func(refreshToken string) (*authapi.TokenResponse, error)
	LogoutFn  func(refreshToken string) error

	LoginCalls   int
	RefreshCalls int
	LogoutCalls  int
}

func NewFakeAuthAPI() *FakeAuthAPI {
	return &FakeAuthAPI{}
}

func (f *FakeAuthAPI) Login(_ context.Context, identifier, password string) (*authapi.TokenResponse, error) {
	f.lock.Lock()
	f.LoginCalls++
	fn := f.LoginFn
	f.lock.Unlock()

	if fn == nil {
		return nil, errors.ErrInvalidCredentials
	}
	return fn(identifier, password)
}

func (f *FakeAuthAPI) Refresh(_ context.Context, refreshToken string) (*authapi.TokenResponse, error) {
	f.lock.Lock()
	f.RefreshCalls++
	fn := f.RefreshFn
	f.lock.Unlock()

	if fn == nil {
		return nil, errors.ErrRefreshFailed
	}
	return fn(refreshToken)
}

func (f *FakeAuthAPI) Logout(_ context.Context, refreshToken string) error {
	f.lock.Lock()
	f.LogoutCalls++
	fn := f.LogoutFn
	f.lock.Unlock()

	if fn == nil {
		return nil
	}
	return fn(refreshToken)
}

// Counts returns the call counters atomically.
func (f *FakeAuthAPI) Counts() (login, refresh, logout int) {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.LoginCalls, f.RefreshCalls, f.LogoutCalls
}
