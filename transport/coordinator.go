package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	apperrors "github.com/arghyam/jalsoochak-session/internal/errors"
)

// Refresher is the slice of the session store the coordinator drives.
type Refresher interface {
	Refresh(ctx context.Context) error
	SetSessionExpired()
}

type coordinatorState int

const (
	stateIdle coordinatorState = iota
	stateRefreshing
)

const defaultRefreshTimeout = 30 * time.Second

// attempt is one refresh in flight. Waiters block on done; err is written
// once, before done closes.
type attempt struct {
	done chan struct{}
	err  error
}

// Coordinator serialises token refreshes: however many callers observe a
// 401 at once, at most one refresh call is issued and every caller is
// settled by that same call's outcome. The two states are explicit - Idle
// and Refreshing with a shared pending attempt - and the join-or-begin
// decision is a single check-then-set under the mutex.
type Coordinator struct {
	refresher      Refresher
	refreshTimeout time.Duration

	mu      sync.Mutex
	state   coordinatorState
	pending *attempt
}

// CoordinatorOption defines a function type to modify the Coordinator.
type CoordinatorOption func(*Coordinator)

// WithRefreshTimeout bounds how long one refresh call may take.
func WithRefreshTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		c.refreshTimeout = d
	}
}

// NewCoordinator initialises a refresh coordinator.
func NewCoordinator(refresher Refresher, options ...CoordinatorOption) (*Coordinator, error) {
	if refresher == nil {
		return nil, errors.New("[NewCoordinator] refresher is required")
	}
	c := &Coordinator{
		refresher:      refresher,
		refreshTimeout: defaultRefreshTimeout,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Await joins the in-flight refresh, starting one if the coordinator is
// idle, and blocks until it settles. Returns nil when the refresh
// succeeded and the store holds fresh tokens; returns the shared refresh
// failure otherwise. A caller whose context ends stops waiting, but the
// refresh itself keeps running for the other waiters.
func (c *Coordinator) Await(ctx context.Context) error {
	c.mu.Lock()
	if c.state == stateIdle {
		c.state = stateRefreshing
		c.pending = &attempt{done: make(chan struct{})}
		go c.run(c.pending)
	}
	pending := c.pending
	c.mu.Unlock()

	select {
	case <-pending.done:
		return pending.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run performs the single refresh call. The refresh runs on its own
// timeout-bounded context, detached from any individual waiter. The
// transition back to Idle is unconditional once the call settles,
// regardless of what the waiting requests go on to do.
func (c *Coordinator) run(a *attempt) {
	ctx, cancel := context.WithTimeout(context.Background(), c.refreshTimeout)
	defer cancel()

	if err := c.refresher.Refresh(ctx); err != nil {
		c.refresher.SetSessionExpired()
		a.err = fmt.Errorf("%w: %w", apperrors.ErrRefreshFailed, err)
	}

	// Back to Idle before releasing the waiters: anyone arriving after this
	// point starts a fresh attempt instead of joining a settled one.
	c.mu.Lock()
	c.state = stateIdle
	c.pending = nil
	c.mu.Unlock()

	close(a.done)
}
