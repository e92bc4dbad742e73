/*
Copyright 2026 The Jishu Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package auth

import (
	"context"
	"sync"
	"time"

	"github.com/gravitational/trace"

	"github.com/jishu-edu/jishu-client/common/auth/oauth"
	"github.com/jishu-edu/jishu-client/common/auth/state"
	"github.com/jishu-edu/jishu-client/lib/logger"
)

const defaultRefreshTimeout = 30 * time.Second

// RefreshResult labels the outcome of a Refresh call.
type RefreshResult string

const (
	// RefreshSucceeded means the refresh endpoint issued a new access token.
	RefreshSucceeded RefreshResult = "success"
	// RefreshFailed means the refresh call or storing its result failed.
	RefreshFailed RefreshResult = "failure"
	// RefreshNoToken means there was no refresh token to exchange.
	RefreshNoToken RefreshResult = "no_refresh_token"
	// RefreshReused means a cycle that finished meanwhile had already replaced the token.
	RefreshReused RefreshResult = "reused"
)

// CoordinatorConfig configures a Coordinator.
type CoordinatorConfig struct {
	// Store holds the session.
	Store state.Store
	// Refresher performs the refresh network call.
	Refresher oauth.Refresher
	// Timeout bounds a single refresh network call.
	Timeout time.Duration
	// OnRefresh is called once per Refresh call that did not join a running cycle.
	OnRefresh func(RefreshResult)
}

// CheckAndSetDefaults validates the config and fills in defaults.
func (c *CoordinatorConfig) CheckAndSetDefaults() error {
	if c.Store == nil {
		return trace.BadParameter("missing credential store")
	}
	if c.Refresher == nil {
		return trace.BadParameter("missing refresher")
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultRefreshTimeout
	}
	if c.OnRefresh == nil {
		c.OnRefresh = func(RefreshResult) {}
	}
	return nil
}

// Coordinator makes sure that at most one refresh network call is in flight.
//
// The first caller to need a refresh owns the cycle and performs the call. Callers
// arriving while the cycle runs are queued and receive the owner's outcome in the
// order they arrived. The new tokens are stored, or the session is evicted, before the
// cycle ends.
type Coordinator struct {
	store     state.Store
	refresher oauth.Refresher
	timeout   time.Duration
	onRefresh func(RefreshResult)

	mu    sync.Mutex // protects the below fields
	cycle *refreshCycle
}

type refreshOutcome struct {
	token string
	err   error
}

type refreshCycle struct {
	waiters []chan refreshOutcome
}

// NewCoordinator returns an idle Coordinator.
func NewCoordinator(conf CoordinatorConfig) (*Coordinator, error) {
	if err := conf.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	return &Coordinator{
		store:     conf.Store,
		refresher: conf.Refresher,
		timeout:   conf.Timeout,
		onRefresh: conf.OnRefresh,
	}, nil
}

// Refreshing reports whether a refresh cycle is in flight.
func (c *Coordinator) Refreshing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cycle != nil
}

// Refresh returns an access token to replace staleToken, the token a request was
// rejected with. An error means there is no token and the session has been evicted,
// unless the error is ctx's own: a caller whose context ends stops waiting and the
// cycle goes on without it.
func (c *Coordinator) Refresh(ctx context.Context, staleToken string) (string, error) {
	log := logger.Get(ctx)

	c.mu.Lock()
	if cycle := c.cycle; cycle != nil {
		ch := make(chan refreshOutcome, 1)
		cycle.waiters = append(cycle.waiters, ch)
		c.mu.Unlock()

		log.Debug("Token refresh is in progress, waiting for it")
		select {
		case outcome := <-ch:
			return outcome.token, trace.Wrap(outcome.err)
		case <-ctx.Done():
			return "", trace.Wrap(ctx.Err())
		}
	}

	current, err := c.store.Get(ctx, state.AccessTokenKey)
	if err != nil {
		err = c.fail(ctx, RefreshFailed, err)
		c.mu.Unlock()
		return "", trace.Wrap(err)
	}
	if current != "" && current != staleToken {
		c.mu.Unlock()
		c.onRefresh(RefreshReused)
		log.Debug("Access token was refreshed meanwhile, reusing it")
		return current, nil
	}

	cycle := &refreshCycle{}
	c.cycle = cycle
	c.mu.Unlock()

	token, err := c.run(ctx)

	c.mu.Lock()
	waiters := cycle.waiters
	c.cycle = nil
	c.mu.Unlock()

	outcome := refreshOutcome{token: token, err: err}
	for _, ch := range waiters {
		ch <- outcome
	}
	if len(waiters) > 0 {
		log.WithField("waiters", len(waiters)).Debug("Resumed queued requests")
	}

	return token, trace.Wrap(err)
}

// run performs the refresh network call and stores its outcome.
func (c *Coordinator) run(ctx context.Context) (string, error) {
	log := logger.Get(ctx)

	// The cycle is shared with queued callers, so the owner's cancellation must not abort it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	refreshToken, err := c.store.Get(ctx, state.RefreshTokenKey)
	if err != nil {
		return "", c.fail(ctx, RefreshFailed, err)
	}
	if refreshToken == "" {
		return "", c.fail(ctx, RefreshNoToken, trace.NotFound("no refresh token is stored"))
	}

	tokens, err := c.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		return "", c.fail(ctx, RefreshFailed, err)
	}
	if err := state.SaveTokens(ctx, c.store, tokens); err != nil {
		return "", c.fail(ctx, RefreshFailed, err)
	}

	c.onRefresh(RefreshSucceeded)
	log.Info("Access token refreshed")
	return tokens.AccessToken, nil
}

// fail evicts the session and returns cause.
func (c *Coordinator) fail(ctx context.Context, result RefreshResult, cause error) error {
	log := logger.Get(ctx)

	c.onRefresh(result)
	log.WithError(cause).Warn("Token refresh failed, evicting the session")
	if err := state.Clear(ctx, c.store); err != nil {
		log.WithError(err).Error("Failed to evict the session")
	}
	return trace.Wrap(cause)
}

// waiting returns the number of queued callers.
func (c *Coordinator) waiting() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cycle == nil {
		return 0
	}
	return len(c.cycle.waiters)
}
