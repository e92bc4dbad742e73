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

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gravitational/trace"
	"github.com/julienschmidt/httprouter"

	"github.com/jishu-edu/jishu-client/lib/logger"
)

const callbackPath = "/callback"

// CallbackServer receives the OAuth redirect on a loopback address.
type CallbackServer struct {
	srv      *http.Server
	listener net.Listener
	state    string

	codes     chan string
	done      chan struct{}
	closeOnce sync.Once
}

// NewCallbackServer listens on addr and accepts a single redirect carrying state.
func NewCallbackServer(addr, state string) (*CallbackServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, trace.ConvertSystemError(err)
	}

	router := httprouter.New()
	s := &CallbackServer{
		srv:      &http.Server{Handler: router},
		listener: listener,
		state:    state,
		codes:    make(chan string, 1),
		done:     make(chan struct{}),
	}
	router.GET(callbackPath, s.processCallback)
	return s, nil
}

// RedirectURL is the URL the provider must redirect to.
func (s *CallbackServer) RedirectURL() string {
	return fmt.Sprintf("http://%s%s", s.listener.Addr(), callbackPath)
}

// Start serves in the background.
func (s *CallbackServer) Start() {
	go func() {
		if err := s.srv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Standard().WithError(err).Error("Callback server failed")
		}
		s.stop()
	}()
}

// Wait returns the authorization code once the redirect arrives.
func (s *CallbackServer) Wait(ctx context.Context) (string, error) {
	select {
	case code := <-s.codes:
		return code, nil
	case <-s.done:
		return "", trace.ConnectionProblem(nil, "callback server stopped before the sign-in completed")
	case <-ctx.Done():
		return "", trace.Wrap(ctx.Err())
	}
}

// Shutdown stops the server gracefully.
func (s *CallbackServer) Shutdown(ctx context.Context) error {
	defer s.stop()
	return trace.Wrap(s.srv.Shutdown(ctx))
}

// Close stops the server immediately.
func (s *CallbackServer) Close() {
	s.srv.Close()
	s.stop()
}

func (s *CallbackServer) stop() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *CallbackServer) processCallback(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	log := logger.Get(r.Context())
	query := r.URL.Query()

	if query.Get("state") != s.state {
		log.Warn("Received an OAuth redirect with an unexpected state")
		http.Error(rw, "Unexpected state parameter", http.StatusBadRequest)
		return
	}
	if reason := query.Get("error"); reason != "" {
		log.WithField("error", reason).Warn("Sign-in was not authorized")
		http.Error(rw, "Sign-in was not authorized: "+reason, http.StatusUnauthorized)
		s.stop()
		return
	}
	code := query.Get("code")
	if code == "" {
		http.Error(rw, "Missing code parameter", http.StatusBadRequest)
		return
	}

	select {
	case s.codes <- code:
		fmt.Fprintln(rw, "Signed in to Jishu. You can close this window.")
	default:
		http.Error(rw, "Sign-in already completed", http.StatusConflict)
	}
}
