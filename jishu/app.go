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
	"io"
	"os"
	"path/filepath"

	"github.com/gravitational/trace"

	"github.com/jishu-edu/jishu-client/api"
	"github.com/jishu-edu/jishu-client/common/auth/state"
	"github.com/jishu-edu/jishu-client/lib"
	"github.com/jishu-edu/jishu-client/lib/logger"
)

const defaultStorageDirName = ".jishu"

// App holds what the commands share. The backend client is built on first use so that
// commands like version work without a reachable configuration.
type App struct {
	conf *CLI
	out  io.Writer

	store   state.Store
	client  *api.Client
	session *api.Session
}

// NewApp sets up logging and returns an App writing command output to out.
func NewApp(conf *CLI, out io.Writer) (*App, error) {
	logConf := logger.Config{Severity: conf.LogSeverity, Output: conf.LogOutput}
	if conf.Debug {
		logConf.Severity = "debug"
	}
	if err := logger.Setup(logConf); err != nil {
		return nil, trace.Wrap(err)
	}
	return &App{conf: conf, out: out}, nil
}

// Context returns the context commands run in.
func (a *App) Context() context.Context {
	return logger.SetField(context.Background(), "app", appName)
}

// APIConfig returns the checked backend configuration.
func (a *App) APIConfig() (api.Config, error) {
	u, err := lib.AddrToURL(a.conf.APIURL)
	if err != nil {
		return api.Config{}, trace.Wrap(err)
	}
	conf := api.Config{URL: u.String(), Timeout: a.conf.APITimeout}
	return conf, trace.Wrap(conf.CheckAndSetDefaults())
}

// Store returns the session store.
func (a *App) Store() (state.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	if a.conf.Ephemeral {
		a.store = state.NewMemoryStore()
		return a.store, nil
	}

	dir := a.conf.StorageDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, trace.ConvertSystemError(err)
		}
		dir = filepath.Join(home, defaultStorageDirName)
	}
	store, err := state.NewDiskvStore(dir)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	logger.Standard().WithField("dir", dir).Debug("Using session storage")
	a.store = store
	return a.store, nil
}

// Client returns the backend client.
func (a *App) Client() (*api.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	conf, err := a.APIConfig()
	if err != nil {
		return nil, trace.Wrap(err)
	}
	store, err := a.Store()
	if err != nil {
		return nil, trace.Wrap(err)
	}
	client, err := api.NewClient(api.ClientConfig{Config: conf, Store: store})
	if err != nil {
		return nil, trace.Wrap(err)
	}
	a.client = client
	return a.client, nil
}

// Session returns the session service.
func (a *App) Session() (*api.Session, error) {
	if a.session != nil {
		return a.session, nil
	}
	client, err := a.Client()
	if err != nil {
		return nil, trace.Wrap(err)
	}
	session, err := api.NewSession(client, api.SessionConfig{})
	if err != nil {
		return nil, trace.Wrap(err)
	}
	a.session = session
	return a.session, nil
}

// Close releases what the commands opened.
func (a *App) Close() {
	if a.session != nil {
		if err := a.session.Close(context.Background()); err != nil {
			logger.Standard().WithError(err).Debug("Failed to close the session")
		}
	}
}
