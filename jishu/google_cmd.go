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
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gravitational/trace"

	"github.com/jishu-edu/jishu-client/api"
	"github.com/jishu-edu/jishu-client/lib"
)

const callbackShutdownTimeout = 5 * time.Second

// GoogleLoginCmd signs in with a Google account
type GoogleLoginCmd struct {
	// Listen is the loopback address receiving the OAuth redirect
	Listen string `help:"Loopback address receiving the OAuth redirect" default:"127.0.0.1:0"`

	// Timeout bounds the wait for the browser sign-in
	Timeout time.Duration `help:"How long to wait for the browser sign-in" default:"5m"`
}

func (c *GoogleLoginCmd) Run(app *App) error {
	if app.conf.GoogleClientID == "" {
		return trace.BadParameter("Google sign-in needs --google-client-id or google.client_id in the configuration file")
	}
	client, err := app.Client()
	if err != nil {
		return trace.Wrap(err)
	}
	session, err := app.Session()
	if err != nil {
		return trace.Wrap(err)
	}

	stateParam := uuid.NewString()
	srv, err := NewCallbackServer(c.Listen, stateParam)
	if err != nil {
		return trace.Wrap(err)
	}
	srv.Start()
	defer srv.Close()

	exchanger, err := api.NewGoogleExchanger(client, api.GoogleConfig{
		ClientID:     app.conf.GoogleClientID,
		ClientSecret: app.conf.GoogleClientSecret,
		RedirectURL:  srv.RedirectURL(),
	})
	if err != nil {
		return trace.Wrap(err)
	}

	authURL, verifier := exchanger.AuthCodeURL(stateParam)
	fmt.Fprintf(app.out, "Open the following URL in a browser to sign in:\n\n  %s\n\n", authURL)

	ctx, cancel := context.WithTimeout(app.Context(), c.Timeout)
	defer cancel()
	go lib.ServeSignals(ctx, srv, callbackShutdownTimeout)

	code, err := srv.Wait(ctx)
	if err != nil {
		return trace.Wrap(err)
	}
	creds, err := session.LoginWithProvider(ctx, exchanger, code, verifier)
	if err != nil {
		return trace.Wrap(err)
	}
	printSignedIn(app, &creds.User)
	return nil
}
