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

package api

import (
	"context"
	"net/http"

	"github.com/gravitational/trace"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/jishu-edu/jishu-client/common/auth/state"
)

// GoogleScopes are requested when none are configured.
var GoogleScopes = []string{"openid", "email", "profile"}

// GoogleConfig configures a GoogleExchanger.
type GoogleConfig struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	RedirectURL  string   `toml:"redirect_url"`
	Scopes       []string `toml:"scopes"`
	// Endpoint overrides the Google endpoints.
	Endpoint oauth2.Endpoint `toml:"-"`
}

// CheckAndSetDefaults validates the config and fills in defaults.
func (c *GoogleConfig) CheckAndSetDefaults() error {
	if c.ClientID == "" {
		return trace.BadParameter("missing required value google.client_id")
	}
	if c.RedirectURL == "" {
		return trace.BadParameter("missing required value google.redirect_url")
	}
	if len(c.Scopes) == 0 {
		c.Scopes = GoogleScopes
	}
	if c.Endpoint.AuthURL == "" || c.Endpoint.TokenURL == "" {
		c.Endpoint = endpoints.Google
	}
	return nil
}

// GoogleExchanger signs in with a Google authorization code: the code is traded at
// Google and the Google tokens are traded at the backend for app credentials.
type GoogleExchanger struct {
	oauth  *oauth2.Config
	client *Client
}

// NewGoogleExchanger returns a GoogleExchanger that reaches the backend through client.
func NewGoogleExchanger(client *Client, conf GoogleConfig) (*GoogleExchanger, error) {
	if err := conf.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	return &GoogleExchanger{
		oauth: &oauth2.Config{
			ClientID:     conf.ClientID,
			ClientSecret: conf.ClientSecret,
			RedirectURL:  conf.RedirectURL,
			Scopes:       conf.Scopes,
			Endpoint:     conf.Endpoint,
		},
		client: client,
	}, nil
}

// AuthCodeURL implements oauth.Exchanger.
func (g *GoogleExchanger) AuthCodeURL(stateParam string) (string, string) {
	verifier := oauth2.GenerateVerifier()
	url := g.oauth.AuthCodeURL(stateParam, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
	return url, verifier
}

type googleLoginRequest struct {
	GoogleToken string `json:"google_token"`
	IDToken     string `json:"id_token,omitempty"`
}

// googleAuthData may come without a refresh token.
type googleAuthData struct {
	state.Credentials
}

func (a *googleAuthData) Validate() error {
	if a.AccessToken == "" {
		return trace.BadParameter("missing access_token")
	}
	if a.User.ID == 0 {
		return trace.BadParameter("missing user")
	}
	return nil
}

// Exchange implements oauth.Exchanger.
func (g *GoogleExchanger) Exchange(ctx context.Context, code, verifier string) (*state.Credentials, error) {
	ctx, cancel := context.WithTimeout(ctx, g.client.conf.Timeout)
	defer cancel()

	var opts []oauth2.AuthCodeOption
	if verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}
	token, err := g.oauth.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, trace.Wrap(err, "exchanging the Google authorization code")
	}

	req := googleLoginRequest{GoogleToken: token.AccessToken}
	if idToken, ok := token.Extra("id_token").(string); ok {
		req.IDToken = idToken
	}

	data, err := CallData[googleAuthData](ctx, g.client, http.MethodPost, googleLoginPath, req, Anonymous())
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return &data.Credentials, nil
}
