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
	"net/url"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/jishu-edu/jishu-client/common/auth/state"
)

const (
	testGoogleCode = "google-code"
)

func newTestGoogleExchanger(t *testing.T, backend *FakeBackend, store state.Store) *GoogleExchanger {
	t.Helper()
	backend.router.POST("/oauth/token", func(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != testGoogleCode || r.Form.Get("code_verifier") == "" {
			writeJSON(rw, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		writeJSON(rw, http.StatusOK, map[string]interface{}{
			"access_token": "g-access",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     "g-id",
		})
	})

	exchanger, err := NewGoogleExchanger(newTestClient(t, backend.URL(), store), GoogleConfig{
		ClientID:    "jishu-cli",
		RedirectURL: "http://127.0.0.1:8085/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:   backend.URL() + "/oauth/auth",
			TokenURL:  backend.URL() + "/oauth/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	})
	require.NoError(t, err)
	return exchanger
}

func newTestSession(t *testing.T, backend *FakeBackend, store state.Store) *Session {
	t.Helper()
	session, err := NewSession(newTestClient(t, backend.URL(), store), SessionConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { session.Close(context.Background()) })
	return session
}

func TestGoogleConfigDefaults(t *testing.T) {
	conf := GoogleConfig{ClientID: "id", RedirectURL: "http://127.0.0.1/callback"}
	require.NoError(t, conf.CheckAndSetDefaults())
	require.Equal(t, GoogleScopes, conf.Scopes)
	require.Contains(t, conf.Endpoint.AuthURL, "accounts.google.com")

	require.Error(t, (&GoogleConfig{RedirectURL: "http://127.0.0.1/callback"}).CheckAndSetDefaults())
}

func TestGoogleAuthCodeURL(t *testing.T) {
	backend := newTestBackend(t)
	exchanger := newTestGoogleExchanger(t, backend, state.NewMemoryStore())

	authURL, verifier := exchanger.AuthCodeURL("xyz")
	require.NotEmpty(t, verifier)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	query := u.Query()
	require.Equal(t, "xyz", query.Get("state"))
	require.Equal(t, "S256", query.Get("code_challenge_method"))
	require.Equal(t, oauth2.S256ChallengeFromVerifier(verifier), query.Get("code_challenge"))
	require.Equal(t, "offline", query.Get("access_type"))
}

func TestSessionLoginWithGoogle(t *testing.T) {
	backend := newTestBackend(t)
	store := state.NewMemoryStore()
	exchanger := newTestGoogleExchanger(t, backend, store)
	session := newTestSession(t, backend, store)
	ctx := context.Background()

	_, verifier := exchanger.AuthCodeURL("xyz")
	creds, err := session.LoginWithProvider(ctx, exchanger, testGoogleCode, verifier)
	require.NoError(t, err)
	require.Equal(t, freshAccessToken, creds.AccessToken)
	require.Equal(t, len(state.Keys), store.Len())

	_, err = session.LoginWithProvider(ctx, exchanger, "bad-code", verifier)
	require.Error(t, err)
}
