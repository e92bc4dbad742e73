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

package state

import (
	"context"
	"encoding/json"

	"github.com/gravitational/trace"
)

// Save persists all three session keys.
func Save(ctx context.Context, store Store, creds *Credentials) error {
	if creds == nil {
		return trace.BadParameter("missing credentials")
	}
	if creds.AccessToken == "" {
		return trace.BadParameter("credentials do not contain `access_token`")
	}

	user, err := json.Marshal(&creds.User)
	if err != nil {
		return trace.Wrap(err)
	}

	if err := store.Set(ctx, AccessTokenKey, creds.AccessToken); err != nil {
		return trace.Wrap(err)
	}
	if err := store.Set(ctx, RefreshTokenKey, creds.RefreshToken); err != nil {
		return trace.Wrap(err)
	}
	return trace.Wrap(store.Set(ctx, UserKey, string(user)))
}

// SaveUser replaces the stored profile and leaves the tokens intact.
func SaveUser(ctx context.Context, store Store, user *UserProfile) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return trace.Wrap(err)
	}
	return trace.Wrap(store.Set(ctx, UserKey, string(payload)))
}

// SaveTokens stores a refreshed access token, and the refresh token when it was rotated.
func SaveTokens(ctx context.Context, store Store, tokens *Tokens) error {
	if tokens == nil || tokens.AccessToken == "" {
		return trace.BadParameter("tokens do not contain `access_token`")
	}
	if err := store.Set(ctx, AccessTokenKey, tokens.AccessToken); err != nil {
		return trace.Wrap(err)
	}
	if tokens.RefreshToken == "" {
		return nil
	}
	return trace.Wrap(store.Set(ctx, RefreshTokenKey, tokens.RefreshToken))
}

// Load reads the persisted session. It returns a NotFound error when there is no session.
// A corrupt profile evicts the whole session.
func Load(ctx context.Context, store Store) (*Credentials, error) {
	accessToken, err := store.Get(ctx, AccessTokenKey)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	userBlob, err := store.Get(ctx, UserKey)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	if accessToken == "" || userBlob == "" {
		return nil, trace.NotFound("no stored session")
	}
	refreshToken, err := store.Get(ctx, RefreshTokenKey)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	creds := &Credentials{Tokens: Tokens{AccessToken: accessToken, RefreshToken: refreshToken}}
	if err := json.Unmarshal([]byte(userBlob), &creds.User); err != nil {
		if clearErr := Clear(ctx, store); clearErr != nil {
			return nil, trace.NewAggregate(err, clearErr)
		}
		return nil, trace.BadParameter("stored user profile is corrupt and the session was cleared: %v", err)
	}

	return creds, nil
}

// Clear removes every session key.
func Clear(ctx context.Context, store Store) error {
	return trace.Wrap(store.RemoveAll(ctx, Keys...))
}
