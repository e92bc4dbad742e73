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

	"github.com/go-resty/resty/v2"
	"github.com/gravitational/trace"

	"github.com/jishu-edu/jishu-client/common/auth/state"
	"github.com/jishu-edu/jishu-client/lib"
)

const refreshPath = "/refresh-token"

// TokenRefresher exchanges a refresh token at the backend. It talks to the backend
// directly: a 401 from the refresh endpoint must not trigger another refresh.
type TokenRefresher struct {
	client  *resty.Client
	baseURL string
}

// NewTokenRefresher returns a TokenRefresher for the backend at conf.URL.
func NewTokenRefresher(conf Config) (*TokenRefresher, error) {
	if err := conf.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	return &TokenRefresher{client: makeRestyClient(conf), baseURL: conf.URL}, nil
}

type refreshedTokens struct {
	state.Tokens
}

func (t *refreshedTokens) Validate() error {
	if t.AccessToken == "" {
		return trace.BadParameter("missing access_token")
	}
	return nil
}

// Refresh implements oauth.Refresher.
func (r *TokenRefresher) Refresh(ctx context.Context, refreshToken string) (*state.Tokens, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetAuthToken(refreshToken).
		SetBody(struct{}{}).
		Post(refreshPath)
	if err != nil {
		if lib.IsCanceled(ctx.Err()) {
			return nil, trace.Wrap(ctx.Err())
		}
		return nil, trace.Wrap(newNetworkError(r.baseURL, err))
	}
	if resp.IsError() {
		return nil, trace.Wrap(newHTTPError(toResponse(resp)))
	}

	tokens, err := decodeEnvelope[refreshedTokens](toResponse(resp), true)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return &tokens.Data.Tokens, nil
}
