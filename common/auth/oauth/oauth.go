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

package oauth

import (
	"context"

	"github.com/jishu-edu/jishu-client/common/auth/state"
)

// Exchanger trades a third-party authorization code for app credentials.
type Exchanger interface {
	// AuthCodeURL returns the provider consent page URL and the PKCE verifier
	// that must accompany the code in Exchange.
	AuthCodeURL(state string) (url string, verifier string)
	Exchange(ctx context.Context, authorizationCode string, verifier string) (*state.Credentials, error)
}

// Refresher trades a refresh token for new tokens.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*state.Tokens, error)
}
