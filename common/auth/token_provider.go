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

	"github.com/gravitational/trace"

	"github.com/jishu-edu/jishu-client/common/auth/state"
)

// AccessTokenProvider returns the token to attach to an outgoing request.
// An empty token means the request goes out unauthenticated.
type AccessTokenProvider interface {
	GetAccessToken(ctx context.Context) (string, error)
}

// StaticAccessTokenProvider always returns the same token.
type StaticAccessTokenProvider struct {
	token string
}

func NewStaticAccessTokenProvider(token string) *StaticAccessTokenProvider {
	return &StaticAccessTokenProvider{token: token}
}

func (s *StaticAccessTokenProvider) GetAccessToken(context.Context) (string, error) {
	return s.token, nil
}

// StoredAccessTokenProvider reads the token from the credential store on every call,
// so a token replaced by a refresh is picked up by the next request.
type StoredAccessTokenProvider struct {
	store state.Store
}

func NewStoredAccessTokenProvider(store state.Store) *StoredAccessTokenProvider {
	return &StoredAccessTokenProvider{store: store}
}

func (s *StoredAccessTokenProvider) GetAccessToken(ctx context.Context) (string, error) {
	token, err := s.store.Get(ctx, state.AccessTokenKey)
	return token, trace.Wrap(err)
}
