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
)

const (
	// AccessTokenKey holds the bearer token attached to API calls.
	AccessTokenKey = "access_token"
	// RefreshTokenKey holds the token exchanged for a new access token.
	RefreshTokenKey = "refresh_token"
	// UserKey holds the JSON-encoded UserProfile.
	UserKey = "jishu_user"
)

// Keys lists every key a session occupies in a Store.
var Keys = []string{AccessTokenKey, RefreshTokenKey, UserKey}

// Store is a durable key-value storage for session data.
type Store interface {
	// Get returns the value stored under key, or an empty string if there is none.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key.
	Set(ctx context.Context, key, value string) error
	// RemoveAll removes the given keys. Absent keys are skipped.
	RemoveAll(ctx context.Context, keys ...string) error
}

// Tokens is the pair of credentials issued by the backend.
type Tokens struct {
	// AccessToken is the short-lived Bearer token.
	AccessToken string `json:"access_token"`
	// RefreshToken is exchanged for a new access token. A refresh response may omit it
	// when the backend does not rotate refresh tokens.
	RefreshToken string `json:"refresh_token,omitempty"`
}

// UserProfile is the signed-in user as returned by the backend.
type UserProfile struct {
	ID          int64  `json:"id"`
	Email       string `json:"email_id"`
	Name        string `json:"name"`
	MobileNo    string `json:"mobile_no,omitempty"`
	Status      string `json:"status"`
	ColorTheme  string `json:"color_theme,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	Gender      string `json:"gender,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Address     string `json:"address,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// Credentials is a complete session.
type Credentials struct {
	Tokens
	User UserProfile `json:"user"`
}
