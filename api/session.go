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
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gravitational/trace"
	"github.com/sethvargo/go-limiter"
	"github.com/sethvargo/go-limiter/memorystore"

	"github.com/jishu-edu/jishu-client/common/auth/oauth"
	"github.com/jishu-edu/jishu-client/common/auth/state"
	"github.com/jishu-edu/jishu-client/lib"
	"github.com/jishu-edu/jishu-client/lib/logger"
)

// DefaultOTPCooldown is the minimal interval between two OTP requests for one email.
const DefaultOTPCooldown = 30 * time.Second

const (
	otpRequestPath    = "/api/auth/otp/request"
	loginPath         = "/api/auth/login"
	registerPath      = "/api/auth/register"
	logoutPath        = "/api/auth/logout"
	authProfilePath   = "/api/auth/profile"
	editProfilePath   = "/api/auth/profile/edit"
	googleLoginPath   = "/api/auth/google-login"
	otpCooldownTokens = 1
)

// RegisterRequest is the sign-up form.
type RegisterRequest struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	Name     string `json:"name"`
	MobileNo string `json:"mobile_no"`
}

// CheckAndSetDefaults validates the form.
func (r *RegisterRequest) CheckAndSetDefaults() error {
	r.Email = strings.TrimSpace(r.Email)
	if !lib.IsEmail(r.Email) {
		return trace.BadParameter("%q is not a valid email address", r.Email)
	}
	if r.OTP == "" {
		return trace.BadParameter("missing otp")
	}
	if r.Name == "" {
		return trace.BadParameter("missing name")
	}
	return nil
}

// authData is the payload of every endpoint that issues credentials.
type authData struct {
	state.Credentials
}

func (a *authData) Validate() error {
	if a.AccessToken == "" {
		return trace.BadParameter("missing access_token")
	}
	if a.RefreshToken == "" {
		return trace.BadParameter("missing refresh_token")
	}
	if a.User.ID == 0 {
		return trace.BadParameter("missing user")
	}
	return nil
}

type profileData struct {
	User state.UserProfile `json:"user"`
}

func (p *profileData) Validate() error {
	if p.User.ID == 0 {
		return trace.BadParameter("missing user")
	}
	return nil
}

// SessionConfig configures a Session.
type SessionConfig struct {
	// OTPCooldown is the minimal interval between OTP requests for the same email.
	OTPCooldown time.Duration
}

// CheckAndSetDefaults fills in defaults.
func (c *SessionConfig) CheckAndSetDefaults() error {
	if c.OTPCooldown <= 0 {
		c.OTPCooldown = DefaultOTPCooldown
	}
	return nil
}

// Session manages the signed-in user on top of a Client: it signs in, keeps the stored
// credentials in sync with the backend, and signs out.
type Session struct {
	client     *Client
	store      state.Store
	otpLimiter limiter.Store
}

// NewSession returns a Session backed by client and its store.
func NewSession(client *Client, conf SessionConfig) (*Session, error) {
	if err := conf.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	otpLimiter, err := memorystore.New(&memorystore.Config{
		Tokens:   otpCooldownTokens,
		Interval: conf.OTPCooldown,
	})
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return &Session{
		client:     client,
		store:      client.Store(),
		otpLimiter: otpLimiter,
	}, nil
}

// Close releases the OTP limiter.
func (s *Session) Close(ctx context.Context) error {
	return trace.Wrap(s.otpLimiter.Close(ctx))
}

// RequestOTP asks the backend to email a one-time password. Requests for the same email
// closer than the cooldown fail with trace.LimitExceeded without reaching the backend.
func (s *Session) RequestOTP(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if !lib.IsEmail(email) {
		return "", trace.BadParameter("%q is not a valid email address", email)
	}

	_, _, reset, ok, err := s.otpLimiter.Take(ctx, strings.ToLower(email))
	if err != nil {
		return "", trace.Wrap(err)
	}
	if !ok {
		wait := time.Until(time.Unix(0, int64(reset))).Round(time.Second)
		return "", trace.LimitExceeded("an OTP was already sent to %s, retry in %v", email, wait)
	}

	envelope, err := Call[json.RawMessage](ctx, s.client, http.MethodPost, otpRequestPath,
		map[string]string{"email": email}, Anonymous())
	if err != nil {
		return "", trace.Wrap(err)
	}
	return envelope.Message, nil
}

// Login signs in with an emailed OTP and stores the issued credentials.
func (s *Session) Login(ctx context.Context, email, otp string) (*state.Credentials, error) {
	email = strings.TrimSpace(email)
	if !lib.IsEmail(email) {
		return nil, trace.BadParameter("%q is not a valid email address", email)
	}
	if otp == "" {
		return nil, trace.BadParameter("missing otp")
	}
	data, err := CallData[authData](ctx, s.client, http.MethodPost, loginPath,
		map[string]string{"email": email, "otp": otp}, Anonymous())
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return s.signIn(ctx, &data.Credentials)
}

// Register creates an account and stores the issued credentials.
func (s *Session) Register(ctx context.Context, req RegisterRequest) (*state.Credentials, error) {
	if err := req.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	data, err := CallData[authData](ctx, s.client, http.MethodPost, registerPath, req, Anonymous())
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return s.signIn(ctx, &data.Credentials)
}

// LoginWithProvider completes a third-party sign-in and stores the issued credentials.
func (s *Session) LoginWithProvider(ctx context.Context, exchanger oauth.Exchanger, code, verifier string) (*state.Credentials, error) {
	if code == "" {
		return nil, trace.BadParameter("missing authorization code")
	}
	creds, err := exchanger.Exchange(ctx, code, verifier)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return s.signIn(ctx, creds)
}

func (s *Session) signIn(ctx context.Context, creds *state.Credentials) (*state.Credentials, error) {
	if err := state.Save(ctx, s.store, creds); err != nil {
		return nil, trace.Wrap(err)
	}
	logger.Get(ctx).WithField("user_id", creds.User.ID).Info("Signed in")
	return creds, nil
}

// Logout tells the backend the session is over and clears the stored credentials. The
// backend call is best-effort: its failure is logged and the credentials are cleared
// anyway.
func (s *Session) Logout(ctx context.Context) error {
	log := logger.Get(ctx)
	if _, err := Call[json.RawMessage](ctx, s.client, http.MethodPost, logoutPath, nil); err != nil {
		log.WithError(err).Warn("Backend logout failed, clearing the local session anyway")
	}
	if err := state.Clear(ctx, s.store); err != nil {
		return trace.Wrap(err)
	}
	log.Info("Signed out")
	return nil
}

// Current returns the stored session, trace.NotFound if there is none.
func (s *Session) Current(ctx context.Context) (*state.Credentials, error) {
	creds, err := state.Load(ctx, s.store)
	return creds, trace.Wrap(err)
}

// RefreshProfile fetches the signed-in user and updates the stored copy.
func (s *Session) RefreshProfile(ctx context.Context) (*state.UserProfile, error) {
	data, err := CallData[profileData](ctx, s.client, http.MethodGet, authProfilePath, nil)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return s.saveUser(ctx, &data.User)
}

// UpdateProfile applies a partial update to the signed-in user and updates the stored
// copy. Keys of patch follow the UserProfile JSON names.
func (s *Session) UpdateProfile(ctx context.Context, patch map[string]interface{}) (*state.UserProfile, error) {
	if len(patch) == 0 {
		return nil, trace.BadParameter("nothing to update")
	}
	data, err := CallData[profileData](ctx, s.client, http.MethodPut, editProfilePath, patch)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return s.saveUser(ctx, &data.User)
}

func (s *Session) saveUser(ctx context.Context, user *state.UserProfile) (*state.UserProfile, error) {
	if err := state.SaveUser(ctx, s.store, user); err != nil {
		return nil, trace.Wrap(err)
	}
	return user, nil
}
