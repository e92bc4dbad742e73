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
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/julienschmidt/httprouter"

	"github.com/jishu-edu/jishu-client/common/auth/state"
)

const (
	expiredAccessToken = "T1"
	freshAccessToken   = "T2"
	refreshToken1      = "R1"
	refreshToken2      = "R2"
	validOTP           = "123456"
)

var testUser = state.UserProfile{ID: 42, Email: "asha@example.com", Name: "Asha", Status: "active"}

// FakeBackend mimics the Jishu backend. Only freshAccessToken is accepted by the
// protected routes until a test changes it.
type FakeBackend struct {
	srv    *httptest.Server
	router *httprouter.Router

	mu           sync.Mutex
	validToken   string
	refreshToken string
	rotate       bool
	refreshFails bool
	logoutFails  bool
	user         state.UserProfile
	requestIDs   []string
	lastBody     map[string]interface{}

	// refreshGate, when set, holds the refresh handler until it is closed.
	refreshGate chan struct{}

	refreshHits  int32
	coursesHits  int32
	courses401   int32
	otpHits      int32
	logoutHits   int32
	protectedHit int32
}

func NewFakeBackend() *FakeBackend {
	router := httprouter.New()
	b := &FakeBackend{
		router:       router,
		validToken:   freshAccessToken,
		refreshToken: refreshToken1,
		rotate:       true,
		user:         testUser,
	}

	router.POST("/refresh-token", b.handleRefresh)
	router.GET("/api/courses", b.protected(func(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		atomic.AddInt32(&b.coursesHits, 1)
		writeJSON(rw, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "ok",
			"data": map[string]interface{}{
				"courses": []Course{{ID: 1, Name: "JEE Main"}, {ID: 2, Name: "NEET"}},
			},
		})
	}))
	router.GET("/api/auth/profile", b.protected(func(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		b.mu.Lock()
		user := b.user
		b.mu.Unlock()
		writeData(rw, map[string]interface{}{"user": user})
	}))
	router.PUT("/api/auth/profile/edit", b.protected(func(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var patch map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&patch)
		b.mu.Lock()
		if name, ok := patch["name"].(string); ok {
			b.user.Name = name
		}
		user := b.user
		b.mu.Unlock()
		writeData(rw, map[string]interface{}{"user": user})
	}))
	router.POST("/api/auth/logout", b.protected(func(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		atomic.AddInt32(&b.logoutHits, 1)
		b.mu.Lock()
		fails := b.logoutFails
		b.mu.Unlock()
		if fails {
			writeJSON(rw, http.StatusInternalServerError, map[string]interface{}{"success": false, "message": "logout failed"})
			return
		}
		writeJSON(rw, http.StatusOK, map[string]interface{}{"success": true, "message": "Logged out"})
	}))
	router.POST("/api/auth/otp/request", func(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		atomic.AddInt32(&b.otpHits, 1)
		b.record(r)
		writeJSON(rw, http.StatusOK, map[string]interface{}{"success": true, "message": "OTP sent"})
	})
	router.POST("/api/auth/login", func(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		body := b.record(r)
		if body["otp"] != validOTP {
			writeJSON(rw, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "Invalid OTP"})
			return
		}
		b.issueCredentials(rw)
	})
	router.POST("/api/auth/register", func(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		body := b.record(r)
		if body["otp"] != validOTP {
			writeJSON(rw, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "Invalid OTP"})
			return
		}
		b.issueCredentials(rw)
	})
	router.POST("/api/auth/google-login", func(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		body := b.record(r)
		if body["google_token"] != "g-access" || body["id_token"] != "g-id" {
			writeJSON(rw, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "Invalid Google token"})
			return
		}
		b.issueCredentials(rw)
	})
	router.GET("/health", func(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writeJSON(rw, http.StatusOK, map[string]interface{}{"status": "ok"})
	})

	b.srv = httptest.NewServer(router)
	return b
}

func (b *FakeBackend) URL() string {
	return b.srv.URL
}

func (b *FakeBackend) Close() {
	b.srv.Close()
}

func (b *FakeBackend) SetValidToken(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.validToken = token
}

func (b *FakeBackend) SetRefreshFails(fails bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshFails = fails
}

func (b *FakeBackend) SetRotate(rotate bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rotate = rotate
}

func (b *FakeBackend) SetLogoutFails(fails bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logoutFails = fails
}

// HoldRefresh makes the refresh handler block until the returned func is called.
func (b *FakeBackend) HoldRefresh() (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.refreshGate = gate
	b.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func (b *FakeBackend) RequestIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requestIDs...)
}

func (b *FakeBackend) LastBody() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastBody
}

func (b *FakeBackend) RefreshHits() int  { return int(atomic.LoadInt32(&b.refreshHits)) }
func (b *FakeBackend) CoursesHits() int  { return int(atomic.LoadInt32(&b.coursesHits)) }
func (b *FakeBackend) Courses401() int   { return int(atomic.LoadInt32(&b.courses401)) }
func (b *FakeBackend) OTPHits() int      { return int(atomic.LoadInt32(&b.otpHits)) }
func (b *FakeBackend) LogoutHits() int   { return int(atomic.LoadInt32(&b.logoutHits)) }
func (b *FakeBackend) Protected401() int { return int(atomic.LoadInt32(&b.protectedHit)) }

func (b *FakeBackend) handleRefresh(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	atomic.AddInt32(&b.refreshHits, 1)

	b.mu.Lock()
	gate := b.refreshGate
	b.mu.Unlock()
	if gate != nil {
		<-gate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.refreshFails || bearerToken(r) != b.refreshToken {
		writeJSON(rw, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "Invalid refresh token"})
		return
	}

	b.validToken = freshAccessToken
	tokens := map[string]string{"access_token": freshAccessToken}
	if b.rotate {
		b.refreshToken = refreshToken2
		tokens["refresh_token"] = refreshToken2
	}
	writeData(rw, tokens)
}

func (b *FakeBackend) protected(handle httprouter.Handle) httprouter.Handle {
	return func(rw http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		b.record(r)
		b.mu.Lock()
		valid := b.validToken
		b.mu.Unlock()
		if bearerToken(r) != valid {
			atomic.AddInt32(&b.protectedHit, 1)
			if r.URL.Path == "/api/courses" {
				atomic.AddInt32(&b.courses401, 1)
			}
			writeJSON(rw, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "Token expired"})
			return
		}
		handle(rw, r, ps)
	}
}

func (b *FakeBackend) issueCredentials(rw http.ResponseWriter) {
	b.mu.Lock()
	user := b.user
	b.mu.Unlock()
	writeData(rw, map[string]interface{}{
		"access_token":  freshAccessToken,
		"refresh_token": refreshToken1,
		"user":          user,
	})
}

func (b *FakeBackend) record(r *http.Request) map[string]interface{} {
	var body map[string]interface{}
	if r.Body != nil {
		buf, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(buf, &body)
		// Handlers behind protected read the body again.
		r.Body = io.NopCloser(bytes.NewReader(buf))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requestIDs = append(b.requestIDs, r.Header.Get(requestIDHeader))
	b.lastBody = body
	return body
}

func bearerToken(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func writeData(rw http.ResponseWriter, data interface{}) {
	writeJSON(rw, http.StatusOK, map[string]interface{}{"success": true, "message": "ok", "data": data})
}

func writeJSON(rw http.ResponseWriter, status int, body interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(body)
}
