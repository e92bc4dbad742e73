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
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gravitational/trace"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jishu-edu/jishu-client/common/auth/state"
	"github.com/jishu-edu/jishu-client/lib/logger"
)

func init() {
	logger.Discard()
}

func newSessionStore(t *testing.T, accessToken, refreshToken string) *state.MemoryStore {
	t.Helper()
	store := state.NewMemoryStore()
	ctx := context.Background()
	if accessToken != "" {
		require.NoError(t, store.Set(ctx, state.AccessTokenKey, accessToken))
	}
	if refreshToken != "" {
		require.NoError(t, store.Set(ctx, state.RefreshTokenKey, refreshToken))
	}
	require.NoError(t, state.SaveUser(ctx, store, &testUser))
	return store
}

func newTestClient(t *testing.T, url string, store state.Store) *Client {
	t.Helper()
	client, err := NewClient(ClientConfig{
		Config:     Config{URL: url},
		Store:      store,
		Registerer: prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	return client
}

func newTestBackend(t *testing.T) *FakeBackend {
	t.Helper()
	backend := NewFakeBackend()
	t.Cleanup(backend.Close)
	return backend
}

func requireSessionEvicted(t *testing.T, store *state.MemoryStore) {
	t.Helper()
	require.Equal(t, 0, store.Len())
}

func TestClientConfig(t *testing.T) {
	_, err := NewClient(ClientConfig{Config: Config{URL: "localhost:5000"}, Store: state.NewMemoryStore()})
	require.Error(t, err)

	_, err = NewClient(ClientConfig{Config: Config{URL: "http://localhost:5000"}})
	require.Error(t, err)

	client, err := NewClient(ClientConfig{Config: Config{URL: "http://localhost:5000/"}, Store: state.NewMemoryStore()})
	require.NoError(t, err)
	require.Equal(t, "http://localhost:5000", client.URL())
	require.Equal(t, DefaultTimeout, client.conf.Timeout)
}

func TestClientAttachesStoredToken(t *testing.T) {
	backend := newTestBackend(t)
	client := newTestClient(t, backend.URL(), newSessionStore(t, freshAccessToken, refreshToken1))

	courses, err := client.ListCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	require.Equal(t, "JEE Main", courses[0].Name)
	require.Equal(t, 0, backend.RefreshHits())
}

func TestClientRefreshesOnceForConcurrentUnauthorized(t *testing.T) {
	const callers = 10

	backend := newTestBackend(t)
	store := newSessionStore(t, expiredAccessToken, refreshToken1)
	client := newTestClient(t, backend.URL(), store)
	release := backend.HoldRefresh()
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	group, ctx := errgroup.WithContext(ctx)
	for i := 0; i < callers; i++ {
		group.Go(func() error {
			courses, err := client.ListCourses(ctx)
			if err != nil {
				return err
			}
			if len(courses) != 2 {
				return trace.BadParameter("got %d courses", len(courses))
			}
			return nil
		})
	}

	require.Eventually(t, func() bool {
		return backend.Courses401() == callers && backend.RefreshHits() == 1
	}, 5*time.Second, 5*time.Millisecond)
	release()

	require.NoError(t, group.Wait())
	require.Equal(t, 1, backend.RefreshHits())
	require.Equal(t, callers, backend.CoursesHits())

	accessToken, err := store.Get(context.Background(), state.AccessTokenKey)
	require.NoError(t, err)
	require.Equal(t, freshAccessToken, accessToken)
	refreshToken, err := store.Get(context.Background(), state.RefreshTokenKey)
	require.NoError(t, err)
	require.Equal(t, refreshToken2, refreshToken)

	require.Equal(t, float64(1), testutil.ToFloat64(client.metrics.refresh.WithLabelValues("success")))
	require.Equal(t, float64(callers), testutil.ToFloat64(client.metrics.requests.WithLabelValues(http.MethodGet, "401")))
	require.Equal(t, float64(callers), testutil.ToFloat64(client.metrics.requests.WithLabelValues(http.MethodGet, "200")))
}

func TestClientSecondUnauthorizedJoinsRunningRefresh(t *testing.T) {
	backend := newTestBackend(t)
	store := newSessionStore(t, expiredAccessToken, refreshToken1)
	client := newTestClient(t, backend.URL(), store)
	release := backend.HoldRefresh()
	defer release()

	ctx := context.Background()
	errA := make(chan error, 1)
	go func() {
		_, err := client.ListCourses(ctx)
		errA <- err
	}()
	require.Eventually(t, func() bool { return backend.RefreshHits() == 1 }, 5*time.Second, time.Millisecond)

	time.Sleep(5 * time.Millisecond)
	errB := make(chan error, 1)
	go func() {
		_, err := client.ListCourses(ctx)
		errB <- err
	}()
	require.Eventually(t, func() bool { return backend.Courses401() == 2 }, 5*time.Second, time.Millisecond)
	release()

	require.NoError(t, <-errA)
	require.NoError(t, <-errB)
	require.Equal(t, 1, backend.RefreshHits())
}

func TestClientRefreshFailureEvictsSession(t *testing.T) {
	const callers = 5

	backend := newTestBackend(t)
	backend.SetRefreshFails(true)
	store := newSessionStore(t, expiredAccessToken, refreshToken1)
	client := newTestClient(t, backend.URL(), store)

	ctx := context.Background()
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			_, err := client.ListCourses(ctx)
			errs <- err
		}()
	}
	for i := 0; i < callers; i++ {
		err := <-errs
		require.Error(t, err)
		require.True(t, IsAuthExpired(err), "got %v", err)
		apiErr, ok := AsError(err)
		require.True(t, ok)
		require.Equal(t, "Session expired. Please login again.", apiErr.Message)
	}

	// Late callers find no refresh token and make no call of their own.
	require.Equal(t, 1, backend.RefreshHits())
	requireSessionEvicted(t, store)
}

// signInOnEvictStore signs a new session in right after the first eviction, the way a
// login running on another goroutine would.
type signInOnEvictStore struct {
	*state.MemoryStore
	evictions int32
}

func (s *signInOnEvictStore) RemoveAll(ctx context.Context, keys ...string) error {
	if err := s.MemoryStore.RemoveAll(ctx, keys...); err != nil {
		return trace.Wrap(err)
	}
	if atomic.AddInt32(&s.evictions, 1) == 1 {
		return trace.Wrap(state.Save(ctx, s.MemoryStore, &state.Credentials{
			Tokens: state.Tokens{AccessToken: "NEW", RefreshToken: "NEW-R"},
			User:   testUser,
		}))
	}
	return nil
}

func TestClientRefreshFailureEvictsOnlyOnce(t *testing.T) {
	backend := newTestBackend(t)
	backend.SetRefreshFails(true)
	store := &signInOnEvictStore{MemoryStore: newSessionStore(t, expiredAccessToken, refreshToken1)}
	client := newTestClient(t, backend.URL(), store)

	_, err := client.ListCourses(context.Background())
	require.True(t, IsAuthExpired(err), "got %v", err)

	require.Equal(t, int32(1), atomic.LoadInt32(&store.evictions))
	token, err := store.Get(context.Background(), state.AccessTokenKey)
	require.NoError(t, err)
	require.Equal(t, "NEW", token)
}

func TestClientWithoutRefreshToken(t *testing.T) {
	backend := newTestBackend(t)
	store := newSessionStore(t, expiredAccessToken, "")
	client := newTestClient(t, backend.URL(), store)

	_, err := client.ListCourses(context.Background())
	require.True(t, IsAuthExpired(err), "got %v", err)
	require.Equal(t, 0, backend.RefreshHits())
	requireSessionEvicted(t, store)
	require.Equal(t, float64(1), testutil.ToFloat64(client.metrics.refresh.WithLabelValues("no_refresh_token")))
}

func TestClientKeepsRefreshTokenWhenNotRotated(t *testing.T) {
	backend := newTestBackend(t)
	backend.SetRotate(false)
	store := newSessionStore(t, expiredAccessToken, refreshToken1)
	client := newTestClient(t, backend.URL(), store)

	_, err := client.ListCourses(context.Background())
	require.NoError(t, err)

	refreshToken, err := store.Get(context.Background(), state.RefreshTokenKey)
	require.NoError(t, err)
	require.Equal(t, refreshToken1, refreshToken)
}

func TestClientDoesNotRefreshTwice(t *testing.T) {
	backend := newTestBackend(t)
	store := newSessionStore(t, expiredAccessToken, refreshToken1)
	client := newTestClient(t, backend.URL(), store)
	backend.router.GET("/api/user/stats", backend.protected(func(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writeJSON(rw, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "Still not allowed"})
	}))

	_, err := client.GetUserStats(context.Background())
	require.True(t, IsAuthExpired(err), "got %v", err)
	require.Equal(t, 1, backend.RefreshHits())

	// The refreshed tokens are kept: the backend accepted the refresh.
	accessToken, err := store.Get(context.Background(), state.AccessTokenKey)
	require.NoError(t, err)
	require.Equal(t, freshAccessToken, accessToken)
}

func TestClientHTTPErrors(t *testing.T) {
	backend := newTestBackend(t)
	backend.router.GET("/api/user/academics", func(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writeJSON(rw, http.StatusInternalServerError, map[string]interface{}{"success": false, "message": "Database is down"})
	})
	backend.router.GET("/api/user/purchases", func(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writeJSON(rw, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "Bad course"})
	})
	backend.router.GET("/api/user/test-analytics", func(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		rw.WriteHeader(http.StatusBadGateway)
		_, _ = rw.Write([]byte("<html>Bad Gateway</html>"))
	})
	backend.router.GET("/api/user/profile", func(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writeJSON(rw, http.StatusOK, map[string]interface{}{"success": false, "message": "Profile incomplete"})
	})
	client := newTestClient(t, backend.URL(), newSessionStore(t, freshAccessToken, refreshToken1))
	ctx := context.Background()

	for _, tc := range []struct {
		name    string
		call    func() error
		status  int
		message string
	}{
		{"message field", func() error { _, err := client.GetAcademics(ctx); return err }, http.StatusInternalServerError, "Database is down"},
		{"error field", func() error { _, err := client.ListPurchases(ctx); return err }, http.StatusBadRequest, "Bad course"},
		{"no JSON body", func() error { _, err := client.GetTestAnalytics(ctx); return err }, http.StatusBadGateway, "API request failed"},
		{"unsuccessful envelope", func() error { _, err := client.GetUserProfile(ctx); return err }, http.StatusOK, "Profile incomplete"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			require.True(t, IsHTTPError(err), "got %v", err)
			apiErr, ok := AsError(err)
			require.True(t, ok)
			require.Equal(t, tc.status, apiErr.StatusCode)
			require.Equal(t, tc.message, apiErr.Message)
		})
	}
	require.Equal(t, 0, backend.RefreshHits())
}

func TestClientValidationErrors(t *testing.T) {
	backend := newTestBackend(t)
	backend.router.GET("/api/courses/:id", func(rw http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		switch ps.ByName("id") {
		case "1":
			_, _ = rw.Write([]byte("not json"))
		case "2":
			writeJSON(rw, http.StatusOK, map[string]interface{}{"data": map[string]interface{}{}})
		case "3":
			writeJSON(rw, http.StatusOK, map[string]interface{}{"success": true})
		default:
			writeData(rw, map[string]interface{}{"course": map[string]interface{}{"course_name": "No id"}})
		}
	})
	client := newTestClient(t, backend.URL(), newSessionStore(t, freshAccessToken, refreshToken1))

	for id := int64(1); id <= 4; id++ {
		_, err := client.GetCourse(context.Background(), id, true)
		require.True(t, IsValidationError(err), "course %v: got %v", id, err)
	}
}

func TestClientNetworkErrors(t *testing.T) {
	t.Run("refused", func(t *testing.T) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		url := "http://" + listener.Addr().String()
		require.NoError(t, listener.Close())

		client := newTestClient(t, url, newSessionStore(t, freshAccessToken, refreshToken1))
		_, err = client.ListCourses(context.Background())
		require.True(t, IsNetworkError(err), "got %v", err)
		apiErr, _ := AsError(err)
		require.Equal(t, CauseRefused, apiErr.Cause)
		require.Contains(t, apiErr.Message, url)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
		}))
		t.Cleanup(srv.Close)

		client, err := NewClient(ClientConfig{
			Config: Config{URL: srv.URL, Timeout: 50 * time.Millisecond},
			Store:  newSessionStore(t, freshAccessToken, refreshToken1),
		})
		require.NoError(t, err)
		_, err = client.ListCourses(context.Background())
		require.True(t, IsNetworkError(err), "got %v", err)
		apiErr, _ := AsError(err)
		require.Equal(t, CauseTimeout, apiErr.Cause)
		require.Equal(t, "Request timeout - server took too long to respond", apiErr.Message)
	})

	t.Run("unreachable", func(t *testing.T) {
		client, err := NewClient(ClientConfig{
			Config: Config{URL: "http://jishu.invalid", Timeout: 5 * time.Second},
			Store:  newSessionStore(t, freshAccessToken, refreshToken1),
		})
		require.NoError(t, err)
		_, err = client.ListCourses(context.Background())
		require.True(t, IsNetworkError(err), "got %v", err)
		apiErr, _ := AsError(err)
		require.Equal(t, CauseUnreachable, apiErr.Cause)
	})
}

func TestClientCanceledContext(t *testing.T) {
	backend := newTestBackend(t)
	client := newTestClient(t, backend.URL(), newSessionStore(t, freshAccessToken, refreshToken1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.ListCourses(ctx)
	require.Error(t, err)
	require.False(t, IsNetworkError(err))
}

func TestClientStampsRequestID(t *testing.T) {
	backend := newTestBackend(t)
	client := newTestClient(t, backend.URL(), newSessionStore(t, expiredAccessToken, refreshToken1))

	_, err := client.ListCourses(context.Background())
	require.NoError(t, err)

	ids := backend.RequestIDs()
	require.Len(t, ids, 2)
	_, err = uuid.Parse(ids[0])
	require.NoError(t, err)
	require.Equal(t, ids[0], ids[1], "the replayed request keeps its id")
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(ctx context.Context, req *Request) (*Response, error) {
				order = append(order, name)
				return next(ctx, req)
			}
		}
	}
	handler := Chain(func(context.Context, *Request) (*Response, error) {
		order = append(order, "dispatch")
		return &Response{StatusCode: http.StatusOK}, nil
	}, mark("first"), mark("second"))

	_, err := handler(context.Background(), &Request{Header: make(http.Header)})
	require.NoError(t, err)
	require.Equal(t, []string{"first", "second", "dispatch"}, order)
}
