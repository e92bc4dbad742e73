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
	"strings"

	"github.com/google/uuid"
	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"

	"github.com/jishu-edu/jishu-client/common/auth"
	"github.com/jishu-edu/jishu-client/lib"
	"github.com/jishu-edu/jishu-client/lib/logger"
)

const (
	requestIDHeader     = "X-Request-Id"
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
)

// Handler sends a request and returns the raw response. Error statuses are not errors
// at this level.
type Handler func(ctx context.Context, req *Request) (*Response, error)

// Middleware decorates a Handler.
type Middleware func(next Handler) Handler

// Chain wraps h so that middlewares run in the given order, the first one outermost.
func Chain(h Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// withRequestID stamps a correlation id on the request and on the context logger.
func withRequestID(next Handler) Handler {
	return func(ctx context.Context, req *Request) (*Response, error) {
		id := req.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			req.Header.Set(requestIDHeader, id)
		}
		ctx, _ = logger.WithFields(ctx, log.Fields{
			"request_id": id,
			"method":     req.Method,
			"path":       req.Path,
		})
		return next(ctx, req)
	}
}

// withAuthorization attaches the current access token unless the request already
// carries credentials.
func withAuthorization(provider auth.AccessTokenProvider) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) (*Response, error) {
			if req.Header.Get(authorizationHeader) == "" {
				token, err := provider.GetAccessToken(ctx)
				if err != nil {
					return nil, trace.Wrap(err)
				}
				if token != "" {
					setBearer(req.Header, token)
				}
			}
			return next(ctx, req)
		}
	}
}

// withTokenRefresh replays a request rejected with 401 once, after the coordinator has
// obtained a new access token. When there is none the coordinator has evicted the session.
func withTokenRefresh(coordinator *auth.Coordinator) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) (*Response, error) {
			resp, err := next(ctx, req)
			if err != nil || resp.StatusCode != http.StatusUnauthorized || req.Anonymous {
				return resp, trace.Wrap(err)
			}
			if req.retried {
				return nil, trace.Wrap(newAuthExpiredError(resp.StatusCode, newHTTPError(resp)))
			}

			log := logger.Get(ctx)
			req.retried = true

			token, err := coordinator.Refresh(ctx, bearer(req.Header))
			if err != nil {
				if ctx.Err() != nil {
					return nil, trace.Wrap(ctx.Err())
				}
				// The coordinator has already evicted the session.
				return nil, trace.Wrap(newAuthExpiredError(resp.StatusCode, err))
			}

			log.Debug("Replaying the request with a refreshed access token")
			setBearer(req.Header, token)
			resp, err = next(ctx, req)
			if err != nil {
				return nil, trace.Wrap(err)
			}
			if resp.StatusCode == http.StatusUnauthorized {
				return nil, trace.Wrap(newAuthExpiredError(resp.StatusCode, newHTTPError(resp)))
			}
			return resp, nil
		}
	}
}

// dispatch is the terminal Handler: it performs the HTTP exchange.
func (c *Client) dispatch(ctx context.Context, req *Request) (*Response, error) {
	r := c.client.R().SetContext(ctx)
	for key, values := range req.Header {
		for _, value := range values {
			r.Header.Add(key, value)
		}
	}
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, req.Path)
	if err != nil {
		// err returned by client.Do() would never have status canceled
		if lib.IsCanceled(ctx.Err()) {
			return nil, trace.Wrap(ctx.Err())
		}
		logger.Get(ctx).WithError(err).Debug("Request failed")
		return nil, trace.Wrap(newNetworkError(c.conf.URL, err))
	}

	c.metrics.observeRequest(req.Method, resp.StatusCode())
	logger.Get(ctx).WithField("status", resp.StatusCode()).Debug("Request completed")
	return toResponse(resp), nil
}

func setBearer(header http.Header, token string) {
	header.Set(authorizationHeader, bearerPrefix+token)
}

func bearer(header http.Header) string {
	return strings.TrimPrefix(header.Get(authorizationHeader), bearerPrefix)
}
