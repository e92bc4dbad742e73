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

	"github.com/go-resty/resty/v2"
	"github.com/gravitational/trace"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jishu-edu/jishu-client/common/auth"
	"github.com/jishu-edu/jishu-client/common/auth/state"
)

// Request describes an outbound API request.
type Request struct {
	Method string
	// Path is relative to the configured base URL.
	Path   string
	Query  url.Values
	Header http.Header
	// Body is encoded as JSON when not nil.
	Body interface{}
	// Anonymous requests are answered with a plain HTTP error on 401 instead of a
	// token refresh. Used by the endpoints that issue credentials.
	Anonymous bool

	retried bool
}

// RequestOption customizes a Request built by Call.
type RequestOption func(*Request)

// WithQuery sets the query string.
func WithQuery(query url.Values) RequestOption {
	return func(r *Request) { r.Query = query }
}

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(r *Request) { r.Header.Set(key, value) }
}

// Anonymous marks the request as one that does not need a session.
func Anonymous() RequestOption {
	return func(r *Request) { r.Anonymous = true }
}

// Response is a raw API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ClientConfig configures a Client.
type ClientConfig struct {
	Config
	// Store holds the session.
	Store state.Store
	// Coordinator deduplicates token refreshes. Clients sharing a Store should share
	// a Coordinator. Built from the backend refresh endpoint when nil.
	Coordinator *auth.Coordinator
	// Registerer receives the client metrics. A private registry is used when nil.
	Registerer prometheus.Registerer
}

// CheckAndSetDefaults validates the config and fills in defaults.
func (c *ClientConfig) CheckAndSetDefaults() error {
	if err := c.Config.CheckAndSetDefaults(); err != nil {
		return trace.Wrap(err)
	}
	if c.Store == nil {
		return trace.BadParameter("missing credential store")
	}
	if c.Registerer == nil {
		c.Registerer = prometheus.NewRegistry()
	}
	return nil
}

// Client is the authenticated backend client.
//
// Every request carries the stored access token. A request rejected with 401 triggers a
// single, process-wide token refresh and is replayed once with the new token; when the
// session cannot be refreshed it is evicted and the request fails with KindAuthExpired.
type Client struct {
	conf        Config
	client      *resty.Client
	store       state.Store
	coordinator *auth.Coordinator
	metrics     *metrics
	handler     Handler
}

// NewClient builds a Client.
func NewClient(conf ClientConfig) (*Client, error) {
	if err := conf.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}

	m, err := newMetrics(conf.Registerer)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	coordinator := conf.Coordinator
	if coordinator == nil {
		refresher, err := NewTokenRefresher(conf.Config)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		coordinator, err = auth.NewCoordinator(auth.CoordinatorConfig{
			Store:     conf.Store,
			Refresher: refresher,
			Timeout:   conf.Timeout,
			OnRefresh: m.observeRefresh,
		})
		if err != nil {
			return nil, trace.Wrap(err)
		}
	}

	c := &Client{
		conf:        conf.Config,
		client:      makeRestyClient(conf.Config),
		store:       conf.Store,
		coordinator: coordinator,
		metrics:     m,
	}
	c.handler = Chain(c.dispatch,
		withRequestID,
		withAuthorization(auth.NewStoredAccessTokenProvider(conf.Store)),
		withTokenRefresh(coordinator),
	)
	return c, nil
}

// URL returns the backend base URL.
func (c *Client) URL() string {
	return c.conf.URL
}

// Store returns the credential store the client reads tokens from.
func (c *Client) Store() state.Store {
	return c.store
}

// Do sends req. Any status of 400 and above is returned as an *Error.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req.Header == nil {
		req.Header = make(http.Header)
	}

	resp, err := c.handler(ctx, req)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, trace.Wrap(newHTTPError(resp))
	}
	return resp, nil
}

// Call sends a request and decodes the response envelope. The envelope may have no data.
func Call[T any](ctx context.Context, c *Client, method, path string, body interface{}, opts ...RequestOption) (*Envelope[T], error) {
	return call[T](ctx, c, method, path, body, false, opts...)
}

// CallData is Call for endpoints that must return data.
func CallData[T any](ctx context.Context, c *Client, method, path string, body interface{}, opts ...RequestOption) (*T, error) {
	envelope, err := call[T](ctx, c, method, path, body, true, opts...)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return envelope.Data, nil
}

func call[T any](ctx context.Context, c *Client, method, path string, body interface{}, requireData bool, opts ...RequestOption) (*Envelope[T], error) {
	req := &Request{Method: method, Path: path, Header: make(http.Header), Body: body}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	envelope, err := decodeEnvelope[T](resp, requireData)
	return envelope, trace.Wrap(err)
}
