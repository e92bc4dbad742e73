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
	"net/url"
	"strings"
	"time"

	"github.com/gravitational/trace"
)

const (
	// DefaultTimeout bounds every API request.
	DefaultTimeout = 30 * time.Second

	defaultMaxConns = 100
)

// Config is the backend connection configuration.
type Config struct {
	// URL is the backend base URL, e.g. http://localhost:5000.
	URL string `toml:"url"`
	// Timeout bounds a single request, including a token refresh call.
	Timeout time.Duration `toml:"timeout"`
	// MaxConns limits connections to the backend.
	MaxConns int `toml:"max_conns"`
}

// CheckAndSetDefaults validates the config and fills in defaults.
func (c *Config) CheckAndSetDefaults() error {
	if c.URL == "" {
		return trace.BadParameter("missing required value api.url")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return trace.BadParameter("invalid api.url %q: %v", c.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return trace.BadParameter("api.url %q must be an http(s) URL", c.URL)
	}
	if u.Host == "" {
		return trace.BadParameter("api.url %q has no host", c.URL)
	}
	c.URL = strings.TrimRight(c.URL, "/")

	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxConns <= 0 {
		c.MaxConns = defaultMaxConns
	}
	return nil
}
