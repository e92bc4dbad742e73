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
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/jishu-edu/jishu-client/common/auth/state"
	"github.com/jishu-edu/jishu-client/lib"
	"github.com/jishu-edu/jishu-client/lib/logger"
)

// DiagnosticsTimeout bounds every diagnostic request.
const DiagnosticsTimeout = 5 * time.Second

const healthPath = "/health"

// DiagnosticDetails describe what a check observed.
type DiagnosticDetails struct {
	APIURL            string        `json:"api_url"`
	ServerReachable   bool          `json:"server_reachable"`
	HealthCheckPassed bool          `json:"health_check_passed"`
	ResponseTime      time.Duration `json:"response_time,omitempty"`
	Error             string        `json:"error,omitempty"`
}

// DiagnosticResult is the outcome of a single check.
type DiagnosticResult struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Details DiagnosticDetails `json:"details"`
}

// DiagnosticReport groups the results of Run.
type DiagnosticReport struct {
	Health DiagnosticResult `json:"health"`
	// Token is nil when there is no stored session.
	Token *DiagnosticResult `json:"token,omitempty"`
}

// DiagnosticsConfig configures Diagnostics.
type DiagnosticsConfig struct {
	Config
	// Store provides the token checked by Run. Optional.
	Store state.Store
	// Clock measures response times.
	Clock clockwork.Clock
}

// CheckAndSetDefaults validates the config and fills in defaults.
func (c *DiagnosticsConfig) CheckAndSetDefaults() error {
	if c.Timeout <= 0 || c.Timeout > DiagnosticsTimeout {
		c.Timeout = DiagnosticsTimeout
	}
	if err := c.Config.CheckAndSetDefaults(); err != nil {
		return trace.Wrap(err)
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	return nil
}

// Diagnostics probes the backend to tell connectivity problems from server problems.
// Its requests bypass the session machinery: a rejected token is reported, not refreshed.
type Diagnostics struct {
	conf   DiagnosticsConfig
	client *resty.Client
}

// NewDiagnostics returns Diagnostics for the backend at conf.URL.
func NewDiagnostics(conf DiagnosticsConfig) (*Diagnostics, error) {
	if err := conf.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	return &Diagnostics{conf: conf, client: makeRestyClient(conf.Config)}, nil
}

// CheckHealth calls the health endpoint and measures the response time.
func (d *Diagnostics) CheckHealth(ctx context.Context) DiagnosticResult {
	start := d.conf.Clock.Now()
	resp, err := d.client.R().SetContext(ctx).Get(healthPath)
	elapsed := d.conf.Clock.Since(start)

	result := d.result()
	switch {
	case err != nil:
		d.transportFailure(ctx, &result, err)
	case resp.StatusCode() == http.StatusNotFound:
		result.Details.ServerReachable = true
		result.Message = "Health endpoint not found. Server may be running but endpoint missing."
		result.Details.Error = resp.Status()
	case resp.IsError():
		result.Details.ServerReachable = true
		result.Message = fmt.Sprintf("Health check failed with HTTP %d", resp.StatusCode())
		result.Details.Error = errorMessage(resp.Body())
	default:
		result.Success = true
		result.Message = "API server is reachable and healthy"
		result.Details.ServerReachable = true
		result.Details.HealthCheckPassed = true
		result.Details.ResponseTime = elapsed
	}

	logger.Get(ctx).WithField("success", result.Success).Debugf("Health check: %s", result.Message)
	return result
}

// CheckToken checks that the backend accepts token.
func (d *Diagnostics) CheckToken(ctx context.Context, token string) DiagnosticResult {
	resp, err := d.client.R().SetContext(ctx).SetAuthToken(token).Get(authProfilePath)

	result := d.result()
	switch {
	case err != nil:
		d.transportFailure(ctx, &result, err)
		if newNetworkError(d.conf.URL, err).Cause == CauseRefused {
			result.Message = fmt.Sprintf("Cannot connect to server at %s", d.conf.URL)
		}
	case resp.StatusCode() == http.StatusUnauthorized:
		result.Details.ServerReachable = true
		result.Message = "Token is invalid or expired"
		result.Details.Error = errorMessage(resp.Body())
	case resp.StatusCode() == http.StatusForbidden:
		result.Details.ServerReachable = true
		result.Message = "Access forbidden"
		result.Details.Error = errorMessage(resp.Body())
	case resp.IsError():
		result.Details.ServerReachable = true
		result.Message = "Authentication failed"
		result.Details.Error = errorMessage(resp.Body())
	default:
		result.Success = true
		result.Message = "Authentication token is valid"
		result.Details.ServerReachable = true
		result.Details.HealthCheckPassed = true
	}
	return result
}

// CheckEndpoint calls path with method, GET or POST, optionally with a token.
func (d *Diagnostics) CheckEndpoint(ctx context.Context, method, path, token string) DiagnosticResult {
	req := d.client.R().SetContext(ctx)
	if token != "" {
		req.SetAuthToken(token)
	}
	if method == http.MethodPost {
		req.SetBody(struct{}{})
	}

	result := d.result()
	if method != http.MethodGet && method != http.MethodPost {
		result.Message = fmt.Sprintf("Unsupported method %q", method)
		return result
	}

	resp, err := req.Execute(method, path)
	switch {
	case err != nil:
		d.transportFailure(ctx, &result, err)
		result.Message = fmt.Sprintf("Endpoint test failed: %s", result.Message)
	case resp.IsError():
		result.Details.ServerReachable = true
		result.Details.Error = errorMessage(resp.Body())
		result.Message = fmt.Sprintf("Endpoint test failed: HTTP %d", resp.StatusCode())
	default:
		result.Success = true
		result.Message = fmt.Sprintf("Endpoint %s is working", path)
		result.Details.ServerReachable = true
		result.Details.HealthCheckPassed = true
	}
	return result
}

// Run checks health and, when a session is stored, the stored token concurrently.
func (d *Diagnostics) Run(ctx context.Context) (*DiagnosticReport, error) {
	var token string
	if d.conf.Store != nil {
		var err error
		if token, err = d.conf.Store.Get(ctx, state.AccessTokenKey); err != nil {
			return nil, trace.Wrap(err)
		}
	}

	report := &DiagnosticReport{}
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		report.Health = d.CheckHealth(ctx)
		return nil
	})
	if token != "" {
		group.Go(func() error {
			result := d.CheckToken(ctx, token)
			report.Token = &result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, trace.Wrap(err)
	}
	return report, nil
}

func (d *Diagnostics) result() DiagnosticResult {
	return DiagnosticResult{Details: DiagnosticDetails{APIURL: d.conf.URL}}
}

func (d *Diagnostics) transportFailure(ctx context.Context, result *DiagnosticResult, err error) {
	result.Details.Error = err.Error()
	if lib.IsCanceled(ctx.Err()) {
		result.Message = "Diagnostics canceled"
		return
	}
	switch newNetworkError(d.conf.URL, err).Cause {
	case CauseRefused:
		result.Message = fmt.Sprintf("Connection refused. Is the server running at %s?", d.conf.URL)
	case CauseTimeout:
		result.Message = "Request timeout. Server is not responding."
	default:
		result.Message = fmt.Sprintf("Cannot reach server at %s", d.conf.URL)
	}
}
