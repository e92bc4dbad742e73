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

package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gravitational/trace"

	"github.com/jishu-edu/jishu-client/api"
	"github.com/jishu-edu/jishu-client/common/auth/state"
)

// DiagnoseCmd checks connectivity to the backend
type DiagnoseCmd struct {
	// Endpoint additionally probes a single path
	Endpoint string `help:"Also probe this backend path, e.g. /api/courses"`

	// Method is the method used for --endpoint
	Method string `help:"HTTP method for --endpoint" default:"GET" enum:"GET,POST"`
}

func (c *DiagnoseCmd) Run(app *App) error {
	conf, err := app.APIConfig()
	if err != nil {
		return trace.Wrap(err)
	}
	store, err := app.Store()
	if err != nil {
		return trace.Wrap(err)
	}
	diagnostics, err := api.NewDiagnostics(api.DiagnosticsConfig{Config: conf, Store: store})
	if err != nil {
		return trace.Wrap(err)
	}
	ctx := app.Context()

	report, err := diagnostics.Run(ctx)
	if err != nil {
		return trace.Wrap(err)
	}

	table := newTable(app.out, "Check", "Result", "Reachable", "Response time", "Message")
	appendResult(table.Append, "health", report.Health)
	if report.Token != nil {
		appendResult(table.Append, "token", *report.Token)
	}
	if c.Endpoint != "" {
		token := ""
		if report.Token != nil {
			token, err = store.Get(ctx, state.AccessTokenKey)
			if err != nil {
				return trace.Wrap(err)
			}
		}
		appendResult(table.Append, c.Endpoint, diagnostics.CheckEndpoint(ctx, c.Method, c.Endpoint, token))
	}
	table.Render()

	printErrors(app.out, report)
	if !report.Health.Success {
		return trace.ConnectionProblem(nil, "backend at %s is not healthy", conf.URL)
	}
	return nil
}

func appendResult(appendRow func([]string), check string, result api.DiagnosticResult) {
	status := "FAIL"
	if result.Success {
		status = "OK"
	}
	responseTime := "-"
	if result.Details.ResponseTime > 0 {
		responseTime = result.Details.ResponseTime.String()
	}
	appendRow([]string{check, status, strconv.FormatBool(result.Details.ServerReachable), responseTime, result.Message})
}

func printErrors(w io.Writer, report *api.DiagnosticReport) {
	if report.Health.Details.Error != "" {
		fmt.Fprintf(w, "\nhealth: %s\n", report.Health.Details.Error)
	}
}
