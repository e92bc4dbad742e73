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
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/jishu-edu/jishu-client/lib"
	"github.com/jishu-edu/jishu-client/lib/logger"
)

// makeRestyClient returns a JSON client for the backend. conf must be checked.
func makeRestyClient(conf Config) *resty.Client {
	client := resty.
		NewWithClient(&http.Client{
			Timeout: conf.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxConnsPerHost:     conf.MaxConns,
				MaxIdleConnsPerHost: conf.MaxConns,
			},
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBaseURL(conf.URL).
		SetLogger(logger.Standard())
	client.JSONMarshal = lib.FastMarshal
	client.JSONUnmarshal = lib.FastUnmarshal
	return client
}

func toResponse(resp *resty.Response) *Response {
	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}
}
