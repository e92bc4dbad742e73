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
	"github.com/gravitational/trace"
	"github.com/tidwall/gjson"

	"github.com/jishu-edu/jishu-client/lib"
)

// Envelope is the uniform response body of the backend.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    *T     `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Validator is implemented by payloads that can check their own required fields.
type Validator interface {
	Validate() error
}

// decodeEnvelope decodes resp into an Envelope. A successful envelope without data is
// accepted only when requireData is false.
func decodeEnvelope[T any](resp *Response, requireData bool) (*Envelope[T], error) {
	if !gjson.ValidBytes(resp.Body) {
		return nil, trace.Wrap(newValidationError("malformed response body (HTTP %d)", resp.StatusCode))
	}
	if !gjson.GetBytes(resp.Body, "success").Exists() {
		return nil, trace.Wrap(newValidationError("response body has no `success` field"))
	}

	var envelope Envelope[T]
	if err := lib.FastUnmarshal(resp.Body, &envelope); err != nil {
		return nil, trace.Wrap(newValidationError("unexpected response body: %v", trace.Unwrap(err)))
	}

	if !envelope.Success {
		message := envelope.Message
		if message == "" {
			message = envelope.Error
		}
		if message == "" {
			message = defaultErrorMessage
		}
		return nil, trace.Wrap(&Error{Kind: KindHTTP, StatusCode: resp.StatusCode, Message: message})
	}

	if envelope.Data == nil {
		if requireData {
			return nil, trace.Wrap(newValidationError("response has no data"))
		}
		return &envelope, nil
	}

	if validator, ok := any(envelope.Data).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, trace.Wrap(newValidationError("invalid response data: %v", trace.Unwrap(err)))
		}
	}

	return &envelope, nil
}
