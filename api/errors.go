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
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/gravitational/trace"
	"github.com/tidwall/gjson"

	"github.com/jishu-edu/jishu-client/lib"
)

const (
	defaultErrorMessage      = "API request failed"
	sessionExpiredMessage    = "Session expired. Please login again."
	defaultNetworkMessage    = "Network error or server unavailable"
	timeoutNetworkMessage    = "Request timeout - server took too long to respond"
	unreachableMessageFmt    = "Cannot reach server at %s"
	refusedNetworkMessageFmt = "Connection refused - server may not be running at %s"
)

// ErrorKind classifies a failed request.
type ErrorKind string

const (
	// KindAuthExpired means the session could not be refreshed and the user must sign in again.
	KindAuthExpired ErrorKind = "auth_expired"
	// KindHTTP means the server answered with an error status.
	KindHTTP ErrorKind = "http"
	// KindNetwork means no response was received.
	KindNetwork ErrorKind = "network"
	// KindValidation means the response body was not what the call expected.
	KindValidation ErrorKind = "validation"
)

// NetworkCause classifies a KindNetwork error.
type NetworkCause string

const (
	CauseTimeout     NetworkCause = "timeout"
	CauseUnreachable NetworkCause = "unreachable"
	CauseRefused     NetworkCause = "refused"
)

// Error is the error returned for every failed API request.
type Error struct {
	Kind ErrorKind
	// StatusCode is the HTTP status, zero for network errors.
	StatusCode int
	// Message is suitable for showing to the user.
	Message string
	// Cause is set for KindNetwork errors.
	Cause NetworkCause
	// Err is the underlying error, if any.
	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("http error code=%v: %s", e.StatusCode, e.Message)
	case KindNetwork:
		return fmt.Sprintf("network error (%s): %s", e.Cause, e.Message)
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	if errors.As(trace.Unwrap(err), &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func isKind(err error, kind ErrorKind) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == kind
}

// IsAuthExpired reports whether the user has to sign in again.
func IsAuthExpired(err error) bool { return isKind(err, KindAuthExpired) }

// IsHTTPError reports whether the server answered with an error status.
func IsHTTPError(err error) bool { return isKind(err, KindHTTP) }

// IsNetworkError reports whether no response was received.
func IsNetworkError(err error) bool { return isKind(err, KindNetwork) }

// IsValidationError reports whether the response body was malformed.
func IsValidationError(err error) bool { return isKind(err, KindValidation) }

func newAuthExpiredError(statusCode int, cause error) *Error {
	return &Error{Kind: KindAuthExpired, StatusCode: statusCode, Message: sessionExpiredMessage, Err: cause}
}

func newHTTPError(resp *Response) *Error {
	return &Error{Kind: KindHTTP, StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
}

func newValidationError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// newNetworkError classifies a transport failure. baseURL is quoted in the message.
func newNetworkError(baseURL string, err error) *Error {
	apiErr := &Error{Kind: KindNetwork, Cause: CauseUnreachable, Err: err}

	var netErr net.Error
	var dnsErr *net.DNSError
	switch {
	case lib.IsDeadline(err), errors.As(err, &netErr) && netErr.Timeout():
		apiErr.Cause = CauseTimeout
		apiErr.Message = timeoutNetworkMessage
	case errors.As(err, &dnsErr):
		apiErr.Message = fmt.Sprintf(unreachableMessageFmt, baseURL)
	case errors.Is(err, syscall.ECONNREFUSED):
		apiErr.Cause = CauseRefused
		apiErr.Message = fmt.Sprintf(refusedNetworkMessageFmt, baseURL)
	default:
		apiErr.Message = fmt.Sprintf("%s: %v", defaultNetworkMessage, err)
	}
	return apiErr
}

// errorMessage picks the server-provided message out of an arbitrary error body.
func errorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return defaultErrorMessage
	}
	for _, path := range []string{"message", "error"} {
		if value := gjson.GetBytes(body, path); value.Type == gjson.String && value.Str != "" {
			return value.Str
		}
	}
	return defaultErrorMessage
}
