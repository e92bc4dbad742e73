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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope(t *testing.T) {
	decode := func(body string, requireData bool) (*Envelope[courseData], error) {
		return decodeEnvelope[courseData](&Response{StatusCode: http.StatusOK, Body: []byte(body)}, requireData)
	}

	envelope, err := decode(`{"success":true,"message":"ok","data":{"course":{"id":7,"course_name":"GATE"}}}`, true)
	require.NoError(t, err)
	require.Equal(t, "ok", envelope.Message)
	require.Equal(t, "GATE", envelope.Data.Course.Name)

	envelope, err = decode(`{"success":true,"message":"nothing"}`, false)
	require.NoError(t, err)
	require.Nil(t, envelope.Data)

	_, err = decode(`{"success":true}`, true)
	require.True(t, IsValidationError(err))

	_, err = decode(`{"success":true,"data":{"course":{"id":0}}}`, true)
	require.True(t, IsValidationError(err))

	_, err = decode(`{"message":"no flag"}`, false)
	require.True(t, IsValidationError(err))

	_, err = decode(`{"success":"yes"}`, false)
	require.True(t, IsValidationError(err))

	_, err = decode(`{"success":false,"error":"Course is archived"}`, false)
	require.True(t, IsHTTPError(err))
	apiErr, _ := AsError(err)
	require.Equal(t, "Course is archived", apiErr.Message)
	require.Equal(t, http.StatusOK, apiErr.StatusCode)
}

func TestErrorMessage(t *testing.T) {
	require.Equal(t, "first", errorMessage([]byte(`{"message":"first","error":"second"}`)))
	require.Equal(t, "second", errorMessage([]byte(`{"message":"","error":"second"}`)))
	require.Equal(t, "API request failed", errorMessage([]byte(`{"message":{"nested":true}}`)))
	require.Equal(t, "API request failed", errorMessage(nil))
}
