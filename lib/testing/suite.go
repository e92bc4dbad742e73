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

package testing

import (
	"context"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/jishu-edu/jishu-client/lib/logger"
)

const defaultTestTimeout = 5 * time.Second

// Suite is a testify suite whose tests run under a per-test context with a deadline.
type Suite struct {
	suite.Suite
	ctx context.Context
}

// SetContext sets the context of the current test. The context carries a logger with
// the test name.
func (s *Suite) SetContext(timeout time.Duration) context.Context {
	t := s.T()
	t.Helper()
	require.Nil(t, s.ctx, "Context cannot be set twice")

	ctx, _ := logger.WithField(context.Background(), "test", t.Name())
	ctx, cancel := context.WithTimeout(ctx, timeout)
	t.Cleanup(func() {
		cancel()
		s.ctx = nil
	})
	s.ctx = ctx
	return ctx
}

// Ctx returns the context of the current test, five seconds long unless set by SetContext.
func (s *Suite) Ctx() context.Context {
	t := s.T()
	t.Helper()
	if ctx := s.ctx; ctx != nil {
		return ctx
	}
	return s.SetContext(defaultTestTimeout)
}
