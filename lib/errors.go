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

package lib

import (
	"context"
	"errors"

	"github.com/gravitational/trace"
)

// IsCanceled reports whether err was caused by a canceled context.
func IsCanceled(err error) bool {
	return errors.Is(trace.Unwrap(err), context.Canceled) || errors.Is(err, context.Canceled)
}

// IsDeadline reports whether err was caused by an expired context deadline.
func IsDeadline(err error) bool {
	return errors.Is(trace.Unwrap(err), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded)
}
