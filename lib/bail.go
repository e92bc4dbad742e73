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
	"fmt"
	"io"

	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
)

// Bail reports err to the user on w, every error of an aggregate on its own line, and
// returns the process exit code.
func Bail(w io.Writer, err error) int {
	errs := []error{err}
	if agg, ok := trace.Unwrap(err).(trace.Aggregate); ok {
		errs = agg.Errors()
	}
	for _, err := range errs {
		log.Debug(trace.DebugReport(err))
		fmt.Fprintf(w, "ERROR: %s\n", trace.UserMessage(err))
	}
	return 1
}
