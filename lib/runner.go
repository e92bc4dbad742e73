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
	"runtime"
)

// PrintVersion writes the app version line to w.
func PrintVersion(w io.Writer, appName string, version string, gitref string) {
	if gitref != "" {
		fmt.Fprintf(w, "%v v%v git:%v %v\n", appName, version, gitref, runtime.Version())
	} else {
		fmt.Fprintf(w, "%v v%v %v\n", appName, version, runtime.Version())
	}
}
