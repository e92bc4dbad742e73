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
	"os"

	"github.com/alecthomas/kong"

	"github.com/jishu-edu/jishu-client/lib"
	"github.com/jishu-edu/jishu-client/lib/logger"
)

const (
	appName        = "jishu"
	appDescription = "Command-line client for the Jishu exam preparation platform"
)

func main() {
	logger.Init()

	var cli CLI
	ctx := kong.Parse(
		&cli,
		kong.UsageOnError(),
		kong.Configuration(KongTOMLResolver),
		kong.Name(appName),
		kong.Description(appDescription),
	)

	app, err := NewApp(&cli, os.Stdout)
	if err == nil {
		// See respective commands Run() methods
		err = ctx.Run(app)
		app.Close()
	}
	if err != nil {
		// With --debug the logger runs at debug severity and Bail logs the full report.
		os.Exit(lib.Bail(os.Stderr, err))
	}
}
