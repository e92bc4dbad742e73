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
	"time"

	"github.com/alecthomas/kong"
)

// APIConfig is the backend connection configuration
type APIConfig struct {
	// APIURL is the backend address
	APIURL string `help:"Jishu backend address" name:"api-url" default:"http://localhost:5000" env:"JISHU_API_URL"`

	// APITimeout bounds every backend request
	APITimeout time.Duration `help:"Backend request timeout" name:"api-timeout" default:"30s" env:"JISHU_API_TIMEOUT"`
}

// StorageConfig is the session storage configuration
type StorageConfig struct {
	// StorageDir is the directory the session is kept in
	StorageDir string `help:"Session storage directory (default: ~/.jishu)" name:"storage-dir" env:"JISHU_STORAGE_DIR"`

	// Ephemeral keeps the session in memory
	Ephemeral bool `help:"Keep the session in memory only, for a single command" env:"JISHU_EPHEMERAL"`
}

// LogConfig is the logging configuration
type LogConfig struct {
	// LogSeverity is the minimal severity of logged messages
	LogSeverity string `help:"Log severity" name:"log-severity" default:"warn" enum:"trace,debug,info,warn,warning,error" env:"JISHU_LOG_SEVERITY"`

	// LogOutput is stderr, stdout or a file path
	LogOutput string `help:"Log output: stderr, stdout or a file path" name:"log-output" default:"stderr" env:"JISHU_LOG_OUTPUT"`
}

// GoogleConfig is the Google sign-in configuration
type GoogleConfig struct {
	// GoogleClientID is the OAuth client id of the installed app
	GoogleClientID string `help:"Google OAuth client id" name:"google-client-id" env:"JISHU_GOOGLE_CLIENT_ID"`

	// GoogleClientSecret is the OAuth client secret of the installed app
	GoogleClientSecret string `help:"Google OAuth client secret" name:"google-client-secret" env:"JISHU_GOOGLE_CLIENT_SECRET"`
}

// CLI represents command structure
type CLI struct {
	// Config is the path to configuration file
	Config kong.ConfigFlag `help:"Path to TOML configuration file" optional:"true" type:"existingfile" env:"JISHU_CONFIG"`

	// Debug is a debug logging mode flag
	Debug bool `help:"Debug logging and error reports" short:"d" env:"JISHU_DEBUG"`

	APIConfig
	StorageConfig
	LogConfig
	GoogleConfig

	Version   VersionCmd   `cmd:"true" help:"Print client version"`
	Configure ConfigureCmd `cmd:"true" help:"Print an example TOML configuration file"`

	OTP         OTPCmd         `cmd:"true" name:"otp" help:"Email a one-time password"`
	Login       LoginCmd       `cmd:"true" help:"Sign in with an emailed one-time password"`
	Register    RegisterCmd    `cmd:"true" help:"Create an account"`
	GoogleLogin GoogleLoginCmd `cmd:"true" name:"google-login" help:"Sign in with Google"`
	Logout      LogoutCmd      `cmd:"true" help:"Sign out and forget the stored session"`
	Whoami      WhoamiCmd      `cmd:"true" help:"Show the signed-in user"`
	Profile     ProfileCmd     `cmd:"true" help:"Update the signed-in user's profile"`

	Courses  CoursesCmd  `cmd:"true" help:"List courses"`
	Subjects SubjectsCmd `cmd:"true" help:"List the subjects of a course"`

	Diagnose DiagnoseCmd `cmd:"true" help:"Check connectivity to the backend"`
}
