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
	"fmt"
	"regexp"
	"strings"

	"github.com/gravitational/trace"
	"github.com/manifoldco/promptui"

	"github.com/jishu-edu/jishu-client/api"
	"github.com/jishu-edu/jishu-client/common/auth/state"
	"github.com/jishu-edu/jishu-client/lib"
)

var otpPattern = regexp.MustCompile(`^[0-9]{4,8}$`)

// VersionCmd prints the client version
type VersionCmd struct{}

func (c *VersionCmd) Run(app *App) error {
	lib.PrintVersion(app.out, appName, Version, Gitref)
	return nil
}

// ConfigureCmd prints an example configuration file
type ConfigureCmd struct{}

func (c *ConfigureCmd) Run(app *App) error {
	_, err := fmt.Fprint(app.out, exampleConfig)
	return trace.Wrap(err)
}

// OTPCmd requests a one-time password
type OTPCmd struct {
	Email string `arg:"true" help:"Account email"`
}

func (c *OTPCmd) Run(app *App) error {
	session, err := app.Session()
	if err != nil {
		return trace.Wrap(err)
	}
	message, err := session.RequestOTP(app.Context(), c.Email)
	if err != nil {
		return trace.Wrap(err)
	}
	if message == "" {
		message = "OTP sent"
	}
	fmt.Fprintf(app.out, "%s to %s\n", strings.TrimSuffix(message, "."), c.Email)
	return nil
}

// LoginCmd signs in with an OTP
type LoginCmd struct {
	Email string `arg:"true" help:"Account email"`

	// OTP is prompted for when omitted
	OTP string `help:"One-time password from the email" name:"otp"`

	// SendOTP requests the password before prompting for it
	SendOTP bool `help:"Email a one-time password before prompting for it" name:"send-otp"`
}

func (c *LoginCmd) Run(app *App) error {
	session, err := app.Session()
	if err != nil {
		return trace.Wrap(err)
	}
	ctx := app.Context()

	if c.SendOTP {
		if _, err := session.RequestOTP(ctx, c.Email); err != nil {
			return trace.Wrap(err)
		}
		fmt.Fprintf(app.out, "OTP sent to %s\n", c.Email)
	}

	otp, err := promptOTP(c.OTP)
	if err != nil {
		return trace.Wrap(err)
	}
	creds, err := session.Login(ctx, c.Email, otp)
	if err != nil {
		return trace.Wrap(err)
	}
	printSignedIn(app, &creds.User)
	return nil
}

// RegisterCmd creates an account
type RegisterCmd struct {
	Email    string `arg:"true" help:"Account email"`
	Name     string `help:"Full name" required:"true"`
	MobileNo string `help:"Mobile number" name:"mobile-no"`
	OTP      string `help:"One-time password from the email" name:"otp"`
}

func (c *RegisterCmd) Run(app *App) error {
	session, err := app.Session()
	if err != nil {
		return trace.Wrap(err)
	}
	otp, err := promptOTP(c.OTP)
	if err != nil {
		return trace.Wrap(err)
	}
	creds, err := session.Register(app.Context(), api.RegisterRequest{
		Email:    c.Email,
		OTP:      otp,
		Name:     c.Name,
		MobileNo: c.MobileNo,
	})
	if err != nil {
		return trace.Wrap(err)
	}
	printSignedIn(app, &creds.User)
	return nil
}

// LogoutCmd signs out
type LogoutCmd struct{}

func (c *LogoutCmd) Run(app *App) error {
	session, err := app.Session()
	if err != nil {
		return trace.Wrap(err)
	}
	if err := session.Logout(app.Context()); err != nil {
		return trace.Wrap(err)
	}
	fmt.Fprintln(app.out, "Signed out")
	return nil
}

// WhoamiCmd shows the stored user
type WhoamiCmd struct {
	Refresh bool `help:"Fetch the profile from the backend first"`
}

func (c *WhoamiCmd) Run(app *App) error {
	session, err := app.Session()
	if err != nil {
		return trace.Wrap(err)
	}
	ctx := app.Context()

	creds, err := session.Current(ctx)
	if trace.IsNotFound(err) {
		fmt.Fprintln(app.out, "Not signed in")
		return nil
	}
	if err != nil {
		return trace.Wrap(err)
	}

	user := &creds.User
	if c.Refresh {
		if user, err = session.RefreshProfile(ctx); err != nil {
			return trace.Wrap(err)
		}
	}
	printProfile(app.out, user)
	return nil
}

// ProfileCmd updates profile fields
type ProfileCmd struct {
	Set []string `arg:"true" help:"Fields to change as key=value, e.g. name=Asha city=Pune"`
}

func (c *ProfileCmd) Run(app *App) error {
	patch, err := parseAssignments(c.Set)
	if err != nil {
		return trace.Wrap(err)
	}
	session, err := app.Session()
	if err != nil {
		return trace.Wrap(err)
	}
	user, err := session.UpdateProfile(app.Context(), patch)
	if err != nil {
		return trace.Wrap(err)
	}
	printProfile(app.out, user)
	return nil
}

func parseAssignments(assignments []string) (map[string]interface{}, error) {
	patch := make(map[string]interface{}, len(assignments))
	for _, assignment := range assignments {
		key, value, ok := strings.Cut(assignment, "=")
		if !ok || key == "" {
			return nil, trace.BadParameter("expected key=value, got %q", assignment)
		}
		patch[key] = value
	}
	return patch, nil
}

func promptOTP(otp string) (string, error) {
	if otp != "" {
		return otp, nil
	}
	prompt := promptui.Prompt{
		Label: "One-time password",
		Mask:  '*',
		Validate: func(input string) error {
			if !otpPattern.MatchString(input) {
				return trace.BadParameter("the password is 4 to 8 digits")
			}
			return nil
		},
	}
	result, err := prompt.Run()
	if err != nil {
		return "", trace.Wrap(err)
	}
	return result, nil
}

func printSignedIn(app *App, user *state.UserProfile) {
	name := user.Name
	if name == "" {
		name = user.Email
	}
	fmt.Fprintf(app.out, "Signed in as %s <%s>\n", name, user.Email)
}
