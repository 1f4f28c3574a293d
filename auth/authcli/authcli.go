// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package authcli implements authentication related flags and subcommands.
package authcli

import (
	"context"
	"flag"
	"fmt"
	"github.com/dustin/go-humanize"
	"github.com/maruel/subcommands"
	"github.com/mitchellh/go-homedir"

	"github.com/google/assortment-quality-for-shopping-ads/auth"
	"github.com/google/assortment-quality-for-shopping-ads/common/cli"
	"github.com/google/assortment-quality-for-shopping-ads/common/errors"
	"github.com/google/assortment-quality-for-shopping-ads/common/logging"
)

// Flags defines command line flags related to the credentials.
type Flags struct {
	defaults auth.Options

	clientSecrets string
	credentials   string
}

// Register adds auth related flags to a FlagSet.
func (fl *Flags) Register(f *flag.FlagSet, defaults auth.Options) {
	fl.defaults = defaults
	f.StringVar(&fl.clientSecrets, "client-secrets", defaults.ClientSecretsPath,
		"Path to the OAuth client JSON file (Desktop app) downloaded from the Cloud Console.")
	f.StringVar(&fl.credentials, "credentials", defaults.CredentialsPath,
		"Path to the file caching the user credentials between runs.")
}

// Options returns auth.Options populated based on parsed command line flags.
func (fl *Flags) Options() (auth.Options, error) {
	opts := fl.defaults
	var err error
	if opts.ClientSecretsPath, err = homedir.Expand(fl.clientSecrets); err != nil {
		return auth.Options{}, errors.Annotate(err, "bad -client-secrets").Err()
	}
	if opts.CredentialsPath, err = homedir.Expand(fl.credentials); err != nil {
		return auth.Options{}, errors.Annotate(err, "bad -credentials").Err()
	}
	return opts, nil
}

// SubcommandLogin returns subcommands.Command that can be used to perform
// the interactive login.
func SubcommandLogin(opts auth.Options, name string, advanced bool) *subcommands.Command {
	return &subcommands.Command{
		Advanced:  advanced,
		UsageLine: name,
		ShortDesc: "performs the interactive login flow",
		LongDesc:  "Performs the interactive login flow and caches the credentials.",
		CommandRun: func() subcommands.CommandRun {
			c := &loginRun{}
			c.flags.Register(&c.Flags, opts)
			return c
		},
	}
}

type loginRun struct {
	subcommands.CommandRunBase
	flags Flags
}

func (c *loginRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	opts, err := c.flags.Options()
	if err != nil {
		fmt.Fprintln(a.GetErr(), err)
		return 1
	}
	if err := auth.NewAuthenticator(ctx, auth.InteractiveLogin, opts).Login(); err != nil {
		logging.WithError(err).Errorf(ctx, "Login failed")
		return 1
	}
	return 0
}

// SubcommandLogout returns subcommands.Command that can be used to purge
// cached credentials.
func SubcommandLogout(opts auth.Options, name string, advanced bool) *subcommands.Command {
	return &subcommands.Command{
		Advanced:  advanced,
		UsageLine: name,
		ShortDesc: "removes cached credentials",
		LongDesc:  "Removes the credential cache file.",
		CommandRun: func() subcommands.CommandRun {
			c := &logoutRun{}
			c.flags.Register(&c.Flags, opts)
			return c
		},
	}
}

type logoutRun struct {
	subcommands.CommandRunBase
	flags Flags
}

func (c *logoutRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	opts, err := c.flags.Options()
	if err != nil {
		fmt.Fprintln(a.GetErr(), err)
		return 1
	}
	if err := auth.NewAuthenticator(ctx, auth.SilentLogin, opts).Logout(); err != nil {
		logging.WithError(err).Errorf(ctx, "Logout failed")
		return 1
	}
	return 0
}

// SubcommandInfo returns subcommands.Command that can be used to print the
// state of the cached credentials.
func SubcommandInfo(opts auth.Options, name string, advanced bool) *subcommands.Command {
	return &subcommands.Command{
		Advanced:  advanced,
		UsageLine: name,
		ShortDesc: "prints the state of the cached credentials",
		LongDesc:  "Prints whether the credential cache holds a usable token, refreshing it if needed.",
		CommandRun: func() subcommands.CommandRun {
			c := &infoRun{}
			c.flags.Register(&c.Flags, opts)
			return c
		},
	}
}

type infoRun struct {
	subcommands.CommandRunBase
	flags Flags
}

func (c *infoRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	opts, err := c.flags.Options()
	if err != nil {
		fmt.Fprintln(a.GetErr(), err)
		return 1
	}
	return printInfo(ctx, a, auth.NewAuthenticator(ctx, auth.SilentLogin, opts), opts)
}

func printInfo(ctx context.Context, a subcommands.Application, authenticator *auth.Authenticator, opts auth.Options) int {
	src, err := authenticator.TokenSource()
	switch {
	case err == auth.ErrLoginRequired:
		fmt.Fprintf(a.GetOut(), "Not logged in. Run the login subcommand.\n")
		return 1
	case err != nil:
		logging.WithError(err).Errorf(ctx, "Failed to get the credentials")
		return 1
	}
	tok, err := src.Token()
	if err != nil {
		logging.WithError(err).Errorf(ctx, "Failed to refresh the credentials")
		return 1
	}
	fmt.Fprintf(a.GetOut(), "Logged in.\n")
	fmt.Fprintf(a.GetOut(), "Credential cache: %s\n", opts.CredentialsPath)
	fmt.Fprintf(a.GetOut(), "Access token expires %s\n", humanize.Time(tok.Expiry))
	fmt.Fprintf(a.GetOut(), "OAuth scopes:\n")
	for _, s := range opts.Scopes {
		fmt.Fprintf(a.GetOut(), "  * %s\n", s)
	}
	return 0
}
