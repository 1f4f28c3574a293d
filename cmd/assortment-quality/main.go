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

// Command assortment-quality provisions the BigQuery resources behind the
// Assortment Quality for Shopping Ads dashboards.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/maruel/subcommands"

	"github.com/google/assortment-quality-for-shopping-ads/auth"
	"github.com/google/assortment-quality-for-shopping-ads/auth/authcli"
	"github.com/google/assortment-quality-for-shopping-ads/common/cli"
	"github.com/google/assortment-quality-for-shopping-ads/common/logging"
	"github.com/google/assortment-quality-for-shopping-ads/common/logging/gologger"
)

const sqlDirEnvVar = "AQ_SQL_DIR"

var defaultAuthOpts = auth.Options{
	ClientSecretsPath: "client_secret.json",
	CredentialsPath:   "credentials.dat",
	Scopes:            auth.DefaultScopes,
}

func getApplication(logCfg *logging.Config) *cli.Application {
	return &cli.Application{
		Name:  "assortment-quality",
		Title: "Provisions the BigQuery resources of the Assortment Quality dashboards.",
		Context: func(ctx context.Context) context.Context {
			ctx = gologger.StdConfig.Use(ctx)
			return logCfg.Set(ctx)
		},
		Commands: []*subcommands.Command{
			subcommands.CmdHelp,
			cmdScheduledQueries(defaultAuthOpts),
			cmdViews(defaultAuthOpts),
			authcli.SubcommandLogin(defaultAuthOpts, "login", false),
			authcli.SubcommandLogout(defaultAuthOpts, "logout", false),
			authcli.SubcommandInfo(defaultAuthOpts, "info", false),
		},
		EnvVars: map[string]subcommands.EnvVarDefinition{
			sqlDirEnvVar: {
				ShortDesc: "Directory holding the SQL templates, used when -sql-dir is not given.",
				Default:   "sql",
			},
		},
	}
}

func main() {
	logCfg := logging.Config{Level: logging.Info}
	logCfg.AddFlags(flag.CommandLine)
	flag.Parse()
	os.Exit(subcommands.Run(getApplication(&logCfg), flag.Args()))
}
