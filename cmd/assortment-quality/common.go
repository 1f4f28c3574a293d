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

package main

import (
	"context"
	"os"

	"github.com/maruel/subcommands"
	"github.com/mitchellh/go-homedir"
	"google.golang.org/api/option"

	"github.com/google/assortment-quality-for-shopping-ads/auth"
	"github.com/google/assortment-quality-for-shopping-ads/auth/authcli"
	"github.com/google/assortment-quality-for-shopping-ads/common/cli"
	"github.com/google/assortment-quality-for-shopping-ads/common/errors"
	"github.com/google/assortment-quality-for-shopping-ads/common/logging"
	"github.com/google/assortment-quality-for-shopping-ads/provision"
	"github.com/google/assortment-quality-for-shopping-ads/provision/bq"
	"github.com/google/assortment-quality-for-shopping-ads/provision/dts"
	"github.com/google/assortment-quality-for-shopping-ads/provision/reconcile"
	"github.com/google/assortment-quality-for-shopping-ads/provision/services"
	"github.com/google/assortment-quality-for-shopping-ads/provision/sqltmpl"
)

// dashboardTemplateURL is the Data Studio report to copy once the tables
// are populated.
const dashboardTemplateURL = "https://datastudio.google.com/reporting/53894476-b1df-4cd5-85c7-2636fc0e6025"

// commonFlags are shared by both provisioning subcommands.
type commonFlags struct {
	subcommands.CommandRunBase

	authFlags      authcli.Flags
	parsedAuthOpts auth.Options

	opts       provision.Options
	sqlDir     string
	dryRun     bool
	enableAPIs bool
}

func (c *commonFlags) Init(authOpts auth.Options) {
	c.authFlags.Register(&c.Flags, authOpts)
	c.stringFlag(&c.opts.ProjectID, "p", "project_id", "A Google Cloud Platform project ID.")
	c.stringFlag(&c.opts.MerchantID, "m", "gmc_id", "A Google Merchant Center ID.")
	c.stringFlag(&c.opts.Dataset, "d", "dataset", "A BigQuery dataset name, created if missing.")
	c.Flags.StringVar(&c.sqlDir, "sql-dir", "",
		"Directory holding the SQL templates. Defaults to $"+sqlDirEnvVar+" or \"sql\".")
	c.Flags.BoolVar(&c.dryRun, "dry-run", false, "Only report what would be created.")
	c.Flags.BoolVar(&c.enableAPIs, "enable-apis", true,
		"Enable the BigQuery and BigQuery Data Transfer APIs on the project if needed.")
}

// stringFlag registers a flag under a short and a long name.
func (c *commonFlags) stringFlag(p *string, short, long, usage string) {
	c.Flags.StringVar(p, short, "", usage)
	c.Flags.StringVar(p, long, "", "Same as -"+short+".")
}

func (c *commonFlags) Parse(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errors.Reason("unexpected positional arguments %q", args).Err()
	}
	var err error
	if c.parsedAuthOpts, err = c.authFlags.Options(); err != nil {
		return err
	}
	if c.sqlDir == "" {
		c.sqlDir = cli.Getenv(ctx, sqlDirEnvVar)
	}
	if c.sqlDir == "" {
		c.sqlDir = "sql"
	}
	if c.sqlDir, err = homedir.Expand(c.sqlDir); err != nil {
		return errors.Annotate(err, "bad -sql-dir").Err()
	}
	c.opts.EnableAPIs = c.enableAPIs
	return nil
}

type requiredFlag struct {
	name  string
	value string
}

// requireFlags returns an error naming the first empty flag.
func requireFlags(flags ...requiredFlag) error {
	for _, f := range flags {
		if f.value == "" {
			return errors.Reason("-%s is required", f.name).Err()
		}
	}
	return nil
}

// provisioner authenticates and builds the API clients.
func (c *commonFlags) provisioner(ctx context.Context) (*provision.Provisioner, func(), error) {
	ts, err := auth.NewAuthenticator(ctx, auth.InteractiveLogin, c.parsedAuthOpts).TokenSource()
	if err != nil {
		return nil, nil, errors.Annotate(err, "authenticating").Err()
	}
	clientOpt := option.WithTokenSource(ts)

	transfers, err := dts.NewClient(ctx, clientOpt)
	if err != nil {
		return nil, nil, err
	}
	datasets, err := bq.NewClient(ctx, c.opts.ProjectID, clientOpt)
	if err != nil {
		transfers.Close()
		return nil, nil, err
	}
	p := &provision.Provisioner{
		Transfers: transfers,
		Datasets:  datasets,
		Templates: &sqltmpl.Loader{FS: os.DirFS(c.sqlDir), Dir: c.sqlDir},
		Options:   c.opts,
	}
	if c.opts.EnableAPIs {
		svc, err := services.NewClient(ctx, clientOpt)
		if err != nil {
			transfers.Close()
			datasets.Close()
			return nil, nil, err
		}
		p.Services = svc
	}
	return p, func() {
		transfers.Close()
		datasets.Close()
	}, nil
}

// execute runs fn against a fully configured Provisioner.
func (c *commonFlags) execute(ctx context.Context, fn func(*provision.Provisioner, context.Context) (*provision.Report, error)) error {
	p, done, err := c.provisioner(ctx)
	if err != nil {
		return err
	}
	defer done()

	if c.dryRun {
		ctx = reconcile.WithDryRun(ctx)
	}
	report, err := fn(p, ctx)
	if err != nil {
		return err
	}
	for _, f := range report.Failures() {
		logging.Warningf(ctx, "Not created: %s %q: %s", f.Kind, f.Key, f.Err)
	}
	if !c.dryRun {
		logging.Infof(ctx, "Once the transfers have run, copy the dashboard from %s", dashboardTemplateURL)
	}
	return nil
}

func (c *commonFlags) run(cmd subcommands.CommandRun, a subcommands.Application, args []string, env subcommands.Env,
	parse func(context.Context, []string) error,
	fn func(*provision.Provisioner, context.Context) (*provision.Report, error)) int {

	ctx := cli.GetContext(a, cmd, env)
	if err := parse(ctx, args); err != nil {
		logging.WithError(err).Errorf(ctx, "Error while parsing arguments")
		return 1
	}
	logging.Infof(ctx, "Launching Assortment Quality ...")
	if err := c.execute(ctx, fn); err != nil {
		logging.WithError(err).Errorf(ctx, "Error while provisioning")
		return 1
	}
	return 0
}
