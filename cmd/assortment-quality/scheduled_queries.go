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

	"github.com/maruel/subcommands"

	"github.com/google/assortment-quality-for-shopping-ads/auth"
	"github.com/google/assortment-quality-for-shopping-ads/common/errors"
	"github.com/google/assortment-quality-for-shopping-ads/provision"
)

func cmdScheduledQueries(authOpts auth.Options) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "scheduled-queries -p <project> -m <gmc id> -r <region> -d <dataset> -l <language> -c <country> -e <days>",
		ShortDesc: "creates the Merchant Center transfer and the metric scheduled queries",
		LongDesc: `Makes sure the project has the dataset, the Merchant Center data transfer
and one scheduled query per metric, creating whatever is missing.

Existing resources are never modified. To replace one, delete it from the
Cloud Console and run this command again.`,
		CommandRun: func() subcommands.CommandRun {
			c := &scheduledQueriesRun{}
			c.Init(authOpts)
			return c
		},
	}
}

type scheduledQueriesRun struct {
	commonFlags
	expiration int
}

func (c *scheduledQueriesRun) Init(authOpts auth.Options) {
	c.commonFlags.Init(authOpts)
	c.stringFlag(&c.opts.Region, "r", "region", "A Google Cloud Platform region name, e.g. EU.")
	c.stringFlag(&c.opts.Language, "l", "language",
		"The language used in the final template (e.g. en-US). Comma separated values select several.")
	c.stringFlag(&c.opts.Country, "c", "country", "The country on which the rankings are calculated. Comma separated values select several.")
	c.Flags.IntVar(&c.expiration, "e", -1, "Number of days before the table partitions expire.")
	c.Flags.IntVar(&c.expiration, "expiration_time", -1, "Same as -e.")
}

func (c *scheduledQueriesRun) Parse(ctx context.Context, args []string) error {
	if err := c.commonFlags.Parse(ctx, args); err != nil {
		return err
	}
	err := requireFlags(
		requiredFlag{"project_id", c.opts.ProjectID},
		requiredFlag{"gmc_id", c.opts.MerchantID},
		requiredFlag{"region", c.opts.Region},
		requiredFlag{"dataset", c.opts.Dataset},
		requiredFlag{"language", c.opts.Language},
		requiredFlag{"country", c.opts.Country},
	)
	if err != nil {
		return err
	}
	if c.expiration < 0 {
		return errors.New("-expiration_time is required")
	}
	c.opts.ExpirationDays = c.expiration
	return c.opts.ValidateScheduledQueries()
}

func (c *scheduledQueriesRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	return c.run(c, a, args, env, c.Parse, (*provision.Provisioner).RunScheduledQueries)
}
