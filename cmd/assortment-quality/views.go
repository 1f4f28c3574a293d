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
	"github.com/google/assortment-quality-for-shopping-ads/provision"
)

func cmdViews(authOpts auth.Options) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "views -p <project> -m <gmc id> -d <dataset>",
		ShortDesc: "creates the Merchant Center transfer and the metric views",
		LongDesc: `Makes sure the project has the dataset, the Merchant Center data transfer
and one view per metric, creating whatever is missing. Everything is created
in the "eu" region.`,
		CommandRun: func() subcommands.CommandRun {
			c := &viewsRun{}
			c.Init(authOpts)
			return c
		},
	}
}

type viewsRun struct {
	commonFlags
}

func (c *viewsRun) Parse(ctx context.Context, args []string) error {
	if err := c.commonFlags.Parse(ctx, args); err != nil {
		return err
	}
	err := requireFlags(
		requiredFlag{"project_id", c.opts.ProjectID},
		requiredFlag{"gmc_id", c.opts.MerchantID},
		requiredFlag{"dataset", c.opts.Dataset},
	)
	if err != nil {
		return err
	}
	c.opts.Region = provision.ViewsRegion
	return c.opts.Validate()
}

func (c *viewsRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	return c.run(c, a, args, env, c.Parse, (*provision.Provisioner).RunViews)
}
