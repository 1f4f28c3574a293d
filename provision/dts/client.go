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

package dts

import (
	"context"
	"time"

	datatransfer "cloud.google.com/go/bigquery/datatransfer/apiv1"
	"cloud.google.com/go/bigquery/datatransfer/apiv1/datatransferpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"

	"github.com/google/assortment-quality-for-shopping-ads/common/errors"
)

// MaxRetries is how many times a failed read RPC is retried.
const MaxRetries = 3

var retryCodes = []codes.Code{
	codes.Unavailable,
	codes.DeadlineExceeded,
	codes.ResourceExhausted,
}

// boundedRetryer retries transient codes at most max times.
type boundedRetryer struct {
	inner    gax.Retryer
	max      int
	attempts int
}

func (r *boundedRetryer) Retry(err error) (time.Duration, bool) {
	if r.attempts >= r.max {
		return 0, false
	}
	pause, ok := r.inner.Retry(err)
	if ok {
		r.attempts++
	}
	return pause, ok
}

func newRetryer() gax.Retryer {
	return &boundedRetryer{
		inner: gax.OnCodes(retryCodes, gax.Backoff{
			Initial:    500 * time.Millisecond,
			Max:        10 * time.Second,
			Multiplier: 2,
		}),
		max: MaxRetries,
	}
}

// Client talks to the BigQuery Data Transfer Service.
type Client struct {
	c        *datatransfer.Client
	readOpts []gax.CallOption
}

// NewClient creates a client. Pass option.WithTokenSource to authenticate.
func NewClient(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	c, err := datatransfer.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Annotate(err, "creating the Data Transfer client").Err()
	}
	return &Client{
		c:        c,
		readOpts: []gax.CallOption{gax.WithRetry(newRetryer)},
	}, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.c.Close()
}

// ListTransferConfigs lists all transfer configs under
// "projects/<p>/locations/<r>", in service order.
func (c *Client) ListTransferConfigs(ctx context.Context, parent string) ([]*datatransferpb.TransferConfig, error) {
	it := c.c.ListTransferConfigs(ctx, &datatransferpb.ListTransferConfigsRequest{Parent: parent}, c.readOpts...)
	var out []*datatransferpb.TransferConfig
	for {
		cfg, err := it.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, errors.Annotate(err, "listing transfer configs").Err()
		}
		out = append(out, cfg)
	}
}

// CreateTransferConfig creates a transfer config under parent. It is never
// retried.
func (c *Client) CreateTransferConfig(ctx context.Context, parent string, spec TransferSpec) (*datatransferpb.TransferConfig, error) {
	cfg, err := spec.ToProto()
	if err != nil {
		return nil, err
	}
	return c.c.CreateTransferConfig(ctx, &datatransferpb.CreateTransferConfigRequest{
		Parent:         parent,
		TransferConfig: cfg,
	})
}

// ListDataSources lists the data sources available under parent, e.g.
// "projects/<p>".
func (c *Client) ListDataSources(ctx context.Context, parent string) ([]*datatransferpb.DataSource, error) {
	it := c.c.ListDataSources(ctx, &datatransferpb.ListDataSourcesRequest{Parent: parent}, c.readOpts...)
	var out []*datatransferpb.DataSource
	for {
		ds, err := it.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, errors.Annotate(err, "listing data sources").Err()
		}
		out = append(out, ds)
	}
}

// CheckValidCreds reports whether the service holds valid credentials for
// the data source name, e.g.
// "projects/<p>/locations/<r>/dataSources/merchant_center".
func (c *Client) CheckValidCreds(ctx context.Context, name string) (bool, error) {
	resp, err := c.c.CheckValidCreds(ctx, &datatransferpb.CheckValidCredsRequest{Name: name}, c.readOpts...)
	if err != nil {
		return false, errors.Annotate(err, "checking credentials of %q", name).Err()
	}
	return resp.GetHasValidCreds(), nil
}
