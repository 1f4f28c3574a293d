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

// Package services enables the Google Cloud APIs the provisioned resources
// depend on, using the Service Usage API.
package services

import (
	"context"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/serviceusage/v1"

	"github.com/google/assortment-quality-for-shopping-ads/common/errors"
	"github.com/google/assortment-quality-for-shopping-ads/common/logging"
	"github.com/google/assortment-quality-for-shopping-ads/common/retry"
)

// Required lists the services used by the provisioned resources.
var Required = []string{
	"bigquery.googleapis.com",
	"bigquerydatatransfer.googleapis.com",
}

// Service is an enabled service of a project.
type Service struct {
	// Name is the service name, e.g. "bigquery.googleapis.com".
	Name string
	// Resource is the full resource name, e.g.
	// "projects/123/services/bigquery.googleapis.com".
	Resource string
}

var errPending = errors.New("operation is still running", retry.Transient)

// DefaultPoll is the policy used to wait for an enable operation.
func DefaultPoll() retry.Iterator {
	return &retry.ExponentialBackoff{
		Limited: retry.Limited{
			Delay:   time.Second,
			Retries: 30,
		},
		Multiplier: 1.5,
		MaxDelay:   10 * time.Second,
	}
}

// Client talks to the Service Usage API.
type Client struct {
	svc *serviceusage.Service

	// Poll controls how the enable operation is waited for.
	Poll retry.Factory
}

// NewClient creates a client. Pass option.WithTokenSource to authenticate.
func NewClient(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	svc, err := serviceusage.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Annotate(err, "creating the Service Usage client").Err()
	}
	return &Client{svc: svc, Poll: DefaultPoll}, nil
}

// ListEnabled lists the enabled services of parent, e.g. "projects/p1".
func (c *Client) ListEnabled(ctx context.Context, parent string) ([]*Service, error) {
	var out []*Service
	err := c.svc.Services.List(parent).Filter("state:ENABLED").Pages(ctx, func(resp *serviceusage.ListServicesResponse) error {
		for _, s := range resp.Services {
			out = append(out, &Service{Name: serviceName(s), Resource: s.Name})
		}
		return nil
	})
	if err != nil {
		return nil, errors.Annotate(err, "listing enabled services of %q", parent).Err()
	}
	return out, nil
}

// Enable enables the service name under parent and waits until done.
func (c *Client) Enable(ctx context.Context, parent, name string) (*Service, error) {
	resource := parent + "/services/" + name
	op, err := c.svc.Services.Enable(resource, &serviceusage.EnableServiceRequest{}).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	err = retry.Retry(ctx, retry.OnlyTransient(c.Poll), func() error {
		if !op.Done {
			next, err := c.svc.Operations.Get(op.Name).Context(ctx).Do()
			if err != nil {
				return errors.Annotate(err, "polling %q", op.Name).Err()
			}
			op = next
		}
		if !op.Done {
			return errPending
		}
		if op.Error != nil {
			return errors.Reason("enabling %s failed: %s", name, op.Error.Message).Err()
		}
		return nil
	}, func(err error, d time.Duration) {
		logging.Debugf(ctx, "Waiting %s for %s to be enabled", d, name)
	})
	if err != nil {
		return nil, err
	}
	return &Service{Name: name, Resource: resource}, nil
}

func serviceName(s *serviceusage.GoogleApiServiceusageV1Service) string {
	if s.Config != nil && s.Config.Name != "" {
		return s.Config.Name
	}
	return s.Name[strings.LastIndex(s.Name, "/")+1:]
}
