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

// Package bq wraps the BigQuery client calls used during provisioning.
package bq

import (
	"context"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"gopkg.in/go-playground/validator.v9"

	"github.com/google/assortment-quality-for-shopping-ads/common/errors"
)

const msPerDay = 24 * 60 * 60 * 1000

var validate = validator.New()

// DatasetSpec describes a dataset to create.
type DatasetSpec struct {
	ProjectID string `validate:"required"`
	DatasetID string `validate:"required"`
	Location  string `validate:"required"`
	// PartitionExpirationDays is the default partition expiration of the
	// tables in the dataset. Zero means no expiration.
	PartitionExpirationDays int `validate:"min=0"`
}

// Validate returns an error if the spec is incomplete.
func (s *DatasetSpec) Validate() error {
	if err := validate.Struct(s); err != nil {
		return errors.Annotate(err, "bad dataset %s", s.Key()).Err()
	}
	return nil
}

// Key is the natural key of the dataset, "<project>:<dataset>".
func (s *DatasetSpec) Key() string {
	return s.ProjectID + ":" + s.DatasetID
}

// PartitionExpirationMs is the default partition expiration in milliseconds.
func (s *DatasetSpec) PartitionExpirationMs() int64 {
	return int64(s.PartitionExpirationDays) * msPerDay
}

// Metadata converts the spec to the client library representation.
func (s *DatasetSpec) Metadata() *bigquery.DatasetMetadata {
	md := &bigquery.DatasetMetadata{Location: s.Location}
	if ms := s.PartitionExpirationMs(); ms > 0 {
		md.DefaultPartitionExpiration = time.Duration(ms) * time.Millisecond
	}
	return md
}

// DatasetKey returns the natural key of an existing dataset.
func DatasetKey(ds *bigquery.Dataset) string {
	return ds.ProjectID + ":" + ds.DatasetID
}

// Client manages datasets and views of one project.
type Client struct {
	c *bigquery.Client
}

// NewClient creates a client billed to projectID.
func NewClient(ctx context.Context, projectID string, opts ...option.ClientOption) (*Client, error) {
	c, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, errors.Annotate(err, "creating the BigQuery client").Err()
	}
	return &Client{c: c}, nil
}

// Close releases the client.
func (c *Client) Close() error {
	return c.c.Close()
}

// ListDatasets lists the datasets of a project, including hidden ones.
func (c *Client) ListDatasets(ctx context.Context, projectID string) ([]*bigquery.Dataset, error) {
	it := c.c.Datasets(ctx)
	it.ProjectID = projectID
	it.ListHidden = true
	var out []*bigquery.Dataset
	for {
		ds, err := it.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, errors.Annotate(err, "listing datasets of %q", projectID).Err()
		}
		out = append(out, ds)
	}
}

// CreateDataset creates the dataset described by spec.
func (c *Client) CreateDataset(ctx context.Context, spec DatasetSpec) (*bigquery.Dataset, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	ds := c.c.DatasetInProject(spec.ProjectID, spec.DatasetID)
	if err := ds.Create(ctx, spec.Metadata()); err != nil {
		return nil, err
	}
	return ds, nil
}

// ListTables lists the tables and views of a dataset.
func (c *Client) ListTables(ctx context.Context, projectID, datasetID string) ([]*bigquery.Table, error) {
	it := c.c.DatasetInProject(projectID, datasetID).Tables(ctx)
	var out []*bigquery.Table
	for {
		t, err := it.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, errors.Annotate(err, "listing tables of %s:%s", projectID, datasetID).Err()
		}
		out = append(out, t)
	}
}

// CreateView creates a standard SQL view.
func (c *Client) CreateView(ctx context.Context, projectID, datasetID, viewID, query string) (*bigquery.Table, error) {
	if viewID == "" || query == "" {
		return nil, errors.Reason("view id and query are required").Err()
	}
	t := c.c.DatasetInProject(projectID, datasetID).Table(viewID)
	if err := t.Create(ctx, &bigquery.TableMetadata{ViewQuery: query}); err != nil {
		return nil, err
	}
	return t, nil
}
