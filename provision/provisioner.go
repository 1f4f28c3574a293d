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

// Package provision brings a Google Cloud project to the state needed by the
// assortment quality dashboards.
//
// A run enables the required APIs, then makes sure the dataset, the Merchant
// Center transfer and either the scheduled queries or the views exist. Every
// resource goes through reconcile.Ensure, so running twice creates nothing
// new. A failed create is logged with a remediation hint and the run
// continues. A failed listing or a missing template aborts it.
package provision

import (
	"context"
	"fmt"
	"path"
	"strings"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/bigquery/datatransfer/apiv1/datatransferpb"

	"github.com/google/assortment-quality-for-shopping-ads/common/errors"
	"github.com/google/assortment-quality-for-shopping-ads/common/logging"
	"github.com/google/assortment-quality-for-shopping-ads/provision/bq"
	"github.com/google/assortment-quality-for-shopping-ads/provision/dts"
	"github.com/google/assortment-quality-for-shopping-ads/provision/reconcile"
	"github.com/google/assortment-quality-for-shopping-ads/provision/services"
	"github.com/google/assortment-quality-for-shopping-ads/provision/sqltmpl"
)

// Schedules of the created transfer configs.
const (
	MerchantCenterSchedule = "every 72 hours"
	ScheduledQuerySchedule = "every 24 hours"
)

const (
	transferHint = "Please check that your BigQuery dataset already exists and " +
		"that your Project Id and Region Name are correctly typed."
	scheduledQueryHint = transferHint + " If this is the first time you create a " +
		"Scheduled Query on this project, try to create a dummy one from the UI " +
		"(this should trigger an OAuth consent screen), then rerun."
	datasetHint = "Please check that the Project Id is correctly typed and that " +
		"you are allowed to create datasets in it."
	viewHint = "Please check that the Merchant Center transfer has run at least " +
		"once, so the tables read by the view exist."
	serviceHint = "Enable the API from the Cloud Console, or rerun with " +
		"-enable-apis=false if it is already enabled."
)

// TransferService is the subset of the Data Transfer API used here.
//
// Implemented by *dts.Client.
type TransferService interface {
	ListTransferConfigs(ctx context.Context, parent string) ([]*datatransferpb.TransferConfig, error)
	CreateTransferConfig(ctx context.Context, parent string, spec dts.TransferSpec) (*datatransferpb.TransferConfig, error)
	ListDataSources(ctx context.Context, parent string) ([]*datatransferpb.DataSource, error)
	CheckValidCreds(ctx context.Context, name string) (bool, error)
}

// DatasetService is the subset of the BigQuery API used here.
//
// Implemented by *bq.Client.
type DatasetService interface {
	ListDatasets(ctx context.Context, projectID string) ([]*bigquery.Dataset, error)
	CreateDataset(ctx context.Context, spec bq.DatasetSpec) (*bigquery.Dataset, error)
	ListTables(ctx context.Context, projectID, datasetID string) ([]*bigquery.Table, error)
	CreateView(ctx context.Context, projectID, datasetID, viewID, query string) (*bigquery.Table, error)
}

// ServiceUsage is the subset of the Service Usage API used here.
//
// Implemented by *services.Client.
type ServiceUsage interface {
	ListEnabled(ctx context.Context, parent string) ([]*services.Service, error)
	Enable(ctx context.Context, parent, name string) (*services.Service, error)
}

// Renderer renders a named SQL template.
//
// Implemented by *sqltmpl.Loader.
type Renderer interface {
	Render(name string, params sqltmpl.Params) (string, error)
}

// Provisioner holds the API clients and the options of a run.
type Provisioner struct {
	Transfers TransferService
	Datasets  DatasetService
	// Services may be nil if Options.EnableAPIs is false.
	Services  ServiceUsage
	Templates Renderer
	Options   Options
}

// RunScheduledQueries provisions the scheduled queries flavor.
func (p *Provisioner) RunScheduledQueries(ctx context.Context) (*Report, error) {
	if err := p.Options.ValidateScheduledQueries(); err != nil {
		return nil, err
	}
	return p.run(ctx, p.Options, p.ensureScheduledQueries)
}

// RunViews provisions the views flavor. The region is always ViewsRegion and
// the dataset has no partition expiration.
func (p *Provisioner) RunViews(ctx context.Context) (*Report, error) {
	opts := p.Options
	opts.Region = ViewsRegion
	opts.Language = ""
	opts.Country = ""
	opts.ExpirationDays = 0
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return p.run(ctx, opts, p.ensureViews)
}

type step func(ctx context.Context, opts Options, r *Report) error

func (p *Provisioner) run(ctx context.Context, opts Options, last step) (*Report, error) {
	ctx = logging.SetFields(ctx, logging.Fields{
		"project":  opts.ProjectID,
		"merchant": opts.MerchantID,
	})
	r := &Report{}
	steps := []struct {
		name string
		fn   step
	}{
		{"services", p.ensureServices},
		{"dataset", p.ensureDataset},
		{"transfer", p.ensureMerchantTransfer},
		{"tables", last},
	}
	for _, s := range steps {
		logging.Debugf(ctx, "Step %s", s.name)
		if err := s.fn(ctx, opts, r); err != nil {
			return r, errors.Annotate(err, "step %s", s.name).Err()
		}
	}
	logging.Infof(ctx, "Done: %s", r)
	return r, nil
}

// record adds the outcome of an Ensure to the report. Create failures are
// swallowed, any other error is returned.
func record[T any](r *Report, kind reconcile.Kind, key string, res reconcile.Result[T], err error) error {
	switch {
	case reconcile.CreateFailed.In(err):
		r.add(kind, key, Failed, err)
		return nil
	case err != nil:
		return err
	case res.Planned:
		r.add(kind, key, Planned, nil)
	case res.Created:
		r.add(kind, key, Created, nil)
	default:
		r.add(kind, key, Existing, nil)
	}
	return nil
}

func (p *Provisioner) ensureServices(ctx context.Context, opts Options, r *Report) error {
	if !opts.EnableAPIs || p.Services == nil {
		logging.Debugf(ctx, "Not enabling APIs")
		return nil
	}
	parent := "projects/" + opts.ProjectID
	for _, name := range services.Required {
		res, err := reconcile.Ensure(ctx, reconcile.Resource[*services.Service, string]{
			Kind:    reconcile.Service,
			Parent:  parent,
			Key:     name,
			Payload: name,
			List:    p.Services.ListEnabled,
			Match:   func(s *services.Service) bool { return s.Name == name },
			Create:  p.Services.Enable,
			Hint:    serviceHint,
		})
		if err := record(r, reconcile.Service, name, res, err); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provisioner) ensureDataset(ctx context.Context, opts Options, r *Report) error {
	spec := bq.DatasetSpec{
		ProjectID:               opts.ProjectID,
		DatasetID:               opts.Dataset,
		Location:                opts.Region,
		PartitionExpirationDays: opts.ExpirationDays,
	}
	key := spec.Key()
	res, err := reconcile.Ensure(ctx, reconcile.Resource[*bigquery.Dataset, bq.DatasetSpec]{
		Kind:    reconcile.Dataset,
		Parent:  opts.ProjectID,
		Key:     key,
		Payload: spec,
		List:    p.Datasets.ListDatasets,
		Match:   func(ds *bigquery.Dataset) bool { return bq.DatasetKey(ds) == key },
		Create: func(ctx context.Context, _ string, spec bq.DatasetSpec) (*bigquery.Dataset, error) {
			return p.Datasets.CreateDataset(ctx, spec)
		},
		Hint: datasetHint,
	})
	return record(r, reconcile.Dataset, key, res, err)
}

// MerchantTransferName is the display name of the Merchant Center transfer.
func MerchantTransferName(merchantID string) string {
	return fmt.Sprintf("Merchant Center Data Transfer for merchant %s", merchantID)
}

// ScheduledQueryName is the display name of a scheduled query, used both to
// find and to create it.
func ScheduledQueryName(job, merchantID, language, country string) string {
	return fmt.Sprintf("%s for merchant %s - language %s - country %s", job, merchantID, language, country)
}

func locationParent(opts Options) string {
	return fmt.Sprintf("projects/%s/locations/%s", opts.ProjectID, opts.Region)
}

func (p *Provisioner) ensureMerchantTransfer(ctx context.Context, opts Options, r *Report) error {
	name := MerchantTransferName(opts.MerchantID)
	var checkErr error
	res, err := reconcile.Ensure(ctx, reconcile.Resource[*datatransferpb.TransferConfig, dts.TransferSpec]{
		Kind:   reconcile.MerchantCenterTransfer,
		Parent: locationParent(opts),
		Key:    name,
		Payload: dts.TransferSpec{
			DisplayName:          name,
			DataSourceID:         dts.MerchantCenterSource,
			Schedule:             MerchantCenterSchedule,
			DestinationDatasetID: opts.Dataset,
			Params: map[string]any{
				"merchant_id":             opts.MerchantID,
				"export_products":         true,
				"export_price_benchmarks": true,
				"export_best_sellers":     true,
			},
		},
		List: p.Transfers.ListTransferConfigs,
		Match: func(cfg *datatransferpb.TransferConfig) bool {
			return dts.IsConfig(cfg, dts.MerchantCenterSource, name)
		},
		Create: func(ctx context.Context, parent string, spec dts.TransferSpec) (*datatransferpb.TransferConfig, error) {
			if checkErr = p.checkMerchantSource(ctx, opts); checkErr != nil {
				return nil, checkErr
			}
			return p.Transfers.CreateTransferConfig(ctx, parent, spec)
		},
		Hint: transferHint,
	})
	if checkErr != nil {
		return checkErr
	}
	return record(r, reconcile.MerchantCenterTransfer, name, res, err)
}

// checkMerchantSource logs whether the Merchant Center data source is
// available and authorized. A missing source or invalid credentials are only
// logged; failing to query the API is returned.
func (p *Provisioner) checkMerchantSource(ctx context.Context, opts Options) error {
	srcs, err := p.Transfers.ListDataSources(ctx, "projects/"+opts.ProjectID)
	if err != nil {
		return errors.Annotate(err, "listing data sources of %q", opts.ProjectID).Err()
	}
	found := false
	for _, s := range srcs {
		if s.GetDataSourceId() == dts.MerchantCenterSource {
			found = true
			break
		}
	}
	if !found {
		logging.Errorf(ctx, "Data source %q not found", dts.MerchantCenterSource)
		return nil
	}

	name := fmt.Sprintf("%s/dataSources/%s", locationParent(opts), dts.MerchantCenterSource)
	valid, err := p.Transfers.CheckValidCreds(ctx, name)
	if err != nil {
		return errors.Annotate(err, "checking the credentials of %q", name).Err()
	}
	logging.Infof(ctx, "Valid credentials found for %q: %t", name, valid)
	return nil
}

// primaryLanguages strips the region from each comma separated language tag,
// e.g. "en-US,fr" becomes "en,fr".
func primaryLanguages(v string) string {
	tags := strings.Split(v, ",")
	for i, t := range tags {
		tags[i], _, _ = strings.Cut(t, "-")
	}
	return strings.Join(tags, ",")
}

func (p *Provisioner) ensureScheduledQueries(ctx context.Context, opts Options, r *Report) error {
	params := sqltmpl.Params{
		"projectId":       opts.ProjectID,
		"gmcId":           opts.MerchantID,
		"datasetId":       opts.Dataset,
		"language":        sqltmpl.InList(opts.Language),
		"country":         sqltmpl.InList(opts.Country),
		"contentLanguage": sqltmpl.InList(primaryLanguages(opts.Language)),
	}
	for _, tmpl := range sqltmpl.Templates {
		job := sqltmpl.JobName(tmpl)
		query, err := p.Templates.Render(tmpl, params)
		if err != nil {
			return err
		}

		name := ScheduledQueryName(job, opts.MerchantID, opts.Language, opts.Country)
		res, err := reconcile.Ensure(ctx, reconcile.Resource[*datatransferpb.TransferConfig, dts.TransferSpec]{
			Kind:   reconcile.ScheduledQuery,
			Parent: locationParent(opts),
			Key:    name,
			Payload: dts.TransferSpec{
				DisplayName:          name,
				DataSourceID:         dts.ScheduledQuerySource,
				Schedule:             ScheduledQuerySchedule,
				DestinationDatasetID: opts.Dataset,
				Params: map[string]any{
					"query":                           query,
					"destination_table_name_template": job,
					"write_disposition":               "WRITE_TRUNCATE",
					"partitioning_field":              "",
				},
			},
			List: p.Transfers.ListTransferConfigs,
			Match: func(cfg *datatransferpb.TransferConfig) bool {
				return dts.IsConfig(cfg, dts.ScheduledQuerySource, name)
			},
			Create: p.Transfers.CreateTransferConfig,
			Hint:   scheduledQueryHint,
		})
		if err := record(r, reconcile.ScheduledQuery, name, res, err); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provisioner) ensureViews(ctx context.Context, opts Options, r *Report) error {
	params := sqltmpl.Params{
		"projectId": opts.ProjectID,
		"gmcId":     opts.MerchantID,
		"datasetId": opts.Dataset,
	}
	// The dataset of a dry run may not exist yet, so there is nothing to list.
	planned := reconcile.IsDryRun(ctx) && r.has(reconcile.Dataset, Planned)
	for _, tmpl := range sqltmpl.Templates {
		job := sqltmpl.JobName(tmpl)
		query, err := p.Templates.Render(path.Join(sqltmpl.ViewsDir, tmpl), params)
		if err != nil {
			return err
		}

		key := fmt.Sprintf("%s:%s.%s", opts.ProjectID, opts.Dataset, job)
		if planned {
			logging.Infof(ctx, "Dry run: would create %s %q under %q", reconcile.View, key, opts.Dataset)
			r.add(reconcile.View, key, Planned, nil)
			continue
		}
		res, err := reconcile.Ensure(ctx, reconcile.Resource[*bigquery.Table, string]{
			Kind:    reconcile.View,
			Parent:  opts.Dataset,
			Key:     key,
			Payload: query,
			List: func(ctx context.Context, dataset string) ([]*bigquery.Table, error) {
				return p.Datasets.ListTables(ctx, opts.ProjectID, dataset)
			},
			Match: func(t *bigquery.Table) bool { return t.TableID == job },
			Create: func(ctx context.Context, dataset, query string) (*bigquery.Table, error) {
				return p.Datasets.CreateView(ctx, opts.ProjectID, dataset, job, query)
			},
			Hint: viewHint,
		})
		if err := record(r, reconcile.View, key, res, err); err != nil {
			return err
		}
	}
	return nil
}
