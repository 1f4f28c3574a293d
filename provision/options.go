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

package provision

import (
	"gopkg.in/go-playground/validator.v9"

	"github.com/google/assortment-quality-for-shopping-ads/common/errors"
)

// ViewsRegion is the region used by the views flavor.
const ViewsRegion = "eu"

var validate = validator.New()

// Options are the user supplied parameters of a provisioning run.
type Options struct {
	// ProjectID is the Google Cloud project receiving all resources.
	ProjectID string `validate:"required"`
	// MerchantID is the Google Merchant Center account id.
	MerchantID string `validate:"required,numeric"`
	// Region is the location of the dataset and the transfer configs.
	Region string `validate:"required"`
	// Dataset is the BigQuery dataset id receiving the tables.
	Dataset string `validate:"required,max=1024"`

	// Language and Country are substituted into the scheduled queries.
	Language string
	Country  string
	// ExpirationDays is the default partition expiration of the dataset.
	ExpirationDays int `validate:"min=0"`

	// EnableAPIs makes the run enable the required Cloud APIs first.
	EnableAPIs bool
}

// Validate checks the options common to both flavors.
func (o *Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return errors.Annotate(err, "invalid options").Err()
	}
	return nil
}

// ValidateScheduledQueries additionally checks the options the scheduled
// queries flavor needs.
func (o *Options) ValidateScheduledQueries() error {
	if err := o.Validate(); err != nil {
		return err
	}
	var merr errors.MultiError
	if err := validate.Var(o.Language, "required"); err != nil {
		merr = append(merr, errors.Annotate(err, "language").Err())
	}
	if err := validate.Var(o.Country, "required"); err != nil {
		merr = append(merr, errors.Annotate(err, "country").Err())
	}
	if err := merr.AsError(); err != nil {
		return errors.Annotate(err, "invalid options").Err()
	}
	return nil
}
