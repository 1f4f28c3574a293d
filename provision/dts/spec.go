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

// Package dts is a thin typed layer over the BigQuery Data Transfer Service
// client.
package dts

import (
	"cloud.google.com/go/bigquery/datatransfer/apiv1/datatransferpb"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/go-playground/validator.v9"

	"github.com/google/assortment-quality-for-shopping-ads/common/errors"
)

// Data source ids used by this tool.
const (
	MerchantCenterSource = "merchant_center"
	ScheduledQuerySource = "scheduled_query"
)

var validate = validator.New()

// TransferSpec is the creation request for a transfer config.
type TransferSpec struct {
	DisplayName          string `validate:"required"`
	DataSourceID         string `validate:"required"`
	Schedule             string `validate:"required"`
	DestinationDatasetID string `validate:"required"`
	Disabled             bool
	// Params are data source specific. Values must be representable in a
	// google.protobuf.Struct: strings, bools, numbers, nested maps and slices.
	Params map[string]any `validate:"required"`
}

// Validate returns an error if a required field is missing.
func (s *TransferSpec) Validate() error {
	if err := validate.Struct(s); err != nil {
		return errors.Annotate(err, "bad transfer config %q", s.DisplayName).Err()
	}
	return nil
}

// ToProto converts the spec to the API message.
func (s *TransferSpec) ToProto() (*datatransferpb.TransferConfig, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	params, err := structpb.NewStruct(s.Params)
	if err != nil {
		return nil, errors.Annotate(err, "bad params of transfer config %q", s.DisplayName).Err()
	}
	return &datatransferpb.TransferConfig{
		DisplayName:  s.DisplayName,
		DataSourceId: s.DataSourceID,
		Schedule:     s.Schedule,
		Disabled:     s.Disabled,
		Destination: &datatransferpb.TransferConfig_DestinationDatasetId{
			DestinationDatasetId: s.DestinationDatasetID,
		},
		Params: params,
	}, nil
}

// IsConfig returns true if cfg belongs to the given data source and has the
// given display name.
func IsConfig(cfg *datatransferpb.TransferConfig, dataSourceID, displayName string) bool {
	return cfg.GetDataSourceId() == dataSourceID && cfg.GetDisplayName() == displayName
}
