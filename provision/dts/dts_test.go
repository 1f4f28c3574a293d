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
	"net"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/bigquery/datatransfer/apiv1/datatransferpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	. "github.com/google/assortment-quality-for-shopping-ads/common/testing/assertions"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeServer struct {
	datatransferpb.UnimplementedDataTransferServiceServer

	mu          sync.Mutex
	configs     []*datatransferpb.TransferConfig
	sources     []*datatransferpb.DataSource
	validCreds  bool
	listErrs    []error
	listCalls   int
	createReqs  []*datatransferpb.CreateTransferConfigRequest
	createErr   error
	credsChecks []string
}

func (f *fakeServer) ListTransferConfigs(_ context.Context, req *datatransferpb.ListTransferConfigsRequest) (*datatransferpb.ListTransferConfigsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if len(f.listErrs) > 0 {
		err := f.listErrs[0]
		f.listErrs = f.listErrs[1:]
		return nil, err
	}
	return &datatransferpb.ListTransferConfigsResponse{TransferConfigs: f.configs}, nil
}

func (f *fakeServer) CreateTransferConfig(_ context.Context, req *datatransferpb.CreateTransferConfigRequest) (*datatransferpb.TransferConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createReqs = append(f.createReqs, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	cfg := proto.Clone(req.TransferConfig).(*datatransferpb.TransferConfig)
	cfg.Name = req.Parent + "/transferConfigs/1"
	return cfg, nil
}

func (f *fakeServer) ListDataSources(_ context.Context, req *datatransferpb.ListDataSourcesRequest) (*datatransferpb.ListDataSourcesResponse, error) {
	return &datatransferpb.ListDataSourcesResponse{DataSources: f.sources}, nil
}

func (f *fakeServer) CheckValidCreds(_ context.Context, req *datatransferpb.CheckValidCredsRequest) (*datatransferpb.CheckValidCredsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credsChecks = append(f.credsChecks, req.Name)
	return &datatransferpb.CheckValidCredsResponse{HasValidCreds: f.validCreds}, nil
}

func startFake(ctx context.Context, f *fakeServer) (*Client, func()) {
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	datatransferpb.RegisterDataTransferServiceServer(srv, f)
	go srv.Serve(lis)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	So(err, ShouldBeNil)

	c, err := NewClient(ctx, option.WithGRPCConn(conn))
	So(err, ShouldBeNil)
	return c, func() {
		c.Close()
		srv.Stop()
	}
}

func TestClient(t *testing.T) {
	t.Parallel()

	Convey("Client", t, func() {
		ctx := context.Background()
		f := &fakeServer{}
		c, stop := startFake(ctx, f)
		defer stop()

		const parent = "projects/p1/locations/eu"

		Convey("ListTransferConfigs keeps service order", func() {
			f.configs = []*datatransferpb.TransferConfig{
				{Name: "a", DisplayName: "x", DataSourceId: ScheduledQuerySource},
				{Name: "b", DisplayName: "x", DataSourceId: MerchantCenterSource},
			}
			cfgs, err := c.ListTransferConfigs(ctx, parent)
			So(err, ShouldBeNil)
			So(cfgs, ShouldHaveLength, 2)
			So(cfgs[0].Name, ShouldEqual, "a")
			So(cfgs[1].Name, ShouldEqual, "b")
		})

		Convey("ListTransferConfigs retries Unavailable", func() {
			f.listErrs = []error{status.Error(codes.Unavailable, "try later")}
			cfgs, err := c.ListTransferConfigs(ctx, parent)
			So(err, ShouldBeNil)
			So(cfgs, ShouldBeEmpty)
			So(f.listCalls, ShouldEqual, 2)
		})

		Convey("ListTransferConfigs does not retry PermissionDenied", func() {
			f.listErrs = []error{status.Error(codes.PermissionDenied, "nope")}
			_, err := c.ListTransferConfigs(ctx, parent)
			So(err, ShouldHaveRPCCode, codes.PermissionDenied)
			So(err, ShouldErrLike, "listing transfer configs")
			So(f.listCalls, ShouldEqual, 1)
		})

		Convey("CreateTransferConfig sends the spec", func() {
			spec := TransferSpec{
				DisplayName:          "Merchant Center Data Transfer for merchant 123",
				DataSourceID:         MerchantCenterSource,
				Schedule:             "every 72 hours",
				DestinationDatasetID: "d1",
				Params: map[string]any{
					"merchant_id":     "123",
					"export_products": true,
				},
			}
			cfg, err := c.CreateTransferConfig(ctx, parent, spec)
			So(err, ShouldBeNil)
			So(cfg.Name, ShouldEqual, parent+"/transferConfigs/1")

			So(f.createReqs, ShouldHaveLength, 1)
			So(f.createReqs[0].Parent, ShouldEqual, parent)
			So(f.createReqs[0].TransferConfig, ShouldResembleProto, &datatransferpb.TransferConfig{
				DisplayName:  "Merchant Center Data Transfer for merchant 123",
				DataSourceId: MerchantCenterSource,
				Schedule:     "every 72 hours",
				Destination:  &datatransferpb.TransferConfig_DestinationDatasetId{DestinationDatasetId: "d1"},
				Params: &structpb.Struct{Fields: map[string]*structpb.Value{
					"merchant_id":     structpb.NewStringValue("123"),
					"export_products": structpb.NewBoolValue(true),
				}},
			})
		})

		Convey("CreateTransferConfig is not retried", func() {
			f.createErr = status.Error(codes.Unavailable, "down")
			_, err := c.CreateTransferConfig(ctx, parent, TransferSpec{
				DisplayName:          "q",
				DataSourceID:         ScheduledQuerySource,
				Schedule:             "every 24 hours",
				DestinationDatasetID: "d1",
				Params:               map[string]any{"query": "SELECT 1"},
			})
			So(err, ShouldHaveRPCCode, codes.Unavailable)
			So(f.createReqs, ShouldHaveLength, 1)
		})

		Convey("Invalid spec never reaches the server", func() {
			_, err := c.CreateTransferConfig(ctx, parent, TransferSpec{DisplayName: "q"})
			So(err, ShouldErrLike, `bad transfer config "q"`)
			So(f.createReqs, ShouldBeEmpty)
		})

		Convey("ListDataSources and CheckValidCreds", func() {
			f.sources = []*datatransferpb.DataSource{{DataSourceId: MerchantCenterSource}}
			f.validCreds = true

			srcs, err := c.ListDataSources(ctx, "projects/p1")
			So(err, ShouldBeNil)
			So(srcs, ShouldHaveLength, 1)
			So(srcs[0].DataSourceId, ShouldEqual, MerchantCenterSource)

			ok, err := c.CheckValidCreds(ctx, parent+"/dataSources/merchant_center")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(f.credsChecks, ShouldResemble, []string{parent + "/dataSources/merchant_center"})
		})
	})
}

func TestBoundedRetryer(t *testing.T) {
	t.Parallel()

	Convey("boundedRetryer", t, func() {
		r := &boundedRetryer{
			inner: gax.OnCodes(retryCodes, gax.Backoff{Initial: time.Millisecond, Max: time.Millisecond}),
			max:   MaxRetries,
		}

		Convey("Gives up after MaxRetries transient errors", func() {
			for i := 0; i < MaxRetries; i++ {
				_, ok := r.Retry(status.Error(codes.ResourceExhausted, "quota"))
				So(ok, ShouldBeTrue)
			}
			_, ok := r.Retry(status.Error(codes.ResourceExhausted, "quota"))
			So(ok, ShouldBeFalse)
		})

		Convey("Never retries other codes", func() {
			_, ok := r.Retry(status.Error(codes.InvalidArgument, "bad"))
			So(ok, ShouldBeFalse)
			So(r.attempts, ShouldEqual, 0)
		})

		Convey("Retries DeadlineExceeded", func() {
			_, ok := r.Retry(status.Error(codes.DeadlineExceeded, "slow"))
			So(ok, ShouldBeTrue)
		})
	})
}

func TestTransferSpec(t *testing.T) {
	t.Parallel()

	Convey("TransferSpec", t, func() {
		spec := TransferSpec{
			DisplayName:          "brand_coverage for merchant 1 - language en - country FR",
			DataSourceID:         ScheduledQuerySource,
			Schedule:             "every 24 hours",
			DestinationDatasetID: "d1",
			Params: map[string]any{
				"query":                           "SELECT 1",
				"destination_table_name_template": "brand_coverage",
				"write_disposition":               "WRITE_TRUNCATE",
				"partitioning_field":              "",
			},
		}

		Convey("ToProto", func() {
			pb, err := spec.ToProto()
			So(err, ShouldBeNil)
			So(pb.GetDestinationDatasetId(), ShouldEqual, "d1")
			So(pb.Disabled, ShouldBeFalse)
			So(pb.Params.Fields["partitioning_field"].GetStringValue(), ShouldEqual, "")
			So(pb.Params.Fields["write_disposition"].GetStringValue(), ShouldEqual, "WRITE_TRUNCATE")
			So(IsConfig(pb, ScheduledQuerySource, spec.DisplayName), ShouldBeTrue)
			So(IsConfig(pb, MerchantCenterSource, spec.DisplayName), ShouldBeFalse)
		})

		Convey("Missing fields", func() {
			spec.Schedule = ""
			So(spec.Validate(), ShouldErrLike, "Schedule")
			spec.Schedule = "every 24 hours"
			spec.Params = nil
			So(spec.Validate(), ShouldErrLike, "Params")
		})

		Convey("Unsupported param values", func() {
			spec.Params["bad"] = struct{}{}
			_, err := spec.ToProto()
			So(err, ShouldErrLike, "bad params")
		})
	})
}
