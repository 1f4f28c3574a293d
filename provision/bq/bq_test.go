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

package bq

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/option"

	. "github.com/google/assortment-quality-for-shopping-ads/common/testing/assertions"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeBigQuery serves the handful of REST methods the client uses.
type fakeBigQuery struct {
	mu       sync.Mutex
	datasets []string
	tables   []string
	inserted []map[string]any
}

func (f *fakeBigQuery) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path[strings.Index(r.URL.Path, "/projects/"):]
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == "GET" && path == "/projects/p1/datasets":
		var ds []map[string]any
		for _, id := range f.datasets {
			ds = append(ds, map[string]any{
				"id":               "p1:" + id,
				"datasetReference": map[string]any{"projectId": "p1", "datasetId": id},
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"datasets": ds})

	case r.Method == "GET" && path == "/projects/p1/datasets/d1/tables":
		var ts []map[string]any
		for _, id := range f.tables {
			ts = append(ts, map[string]any{
				"tableReference": map[string]any{"projectId": "p1", "datasetId": "d1", "tableId": id},
				"type":           "VIEW",
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"tables": ts})

	case r.Method == "POST":
		blob, _ := io.ReadAll(r.Body)
		body := map[string]any{}
		json.Unmarshal(blob, &body)
		f.inserted = append(f.inserted, body)
		w.Write(blob)

	default:
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
	}
}

func TestClient(t *testing.T) {
	t.Parallel()

	Convey("Client", t, func() {
		ctx := context.Background()
		fake := &fakeBigQuery{}
		srv := httptest.NewServer(fake)
		defer srv.Close()

		c, err := NewClient(ctx, "p1",
			option.WithEndpoint(srv.URL+"/bigquery/v2/"),
			option.WithoutAuthentication())
		So(err, ShouldBeNil)
		defer c.Close()

		Convey("ListDatasets", func() {
			fake.datasets = []string{"a", "d1"}
			ds, err := c.ListDatasets(ctx, "p1")
			So(err, ShouldBeNil)
			So(ds, ShouldHaveLength, 2)
			So(DatasetKey(ds[1]), ShouldEqual, "p1:d1")
		})

		Convey("CreateDataset sends location and expiration", func() {
			_, err := c.CreateDataset(ctx, DatasetSpec{
				ProjectID:               "p1",
				DatasetID:               "d1",
				Location:                "EU",
				PartitionExpirationDays: 7,
			})
			So(err, ShouldBeNil)
			So(fake.inserted, ShouldHaveLength, 1)
			body := fake.inserted[0]
			So(body["location"], ShouldEqual, "EU")
			So(body["defaultPartitionExpirationMs"], ShouldEqual, "604800000")
			So(body["datasetReference"], ShouldResemble, map[string]any{"projectId": "p1", "datasetId": "d1"})
		})

		Convey("CreateDataset without expiration", func() {
			_, err := c.CreateDataset(ctx, DatasetSpec{ProjectID: "p1", DatasetID: "d1", Location: "eu"})
			So(err, ShouldBeNil)
			So(fake.inserted[0], ShouldNotContainKey, "defaultPartitionExpirationMs")
		})

		Convey("CreateDataset validates", func() {
			_, err := c.CreateDataset(ctx, DatasetSpec{ProjectID: "p1", DatasetID: "d1"})
			So(err, ShouldErrLike, "bad dataset p1:d1")
			So(fake.inserted, ShouldBeEmpty)
		})

		Convey("ListTables and CreateView", func() {
			fake.tables = []string{"brand_coverage"}
			ts, err := c.ListTables(ctx, "p1", "d1")
			So(err, ShouldBeNil)
			So(ts, ShouldHaveLength, 1)
			So(ts[0].TableID, ShouldEqual, "brand_coverage")

			_, err = c.CreateView(ctx, "p1", "d1", "product_coverage", "SELECT 1")
			So(err, ShouldBeNil)
			So(fake.inserted, ShouldHaveLength, 1)
			view, _ := fake.inserted[0]["view"].(map[string]any)
			So(view["query"], ShouldEqual, "SELECT 1")
		})

		Convey("Listing errors are annotated", func() {
			_, err := c.ListTables(ctx, "p1", "missing")
			So(err, ShouldErrLike, "listing tables of p1:missing")
		})
	})
}

func TestDatasetSpec(t *testing.T) {
	t.Parallel()

	Convey("DatasetSpec", t, func() {
		s := DatasetSpec{ProjectID: "p1", DatasetID: "d1", Location: "eu", PartitionExpirationDays: 7}
		So(s.Key(), ShouldEqual, "p1:d1")
		So(s.PartitionExpirationMs(), ShouldEqual, int64(604_800_000))
		So(s.Metadata().DefaultPartitionExpiration, ShouldEqual, 7*24*time.Hour)

		s.PartitionExpirationDays = 0
		So(s.Metadata().DefaultPartitionExpiration, ShouldEqual, time.Duration(0))

		s.PartitionExpirationDays = -1
		So(s.Validate(), ShouldErrLike, "PartitionExpirationDays")
	})
}
