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

package reconcile

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"

	"github.com/google/assortment-quality-for-shopping-ads/common/errors"
	"github.com/google/assortment-quality-for-shopping-ads/common/logging"
	"github.com/google/assortment-quality-for-shopping-ads/common/logging/memlogger"

	. "github.com/google/assortment-quality-for-shopping-ads/common/testing/assertions"
	. "github.com/smartystreets/goconvey/convey"
)

type widget struct {
	ID   int
	Name string
}

type widgetSpec struct {
	Name string
}

type backend interface {
	List(ctx context.Context, parent string) ([]widget, error)
	Create(ctx context.Context, parent string, payload widgetSpec) (widget, error)
}

func widgetResource(b backend, name string) Resource[widget, widgetSpec] {
	return Resource[widget, widgetSpec]{
		Kind:    Dataset,
		Parent:  "projects/p",
		Key:     name,
		Payload: widgetSpec{Name: name},
		List:    b.List,
		Match:   func(w widget) bool { return w.Name == name },
		Create:  b.Create,
		Hint:    "Check the permissions on projects/p.",
	}
}

func TestEnsure(t *testing.T) {
	t.Parallel()

	Convey("Ensure", t, func() {
		ctl := gomock.NewController(t)
		defer ctl.Finish()

		ctx := memlogger.Use(context.Background())
		ctx = logging.SetLevel(ctx, logging.Debug)
		log := memlogger.Get(ctx)
		b := NewMockBackend(ctl)

		Convey("Existing resource is not created again", func() {
			b.EXPECT().List(gomock.Any(), "projects/p").Return([]widget{
				{ID: 1, Name: "other"},
				{ID: 2, Name: "w"},
			}, nil)

			res, err := Ensure(ctx, widgetResource(b, "w"))
			So(err, ShouldBeNil)
			So(res, ShouldResemble, Result[widget]{Resource: widget{ID: 2, Name: "w"}})
			So(log.Has(logging.Info, `Dataset "w" already exists, skipping`), ShouldBeTrue)
		})

		Convey("First match wins", func() {
			b.EXPECT().List(gomock.Any(), "projects/p").Return([]widget{
				{ID: 1, Name: "w"},
				{ID: 2, Name: "w"},
			}, nil)

			res, err := Ensure(ctx, widgetResource(b, "w"))
			So(err, ShouldBeNil)
			So(res.Resource.ID, ShouldEqual, 1)
			So(res.Created, ShouldBeFalse)
		})

		Convey("Missing resource is created once with the payload", func() {
			gomock.InOrder(
				b.EXPECT().List(gomock.Any(), "projects/p").Return([]widget{{ID: 1, Name: "other"}}, nil),
				b.EXPECT().Create(gomock.Any(), "projects/p", widgetSpec{Name: "w"}).
					Return(widget{ID: 3, Name: "w"}, nil).Times(1),
			)

			res, err := Ensure(ctx, widgetResource(b, "w"))
			So(err, ShouldBeNil)
			So(res, ShouldResemble, Result[widget]{Created: true, Resource: widget{ID: 3, Name: "w"}})
			So(log.Has(logging.Info, `Created Dataset "w"`), ShouldBeTrue)
		})

		Convey("Empty listing means create", func() {
			b.EXPECT().List(gomock.Any(), "projects/p").Return(nil, nil)
			b.EXPECT().Create(gomock.Any(), "projects/p", widgetSpec{Name: "w"}).Return(widget{ID: 1, Name: "w"}, nil)

			res, err := Ensure(ctx, widgetResource(b, "w"))
			So(err, ShouldBeNil)
			So(res.Created, ShouldBeTrue)
		})

		Convey("List error propagates untagged", func() {
			b.EXPECT().List(gomock.Any(), "projects/p").Return(nil, errors.New("boom"))

			_, err := Ensure(ctx, widgetResource(b, "w"))
			So(err, ShouldErrLike, `listing Dataset under "projects/p": boom`)
			So(err, ShouldNotBeTagged, CreateFailed)
		})

		Convey("Create error is tagged and the hint logged", func() {
			b.EXPECT().List(gomock.Any(), "projects/p").Return(nil, nil)
			b.EXPECT().Create(gomock.Any(), "projects/p", gomock.Any()).Return(widget{}, errors.New("denied")).Times(1)

			res, err := Ensure(ctx, widgetResource(b, "w"))
			So(err, ShouldErrLike, "denied")
			So(err, ShouldBeTagged, CreateFailed)
			So(res.Created, ShouldBeFalse)
			So(log.Has(logging.Error, "Check the permissions on projects/p."), ShouldBeTrue)
		})

		Convey("Dry run does not create", func() {
			b.EXPECT().List(gomock.Any(), "projects/p").Return(nil, nil)

			res, err := Ensure(WithDryRun(ctx), widgetResource(b, "w"))
			So(err, ShouldBeNil)
			So(res, ShouldResemble, Result[widget]{Planned: true})
			So(log.Has(logging.Info, "would create Dataset"), ShouldBeTrue)
		})

		Convey("Dry run still reports existing resources", func() {
			b.EXPECT().List(gomock.Any(), "projects/p").Return([]widget{{ID: 7, Name: "w"}}, nil)

			res, err := Ensure(WithDryRun(ctx), widgetResource(b, "w"))
			So(err, ShouldBeNil)
			So(res.Planned, ShouldBeFalse)
			So(res.Resource.ID, ShouldEqual, 7)
		})
	})
}

func TestDryRun(t *testing.T) {
	t.Parallel()

	Convey("IsDryRun", t, func() {
		So(IsDryRun(context.Background()), ShouldBeFalse)
		So(IsDryRun(WithDryRun(context.Background())), ShouldBeTrue)
	})
}
