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

package assertions

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	lerrors "github.com/google/assortment-quality-for-shopping-ads/common/errors"
)

func TestShouldErrLike(t *testing.T) {
	t.Parallel()

	e := errors.New("e is for error")

	Convey("Test ShouldErrLike", t, func() {
		Convey("too many params", func() {
			So(ShouldErrLike(nil, nil, nil), ShouldContainSubstring, "requires 0 or 1")
		})
		Convey("no expectation", func() {
			So(ShouldErrLike(nil), ShouldEqual, "")
			So(ShouldErrLike(e), ShouldNotEqual, "")
		})
		Convey("substring", func() {
			So(ShouldErrLike(e, "for"), ShouldEqual, "")
			So(ShouldErrLike(e, "nope"), ShouldNotEqual, "")
		})
		Convey("error expectation", func() {
			So(ShouldErrLike(e, errors.New("is for")), ShouldEqual, "")
		})
		Convey("not an error", func() {
			So(ShouldErrLike(100, "wut"), ShouldNotEqual, "")
		})
	})

	Convey("Test ShouldBeTagged", t, func() {
		tag := lerrors.BoolTag{Key: lerrors.NewTagKey("t")}
		So(ShouldBeTagged(tag.Apply(e), tag), ShouldEqual, "")
		So(ShouldBeTagged(e, tag), ShouldContainSubstring, "to be tagged")
		So(ShouldBeTagged(nil, tag), ShouldNotEqual, "")
		So(ShouldNotBeTagged(e, tag), ShouldEqual, "")
		So(ShouldNotBeTagged(nil, tag), ShouldEqual, "")
		So(ShouldNotBeTagged(tag.Apply(e), tag), ShouldContainSubstring, "not to be tagged")
	})
}

func TestShouldHaveRPCCode(t *testing.T) {
	t.Parallel()

	Convey("Test ShouldHaveRPCCode", t, func() {
		err := status.Error(codes.NotFound, "no such thing")
		So(ShouldHaveRPCCode(nil), ShouldEqual, "")
		So(ShouldHaveRPCCode(err, codes.NotFound), ShouldEqual, "")
		So(ShouldHaveRPCCode(err, codes.NotFound, "such"), ShouldEqual, "")
		So(ShouldHaveRPCCode(err, codes.Internal), ShouldContainSubstring, "expected gRPC code")
		So(ShouldHaveRPCCode(err, "nope"), ShouldContainSubstring, "must be a codes.Code")
	})
}

func TestShouldResembleProto(t *testing.T) {
	t.Parallel()

	Convey("Test ShouldResembleProto", t, func() {
		a, _ := structpb.NewStruct(map[string]any{"a": "b"})
		b, _ := structpb.NewStruct(map[string]any{"a": "b"})
		c, _ := structpb.NewStruct(map[string]any{"a": "c"})
		So(ShouldResembleProto(a, b), ShouldEqual, "")
		So(ShouldResembleProto(a, c), ShouldContainSubstring, "protos differ")
		So(ShouldResembleProto("x", c), ShouldContainSubstring, "requires a proto.Message")
	})
}
