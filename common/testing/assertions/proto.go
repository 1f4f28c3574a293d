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
	"fmt"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/testing/protocmp"
)

// ShouldResembleProto asserts that the proto.Message on the left equals the
// one on the right, using protobuf equality rather than reflect.DeepEqual.
//
// The failure message is a go-cmp diff.
func ShouldResembleProto(actual any, expected ...any) string {
	if len(expected) != 1 {
		return fmt.Sprintf("ShouldResembleProto requires exactly one expected value, got %d", len(expected))
	}
	a, ok := actual.(proto.Message)
	if !ok {
		return fmt.Sprintf("ShouldResembleProto requires a proto.Message actual, got %T", actual)
	}
	e, ok := expected[0].(proto.Message)
	if !ok {
		return fmt.Sprintf("ShouldResembleProto requires a proto.Message expected, got %T", expected[0])
	}
	if diff := cmp.Diff(e, a, protocmp.Transform()); diff != "" {
		return fmt.Sprintf("protos differ (-want +got):\n%s", diff)
	}
	return ""
}
