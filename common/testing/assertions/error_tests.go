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

// Package assertions contains goconvey assertions for errors, gRPC statuses
// and protobuf messages.
package assertions

import (
	"fmt"

	"github.com/smarty/assertions"

	"github.com/google/assortment-quality-for-shopping-ads/common/errors"
)

// ShouldErrLike compares an `error` or `string` on the left side, to an `error`
// or `string` on the right side.
//
// If the righthand side is omitted, this expects `actual` to be nil.
//
// If a singular righthand side is provided, this expects the stringified
// `actual` to contain the stringified `expected[0]` to be a substring of it.
//
// Example:
//
//	// Usage                          Equivalent To
//	So(err, ShouldErrLike, "custom")    // `err.Error()` ShouldContainSubstring "custom"
//	So(err, ShouldErrLike, io.EOF)      // `err.Error()` ShouldContainSubstring io.EOF.Error()
//	So(nilErr, ShouldErrLike)           // nilErr ShouldBeNil
//	So(nilErr, ShouldErrLike, nil)      // nilErr ShouldBeNil
func ShouldErrLike(actual any, expected ...any) string {
	if len(expected) == 0 {
		return assertions.ShouldBeNil(actual)
	}
	if len(expected) != 1 {
		return fmt.Sprintf("ShouldErrLike requires 0 or 1 expected value, got %d", len(expected))
	}

	if expected[0] == nil {
		return assertions.ShouldBeNil(actual)
	} else if actual == nil {
		return assertions.ShouldNotBeNil(actual)
	}

	ae, ok := actual.(error)
	if !ok {
		return assertions.ShouldImplement(actual, (*error)(nil))
	}

	switch x := expected[0].(type) {
	case string:
		return assertions.ShouldContainSubstring(ae.Error(), x)
	case error:
		return assertions.ShouldContainSubstring(ae.Error(), x.Error())
	}
	return fmt.Sprintf("unexpected argument type %T, expected string or error", expected[0])
}

// ShouldBeTagged asserts that the error on the left carries the
// errors.BoolTag on the right.
//
// Example:
//
//	So(err, ShouldBeTagged, sqltmpl.NotFound)
func ShouldBeTagged(actual any, expected ...any) string {
	if len(expected) != 1 {
		return fmt.Sprintf("ShouldBeTagged requires exactly one expected value, got %d", len(expected))
	}
	tag, ok := expected[0].(errors.BoolTag)
	if !ok {
		return fmt.Sprintf("ShouldBeTagged requires an errors.BoolTag, got %T", expected[0])
	}
	if actual == nil {
		return assertions.ShouldNotBeNil(actual)
	}
	err, ok := actual.(error)
	if !ok {
		return assertions.ShouldImplement(actual, (*error)(nil))
	}
	if !tag.In(err) {
		return fmt.Sprintf("expected error %q to be tagged", err)
	}
	return ""
}

// ShouldNotBeTagged is the negation of ShouldBeTagged. A nil error is never
// tagged.
func ShouldNotBeTagged(actual any, expected ...any) string {
	if len(expected) != 1 {
		return fmt.Sprintf("ShouldNotBeTagged requires exactly one expected value, got %d", len(expected))
	}
	tag, ok := expected[0].(errors.BoolTag)
	if !ok {
		return fmt.Sprintf("ShouldNotBeTagged requires an errors.BoolTag, got %T", expected[0])
	}
	if err, _ := actual.(error); err != nil && tag.In(err) {
		return fmt.Sprintf("expected error %q not to be tagged", err)
	}
	return ""
}
