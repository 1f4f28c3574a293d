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

package errors

import (
	"fmt"
)

// Annotator is a builder for annotating errors. Obtain one by calling
// Annotate or Reason, chain Tag calls on it and finish with Err.
type Annotator struct {
	inner  error
	reason string
	tags   []TagValue
}

// Annotate captures err and a reason describing what the caller was doing
// when it happened. The public error string becomes "<reason>: <err>".
//
// If err is nil, the returned Annotator's Err method returns nil.
func Annotate(err error, reason string, args ...any) *Annotator {
	if err == nil {
		return nil
	}
	return &Annotator{inner: err, reason: sprintf(reason, args)}
}

// Reason builds a new error from the formatted reason. It is the same as
// Annotate, but without an inner error.
func Reason(reason string, args ...any) *Annotator {
	return &Annotator{reason: sprintf(reason, args)}
}

// Tag adds tag values to this annotation.
func (a *Annotator) Tag(tags ...TagValueGenerator) *Annotator {
	if a == nil {
		return a
	}
	for _, t := range tags {
		a.tags = append(a.tags, t.GenerateErrorTagValue())
	}
	return a
}

// Err returns the finalized annotated error.
func (a *Annotator) Err() error {
	if a == nil {
		return nil
	}
	return &annotatedError{inner: a.inner, reason: a.reason, tags: a.tags}
}

type annotatedError struct {
	inner  error
	reason string
	tags   []TagValue
}

func (e *annotatedError) Error() string {
	switch {
	case e.inner == nil:
		return e.reason
	case e.reason == "":
		return e.inner.Error()
	default:
		return e.reason + ": " + e.inner.Error()
	}
}

func (e *annotatedError) InnerError() error { return e.inner }
func (e *annotatedError) Unwrap() error     { return e.inner }

func sprintf(format string, args []any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
