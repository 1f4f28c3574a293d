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

// Package errors is an augmented replacement package for the stdlib "errors"
// package. It contains the same New, Is and As functions, plus annotation
// and tagging helpers:
//
//	return errors.Annotate(err, "listing datasets of %q", project).Err()
//	return errors.Reason("no such template %q", name).Tag(NotFound).Err()
package errors

import (
	"errors"
	"strconv"
	"strings"
)

// Wrapped indicates an error that wraps another error.
type Wrapped interface {
	// InnerError returns the wrapped error.
	InnerError() error
}

// New returns an error with the given message, optionally tagged.
func New(msg string, tags ...TagValueGenerator) error {
	return Reason("%s", msg).Tag(tags...).Err()
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return errors.As(err, target) }

// Unwrap unwraps a wrapped error recursively, returning its inner-most error.
//
// If err is a MultiError, it is returned as-is.
func Unwrap(err error) error {
	for {
		switch t := err.(type) {
		case Wrapped:
			if inner := t.InnerError(); inner != nil {
				err = inner
				continue
			}
		case interface{ Unwrap() error }:
			if inner := t.Unwrap(); inner != nil {
				err = inner
				continue
			}
		}
		return err
	}
}

// MultiError is a simple `error` implementation which represents multiple
// `error` objects in one.
type MultiError []error

func (m MultiError) Error() string {
	n, e := m.Summary()
	switch n {
	case 0:
		return "(0 errors)"
	case 1:
		return e.Error()
	case 2:
		return e.Error() + " (and 1 other error)"
	}
	b := strings.Builder{}
	b.WriteString(e.Error())
	b.WriteString(" (and ")
	b.WriteString(strconv.Itoa(n - 1))
	b.WriteString(" other errors)")
	return b.String()
}

// Unwrap lets the stdlib errors package look into the MultiError.
func (m MultiError) Unwrap() []error { return m }

// Summary gets the total count of non-nil errors and returns the first one.
func (m MultiError) Summary() (n int, first error) {
	for _, e := range m {
		if e != nil {
			if n == 0 {
				first = e
			}
			n++
		}
	}
	return
}

// First returns the first non-nil error.
func (m MultiError) First() error {
	_, first := m.Summary()
	return first
}

// AsError returns an `error` interface for this MultiError only if it has >0
// non-nil errors in it.
func (m MultiError) AsError() error {
	if m.First() == nil {
		return nil
	}
	return m
}
