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

package logging

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// ErrorKey is a logging field key to use for errors.
const ErrorKey = "error"

// Fields maps string keys to arbitrary values.
//
// Fields can be installed into a context and are rendered by backends after
// the message.
type Fields map[string]any

// NewFields instantiates a new Fields instance by duplicating the supplied
// map.
func NewFields(v map[string]any) Fields {
	fields := make(Fields, len(v))
	for k, v := range v {
		fields[k] = v
	}
	return fields
}

// WithError returns a Fields instance containing an error key.
func WithError(err error) Fields {
	return Fields{ErrorKey: err}
}

// Copy returns a copy of this Fields with the keys from other overlaid on top.
func (f Fields) Copy(other Fields) Fields {
	if len(f) == 0 && len(other) == 0 {
		return nil
	}
	ret := make(Fields, len(f)+len(other))
	for k, v := range f {
		ret[k] = v
	}
	for k, v := range other {
		ret[k] = v
	}
	return ret
}

// SortedEntries returns the keys of the Fields, sorted.
func (f Fields) SortedEntries() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns a string describing the contents of f in a sorted,
// dictionary-like format.
func (f Fields) String() string {
	b := strings.Builder{}
	b.WriteRune('{')
	for i, k := range f.SortedEntries() {
		if i > 0 {
			b.WriteString(", ")
		}
		v := f[k]
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		fmt.Fprintf(&b, "%q:%s", k, fieldValue(v))
	}
	b.WriteRune('}')
	return b.String()
}

func fieldValue(v any) string {
	switch t := v.(type) {
	case string:
		return fmt.Sprintf("%q", t)
	case fmt.Stringer:
		return fmt.Sprintf("%q", t.String())
	default:
		return fmt.Sprintf("%#v", t)
	}
}

// Debugf is a shorthand method to call the current logger's Debugf method
// with these fields installed.
func (f Fields) Debugf(ctx context.Context, fmt string, args ...any) {
	Get(SetFields(ctx, f)).LogCall(Debug, 1, fmt, args)
}

// Infof is a shorthand method to call the current logger's Infof method
// with these fields installed.
func (f Fields) Infof(ctx context.Context, fmt string, args ...any) {
	Get(SetFields(ctx, f)).LogCall(Info, 1, fmt, args)
}

// Warningf is a shorthand method to call the current logger's Warningf method
// with these fields installed.
func (f Fields) Warningf(ctx context.Context, fmt string, args ...any) {
	Get(SetFields(ctx, f)).LogCall(Warning, 1, fmt, args)
}

// Errorf is a shorthand method to call the current logger's Errorf method
// with these fields installed.
func (f Fields) Errorf(ctx context.Context, fmt string, args ...any) {
	Get(SetFields(ctx, f)).LogCall(Error, 1, fmt, args)
}

// SetFields adds the additional fields as context for the current Logger. The
// display of these fields depends on the implementation of the Logger. The
// new context will contain the combination of its current Fields, updated
// with the new ones (see Fields.Copy).
func SetFields(ctx context.Context, fields Fields) context.Context {
	return context.WithValue(ctx, fieldsKey, GetFields(ctx).Copy(fields))
}

// SetField is a convenience method for SetFields for a single key/value pair.
func SetField(ctx context.Context, key string, value any) context.Context {
	return SetFields(ctx, Fields{key: value})
}

// GetFields returns the current Fields.
//
// The returned value must not be modified.
func GetFields(ctx context.Context) Fields {
	if f, ok := ctx.Value(fieldsKey).(Fields); ok {
		return f
	}
	return nil
}
