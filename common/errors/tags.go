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

type (
	tagDescription struct {
		description string
	}

	// TagKey objects are used for applying tags and finding tags/values in
	// errors. See NewTagKey for details.
	TagKey *tagDescription

	// TagValue represents a (tag, value) to be used with Annotator.Tag, or
	// may be applied to an error directly with the Apply method.
	TagValue struct {
		Key   TagKey
		Value any
	}

	// TagValueGenerator generates (TagKey, value) pairs, for use with
	// Annotator.Tag and New.
	TagValueGenerator interface {
		GenerateErrorTagValue() TagValue
	}
)

// NewTagKey creates a new TagKey.
//
// Use this with your own custom tag implementation.
func NewTagKey(description string) TagKey {
	return &tagDescription{description}
}

// GenerateErrorTagValue implements TagValueGenerator.
func (t TagValue) GenerateErrorTagValue() TagValue { return t }

// Apply applies this tag value (key+value) directly to the error. This is
// a shortcut for `errors.Annotate(err, "").Tag(t).Err()`.
func (t TagValue) Apply(err error) error {
	return Annotate(err, "").Tag(t).Err()
}

// TagValueIn retrieves the tagged value from the error that's associated
// with this key, and a boolean indicating if the tag was present or not.
//
// The outermost annotation carrying the key wins.
func TagValueIn(t TagKey, err error) (value any, ok bool) {
	Walk(err, func(err error) bool {
		if ae, isAE := err.(*annotatedError); isAE {
			for _, tv := range ae.tags {
				if tv.Key == t {
					value, ok = tv.Value, true
					return false
				}
			}
		}
		return true
	})
	return
}

// BoolTag is an error tag implementation which holds a boolean value.
//
// It should be constructed like:
//
//	var myTag = errors.BoolTag{Key: errors.NewTagKey("some description")}
type BoolTag struct{ Key TagKey }

// GenerateErrorTagValue implements TagValueGenerator, and returns a default
// value for the tag of `true`. If you want to set this BoolTag value to
// false, use BoolTag.Off().
func (b BoolTag) GenerateErrorTagValue() TagValue {
	return TagValue{Key: b.Key, Value: true}
}

// Off allows you to "remove" this boolean tag from an error (by setting it
// to false).
func (b BoolTag) Off() TagValue {
	return TagValue{Key: b.Key, Value: false}
}

// Apply is a shortcut for `errors.Annotate(err, "").Tag(b).Err()`.
func (b BoolTag) Apply(err error) error {
	return b.GenerateErrorTagValue().Apply(err)
}

// In returns true iff this tag value has been set to true on this error.
func (b BoolTag) In(err error) bool {
	v, ok := TagValueIn(b.Key, err)
	if !ok {
		return false
	}
	return v.(bool)
}
