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

package retry

import (
	"context"
	"time"

	"github.com/google/assortment-quality-for-shopping-ads/common/errors"
)

// Transient tags errors which are worth retrying.
var Transient = errors.BoolTag{Key: errors.NewTagKey("transient error")}

// TransientOnly is an Iterator implementation that only retries errors if they
// are tagged with Transient.
type TransientOnly struct {
	Iterator // The wrapped Iterator.
}

// Next implements the Iterator interface.
func (i *TransientOnly) Next(ctx context.Context, err error) time.Duration {
	if !Transient.In(err) {
		return Stop
	}
	return i.Iterator.Next(ctx, err)
}

// OnlyTransient wraps a Factory so that only Transient errors are retried.
func OnlyTransient(f Factory) Factory {
	return func() Iterator {
		return &TransientOnly{f()}
	}
}
