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

// Package retry re-runs an operation according to an Iterator policy.
package retry

import (
	"context"
	"time"
)

// Stop is a sentinel value returned by Iterator.Next that instructs the
// retry loop to stop.
const Stop time.Duration = -1

// Iterator describes a stateful implementation of retry logic.
type Iterator interface {
	// Next returns the next retry delay, or Stop if no more retries should be
	// made.
	//
	// err is the error returned by the last attempt.
	Next(ctx context.Context, err error) time.Duration
}

// Factory is a function that produces an independent Iterator instance.
//
// Since each Iterator is stateful, a Factory is used to create fresh ones for
// every retry loop.
type Factory func() Iterator

// Callback is a callback function that Retry will invoke every time an
// attempt fails prior to sleeping.
type Callback func(err error, delay time.Duration)

// Retry executes fn until it succeeds or the Iterator returned by f says to
// stop.
//
// A nil Factory means no retries. The last error is returned, or the context
// error if the context was cancelled while sleeping.
func Retry(ctx context.Context, f Factory, fn func() error, callback Callback) error {
	var it Iterator
	if f != nil {
		it = f()
	}

	for {
		err := fn()
		if err == nil {
			return nil
		}

		delay := Stop
		if it != nil {
			delay = it.Next(ctx, err)
		}
		if delay == Stop {
			return err
		}
		if callback != nil {
			callback(err, delay)
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
