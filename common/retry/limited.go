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
)

// Limited is an Iterator implementation that returns a constant Delay for a
// fixed number of Retries.
type Limited struct {
	Delay   time.Duration // The next generated delay.
	Retries int           // The number of remaining retries.
}

var _ Iterator = (*Limited)(nil)

// Next implements the Iterator interface.
func (i *Limited) Next(ctx context.Context, _ error) time.Duration {
	if i.Retries <= 0 || ctx.Err() != nil {
		return Stop
	}
	i.Retries--
	return i.Delay
}

// ExponentialBackoff is an Iterator implementation that grows the delay by
// Multiplier after every retry, up to MaxDelay.
type ExponentialBackoff struct {
	Limited

	// Multiplier is the exponential growth multiplier. If < 1, a default of 2
	// will be used.
	Multiplier float64
	// MaxDelay is the maximum duration. If <= zero, no maximum will be enforced.
	MaxDelay time.Duration
}

// Next implements the Iterator interface.
func (i *ExponentialBackoff) Next(ctx context.Context, err error) time.Duration {
	delay := i.Limited.Next(ctx, err)
	if delay == Stop {
		return Stop
	}

	if i.MaxDelay > 0 && delay > i.MaxDelay {
		delay = i.MaxDelay
	}

	mult := i.Multiplier
	if mult < 1 {
		mult = 2
	}
	next := time.Duration(float64(i.Delay) * mult)
	if i.MaxDelay > 0 && next > i.MaxDelay {
		next = i.MaxDelay
	}
	i.Delay = next
	return delay
}

// Default is a Factory that returns a new instance of the default iterator
// configuration.
func Default() Iterator {
	return &ExponentialBackoff{
		Limited: Limited{
			Delay:   time.Second,
			Retries: 10,
		},
		MaxDelay:   10 * time.Second,
		Multiplier: 2,
	}
}
