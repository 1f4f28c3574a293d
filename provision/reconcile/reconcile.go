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

// Package reconcile implements the "find by natural key, create if absent"
// loop shared by every provisioning step.
//
// Ensure never updates or deletes an existing resource. It lists the
// resources under a parent once, returns the first one matching the natural
// key, and only if there is none calls Create exactly once.
package reconcile

import (
	"context"

	"github.com/google/assortment-quality-for-shopping-ads/common/errors"
	"github.com/google/assortment-quality-for-shopping-ads/common/logging"
)

// Kind names a kind of provisioned resource in logs.
type Kind string

const (
	Service                Kind = "Service"
	Dataset                Kind = "Dataset"
	MerchantCenterTransfer Kind = "MerchantCenterTransfer"
	ScheduledQuery         Kind = "ScheduledQuery"
	View                   Kind = "View"
)

// CreateFailed is set on errors returned by Ensure when the create call
// failed. Listing errors never carry it.
var CreateFailed = errors.BoolTag{Key: errors.NewTagKey("reconcile: create failed")}

// Resource describes one resource to reconcile.
//
// T is the type the remote service returns, P is the creation payload.
type Resource[T, P any] struct {
	Kind Kind
	// Parent is the path under which the resource is listed and created,
	// e.g. "projects/p/locations/eu".
	Parent string
	// Key is the natural key in display form, used only in logs.
	Key string
	// Payload is passed to Create as is.
	Payload P

	List   func(ctx context.Context, parent string) ([]T, error)
	Match  func(T) bool
	Create func(ctx context.Context, parent string, payload P) (T, error)

	// Hint is logged next to a create failure to help the user fix it.
	Hint string
}

// Result is the outcome of a successful Ensure.
type Result[T any] struct {
	// Created is true if Create was called and succeeded.
	Created bool
	// Planned is true if the resource was absent but the run is a dry run.
	Planned bool
	// Resource is the matched or the created resource. Zero if Planned.
	Resource T
}

type dryRunKey struct{}

// WithDryRun returns a context in which Ensure never calls Create.
func WithDryRun(ctx context.Context) context.Context {
	return context.WithValue(ctx, dryRunKey{}, true)
}

// IsDryRun is true if ctx was derived from WithDryRun.
func IsDryRun(ctx context.Context) bool {
	v, _ := ctx.Value(dryRunKey{}).(bool)
	return v
}

// Ensure makes sure the resource exists, creating it if no listed element
// matches.
func Ensure[T, P any](ctx context.Context, r Resource[T, P]) (Result[T], error) {
	ctx = logging.SetFields(ctx, logging.Fields{
		"kind": string(r.Kind),
		"key":  r.Key,
	})

	existing, err := r.List(ctx, r.Parent)
	if err != nil {
		return Result[T]{}, errors.Annotate(err, "listing %s under %q", r.Kind, r.Parent).Err()
	}
	for _, item := range existing {
		if r.Match(item) {
			logging.Infof(ctx, "%s %q already exists, skipping", r.Kind, r.Key)
			return Result[T]{Resource: item}, nil
		}
	}

	if IsDryRun(ctx) {
		logging.Infof(ctx, "Dry run: would create %s %q under %q", r.Kind, r.Key, r.Parent)
		return Result[T]{Planned: true}, nil
	}

	logging.Infof(ctx, "Creating %s %q", r.Kind, r.Key)
	created, err := r.Create(ctx, r.Parent, r.Payload)
	if err != nil {
		logging.WithError(err).Errorf(ctx, "Failed to create %s %q", r.Kind, r.Key)
		if r.Hint != "" {
			logging.Errorf(ctx, "%s", r.Hint)
		}
		return Result[T]{}, errors.Annotate(err, "creating %s %q", r.Kind, r.Key).Tag(CreateFailed).Err()
	}
	logging.Infof(ctx, "Created %s %q", r.Kind, r.Key)
	return Result[T]{Created: true, Resource: created}, nil
}
