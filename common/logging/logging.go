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

// Package logging defines a leveled Logger carried by a context.Context.
//
// Code never holds a logger directly. It logs through the package-level
// helpers, which look up the Logger installed in the context:
//
//	ctx = gologger.StdConfig.Use(ctx)
//	logging.Infof(ctx, "creating dataset %s", id)
//
// A context without a Logger discards everything.
package logging

import (
	"context"
)

// Logger is the interface implemented by logging backends.
type Logger interface {
	// Debugf formats its arguments according to the format, analogous to
	// fmt.Printf, and records the text as a log message at Debug level.
	Debugf(format string, args ...any)

	// Infof is like Debugf, but logs at Info level.
	Infof(format string, args ...any)

	// Warningf is like Debugf, but logs at Warning level.
	Warningf(format string, args ...any)

	// Errorf is like Debugf, but logs at Error level.
	Errorf(format string, args ...any)

	// LogCall is a generic logging function. This is oriented more towards
	// utility functions than direct end-user usage.
	//
	// calldepth is the number of stack frames to skip, relative to the caller
	// of LogCall, when attributing the log line to a source location.
	LogCall(l Level, calldepth int, format string, args []any)
}

// Factory is a function that returns a Logger instance bound to the context.
//
// The Factory receives the context so it can pick up the level and fields
// installed in it.
type Factory func(context.Context) Logger

type key int

const (
	factoryKey key = iota
	levelKey
	fieldsKey
)

// SetFactory sets the Logger factory for this context.
//
// The factory will be called each time Get(context) is used.
func SetFactory(ctx context.Context, f Factory) context.Context {
	return context.WithValue(ctx, factoryKey, f)
}

// GetFactory returns the currently-configured logging factory (or nil).
func GetFactory(ctx context.Context) Factory {
	if f, ok := ctx.Value(factoryKey).(Factory); ok {
		return f
	}
	return nil
}

// Get the current Logger, or a logger that ignores all messages if none
// is defined.
func Get(ctx context.Context) Logger {
	if f := GetFactory(ctx); f != nil {
		return f(ctx)
	}
	return Null
}

// Null is a logger that silently ignores all messages.
var Null Logger = nullLogger{}

type nullLogger struct{}

func (nullLogger) Debugf(string, ...any)              {}
func (nullLogger) Infof(string, ...any)               {}
func (nullLogger) Warningf(string, ...any)            {}
func (nullLogger) Errorf(string, ...any)              {}
func (nullLogger) LogCall(Level, int, string, []any) {}
