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

import "context"

// IsLogging reports whether messages at level l are emitted in ctx.
//
// Logger implementations call it to drop messages below the context level.
func IsLogging(ctx context.Context, l Level) bool {
	return l >= GetLevel(ctx)
}

// Debugf logs at Debug level through the Logger installed in ctx.
func Debugf(ctx context.Context, format string, args ...any) {
	logf(ctx, Debug, format, args)
}

// Infof logs at Info level through the Logger installed in ctx.
func Infof(ctx context.Context, format string, args ...any) {
	logf(ctx, Info, format, args)
}

// Warningf logs at Warning level through the Logger installed in ctx.
func Warningf(ctx context.Context, format string, args ...any) {
	logf(ctx, Warning, format, args)
}

// Errorf logs at Error level through the Logger installed in ctx.
func Errorf(ctx context.Context, format string, args ...any) {
	logf(ctx, Error, format, args)
}

// Logf logs at level l through the Logger installed in ctx.
func Logf(ctx context.Context, l Level, format string, args ...any) {
	logf(ctx, l, format, args)
}

// logf skips two frames: itself and the exported helper.
func logf(ctx context.Context, l Level, format string, args []any) {
	Get(ctx).LogCall(l, 2, format, args)
}
