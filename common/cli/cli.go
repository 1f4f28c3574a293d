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

// Package cli is a helper package for "github.com/maruel/subcommands".
//
// It adds a non-intrusive integration with context.Context: the application
// builds a root context once, and every command run derives its own from it.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/maruel/subcommands"
)

// ContextModificator takes a context, adds things to it, and returns another.
type ContextModificator interface {
	ModifyContext(context.Context) context.Context
}

// Application is like subcommands.DefaultApplication, except it also
// implements ContextModificator.
type Application struct {
	Name     string
	Title    string
	Context  func(context.Context) context.Context
	Commands []*subcommands.Command
	EnvVars  map[string]subcommands.EnvVarDefinition

	// Out and Err default to os.Stdout and os.Stderr.
	Out io.Writer
	Err io.Writer
}

var _ interface {
	subcommands.Application
	ContextModificator
} = (*Application)(nil)

// GetName implements interface subcommands.Application.
func (a *Application) GetName() string {
	return a.Name
}

// GetTitle implements interface subcommands.Application.
func (a *Application) GetTitle() string {
	return a.Title
}

// GetCommands implements interface subcommands.Application.
func (a *Application) GetCommands() []*subcommands.Command {
	return a.Commands
}

// GetOut implements interface subcommands.Application.
func (a *Application) GetOut() io.Writer {
	if a.Out != nil {
		return a.Out
	}
	return os.Stdout
}

// GetErr implements interface subcommands.Application.
func (a *Application) GetErr() io.Writer {
	if a.Err != nil {
		return a.Err
	}
	return os.Stderr
}

// GetEnvVars implements interface subcommands.Application.
func (a *Application) GetEnvVars() map[string]subcommands.EnvVarDefinition {
	return a.EnvVars
}

// ModifyContext implements interface ContextModificator.
//
// 'ctx' here is always context.Background().
func (a *Application) ModifyContext(ctx context.Context) context.Context {
	if a.Context != nil {
		return a.Context(ctx)
	}
	return ctx
}

type envKey struct{}

// GetContext sniffs ContextModificator in the app and in the cmd and uses
// them to derive a context for the command.
//
// Embeds the subcommands.Env into the Context (if any), which can be
// accessed with the *Env functions in this package.
//
// Subcommands can use it to get an initial context in their 'Run' methods.
//
// Returns the background context if app doesn't implement ContextModificator.
func GetContext(app subcommands.Application, cmd subcommands.CommandRun, env subcommands.Env) context.Context {
	ctx := context.Background()
	if m, ok := app.(ContextModificator); ok {
		ctx = m.ModifyContext(ctx)
	}
	if m, ok := cmd.(ContextModificator); ok {
		ctx = m.ModifyContext(ctx)
	}
	if len(env) > 0 {
		ctx = context.WithValue(ctx, envKey{}, env)
	}
	return ctx
}

// Getenv returns the given value from the embedded subcommands.Env, or "" if
// the value was unset and had no default.
func Getenv(ctx context.Context, key string) string {
	return LookupEnv(ctx, key).Value
}

// LookupEnv returns the given value from the embedded subcommands.Env as-is.
func LookupEnv(ctx context.Context, key string) subcommands.EnvVar {
	e, _ := ctx.Value(envKey{}).(subcommands.Env)
	return e[key]
}
