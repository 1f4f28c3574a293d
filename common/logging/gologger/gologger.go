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

// Package gologger is a logging.Logger backed by github.com/op/go-logging.
package gologger

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	gol "github.com/op/go-logging"

	"github.com/google/assortment-quality-for-shopping-ads/common/logging"
)

// StandardFormat prints the level, time, pid and source location, colored,
// followed by the message.
const StandardFormat = `%{color}[%{level:.1s}%{time:2006-01-02T15:04:05.000000Z07:00} ` +
	`%{pid} 0 %{shortfile}]%{color:reset} %{message}`

// PickyFormat is StandardFormat without colors, for writers that aren't
// terminals.
const PickyFormat = `[%{level:.1s}%{time:2006-01-02T15:04:05.000000Z07:00} ` +
	`%{pid} 0 %{shortfile}] %{message}`

// StdConfig writes StandardFormat lines to stderr.
var StdConfig = LoggerConfig{Out: os.Stderr}

// LoggerConfig owns a go-logging logger writing to Out.
type LoggerConfig struct {
	Out    io.Writer
	Format string // StandardFormat if empty

	once sync.Once
	mu   sync.Mutex
	l    *gol.Logger
}

// NewLogger returns a logging.Logger bound to ctx. ctx may be nil, in which
// case everything at Debug level and above is logged.
func (lc *LoggerConfig) NewLogger(ctx context.Context) logging.Logger {
	lc.once.Do(func() {
		format := lc.Format
		if format == "" {
			format = StandardFormat
		}
		backend := gol.AddModuleLevel(gol.NewBackendFormatter(
			gol.NewLogBackend(lc.Out, "", 0),
			gol.MustStringFormatter(format)))
		backend.SetLevel(gol.DEBUG, "")

		lc.l = gol.MustGetLogger("")
		lc.l.SetBackend(backend)
	})
	return &loggerImpl{cfg: lc, ctx: ctx}
}

// Use installs a logger produced by this config into the context.
func (lc *LoggerConfig) Use(ctx context.Context) context.Context {
	return logging.SetFactory(ctx, lc.NewLogger)
}

type loggerImpl struct {
	cfg *LoggerConfig
	ctx context.Context
}

func (li *loggerImpl) Debugf(format string, args ...any) {
	li.LogCall(logging.Debug, 1, format, args)
}

func (li *loggerImpl) Infof(format string, args ...any) {
	li.LogCall(logging.Info, 1, format, args)
}

func (li *loggerImpl) Warningf(format string, args ...any) {
	li.LogCall(logging.Warning, 1, format, args)
}

func (li *loggerImpl) Errorf(format string, args ...any) {
	li.LogCall(logging.Error, 1, format, args)
}

func (li *loggerImpl) LogCall(l logging.Level, calldepth int, format string, args []any) {
	if li.ctx != nil && !logging.IsLogging(li.ctx, l) {
		return
	}

	// Render the message here so that format verbs in the fields are never
	// interpreted.
	text := fmt.Sprintf(format, args...)
	if li.ctx != nil {
		if fields := logging.GetFields(li.ctx); len(fields) > 0 {
			text = fmt.Sprintf("%-43s %s", text, fields)
		}
	}

	li.cfg.mu.Lock()
	defer li.cfg.mu.Unlock()

	// go-logging adds 2 frames of its own; skip ours as well.
	li.cfg.l.ExtraCalldepth = calldepth + 1
	switch l {
	case logging.Debug:
		li.cfg.l.Debug(text)
	case logging.Info:
		li.cfg.l.Info(text)
	case logging.Warning:
		li.cfg.l.Warning(text)
	default:
		li.cfg.l.Error(text)
	}
}
