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

// Package memlogger is a logging.Logger which records messages in memory,
// for use in tests.
package memlogger

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/assortment-quality-for-shopping-ads/common/logging"
)

// LogEntry is a single recorded log message.
type LogEntry struct {
	Level  logging.Level
	Msg    string
	Fields logging.Fields
}

// MemLogger is an implementation of logging.Logger that keeps messages.
type MemLogger struct {
	lock *sync.Mutex
	data *[]LogEntry
	ctx  context.Context
}

var _ logging.Logger = (*MemLogger)(nil)

func (m *MemLogger) Debugf(format string, args ...any) {
	m.LogCall(logging.Debug, 1, format, args)
}

func (m *MemLogger) Infof(format string, args ...any) {
	m.LogCall(logging.Info, 1, format, args)
}

func (m *MemLogger) Warningf(format string, args ...any) {
	m.LogCall(logging.Warning, 1, format, args)
}

func (m *MemLogger) Errorf(format string, args ...any) {
	m.LogCall(logging.Error, 1, format, args)
}

func (m *MemLogger) LogCall(l logging.Level, _ int, format string, args []any) {
	if m.ctx != nil && !logging.IsLogging(m.ctx, l) {
		return
	}
	var fields logging.Fields
	if m.ctx != nil {
		fields = logging.GetFields(m.ctx)
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	*m.data = append(*m.data, LogEntry{l, fmt.Sprintf(format, args...), fields})
}

// Messages returns all of the log messages that this memory logger has
// recorded.
func (m *MemLogger) Messages() []LogEntry {
	m.lock.Lock()
	defer m.lock.Unlock()
	if len(*m.data) == 0 {
		return nil
	}
	ret := make([]LogEntry, len(*m.data))
	copy(ret, *m.data)
	return ret
}

// Reset resets the logged messages recorded so far.
func (m *MemLogger) Reset() {
	m.lock.Lock()
	defer m.lock.Unlock()
	*m.data = nil
}

// HasFunc returns true iff the MemLogger contains a message which fn
// returns true for.
func (m *MemLogger) HasFunc(fn func(*LogEntry) bool) bool {
	for _, ent := range m.Messages() {
		if fn(&ent) {
			return true
		}
	}
	return false
}

// Has returns true iff the MemLogger contains a message at level l containing
// the substring sub.
func (m *MemLogger) Has(l logging.Level, sub string) bool {
	return m.HasFunc(func(e *LogEntry) bool {
		return e.Level == l && strings.Contains(e.Msg, sub)
	})
}

// Dump returns the recorded messages as text, one per line.
func (m *MemLogger) Dump() string {
	b := strings.Builder{}
	for _, ent := range m.Messages() {
		fmt.Fprintf(&b, "%s: %s\n", ent.Level, ent.Msg)
	}
	return b.String()
}

// Use adds a memory backed Logger to the supplied context. Every logger
// obtained from the returned context shares the same storage; fetch it with
// Get.
func Use(ctx context.Context) context.Context {
	lock, data := &sync.Mutex{}, &[]LogEntry{}
	return logging.SetFactory(ctx, func(ctx context.Context) logging.Logger {
		return &MemLogger{lock: lock, data: data, ctx: ctx}
	})
}

// Get returns the MemLogger installed in the context by Use. It panics if the
// context has no MemLogger.
func Get(ctx context.Context) *MemLogger {
	return logging.Get(ctx).(*MemLogger)
}
