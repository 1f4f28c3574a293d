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

package provision

import (
	"fmt"
	"strings"

	"github.com/google/assortment-quality-for-shopping-ads/provision/reconcile"
)

// Outcome is what happened to one resource.
type Outcome string

const (
	Existing Outcome = "existing"
	Created  Outcome = "created"
	Planned  Outcome = "planned"
	Failed   Outcome = "failed"
)

// Entry is the outcome for one resource.
type Entry struct {
	Kind    reconcile.Kind
	Key     string
	Outcome Outcome
	Err     error
}

// Report lists the outcome of every resource of a run, in order.
type Report struct {
	Entries []Entry
}

func (r *Report) add(kind reconcile.Kind, key string, o Outcome, err error) {
	r.Entries = append(r.Entries, Entry{Kind: kind, Key: key, Outcome: o, Err: err})
}

// has is true if an entry of the given kind has the outcome o.
func (r *Report) has(kind reconcile.Kind, o Outcome) bool {
	for _, e := range r.Entries {
		if e.Kind == kind && e.Outcome == o {
			return true
		}
	}
	return false
}

// Count returns the number of entries with the outcome o.
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, e := range r.Entries {
		if e.Outcome == o {
			n++
		}
	}
	return n
}

// Failures returns the entries which failed to be created.
func (r *Report) Failures() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Outcome == Failed {
			out = append(out, e)
		}
	}
	return out
}

func (r *Report) String() string {
	parts := make([]string, 0, 4)
	for _, o := range []Outcome{Existing, Created, Planned, Failed} {
		if n := r.Count(o); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, o))
		}
	}
	if len(parts) == 0 {
		return "nothing to do"
	}
	return strings.Join(parts, ", ")
}
