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

// Package sqltmpl renders the SQL templates shipped with the tool.
//
// Templates use "{name}" placeholders, with "{{" and "}}" standing for literal
// braces. A parameter value containing commas is rendered as a SQL tuple
// literal, so that "en,fr" can be used on the right side of an IN operator:
//
//	WHERE language IN {language}  ->  WHERE language IN ('en', 'fr')
//
// InList prepares a value for such a placeholder when it may hold a single
// element.
package sqltmpl

import (
	"strings"

	"github.com/google/assortment-quality-for-shopping-ads/common/errors"
)

// Params maps placeholder names to their values.
type Params map[string]string

// Format substitutes params into text.
func Format(text string, params Params) (string, error) {
	var out strings.Builder
	out.Grow(len(text))

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '{' && i+1 < len(text) && text[i+1] == '{':
			out.WriteByte('{')
			i++
		case c == '}' && i+1 < len(text) && text[i+1] == '}':
			out.WriteByte('}')
			i++
		case c == '}':
			return "", errors.Reason("single '}' encountered in format string at offset %d", i).Err()
		case c == '{':
			end := strings.IndexAny(text[i+1:], "{}")
			if end == -1 || text[i+1+end] != '}' {
				return "", errors.Reason("unmatched '{' in format string at offset %d", i).Err()
			}
			name := text[i+1 : i+1+end]
			if name == "" {
				return "", errors.Reason("empty placeholder at offset %d", i).Err()
			}
			val, ok := params[name]
			if !ok {
				return "", errors.Reason("missing template parameter %q", name).Err()
			}
			out.WriteString(render(val))
			i += end + 1
		default:
			out.WriteByte(c)
		}
	}
	return out.String(), nil
}

// render returns v verbatim, or as a tuple literal if it contains commas.
func render(v string) string {
	if !strings.Contains(v, ",") {
		return v
	}
	parts := strings.Split(v, ",")
	for i, p := range parts {
		parts[i] = quote(p)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// InList returns v such that Format renders it as a tuple literal. Values with
// commas already are; a single value is quoted and wrapped in parentheses.
func InList(v string) string {
	if strings.Contains(v, ",") {
		return v
	}
	return "(" + quote(v) + ")"
}

// quote renders s as a string literal in single quotes, falling back to
// double quotes when s contains a single quote but no double quote.
func quote(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}
	var b strings.Builder
	b.WriteByte(q)
	for i := 0; i < len(s); i++ {
		if s[i] == q || s[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte(q)
	return b.String()
}
