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

package sqltmpl

import (
	"io/fs"
	"path"
	"strings"

	"github.com/google/assortment-quality-for-shopping-ads/common/errors"
)

// NotFound is set on errors returned by Loader when the template is missing.
var NotFound = errors.BoolTag{Key: errors.NewTagKey("sqltmpl: template not found")}

// Templates lists the metric templates, in the order they are provisioned.
var Templates = []string{
	"brand_coverage.sql",
	"category_coverage.sql",
	"product_coverage.sql",
	"product_price_competitiveness.sql",
}

// ViewsDir is the subdirectory holding the view flavor of Templates.
const ViewsDir = "views"

// JobName is the template file name without its extension, e.g.
// "brand_coverage". It names the destination table and the scheduled query.
func JobName(template string) string {
	base := path.Base(template)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		return base[:i]
	}
	return base
}

// Loader reads templates from a file system.
type Loader struct {
	// FS holds the templates.
	FS fs.FS
	// Dir is the directory FS was opened at. Only used in error messages.
	Dir string
}

// Render reads the template name and formats it with params.
func (l *Loader) Render(name string, params Params) (string, error) {
	display := name
	if l.Dir != "" {
		display = path.Join(l.Dir, name)
	}
	blob, err := fs.ReadFile(l.FS, name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", errors.Reason("the file %q could not be found", display).Tag(NotFound).Err()
	case err != nil:
		return "", errors.Annotate(err, "reading %q", display).Err()
	}
	out, err := Format(string(blob), params)
	if err != nil {
		return "", errors.Annotate(err, "rendering %q", display).Err()
	}
	return out, nil
}
