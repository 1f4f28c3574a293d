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

package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/oauth2"

	"github.com/google/assortment-quality-for-shopping-ads/common/errors"
)

// CacheKey identifies the OAuth client and scopes a cached token was minted
// for. A token cached for a different key is ignored.
type CacheKey struct {
	ClientID string   `json:"client_id"`
	Scopes   []string `json:"scopes"`
}

func (k CacheKey) equal(o CacheKey) bool {
	if k.ClientID != o.ClientID || len(k.Scopes) != len(o.Scopes) {
		return false
	}
	a := append([]string(nil), k.Scopes...)
	b := append([]string(nil), o.Scopes...)
	sort.Strings(a)
	sort.Strings(b)
	return strings.Join(a, "\n") == strings.Join(b, "\n")
}

// cacheFile is the on-disk format of the credential cache.
type cacheFile struct {
	Key   CacheKey      `json:"key"`
	Token *oauth2.Token `json:"token"`
}

// DiskTokenCache keeps one token in a JSON file.
type DiskTokenCache struct {
	Path string
}

// GetToken reads the token from the cache file.
//
// Returns (nil, nil) if the file doesn't exist, is not a credential cache, or
// holds a token for another key.
func (c *DiskTokenCache) GetToken(key CacheKey) (*oauth2.Token, error) {
	if c.Path == "" {
		return nil, nil
	}
	blob, err := os.ReadFile(c.Path)
	switch {
	case os.IsNotExist(err):
		return nil, nil
	case err != nil:
		return nil, err
	}

	var f cacheFile
	if err := json.Unmarshal(blob, &f); err != nil || f.Token == nil {
		return nil, nil
	}
	if !f.Key.equal(key) {
		return nil, nil
	}
	return f.Token, nil
}

// PutToken replaces the cache content with the token.
//
// The file is written to a temporary file first and renamed, so readers never
// see a partial file.
func (c *DiskTokenCache) PutToken(key CacheKey, tok *oauth2.Token) error {
	if c.Path == "" {
		return errors.New("no credential cache path")
	}
	blob, err := json.MarshalIndent(cacheFile{Key: key, Token: tok}, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.Annotate(err, "creating %q", dir).Err()
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(c.Path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.Path)
}

// DeleteToken removes the cache file. Missing file is not an error.
func (c *DiskTokenCache) DeleteToken() error {
	if c.Path == "" {
		return nil
	}
	if err := os.Remove(c.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
