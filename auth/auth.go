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

// Package auth implements the installed-application OAuth flow used to talk
// to Google Cloud APIs on behalf of a user.
//
// The refresh token obtained during the interactive login is kept in a local
// credential cache file, so only the first run prompts. Later runs reuse
// (and refresh) the cached token silently.
package auth

import (
	"context"
	"io"
	"net/http"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/google/assortment-quality-for-shopping-ads/common/errors"
	"github.com/google/assortment-quality-for-shopping-ads/common/logging"
)

// OAuthScopeCloudPlatform and OAuthScopeBigQuery are the scopes requested by
// default.
const (
	OAuthScopeCloudPlatform = "https://www.googleapis.com/auth/cloud-platform"
	OAuthScopeBigQuery      = "https://www.googleapis.com/auth/bigquery"
)

// DefaultScopes is the list of scopes used when Options.Scopes is empty.
var DefaultScopes = []string{OAuthScopeCloudPlatform, OAuthScopeBigQuery}

// LoginMode describes what to do when there's no cached usable token.
type LoginMode string

const (
	// InteractiveLogin runs the browser flow if there is no usable cached
	// token.
	InteractiveLogin LoginMode = "InteractiveLogin"

	// SilentLogin fails with ErrLoginRequired if there is no usable cached
	// token.
	SilentLogin LoginMode = "SilentLogin"
)

// ErrLoginRequired is returned in SilentLogin mode when the credential cache
// has no usable token.
var ErrLoginRequired = errors.New("interactive login is required")

// Options are used by NewAuthenticator call.
type Options struct {
	// ClientSecretsPath is a path to the OAuth client JSON downloaded from the
	// Cloud Console ("Desktop app" client type).
	ClientSecretsPath string

	// CredentialsPath is the credential cache file.
	CredentialsPath string

	// Scopes is a list of OAuth scopes to request. DefaultScopes if empty.
	Scopes []string

	// Out receives the login instructions. os.Stderr if nil.
	Out io.Writer

	// OpenURL, if set, is called with the consent screen URL after it has
	// been printed, e.g. to launch a browser.
	OpenURL func(url string) error
}

// Authenticator hands out tokens and authenticated HTTP clients.
type Authenticator struct {
	ctx  context.Context
	mode LoginMode
	opts Options

	lock   sync.Mutex
	config *oauth2.Config
	cache  *DiskTokenCache
	source oauth2.TokenSource
}

// NewAuthenticator returns a new instance of Authenticator given its options.
//
// The context is used for the token exchange and refreshes for the lifetime
// of the authenticator.
func NewAuthenticator(ctx context.Context, mode LoginMode, opts Options) *Authenticator {
	if len(opts.Scopes) == 0 {
		opts.Scopes = DefaultScopes
	}
	if opts.Out == nil {
		opts.Out = os.Stderr
	}
	return &Authenticator{
		ctx:   ctx,
		mode:  mode,
		opts:  opts,
		cache: &DiskTokenCache{Path: opts.CredentialsPath},
	}
}

// TokenSource returns a token source that refreshes the cached token as
// needed and writes refreshed tokens back to the cache.
//
// In InteractiveLogin mode it runs the browser flow first if the cache holds
// no token, or holds one which can no longer be refreshed.
func (a *Authenticator) TokenSource() (oauth2.TokenSource, error) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.source != nil {
		return a.source, nil
	}

	cfg, err := a.oauthConfig()
	if err != nil {
		return nil, err
	}

	tok, err := a.cachedToken(cfg)
	if err != nil {
		return nil, err
	}

	var src oauth2.TokenSource
	if tok != nil {
		src = a.persisting(cfg, tok)
		// Make sure the cached token is still usable. This refreshes it if it
		// has expired.
		switch _, err := src.Token(); {
		case err == nil:
		case isInvalidGrant(err):
			logging.Warningf(a.ctx, "The cached credentials are no longer valid: %s", err)
			src = nil
		default:
			return nil, errors.Annotate(err, "refreshing cached credentials").Err()
		}
	}

	if src == nil {
		if a.mode != InteractiveLogin {
			return nil, ErrLoginRequired
		}
		if tok, err = a.login(cfg); err != nil {
			return nil, err
		}
		src = a.persisting(cfg, tok)
	}

	a.source = src
	return src, nil
}

// Client returns an HTTP client that adds the OAuth token to requests.
func (a *Authenticator) Client() (*http.Client, error) {
	src, err := a.TokenSource()
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(a.ctx, src), nil
}

// Login unconditionally runs the browser flow and stores the resulting token
// in the credential cache.
func (a *Authenticator) Login() error {
	a.lock.Lock()
	defer a.lock.Unlock()

	cfg, err := a.oauthConfig()
	if err != nil {
		return err
	}
	tok, err := a.login(cfg)
	if err != nil {
		return err
	}
	a.source = a.persisting(cfg, tok)
	return nil
}

// Logout removes the cached credentials. It is not an error to log out twice.
func (a *Authenticator) Logout() error {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.source = nil
	return a.cache.DeleteToken()
}

// CachedToken returns the token in the credential cache, or nil if there is
// none usable with the configured client and scopes. It never refreshes.
func (a *Authenticator) CachedToken() (*oauth2.Token, error) {
	a.lock.Lock()
	defer a.lock.Unlock()
	cfg, err := a.oauthConfig()
	if err != nil {
		return nil, err
	}
	return a.cachedToken(cfg)
}

func (a *Authenticator) cachedToken(cfg *oauth2.Config) (*oauth2.Token, error) {
	tok, err := a.cache.GetToken(CacheKey{ClientID: cfg.ClientID, Scopes: cfg.Scopes})
	if err != nil {
		return nil, errors.Annotate(err, "reading credential cache %q", a.cache.Path).Err()
	}
	if tok != nil && !tok.Valid() && tok.RefreshToken == "" {
		// Expired and can't be refreshed.
		return nil, nil
	}
	return tok, nil
}

func (a *Authenticator) oauthConfig() (*oauth2.Config, error) {
	if a.config != nil {
		return a.config, nil
	}
	if a.opts.ClientSecretsPath == "" {
		return nil, errors.New("no client secrets file given")
	}
	blob, err := os.ReadFile(a.opts.ClientSecretsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Reason(
				"client secrets file %q is missing; create an OAuth client "+
					"(Desktop app) in the Cloud Console and download its JSON there",
				a.opts.ClientSecretsPath).Err()
		}
		return nil, errors.Annotate(err, "reading client secrets").Err()
	}
	cfg, err := google.ConfigFromJSON(blob, a.opts.Scopes...)
	if err != nil {
		return nil, errors.Annotate(err, "parsing client secrets %q", a.opts.ClientSecretsPath).Err()
	}
	a.config = cfg
	return cfg, nil
}

func (a *Authenticator) persisting(cfg *oauth2.Config, tok *oauth2.Token) oauth2.TokenSource {
	return &persistingSource{
		ctx:   a.ctx,
		base:  cfg.TokenSource(a.ctx, tok),
		cache: a.cache,
		key:   CacheKey{ClientID: cfg.ClientID, Scopes: cfg.Scopes},
		last:  tok,
	}
}

// persistingSource writes every new token it sees back to the cache.
type persistingSource struct {
	ctx   context.Context
	base  oauth2.TokenSource
	cache *DiskTokenCache
	key   CacheKey

	lock sync.Mutex
	last *oauth2.Token
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.lock.Lock()
	defer p.lock.Unlock()
	if p.last == nil || tok.AccessToken != p.last.AccessToken {
		// The refresh token is only sent on the first exchange.
		if tok.RefreshToken == "" && p.last != nil {
			cp := *tok
			cp.RefreshToken = p.last.RefreshToken
			tok = &cp
		}
		if err := p.cache.PutToken(p.key, tok); err != nil {
			logging.Warningf(p.ctx, "Failed to update the credential cache: %s", err)
		}
		p.last = tok
	}
	return tok, nil
}

// isInvalidGrant is true if the token endpoint rejected the refresh token.
func isInvalidGrant(err error) bool {
	var rerr *oauth2.RetrieveError
	if !errors.As(err, &rerr) {
		return false
	}
	if rerr.ErrorCode != "" {
		return rerr.ErrorCode == "invalid_grant" || rerr.ErrorCode == "unauthorized_client"
	}
	return rerr.Response != nil && rerr.Response.StatusCode >= 400 && rerr.Response.StatusCode < 500
}
