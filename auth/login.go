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
	"fmt"
	"html"
	"net"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/google/assortment-quality-for-shopping-ads/common/errors"
	"github.com/google/assortment-quality-for-shopping-ads/common/logging"
)

type callbackResult struct {
	code string
	err  error
}

// login runs the 3-legged OAuth flow with a loopback redirect and stores the
// resulting token.
//
// A local HTTP server on 127.0.0.1 receives the authorization code. The code
// exchange is protected with PKCE and the callback with a random state.
func (a *Authenticator) login(cfg *oauth2.Config) (*oauth2.Token, error) {
	ctx := a.ctx

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, errors.Annotate(err, "starting the local OAuth callback server").Err()
	}

	loopback := *cfg
	loopback.RedirectURL = fmt.Sprintf("http://%s/", ln.Addr())

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	results := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ok := parseCallback(r, state)
			if !ok {
				http.NotFound(w, r)
				return
			}
			if res.err != nil {
				http.Error(w, html.EscapeString(res.err.Error()), http.StatusBadRequest)
			} else {
				fmt.Fprintln(w, "Authentication complete. You can close this window.")
			}
			select {
			case results <- res:
			default:
			}
		}),
	}
	go srv.Serve(ln)
	defer srv.Close()

	url := loopback.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier))

	out := a.opts.Out
	fmt.Fprintln(out, "Getting a refresh token with following OAuth scopes:")
	for _, scope := range loopback.Scopes {
		fmt.Fprintf(out, "  * %s\n", scope)
	}
	fmt.Fprintf(out, "\nVisit the following URL to authorize this tool:\n\n%s\n\n", url)
	if a.opts.OpenURL != nil {
		if err := a.opts.OpenURL(url); err != nil {
			logging.Warningf(ctx, "Failed to open the browser: %s", err)
		}
	}

	var res callbackResult
	select {
	case res = <-results:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.err != nil {
		return nil, res.err
	}

	tok, err := loopback.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, errors.Annotate(err, "exchanging the authorization code").Err()
	}
	if err := a.cache.PutToken(CacheKey{ClientID: cfg.ClientID, Scopes: cfg.Scopes}, tok); err != nil {
		return nil, errors.Annotate(err, "writing credential cache %q", a.cache.Path).Err()
	}
	logging.Infof(ctx, "Credentials saved to %s", a.cache.Path)
	return tok, nil
}

// parseCallback extracts the authorization code of a redirect. ok is false
// for requests which are not a redirect from the authorization server, such
// as a browser asking for /favicon.ico.
func parseCallback(r *http.Request, state string) (res callbackResult, ok bool) {
	q := r.URL.Query()
	if q.Get("code") == "" && q.Get("error") == "" {
		return callbackResult{}, false
	}
	switch {
	case q.Get("state") != state:
		return callbackResult{err: errors.New("OAuth callback state mismatch")}, true
	case q.Get("error") != "":
		return callbackResult{err: errors.Reason("authorization denied: %s", q.Get("error")).Err()}, true
	}
	return callbackResult{code: q.Get("code")}, true
}
