// Package auth supplies bearer credentials for the Infactory API.
package auth

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/oauth2"
)

// ErrEmptyToken is returned by a token source that produced no token.
var ErrEmptyToken = errors.New("auth: empty access token")

// StaticTokenSource sends apiKey as a bearer token on every request.
func StaticTokenSource(apiKey string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey, TokenType: "Bearer"})
}

// FetchFunc obtains a fresh token, e.g. by exchanging a refresh credential.
type FetchFunc func(ctx context.Context) (*oauth2.Token, error)

type fetchSource struct {
	ctx   context.Context
	fetch FetchFunc
}

func (s fetchSource) Token() (*oauth2.Token, error) {
	tok, err := s.fetch(s.ctx)
	if err != nil {
		return nil, err
	}
	if tok == nil || tok.AccessToken == "" {
		return nil, ErrEmptyToken
	}
	return tok, nil
}

// RefreshingTokenSource caches the token returned by fetch and calls fetch
// again only once the token has expired. ctx is passed to every fetch.
func RefreshingTokenSource(ctx context.Context, fetch FetchFunc) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, fetchSource{ctx: ctx, fetch: fetch})
}

// MaskToken hides all but the first and last four characters of a secret
// for display. Short secrets are fully masked.
func MaskToken(token string) string {
	const keep = 4
	if token == "" {
		return ""
	}
	if len(token) <= 2*keep {
		return "****"
	}
	return token[:keep] + strings.Repeat("*", len(token)-2*keep) + token[len(token)-keep:]
}
