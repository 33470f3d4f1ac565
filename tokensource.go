package scorewire

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/scorewire/scorewire-go/apierr"
)

// tokenSourceAdapter adapts the client's token manager to oauth2.TokenSource
// so the SDK's session can authorize oauth2-aware libraries.
type tokenSourceAdapter struct {
	client *Client
	ctx    context.Context
}

// Compile-time check to ensure tokenSourceAdapter implements oauth2.TokenSource
var _ oauth2.TokenSource = (*tokenSourceAdapter)(nil)

// TokenSource returns an oauth2.TokenSource backed by the client's stored
// session. Tokens it returns go through the same freshness check and
// single-flight refresh as requests issued through the client itself.
//
// oauth2.TokenSource.Token has no context parameter, so the context is
// captured at construction time per the oauth2 package's convention.
func (c *Client) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSourceAdapter{client: c, ctx: ctx}
}

// Token implements oauth2.TokenSource.
func (t *tokenSourceAdapter) Token() (*oauth2.Token, error) {
	if t.client.manager.IsExpired(t.ctx) {
		if err := t.client.pipeline.Refresh(t.ctx); err != nil {
			return nil, err
		}
	}

	record := t.client.manager.Tokens(t.ctx)
	if record == nil || record.AccessToken == "" {
		return nil, apierr.New(apierr.KindTokenRequired, "not authenticated")
	}

	return &oauth2.Token{
		AccessToken: record.AccessToken,
		TokenType:   "Bearer",
		Expiry:      record.ExpiresAt(),
	}, nil
}
