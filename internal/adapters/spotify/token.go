package spotify

import (
	"context"
	"fmt"
	"net/http"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ewilliams-labs/encore/internal/config"
	"github.com/ewilliams-labs/encore/internal/core/ports"
)

// TokenProvider exchanges client credentials for an app access token.
// Tokens are not cached; every call performs a new exchange.
type TokenProvider struct {
	credentials clientcredentials.Config
	httpClient  *http.Client
}

// NewTokenProvider builds a provider from explicit credentials. httpClient
// may be nil to use the default transport.
func NewTokenProvider(cfg config.Spotify, httpClient *http.Client) *TokenProvider {
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}
	return &TokenProvider{
		credentials: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		httpClient: httpClient,
	}
}

// Token returns a new bearer token.
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}

	tok, err := p.credentials.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("spotify adapter: %w: %w", ports.ErrTokenUnavailable, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("spotify adapter: %w: empty access token", ports.ErrTokenUnavailable)
	}
	return tok.AccessToken, nil
}
