// Package spotify implements the Spotify Web API side of the analysis
// pipeline: token exchange, rate-limit aware requests, playlist paging and
// the bulk track, artist and audio-feature lookups.
package spotify

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ewilliams-labs/encore/internal/config"
	"github.com/ewilliams-labs/encore/internal/core/ports"
)

const (
	genreSourcePrimary = "primary"
	genreSourceAll     = "all"
)

// Client holds the shared transport and settings. Sessions created from it
// carry their own token.
type Client struct {
	http         *retryablehttp.Client
	baseURL      string
	market       string
	genreSource  string
	maxRetryWait time.Duration
	tokens       *TokenProvider
	limiter      *rate.Limiter
	logger       *zap.Logger
}

// compile-time interface assertions
var (
	_ ports.SpotifyProvider = (*Client)(nil)
	_ ports.SpotifySession  = (*Session)(nil)
)

// NewClient constructs a Spotify client from configuration.
func NewClient(cfg config.Spotify, httpCfg config.HTTPClient, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		baseURL:      strings.TrimRight(cfg.APIBaseURL, "/"),
		market:       cfg.Market,
		genreSource:  cfg.GenreSource,
		maxRetryWait: cfg.RetryMaxWait,
		logger:       logger.Named("spotify"),
	}
	if c.genreSource == "" {
		c.genreSource = genreSourcePrimary
	}

	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = cfg.MaxRetries
	rc.RetryWaitMin = cfg.RetryBackoff()
	rc.RetryWaitMax = cfg.RetryMaxWait
	rc.CheckRetry = c.checkRetry
	rc.Backoff = c.backoff
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if httpCfg.Timeout > 0 {
		rc.HTTPClient.Timeout = httpCfg.Timeout
	}
	c.http = rc

	c.limiter = rate.NewLimiter(rate.Inf, 1)
	if cfg.MinRequestInterval > 0 {
		c.limiter = rate.NewLimiter(rate.Every(cfg.MinRequestInterval), 1)
	}

	c.tokens = NewTokenProvider(cfg, rc.StandardClient())
	return c
}

// NewSession acquires a fresh bearer token and returns a session bound to it.
func (c *Client) NewSession(ctx context.Context) (ports.SpotifySession, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	return &Session{client: c, token: token}, nil
}
