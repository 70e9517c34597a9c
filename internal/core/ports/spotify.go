package ports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ewilliams-labs/encore/internal/core/domain"
)

var (
	// ErrRateLimited indicates the upstream API answered 429.
	ErrRateLimited = errors.New("rate limited")
	// ErrRequestFailed indicates a non-retryable or exhausted upstream failure.
	ErrRequestFailed = errors.New("request failed")
	// ErrTokenUnavailable indicates the client credentials exchange failed.
	ErrTokenUnavailable = errors.New("token unavailable")
)

// RateLimitError carries the wait duration reported by the upstream API.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter <= 0 {
		return ErrRateLimited.Error()
	}
	return fmt.Sprintf("rate limited: retry after %s", e.RetryAfter)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// StatusError is an unexpected upstream HTTP status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrRequestFailed
}

// SpotifyProvider opens authenticated sessions against the Spotify Web API.
// Every session holds its own freshly issued token.
type SpotifyProvider interface {
	NewSession(ctx context.Context) (SpotifySession, error)
}

// SpotifySession fetches the data one playlist analysis needs. Calls are
// sequential; a session is not meant to be shared across goroutines.
type SpotifySession interface {
	PlaylistInfo(ctx context.Context, playlistID string) (domain.PlaylistInfo, error)
	PlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error)
	Tracks(ctx context.Context, playlistID string, ids []string) (domain.TrackList, error)
	AudioFeatures(ctx context.Context, playlistID string, ids []string) (domain.FeatureList, error)
}
