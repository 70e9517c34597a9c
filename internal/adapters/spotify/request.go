package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/encore/internal/core/ports"
)

// maxErrorBody limits how much of a failed response is logged and returned.
const maxErrorBody = 2048

// Session issues requests with a single bearer token. It is used for one
// pipeline run and is not safe for concurrent use.
type Session struct {
	client *Client
	token  string
}

// get performs one logical GET and decodes a 200 body into out. A 429 becomes
// *ports.RateLimitError and any other status *ports.StatusError, after the
// client's bounded retries have run out.
func (s *Session) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := s.client.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("spotify adapter: request canceled: %w", err)
	}

	endpoint := s.client.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("spotify adapter: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.http.Do(req)
	if err != nil {
		return fmt.Errorf("spotify adapter: GET %s: %w: %w", path, ports.ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("spotify adapter: decode %s: %w", path, err)
		}
		return nil

	case http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp)
		s.client.logger.Warn("spotify adapter: rate limited",
			zap.String("path", path),
			zap.Duration("retry_after", retryAfter))
		return fmt.Errorf("spotify adapter: GET %s: %w", path, &ports.RateLimitError{RetryAfter: retryAfter})

	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		trimmed := strings.TrimSpace(string(body))
		s.client.logger.Error("spotify adapter: request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", trimmed))
		return fmt.Errorf("spotify adapter: GET %s: %w", path, &ports.StatusError{StatusCode: resp.StatusCode, Body: trimmed})
	}
}
