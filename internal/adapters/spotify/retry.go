package spotify

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// maxBackoffShift bounds the exponent so the backoff never overflows.
const maxBackoffShift = 30

// checkRetry retries transport errors, 429 and 5xx. A Retry-After longer than
// the configured cap ends the attempt loop so the caller sees the 429.
func (c *Client) checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	if resp == nil {
		return false, nil
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if wait := parseRetryAfter(resp); c.maxRetryWait > 0 && wait > c.maxRetryWait {
			c.logger.Warn("spotify adapter: retry-after exceeds cap, not retrying",
				zap.Duration("retry_after", wait),
				zap.Duration("cap", c.maxRetryWait))
			return false, nil
		}
		return true, nil
	case resp.StatusCode >= http.StatusInternalServerError:
		return true, nil
	}
	return false, nil
}

// backoff doubles the base wait per attempt. A Retry-After header overrides
// it. Both are capped at maxWait.
func (c *Client) backoff(minWait, maxWait time.Duration, attempt int, resp *http.Response) time.Duration {
	wait := minWait * time.Duration(1<<min(attempt, maxBackoffShift))
	if retryAfter := parseRetryAfter(resp); retryAfter > 0 {
		wait = retryAfter
	}
	if maxWait > 0 && wait > maxWait {
		wait = maxWait
	}

	fields := []zap.Field{
		zap.Int("attempt", attempt+1),
		zap.Int("max_retries", c.http.RetryMax),
		zap.Duration("wait", wait),
	}
	if resp != nil {
		fields = append(fields, zap.Int("status", resp.StatusCode))
	}
	c.logger.Warn("spotify adapter: retrying request", fields...)
	return wait
}

func parseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}

	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if when, err := http.ParseTime(retryAfter); err == nil {
		until := time.Until(when)
		if until > 0 {
			return until
		}
	}

	return 0
}
