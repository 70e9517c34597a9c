// Package ticketmaster searches the Ticketmaster Discovery API for live
// events.
package ticketmaster

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/encore/internal/config"
	"github.com/ewilliams-labs/encore/internal/core/domain"
	"github.com/ewilliams-labs/encore/internal/core/ports"
)

const (
	defaultURL   = "https://app.ticketmaster.com/discovery/v2/events.json"
	retryWait    = 500 * time.Millisecond
	retryMaxWait = 10 * time.Second
)

// Client is a paged Discovery API client.
type Client struct {
	http     *resty.Client
	url      string
	apiKey   string
	maxPages int
	logger   *zap.Logger
}

var _ ports.EventFinder = (*Client)(nil)

// NewClient builds a client with bounded retries on 429 and 5xx.
func NewClient(cfg config.Ticketmaster, httpCfg config.HTTPClient, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	url := cfg.URL
	if url == "" {
		url = defaultURL
	}
	maxPages := cfg.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}

	rc := resty.New().
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(retryWait).
		SetRetryMaxWaitTime(retryMaxWait).
		SetRetryAfter(retryAfter).
		AddRetryCondition(shouldRetry).
		SetHeader("Accept", "application/json")
	if httpCfg.Timeout > 0 {
		rc.SetTimeout(httpCfg.Timeout)
	}

	return &Client{
		http:     rc,
		url:      url,
		apiKey:   cfg.APIKey,
		maxPages: maxPages,
		logger:   logger.Named("ticketmaster"),
	}
}

// SearchEvents fetches the first page, then further pages up to the
// configured limit, and flattens every event.
func (c *Client) SearchEvents(ctx context.Context, q domain.EventQuery) (domain.EventPage, error) {
	if err := q.Validate(); err != nil {
		return domain.EventPage{}, fmt.Errorf("ticketmaster: %w", err)
	}
	if c.apiKey == "" {
		return domain.EventPage{}, fmt.Errorf("ticketmaster: %w: api key not configured", ports.ErrRequestFailed)
	}

	params := c.queryParams(q)

	first, err := c.fetchPage(ctx, params, 0)
	if err != nil {
		return domain.EventPage{}, err
	}

	result := domain.EventPage{
		TotalElements: first.totalElements,
		TotalPages:    first.totalPages,
		Events:        first.events,
	}

	pages := min(first.totalPages, c.maxPages)
	for page := 1; page < pages; page++ {
		next, err := c.fetchPage(ctx, params, page)
		if err != nil {
			return domain.EventPage{}, err
		}
		result.Events = append(result.Events, next.events...)
	}

	if first.totalPages > c.maxPages {
		c.logger.Info("ticketmaster: page limit reached",
			zap.Int("total_pages", first.totalPages),
			zap.Int("max_pages", c.maxPages))
	}
	return result, nil
}

func (c *Client) queryParams(q domain.EventQuery) map[string]string {
	params := map[string]string{
		"apikey":        c.apiKey,
		"city":          strings.TrimSpace(q.City),
		"sort":          "date,asc",
		"startDateTime": q.Start.Format(domain.EventDateLayout) + "T00:00:00Z",
		"endDateTime":   q.End.Format(domain.EventDateLayout) + "T23:59:59Z",
	}
	if len(q.Genres) > 0 {
		params["classificationName"] = strings.Join(q.Genres, ",")
	}
	return params
}

func (c *Client) fetchPage(ctx context.Context, params map[string]string, page int) (pageResult, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("page", strconv.Itoa(page)).
		Get(c.url)
	if err != nil {
		return pageResult{}, fmt.Errorf("ticketmaster: fetch page %d: %w: %w", page, ports.ErrRequestFailed, err)
	}

	switch {
	case resp.IsSuccess():
	case resp.StatusCode() == http.StatusTooManyRequests:
		wait, _ := retryAfter(nil, resp)
		return pageResult{}, fmt.Errorf("ticketmaster: fetch page %d: %w", page, &ports.RateLimitError{RetryAfter: wait})
	default:
		body := strings.TrimSpace(resp.String())
		c.logger.Error("ticketmaster: request failed",
			zap.Int("page", page),
			zap.Int("status", resp.StatusCode()),
			zap.String("body", body))
		return pageResult{}, fmt.Errorf("ticketmaster: fetch page %d: %w", page, &ports.StatusError{StatusCode: resp.StatusCode(), Body: body})
	}

	return parsePage(resp.Body(), c.logger), nil
}

func shouldRetry(resp *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if resp == nil {
		return false
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// retryAfter reads the Retry-After header in seconds. Zero lets resty use
// its own backoff.
func retryAfter(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
	if resp == nil {
		return 0, nil
	}
	seconds, err := strconv.Atoi(resp.Header().Get("Retry-After"))
	if err != nil || seconds <= 0 {
		return 0, nil
	}
	return time.Duration(seconds) * time.Second, nil
}
