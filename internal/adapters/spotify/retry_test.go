package spotify

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ewilliams-labs/encore/internal/config"
	"github.com/ewilliams-labs/encore/internal/core/ports"
)

func TestSessionGetRetries(t *testing.T) {
	tests := []struct {
		name         string
		statuses     []int
		retryAfter   string
		maxRetries   int
		maxWait      time.Duration
		wantAttempts int32
		wantErr      error
		wantWait     time.Duration
	}{
		{
			name:         "retries on 503 then succeeds",
			statuses:     []int{http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusOK},
			maxRetries:   3,
			wantAttempts: 3,
		},
		{
			name:         "retries on 429 then succeeds",
			statuses:     []int{http.StatusTooManyRequests, http.StatusOK},
			maxRetries:   3,
			wantAttempts: 2,
		},
		{
			name:         "exhausts retries on 429",
			statuses:     []int{http.StatusTooManyRequests},
			maxRetries:   2,
			wantAttempts: 3,
			wantErr:      ports.ErrRateLimited,
		},
		{
			name:         "exhausts retries on 500",
			statuses:     []int{http.StatusInternalServerError},
			maxRetries:   1,
			wantAttempts: 2,
			wantErr:      ports.ErrRequestFailed,
		},
		{
			name:         "does not retry 400",
			statuses:     []int{http.StatusBadRequest},
			maxRetries:   3,
			wantAttempts: 1,
			wantErr:      ports.ErrRequestFailed,
		},
		{
			name:         "zero retries sends once",
			statuses:     []int{http.StatusServiceUnavailable, http.StatusOK},
			maxRetries:   0,
			wantAttempts: 1,
			wantErr:      ports.ErrRequestFailed,
		},
		{
			name:         "retry-after reported on final 429",
			statuses:     []int{http.StatusTooManyRequests},
			retryAfter:   "1",
			maxRetries:   0,
			maxWait:      2 * time.Second,
			wantAttempts: 1,
			wantErr:      ports.ErrRateLimited,
			wantWait:     time.Second,
		},
		{
			name:         "retry-after above cap is not waited for",
			statuses:     []int{http.StatusTooManyRequests, http.StatusOK},
			retryAfter:   "120",
			maxRetries:   3,
			maxWait:      2 * time.Second,
			wantAttempts: 1,
			wantErr:      ports.ErrRateLimited,
			wantWait:     120 * time.Second,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var attempts int32
			api := newFakeAPI(t)
			api.handle("/ping", func(w http.ResponseWriter, r *http.Request) {
				n := atomic.AddInt32(&attempts, 1)
				status := tc.statuses[len(tc.statuses)-1]
				if int(n) <= len(tc.statuses) {
					status = tc.statuses[n-1]
				}
				if status == http.StatusTooManyRequests && tc.retryAfter != "" {
					w.Header().Set("Retry-After", tc.retryAfter)
				}
				w.WriteHeader(status)
				if status == http.StatusOK {
					_, _ = w.Write([]byte(`{"ok":true}`))
				}
			})

			sess := newTestSession(t, api, func(cfg *config.Spotify) {
				cfg.MaxRetries = tc.maxRetries
				if tc.maxWait > 0 {
					cfg.RetryMaxWait = tc.maxWait
				}
			})

			var out struct {
				OK bool `json:"ok"`
			}
			err := sess.get(context.Background(), "/ping", nil, &out)

			if got := atomic.LoadInt32(&attempts); got != tc.wantAttempts {
				t.Fatalf("attempts: got %d, want %d", got, tc.wantAttempts)
			}
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !out.OK {
					t.Fatalf("response body was not decoded")
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("error: got %v, want %v", err, tc.wantErr)
			}
			if tc.wantWait > 0 {
				var rle *ports.RateLimitError
				if !errors.As(err, &rle) {
					t.Fatalf("expected *ports.RateLimitError, got %T", err)
				}
				if rle.RetryAfter != tc.wantWait {
					t.Fatalf("retry after: got %s, want %s", rle.RetryAfter, tc.wantWait)
				}
			}
		})
	}
}

func TestStatusErrorKeepsBody(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"status":404,"message":"Not found."}}`))
	})
	sess := newTestSession(t, api, nil)

	err := sess.get(context.Background(), "/ping", nil, &struct{}{})
	var se *ports.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *ports.StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusNotFound {
		t.Fatalf("status: got %d", se.StatusCode)
	}
	if se.Body == "" {
		t.Fatalf("expected response body on error")
	}
}

func TestBackoffHonorsCap(t *testing.T) {
	c := NewClient(testSpotifyConfig("http://unused"), config.HTTPClient{}, nil)

	if got := c.backoff(time.Millisecond, 10*time.Millisecond, 0, nil); got != time.Millisecond {
		t.Fatalf("attempt 0: got %s", got)
	}
	if got := c.backoff(time.Millisecond, 10*time.Millisecond, 2, nil); got != 4*time.Millisecond {
		t.Fatalf("attempt 2: got %s", got)
	}
	if got := c.backoff(time.Millisecond, 10*time.Millisecond, 40, nil); got != 10*time.Millisecond {
		t.Fatalf("attempt 40: got %s, want cap", got)
	}

	resp := &http.Response{Header: http.Header{"Retry-After": {"5"}}}
	if got := c.backoff(time.Millisecond, time.Minute, 0, resp); got != 5*time.Second {
		t.Fatalf("retry-after: got %s", got)
	}
}
