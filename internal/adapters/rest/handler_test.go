package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ewilliams-labs/encore/internal/adapters/charts"
	"github.com/ewilliams-labs/encore/internal/adapters/sqlite"
	"github.com/ewilliams-labs/encore/internal/config"
	"github.com/ewilliams-labs/encore/internal/core/domain"
	"github.com/ewilliams-labs/encore/internal/core/ports"
	"github.com/ewilliams-labs/encore/internal/core/services"
	"github.com/ewilliams-labs/encore/internal/worker"
)

const testLink = "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M"

// --- Mocks ---

// stubSpotify serves a two track playlist. err fails the session and
// tracksErr fails the track lookup.
type stubSpotify struct {
	err       error
	tracksErr error
}

func (s *stubSpotify) NewSession(ctx context.Context) (ports.SpotifySession, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s, nil
}

func (s *stubSpotify) PlaylistInfo(ctx context.Context, playlistID string) (domain.PlaylistInfo, error) {
	return domain.PlaylistInfo{ID: playlistID, Name: "Road Trip", OwnerName: "Sam"}, nil
}

func (s *stubSpotify) PlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error) {
	return []string{"A", "B"}, nil
}

func (s *stubSpotify) Tracks(ctx context.Context, playlistID string, ids []string) (domain.TrackList, error) {
	if s.tracksErr != nil {
		return domain.TrackList{}, s.tracksErr
	}
	out := domain.TrackList{PlaylistID: playlistID}
	for _, id := range ids {
		out.Tracks = append(out.Tracks, domain.TrackMetadata{
			ID:               id,
			Name:             "Song " + id,
			Popularity:       50,
			DurationMs:       200000,
			AlbumReleaseDate: "2021-05-01",
			ArtistNames:      []string{"Artist " + id},
			ArtistIDs:        []string{"artist-" + id},
			Genres:           []string{"indie rock"},
			GenresResolved:   true,
		})
	}
	return out, nil
}

func (s *stubSpotify) AudioFeatures(ctx context.Context, playlistID string, ids []string) (domain.FeatureList, error) {
	out := domain.FeatureList{PlaylistID: playlistID}
	for _, id := range ids {
		out.Features = append(out.Features, &domain.AudioFeatures{ID: id, Danceability: 0.6, Energy: 0.8, Loudness: -6, Tempo: 120})
	}
	return out, nil
}

type countingExporter struct {
	calls int
}

func (e *countingExporter) Export(ctx context.Context, table domain.Table) (string, error) {
	e.calls++
	return "out.csv", nil
}

type stubEvents struct {
	got domain.EventQuery
	err error
}

func (s *stubEvents) SearchEvents(ctx context.Context, q domain.EventQuery) (domain.EventPage, error) {
	s.got = q
	if s.err != nil {
		return domain.EventPage{}, s.err
	}
	return domain.EventPage{TotalElements: 1, TotalPages: 1, Events: []domain.Event{{ArtistName: "The Band", City: q.City}}}, nil
}

type stubJobs struct {
	submitErr error
	jobs      map[string]worker.Job
}

func (s *stubJobs) Submit(link string) (string, error) {
	if s.submitErr != nil {
		return "", s.submitErr
	}
	if _, err := domain.ParsePlaylistLink(link); err != nil {
		return "", err
	}
	return "job-1", nil
}

func (s *stubJobs) Status(id string) (worker.Job, error) {
	job, ok := s.jobs[id]
	if !ok {
		return worker.Job{}, fmt.Errorf("worker: job %s: %w", id, domain.ErrNotFound)
	}
	return job, nil
}

type fixture struct {
	handler *Handler
	repo    *sqlite.Adapter
	events  *stubEvents
	jobs    *stubJobs
}

func newFixture(t *testing.T, spotifyErr error) *fixture {
	t.Helper()

	repo, err := sqlite.NewAdapter(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	renderer, err := charts.NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}

	events := &stubEvents{}
	jobs := &stubJobs{jobs: map[string]worker.Job{
		"job-1": {ID: "job-1", Link: testLink, State: worker.StateDone, AnalysisID: "an-1"},
	}}
	analyzer := services.NewAnalyzer(&stubSpotify{err: spotifyErr}, nil, repo, config.Export{}, nil)
	recommender := services.NewRecommender(repo, nil, events, nil)

	return &fixture{
		handler: NewHandler(analyzer, recommender, jobs, renderer, nil),
		repo:    repo,
		events:  events,
		jobs:    jobs,
	}
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// createAnalysis runs the pipeline through the API and returns the new id.
func (f *fixture) createAnalysis(t *testing.T) string {
	t.Helper()
	rec := f.do(http.MethodPost, "/analyses", `{"link":"`+testLink+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create analysis: status %d, body %s", rec.Code, rec.Body.String())
	}
	var out domain.Analysis
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode analysis: %v", err)
	}
	return out.ID
}

// --- Tests ---

func TestHandler_HealthCheck(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(http.MethodGet, "/health", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestHandler_CreateAnalysis(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		contentType    string
		spotifyErr     error
		expectedStatus int
		expectedBody   string
		retryAfter     string
	}{
		{
			name:           "Success: returns stored analysis",
			body:           `{"link":"` + testLink + `?si=abc"}`,
			expectedStatus: http.StatusCreated,
			expectedBody:   `"playlist_id":"37i9dQZF1DXcBWIGoYBM5M"`,
		},
		{
			name:           "Unsupported Media Type: form body",
			body:           `link=x`,
			contentType:    "application/x-www-form-urlencoded",
			expectedStatus: http.StatusUnsupportedMediaType,
			expectedBody:   errCodeUnsupportedMedia,
		},
		{
			name:           "Bad Request: malformed json",
			body:           `{invalid-json`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "invalid JSON body",
		},
		{
			name:           "Bad Request: missing link",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "link is required",
		},
		{
			name:           "Bad Request: not a playlist link",
			body:           `{"link":"https://open.spotify.com/album/abc"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "invalid input",
		},
		{
			name:           "Too Many Requests: carries Retry-After",
			body:           `{"link":"` + testLink + `"}`,
			spotifyErr:     &ports.RateLimitError{RetryAfter: 2500 * time.Millisecond},
			expectedStatus: http.StatusTooManyRequests,
			expectedBody:   errCodeRateLimited,
			retryAfter:     "3",
		},
		{
			name:           "Bad Gateway: token exchange fails",
			body:           `{"link":"` + testLink + `"}`,
			spotifyErr:     fmt.Errorf("spotify adapter: %w", ports.ErrTokenUnavailable),
			expectedStatus: http.StatusBadGateway,
			expectedBody:   errCodeUpstream,
		},
		{
			name:           "Bad Gateway: upstream status",
			body:           `{"link":"` + testLink + `"}`,
			spotifyErr:     &ports.StatusError{StatusCode: 404, Body: "not found"},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   "unexpected status 404",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.spotifyErr)

			req := httptest.NewRequest(http.MethodPost, "/analyses", bytes.NewBufferString(tc.body))
			contentType := tc.contentType
			if contentType == "" {
				contentType = "application/json; charset=utf-8"
			}
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			f.handler.ServeHTTP(rec, req)

			if rec.Code != tc.expectedStatus {
				t.Errorf("Status Code: got %d, want %d, body: %s", rec.Code, tc.expectedStatus, strings.TrimSpace(rec.Body.String()))
			}
			if !strings.Contains(rec.Body.String(), tc.expectedBody) {
				t.Errorf("Response Body: got %q, want substring %q", rec.Body.String(), tc.expectedBody)
			}
			if got := rec.Header().Get("Retry-After"); got != tc.retryAfter {
				t.Errorf("Retry-After: got %q, want %q", got, tc.retryAfter)
			}
		})
	}
}

func TestHandler_CreateAnalysisTrackRateLimit(t *testing.T) {
	exporter := &countingExporter{}
	sp := &stubSpotify{tracksErr: fmt.Errorf("spotify adapter: track batch 0: %w", &ports.RateLimitError{RetryAfter: time.Minute})}
	analyzer := services.NewAnalyzer(sp, exporter, nil, config.Export{}, nil)
	h := NewHandler(analyzer, services.NewRecommender(nil, nil, nil, nil), nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/analyses", strings.NewReader(`{"link":"`+testLink+`"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("Status Code: got %d, want 429, body: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After: got %q, want 60", got)
	}
	if exporter.calls != 0 {
		t.Errorf("export must not run, got %d calls", exporter.calls)
	}
}

func TestHandler_AnalysisRoutes(t *testing.T) {
	f := newFixture(t, nil)
	id := f.createAnalysis(t)

	tests := []struct {
		name           string
		target         string
		expectedStatus int
		expectedBody   string
	}{
		{"Success: summary", "/analyses/" + id, http.StatusOK, `"total_songs":2`},
		{"Success: tracks", "/analyses/" + id + "/tracks", http.StatusOK, `"name":"song b"`},
		{"Success: recommendations", "/analyses/" + id + "/recommendations", http.StatusOK, `"genres":["rock"]`},
		{"Success: history", "/playlists/37i9dQZF1DXcBWIGoYBM5M/analyses?limit=5", http.StatusOK, `"id":"` + id + `"`},
		{"Success: empty history", "/playlists/other/analyses", http.StatusOK, `[]`},
		{"Bad Request: invalid limit", "/playlists/37i9dQZF1DXcBWIGoYBM5M/analyses?limit=zero", http.StatusBadRequest, "limit must be a positive integer"},
		{"Not Found: missing analysis", "/analyses/missing", http.StatusNotFound, domain.ErrNotFound.Error()},
		{"Not Found: missing recommendations", "/analyses/missing/recommendations", http.StatusNotFound, errCodeNotFound},
		{"Not Found: unknown chart", "/analyses/" + id + "/charts/pie", http.StatusNotFound, "unknown chart"},
		{"Not Found: unknown route", "/nope", http.StatusNotFound, "route not found"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(http.MethodGet, tc.target, "")

			if rec.Code != tc.expectedStatus {
				t.Errorf("Status Code: got %d, want %d, body: %s", rec.Code, tc.expectedStatus, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tc.expectedBody) {
				t.Errorf("Response Body: got %q, want substring %q", rec.Body.String(), tc.expectedBody)
			}
		})
	}
}

func TestHandler_GetChart(t *testing.T) {
	f := newFixture(t, nil)
	id := f.createAnalysis(t)

	for _, kind := range []string{charts.KindRadar, charts.KindArtists, charts.KindGenres} {
		kind := kind
		t.Run(kind, func(t *testing.T) {
			rec := f.do(http.MethodGet, "/analyses/"+id+"/charts/"+kind, "")

			if rec.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
				t.Errorf("expected image/png, got %q", ct)
			}
			if _, err := png.Decode(rec.Body); err != nil {
				t.Errorf("body is not a PNG: %v", err)
			}
		})
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(http.MethodDelete, "/analyses/abc", "")

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rec.Code)
	}
}

func TestHandler_Jobs(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		target         string
		body           string
		submitErr      error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Accepted: job queued",
			method:         http.MethodPost,
			target:         "/analyses/jobs",
			body:           `{"link":"` + testLink + `"}`,
			expectedStatus: http.StatusAccepted,
			expectedBody:   `"job_id":"job-1"`,
		},
		{
			name:           "Service Unavailable: queue full",
			method:         http.MethodPost,
			target:         "/analyses/jobs",
			body:           `{"link":"` + testLink + `"}`,
			submitErr:      worker.ErrQueueFull,
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   errCodeQueueFull,
		},
		{
			name:           "Bad Request: invalid link",
			method:         http.MethodPost,
			target:         "/analyses/jobs",
			body:           `{"link":"not a link"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "invalid input",
		},
		{
			name:           "Success: job status",
			method:         http.MethodGet,
			target:         "/jobs/job-1",
			expectedStatus: http.StatusOK,
			expectedBody:   `"state":"done"`,
		},
		{
			name:           "Not Found: unknown job",
			method:         http.MethodGet,
			target:         "/jobs/job-404",
			expectedStatus: http.StatusNotFound,
			expectedBody:   errCodeNotFound,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.jobs.submitErr = tc.submitErr

			rec := f.do(tc.method, tc.target, tc.body)

			if rec.Code != tc.expectedStatus {
				t.Errorf("Status Code: got %d, want %d, body: %s", rec.Code, tc.expectedStatus, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tc.expectedBody) {
				t.Errorf("Response Body: got %q, want substring %q", rec.Body.String(), tc.expectedBody)
			}
		})
	}
}

func TestHandler_JobsNotConfigured(t *testing.T) {
	f := newFixture(t, nil)
	f.handler.jobs = nil

	rec := f.do(http.MethodGet, "/jobs/job-1", "")
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("expected status 501, got %d", rec.Code)
	}
}

func TestHandler_SearchEvents(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		useAnalysis    bool
		eventsErr      error
		expectedStatus int
		expectedBody   string
		expectedGenres []string
	}{
		{
			name:           "Success: explicit genres",
			query:          "city=Austin&start=2026-11-01&end=2026-11-07&genre=rock,jazz&genre=blues",
			expectedStatus: http.StatusOK,
			expectedBody:   `"artist_name":"The Band"`,
			expectedGenres: []string{"rock", "jazz", "blues"},
		},
		{
			name:           "Success: genres from analysis",
			query:          "city=Austin&start=2026-11-01&end=2026-11-07",
			useAnalysis:    true,
			expectedStatus: http.StatusOK,
			expectedBody:   `"total_elements":1`,
			expectedGenres: []string{"rock"},
		},
		{
			name:           "Bad Request: missing city",
			query:          "start=2026-11-01&end=2026-11-07",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "city is required",
		},
		{
			name:           "Bad Request: malformed date",
			query:          "city=Austin&start=11/01/2026&end=2026-11-07",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "start date must be YYYY-MM-DD",
		},
		{
			name:           "Bad Request: start after end",
			query:          "city=Austin&start=2026-11-08&end=2026-11-07",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   errCodeInvalidQuery,
		},
		{
			name:           "Bad Gateway: upstream failure",
			query:          "city=Austin&start=2026-11-01&end=2026-11-07&genre=rock",
			eventsErr:      &ports.StatusError{StatusCode: 401},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   errCodeUpstream,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.events.err = tc.eventsErr

			target := "/events?" + tc.query
			if tc.useAnalysis {
				target += "&analysis=" + f.createAnalysis(t)
			}
			rec := f.do(http.MethodGet, target, "")

			if rec.Code != tc.expectedStatus {
				t.Fatalf("Status Code: got %d, want %d, body: %s", rec.Code, tc.expectedStatus, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tc.expectedBody) {
				t.Errorf("Response Body: got %q, want substring %q", rec.Body.String(), tc.expectedBody)
			}
			if tc.expectedGenres != nil && strings.Join(f.events.got.Genres, ",") != strings.Join(tc.expectedGenres, ",") {
				t.Errorf("Genres: got %v, want %v", f.events.got.Genres, tc.expectedGenres)
			}
		})
	}
}
