package services

import (
	"context"
	"sort"
	"sync"

	"github.com/ewilliams-labs/encore/internal/core/domain"
	"github.com/ewilliams-labs/encore/internal/core/ports"
)

// --- Mocks ---

// mockProvider hands out the same session every time.
type mockProvider struct {
	session *mockSession
	err     error
}

func (m *mockProvider) NewSession(ctx context.Context) (ports.SpotifySession, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.session, nil
}

// mockSession returns canned responses and counts the calls it serves.
type mockSession struct {
	info     domain.PlaylistInfo
	ids      []string
	tracks   []domain.TrackMetadata
	features map[string]*domain.AudioFeatures

	infoErr     error
	idsErr      error
	tracksErr   error
	featuresErr error

	calls int
}

func (m *mockSession) PlaylistInfo(ctx context.Context, playlistID string) (domain.PlaylistInfo, error) {
	m.calls++
	if m.infoErr != nil {
		return domain.PlaylistInfo{}, m.infoErr
	}
	return m.info, nil
}

func (m *mockSession) PlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error) {
	m.calls++
	if m.idsErr != nil {
		return nil, m.idsErr
	}
	return m.ids, nil
}

func (m *mockSession) Tracks(ctx context.Context, playlistID string, ids []string) (domain.TrackList, error) {
	m.calls++
	if m.tracksErr != nil {
		return domain.TrackList{}, m.tracksErr
	}
	return domain.TrackList{PlaylistID: playlistID, Tracks: m.tracks}, nil
}

func (m *mockSession) AudioFeatures(ctx context.Context, playlistID string, ids []string) (domain.FeatureList, error) {
	m.calls++
	if m.featuresErr != nil {
		return domain.FeatureList{}, m.featuresErr
	}
	out := domain.FeatureList{PlaylistID: playlistID}
	for _, id := range ids {
		out.Features = append(out.Features, m.features[id])
	}
	return out, nil
}

// threeTrackSession is a playlist of A, B and C where B has no features.
func threeTrackSession() *mockSession {
	track := func(id, genre string, year string, popularity int) domain.TrackMetadata {
		return domain.TrackMetadata{
			ID:               id,
			Name:             "Song " + id,
			Popularity:       popularity,
			DurationMs:       180000,
			AlbumType:        "album",
			AlbumID:          "album-" + id,
			AlbumName:        "Album " + id,
			AlbumReleaseDate: year,
			ArtistNames:      []string{"Artist " + id},
			ArtistIDs:        []string{"artist-" + id},
			Genres:           []string{genre},
			GenresResolved:   true,
		}
	}
	feature := func(id string, loudness, tempo float64) *domain.AudioFeatures {
		return &domain.AudioFeatures{ID: id, Danceability: 0.5, Energy: 0.7, Loudness: loudness, Tempo: tempo, DurationMs: 181000}
	}

	return &mockSession{
		info: domain.PlaylistInfo{ID: testPlaylistID, Name: "Mix", OwnerName: "Sam"},
		ids:  []string{"A", "B", "C"},
		tracks: []domain.TrackMetadata{
			track("A", "indie rock", "2019-03-01", 60),
			track("B", "pop", "2020", 80),
			track("C", "dance pop", "2019", 40),
		},
		features: map[string]*domain.AudioFeatures{
			"A": feature("A", -8, 90),
			"C": feature("C", -4, 130),
		},
	}
}

type mockExporter struct {
	err    error
	tables []domain.Table
}

func (m *mockExporter) Export(ctx context.Context, table domain.Table) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.tables = append(m.tables, table)
	return "out.csv", nil
}

// mockRepo is an in-memory AnalysisRepository.
type mockRepo struct {
	mu      sync.Mutex
	saved   map[string]domain.Analysis
	saveErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{saved: map[string]domain.Analysis{}}
}

func (m *mockRepo) Save(ctx context.Context, a domain.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved[a.ID] = a
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (domain.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.saved[id]
	if !ok {
		return domain.Analysis{}, domain.ErrNotFound
	}
	return a, nil
}

func (m *mockRepo) ListByPlaylist(ctx context.Context, playlistID string, limit int) ([]domain.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Analysis
	for _, a := range m.saved {
		if a.PlaylistID == playlistID {
			a.Table = domain.Table{}
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type mockClassifier struct {
	preds []domain.GenrePrediction
	err   error
	calls int
}

func (m *mockClassifier) PredictGenres(ctx context.Context, table domain.Table) ([]domain.GenrePrediction, error) {
	m.calls++
	return m.preds, m.err
}

type mockEvents struct {
	got  domain.EventQuery
	page domain.EventPage
	err  error
}

func (m *mockEvents) SearchEvents(ctx context.Context, q domain.EventQuery) (domain.EventPage, error) {
	m.got = q
	return m.page, m.err
}
