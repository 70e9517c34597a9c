package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/encore/internal/config"
	"github.com/ewilliams-labs/encore/internal/core/domain"
	"github.com/ewilliams-labs/encore/internal/core/ports"
)

const defaultHistoryLimit = 20

// Analyzer runs the playlist pipeline: fetch, join, clean, export, summarize
// and store.
type Analyzer struct {
	spotify  ports.SpotifyProvider
	exporter ports.TableExporter
	repo     ports.AnalysisRepository
	cleaner  domain.Cleaner
	logger   *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewAnalyzer constructs an Analyzer. exporter and repo may be nil, in which
// case the matching stage is skipped.
func NewAnalyzer(spotify ports.SpotifyProvider, exporter ports.TableExporter, repo ports.AnalysisRepository, cfg config.Export, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		spotify:  spotify,
		exporter: exporter,
		repo:     repo,
		cleaner:  domain.Cleaner{Scale: cfg.Scale},
		logger:   logger.Named("analyzer"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Analyze runs one playlist through every stage. The first failing stage
// aborts the run.
func (a *Analyzer) Analyze(ctx context.Context, link string) (domain.Analysis, error) {
	playlistID, err := domain.ParsePlaylistLink(link)
	if err != nil {
		return domain.Analysis{}, err
	}
	log := a.logger.With(zap.String("playlist_id", playlistID))
	started := a.now()

	// 1. Fresh token for this run
	sess, err := a.spotify.NewSession(ctx)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("service: failed to open spotify session: %w", err)
	}

	// 2. Playlist name and owner are nice to have
	info, err := sess.PlaylistInfo(ctx, playlistID)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return domain.Analysis{}, fmt.Errorf("service: failed to fetch playlist info: %w", err)
		}
		log.Warn("service: playlist info unavailable", zap.Error(err))
		info = domain.PlaylistInfo{ID: playlistID}
	}

	// 3. Track ids, then the two bulk lookups
	ids, err := sess.PlaylistTrackIDs(ctx, playlistID)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("service: failed to list playlist tracks: %w", err)
	}

	tracks, err := sess.Tracks(ctx, playlistID, ids)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("service: failed to fetch tracks: %w", err)
	}

	features, err := sess.AudioFeatures(ctx, playlistID, ids)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("service: failed to fetch audio features: %w", err)
	}

	// 4. Pure domain work
	rows, err := domain.JoinByID(tracks, features)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("service: failed to join records: %w", err)
	}
	table := a.cleaner.Clean(playlistID, rows)

	analysis := domain.Analysis{
		ID:         a.newID(),
		PlaylistID: playlistID,
		Info:       info,
		Table:      table,
		Summary:    domain.Summarize(table),
		CreatedAt:  a.now().UTC(),
	}

	// 5. Artifacts
	if a.exporter != nil {
		path, err := a.exporter.Export(ctx, table)
		if err != nil {
			return domain.Analysis{}, fmt.Errorf("service: failed to export table: %w", err)
		}
		analysis.CSVPath = path
	}

	if a.repo != nil {
		if err := a.repo.Save(ctx, analysis); err != nil {
			return domain.Analysis{}, fmt.Errorf("service: failed to save analysis: %w", err)
		}
	}

	log.Info("service: playlist analyzed",
		zap.String("analysis_id", analysis.ID),
		zap.Int("listed", len(ids)),
		zap.Int("tracks", len(tracks.Tracks)),
		zap.Int("rows", len(table.Rows)),
		zap.Duration("elapsed", a.now().Sub(started)))
	return analysis, nil
}

// GetAnalysis loads a stored analysis including its rows.
func (a *Analyzer) GetAnalysis(ctx context.Context, id string) (domain.Analysis, error) {
	if a.repo == nil {
		return domain.Analysis{}, domain.ErrNotFound
	}
	analysis, err := a.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("service: failed to load analysis: %w", err)
	}
	return analysis, nil
}

// History lists earlier analyses of a playlist, newest first.
func (a *Analyzer) History(ctx context.Context, playlistID string, limit int) ([]domain.Analysis, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if a.repo == nil {
		return []domain.Analysis{}, nil
	}
	list, err := a.repo.ListByPlaylist(ctx, playlistID, limit)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list analyses: %w", err)
	}
	return list, nil
}
