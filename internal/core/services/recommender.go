package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ewilliams-labs/encore/internal/core/domain"
	"github.com/ewilliams-labs/encore/internal/core/ports"
)

// Recommender turns a stored analysis into Ticketmaster genres and looks up
// matching events.
type Recommender struct {
	repo       ports.AnalysisRepository
	classifier ports.GenreClassifier
	fallback   ports.GenreClassifier
	events     ports.EventFinder
	logger     *zap.Logger
}

// NewRecommender constructs a Recommender. A nil classifier uses the artist
// genre heuristic directly.
func NewRecommender(repo ports.AnalysisRepository, classifier ports.GenreClassifier, events ports.EventFinder, logger *zap.Logger) *Recommender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recommender{
		repo:       repo,
		classifier: classifier,
		fallback:   ArtistGenreClassifier{},
		events:     events,
		logger:     logger.Named("recommender"),
	}
}

// RecommendGenres ranks the predicted genres of an analysis and maps them
// onto the Ticketmaster taxonomy.
func (r *Recommender) RecommendGenres(ctx context.Context, analysisID string) ([]string, error) {
	if r.repo == nil {
		return nil, domain.ErrNotFound
	}
	analysis, err := r.repo.GetByID(ctx, analysisID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load analysis: %w", err)
	}

	preds, err := r.predict(ctx, analysis.Table)
	if err != nil {
		return nil, fmt.Errorf("service: failed to classify genres: %w", err)
	}

	genres := domain.MatchTaxonomy(domain.RankGenres(preds), domain.MaxRecommendedGenres)
	r.logger.Debug("service: recommended genres",
		zap.String("analysis_id", analysisID),
		zap.Strings("genres", genres))
	return genres, nil
}

// FindEvents searches for events. A query without genres borrows the
// recommendations of analysisID when one is given.
func (r *Recommender) FindEvents(ctx context.Context, q domain.EventQuery, analysisID string) (domain.EventPage, error) {
	if err := q.Validate(); err != nil {
		return domain.EventPage{}, err
	}
	if r.events == nil {
		return domain.EventPage{}, fmt.Errorf("service: %w: event search not configured", ports.ErrRequestFailed)
	}

	if len(q.Genres) == 0 && analysisID != "" {
		genres, err := r.RecommendGenres(ctx, analysisID)
		if err != nil {
			return domain.EventPage{}, err
		}
		q.Genres = genres
	}

	page, err := r.events.SearchEvents(ctx, q)
	if err != nil {
		return domain.EventPage{}, fmt.Errorf("service: failed to search events: %w", err)
	}
	return page, nil
}

func (r *Recommender) predict(ctx context.Context, table domain.Table) ([]domain.GenrePrediction, error) {
	if r.classifier != nil {
		preds, err := r.classifier.PredictGenres(ctx, table)
		if err == nil && len(preds) == len(table.Rows) {
			return preds, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn("service: classifier failed, using artist genres",
			zap.Error(err),
			zap.Int("predictions", len(preds)),
			zap.Int("rows", len(table.Rows)))
	}
	return r.fallback.PredictGenres(ctx, table)
}
