package ports

import (
	"context"
	"errors"

	"github.com/ewilliams-labs/encore/internal/core/domain"
)

// ErrClassifierUnavailable indicates the configured classifier cannot answer.
var ErrClassifierUnavailable = errors.New("classifier unavailable")

// GenreClassifier predicts a coarse and a fine genre for every table row.
// The result has one entry per row, in order.
type GenreClassifier interface {
	PredictGenres(ctx context.Context, table domain.Table) ([]domain.GenrePrediction, error)
}

// EventFinder searches a ticketing API for live events.
type EventFinder interface {
	SearchEvents(ctx context.Context, q domain.EventQuery) (domain.EventPage, error)
}
