package services

import (
	"context"

	"github.com/ewilliams-labs/encore/internal/core/domain"
	"github.com/ewilliams-labs/encore/internal/core/ports"
)

// ArtistGenreClassifier predicts genres from the artist genres already on
// each row. The fine label is the first artist genre; the coarse label is
// the first taxonomy entry any of the row's genres matches.
type ArtistGenreClassifier struct{}

var _ ports.GenreClassifier = ArtistGenreClassifier{}

func (ArtistGenreClassifier) PredictGenres(_ context.Context, table domain.Table) ([]domain.GenrePrediction, error) {
	out := make([]domain.GenrePrediction, len(table.Rows))
	for i, row := range table.Rows {
		genres := domain.SplitValues(row.Genres)
		if len(genres) == 0 {
			continue
		}
		out[i].Fine = genres[0]
		for _, g := range genres {
			if coarse, ok := domain.NearestTaxonomyGenre(g); ok {
				out[i].Coarse = coarse
				break
			}
		}
	}
	return out, nil
}
