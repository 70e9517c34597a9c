package spotify

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/encore/internal/core/domain"
)

const audioFeatureBatchSize = 100

// AudioFeatures fetches feature records in batches of 100. The result has
// one entry per requested id, in request order; an id the API returned no
// usable record for maps to nil.
func (s *Session) AudioFeatures(ctx context.Context, playlistID string, ids []string) (domain.FeatureList, error) {
	list := domain.FeatureList{PlaylistID: playlistID, Features: make([]*domain.AudioFeatures, 0, len(ids))}

	missing := 0
	for i, batch := range lo.Chunk(ids, audioFeatureBatchSize) {
		var body audioFeaturesResponse
		if err := s.get(ctx, "/audio-features", url.Values{"ids": {strings.Join(batch, ",")}}, &body); err != nil {
			return domain.FeatureList{}, fmt.Errorf("spotify adapter: audio feature batch %d: %w", i, err)
		}

		byID := make(map[string]spotifyAudioFeatures, len(body.AudioFeatures))
		for _, f := range body.AudioFeatures {
			if f == nil || f.ID == "" {
				continue
			}
			byID[f.ID] = *f
		}

		for _, id := range batch {
			f, ok := byID[id]
			if !ok {
				missing++
				list.Features = append(list.Features, nil)
				continue
			}
			list.Features = append(list.Features, mapFeaturesToDomain(f))
		}
	}

	if missing > 0 {
		s.client.logger.Warn("spotify adapter: audio features unavailable",
			zap.String("playlist_id", playlistID),
			zap.Int("missing", missing))
	}
	return list, nil
}
