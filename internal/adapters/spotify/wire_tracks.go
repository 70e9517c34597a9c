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

const trackBatchSize = 50

// Tracks fetches full track objects in batches of 50 and resolves artist
// genres for each batch. Null entries in a response are skipped. Genre
// failures are recorded per track; a rate limit or cancellation during the
// artist lookup fails the call.
func (s *Session) Tracks(ctx context.Context, playlistID string, ids []string) (domain.TrackList, error) {
	list := domain.TrackList{PlaylistID: playlistID, Tracks: make([]domain.TrackMetadata, 0, len(ids))}

	for i, batch := range lo.Chunk(ids, trackBatchSize) {
		query := url.Values{"ids": {strings.Join(batch, ",")}}
		if s.client.market != "" {
			query.Set("market", s.client.market)
		}

		var body tracksResponse
		if err := s.get(ctx, "/tracks", query, &body); err != nil {
			return domain.TrackList{}, fmt.Errorf("spotify adapter: track batch %d: %w", i, err)
		}

		tracks := make([]spotifyTrack, 0, len(body.Tracks))
		for _, t := range body.Tracks {
			if t == nil || t.ID == "" {
				continue
			}
			tracks = append(tracks, *t)
		}
		if dropped := len(batch) - len(tracks); dropped > 0 {
			s.client.logger.Warn("spotify adapter: tracks missing from batch",
				zap.Int("batch", i),
				zap.Int("missing", dropped))
		}

		mapped := make([]domain.TrackMetadata, len(tracks))
		for j, t := range tracks {
			mapped[j] = mapTrackToDomain(t)
		}
		if err := s.resolveGenres(ctx, tracks, mapped); err != nil {
			return domain.TrackList{}, fmt.Errorf("spotify adapter: track batch %d: %w", i, err)
		}

		list.Tracks = append(list.Tracks, mapped...)
	}

	return list, nil
}
