package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/encore/internal/core/domain"
	"github.com/ewilliams-labs/encore/internal/core/ports"
)

const artistBatchSize = 50

// resolveGenres fills Genres on out, which is positionally aligned with
// tracks. Lookup failures are recorded on the affected tracks, except rate
// limits and cancellation, which are returned.
func (s *Session) resolveGenres(ctx context.Context, tracks []spotifyTrack, out []domain.TrackMetadata) error {
	if len(tracks) == 0 {
		return nil
	}
	if s.client.genreSource == genreSourceAll {
		return s.resolveAllArtistGenres(ctx, tracks, out)
	}

	positions := make([]int, 0, len(tracks))
	artistIDs := make([]string, 0, len(tracks))
	for i, t := range tracks {
		id := primaryArtistID(t)
		if id == "" {
			out[i].GenreFailure = "track has no artist"
			continue
		}
		positions = append(positions, i)
		artistIDs = append(artistIDs, id)
	}
	if len(artistIDs) == 0 {
		return nil
	}

	artists, err := s.artists(ctx, artistIDs)
	if err != nil {
		if abortsRun(ctx, err) {
			return err
		}
		s.client.logger.Warn("spotify adapter: artist genre lookup failed", zap.Error(err))
		markGenreFailure(out, positions, err.Error())
		return nil
	}

	for k, pos := range positions {
		a := artists[k]
		if a == nil {
			out[pos].GenreFailure = "artist not found"
			continue
		}
		out[pos].Genres = nonNilGenres(a.Genres)
		out[pos].GenresResolved = true
	}
	return nil
}

// resolveAllArtistGenres merges the genres of every artist on a track.
func (s *Session) resolveAllArtistGenres(ctx context.Context, tracks []spotifyTrack, out []domain.TrackMetadata) error {
	var all []string
	for _, t := range tracks {
		for _, a := range t.Artists {
			if a.ID != "" {
				all = append(all, a.ID)
			}
		}
	}
	unique := lo.Uniq(all)
	everyTrack := lo.Range(len(tracks))

	artists, err := s.artists(ctx, unique)
	if err != nil {
		if abortsRun(ctx, err) {
			return err
		}
		s.client.logger.Warn("spotify adapter: artist genre lookup failed", zap.Error(err))
		markGenreFailure(out, everyTrack, err.Error())
		return nil
	}

	byID := make(map[string]*spotifyArtist, len(unique))
	for k, id := range unique {
		if artists[k] != nil {
			byID[id] = artists[k]
		}
	}

	for i, t := range tracks {
		var genres []string
		found := false
		for _, ref := range t.Artists {
			if a, ok := byID[ref.ID]; ok {
				found = true
				genres = append(genres, a.Genres...)
			}
		}
		if !found {
			out[i].GenreFailure = "artist not found"
			continue
		}
		out[i].Genres = nonNilGenres(lo.Uniq(genres))
		out[i].GenresResolved = true
	}
	return nil
}

// artists looks up artists in batches of 50 and returns the entries in
// request order, so callers can zip them by position. A batch whose response
// length differs from the request fails the whole lookup. A null entry stays
// nil.
func (s *Session) artists(ctx context.Context, ids []string) ([]*spotifyArtist, error) {
	out := make([]*spotifyArtist, 0, len(ids))
	for _, batch := range lo.Chunk(ids, artistBatchSize) {
		var body artistsResponse
		if err := s.get(ctx, "/artists", url.Values{"ids": {strings.Join(batch, ",")}}, &body); err != nil {
			return nil, err
		}
		if len(body.Artists) != len(batch) {
			return nil, fmt.Errorf("spotify adapter: artist lookup returned %d entries for %d ids", len(body.Artists), len(batch))
		}
		out = append(out, body.Artists...)
	}
	return out, nil
}

// abortsRun reports lookup errors that must reach the caller instead of being
// recorded as a genre failure.
func abortsRun(ctx context.Context, err error) bool {
	return errors.Is(err, ports.ErrRateLimited) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		ctx.Err() != nil
}

func markGenreFailure(out []domain.TrackMetadata, positions []int, reason string) {
	for _, pos := range positions {
		out[pos].GenresResolved = false
		out[pos].Genres = nil
		out[pos].GenreFailure = reason
	}
}

func nonNilGenres(genres []string) []string {
	if genres == nil {
		return []string{}
	}
	return genres
}
