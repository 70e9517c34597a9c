package spotify

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"
)

const (
	playlistPageSize = 100
	playlistFields   = "items(track(id)),next"
)

// PlaylistTrackIDs pages through the playlist and returns its track ids in
// order. Entries without a track id (local files, removed tracks) are skipped.
func (s *Session) PlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error) {
	path := "/playlists/" + url.PathEscape(playlistID) + "/tracks"

	ids := []string{}
	skipped := 0
	for offset := 0; ; offset += playlistPageSize {
		query := url.Values{
			"offset": {strconv.Itoa(offset)},
			"limit":  {strconv.Itoa(playlistPageSize)},
			"fields": {playlistFields},
		}

		var page playlistItemsPage
		if err := s.get(ctx, path, query, &page); err != nil {
			return nil, fmt.Errorf("spotify adapter: list playlist %s at offset %d: %w", playlistID, offset, err)
		}

		for _, item := range page.Items {
			if item.Track == nil || item.Track.ID == "" {
				skipped++
				continue
			}
			ids = append(ids, item.Track.ID)
		}

		if page.Next == "" {
			break
		}
	}

	s.client.logger.Debug("spotify adapter: listed playlist",
		zap.String("playlist_id", playlistID),
		zap.Int("tracks", len(ids)),
		zap.Int("skipped", skipped))
	return ids, nil
}
