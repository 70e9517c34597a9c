package spotify

import (
	"context"
	"fmt"

	spotifyapi "github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"

	"github.com/ewilliams-labs/encore/internal/core/domain"
)

const playlistInfoFields = "id,name,owner(id,display_name),followers(total)"

// PlaylistInfo loads the playlist name, owner and follower count.
func (s *Session) PlaylistInfo(ctx context.Context, playlistID string) (domain.PlaylistInfo, error) {
	if err := s.client.limiter.Wait(ctx); err != nil {
		return domain.PlaylistInfo{}, fmt.Errorf("spotify adapter: request canceled: %w", err)
	}

	pl, err := s.api(ctx).GetPlaylist(ctx, spotifyapi.ID(playlistID), spotifyapi.Fields(playlistInfoFields))
	if err != nil {
		return domain.PlaylistInfo{}, fmt.Errorf("spotify adapter: get playlist %s: %w", playlistID, err)
	}

	return domain.PlaylistInfo{
		ID:        pl.ID.String(),
		Name:      pl.Name,
		OwnerName: pl.Owner.DisplayName,
		OwnerID:   pl.Owner.ID,
		Followers: int(pl.Followers.Count),
	}, nil
}

// api wraps the session token and the retrying transport in a zmb3 client.
func (s *Session) api(ctx context.Context) *spotifyapi.Client {
	base := context.WithValue(ctx, oauth2.HTTPClient, s.client.http.StandardClient())
	httpClient := oauth2.NewClient(base, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: s.token,
		TokenType:   "Bearer",
	}))
	return spotifyapi.New(httpClient, spotifyapi.WithBaseURL(s.client.baseURL+"/"))
}
