package domain

import (
	"fmt"
	"strings"
)

const (
	playlistLinkMarker = "open.spotify.com/playlist/"
	playlistURIPrefix  = "spotify:playlist:"
	playlistIDLength   = 22
)

// ParsePlaylistLink extracts the playlist id from a share link, a spotify URI,
// or a bare id. It never touches the network.
func ParsePlaylistLink(link string) (string, error) {
	link = strings.TrimSpace(link)

	var candidate string
	switch {
	case strings.Contains(link, playlistLinkMarker):
		candidate = link[strings.Index(link, playlistLinkMarker)+len(playlistLinkMarker):]
		if i := strings.IndexAny(candidate, "?#/"); i >= 0 {
			candidate = candidate[:i]
		}
	case strings.HasPrefix(link, playlistURIPrefix):
		candidate = strings.TrimPrefix(link, playlistURIPrefix)
	default:
		candidate = link
	}

	if !isPlaylistID(candidate) {
		return "", fmt.Errorf("%w: %q is not a playlist link", ErrInvalidLink, link)
	}
	return candidate, nil
}

func isPlaylistID(s string) bool {
	if len(s) != playlistIDLength {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}
