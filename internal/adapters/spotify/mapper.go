package spotify

import "github.com/ewilliams-labs/encore/internal/core/domain"

// mapTrackToDomain flattens a track object. Genres are filled in later by
// the artist lookup.
func mapTrackToDomain(st spotifyTrack) domain.TrackMetadata {
	names := make([]string, 0, len(st.Artists))
	ids := make([]string, 0, len(st.Artists))
	for _, a := range st.Artists {
		names = append(names, a.Name)
		ids = append(ids, a.ID)
	}

	return domain.TrackMetadata{
		ID:               st.ID,
		Name:             st.Name,
		Popularity:       st.Popularity,
		DurationMs:       st.DurationMs,
		AlbumType:        st.Album.AlbumType,
		AlbumID:          st.Album.ID,
		AlbumName:        st.Album.Name,
		AlbumReleaseDate: st.Album.ReleaseDate,
		ArtistNames:      names,
		ArtistIDs:        ids,
	}
}

func mapFeaturesToDomain(sf spotifyAudioFeatures) *domain.AudioFeatures {
	return &domain.AudioFeatures{
		ID:               sf.ID,
		Acousticness:     sf.Acousticness,
		Danceability:     sf.Danceability,
		Energy:           sf.Energy,
		Instrumentalness: sf.Instrumentalness,
		Liveness:         sf.Liveness,
		Loudness:         sf.Loudness,
		Speechiness:      sf.Speechiness,
		Tempo:            sf.Tempo,
		Valence:          sf.Valence,
		Key:              sf.Key,
		Mode:             sf.Mode,
		DurationMs:       sf.DurationMs,
		TimeSignature:    sf.TimeSignature,
	}
}

// primaryArtistID is the track's first artist, falling back to the album's.
func primaryArtistID(st spotifyTrack) string {
	if len(st.Artists) > 0 && st.Artists[0].ID != "" {
		return st.Artists[0].ID
	}
	if len(st.Album.Artists) > 0 {
		return st.Album.Artists[0].ID
	}
	return ""
}
