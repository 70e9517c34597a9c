package domain

// TrackMetadata is the per-track record assembled from the bulk track and
// artist endpoints. Genres come from the primary artist unless the client is
// configured to merge all artists.
type TrackMetadata struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Popularity       int      `json:"popularity"`
	DurationMs       int      `json:"duration_ms"`
	AlbumType        string   `json:"album_type"`
	AlbumID          string   `json:"album_id"`
	AlbumName        string   `json:"album_name"`
	AlbumReleaseDate string   `json:"album_release_date"`
	ArtistNames      []string `json:"artists"`
	ArtistIDs        []string `json:"artist_ids"`
	Genres           []string `json:"genres"`

	// GenresResolved is false when the artist lookup failed for this track.
	// GenreFailure then carries the reason.
	GenresResolved bool   `json:"genres_resolved"`
	GenreFailure   string `json:"genre_failure,omitempty"`
}

// TrackList is the ordered output of the bulk track fetcher for one playlist.
type TrackList struct {
	PlaylistID string
	Tracks     []TrackMetadata
}

// AudioFeatures holds the acoustic descriptors for a single track.
type AudioFeatures struct {
	ID               string  `json:"id"`
	Acousticness     float64 `json:"acousticness"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Loudness         float64 `json:"loudness"`
	Speechiness      float64 `json:"speechiness"`
	Tempo            float64 `json:"tempo"`
	Valence          float64 `json:"valence"`
	Key              int     `json:"key"`
	Mode             int     `json:"mode"`
	DurationMs       int     `json:"duration_ms"`
	TimeSignature    int     `json:"time_signature"`
}

// FeatureList is positionally aligned with the identifiers it was fetched
// for. A nil entry means the API returned no usable record for that id.
type FeatureList struct {
	PlaylistID string
	Features   []*AudioFeatures
}

// PlaylistInfo is descriptive playlist metadata shown next to an analysis.
type PlaylistInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerName string `json:"owner_name"`
	OwnerID   string `json:"owner_id"`
	Followers int    `json:"followers"`
}
